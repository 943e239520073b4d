package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/guideline"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// --- Guidelines ---

const guidelineColumns = `id, title, agency, document_id, doc_version, publication_date,
	original_filename, checksum_sha256, status, notes, created_at, updated_at`

func scanGuideline(s scannable) (guideline.Guideline, error) {
	var g guideline.Guideline
	err := s.Scan(&g.ID, &g.Title, &g.Agency, &g.DocumentID, &g.Version, &g.PublicationDate,
		&g.OriginalFilename, &g.ChecksumSHA256, &g.Status, &g.Notes, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (s *Store) ListGuidelines(ctx context.Context) ([]guideline.Guideline, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+guidelineColumns+` FROM guidelines ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list guidelines: %w", err)
	}
	defer rows.Close()

	var out []guideline.Guideline
	for rows.Next() {
		g, err := scanGuideline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guideline: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) GetGuideline(ctx context.Context, id string) (*guideline.Guideline, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+guidelineColumns+` FROM guidelines WHERE id = $1`, id)

	g, err := scanGuideline(row)
	if err != nil {
		return nil, notFoundWrap(err, "get guideline %s", id)
	}
	return &g, nil
}

func (s *Store) CreateGuideline(ctx context.Context, g *guideline.Guideline) (*guideline.Guideline, error) {
	// The checksum pins the exact uploaded bytes; re-uploading the same
	// document is a conflict, not a new record.
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM guidelines WHERE checksum_sha256 = $1)`,
		g.ChecksumSHA256).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("check guideline checksum: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("guideline with checksum %s already uploaded: %w",
			g.ChecksumSHA256, domain.ErrConflict)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO guidelines (title, agency, document_id, doc_version, publication_date,
			original_filename, checksum_sha256, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+guidelineColumns,
		g.Title, g.Agency, g.DocumentID, g.Version, g.PublicationDate,
		g.OriginalFilename, g.ChecksumSHA256, g.Status, g.Notes)

	created, err := scanGuideline(row)
	if err != nil {
		return nil, fmt.Errorf("create guideline: %w", err)
	}
	return &created, nil
}

func (s *Store) UpdateGuidelineStatus(ctx context.Context, id string, status guideline.ExtractionStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE guidelines SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	return execExpectOne(tag, err, "update guideline status %s", id)
}

func (s *Store) UpdateGuidelineMetadata(ctx context.Context, g *guideline.Guideline) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE guidelines SET title = $2, agency = $3, document_id = $4, doc_version = $5,
			publication_date = $6, notes = $7, updated_at = now()
		 WHERE id = $1`,
		g.ID, g.Title, g.Agency, g.DocumentID, g.Version, g.PublicationDate, g.Notes)
	return execExpectOne(tag, err, "update guideline %s", g.ID)
}

func (s *Store) DeleteGuideline(ctx context.Context, id string) error {
	// A guideline that has ever been activated stays: activations and the
	// evaluation history referencing its rules must remain reconstructable.
	var activated bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM guideline_activations WHERE guideline_id = $1)`, id).Scan(&activated)
	if err != nil {
		return fmt.Errorf("delete guideline %s: %w", id, err)
	}
	if activated {
		return fmt.Errorf("guideline %s is activated on a project: %w", id, domain.ErrConflict)
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM guidelines WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete guideline %s", id)
}

// --- Guideline file bytes ---

func (s *Store) PutGuidelineFile(ctx context.Context, id string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO guideline_files (guideline_id, data) VALUES ($1, $2)
		 ON CONFLICT (guideline_id) DO NOTHING`, id, data)
	if err != nil {
		return fmt.Errorf("put guideline file %s: %w", id, err)
	}
	return nil
}

func (s *Store) GetGuidelineFile(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM guideline_files WHERE guideline_id = $1`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("guideline file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get guideline file %s: %w", id, err)
	}
	return data, nil
}
