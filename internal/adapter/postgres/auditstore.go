package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/port/auditlog"
)

// AuditStore implements auditlog.Store using PostgreSQL.
type AuditStore struct {
	pool *pgxpool.Pool
}

// NewAuditStore creates a new AuditStore backed by the given connection pool.
func NewAuditStore(pool *pgxpool.Pool) *AuditStore {
	return &AuditStore{pool: pool}
}

func (s *AuditStore) Append(ctx context.Context, e *audit.Entry) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO audit_log (project_id, subject, event_type, payload, actor, request_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		e.ProjectID, e.Subject, string(e.Type), []byte(e.Payload), e.Actor, e.RequestID, e.CreatedAt).
		Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *AuditStore) List(ctx context.Context, projectID string, filter auditlog.Filter, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 200
	}
	q := `SELECT id, project_id, subject, event_type, payload, actor, request_id, created_at
	      FROM audit_log WHERE project_id = $1`
	args := []any{projectID}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, types)
		q += fmt.Sprintf(" AND event_type = ANY($%d)", len(args))
	}
	if filter.Subject != "" {
		args = append(args, filter.Subject)
		q += fmt.Sprintf(" AND subject = $%d", len(args))
	}
	if filter.After != nil {
		args = append(args, *filter.After)
		q += fmt.Sprintf(" AND created_at > $%d", len(args))
	}
	if filter.Before != nil {
		args = append(args, *filter.Before)
		q += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		var e audit.Entry
		var payload []byte
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Subject, &e.Type, &payload,
			&e.Actor, &e.RequestID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Payload = payload
		out = append(out, e)
	}
	return out, rows.Err()
}
