package postgres

import (
	"context"
	"fmt"

	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/waiver"
)

const waiverColumns = `project_id, rule_id_code, justification, created_by, created_at, updated_at`

func scanWaiver(s scannable) (waiver.Waiver, error) {
	var w waiver.Waiver
	err := s.Scan(&w.ProjectID, &w.RuleIDCode, &w.Justification, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt)
	return w, err
}

func (s *Store) ListWaivers(ctx context.Context, projectID string) ([]waiver.Waiver, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+waiverColumns+` FROM waivers WHERE project_id = $1 ORDER BY rule_id_code ASC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list waivers: %w", err)
	}
	defer rows.Close()

	var out []waiver.Waiver
	for rows.Next() {
		w, err := scanWaiver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waiver: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// UpsertWaiver inserts the waiver or, when one already exists for the
// (project, rule) pair, replaces its justification. It reports whether a new
// row was created so the caller can audit add vs update.
func (s *Store) UpsertWaiver(ctx context.Context, w *waiver.Waiver) (bool, error) {
	var created bool
	row := s.pool.QueryRow(ctx,
		`INSERT INTO waivers (project_id, rule_id_code, justification, created_by)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (project_id, rule_id_code)
		 DO UPDATE SET justification = EXCLUDED.justification, updated_at = now()
		 RETURNING (created_at = updated_at), created_at, updated_at`,
		w.ProjectID, w.RuleIDCode, w.Justification, w.CreatedBy)
	if err := row.Scan(&created, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return false, fmt.Errorf("upsert waiver %s/%s: %w", w.ProjectID, w.RuleIDCode, err)
	}
	return created, nil
}

func (s *Store) DeleteWaiver(ctx context.Context, projectID, ruleIDCode string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM waivers WHERE project_id = $1 AND rule_id_code = $2`, projectID, ruleIDCode)
	if err != nil {
		return fmt.Errorf("delete waiver %s/%s: %w", projectID, ruleIDCode, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("waiver %s/%s: %w", projectID, ruleIDCode, domain.ErrNotFound)
	}
	return nil
}
