package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stabledocs/regula/internal/domain/evaluation"
)

// AppendEvaluationLog batch-inserts log rows. The table is append-only:
// there is no update or delete path anywhere in the adapter.
func (s *Store) AppendEvaluationLog(ctx context.Context, entries []evaluation.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO rule_evaluation_log (id, project_id, evaluation_id, generation_run_id,
				rule_id_code, result, severity, details, waiver_justification, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			e.ID, e.ProjectID, e.EvaluationID, e.GenerationRunID,
			e.RuleIDCode, string(e.Result), string(e.Severity), e.Details,
			e.WaiverJustification, e.CreatedAt)
	}
	res := s.pool.SendBatch(ctx, batch)
	defer func() { _ = res.Close() }()
	for range entries {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("append evaluation log: %w", err)
		}
	}
	return nil
}

func (s *Store) ListEvaluationLog(ctx context.Context, projectID string, limit int) ([]evaluation.LogEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, evaluation_id, generation_run_id, rule_id_code,
			result, severity, details, waiver_justification, created_at
		 FROM rule_evaluation_log WHERE project_id = $1
		 ORDER BY created_at DESC, rule_id_code ASC LIMIT $2`, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluation log: %w", err)
	}
	defer rows.Close()

	var out []evaluation.LogEntry
	for rows.Next() {
		var e evaluation.LogEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.EvaluationID, &e.GenerationRunID,
			&e.RuleIDCode, &e.Result, &e.Severity, &e.Details,
			&e.WaiverJustification, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation log: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
