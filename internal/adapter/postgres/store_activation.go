package postgres

import (
	"context"
	"fmt"

	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/guideline"
)

const activationColumns = `id, project_id, guideline_id, numbering_mode, clinical_phase, created_at`

func scanActivation(s scannable) (guideline.Activation, error) {
	var a guideline.Activation
	err := s.Scan(&a.ID, &a.ProjectID, &a.GuidelineID, &a.NumberingMode, &a.ClinicalPhase, &a.CreatedAt)
	return a, err
}

func (s *Store) ListActivations(ctx context.Context, projectID string) ([]guideline.Activation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+activationColumns+` FROM guideline_activations
		 WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	defer rows.Close()

	var out []guideline.Activation
	for rows.Next() {
		a, err := scanActivation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CreateActivation is idempotent per (project, guideline): activating again
// updates mode and phase instead of inserting a duplicate.
func (s *Store) CreateActivation(ctx context.Context, projectID string, req guideline.ActivationRequest) (*guideline.Activation, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO guideline_activations (project_id, guideline_id, numbering_mode, clinical_phase)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (project_id, guideline_id)
		 DO UPDATE SET numbering_mode = EXCLUDED.numbering_mode, clinical_phase = EXCLUDED.clinical_phase
		 RETURNING `+activationColumns,
		projectID, req.GuidelineID, string(req.NumberingMode), string(req.ClinicalPhase))

	a, err := scanActivation(row)
	if err != nil {
		return nil, fmt.Errorf("create activation: %w", err)
	}
	return &a, nil
}

func (s *Store) DeleteActivation(ctx context.Context, projectID, guidelineID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM guideline_activations WHERE project_id = $1 AND guideline_id = $2`,
		projectID, guidelineID)
	if err != nil {
		return fmt.Errorf("delete activation %s/%s: %w", projectID, guidelineID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activation %s/%s: %w", projectID, guidelineID, domain.ErrNotFound)
	}
	return nil
}
