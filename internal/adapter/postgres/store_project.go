package postgres

import (
	"context"
	"fmt"

	"github.com/stabledocs/regula/internal/domain/project"
)

const projectColumns = `id, name, product_type, product_name, dosage_form, clinical_phase,
	requires_reconstitution, is_multi_dose, in_use_justification,
	retest_period, retest_period_justification, shelf_life, shelf_life_justification,
	storage_conditions, stability_commitment, specification_reference, container_closure,
	created_at, updated_at`

func scanProject(s scannable) (project.Project, error) {
	var p project.Project
	err := s.Scan(&p.ID, &p.Name, &p.ProductType, &p.ProductName, &p.DosageForm, &p.ClinicalPhase,
		&p.RequiresReconstitution, &p.IsMultiDose, &p.InUseJustification,
		&p.RetestPeriod, &p.RetestPeriodJustification, &p.ShelfLife, &p.ShelfLifeJustification,
		&p.StorageConditions, &p.StabilityCommitment, &p.SpecificationReference, &p.ContainerClosure,
		&p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM stability_projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}
	return &p, nil
}

func (s *Store) ListStudies(ctx context.Context, projectID string) ([]project.Study, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, side, study_type, has_table, has_result, created_at
		 FROM stability_studies WHERE project_id = $1 ORDER BY created_at ASC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list studies: %w", err)
	}
	defer rows.Close()

	var out []project.Study
	for rows.Next() {
		var st project.Study
		if err := rows.Scan(&st.ID, &st.ProjectID, &st.Side, &st.Type, &st.HasTable,
			&st.HasResult, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) ProjectCounts(ctx context.Context, projectID string) (*project.Counts, error) {
	var c project.Counts
	err := s.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM stability_lots WHERE project_id = $1),
			(SELECT COUNT(*) FROM storage_conditions WHERE project_id = $1)`,
		projectID).Scan(&c.Lots, &c.Conditions)
	if err != nil {
		return nil, fmt.Errorf("project counts %s: %w", projectID, err)
	}
	return &c, nil
}
