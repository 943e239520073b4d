package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/port/database"
)

const ruleColumns = `id, pack_id, rule_id_code, applies_to, mapped_app_sections,
	requirement_level, rule_text, evidence_expected, ui_fields_required,
	validation_severity, validation_logic, traceability, confidence, status,
	override_justification, source, created_at, updated_at`

func scanRule(s scannable) (rule.RegulatoryRule, error) {
	var r rule.RegulatoryRule
	var appliesTo []string
	var traceJSON []byte
	err := s.Scan(&r.ID, &r.PackID, &r.RuleIDCode, &appliesTo, &r.MappedAppSections,
		&r.RequirementLevel, &r.RuleText, &r.EvidenceExpected, &r.UIFieldsRequired,
		&r.ValidationSeverity, &r.ValidationLogic, &traceJSON, &r.Confidence, &r.Status,
		&r.OverrideJustification, &r.Source, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	r.AppliesTo = sidesFromText(appliesTo)
	if len(traceJSON) > 0 {
		if err := json.Unmarshal(traceJSON, &r.Traceability); err != nil {
			return r, fmt.Errorf("unmarshal traceability: %w", err)
		}
	}
	return r, nil
}

// ListRules returns rules matching the filter, ordered by rule_id_code so
// listings are stable across runs.
func (s *Store) ListRules(ctx context.Context, filter database.RuleFilter) ([]rule.RegulatoryRule, error) {
	q := `SELECT ` + ruleColumns + ` FROM regulatory_rules WHERE 1=1`
	var args []any
	if filter.PackID != "" {
		args = append(args, filter.PackID)
		q += fmt.Sprintf(" AND pack_id = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Side != "" {
		args = append(args, string(filter.Side))
		q += fmt.Sprintf(" AND $%d = ANY(applies_to)", len(args))
	}
	if filter.Section != "" {
		args = append(args, filter.Section)
		q += fmt.Sprintf(" AND $%d = ANY(mapped_app_sections)", len(args))
	}
	q += " ORDER BY rule_id_code ASC"

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []rule.RegulatoryRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetRule(ctx context.Context, id string) (*rule.RegulatoryRule, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM regulatory_rules WHERE id = $1`, id)
	r, err := scanRule(row)
	if err != nil {
		return nil, notFoundWrap(err, "get rule %s", id)
	}
	return &r, nil
}

// UpdateRuleStatus persists a review disposition. Transition legality is the
// service's concern; this only writes the new state.
func (s *Store) UpdateRuleStatus(ctx context.Context, id string, status rule.Status, justification string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE regulatory_rules SET status = $2, override_justification = $3, updated_at = now()
		 WHERE id = $1`,
		id, string(status), justification)
	return execExpectOne(tag, err, "update rule status %s", id)
}

// EvaluableRules returns confirmed and overridden rules from the latest pack
// of each given guideline, ordered by rule_id_code.
func (s *Store) EvaluableRules(ctx context.Context, guidelineIDs []string) ([]rule.RegulatoryRule, error) {
	if len(guidelineIDs) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+ruleColumns+` FROM regulatory_rules r
		 WHERE r.status IN ('confirmed', 'overridden')
		   AND r.pack_id IN (
			 SELECT DISTINCT ON (guideline_id) id FROM allocation_packs
			 WHERE guideline_id = ANY($1)
			 ORDER BY guideline_id, version DESC)
		 ORDER BY r.rule_id_code ASC`, guidelineIDs)
	if err != nil {
		return nil, fmt.Errorf("list evaluable rules: %w", err)
	}
	defer rows.Close()

	var out []rule.RegulatoryRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
