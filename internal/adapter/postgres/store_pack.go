package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stabledocs/regula/internal/domain/pack"
	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/port/database"
)

// CreatePack inserts the pack and all its rules in one transaction. The pack
// version is assigned here: one above the guideline's latest.
func (s *Store) CreatePack(ctx context.Context, p *pack.AllocationPack) (*pack.AllocationPack, error) {
	glossaryJSON, err := json.Marshal(orEmpty(p.Glossary))
	if err != nil {
		return nil, fmt.Errorf("marshal glossary: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create pack: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	created := *p
	err = tx.QueryRow(ctx,
		`INSERT INTO allocation_packs (guideline_id, version, glossary)
		 VALUES ($1, COALESCE((SELECT MAX(version) FROM allocation_packs WHERE guideline_id = $1), 0) + 1, $2)
		 RETURNING id, version, created_at`,
		p.GuidelineID, glossaryJSON).Scan(&created.ID, &created.Version, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create pack: %w", err)
	}

	for i := range p.Rules {
		r := &p.Rules[i]
		traceJSON, err := json.Marshal(r.Traceability)
		if err != nil {
			return nil, fmt.Errorf("marshal traceability: %w", err)
		}
		err = tx.QueryRow(ctx,
			`INSERT INTO regulatory_rules (pack_id, rule_id_code, applies_to, mapped_app_sections,
				requirement_level, rule_text, evidence_expected, ui_fields_required,
				validation_severity, validation_logic, traceability, confidence, status, source)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 RETURNING id, created_at, updated_at`,
			created.ID, r.RuleIDCode, sidesToText(r.AppliesTo), pgTextArray(r.MappedAppSections),
			string(r.RequirementLevel), r.RuleText, pgTextArray(r.EvidenceExpected),
			pgTextArray(r.UIFieldsRequired), string(r.ValidationSeverity), r.ValidationLogic,
			traceJSON, r.Confidence, string(r.Status), string(r.Source)).
			Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("create rule %s: %w", r.RuleIDCode, err)
		}
		r.PackID = created.ID
	}
	created.Rules = p.Rules

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create pack: %w", err)
	}
	return &created, nil
}

func (s *Store) GetPack(ctx context.Context, id string) (*pack.AllocationPack, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, guideline_id, version, glossary, created_at FROM allocation_packs WHERE id = $1`, id)
	p, err := scanPack(row)
	if err != nil {
		return nil, notFoundWrap(err, "get pack %s", id)
	}
	if err := s.loadPackRules(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// LatestPack returns the highest-version pack for a guideline, rules
// included.
func (s *Store) LatestPack(ctx context.Context, guidelineID string) (*pack.AllocationPack, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, guideline_id, version, glossary, created_at
		 FROM allocation_packs WHERE guideline_id = $1
		 ORDER BY version DESC LIMIT 1`, guidelineID)
	p, err := scanPack(row)
	if err != nil {
		return nil, notFoundWrap(err, "latest pack for guideline %s", guidelineID)
	}
	if err := s.loadPackRules(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func scanPack(row pgx.Row) (*pack.AllocationPack, error) {
	var p pack.AllocationPack
	var glossaryJSON []byte
	if err := row.Scan(&p.ID, &p.GuidelineID, &p.Version, &glossaryJSON, &p.CreatedAt); err != nil {
		return nil, err
	}
	if len(glossaryJSON) > 0 {
		if err := json.Unmarshal(glossaryJSON, &p.Glossary); err != nil {
			return nil, fmt.Errorf("unmarshal glossary: %w", err)
		}
	}
	return &p, nil
}

func (s *Store) loadPackRules(ctx context.Context, p *pack.AllocationPack) error {
	rules, err := s.ListRules(ctx, database.RuleFilter{PackID: p.ID})
	if err != nil {
		return fmt.Errorf("load rules for pack %s: %w", p.ID, err)
	}
	p.Rules = orEmpty(rules)
	return nil
}

func sidesToText(sides []rule.ProductSide) []string {
	out := make([]string, len(sides))
	for i, s := range sides {
		out[i] = string(s)
	}
	return out
}

func sidesFromText(vals []string) []rule.ProductSide {
	out := make([]rule.ProductSide, len(vals))
	for i, v := range vals {
		out[i] = rule.ProductSide(v)
	}
	return out
}
