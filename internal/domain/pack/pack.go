// Package pack defines the AllocationPack entity: a versioned, atomic batch
// of rules extracted from one guideline document. Packs are never deleted,
// only superseded by a higher version for the same guideline.
package pack

import (
	"time"

	"github.com/stabledocs/regula/internal/domain/rule"
)

// GlossaryEntry is a term definition extracted from the guideline.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	SourcePage int    `json:"source_page"`
}

// AllocationPack groups the rules extracted in one run over one guideline.
// Rules inside transition through review independently; the pack version is
// what makes past generation runs reproducible.
type AllocationPack struct {
	ID          string               `json:"id"`
	GuidelineID string               `json:"guideline_id"`
	Version     int                  `json:"version"`
	Rules       []rule.RegulatoryRule `json:"rules,omitempty"`
	Glossary    []GlossaryEntry      `json:"glossary,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// Reviewed reports whether every rule in the pack has been dispositioned.
// Informational only: confirmed rules are usable before the pack is fully
// reviewed, and pending rules never enter evaluation.
func (p *AllocationPack) Reviewed() bool {
	for i := range p.Rules {
		if p.Rules[i].Status == rule.StatusPendingReview {
			return false
		}
	}
	return len(p.Rules) > 0
}
