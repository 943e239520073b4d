package guideline

import (
	"fmt"
	"strings"

	"github.com/stabledocs/regula/internal/domain"
)

var validNumberingModes = map[NumberingMode]bool{
	NumberingCTD:  true,
	NumberingIMPD: true,
}

var validPhases = map[ClinicalPhase]bool{
	Phase1:       true,
	Phase2:       true,
	Phase3:       true,
	PostApproval: true,
}

// ValidNumberingMode reports whether m is a recognized numbering mode.
func ValidNumberingMode(m NumberingMode) bool { return validNumberingModes[m] }

// ValidPhase reports whether p is a recognized clinical phase.
func ValidPhase(p ClinicalPhase) bool { return validPhases[p] }

// Validate checks that a guideline record has the required metadata.
func (g *Guideline) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(g.Agency) == "" {
		return fmt.Errorf("agency is required: %w", domain.ErrValidation)
	}
	return nil
}

// ActivationRequest holds the fields needed to activate a guideline for a
// project.
type ActivationRequest struct {
	GuidelineID   string        `json:"guideline_id"`
	NumberingMode NumberingMode `json:"numbering_mode"`
	ClinicalPhase ClinicalPhase `json:"clinical_phase"`
}

// Validate checks an activation request, defaulting mode and phase the way
// the API contract documents.
func (r *ActivationRequest) Validate() error {
	if r.GuidelineID == "" {
		return fmt.Errorf("guideline_id is required: %w", domain.ErrValidation)
	}
	if r.NumberingMode == "" {
		r.NumberingMode = NumberingCTD
	}
	if r.ClinicalPhase == "" {
		r.ClinicalPhase = Phase1
	}
	if !validNumberingModes[r.NumberingMode] {
		return fmt.Errorf("invalid numbering_mode %q: %w", r.NumberingMode, domain.ErrValidation)
	}
	if !validPhases[r.ClinicalPhase] {
		return fmt.Errorf("invalid clinical_phase %q: %w", r.ClinicalPhase, domain.ErrValidation)
	}
	return nil
}
