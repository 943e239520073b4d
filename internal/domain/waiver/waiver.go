// Package waiver defines project-scoped rule waivers. A waiver suppresses a
// failing rule's effect on the gate decision without deleting the evidence:
// the original FAIL detail is still recorded alongside the justification.
package waiver

import (
	"fmt"
	"strings"
	"time"

	"github.com/stabledocs/regula/internal/domain"
)

// Waiver is keyed by (project, rule_id_code): at most one active waiver per
// rule per project. Adding again replaces the justification and is
// audit-logged as an update.
type Waiver struct {
	ProjectID     string    `json:"project_id"`
	RuleIDCode    string    `json:"rule_id_code"`
	Justification string    `json:"justification"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// AddRequest holds the fields needed to add or replace a waiver.
type AddRequest struct {
	RuleIDCode    string `json:"rule_id_code"`
	Justification string `json:"justification"`
	CreatedBy     string `json:"created_by,omitempty"`
}

// Validate rejects empty codes and empty or whitespace-only justifications
// before any state mutation.
func (r *AddRequest) Validate() error {
	if strings.TrimSpace(r.RuleIDCode) == "" {
		return fmt.Errorf("rule_id_code is required: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Justification) == "" {
		return fmt.Errorf("justification must not be empty: %w", domain.ErrValidation)
	}
	return nil
}
