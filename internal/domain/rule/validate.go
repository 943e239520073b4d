package rule

import (
	"fmt"
	"strings"

	"github.com/stabledocs/regula/internal/domain"
)

// validStatuses enumerates all valid rule statuses.
var validStatuses = map[Status]bool{
	StatusPendingReview: true,
	StatusConfirmed:     true,
	StatusRejected:      true,
	StatusOverridden:    true,
}

// validTransitions is the review state machine. Extraction only ever creates
// pending_review rules; confirmation is a human act.
var validTransitions = map[Status][]Status{
	StatusPendingReview: {StatusConfirmed, StatusRejected, StatusOverridden},
	StatusConfirmed:     {StatusOverridden},
	StatusRejected:      {StatusOverridden},
	StatusOverridden:    {},
}

// ValidateTransition checks a status change, including the override
// justification requirement.
func ValidateTransition(from, to Status, justification string) error {
	if !validStatuses[to] {
		return fmt.Errorf("invalid status %q: %w", to, domain.ErrValidation)
	}
	allowed := false
	for _, s := range validTransitions[from] {
		if s == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("cannot transition rule from %q to %q: %w", from, to, domain.ErrValidation)
	}
	if to == StatusOverridden && strings.TrimSpace(justification) == "" {
		return fmt.Errorf("override requires a justification: %w", domain.ErrValidation)
	}
	return nil
}

// Validate checks that a rule has all required fields and valid values.
func (r *RegulatoryRule) Validate() error {
	if strings.TrimSpace(r.RuleIDCode) == "" {
		return fmt.Errorf("rule_id_code is required: %w", domain.ErrValidation)
	}
	if len(r.AppliesTo) == 0 {
		return fmt.Errorf("applies_to must name at least one of DS, DP: %w", domain.ErrValidation)
	}
	for _, s := range r.AppliesTo {
		if s != SideDS && s != SideDP {
			return fmt.Errorf("invalid applies_to side %q: %w", s, domain.ErrValidation)
		}
	}
	switch r.RequirementLevel {
	case LevelMust, LevelShould, LevelMay:
	default:
		return fmt.Errorf("invalid requirement_level %q: %w", r.RequirementLevel, domain.ErrValidation)
	}
	switch r.ValidationSeverity {
	case SeverityBlock, SeverityWarn:
	default:
		return fmt.Errorf("invalid validation_severity %q: %w", r.ValidationSeverity, domain.ErrValidation)
	}
	if r.Status != "" && !validStatuses[r.Status] {
		return fmt.Errorf("invalid status %q: %w", r.Status, domain.ErrValidation)
	}
	if r.Status == StatusOverridden && strings.TrimSpace(r.OverrideJustification) == "" {
		return fmt.Errorf("overridden rule requires override_justification: %w", domain.ErrValidation)
	}
	return nil
}
