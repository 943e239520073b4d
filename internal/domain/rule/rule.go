// Package rule defines the RegulatoryRule domain entity. A rule is an
// enforceable obligation either extracted from a regulatory guideline or
// built into the engine (phase and conditional rules share the same shape).
package rule

import "time"

// ProductSide identifies which side of the dossier a rule targets.
type ProductSide string

const (
	SideDS ProductSide = "DS" // drug substance
	SideDP ProductSide = "DP" // drug product
)

// RequirementLevel is the modal strength of the source obligation.
// It is informational for reviewers; gating behavior is driven by Severity.
type RequirementLevel string

const (
	LevelMust   RequirementLevel = "MUST"
	LevelShould RequirementLevel = "SHOULD"
	LevelMay    RequirementLevel = "MAY"
)

// Severity drives generation gating: BLOCK failures stop generation,
// WARN failures do not.
type Severity string

const (
	SeverityBlock Severity = "BLOCK"
	SeverityWarn  Severity = "WARN"
)

// Status is the human-review disposition of a rule. Only confirmed and
// overridden rules are eligible for evaluation.
type Status string

const (
	StatusPendingReview Status = "pending_review"
	StatusConfirmed     Status = "confirmed"
	StatusRejected      Status = "rejected"
	StatusOverridden    Status = "overridden"
)

// Source identifies which provider contributed a rule to an evaluation pass.
type Source string

const (
	SourceGuideline   Source = "guideline"
	SourcePhase       Source = "phase"
	SourceConditional Source = "conditional"
)

// Traceability anchors a rule back to the guideline text it came from.
type Traceability struct {
	SourceFileID   string `json:"source_file_id"`
	Page           int    `json:"page"`
	SectionHeading string `json:"section_heading"`
	Excerpt        string `json:"excerpt"` // at most 25 words, truncated at a word boundary
}

// RegulatoryRule is one enforceable obligation. RuleIDCode is globally unique
// and immutable; ValidationLogic is immutable once the rule is confirmed
// (revisions require a new allocation pack version).
type RegulatoryRule struct {
	ID                    string           `json:"id"`
	PackID                string           `json:"pack_id,omitempty"`
	RuleIDCode            string           `json:"rule_id_code"`
	AppliesTo             []ProductSide    `json:"applies_to"`
	MappedAppSections     []string         `json:"mapped_app_sections"`
	RequirementLevel      RequirementLevel `json:"requirement_level"`
	RuleText              string           `json:"rule_text"`
	EvidenceExpected      []string         `json:"evidence_expected,omitempty"`
	UIFieldsRequired      []string         `json:"ui_fields_required,omitempty"`
	ValidationSeverity    Severity         `json:"validation_severity"`
	ValidationLogic       string           `json:"validation_logic"`
	Traceability          Traceability     `json:"traceability"`
	Confidence            float64          `json:"confidence,omitempty"`
	Status                Status           `json:"status"`
	OverrideJustification string           `json:"override_justification,omitempty"`
	Source                Source           `json:"source"`
	CreatedAt             time.Time        `json:"created_at"`
	UpdatedAt             time.Time        `json:"updated_at"`
}

// AppliesToSide reports whether the rule targets the given product side.
func (r *RegulatoryRule) AppliesToSide(side ProductSide) bool {
	for _, s := range r.AppliesTo {
		if s == side {
			return true
		}
	}
	return false
}

// Evaluable reports whether the rule's disposition allows it to enter an
// evaluation pass.
func (r *RegulatoryRule) Evaluable() bool {
	return r.Status == StatusConfirmed || r.Status == StatusOverridden
}
