package evaluation

import (
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/rule"
)

// Built-in rules are first-class RegulatoryRule records evaluated by the same
// expression engine as extracted ones, not special-cased code paths. They are
// always status confirmed and carry no traceability (there is no source
// document).

// Built-in rule id codes.
const (
	CodePhase1Commit  = "PHASE-I-COMMIT"
	CodePhase1Study   = "PHASE-I-STUDY"
	CodePhase1Results = "PHASE-I-RESULTS"
	CodePhase23Accel  = "PHASE-II-III-ACCEL"
	CodePhase23LT     = "PHASE-II-III-LT"
	CodeCondInUse     = "COND-INUSE-001"
)

func builtin(code string, sev rule.Severity, level rule.RequirementLevel, src rule.Source, text, logic string) rule.RegulatoryRule {
	return rule.RegulatoryRule{
		ID:                 "builtin:" + code,
		RuleIDCode:         code,
		AppliesTo:          []rule.ProductSide{rule.SideDS, rule.SideDP},
		RequirementLevel:   level,
		RuleText:           text,
		ValidationSeverity: sev,
		ValidationLogic:    logic,
		Status:             rule.StatusConfirmed,
		Source:             src,
	}
}

// phase1Rules are enforced for Phase I projects only.
var phase1Rules = []rule.RegulatoryRule{
	builtin(CodePhase1Commit, rule.SeverityBlock, rule.LevelMust, rule.SourcePhase,
		"Phase I requires an ongoing stability program commitment statement.",
		"field_present('product.stability_commitment')"),
	builtin(CodePhase1Study, rule.SeverityBlock, rule.LevelMust, rule.SourcePhase,
		"Phase I requires at least one accelerated or long-term stability study to be initiated, even if only partial results are available.",
		"field_present('studies.primary_initiated')"),
	builtin(CodePhase1Results, rule.SeverityWarn, rule.LevelShould, rule.SourcePhase,
		"Available stability results, or a documented justification for their absence, should be tabulated for Phase I.",
		"field_present('results.any')"),
}

// phase23Rules are enforced for Phase II and Phase III projects, never
// alongside the Phase I set.
var phase23Rules = []rule.RegulatoryRule{
	builtin(CodePhase23Accel, rule.SeverityBlock, rule.LevelMust, rule.SourcePhase,
		"Phase II/III requires an accelerated stability results table, or a documented justification for its absence.",
		"field_present('studies.accelerated') AND field_present('results.stability_table')"),
	builtin(CodePhase23LT, rule.SeverityBlock, rule.LevelMust, rule.SourcePhase,
		"Phase II/III requires a long-term stability results table, or a documented justification for its absence.",
		"field_present('studies.long_term') AND field_present('results.stability_table')"),
}

// conditionalRules are evaluated in every pass regardless of phase. Their
// applicability condition lives in the IF arm, so a non-applicable project
// passes vacuously instead of being skipped.
var conditionalRules = []rule.RegulatoryRule{
	builtin(CodeCondInUse, rule.SeverityBlock, rule.LevelMust, rule.SourceConditional,
		"Products requiring reconstitution, dilution or mixing, or dispensed multi-dose, must have in-use stability data or a controlled justification for its absence.",
		"IF field_present('product.in_use_required') THEN field_present('dp.in_use_coverage')"),
}

// PhaseRules returns the built-in rule set for a clinical phase. The Phase I
// and Phase II/III sets are mutually exclusive; post-approval projects have
// no built-in phase rules.
func PhaseRules(phase guideline.ClinicalPhase) []rule.RegulatoryRule {
	switch phase {
	case guideline.Phase1:
		return phase1Rules
	case guideline.Phase2, guideline.Phase3:
		return phase23Rules
	default:
		return nil
	}
}

// ConditionalRules returns the built-in conditional rule set.
func ConditionalRules() []rule.RegulatoryRule {
	return conditionalRules
}
