package evaluation

import (
	"sort"
	"strings"

	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/rule"
)

// RuleSource yields rules for one layer of the merged rule set. The
// orchestrator concatenates sources in a fixed order so reports are
// reproducible.
type RuleSource interface {
	Name() string
	Rules(in *Inputs) []rule.RegulatoryRule
}

// defaultSources is the fixed merge order: guideline rules first, then phase
// rules, then conditional rules.
func defaultSources() []RuleSource {
	return []RuleSource{guidelineSource{}, phaseSource{}, conditionalSource{}}
}

// guidelineSource filters the confirmed/overridden guideline rules by product
// side and numbering mode, then orders them by rule_id_code ascending.
type guidelineSource struct{}

func (guidelineSource) Name() string { return "guideline" }

func (guidelineSource) Rules(in *Inputs) []rule.RegulatoryRule {
	side := rule.SideDP
	if in.Context.ProductType == ProductDrugSubstance {
		side = rule.SideDS
	}

	var out []rule.RegulatoryRule
	for _, r := range in.GuidelineRules {
		if !r.Evaluable() {
			continue
		}
		if !r.AppliesToSide(side) {
			continue
		}
		if in.Context.NumberingMode == guideline.NumberingCTD && !mapsToCTD(r.MappedAppSections) {
			// CTD dossiers only carry 3.2.* sections; IMPD mode applies all.
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleIDCode < out[j].RuleIDCode })
	return out
}

func mapsToCTD(sections []string) bool {
	for _, s := range sections {
		if strings.HasPrefix(s, "3.2.") {
			return true
		}
	}
	return false
}

// phaseSource contributes the built-in rule set for the effective phase.
type phaseSource struct{}

func (phaseSource) Name() string { return "phase" }

func (phaseSource) Rules(in *Inputs) []rule.RegulatoryRule {
	return PhaseRules(in.Context.ClinicalPhase)
}

// conditionalSource contributes the always-evaluated conditional rules.
type conditionalSource struct{}

func (conditionalSource) Name() string { return "conditional" }

func (conditionalSource) Rules(_ *Inputs) []rule.RegulatoryRule {
	return ConditionalRules()
}
