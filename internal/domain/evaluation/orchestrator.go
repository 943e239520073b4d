package evaluation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/domain/rule/logic"
	"github.com/stabledocs/regula/internal/domain/waiver"
)

// Inputs carries everything one evaluation pass reads. The orchestrator is a
// pure function over this struct: no ambient state, so two passes over
// identical inputs produce identical reports.
type Inputs struct {
	ProjectID       string
	EvaluationID    string
	GenerationRunID string
	Activations     []guideline.Activation
	GuidelineRules  []rule.RegulatoryRule
	Waivers         []waiver.Waiver
	Context         *ProjectContext
	Registry        *Registry
	Now             time.Time
}

// Evaluate runs one full evaluation pass and returns the aggregated report.
//
// Rule-level faults (malformed logic, unknown paths) are isolated: the
// offending rule records FAIL with a diagnostic and the pass continues. A
// configuration conflict between activations aborts the pass with
// domain.ErrConfigConflict so it is never mistaken for a data deficiency.
func Evaluate(in Inputs) (*Report, error) {
	if in.Context == nil {
		return nil, errors.New("evaluation inputs missing project context")
	}
	if in.Registry == nil {
		in.Registry = DefaultRegistry()
	}

	phase, err := effectivePhase(in.Activations, in.Context.ClinicalPhase)
	if err != nil {
		return nil, err
	}
	numbering, err := effectiveNumbering(in.Activations, in.Context.NumberingMode)
	if err != nil {
		return nil, err
	}
	// Work on a copy so the caller's snapshot stays untouched.
	ctx := *in.Context
	ctx.ClinicalPhase = phase
	ctx.NumberingMode = numbering
	in.Context = &ctx

	waivers := make(map[string]waiver.Waiver, len(in.Waivers))
	for _, w := range in.Waivers {
		waivers[w.RuleIDCode] = w
	}

	resolver := in.Registry.Resolver(&ctx)

	report := &Report{
		EvaluationID:    in.EvaluationID,
		GenerationRunID: in.GenerationRunID,
		ProjectID:       in.ProjectID,
		Timestamp:       in.Now.UTC(),
	}

	for _, src := range defaultSources() {
		for _, r := range src.Rules(&in) {
			ev := evaluateRule(&r, resolver)
			if ev.Result == ResultFail {
				if w, ok := waivers[r.RuleIDCode]; ok {
					// Suppress the gate effect but preserve the failure detail.
					ev.Result = ResultWaived
					ev.WaiverJustification = w.Justification
				}
			}
			switch {
			case ev.Result == ResultFail && ev.Severity == rule.SeverityBlock:
				report.BlockingFailures = append(report.BlockingFailures, ev)
			case ev.Result == ResultFail || ev.Result == ResultManual:
				report.Warnings = append(report.Warnings, ev)
			case ev.Result == ResultWaived:
				report.Waivers = append(report.Waivers, ev)
			default:
				report.Passes = append(report.Passes, ev)
			}
		}
	}

	report.CanProceed = len(report.BlockingFailures) == 0
	return report, nil
}

// evaluateRule evaluates one rule's validation logic. Parse failures and
// unresolvable paths fail closed with a diagnostic rather than aborting the
// pass or silently passing.
func evaluateRule(r *rule.RegulatoryRule, resolver logic.Resolver) RuleEvaluation {
	ev := RuleEvaluation{
		RuleID:     r.ID,
		RuleIDCode: r.RuleIDCode,
		Source:     r.Source,
		Severity:   r.ValidationSeverity,
	}

	expr, err := logic.Parse(r.ValidationLogic)
	if err != nil {
		ev.Result = ResultFail
		ev.Details = fmt.Sprintf("rule logic is malformed: %v", err)
		return ev
	}

	outcome, err := logic.Eval(expr, resolver)
	if err != nil {
		var unknown *logic.UnknownPathError
		if errors.As(err, &unknown) {
			ev.Result = ResultFail
			ev.Details = fmt.Sprintf("rule references unknown field path %q", unknown.Path)
			return ev
		}
		ev.Result = ResultFail
		ev.Details = fmt.Sprintf("rule logic evaluation failed: %v", err)
		return ev
	}

	switch outcome {
	case logic.Satisfied:
		ev.Result = ResultPass
		ev.Details = "All required facts present."
	case logic.Manual:
		ev.Result = ResultManual
		ev.Details = "Manual review required; the engine cannot check this obligation mechanically."
	default:
		ev.Result = ResultFail
		ev.Details = failureDetails(expr, resolver, r.RuleText)
	}
	return ev
}

// failureDetails names the missing fields so reviewers see what to fix.
func failureDetails(expr logic.Expr, resolver logic.Resolver, ruleText string) string {
	var missing []string
	for _, path := range logic.Fields(expr) {
		present, err := resolver.Resolve(path)
		if err == nil && !present {
			missing = append(missing, path)
		}
	}
	detail := "Obligation not satisfied."
	if len(missing) > 0 {
		detail = "Missing required fields: " + strings.Join(missing, ", ") + "."
	}
	if ruleText != "" {
		text := ruleText
		if runes := []rune(text); len(runes) > 100 {
			text = string(runes[:100])
		}
		detail += " Rule: " + text
	}
	return detail
}

// effectivePhase resolves the clinical phase for the pass. All activations
// must agree; disagreement is a configuration conflict the user resolves,
// never a precedence guess.
func effectivePhase(activations []guideline.Activation, fallback guideline.ClinicalPhase) (guideline.ClinicalPhase, error) {
	phase := guideline.ClinicalPhase("")
	for _, a := range activations {
		if a.ClinicalPhase == "" {
			continue
		}
		if phase == "" {
			phase = a.ClinicalPhase
			continue
		}
		if a.ClinicalPhase != phase {
			return "", fmt.Errorf("active guideline activations disagree on clinical phase (%s vs %s): %w",
				phase, a.ClinicalPhase, domain.ErrConfigConflict)
		}
	}
	if phase == "" {
		return fallback, nil
	}
	return phase, nil
}

// effectiveNumbering resolves the dossier numbering mode the same way:
// all activations must agree, with the context value as fallback.
func effectiveNumbering(activations []guideline.Activation, fallback guideline.NumberingMode) (guideline.NumberingMode, error) {
	mode := guideline.NumberingMode("")
	for _, a := range activations {
		if a.NumberingMode == "" {
			continue
		}
		if mode == "" {
			mode = a.NumberingMode
			continue
		}
		if a.NumberingMode != mode {
			return "", fmt.Errorf("active guideline activations disagree on numbering mode (%s vs %s): %w",
				mode, a.NumberingMode, domain.ErrConfigConflict)
		}
	}
	if mode == "" {
		if fallback == "" {
			fallback = guideline.NumberingCTD
		}
		return fallback, nil
	}
	return mode, nil
}

// LogEntries flattens a report into append-only evaluation log rows, one per
// evaluated rule, in report bucket order.
func LogEntries(report *Report, newID func() string) []LogEntry {
	evs := report.Evaluations()
	entries := make([]LogEntry, 0, len(evs))
	for _, ev := range evs {
		entries = append(entries, LogEntry{
			ID:                  newID(),
			ProjectID:           report.ProjectID,
			EvaluationID:        report.EvaluationID,
			GenerationRunID:     report.GenerationRunID,
			RuleIDCode:          ev.RuleIDCode,
			Result:              ev.Result,
			Severity:            ev.Severity,
			Details:             ev.Details,
			WaiverJustification: ev.WaiverJustification,
			CreatedAt:           report.Timestamp,
		})
	}
	return entries
}
