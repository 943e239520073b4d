package evaluation

import (
	"time"

	"github.com/stabledocs/regula/internal/domain/rule"
)

// Result is the per-rule evaluation outcome.
type Result string

const (
	ResultPass   Result = "PASS"
	ResultFail   Result = "FAIL"
	ResultWaived Result = "WAIVED"
	// ResultManual marks rules that require human review. Manual results are
	// surfaced with warnings and never affect the gate.
	ResultManual Result = "MANUAL"
)

// RuleEvaluation is the outcome of evaluating a single rule.
type RuleEvaluation struct {
	RuleID              string        `json:"rule_id"`
	RuleIDCode          string        `json:"rule_id_code"`
	Source              rule.Source   `json:"source"`
	Result              Result        `json:"result"`
	Severity            rule.Severity `json:"severity"`
	Details             string        `json:"details,omitempty"`
	WaiverJustification string        `json:"waiver_justification,omitempty"`
}

// Report is the aggregated outcome of one evaluation pass. Bucket order is
// stable for a fixed input set: reports from identical inputs are identical.
type Report struct {
	EvaluationID     string           `json:"evaluation_id"`
	GenerationRunID  string           `json:"generation_run_id,omitempty"`
	ProjectID        string           `json:"project_id"`
	Timestamp        time.Time        `json:"timestamp"`
	CanProceed       bool             `json:"can_proceed"`
	BlockingFailures []RuleEvaluation `json:"blocking_failures"`
	Warnings         []RuleEvaluation `json:"warnings"`
	Passes           []RuleEvaluation `json:"passes"`
	Waivers          []RuleEvaluation `json:"waivers"`
}

// Evaluations returns all evaluations concatenated in bucket order, which is
// stable for a fixed input set.
func (r *Report) Evaluations() []RuleEvaluation {
	out := make([]RuleEvaluation, 0,
		len(r.BlockingFailures)+len(r.Warnings)+len(r.Passes)+len(r.Waivers))
	out = append(out, r.BlockingFailures...)
	out = append(out, r.Warnings...)
	out = append(out, r.Passes...)
	out = append(out, r.Waivers...)
	return out
}

// LogEntry is one append-only RuleEvaluationLog row: one per
// (evaluation, rule) pair, never updated or deleted.
type LogEntry struct {
	ID                  string        `json:"id"`
	ProjectID           string        `json:"project_id"`
	EvaluationID        string        `json:"evaluation_id"`
	GenerationRunID     string        `json:"generation_run_id,omitempty"`
	RuleIDCode          string        `json:"rule_id_code"`
	Result              Result        `json:"result"`
	Severity            rule.Severity `json:"severity"`
	Details             string        `json:"details,omitempty"`
	WaiverJustification string        `json:"waiver_justification,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
}
