// Package audit defines the append-only audit trail entry. Every
// regulatory-relevant mutation (rule status change, waiver add/update/remove,
// activation change) and every evaluated rule produces one immutable entry.
package audit

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of audit event.
type Type string

const (
	TypeRuleStatusChanged   Type = "rule.status_changed"
	TypeWaiverAdded         Type = "waiver.added"
	TypeWaiverUpdated       Type = "waiver.updated"
	TypeWaiverRemoved       Type = "waiver.removed"
	TypeGuidelineActivated  Type = "guideline.activated"
	TypeGuidelineDeactivate Type = "guideline.deactivated"
	TypeExtractionStarted   Type = "extraction.started"
	TypeExtractionCompleted Type = "extraction.completed"
	TypeExtractionFailed    Type = "extraction.failed"
	TypeRuleEvaluated       Type = "rule.evaluated"
	TypeEvaluationCompleted Type = "evaluation.completed"
)

// Entry is a single immutable audit record. Entries are never updated or
// deleted.
type Entry struct {
	ID        string          `json:"id"`
	ProjectID string          `json:"project_id,omitempty"`
	Subject   string          `json:"subject"` // entity the entry is about, e.g. rule_id_code
	Type      Type            `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Actor     string          `json:"actor,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// RuleStatusPayload is the payload schema for rule.status_changed entries.
type RuleStatusPayload struct {
	RuleIDCode    string `json:"rule_id_code"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	Justification string `json:"justification,omitempty"`
}

// WaiverPayload is the payload schema for waiver entries.
type WaiverPayload struct {
	RuleIDCode    string `json:"rule_id_code"`
	Justification string `json:"justification,omitempty"`
}
