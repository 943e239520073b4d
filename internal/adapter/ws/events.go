package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// ExtractionStatusEvent is broadcast when a guideline's extraction job
// changes state.
type ExtractionStatusEvent struct {
	GuidelineID string `json:"guideline_id"`
	Status      string `json:"status"`
	PackID      string `json:"pack_id,omitempty"`
	RuleCount   int    `json:"rule_count,omitempty"`
	Error       string `json:"error,omitempty"`
}

// EvaluationCompletedEvent is broadcast after every evaluation pass.
type EvaluationCompletedEvent struct {
	ProjectID    string `json:"project_id"`
	EvaluationID string `json:"evaluation_id"`
	CanProceed   bool   `json:"can_proceed"`
	Blocking     int    `json:"blocking"`
	Warnings     int    `json:"warnings"`
}

// RuleStatusEvent is broadcast when a reviewer dispositions a rule.
type RuleStatusEvent struct {
	RuleID     string `json:"rule_id"`
	RuleIDCode string `json:"rule_id_code"`
	Status     string `json:"status"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
