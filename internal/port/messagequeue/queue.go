// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
// The context carries request-scoped values such as the request ID.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	// Pending messages are processed; no new messages are accepted.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for the extraction and evaluation message flows.
const (
	// Extraction jobs run asynchronously: the upload handler publishes a
	// request and returns; a worker picks it up and reports back.
	SubjectExtractionRequested = "extraction.requested"
	SubjectExtractionCompleted = "extraction.completed"
	SubjectExtractionFailed    = "extraction.failed"

	// Published after every evaluation pass with the report summary.
	SubjectEvaluationCompleted = "evaluation.completed"
)

// ExtractionRequest is the payload for extraction.requested messages.
type ExtractionRequest struct {
	GuidelineID string `json:"guideline_id"`
	RequestID   string `json:"request_id,omitempty"`
}

// ExtractionResult is the payload for extraction.completed and
// extraction.failed messages.
type ExtractionResult struct {
	GuidelineID string `json:"guideline_id"`
	PackID      string `json:"pack_id,omitempty"`
	RuleCount   int    `json:"rule_count,omitempty"`
	Error       string `json:"error,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// EvaluationCompleted is the payload for evaluation.completed messages.
type EvaluationCompleted struct {
	ProjectID    string `json:"project_id"`
	EvaluationID string `json:"evaluation_id"`
	CanProceed   bool   `json:"can_proceed"`
	Blocking     int    `json:"blocking"`
	Warnings     int    `json:"warnings"`
	RequestID    string `json:"request_id,omitempty"`
}
