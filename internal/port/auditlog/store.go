// Package auditlog defines the port interface for the append-only audit
// trail.
package auditlog

import (
	"context"
	"time"

	"github.com/stabledocs/regula/internal/domain/audit"
)

// Filter controls which entries List returns. Zero values mean "no
// constraint".
type Filter struct {
	Types   []audit.Type `json:"types,omitempty"`
	Subject string       `json:"subject,omitempty"`
	After   *time.Time   `json:"after,omitempty"`
	Before  *time.Time   `json:"before,omitempty"`
}

// Store is the port interface for appending and reading audit entries.
// Entries are immutable: there is no update or delete.
type Store interface {
	// Append persists a new entry.
	Append(ctx context.Context, e *audit.Entry) error

	// List returns entries for a project, newest first.
	List(ctx context.Context, projectID string, filter Filter, limit int) ([]audit.Entry, error)
}
