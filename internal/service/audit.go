package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/middleware"
	"github.com/stabledocs/regula/internal/port/auditlog"
)

// appendAudit writes one audit entry. Audit failures are logged, never
// propagated: the mutation they describe has already happened.
func appendAudit(ctx context.Context, store auditlog.Store, projectID, subject string, typ audit.Type, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal audit payload", "type", typ, "error", err)
		return
	}
	entry := &audit.Entry{
		ProjectID: projectID,
		Subject:   subject,
		Type:      typ,
		Payload:   data,
		Actor:     middleware.ActorFromContext(ctx),
		RequestID: middleware.RequestIDFromContext(ctx),
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Append(ctx, entry); err != nil {
		slog.Error("append audit entry", "type", typ, "error", err)
	}
}
