package service

import (
	"context"
	"strings"
	"time"

	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/waiver"
	"github.com/stabledocs/regula/internal/middleware"
	"github.com/stabledocs/regula/internal/port/auditlog"
	"github.com/stabledocs/regula/internal/port/database"
)

// WaiverService manages project-scoped rule waivers.
type WaiverService struct {
	store database.Store
	audit auditlog.Store
}

// NewWaiverService creates a new WaiverService.
func NewWaiverService(store database.Store, audit auditlog.Store) *WaiverService {
	return &WaiverService{store: store, audit: audit}
}

// List returns a project's waivers.
func (s *WaiverService) List(ctx context.Context, projectID string) ([]waiver.Waiver, error) {
	return s.store.ListWaivers(ctx, projectID)
}

// Add adds or replaces a waiver. Replacing an existing waiver is audited as
// an update, not a second add.
func (s *WaiverService) Add(ctx context.Context, projectID string, req waiver.AddRequest) (*waiver.Waiver, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	w := &waiver.Waiver{
		ProjectID:     projectID,
		RuleIDCode:    strings.TrimSpace(req.RuleIDCode),
		Justification: strings.TrimSpace(req.Justification),
		CreatedBy:     req.CreatedBy,
		CreatedAt:     time.Now().UTC(),
	}
	if w.CreatedBy == "" {
		w.CreatedBy = middleware.ActorFromContext(ctx)
	}

	created, err := s.store.UpsertWaiver(ctx, w)
	if err != nil {
		return nil, err
	}

	typ := audit.TypeWaiverAdded
	if !created {
		typ = audit.TypeWaiverUpdated
	}
	appendAudit(ctx, s.audit, projectID, w.RuleIDCode, typ, audit.WaiverPayload{
		RuleIDCode:    w.RuleIDCode,
		Justification: w.Justification,
	})
	return w, nil
}

// Remove deletes a waiver; the next evaluation pass sees the rule unwaived.
func (s *WaiverService) Remove(ctx context.Context, projectID, ruleIDCode string) error {
	if err := s.store.DeleteWaiver(ctx, projectID, ruleIDCode); err != nil {
		return err
	}
	appendAudit(ctx, s.audit, projectID, ruleIDCode, audit.TypeWaiverRemoved, audit.WaiverPayload{
		RuleIDCode: ruleIDCode,
	})
	return nil
}
