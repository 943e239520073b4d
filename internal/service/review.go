package service

import (
	"context"
	"fmt"

	"github.com/stabledocs/regula/internal/adapter/ws"
	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/domain/rule/logic"
	"github.com/stabledocs/regula/internal/port/auditlog"
	"github.com/stabledocs/regula/internal/port/broadcast"
	"github.com/stabledocs/regula/internal/port/database"
)

// ReviewService drives the human review workflow over extracted rules.
type ReviewService struct {
	store database.Store
	audit auditlog.Store
	hub   broadcast.Broadcaster
}

// NewReviewService creates a new ReviewService.
func NewReviewService(store database.Store, audit auditlog.Store, hub broadcast.Broadcaster) *ReviewService {
	return &ReviewService{store: store, audit: audit, hub: hub}
}

// List returns rules matching the filter.
func (s *ReviewService) List(ctx context.Context, filter database.RuleFilter) ([]rule.RegulatoryRule, error) {
	return s.store.ListRules(ctx, filter)
}

// Get returns a rule by ID.
func (s *ReviewService) Get(ctx context.Context, id string) (*rule.RegulatoryRule, error) {
	return s.store.GetRule(ctx, id)
}

// StatusRequest carries a review disposition.
type StatusRequest struct {
	Status        rule.Status `json:"status"`
	Justification string      `json:"justification,omitempty"`
}

// SetStatus applies a review disposition, enforcing the transition rules:
// pending rules can be confirmed, rejected or overridden; confirmed and
// rejected rules can only move to overridden (with justification); overridden
// is terminal.
func (s *ReviewService) SetStatus(ctx context.Context, id string, req StatusRequest) (*rule.RegulatoryRule, error) {
	r, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := rule.ValidateTransition(r.Status, req.Status, req.Justification); err != nil {
		return nil, err
	}

	// A rule whose logic cannot even parse must not become enforceable.
	if req.Status == rule.StatusConfirmed || req.Status == rule.StatusOverridden {
		if _, err := logic.Parse(r.ValidationLogic); err != nil {
			return nil, fmt.Errorf("validation logic does not parse, reject or fix the rule first: %v: %w",
				err, domain.ErrValidation)
		}
	}

	oldStatus := r.Status
	if err := s.store.UpdateRuleStatus(ctx, id, req.Status, req.Justification); err != nil {
		return nil, err
	}
	r.Status = req.Status
	r.OverrideJustification = req.Justification

	appendAudit(ctx, s.audit, "", r.RuleIDCode, audit.TypeRuleStatusChanged, audit.RuleStatusPayload{
		RuleIDCode:    r.RuleIDCode,
		OldStatus:     string(oldStatus),
		NewStatus:     string(req.Status),
		Justification: req.Justification,
	})
	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventRuleStatusChanged, ws.RuleStatusEvent{
			RuleID:     r.ID,
			RuleIDCode: r.RuleIDCode,
			Status:     string(req.Status),
		})
	}
	return r, nil
}
