package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/waiver"
)

func TestAddWaiver(t *testing.T) {
	auditStore := &mockAudit{}
	svc := NewWaiverService(newMockStore(), auditStore)

	w, err := svc.Add(context.Background(), "proj-1", waiver.AddRequest{
		RuleIDCode:    "EMA-IMPD-S7-001",
		Justification: "Retest period established at the parent site",
		CreatedBy:     "j.doe",
	})
	if err != nil {
		t.Fatal(err)
	}
	if w.CreatedBy != "j.doe" {
		t.Errorf("expected j.doe, got %q", w.CreatedBy)
	}
	if types := auditStore.types(); len(types) != 1 || types[0] != audit.TypeWaiverAdded {
		t.Errorf("expected waiver.added audit entry, got %v", types)
	}
}

func TestAddWaiverReplaceIsUpdate(t *testing.T) {
	auditStore := &mockAudit{}
	svc := NewWaiverService(newMockStore(), auditStore)

	req := waiver.AddRequest{RuleIDCode: "EMA-IMPD-S7-001", Justification: "first"}
	if _, err := svc.Add(context.Background(), "proj-1", req); err != nil {
		t.Fatal(err)
	}
	req.Justification = "second, revised"
	w, err := svc.Add(context.Background(), "proj-1", req)
	if err != nil {
		t.Fatal(err)
	}
	if w.Justification != "second, revised" {
		t.Errorf("expected replaced justification, got %q", w.Justification)
	}

	types := auditStore.types()
	if len(types) != 2 || types[0] != audit.TypeWaiverAdded || types[1] != audit.TypeWaiverUpdated {
		t.Errorf("expected added then updated, got %v", types)
	}
}

func TestAddWaiverValidation(t *testing.T) {
	svc := NewWaiverService(newMockStore(), &mockAudit{})

	_, err := svc.Add(context.Background(), "proj-1", waiver.AddRequest{RuleIDCode: "X-1"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty justification, got %v", err)
	}
	_, err = svc.Add(context.Background(), "proj-1", waiver.AddRequest{
		RuleIDCode:    "X-1",
		Justification: "   ",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for whitespace justification, got %v", err)
	}
}

func TestAddWaiverDefaultsActor(t *testing.T) {
	svc := NewWaiverService(newMockStore(), &mockAudit{})

	w, err := svc.Add(context.Background(), "proj-1", waiver.AddRequest{
		RuleIDCode:    "X-1",
		Justification: "accepted risk",
	})
	if err != nil {
		t.Fatal(err)
	}
	if w.CreatedBy == "" {
		t.Error("expected CreatedBy defaulted from context actor")
	}
}

func TestRemoveWaiver(t *testing.T) {
	auditStore := &mockAudit{}
	svc := NewWaiverService(newMockStore(), auditStore)

	if _, err := svc.Add(context.Background(), "proj-1", waiver.AddRequest{
		RuleIDCode:    "X-1",
		Justification: "accepted risk",
	}); err != nil {
		t.Fatal(err)
	}
	if err := svc.Remove(context.Background(), "proj-1", "X-1"); err != nil {
		t.Fatal(err)
	}
	ws, _ := svc.List(context.Background(), "proj-1")
	if len(ws) != 0 {
		t.Errorf("expected no waivers, got %d", len(ws))
	}

	if err := svc.Remove(context.Background(), "proj-1", "X-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found on second remove, got %v", err)
	}
}
