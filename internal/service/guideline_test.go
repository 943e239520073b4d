package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/port/messagequeue"
)

func TestUploadGuideline(t *testing.T) {
	store := newMockStore()
	auditStore := &mockAudit{}
	queue := newMockQueue()
	svc := NewGuidelineService(store, auditStore, queue)

	g, err := svc.Upload(context.Background(), UploadRequest{
		Filename: "stability-guideline.pdf",
		Data:     []byte("%PDF-1.4 fake"),
	})
	if err != nil {
		t.Fatal(err)
	}

	if g.ID == "" {
		t.Error("expected assigned ID")
	}
	if g.Status != guideline.StatusUploaded {
		t.Errorf("expected uploaded status, got %s", g.Status)
	}
	if g.Title != "stability-guideline.pdf" {
		t.Errorf("expected title defaulted to filename, got %q", g.Title)
	}
	if g.Agency != "EMA" {
		t.Errorf("expected agency defaulted to EMA, got %q", g.Agency)
	}
	if len(g.ChecksumSHA256) != 64 {
		t.Errorf("expected hex SHA-256 checksum, got %q", g.ChecksumSHA256)
	}

	if data, err := svc.File(context.Background(), g.ID); err != nil || len(data) == 0 {
		t.Errorf("expected stored file bytes, got %v / %d bytes", err, len(data))
	}

	if msgs := queue.messages(messagequeue.SubjectExtractionRequested); len(msgs) != 1 {
		t.Errorf("expected 1 queued extraction request, got %d", len(msgs))
	}
	if types := auditStore.types(); len(types) != 1 || types[0] != audit.TypeExtractionStarted {
		t.Errorf("expected extraction.started audit entry, got %v", types)
	}
}

func TestUploadGuidelineEmptyFile(t *testing.T) {
	svc := NewGuidelineService(newMockStore(), &mockAudit{}, newMockQueue())

	if _, err := svc.Upload(context.Background(), UploadRequest{Filename: "x.pdf"}); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestUploadGuidelineDuplicateChecksum(t *testing.T) {
	svc := NewGuidelineService(newMockStore(), &mockAudit{}, newMockQueue())

	req := UploadRequest{Filename: "dup.pdf", Data: []byte("same bytes")}
	if _, err := svc.Upload(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Upload(context.Background(), req)
	if !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict for identical bytes, got %v", err)
	}
}

func TestUploadGuidelinePublishFailureNotFatal(t *testing.T) {
	queue := newMockQueue()
	queue.publishErr = errors.New("nats down")
	svc := NewGuidelineService(newMockStore(), &mockAudit{}, queue)

	// The upload record survives; extraction can be requeued later.
	g, err := svc.Upload(context.Background(), UploadRequest{Filename: "x.pdf", Data: []byte("data")})
	if err != nil {
		t.Fatal(err)
	}
	if g.Status != guideline.StatusUploaded {
		t.Errorf("expected uploaded status, got %s", g.Status)
	}
}

func TestReextractUnknownGuideline(t *testing.T) {
	svc := NewGuidelineService(newMockStore(), &mockAudit{}, newMockQueue())

	err := svc.Reextract(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestReextractQueuesRequest(t *testing.T) {
	store := newMockStore()
	queue := newMockQueue()
	svc := NewGuidelineService(store, &mockAudit{}, queue)

	g, err := svc.Upload(context.Background(), UploadRequest{Filename: "x.pdf", Data: []byte("data")})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Reextract(context.Background(), g.ID); err != nil {
		t.Fatal(err)
	}
	if msgs := queue.messages(messagequeue.SubjectExtractionRequested); len(msgs) != 2 {
		t.Errorf("expected 2 queued requests (upload + reextract), got %d", len(msgs))
	}
}

func TestActivateAndDeactivate(t *testing.T) {
	store := newMockStore()
	auditStore := &mockAudit{}
	svc := NewGuidelineService(store, auditStore, newMockQueue())

	g, err := svc.Upload(context.Background(), UploadRequest{Filename: "x.pdf", Data: []byte("data")})
	if err != nil {
		t.Fatal(err)
	}

	act, err := svc.Activate(context.Background(), "proj-1", guideline.ActivationRequest{
		GuidelineID:   g.ID,
		NumberingMode: guideline.NumberingIMPD,
		ClinicalPhase: guideline.Phase2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if act.NumberingMode != guideline.NumberingIMPD {
		t.Errorf("expected impd mode, got %s", act.NumberingMode)
	}

	acts, err := svc.Activations(context.Background(), "proj-1")
	if err != nil || len(acts) != 1 {
		t.Fatalf("expected 1 activation, got %d (%v)", len(acts), err)
	}

	if err := svc.Deactivate(context.Background(), "proj-1", g.ID); err != nil {
		t.Fatal(err)
	}
	acts, _ = svc.Activations(context.Background(), "proj-1")
	if len(acts) != 0 {
		t.Errorf("expected no activations after deactivate, got %d", len(acts))
	}
}

func TestDeleteActivatedGuideline(t *testing.T) {
	svc := NewGuidelineService(newMockStore(), &mockAudit{}, newMockQueue())

	g, err := svc.Upload(context.Background(), UploadRequest{Filename: "x.pdf", Data: []byte("data")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Activate(context.Background(), "proj-1", guideline.ActivationRequest{
		GuidelineID:   g.ID,
		NumberingMode: guideline.NumberingCTD,
		ClinicalPhase: guideline.Phase1,
	}); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(context.Background(), g.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected conflict deleting an activated guideline, got %v", err)
	}

	if err := svc.Deactivate(context.Background(), "proj-1", g.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(context.Background(), g.ID); err != nil {
		t.Errorf("expected delete after deactivation, got %v", err)
	}
}

func TestActivateUnknownGuideline(t *testing.T) {
	svc := NewGuidelineService(newMockStore(), &mockAudit{}, newMockQueue())

	_, err := svc.Activate(context.Background(), "proj-1", guideline.ActivationRequest{GuidelineID: "missing"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
