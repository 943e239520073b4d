// Package service implements business logic on top of ports.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/middleware"
	"github.com/stabledocs/regula/internal/port/auditlog"
	"github.com/stabledocs/regula/internal/port/database"
	"github.com/stabledocs/regula/internal/port/messagequeue"
)

// GuidelineService manages guideline documents and their activations.
type GuidelineService struct {
	store database.Store
	audit auditlog.Store
	queue messagequeue.Queue
}

// NewGuidelineService creates a new GuidelineService.
func NewGuidelineService(store database.Store, audit auditlog.Store, queue messagequeue.Queue) *GuidelineService {
	return &GuidelineService{store: store, audit: audit, queue: queue}
}

// UploadRequest carries the metadata and bytes of a guideline upload.
type UploadRequest struct {
	Title    string
	Agency   string
	Notes    string
	Filename string
	Data     []byte
}

// Upload stores the document immutably and queues the extraction job. The
// record starts out as "uploaded"; the extraction worker moves it forward.
func (s *GuidelineService) Upload(ctx context.Context, req UploadRequest) (*guideline.Guideline, error) {
	if len(req.Data) == 0 {
		return nil, fmt.Errorf("upload: empty file")
	}

	sum := sha256.Sum256(req.Data)
	g := &guideline.Guideline{
		Title:            req.Title,
		Agency:           req.Agency,
		Notes:            req.Notes,
		OriginalFilename: req.Filename,
		ChecksumSHA256:   hex.EncodeToString(sum[:]),
		Status:           guideline.StatusUploaded,
	}
	if g.Title == "" {
		// Extraction refines this from the document's front matter.
		g.Title = req.Filename
	}
	if g.Agency == "" {
		g.Agency = "EMA"
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}

	created, err := s.store.CreateGuideline(ctx, g)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutGuidelineFile(ctx, created.ID, req.Data); err != nil {
		return nil, err
	}

	appendAudit(ctx, s.audit, "", created.ID, audit.TypeExtractionStarted, map[string]string{
		"guideline_id": created.ID,
		"filename":     req.Filename,
	})

	if err := s.queueExtraction(ctx, created.ID); err != nil {
		// The upload itself succeeded; extraction can be retried.
		slog.Error("queue extraction job failed", "guideline_id", created.ID, "error", err)
	}

	return created, nil
}

// Reextract queues a fresh extraction run for an existing guideline. The new
// run produces the next pack version; prior packs are untouched.
func (s *GuidelineService) Reextract(ctx context.Context, id string) error {
	if _, err := s.store.GetGuideline(ctx, id); err != nil {
		return err
	}
	appendAudit(ctx, s.audit, "", id, audit.TypeExtractionStarted, map[string]string{
		"guideline_id": id,
		"retriggered":  "true",
	})
	return s.queueExtraction(ctx, id)
}

func (s *GuidelineService) queueExtraction(ctx context.Context, guidelineID string) error {
	payload, err := json.Marshal(messagequeue.ExtractionRequest{
		GuidelineID: guidelineID,
		RequestID:   middleware.RequestIDFromContext(ctx),
	})
	if err != nil {
		return fmt.Errorf("marshal extraction request: %w", err)
	}
	return s.queue.Publish(ctx, messagequeue.SubjectExtractionRequested, payload)
}

// List returns all guidelines.
func (s *GuidelineService) List(ctx context.Context) ([]guideline.Guideline, error) {
	return s.store.ListGuidelines(ctx)
}

// Get returns a guideline by ID.
func (s *GuidelineService) Get(ctx context.Context, id string) (*guideline.Guideline, error) {
	return s.store.GetGuideline(ctx, id)
}

// File returns the original uploaded bytes.
func (s *GuidelineService) File(ctx context.Context, id string) ([]byte, error) {
	return s.store.GetGuidelineFile(ctx, id)
}

// Delete removes a guideline, its file, packs and activations (by cascade).
func (s *GuidelineService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteGuideline(ctx, id)
}

// Activate binds a guideline to a project. Re-activating updates numbering
// mode and clinical phase in place.
func (s *GuidelineService) Activate(ctx context.Context, projectID string, req guideline.ActivationRequest) (*guideline.Activation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	// The guideline must exist; activation of a deleted document is a 404.
	if _, err := s.store.GetGuideline(ctx, req.GuidelineID); err != nil {
		return nil, err
	}

	a, err := s.store.CreateActivation(ctx, projectID, req)
	if err != nil {
		return nil, err
	}

	appendAudit(ctx, s.audit, projectID, req.GuidelineID, audit.TypeGuidelineActivated, map[string]string{
		"guideline_id":   req.GuidelineID,
		"numbering_mode": string(req.NumberingMode),
		"clinical_phase": string(req.ClinicalPhase),
	})
	return a, nil
}

// Deactivate removes a project's activation of a guideline.
func (s *GuidelineService) Deactivate(ctx context.Context, projectID, guidelineID string) error {
	if err := s.store.DeleteActivation(ctx, projectID, guidelineID); err != nil {
		return err
	}
	appendAudit(ctx, s.audit, projectID, guidelineID, audit.TypeGuidelineDeactivate, map[string]string{
		"guideline_id": guidelineID,
	})
	return nil
}

// Activations returns a project's active guideline bindings.
func (s *GuidelineService) Activations(ctx context.Context, projectID string) ([]guideline.Activation, error) {
	return s.store.ListActivations(ctx, projectID)
}
