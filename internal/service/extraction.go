package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/stabledocs/regula/internal/adapter/otel"
	"github.com/stabledocs/regula/internal/adapter/ws"
	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/pack"
	"github.com/stabledocs/regula/internal/extract"
	"github.com/stabledocs/regula/internal/port/auditlog"
	"github.com/stabledocs/regula/internal/port/broadcast"
	"github.com/stabledocs/regula/internal/port/database"
	"github.com/stabledocs/regula/internal/port/messagequeue"
	"github.com/stabledocs/regula/internal/port/textextract"
)

// ExtractionService runs allocation extraction jobs. Jobs arrive over the
// message queue so uploads return immediately; progress reaches clients over
// the WebSocket hub.
type ExtractionService struct {
	store   database.Store
	audit   auditlog.Store
	queue   messagequeue.Queue
	text    textextract.Extractor
	hub     broadcast.Broadcaster
	metrics *otel.Metrics
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(
	store database.Store,
	audit auditlog.Store,
	queue messagequeue.Queue,
	text textextract.Extractor,
	hub broadcast.Broadcaster,
	metrics *otel.Metrics,
) *ExtractionService {
	return &ExtractionService{
		store:   store,
		audit:   audit,
		queue:   queue,
		text:    text,
		hub:     hub,
		metrics: metrics,
	}
}

// Start subscribes to extraction requests. The returned cancel function
// stops consumption.
func (s *ExtractionService) Start(ctx context.Context) (func(), error) {
	return s.queue.Subscribe(ctx, messagequeue.SubjectExtractionRequested, s.handleRequest)
}

func (s *ExtractionService) handleRequest(ctx context.Context, _ string, data []byte) error {
	var req messagequeue.ExtractionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		// Malformed message, never retryable.
		slog.Error("malformed extraction request", "error", err)
		return nil
	}

	if err := s.Run(ctx, req.GuidelineID); err != nil {
		slog.Error("extraction job failed", "guideline_id", req.GuidelineID, "error", err)
		s.reportFailure(ctx, req.GuidelineID, err)
	}
	// Failures are reported through status and audit; a Nak/redelivery loop
	// would re-run a deterministic failure forever.
	return nil
}

// Run executes one extraction job synchronously: text extraction, the rule
// pipeline, pack creation, status updates.
func (s *ExtractionService) Run(ctx context.Context, guidelineID string) error {
	ctx, span := otel.StartExtractionSpan(ctx, guidelineID)
	defer span.End()
	if s.metrics != nil {
		s.metrics.ExtractionsRun.Add(ctx, 1)
	}

	g, err := s.store.GetGuideline(ctx, guidelineID)
	if err != nil {
		return err
	}

	if err := s.store.UpdateGuidelineStatus(ctx, guidelineID, guideline.StatusAllocating); err != nil {
		return err
	}
	s.broadcastStatus(ctx, guidelineID, string(guideline.StatusAllocating), "", 0, "")

	data, err := s.store.GetGuidelineFile(ctx, guidelineID)
	if err != nil {
		return err
	}
	pages, err := s.text.Pages(ctx, data)
	if err != nil {
		return fmt.Errorf("text extraction: %w", err)
	}

	extractor := &extract.Extractor{SourceFileID: guidelineID, Checksum: g.ChecksumSHA256}
	result, err := extractor.Extract(pages)
	if err != nil {
		return fmt.Errorf("rule extraction: %w", err)
	}

	created, err := s.store.CreatePack(ctx, &pack.AllocationPack{
		GuidelineID: guidelineID,
		Rules:       result.Rules,
		Glossary:    result.Glossary,
	})
	if err != nil {
		return err
	}

	s.applyMetadata(ctx, g, result.Metadata)

	if err := s.store.UpdateGuidelineStatus(ctx, guidelineID, guideline.StatusPendingReview); err != nil {
		return err
	}

	appendAudit(ctx, s.audit, "", guidelineID, audit.TypeExtractionCompleted, map[string]any{
		"guideline_id": guidelineID,
		"pack_id":      created.ID,
		"pack_version": created.Version,
		"rule_count":   len(created.Rules),
	})
	s.broadcastStatus(ctx, guidelineID, string(guideline.StatusPendingReview), created.ID, len(created.Rules), "")
	s.publishResult(ctx, messagequeue.SubjectExtractionCompleted, messagequeue.ExtractionResult{
		GuidelineID: guidelineID,
		PackID:      created.ID,
		RuleCount:   len(created.Rules),
	})

	slog.Info("extraction completed",
		"guideline_id", guidelineID,
		"pack_id", created.ID,
		"rules", len(created.Rules),
		"glossary_terms", len(created.Glossary))
	return nil
}

// applyMetadata fills guideline fields the uploader left blank from what the
// document itself declares. Uploader-provided values win.
func (s *ExtractionService) applyMetadata(ctx context.Context, g *guideline.Guideline, meta extract.Metadata) {
	changed := false
	if g.Title == g.OriginalFilename && meta.Title != "" {
		g.Title = meta.Title
		changed = true
	}
	if g.DocumentID == "" && meta.DocumentID != "" {
		g.DocumentID = meta.DocumentID
		changed = true
	}
	if g.Version == "" && meta.Version != "" {
		g.Version = meta.Version
		changed = true
	}
	if g.PublicationDate == "" && meta.PublicationDate != "" {
		g.PublicationDate = meta.PublicationDate
		changed = true
	}
	if !changed {
		return
	}
	if err := s.store.UpdateGuidelineMetadata(ctx, g); err != nil {
		slog.Warn("apply detected metadata", "guideline_id", g.ID, "error", err)
	}
}

func (s *ExtractionService) reportFailure(ctx context.Context, guidelineID string, cause error) {
	if s.metrics != nil {
		s.metrics.ExtractionsFailed.Add(ctx, 1)
	}
	if err := s.store.UpdateGuidelineStatus(ctx, guidelineID, guideline.StatusFailed); err != nil {
		slog.Error("mark guideline failed", "guideline_id", guidelineID, "error", err)
	}
	appendAudit(ctx, s.audit, "", guidelineID, audit.TypeExtractionFailed, map[string]string{
		"guideline_id": guidelineID,
		"error":        cause.Error(),
	})
	s.broadcastStatus(ctx, guidelineID, string(guideline.StatusFailed), "", 0, cause.Error())
	s.publishResult(ctx, messagequeue.SubjectExtractionFailed, messagequeue.ExtractionResult{
		GuidelineID: guidelineID,
		Error:       cause.Error(),
	})
}

func (s *ExtractionService) broadcastStatus(ctx context.Context, guidelineID, status, packID string, ruleCount int, errMsg string) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ctx, broadcast.EventExtractionStatus, ws.ExtractionStatusEvent{
		GuidelineID: guidelineID,
		Status:      status,
		PackID:      packID,
		RuleCount:   ruleCount,
		Error:       errMsg,
	})
}

func (s *ExtractionService) publishResult(ctx context.Context, subject string, res messagequeue.ExtractionResult) {
	data, err := json.Marshal(res)
	if err != nil {
		slog.Error("marshal extraction result", "error", err)
		return
	}
	if err := s.queue.Publish(ctx, subject, data); err != nil {
		slog.Error("publish extraction result", "subject", subject, "error", err)
	}
}
