package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/stabledocs/regula/internal/adapter/otel"
	"github.com/stabledocs/regula/internal/adapter/ws"
	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/evaluation"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/project"
	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/domain/waiver"
	"github.com/stabledocs/regula/internal/port/auditlog"
	"github.com/stabledocs/regula/internal/port/broadcast"
	"github.com/stabledocs/regula/internal/port/database"
	"github.com/stabledocs/regula/internal/port/messagequeue"
)

// EvaluationService runs evaluation passes: it assembles the inputs from
// storage, calls the orchestrator, and persists the append-only outcome.
type EvaluationService struct {
	store    database.Store
	audit    auditlog.Store
	queue    messagequeue.Queue
	hub      broadcast.Broadcaster
	metrics  *otel.Metrics
	registry *evaluation.Registry

	// One evaluation at a time per project: passes snapshot shared project
	// state and interleaved log writes would corrupt the per-pass grouping.
	mu       sync.Mutex
	projects map[string]*sync.Mutex
}

// NewEvaluationService creates a new EvaluationService.
func NewEvaluationService(
	store database.Store,
	audit auditlog.Store,
	queue messagequeue.Queue,
	hub broadcast.Broadcaster,
	metrics *otel.Metrics,
) *EvaluationService {
	return &EvaluationService{
		store:    store,
		audit:    audit,
		queue:    queue,
		hub:      hub,
		metrics:  metrics,
		registry: evaluation.DefaultRegistry(),
		projects: make(map[string]*sync.Mutex),
	}
}

func (s *EvaluationService) projectLock(projectID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.projects[projectID]
	if !ok {
		l = &sync.Mutex{}
		s.projects[projectID] = l
	}
	return l
}

// Evaluate runs one evaluation pass for a project. generationRunID ties the
// pass to the dossier generation attempt it gates; it may be empty for
// standalone preview evaluations.
func (s *EvaluationService) Evaluate(ctx context.Context, projectID, generationRunID string) (*evaluation.Report, error) {
	lock := s.projectLock(projectID)
	lock.Lock()
	defer lock.Unlock()

	evaluationID := uuid.NewString()
	ctx, span := otel.StartEvaluationSpan(ctx, evaluationID, projectID)
	defer span.End()
	start := time.Now()

	in, err := s.buildInputs(ctx, projectID)
	if err != nil {
		return nil, err
	}
	in.EvaluationID = evaluationID
	in.GenerationRunID = generationRunID
	in.Now = start.UTC()

	report, err := evaluation.Evaluate(*in)
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, report); err != nil {
		return nil, err
	}
	s.observe(ctx, report, time.Since(start))
	return report, nil
}

// buildInputs assembles the evaluation inputs. The project reads are
// independent, so they run concurrently.
func (s *EvaluationService) buildInputs(ctx context.Context, projectID string) (*evaluation.Inputs, error) {
	activations, err := s.store.ListActivations(ctx, projectID)
	if err != nil {
		return nil, err
	}

	guidelineIDs := make([]string, len(activations))
	for i, a := range activations {
		guidelineIDs[i] = a.GuidelineID
	}

	var (
		rules   []rule.RegulatoryRule
		waivers []waiver.Waiver
		pctx    *evaluation.ProjectContext
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rules, err = s.store.EvaluableRules(gctx, guidelineIDs)
		return err
	})
	g.Go(func() error {
		var err error
		waivers, err = s.store.ListWaivers(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		pctx, err = s.BuildContext(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &evaluation.Inputs{
		ProjectID:      projectID,
		Activations:    activations,
		GuidelineRules: rules,
		Waivers:        waivers,
		Context:        pctx,
		Registry:       s.registry,
	}, nil
}

// BuildContext rebuilds the read-only project snapshot from the
// authoritative tables. Nothing here is cached: study facts must reflect the
// data as it exists at pass time.
func (s *EvaluationService) BuildContext(ctx context.Context, projectID string) (*evaluation.ProjectContext, error) {
	ctx, span := otel.StartContextBuildSpan(ctx, projectID)
	defer span.End()

	var (
		p       *project.Project
		studies []project.Study
		counts  *project.Counts
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		p, err = s.store.GetProject(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		studies, err = s.store.ListStudies(gctx, projectID)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.store.ProjectCounts(gctx, projectID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pctx := &evaluation.ProjectContext{
		ProjectID:   p.ID,
		ProductType: evaluation.ProductType(p.ProductType),
		ProductName: p.ProductName,
		DosageForm:  p.DosageForm,

		ClinicalPhase: guideline.ClinicalPhase(p.ClinicalPhase),
		NumberingMode: guideline.NumberingCTD,

		RequiresReconstitution: p.RequiresReconstitution,
		IsMultiDose:            p.IsMultiDose,
		InUseJustification:     p.InUseJustification,

		RetestPeriod:              p.RetestPeriod,
		RetestPeriodJustification: p.RetestPeriodJustification,
		ShelfLife:                 p.ShelfLife,
		ShelfLifeJustification:    p.ShelfLifeJustification,

		StorageConditions:      p.StorageConditions,
		StabilityCommitment:    p.StabilityCommitment,
		SpecificationReference: p.SpecificationReference,
		ContainerClosure:       p.ContainerClosure,

		LotCount:       counts.Lots,
		ConditionCount: counts.Conditions,
	}

	for _, st := range studies {
		facts := &pctx.DS
		if st.Side == "dp" {
			facts = &pctx.DP
		}
		switch st.Type {
		case project.StudyAccelerated:
			facts.HasAcceleratedStudy = true
		case project.StudyLongTerm:
			facts.HasLongTermStudy = true
		case project.StudyIntermediate:
			facts.HasIntermediateStudy = true
		case project.StudyPhotostability:
			facts.HasPhotostabilityStudy = true
		case project.StudyStress:
			facts.HasStressStudy = true
		case project.StudyInUse:
			facts.HasInUseStudy = true
		}
		if st.HasTable {
			facts.HasStabilityTable = true
		}
		if st.HasResult {
			facts.HasResults = true
		}
	}

	return pctx, nil
}

// persist appends the per-rule log rows and the audit entries for the pass.
func (s *EvaluationService) persist(ctx context.Context, report *evaluation.Report) error {
	entries := evaluation.LogEntries(report, uuid.NewString)
	if err := s.store.AppendEvaluationLog(ctx, entries); err != nil {
		return err
	}

	for _, ev := range report.Evaluations() {
		appendAudit(ctx, s.audit, report.ProjectID, ev.RuleIDCode, audit.TypeRuleEvaluated, ev)
	}
	appendAudit(ctx, s.audit, report.ProjectID, report.EvaluationID, audit.TypeEvaluationCompleted, map[string]any{
		"evaluation_id": report.EvaluationID,
		"can_proceed":   report.CanProceed,
		"blocking":      len(report.BlockingFailures),
		"warnings":      len(report.Warnings),
		"passes":        len(report.Passes),
		"waivers":       len(report.Waivers),
	})
	return nil
}

func (s *EvaluationService) observe(ctx context.Context, report *evaluation.Report, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.EvaluationsRun.Add(ctx, 1)
		s.metrics.RulesEvaluated.Add(ctx, int64(len(report.Evaluations())))
		s.metrics.EvaluationDuration.Record(ctx, elapsed.Seconds())
		if !report.CanProceed {
			s.metrics.EvaluationsBlocked.Add(ctx, 1)
		}
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(ctx, broadcast.EventEvaluationCompleted, ws.EvaluationCompletedEvent{
			ProjectID:    report.ProjectID,
			EvaluationID: report.EvaluationID,
			CanProceed:   report.CanProceed,
			Blocking:     len(report.BlockingFailures),
			Warnings:     len(report.Warnings),
		})
	}

	if s.queue != nil {
		payload, err := json.Marshal(messagequeue.EvaluationCompleted{
			ProjectID:    report.ProjectID,
			EvaluationID: report.EvaluationID,
			CanProceed:   report.CanProceed,
			Blocking:     len(report.BlockingFailures),
			Warnings:     len(report.Warnings),
		})
		if err == nil {
			if err := s.queue.Publish(ctx, messagequeue.SubjectEvaluationCompleted, payload); err != nil {
				slog.Error("publish evaluation completed", "error", err)
			}
		}
	}

	slog.Info("evaluation completed",
		"project_id", report.ProjectID,
		"evaluation_id", report.EvaluationID,
		"can_proceed", report.CanProceed,
		"blocking", len(report.BlockingFailures),
		"warnings", len(report.Warnings))
}

// Log returns recent evaluation log rows for a project.
func (s *EvaluationService) Log(ctx context.Context, projectID string, limit int) ([]evaluation.LogEntry, error) {
	return s.store.ListEvaluationLog(ctx, projectID, limit)
}

// FieldPaths exposes the registered field paths, for rule authoring UIs.
func (s *EvaluationService) FieldPaths() []string {
	return s.registry.Paths()
}
