package service

import (
	"context"
	"testing"

	"github.com/stabledocs/regula/internal/domain/evaluation"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/pack"
	"github.com/stabledocs/regula/internal/domain/project"
	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/domain/waiver"
	"github.com/stabledocs/regula/internal/port/broadcast"
	"github.com/stabledocs/regula/internal/port/messagequeue"
)

// seedEvaluation wires a project with one activated guideline whose pack
// holds a single confirmed BLOCK rule on the given logic.
func seedEvaluation(t *testing.T, store *mockStore, logicExpr string) {
	t.Helper()
	ctx := context.Background()

	// Satisfies the built-in Phase I BLOCK rules: commitment statement
	// present and a primary stability study initiated.
	store.projects = append(store.projects, project.Project{
		ID:                  "proj-1",
		Name:                "API-X",
		ProductType:         string(evaluation.ProductDrugSubstance),
		ClinicalPhase:       string(guideline.Phase1),
		RetestPeriod:        "24 months",
		StabilityCommitment: "Stability studies will continue per protocol.",
	})
	store.studies = append(store.studies, project.Study{
		ID:        "s0",
		ProjectID: "proj-1",
		Side:      "ds",
		Type:      project.StudyAccelerated,
		HasTable:  true,
		HasResult: true,
	})
	store.counts["proj-1"] = project.Counts{Lots: 3, Conditions: 2}

	g, err := store.CreateGuideline(ctx, &guideline.Guideline{
		Title:            "Stability guideline",
		Agency:           "EMA",
		OriginalFilename: "stability.pdf",
		ChecksumSHA256:   "a1b2",
		Status:           guideline.StatusPendingReview,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreateActivation(ctx, "proj-1", guideline.ActivationRequest{
		GuidelineID:   g.ID,
		NumberingMode: guideline.NumberingCTD,
		ClinicalPhase: guideline.Phase1,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.CreatePack(ctx, &pack.AllocationPack{
		GuidelineID: g.ID,
		Rules: []rule.RegulatoryRule{{
			RuleIDCode:         "EMA-IMPD-S7-001",
			AppliesTo:          []rule.ProductSide{rule.SideDS},
			MappedAppSections:  []string{"3.2.S.7", "2.2.1.S.7"},
			RequirementLevel:   rule.LevelMust,
			RuleText:           "A retest period shall be proposed.",
			ValidationSeverity: rule.SeverityBlock,
			ValidationLogic:    logicExpr,
			Status:             rule.StatusConfirmed,
			Source:             rule.SourceGuideline,
		}},
	}); err != nil {
		t.Fatal(err)
	}
}

func TestEvaluatePass(t *testing.T) {
	store := newMockStore()
	queue := newMockQueue()
	hub := &mockHub{}
	seedEvaluation(t, store, "field_present('ds.retest_period')")
	svc := NewEvaluationService(store, &mockAudit{}, queue, hub, nil)

	report, err := svc.Evaluate(context.Background(), "proj-1", "run-42")
	if err != nil {
		t.Fatal(err)
	}

	if !report.CanProceed {
		t.Errorf("expected pass, got blocking %v", report.BlockingFailures)
	}
	if report.GenerationRunID != "run-42" {
		t.Errorf("expected generation run ID carried through, got %q", report.GenerationRunID)
	}
	if report.EvaluationID == "" {
		t.Error("expected evaluation ID assigned")
	}

	// Every evaluated rule lands in the append-only log.
	entries, err := svc.Log(context.Background(), "proj-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != len(report.Evaluations()) {
		t.Errorf("expected %d log rows, got %d", len(report.Evaluations()), len(entries))
	}

	if len(hub.events) != 1 || hub.events[0] != broadcast.EventEvaluationCompleted {
		t.Errorf("expected evaluation broadcast, got %v", hub.events)
	}
	if msgs := queue.messages(messagequeue.SubjectEvaluationCompleted); len(msgs) != 1 {
		t.Errorf("expected 1 completion message, got %d", len(msgs))
	}
}

func TestEvaluateBlockingFailure(t *testing.T) {
	store := newMockStore()
	seedEvaluation(t, store, "field_present('ds.retest_period_justification')")
	svc := NewEvaluationService(store, &mockAudit{}, newMockQueue(), &mockHub{}, nil)

	report, err := svc.Evaluate(context.Background(), "proj-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if report.CanProceed {
		t.Error("expected BLOCK failure to gate the run")
	}

	found := false
	for _, ev := range report.BlockingFailures {
		if ev.RuleIDCode == "EMA-IMPD-S7-001" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected guideline rule in blocking failures, got %v", report.BlockingFailures)
	}
}

func TestEvaluateWaiverAppliedAfterEvaluation(t *testing.T) {
	store := newMockStore()
	seedEvaluation(t, store, "field_present('ds.retest_period_justification')")
	store.waivers = append(store.waivers, waiver.Waiver{
		ProjectID:     "proj-1",
		RuleIDCode:    "EMA-IMPD-S7-001",
		Justification: "Justification filed with the parent dossier",
		CreatedBy:     "qa",
	})
	svc := NewEvaluationService(store, &mockAudit{}, newMockQueue(), &mockHub{}, nil)

	report, err := svc.Evaluate(context.Background(), "proj-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if !report.CanProceed {
		t.Errorf("waived failure must not gate the run, blocking %v", report.BlockingFailures)
	}

	var waived *evaluation.RuleEvaluation
	for i := range report.Waivers {
		if report.Waivers[i].RuleIDCode == "EMA-IMPD-S7-001" {
			waived = &report.Waivers[i]
		}
	}
	if waived == nil {
		t.Fatal("expected rule in waived bucket")
	}
	// The original FAIL evidence survives next to the justification.
	if waived.Details == "" || waived.WaiverJustification == "" {
		t.Errorf("expected failure detail and justification preserved, got %+v", waived)
	}
}

func TestEvaluateBuiltinRulesAlwaysPresent(t *testing.T) {
	store := newMockStore()
	seedEvaluation(t, store, "field_present('ds.retest_period')")
	svc := NewEvaluationService(store, &mockAudit{}, newMockQueue(), &mockHub{}, nil)

	report, err := svc.Evaluate(context.Background(), "proj-1", "")
	if err != nil {
		t.Fatal(err)
	}

	foundPhase := false
	for _, ev := range report.Evaluations() {
		if ev.Source == rule.SourcePhase {
			foundPhase = true
		}
	}
	if !foundPhase {
		t.Error("expected built-in phase rules in the pass")
	}
}

func TestEvaluateUnknownProject(t *testing.T) {
	svc := NewEvaluationService(newMockStore(), &mockAudit{}, newMockQueue(), &mockHub{}, nil)

	if _, err := svc.Evaluate(context.Background(), "missing", ""); err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestBuildContextFoldsStudies(t *testing.T) {
	store := newMockStore()
	seedEvaluation(t, store, "field_present('ds.retest_period')")
	store.studies = append(store.studies,
		project.Study{ID: "s1", ProjectID: "proj-1", Side: "ds", Type: project.StudyAccelerated, HasTable: true},
		project.Study{ID: "s2", ProjectID: "proj-1", Side: "dp", Type: project.StudyInUse, HasResult: true},
	)
	svc := NewEvaluationService(store, &mockAudit{}, newMockQueue(), &mockHub{}, nil)

	pctx, err := svc.BuildContext(context.Background(), "proj-1")
	if err != nil {
		t.Fatal(err)
	}
	if !pctx.DS.HasAcceleratedStudy || !pctx.DS.HasStabilityTable {
		t.Errorf("DS facts not folded: %+v", pctx.DS)
	}
	if !pctx.DP.HasInUseStudy || !pctx.DP.HasResults {
		t.Errorf("DP facts not folded: %+v", pctx.DP)
	}
	if pctx.LotCount != 3 || pctx.ConditionCount != 2 {
		t.Errorf("counts not carried: %+v", pctx)
	}
}
