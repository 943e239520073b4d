package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stabledocs/regula/internal/domain"
	"github.com/stabledocs/regula/internal/domain/audit"
	"github.com/stabledocs/regula/internal/domain/evaluation"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/pack"
	"github.com/stabledocs/regula/internal/domain/project"
	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/domain/waiver"
	"github.com/stabledocs/regula/internal/extract"
	"github.com/stabledocs/regula/internal/port/auditlog"
	"github.com/stabledocs/regula/internal/port/cache"
	"github.com/stabledocs/regula/internal/port/database"
	"github.com/stabledocs/regula/internal/port/messagequeue"
)

// Compile-time interface checks.
var (
	_ database.Store     = (*mockStore)(nil)
	_ auditlog.Store     = (*mockAudit)(nil)
	_ messagequeue.Queue = (*mockQueue)(nil)
	_ cache.Cache        = (*mockCache)(nil)
)

// mockStore is a minimal in-memory implementation of database.Store for testing.
type mockStore struct {
	mu sync.Mutex

	guidelines  []guideline.Guideline
	files       map[string][]byte
	packs       []pack.AllocationPack
	rules       []rule.RegulatoryRule
	activations []guideline.Activation
	waivers     []waiver.Waiver
	projects    []project.Project
	studies     []project.Study
	counts      map[string]project.Counts
	evalLog     []evaluation.LogEntry

	// Error hooks — set these to inject failures.
	createGuidelineErr error
	createPackErr      error
	updateRuleErr      error
}

func newMockStore() *mockStore {
	return &mockStore{
		files:  make(map[string][]byte),
		counts: make(map[string]project.Counts),
	}
}

func (m *mockStore) ListGuidelines(_ context.Context) ([]guideline.Guideline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]guideline.Guideline(nil), m.guidelines...), nil
}

func (m *mockStore) GetGuideline(_ context.Context, id string) (*guideline.Guideline, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.guidelines {
		if m.guidelines[i].ID == id {
			g := m.guidelines[i]
			return &g, nil
		}
	}
	return nil, fmt.Errorf("guideline %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) CreateGuideline(_ context.Context, g *guideline.Guideline) (*guideline.Guideline, error) {
	if m.createGuidelineErr != nil {
		return nil, m.createGuidelineErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.guidelines {
		if m.guidelines[i].ChecksumSHA256 == g.ChecksumSHA256 {
			return nil, fmt.Errorf("guideline with this checksum already exists: %w", domain.ErrConflict)
		}
	}
	stored := *g
	stored.ID = fmt.Sprintf("g-%d", len(m.guidelines)+1)
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.guidelines = append(m.guidelines, stored)
	return &stored, nil
}

func (m *mockStore) UpdateGuidelineStatus(_ context.Context, id string, status guideline.ExtractionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.guidelines {
		if m.guidelines[i].ID == id {
			m.guidelines[i].Status = status
			return nil
		}
	}
	return fmt.Errorf("guideline %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) UpdateGuidelineMetadata(_ context.Context, g *guideline.Guideline) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.guidelines {
		if m.guidelines[i].ID == g.ID {
			m.guidelines[i] = *g
			return nil
		}
	}
	return fmt.Errorf("guideline %s: %w", g.ID, domain.ErrNotFound)
}

func (m *mockStore) DeleteGuideline(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.activations {
		if a.GuidelineID == id {
			return fmt.Errorf("guideline %s is activated on a project: %w", id, domain.ErrConflict)
		}
	}
	for i := range m.guidelines {
		if m.guidelines[i].ID == id {
			m.guidelines = append(m.guidelines[:i], m.guidelines[i+1:]...)
			delete(m.files, id)
			return nil
		}
	}
	return fmt.Errorf("guideline %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) PutGuidelineFile(_ context.Context, id string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[id] = data
	return nil
}

func (m *mockStore) GetGuidelineFile(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[id]
	if !ok {
		return nil, fmt.Errorf("guideline file %s: %w", id, domain.ErrNotFound)
	}
	return data, nil
}

func (m *mockStore) CreatePack(_ context.Context, p *pack.AllocationPack) (*pack.AllocationPack, error) {
	if m.createPackErr != nil {
		return nil, m.createPackErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *p
	stored.ID = fmt.Sprintf("pack-%d", len(m.packs)+1)
	stored.Version = 1
	for i := range m.packs {
		if m.packs[i].GuidelineID == p.GuidelineID && m.packs[i].Version >= stored.Version {
			stored.Version = m.packs[i].Version + 1
		}
	}
	stored.CreatedAt = time.Now()
	for i := range stored.Rules {
		stored.Rules[i].ID = fmt.Sprintf("%s-r%d", stored.ID, i+1)
		stored.Rules[i].PackID = stored.ID
	}
	m.packs = append(m.packs, stored)
	m.rules = append(m.rules, stored.Rules...)
	return &stored, nil
}

func (m *mockStore) GetPack(_ context.Context, id string) (*pack.AllocationPack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.packs {
		if m.packs[i].ID == id {
			p := m.packs[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("pack %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) LatestPack(_ context.Context, guidelineID string) (*pack.AllocationPack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *pack.AllocationPack
	for i := range m.packs {
		if m.packs[i].GuidelineID != guidelineID {
			continue
		}
		if latest == nil || m.packs[i].Version > latest.Version {
			latest = &m.packs[i]
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("pack for guideline %s: %w", guidelineID, domain.ErrNotFound)
	}
	p := *latest
	return &p, nil
}

func (m *mockStore) ListRules(_ context.Context, filter database.RuleFilter) ([]rule.RegulatoryRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []rule.RegulatoryRule
	for _, r := range m.rules {
		if filter.PackID != "" && r.PackID != filter.PackID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) GetRule(_ context.Context, id string) (*rule.RegulatoryRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].ID == id {
			r := m.rules[i]
			return &r, nil
		}
	}
	return nil, fmt.Errorf("rule %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) UpdateRuleStatus(_ context.Context, id string, status rule.Status, justification string) error {
	if m.updateRuleErr != nil {
		return m.updateRuleErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rules {
		if m.rules[i].ID == id {
			m.rules[i].Status = status
			m.rules[i].OverrideJustification = justification
			return nil
		}
	}
	return fmt.Errorf("rule %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) EvaluableRules(_ context.Context, guidelineIDs []string) ([]rule.RegulatoryRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(guidelineIDs))
	for _, id := range guidelineIDs {
		wanted[id] = true
	}
	packGuideline := make(map[string]string, len(m.packs))
	for _, p := range m.packs {
		packGuideline[p.ID] = p.GuidelineID
	}
	var out []rule.RegulatoryRule
	for _, r := range m.rules {
		if r.Status != rule.StatusConfirmed && r.Status != rule.StatusOverridden {
			continue
		}
		if !wanted[packGuideline[r.PackID]] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *mockStore) ListActivations(_ context.Context, projectID string) ([]guideline.Activation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []guideline.Activation
	for _, a := range m.activations {
		if a.ProjectID == projectID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockStore) CreateActivation(_ context.Context, projectID string, req guideline.ActivationRequest) (*guideline.Activation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.activations {
		if m.activations[i].ProjectID == projectID && m.activations[i].GuidelineID == req.GuidelineID {
			m.activations[i].NumberingMode = req.NumberingMode
			m.activations[i].ClinicalPhase = req.ClinicalPhase
			a := m.activations[i]
			return &a, nil
		}
	}
	a := guideline.Activation{
		ID:            fmt.Sprintf("act-%d", len(m.activations)+1),
		ProjectID:     projectID,
		GuidelineID:   req.GuidelineID,
		NumberingMode: req.NumberingMode,
		ClinicalPhase: req.ClinicalPhase,
		CreatedAt:     time.Now(),
	}
	m.activations = append(m.activations, a)
	return &a, nil
}

func (m *mockStore) DeleteActivation(_ context.Context, projectID, guidelineID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.activations {
		if m.activations[i].ProjectID == projectID && m.activations[i].GuidelineID == guidelineID {
			m.activations = append(m.activations[:i], m.activations[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("activation: %w", domain.ErrNotFound)
}

func (m *mockStore) ListWaivers(_ context.Context, projectID string) ([]waiver.Waiver, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []waiver.Waiver
	for _, w := range m.waivers {
		if w.ProjectID == projectID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertWaiver(_ context.Context, w *waiver.Waiver) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for i := range m.waivers {
		if m.waivers[i].ProjectID == w.ProjectID && m.waivers[i].RuleIDCode == w.RuleIDCode {
			m.waivers[i].Justification = w.Justification
			m.waivers[i].UpdatedAt = now
			*w = m.waivers[i]
			return false, nil
		}
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	m.waivers = append(m.waivers, *w)
	return true, nil
}

func (m *mockStore) DeleteWaiver(_ context.Context, projectID, ruleIDCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.waivers {
		if m.waivers[i].ProjectID == projectID && m.waivers[i].RuleIDCode == ruleIDCode {
			m.waivers = append(m.waivers[:i], m.waivers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("waiver %s: %w", ruleIDCode, domain.ErrNotFound)
}

func (m *mockStore) GetProject(_ context.Context, id string) (*project.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.projects {
		if m.projects[i].ID == id {
			p := m.projects[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
}

func (m *mockStore) ListStudies(_ context.Context, projectID string) ([]project.Study, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []project.Study
	for _, s := range m.studies {
		if s.ProjectID == projectID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStore) ProjectCounts(_ context.Context, projectID string) (*project.Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.counts[projectID]
	return &c, nil
}

func (m *mockStore) AppendEvaluationLog(_ context.Context, entries []evaluation.LogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evalLog = append(m.evalLog, entries...)
	return nil
}

func (m *mockStore) ListEvaluationLog(_ context.Context, projectID string, _ int) ([]evaluation.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []evaluation.LogEntry
	for _, e := range m.evalLog {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

// mockAudit records appended audit entries.
type mockAudit struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (m *mockAudit) Append(_ context.Context, e *audit.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = fmt.Sprintf("audit-%d", len(m.entries)+1)
	m.entries = append(m.entries, *e)
	return nil
}

func (m *mockAudit) List(_ context.Context, projectID string, _ auditlog.Filter, _ int) ([]audit.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []audit.Entry
	for _, e := range m.entries {
		if projectID == "" || e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAudit) types() []audit.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]audit.Type, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Type
	}
	return out
}

// mockQueue records published messages and lets tests invoke subscribers.
type mockQueue struct {
	mu         sync.Mutex
	published  map[string][][]byte
	handlers   map[string]messagequeue.Handler
	publishErr error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		published: make(map[string][][]byte),
		handlers:  make(map[string]messagequeue.Handler),
	}
}

func (m *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	if m.publishErr != nil {
		return m.publishErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[subject] = append(m.published[subject], data)
	return nil
}

func (m *mockQueue) Subscribe(_ context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[subject] = handler
	return func() {}, nil
}

func (m *mockQueue) Drain() error { return nil }
func (m *mockQueue) Close() error { return nil }

func (m *mockQueue) IsConnected() bool { return true }

func (m *mockQueue) messages(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.published[subject]
}

// mockHub records broadcast events.
type mockHub struct {
	mu     sync.Mutex
	events []string
}

func (m *mockHub) BroadcastEvent(_ context.Context, eventType string, _ any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

// mockCache is a trivial map-backed cache.
type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}

func (m *mockCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// mockText returns canned pages, standing in for the PDF extractor.
type mockText struct {
	pages []extract.Page
	err   error
}

func (m *mockText) Pages(_ context.Context, _ []byte) ([]extract.Page, error) {
	return m.pages, m.err
}
