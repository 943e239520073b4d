// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/stabledocs/regula/internal/domain/evaluation"
	"github.com/stabledocs/regula/internal/domain/guideline"
	"github.com/stabledocs/regula/internal/domain/pack"
	"github.com/stabledocs/regula/internal/domain/project"
	"github.com/stabledocs/regula/internal/domain/rule"
	"github.com/stabledocs/regula/internal/domain/waiver"
)

// RuleFilter narrows ListRules. Zero values mean "no constraint".
type RuleFilter struct {
	PackID  string      `json:"pack_id,omitempty"`
	Status  rule.Status `json:"status,omitempty"`
	Side    rule.ProductSide `json:"side,omitempty"`
	Section string      `json:"section,omitempty"` // matched against mapped_app_sections
}

// Store is the port interface for database operations.
type Store interface {
	// Guidelines
	ListGuidelines(ctx context.Context) ([]guideline.Guideline, error)
	GetGuideline(ctx context.Context, id string) (*guideline.Guideline, error)
	CreateGuideline(ctx context.Context, g *guideline.Guideline) (*guideline.Guideline, error)
	UpdateGuidelineStatus(ctx context.Context, id string, status guideline.ExtractionStatus) error
	UpdateGuidelineMetadata(ctx context.Context, g *guideline.Guideline) error
	DeleteGuideline(ctx context.Context, id string) error

	// Guideline file bytes, stored immutably next to the record.
	PutGuidelineFile(ctx context.Context, id string, data []byte) error
	GetGuidelineFile(ctx context.Context, id string) ([]byte, error)

	// Allocation packs
	CreatePack(ctx context.Context, p *pack.AllocationPack) (*pack.AllocationPack, error)
	GetPack(ctx context.Context, id string) (*pack.AllocationPack, error)
	LatestPack(ctx context.Context, guidelineID string) (*pack.AllocationPack, error)

	// Rules
	ListRules(ctx context.Context, filter RuleFilter) ([]rule.RegulatoryRule, error)
	GetRule(ctx context.Context, id string) (*rule.RegulatoryRule, error)
	UpdateRuleStatus(ctx context.Context, id string, status rule.Status, justification string) error
	EvaluableRules(ctx context.Context, guidelineIDs []string) ([]rule.RegulatoryRule, error)

	// Activations
	ListActivations(ctx context.Context, projectID string) ([]guideline.Activation, error)
	CreateActivation(ctx context.Context, projectID string, req guideline.ActivationRequest) (*guideline.Activation, error)
	DeleteActivation(ctx context.Context, projectID, guidelineID string) error

	// Waivers
	ListWaivers(ctx context.Context, projectID string) ([]waiver.Waiver, error)
	UpsertWaiver(ctx context.Context, w *waiver.Waiver) (created bool, err error)
	DeleteWaiver(ctx context.Context, projectID, ruleIDCode string) error

	// Projects and their stability data (read by the context builder).
	GetProject(ctx context.Context, id string) (*project.Project, error)
	ListStudies(ctx context.Context, projectID string) ([]project.Study, error)
	ProjectCounts(ctx context.Context, projectID string) (*project.Counts, error)

	// Evaluation log, append-only.
	AppendEvaluationLog(ctx context.Context, entries []evaluation.LogEntry) error
	ListEvaluationLog(ctx context.Context, projectID string, limit int) ([]evaluation.LogEntry, error)
}
