// Package project holds the stability project aggregate: the product record
// plus its studies, lots and storage conditions. Evaluation never reads
// these tables directly; the context builder condenses them into a
// ProjectContext snapshot first.
package project

import (
	"fmt"
	"time"

	"github.com/stabledocs/regula/internal/domain"
)

// ProductType mirrors evaluation.ProductType at the storage level.
const (
	ProductDrugSubstance = "drug_substance"
	ProductDrugProduct   = "drug_product"
)

// StudyType classifies a stability study by its storage regime.
type StudyType string

const (
	StudyAccelerated    StudyType = "accelerated"
	StudyLongTerm       StudyType = "long_term"
	StudyIntermediate   StudyType = "intermediate"
	StudyPhotostability StudyType = "photostability"
	StudyStress         StudyType = "stress"
	StudyInUse          StudyType = "in_use"
)

// Project is the stability project record.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ProductType string `json:"product_type"`
	ProductName string `json:"product_name,omitempty"`
	DosageForm  string `json:"dosage_form,omitempty"`

	ClinicalPhase string `json:"clinical_phase"`

	RequiresReconstitution bool   `json:"requires_reconstitution"`
	IsMultiDose            bool   `json:"is_multi_dose"`
	InUseJustification     string `json:"in_use_stability_justification,omitempty"`

	RetestPeriod              string `json:"retest_period,omitempty"`
	RetestPeriodJustification string `json:"retest_period_justification,omitempty"`
	ShelfLife                 string `json:"shelf_life,omitempty"`
	ShelfLifeJustification    string `json:"shelf_life_justification,omitempty"`

	StorageConditions      string `json:"proposed_storage_conditions,omitempty"`
	StabilityCommitment    string `json:"stability_commitment_statement,omitempty"`
	SpecificationReference string `json:"specification_reference,omitempty"`
	ContainerClosure       string `json:"container_closure,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Study is one stability study attached to a project.
type Study struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Side      string    `json:"side"` // "ds" or "dp"
	Type      StudyType `json:"type"`
	HasTable  bool      `json:"has_table"`
	HasResult bool      `json:"has_result"`
	CreatedAt time.Time `json:"created_at"`
}

// Counts are the project-wide lot and storage condition tallies.
type Counts struct {
	Lots       int `json:"lots"`
	Conditions int `json:"conditions"`
}

var validStudyTypes = map[StudyType]bool{
	StudyAccelerated:    true,
	StudyLongTerm:       true,
	StudyIntermediate:   true,
	StudyPhotostability: true,
	StudyStress:         true,
	StudyInUse:          true,
}

// Validate checks the study record for storable values.
func (s *Study) Validate() error {
	if s.ProjectID == "" {
		return fmt.Errorf("study project id is required: %w", domain.ErrValidation)
	}
	if s.Side != "ds" && s.Side != "dp" {
		return fmt.Errorf("study side %q must be ds or dp: %w", s.Side, domain.ErrValidation)
	}
	if !validStudyTypes[s.Type] {
		return fmt.Errorf("unknown study type %q: %w", s.Type, domain.ErrValidation)
	}
	return nil
}

// Validate checks the project record for storable values.
func (p *Project) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("project name is required: %w", domain.ErrValidation)
	}
	if p.ProductType != ProductDrugSubstance && p.ProductType != ProductDrugProduct {
		return fmt.Errorf("unknown product type %q: %w", p.ProductType, domain.ErrValidation)
	}
	return nil
}
