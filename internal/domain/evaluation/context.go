// Package evaluation implements the rule evaluation core: the project
// context snapshot, the field path registry, the rule source providers, and
// the orchestrator that turns rules plus context into a gated report.
package evaluation

import "github.com/stabledocs/regula/internal/domain/guideline"

// ProductType identifies what the project's product record describes.
type ProductType string

const (
	ProductDrugSubstance ProductType = "drug_substance"
	ProductDrugProduct   ProductType = "drug_product"
)

// SideFacts holds study and result existence facts for one product side.
// They are computed from the authoritative study/lot/result tables, never
// stored, so rebuilding the context is deterministic.
type SideFacts struct {
	HasAcceleratedStudy    bool `json:"has_accelerated_study"`
	HasLongTermStudy       bool `json:"has_long_term_study"`
	HasIntermediateStudy   bool `json:"has_intermediate_study"`
	HasPhotostabilityStudy bool `json:"has_photostability_study"`
	HasStressStudy         bool `json:"has_stress_study"`
	HasInUseStudy          bool `json:"has_in_use_study"`
	HasStabilityTable      bool `json:"has_stability_table"`
	HasResults             bool `json:"has_results"`
}

// ProjectContext is the ephemeral, read-only snapshot a single evaluation
// pass runs against. It is rebuilt from the database per pass and shared by
// every rule in that pass so all rules see identical facts.
type ProjectContext struct {
	ProjectID   string      `json:"project_id"`
	ProductType ProductType `json:"product_type"`
	ProductName string      `json:"product_name,omitempty"`
	DosageForm  string      `json:"dosage_form,omitempty"`

	ClinicalPhase guideline.ClinicalPhase `json:"clinical_phase"`
	NumberingMode guideline.NumberingMode `json:"numbering_mode"`

	// Product characteristic flags.
	RequiresReconstitution bool   `json:"requires_reconstitution"`
	IsMultiDose            bool   `json:"is_multi_dose"`
	InUseJustification     string `json:"in_use_stability_justification,omitempty"`

	// Drug substance fields.
	RetestPeriod              string `json:"retest_period,omitempty"`
	RetestPeriodJustification string `json:"retest_period_justification,omitempty"`

	// Drug product fields.
	ShelfLife              string `json:"shelf_life,omitempty"`
	ShelfLifeJustification string `json:"shelf_life_justification,omitempty"`

	// Shared product fields.
	StorageConditions      string `json:"proposed_storage_conditions,omitempty"`
	StabilityCommitment    string `json:"stability_commitment_statement,omitempty"`
	SpecificationReference string `json:"specification_reference,omitempty"`
	ContainerClosure       string `json:"container_closure,omitempty"`

	DS SideFacts `json:"ds"`
	DP SideFacts `json:"dp"`

	LotCount       int `json:"lot_count"`
	ConditionCount int `json:"condition_count"`
}

// ProductSideFacts returns the facts for the side the project's product
// occupies. Built-in phase rules read the current side through this.
func (c *ProjectContext) ProductSideFacts() SideFacts {
	if c.ProductType == ProductDrugSubstance {
		return c.DS
	}
	return c.DP
}

// InUseRequired reports whether the built-in in-use stability obligation
// applies: a drug product that needs reconstitution, dilution or mixing, or
// is dispensed multi-dose.
func (c *ProjectContext) InUseRequired() bool {
	return c.ProductType == ProductDrugProduct && (c.RequiresReconstitution || c.IsMultiDose)
}
