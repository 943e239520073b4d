// Package guideline defines the regulatory guideline document entity and its
// per-project activation.
package guideline

import "time"

// ExtractionStatus tracks the allocation extraction lifecycle of a guideline
// document.
type ExtractionStatus string

const (
	StatusUploaded      ExtractionStatus = "uploaded"
	StatusAllocating    ExtractionStatus = "allocating"
	StatusPendingReview ExtractionStatus = "pending_review"
	StatusReviewed      ExtractionStatus = "reviewed"
	StatusFailed        ExtractionStatus = "failed"
)

// Guideline is an uploaded regulatory guideline document. The file itself is
// stored immutably; the checksum pins the exact bytes every allocation pack
// was extracted from.
type Guideline struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Agency           string           `json:"agency"` // EMA, FDA, ICH
	DocumentID       string           `json:"document_id,omitempty"`
	Version          string           `json:"version,omitempty"`
	PublicationDate  string           `json:"publication_date,omitempty"`
	OriginalFilename string           `json:"original_filename"`
	ChecksumSHA256   string           `json:"file_checksum_sha256"`
	Status           ExtractionStatus `json:"status"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NumberingMode selects the dossier section numbering scheme.
type NumberingMode string

const (
	NumberingCTD  NumberingMode = "ctd"
	NumberingIMPD NumberingMode = "impd"
)

// ClinicalPhase is the development phase the project targets.
type ClinicalPhase string

const (
	Phase1       ClinicalPhase = "phase_1"
	Phase2       ClinicalPhase = "phase_2"
	Phase3       ClinicalPhase = "phase_3"
	PostApproval ClinicalPhase = "post_approval"
)

// Activation binds a project to a guideline with a numbering mode and
// clinical phase. Exactly one activation exists per (project, guideline)
// pair; all active guidelines contribute rules to evaluation.
type Activation struct {
	ID            string        `json:"id"`
	ProjectID     string        `json:"project_id"`
	GuidelineID   string        `json:"guideline_id"`
	NumberingMode NumberingMode `json:"numbering_mode"`
	ClinicalPhase ClinicalPhase `json:"clinical_phase"`
	CreatedAt     time.Time     `json:"created_at"`
}
