package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ImportStatus represents the lifecycle state of an import job.
type ImportStatus string

// Possible import job status values. Cancelled is modeled as an explicit
// terminal status rather than a failed variant; see DESIGN.md.
const (
	ImportStatusPending    ImportStatus = "pending"
	ImportStatusExtracting ImportStatus = "extracting"
	ImportStatusAnalyzing  ImportStatus = "analyzing"
	ImportStatusGenerating ImportStatus = "generating"
	ImportStatusReview     ImportStatus = "review"
	ImportStatusApplying   ImportStatus = "applying"
	ImportStatusCompleted  ImportStatus = "completed"
	ImportStatusFailed     ImportStatus = "failed"
	ImportStatusCancelled  ImportStatus = "cancelled"
)

// Step names recorded in error_step when a stage fails.
const (
	StepExtracting = "extracting"
	StepAnalyzing  = "analyzing"
	StepGenerating = "generating"
	StepApplying   = "applying"
)

// SourceType identifies the kind of document bundle an import job reads.
type SourceType string

// Supported source types.
const (
	SourceTypePDF       SourceType = "pdf"
	SourceTypeMarkdown  SourceType = "markdown"
	SourceTypeText      SourceType = "text"
	SourceTypeMultiFile SourceType = "multi_file"
)

// Common validation errors for ImportJob.
var (
	ErrEmptyJobID       = errors.New("import job ID cannot be empty")
	ErrNoSourceFiles    = errors.New("import job must have at least one source file")
	ErrEmptySourcePath  = errors.New("source file path cannot be empty")
	ErrNegativeFileSize = errors.New("source file size cannot be negative")
)

// SourceFile describes one file of the job's source bundle. Order within
// the bundle is caller-significant and preserved verbatim.
type SourceFile struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileSize int64  `json:"file_size"`
}

// ImportJob is the durable record of one import run. Stage artifacts are
// nil until their stage has completed; the job row is the single source of
// truth for resuming after failure or restart.
type ImportJob struct {
	ID        uuid.UUID    `json:"id"`
	ProgramID *uuid.UUID   `json:"program_id,omitempty"`
	Status    ImportStatus `json:"status"`

	SourceType  SourceType   `json:"source_type"`
	SourceFiles []SourceFile `json:"source_files"`

	ExtractedText     *string          `json:"extracted_text,omitempty"`
	ExtractedSections []Section        `json:"extracted_sections,omitempty"`
	AIAnalysis        json.RawMessage  `json:"ai_analysis,omitempty"`
	GeneratedPlan     *DraftCurriculum `json:"generated_plan,omitempty"`
	ReviewedPlan      *DraftCurriculum `json:"reviewed_plan,omitempty"`

	TotalPages         int64  `json:"total_pages"`
	TotalTokens        int64  `json:"total_tokens"`
	TotalDaysGenerated int64  `json:"total_days_generated"`
	AIModelUsed        string `json:"ai_model_used"`

	ErrorMessage *string `json:"error_message,omitempty"`
	ErrorStep    *string `json:"error_step,omitempty"`

	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Section is one entry of the structural outline produced by extraction.
type Section struct {
	Heading             string `json:"heading"`
	Level               int    `json:"level"`
	Content             string `json:"content"`
	PageNumber          int    `json:"page_number"`
	HasCode             bool   `json:"has_code"`
	HasList             bool   `json:"has_list"`
	EstimatedComplexity int    `json:"estimated_complexity"`
}

// NewImportJob creates a new ImportJob in the pending state for the given
// source bundle. programID pins the result to an existing program (append
// mode); pass nil to create a new program on apply.
func NewImportJob(sourceFiles []SourceFile, sourceType SourceType, programID *uuid.UUID) (*ImportJob, error) {
	now := time.Now().UTC()
	job := &ImportJob{
		ID:          uuid.New(),
		ProgramID:   programID,
		Status:      ImportStatusPending,
		SourceType:  sourceType,
		SourceFiles: sourceFiles,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return job, nil
}

// Validate checks if the ImportJob has valid data.
func (j *ImportJob) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if !isValidImportStatus(j.Status) {
		return ErrInvalidImportStatus
	}

	if !isValidSourceType(j.SourceType) {
		return ErrInvalidSourceType
	}

	if len(j.SourceFiles) == 0 {
		return ErrNoSourceFiles
	}

	for _, f := range j.SourceFiles {
		if f.FilePath == "" {
			return ErrEmptySourcePath
		}
		if f.FileSize < 0 {
			return ErrNegativeFileSize
		}
	}

	return nil
}

// Plan returns the draft that governs apply: the reviewed plan when the
// user has submitted one, otherwise the generated plan. Returns nil before
// synthesis has completed.
func (j *ImportJob) Plan() *DraftCurriculum {
	if j.ReviewedPlan != nil {
		return j.ReviewedPlan
	}
	return j.GeneratedPlan
}

// CanTransitionTo reports whether moving to the target status follows an
// edge of the import state machine.
func (j *ImportJob) CanTransitionTo(target ImportStatus) bool {
	for _, allowed := range transitions[j.Status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// Transition moves the job to the target status, enforcing the state
// machine. It updates UpdatedAt but leaves artifact bookkeeping to the
// caller.
func (j *ImportJob) Transition(target ImportStatus) error {
	if !j.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, target)
	}
	j.Status = target
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// IsTerminal reports whether the job can never run another stage.
// Failed is retry-eligible and therefore not terminal.
func (j *ImportJob) IsTerminal() bool {
	return j.Status == ImportStatusCompleted || j.Status == ImportStatusCancelled
}

// IsActiveStage reports whether a pipeline stage is (or should be) running
// for this job right now.
func (j *ImportJob) IsActiveStage() bool {
	switch j.Status {
	case ImportStatusExtracting, ImportStatusAnalyzing, ImportStatusGenerating, ImportStatusApplying:
		return true
	default:
		return false
	}
}

// RetryStatus maps the recorded error step back to the stage status that a
// retry must re-enter. Returns false when the job carries no retryable step.
func (j *ImportJob) RetryStatus() (ImportStatus, bool) {
	if j.Status != ImportStatusFailed || j.ErrorStep == nil {
		return "", false
	}
	switch *j.ErrorStep {
	case StepExtracting:
		return ImportStatusExtracting, true
	case StepAnalyzing:
		return ImportStatusAnalyzing, true
	case StepGenerating:
		return ImportStatusGenerating, true
	case StepApplying:
		return ImportStatusApplying, true
	default:
		return "", false
	}
}

// transitions enumerates every legal edge of the state machine. The
// failed -> review edge is the edit-and-reapply loop: a job that failed
// validation during apply returns to review when the user submits a
// corrected plan.
var transitions = map[ImportStatus][]ImportStatus{
	ImportStatusPending:    {ImportStatusExtracting, ImportStatusCancelled},
	ImportStatusExtracting: {ImportStatusAnalyzing, ImportStatusFailed, ImportStatusCancelled},
	ImportStatusAnalyzing:  {ImportStatusGenerating, ImportStatusFailed, ImportStatusCancelled},
	ImportStatusGenerating: {ImportStatusReview, ImportStatusFailed, ImportStatusCancelled},
	ImportStatusReview:     {ImportStatusApplying, ImportStatusCancelled},
	ImportStatusApplying:   {ImportStatusCompleted, ImportStatusFailed},
	ImportStatusFailed: {
		ImportStatusExtracting,
		ImportStatusAnalyzing,
		ImportStatusGenerating,
		ImportStatusApplying,
		ImportStatusReview,
	},
	ImportStatusCompleted: {},
	ImportStatusCancelled: {},
}

func isValidImportStatus(status ImportStatus) bool {
	switch status {
	case ImportStatusPending, ImportStatusExtracting, ImportStatusAnalyzing,
		ImportStatusGenerating, ImportStatusReview, ImportStatusApplying,
		ImportStatusCompleted, ImportStatusFailed, ImportStatusCancelled:
		return true
	default:
		return false
	}
}

func isValidSourceType(sourceType SourceType) bool {
	switch sourceType {
	case SourceTypePDF, SourceTypeMarkdown, SourceTypeText, SourceTypeMultiFile:
		return true
	default:
		return false
	}
}
