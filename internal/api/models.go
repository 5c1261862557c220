package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// SourceFileRequest describes one file of an import's source bundle.
type SourceFileRequest struct {
	FileName string `json:"file_name" validate:"required"`
	FilePath string `json:"file_path" validate:"required"`
	FileSize int64  `json:"file_size"  validate:"gte=0"`
}

// StartImportRequest represents the request body for starting a new import.
// The API key is used for the pipeline's model calls only and is never
// persisted.
type StartImportRequest struct {
	SourceType string              `json:"source_type"          validate:"required,oneof=pdf markdown text multi_file"`
	Files      []SourceFileRequest `json:"files"                validate:"required,min=1,dive"`
	ProgramID  *uuid.UUID          `json:"program_id,omitempty"`
	APIKey     string              `json:"api_key"              validate:"required"`
}

// RetryImportRequest represents the request body for retrying a failed
// import. A fresh API key is required because credentials do not outlive
// the run they were supplied for.
type RetryImportRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// UpdatePreviewRequest represents the request body for submitting an edited
// plan.
type UpdatePreviewRequest struct {
	Plan *domain.DraftCurriculum `json:"plan" validate:"required"`
}

// ImportJobResponse represents an import job without its bulky stage
// artifacts; the preview endpoint serves the plan itself.
type ImportJobResponse struct {
	ID                 string              `json:"id"`
	ProgramID          *string             `json:"program_id,omitempty"`
	Status             string              `json:"status"`
	SourceType         string              `json:"source_type"`
	SourceFiles        []domain.SourceFile `json:"source_files"`
	TotalPages         int64               `json:"total_pages"`
	TotalTokens        int64               `json:"total_tokens"`
	TotalDaysGenerated int64               `json:"total_days_generated"`
	AIModelUsed        string              `json:"ai_model_used,omitempty"`
	ErrorMessage       *string             `json:"error_message,omitempty"`
	ErrorStep          *string             `json:"error_step,omitempty"`
	StartedAt          *time.Time          `json:"started_at,omitempty"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ListImportsResponse represents a page of import jobs.
type ListImportsResponse struct {
	Jobs   []ImportJobResponse `json:"jobs"`
	Limit  int                 `json:"limit"`
	Offset int                 `json:"offset"`
}

// PreviewResponse represents the plan that apply would materialize.
type PreviewResponse struct {
	JobID  string                  `json:"job_id"`
	Status string                  `json:"status"`
	Plan   *domain.DraftCurriculum `json:"plan"`
}

// importJobToResponse converts a domain.ImportJob to an ImportJobResponse.
func importJobToResponse(job *domain.ImportJob) ImportJobResponse {
	resp := ImportJobResponse{
		ID:                 job.ID.String(),
		Status:             string(job.Status),
		SourceType:         string(job.SourceType),
		SourceFiles:        job.SourceFiles,
		TotalPages:         job.TotalPages,
		TotalTokens:        job.TotalTokens,
		TotalDaysGenerated: job.TotalDaysGenerated,
		AIModelUsed:        job.AIModelUsed,
		ErrorMessage:       job.ErrorMessage,
		ErrorStep:          job.ErrorStep,
		StartedAt:          job.StartedAt,
		CompletedAt:        job.CompletedAt,
		CreatedAt:          job.CreatedAt,
		UpdatedAt:          job.UpdatedAt,
	}
	if job.ProgramID != nil {
		programID := job.ProgramID.String()
		resp.ProgramID = &programID
	}
	return resp
}
