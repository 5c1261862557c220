package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/api/shared"
	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/service"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// ImportService is the slice of the import service the handlers need.
// Declared here so handler tests can substitute a lightweight fake.
type ImportService interface {
	Start(ctx context.Context, files []domain.SourceFile, sourceType domain.SourceType, programID *uuid.UUID, credential string) (*domain.ImportJob, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
	List(ctx context.Context, statuses []domain.ImportStatus, limit, offset int) ([]*domain.ImportJob, error)
	GetPreview(ctx context.Context, id uuid.UUID) (*domain.DraftCurriculum, error)
	UpdatePreview(ctx context.Context, id uuid.UUID, draft *domain.DraftCurriculum) (*domain.ImportJob, error)
	Apply(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)
	Retry(ctx context.Context, id uuid.UUID, credential string) (*domain.ImportJob, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

var _ ImportService = (*service.ImportService)(nil)

// ImportHandler handles import job HTTP requests.
type ImportHandler struct {
	importService ImportService
	validator     *validator.Validate
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		validator:     validator.New(),
	}
}

// StartImport handles POST /api/imports requests. The pipeline runs in the
// background, so the response is 202 Accepted with the pending job.
func (h *ImportHandler) StartImport(w http.ResponseWriter, r *http.Request) {
	var req StartImportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	files := make([]domain.SourceFile, len(req.Files))
	for i, f := range req.Files {
		files[i] = domain.SourceFile{
			FileName: f.FileName,
			FilePath: f.FilePath,
			FileSize: f.FileSize,
		}
	}

	job, err := h.importService.Start(
		r.Context(),
		files,
		domain.SourceType(req.SourceType),
		req.ProgramID,
		req.APIKey,
	)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, importJobToResponse(job))
}

// ListImports handles GET /api/imports requests. Supports status, limit and
// offset query parameters; status accepts a comma-separated list.
func (h *ImportHandler) ListImports(w http.ResponseWriter, r *http.Request) {
	statuses, err := parseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
		return
	}
	limit := parseIntParam(r.URL.Query().Get("limit"), defaultListLimit, maxListLimit)
	offset := parseIntParam(r.URL.Query().Get("offset"), 0, 1<<30)

	jobs, err := h.importService.List(r.Context(), statuses, limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	resp := ListImportsResponse{
		Jobs:   make([]ImportJobResponse, len(jobs)),
		Limit:  limit,
		Offset: offset,
	}
	for i, job := range jobs {
		resp.Jobs[i] = importJobToResponse(job)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetImport handles GET /api/imports/{id} requests.
func (h *ImportHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.importService.Get(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, importJobToResponse(job))
}

// DeleteImport handles DELETE /api/imports/{id} requests.
func (h *ImportHandler) DeleteImport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	if err := h.importService.Delete(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetPreview handles GET /api/imports/{id}/preview requests.
func (h *ImportHandler) GetPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	plan, err := h.importService.GetPreview(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	job, err := h.importService.Get(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PreviewResponse{
		JobID:  id.String(),
		Status: string(job.Status),
		Plan:   plan,
	})
}

// UpdatePreview handles PUT /api/imports/{id}/preview requests.
func (h *ImportHandler) UpdatePreview(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var req UpdatePreviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if req.Plan == nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Plan is required")
		return
	}

	job, err := h.importService.UpdatePreview(r.Context(), id, req.Plan)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, importJobToResponse(job))
}

// ApplyImport handles POST /api/imports/{id}/apply requests.
func (h *ImportHandler) ApplyImport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.importService.Apply(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	// Apply runs synchronously; re-read for the completed state.
	job, err = h.importService.Get(r.Context(), job.ID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, importJobToResponse(job))
}

// CancelImport handles POST /api/imports/{id}/cancel requests.
func (h *ImportHandler) CancelImport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	job, err := h.importService.Cancel(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, importJobToResponse(job))
}

// RetryImport handles POST /api/imports/{id}/retry requests.
func (h *ImportHandler) RetryImport(w http.ResponseWriter, r *http.Request) {
	id, ok := h.jobID(w, r)
	if !ok {
		return
	}

	var req RetryImportRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	job, err := h.importService.Retry(r.Context(), id, req.APIKey)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, importJobToResponse(job))
}

// jobID parses the {id} route parameter, responding with 400 on failure.
func (h *ImportHandler) jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid import job ID")
		return uuid.Nil, false
	}
	return id, true
}

func parseStatusFilter(raw string) ([]domain.ImportStatus, error) {
	if raw == "" {
		return nil, nil
	}

	var statuses []domain.ImportStatus
	for _, part := range strings.Split(raw, ",") {
		status := domain.ImportStatus(strings.TrimSpace(part))
		if !isKnownStatus(status) {
			return nil, domain.ErrInvalidImportStatus
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func isKnownStatus(status domain.ImportStatus) bool {
	switch status {
	case domain.ImportStatusPending, domain.ImportStatusExtracting,
		domain.ImportStatusAnalyzing, domain.ImportStatusGenerating,
		domain.ImportStatusReview, domain.ImportStatusApplying,
		domain.ImportStatusCompleted, domain.ImportStatusFailed,
		domain.ImportStatusCancelled:
		return true
	default:
		return false
	}
}

func parseIntParam(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}
