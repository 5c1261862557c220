package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/service"
	"github.com/daybreak-app/daybreak-api/internal/store"
)

// fakeImportService returns canned values for handler tests.
type fakeImportService struct {
	job        *domain.ImportJob
	jobs       []*domain.ImportJob
	plan       *domain.DraftCurriculum
	err        error
	lastCred   string
	lastSource domain.SourceType
}

func (f *fakeImportService) Start(_ context.Context, _ []domain.SourceFile, sourceType domain.SourceType, _ *uuid.UUID, credential string) (*domain.ImportJob, error) {
	f.lastCred = credential
	f.lastSource = sourceType
	return f.job, f.err
}

func (f *fakeImportService) Get(_ context.Context, _ uuid.UUID) (*domain.ImportJob, error) {
	return f.job, f.err
}

func (f *fakeImportService) List(_ context.Context, _ []domain.ImportStatus, _, _ int) ([]*domain.ImportJob, error) {
	return f.jobs, f.err
}

func (f *fakeImportService) GetPreview(_ context.Context, _ uuid.UUID) (*domain.DraftCurriculum, error) {
	return f.plan, f.err
}

func (f *fakeImportService) UpdatePreview(_ context.Context, _ uuid.UUID, _ *domain.DraftCurriculum) (*domain.ImportJob, error) {
	return f.job, f.err
}

func (f *fakeImportService) Apply(_ context.Context, _ uuid.UUID) (*domain.ImportJob, error) {
	return f.job, f.err
}

func (f *fakeImportService) Cancel(_ context.Context, _ uuid.UUID) (*domain.ImportJob, error) {
	return f.job, f.err
}

func (f *fakeImportService) Retry(_ context.Context, _ uuid.UUID, credential string) (*domain.ImportJob, error) {
	f.lastCred = credential
	return f.job, f.err
}

func (f *fakeImportService) Delete(_ context.Context, _ uuid.UUID) error {
	return f.err
}

func testJob(t *testing.T) *domain.ImportJob {
	t.Helper()
	job, err := domain.NewImportJob(
		[]domain.SourceFile{{FileName: "course.md", FilePath: "/srv/uploads/course.md", FileSize: 128}},
		domain.SourceTypeMarkdown,
		nil,
	)
	require.NoError(t, err)
	return job
}

func newTestRouter(svc ImportService) *chi.Mux {
	h := NewImportHandler(svc)
	r := chi.NewRouter()
	r.Route("/api/imports", func(r chi.Router) {
		r.Post("/", h.StartImport)
		r.Get("/", h.ListImports)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetImport)
			r.Delete("/", h.DeleteImport)
			r.Get("/preview", h.GetPreview)
			r.Put("/preview", h.UpdatePreview)
			r.Post("/apply", h.ApplyImport)
			r.Post("/cancel", h.CancelImport)
			r.Post("/retry", h.RetryImport)
		})
	})
	return r
}

func TestStartImportAccepted(t *testing.T) {
	job := testJob(t)
	svc := &fakeImportService{job: job}
	router := newTestRouter(svc)

	body, err := json.Marshal(StartImportRequest{
		SourceType: "markdown",
		Files: []SourceFileRequest{
			{FileName: "course.md", FilePath: "/srv/uploads/course.md", FileSize: 128},
		},
		APIKey: "test-key",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "test-key", svc.lastCred)
	assert.Equal(t, domain.SourceTypeMarkdown, svc.lastSource)

	var resp ImportJobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, job.ID.String(), resp.ID)
	assert.Equal(t, "pending", resp.Status)
}

func TestStartImportRequiresAPIKey(t *testing.T) {
	router := newTestRouter(&fakeImportService{})

	body := []byte(`{"source_type":"markdown","files":[{"file_name":"a.md","file_path":"/a.md","file_size":1}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "APIKey")
}

func TestStartImportRejectsUnknownSourceType(t *testing.T) {
	router := newTestRouter(&fakeImportService{})

	body := []byte(`{"source_type":"docx","api_key":"k","files":[{"file_name":"a","file_path":"/a","file_size":1}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetImportInvalidID(t *testing.T) {
	router := newTestRouter(&fakeImportService{})

	req := httptest.NewRequest(http.MethodGet, "/api/imports/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetImportNotFound(t *testing.T) {
	router := newTestRouter(&fakeImportService{err: store.ErrImportJobNotFound})

	req := httptest.NewRequest(http.MethodGet, "/api/imports/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Import job not found")
}

func TestApplyImportConflict(t *testing.T) {
	router := newTestRouter(&fakeImportService{err: store.ErrStatusConflict})

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/imports/%s/apply", uuid.NewString()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCancelApplyingReturnsConflict(t *testing.T) {
	router := newTestRouter(&fakeImportService{err: service.ErrInvalidState})

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/imports/%s/cancel", uuid.NewString()), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRetryImportRequiresAPIKey(t *testing.T) {
	router := newTestRouter(&fakeImportService{job: testJob(t)})

	req := httptest.NewRequest(
		http.MethodPost,
		fmt.Sprintf("/api/imports/%s/retry", uuid.NewString()),
		bytes.NewReader([]byte(`{}`)),
	)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListImportsParsesFilters(t *testing.T) {
	job := testJob(t)
	router := newTestRouter(&fakeImportService{jobs: []*domain.ImportJob{job}})

	req := httptest.NewRequest(http.MethodGet, "/api/imports?status=review,failed&limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListImportsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Limit)
	require.Len(t, resp.Jobs, 1)
}

func TestListImportsRejectsBadStatus(t *testing.T) {
	router := newTestRouter(&fakeImportService{})

	req := httptest.NewRequest(http.MethodGet, "/api/imports?status=bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPreviewReturnsPlan(t *testing.T) {
	job := testJob(t)
	job.Status = domain.ImportStatusReview
	plan := &domain.DraftCurriculum{
		Program:  domain.ProgramDraft{Title: "Go Course"},
		Modules:  []domain.ModuleDraft{{Title: "Basics"}},
		DayPlans: []domain.DayPlanDraft{{ModuleIndex: 0, DayNumber: 1, Title: "Day one"}},
	}
	router := newTestRouter(&fakeImportService{job: job, plan: plan})

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/imports/%s/preview", job.ID), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "review", resp.Status)
	require.NotNil(t, resp.Plan)
	assert.Equal(t, "Go Course", resp.Plan.Program.Title)
}

func TestDeleteImportNoContent(t *testing.T) {
	router := newTestRouter(&fakeImportService{})

	req := httptest.NewRequest(http.MethodDelete, "/api/imports/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
