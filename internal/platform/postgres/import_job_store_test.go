package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/store"
)

// newStoreWithMock builds an ImportJobStore backed by a sqlmock connection.
func newStoreWithMock(t *testing.T) (*PostgresImportJobStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgresImportJobStore(db, nil), mock
}

func pendingJob(t *testing.T) *domain.ImportJob {
	t.Helper()

	job, err := domain.NewImportJob(
		[]domain.SourceFile{{FileName: "notes.md", FilePath: "/tmp/notes.md", FileSize: 42}},
		domain.SourceTypeMarkdown,
		nil,
	)
	require.NoError(t, err)
	return job
}

func TestImportJobStoreCreate(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)
	job := pendingJob(t)

	mock.ExpectExec("INSERT INTO import_jobs").
		WithArgs(
			job.ID,
			nil,
			string(domain.ImportStatusPending),
			string(domain.SourceTypeMarkdown),
			sqlmock.AnyArg(),
			job.CreatedAt,
			job.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Create(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreCreateRejectsInvalidJob(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)

	// No source files fails entity validation before any SQL runs.
	err := s.Create(context.Background(), &domain.ImportJob{
		ID:         uuid.New(),
		Status:     domain.ImportStatusPending,
		SourceType: domain.SourceTypeMarkdown,
	})

	assert.ErrorIs(t, err, store.ErrInvalidEntity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreGetByID(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)

	id := uuid.New()
	now := time.Now().UTC()
	started := now.Add(-time.Minute)

	columns := []string{
		"id", "program_id", "status", "source_type", "source_files",
		"extracted_text", "extracted_sections", "ai_analysis", "generated_plan", "reviewed_plan",
		"total_pages", "total_tokens", "total_days_generated", "ai_model_used",
		"error_message", "error_step", "started_at", "completed_at", "created_at", "updated_at",
	}
	rows := sqlmock.NewRows(columns).AddRow(
		id.String(),
		nil,
		"analyzing",
		"markdown",
		[]byte(`[{"file_name":"notes.md","file_path":"/tmp/notes.md","file_size":42}]`),
		"# Intro\nsome text",
		[]byte(`[{"heading":"Intro","level":1,"content":"some text","page_number":1,"has_code":false,"has_list":false,"estimated_complexity":1}]`),
		nil,
		nil,
		nil,
		int64(1),
		int64(5),
		int64(0),
		"",
		nil,
		nil,
		started,
		nil,
		now,
		now,
	)

	mock.ExpectQuery("SELECT (.+) FROM import_jobs WHERE id = \\$1").
		WithArgs(id).
		WillReturnRows(rows)

	job, err := s.GetByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, job.ID)
	assert.Nil(t, job.ProgramID)
	assert.Equal(t, domain.ImportStatusAnalyzing, job.Status)
	require.Len(t, job.SourceFiles, 1)
	assert.Equal(t, "notes.md", job.SourceFiles[0].FileName)
	require.NotNil(t, job.ExtractedText)
	require.Len(t, job.ExtractedSections, 1)
	assert.Equal(t, "Intro", job.ExtractedSections[0].Heading)
	assert.Nil(t, job.GeneratedPlan)
	require.NotNil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreGetByIDNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM import_jobs WHERE id = \\$1").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrImportJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreUpdateGuardsOnStatus(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)
	job := pendingJob(t)
	job.Status = domain.ImportStatusReview

	mock.ExpectExec("UPDATE import_jobs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Update(context.Background(), job, domain.ImportStatusReview))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreUpdateConflictOnChangedStatus(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)
	job := pendingJob(t)
	job.Status = domain.ImportStatusReview

	// The row moved on since the caller's read, so the guarded write
	// touches nothing and the store reports the status it found.
	mock.ExpectExec("UPDATE import_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM import_jobs").
		WithArgs(job.ID).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("completed"))

	err := s.Update(context.Background(), job, domain.ImportStatusReview)
	require.ErrorIs(t, err, store.ErrStatusConflict)
	assert.Contains(t, err.Error(), "found completed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreUpdateMissingRow(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)
	job := pendingJob(t)

	mock.ExpectExec("UPDATE import_jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM import_jobs").
		WithArgs(job.ID).
		WillReturnError(sql.ErrNoRows)

	err := s.Update(context.Background(), job, domain.ImportStatusPending)
	assert.ErrorIs(t, err, store.ErrImportJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreUpdateStatusIf(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE import_jobs").
		WithArgs(id, string(domain.ImportStatusReview), string(domain.ImportStatusApplying), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.UpdateStatusIf(context.Background(), id, domain.ImportStatusReview, domain.ImportStatusApplying)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreUpdateStatusIfConflict(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)

	// The guarded UPDATE touches no rows, so the store re-reads the current
	// status to distinguish a lost race from a missing row.
	id := uuid.New()
	mock.ExpectExec("UPDATE import_jobs").
		WithArgs(id, string(domain.ImportStatusReview), string(domain.ImportStatusApplying), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM import_jobs").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("cancelled"))

	err := s.UpdateStatusIf(context.Background(), id, domain.ImportStatusReview, domain.ImportStatusApplying)
	require.ErrorIs(t, err, store.ErrStatusConflict)
	assert.Contains(t, err.Error(), "found cancelled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreUpdateStatusIfMissingRow(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE import_jobs").
		WithArgs(id, string(domain.ImportStatusFailed), string(domain.ImportStatusGenerating), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM import_jobs").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	err := s.UpdateStatusIf(context.Background(), id, domain.ImportStatusFailed, domain.ImportStatusGenerating)
	assert.ErrorIs(t, err, store.ErrImportJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreDeleteNotFound(t *testing.T) {
	t.Parallel()

	s, mock := newStoreWithMock(t)

	id := uuid.New()
	mock.ExpectExec("DELETE FROM import_jobs").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Delete(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrImportJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
