package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/store"
)

// importJobColumns is the canonical column list shared by every SELECT.
const importJobColumns = `id, program_id, status, source_type, source_files,
	extracted_text, extracted_sections, ai_analysis, generated_plan, reviewed_plan,
	total_pages, total_tokens, total_days_generated, ai_model_used,
	error_message, error_step, started_at, completed_at, created_at, updated_at`

// PostgresImportJobStore implements the store.ImportJobStore interface
// using a PostgreSQL database as the storage backend. Stage artifacts are
// stored as JSONB columns on the job row.
type PostgresImportJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresImportJobStore creates a new PostgreSQL implementation of the
// ImportJobStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresImportJobStore(db store.DBTX, logger *slog.Logger) *PostgresImportJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresImportJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "import_job_store")),
	}
}

// Ensure PostgresImportJobStore implements store.ImportJobStore interface
var _ store.ImportJobStore = (*PostgresImportJobStore)(nil)

// WithTx implements store.ImportJobStore.WithTx
func (s *PostgresImportJobStore) WithTx(tx *sql.Tx) store.ImportJobStore {
	return &PostgresImportJobStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ImportJobStore.Create
func (s *PostgresImportJobStore) Create(ctx context.Context, job *domain.ImportJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	sourceFiles, err := json.Marshal(job.SourceFiles)
	if err != nil {
		return fmt.Errorf("failed to marshal source files: %w", err)
	}

	query := `
		INSERT INTO import_jobs (id, program_id, status, source_type, source_files, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		job.ID,
		uuidOrNil(job.ProgramID),
		job.Status,
		job.SourceType,
		sourceFiles,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create import job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.ImportJobStore.GetByID
func (s *PostgresImportJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM import_jobs WHERE id = $1`, importJobColumns)

	job, err := scanImportJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrImportJobNotFound
		}
		return nil, MapError(err)
	}
	return job, nil
}

// List implements store.ImportJobStore.List
func (s *PostgresImportJobStore) List(
	ctx context.Context,
	statuses []domain.ImportStatus,
	limit, offset int,
) ([]*domain.ImportJob, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, `SELECT %s FROM import_jobs`, importJobColumns)

	args := make([]any, 0, len(statuses)+2)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		fmt.Fprintf(&sb, " WHERE status IN (%s)", strings.Join(placeholders, ", "))
	}

	args = append(args, limit)
	fmt.Fprintf(&sb, " ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, offset)
	fmt.Fprintf(&sb, " OFFSET $%d", len(args))

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectImportJobs(rows)
}

// Update implements store.ImportJobStore.Update. The WHERE clause on the
// expected status makes the full-row write a compare-and-swap like
// UpdateStatusIf: a row whose status changed since the caller's read is
// left untouched and the caller gets ErrStatusConflict.
func (s *PostgresImportJobStore) Update(ctx context.Context, job *domain.ImportJob, expected domain.ImportStatus) error {
	sourceFiles, err := json.Marshal(job.SourceFiles)
	if err != nil {
		return fmt.Errorf("failed to marshal source files: %w", err)
	}

	var extractedSections []byte
	if job.ExtractedSections != nil {
		extractedSections, err = json.Marshal(job.ExtractedSections)
		if err != nil {
			return fmt.Errorf("failed to marshal extracted sections: %w", err)
		}
	}

	generatedPlan, err := marshalPlan(job.GeneratedPlan)
	if err != nil {
		return err
	}
	reviewedPlan, err := marshalPlan(job.ReviewedPlan)
	if err != nil {
		return err
	}

	job.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE import_jobs
		SET program_id = $2, status = $3, source_files = $4,
			extracted_text = $5, extracted_sections = $6, ai_analysis = $7,
			generated_plan = $8, reviewed_plan = $9,
			total_pages = $10, total_tokens = $11, total_days_generated = $12, ai_model_used = $13,
			error_message = $14, error_step = $15,
			started_at = $16, completed_at = $17, updated_at = $18
		WHERE id = $1 AND status = $19
	`
	result, err := s.db.ExecContext(ctx, query,
		job.ID,
		uuidOrNil(job.ProgramID),
		job.Status,
		sourceFiles,
		job.ExtractedText,
		nullableJSON(extractedSections),
		nullableJSON(job.AIAnalysis),
		nullableJSON(generatedPlan),
		nullableJSON(reviewedPlan),
		job.TotalPages,
		job.TotalTokens,
		job.TotalDaysGenerated,
		job.AIModelUsed,
		job.ErrorMessage,
		job.ErrorStep,
		job.StartedAt,
		job.CompletedAt,
		job.UpdatedAt,
		expected,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update import job",
			slog.String("job_id", job.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		var current domain.ImportStatus
		err := s.db.QueryRowContext(ctx, `SELECT status FROM import_jobs WHERE id = $1`, job.ID).Scan(&current)
		if err != nil {
			if IsNotFoundError(err) {
				return store.ErrImportJobNotFound
			}
			return MapError(err)
		}
		return fmt.Errorf("%w: expected %s, found %s", store.ErrStatusConflict, expected, current)
	}
	return nil
}

// UpdateStatusIf implements store.ImportJobStore.UpdateStatusIf.
// The WHERE clause on the expected status makes the transition a
// compare-and-swap: of two racing callers only one sees a row update,
// the other gets ErrStatusConflict.
func (s *PostgresImportJobStore) UpdateStatusIf(
	ctx context.Context,
	id uuid.UUID,
	expected, target domain.ImportStatus,
) error {
	query := `
		UPDATE import_jobs
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`
	result, err := s.db.ExecContext(ctx, query, id, expected, target, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a missing row from a status mismatch.
		var current domain.ImportStatus
		err := s.db.QueryRowContext(ctx, `SELECT status FROM import_jobs WHERE id = $1`, id).Scan(&current)
		if err != nil {
			if IsNotFoundError(err) {
				return store.ErrImportJobNotFound
			}
			return MapError(err)
		}
		return fmt.Errorf("%w: expected %s, found %s", store.ErrStatusConflict, expected, current)
	}

	return nil
}

// Delete implements store.ImportJobStore.Delete
func (s *PostgresImportJobStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM import_jobs WHERE id = $1`, id)
	if err != nil {
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "import job"); err != nil {
		return store.ErrImportJobNotFound
	}
	return nil
}

// FindByStatuses implements store.ImportJobStore.FindByStatuses
func (s *PostgresImportJobStore) FindByStatuses(
	ctx context.Context,
	statuses []domain.ImportStatus,
) ([]*domain.ImportJob, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = status
	}

	query := fmt.Sprintf(
		`SELECT %s FROM import_jobs WHERE status IN (%s) ORDER BY created_at ASC`,
		importJobColumns,
		strings.Join(placeholders, ", "),
	)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	return collectImportJobs(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanImportJob(row rowScanner) (*domain.ImportJob, error) {
	var (
		job               domain.ImportJob
		programID         sql.NullString
		sourceFiles       []byte
		extractedText     sql.NullString
		extractedSections []byte
		aiAnalysis        []byte
		generatedPlan     []byte
		reviewedPlan      []byte
		aiModelUsed       sql.NullString
		errorMessage      sql.NullString
		errorStep         sql.NullString
		startedAt         sql.NullTime
		completedAt       sql.NullTime
	)

	err := row.Scan(
		&job.ID,
		&programID,
		&job.Status,
		&job.SourceType,
		&sourceFiles,
		&extractedText,
		&extractedSections,
		&aiAnalysis,
		&generatedPlan,
		&reviewedPlan,
		&job.TotalPages,
		&job.TotalTokens,
		&job.TotalDaysGenerated,
		&aiModelUsed,
		&errorMessage,
		&errorStep,
		&startedAt,
		&completedAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if programID.Valid {
		id, err := uuid.Parse(programID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse program ID: %w", err)
		}
		job.ProgramID = &id
	}
	if err := json.Unmarshal(sourceFiles, &job.SourceFiles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source files: %w", err)
	}
	if extractedText.Valid {
		job.ExtractedText = &extractedText.String
	}
	if len(extractedSections) > 0 {
		if err := json.Unmarshal(extractedSections, &job.ExtractedSections); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extracted sections: %w", err)
		}
	}
	if len(aiAnalysis) > 0 {
		job.AIAnalysis = json.RawMessage(aiAnalysis)
	}
	if len(generatedPlan) > 0 {
		var plan domain.DraftCurriculum
		if err := json.Unmarshal(generatedPlan, &plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal generated plan: %w", err)
		}
		job.GeneratedPlan = &plan
	}
	if len(reviewedPlan) > 0 {
		var plan domain.DraftCurriculum
		if err := json.Unmarshal(reviewedPlan, &plan); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reviewed plan: %w", err)
		}
		job.ReviewedPlan = &plan
	}
	if aiModelUsed.Valid {
		job.AIModelUsed = aiModelUsed.String
	}
	if errorMessage.Valid {
		job.ErrorMessage = &errorMessage.String
	}
	if errorStep.Valid {
		job.ErrorStep = &errorStep.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	return &job, nil
}

func collectImportJobs(rows *sql.Rows) ([]*domain.ImportJob, error) {
	var jobs []*domain.ImportJob
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import job rows: %w", err)
	}
	return jobs, nil
}

func marshalPlan(plan *domain.DraftCurriculum) ([]byte, error) {
	if plan == nil {
		return nil, nil
	}
	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan: %w", err)
	}
	return data, nil
}

// nullableJSON converts an empty byte slice to nil so JSONB columns store
// SQL NULL instead of an empty string.
func nullableJSON(data []byte) any {
	if len(data) == 0 {
		return nil
	}
	return data
}

// uuidOrNil converts an optional UUID to a driver-friendly value.
func uuidOrNil(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return *id
}
