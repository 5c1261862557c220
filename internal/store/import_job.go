package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// ImportJobStore defines the interface for import job persistence.
type ImportJobStore interface {
	// Create saves a new import job to the store.
	// Returns validation errors if the job data is invalid.
	Create(ctx context.Context, job *domain.ImportJob) error

	// GetByID retrieves an import job by its unique ID.
	// Returns ErrImportJobNotFound if the job does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error)

	// List retrieves import jobs ordered by creation time, newest first.
	// An empty statuses slice means no status filter.
	List(ctx context.Context, statuses []domain.ImportStatus, limit, offset int) ([]*domain.ImportJob, error)

	// Update persists the job's current field values, including artifacts,
	// telemetry and error columns. The write is guarded on expected: if the
	// row's status changed since the caller read it, nothing is written and
	// ErrStatusConflict is returned, so a stale full-row write can never
	// overwrite a status another actor just claimed. Returns
	// ErrImportJobNotFound if the job does not exist.
	Update(ctx context.Context, job *domain.ImportJob, expected domain.ImportStatus) error

	// UpdateStatusIf atomically moves the job from the expected status to
	// the target status. Returns ErrStatusConflict when the row is not in
	// the expected status, which is how concurrent apply, cancel and retry
	// requests are serialized without application-level locks.
	UpdateStatusIf(ctx context.Context, id uuid.UUID, expected, target domain.ImportStatus) error

	// Delete removes an import job from the store.
	// Returns ErrImportJobNotFound if the job does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByStatuses retrieves every job whose status is in the given set.
	// Used at startup to recover jobs orphaned by a crash.
	FindByStatuses(ctx context.Context, statuses []domain.ImportStatus) ([]*domain.ImportJob, error)

	// WithTx returns a new ImportJobStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) ImportJobStore
}
