package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/domain/resolve"
)

// CurriculumStore materializes resolved draft curricula into the permanent
// curriculum tables.
type CurriculumStore interface {
	// Apply writes every row of the resolved plan. When programID is nil a
	// new program is created; otherwise the plan's modules and days are
	// appended to the existing program and its title and description are
	// refreshed from the draft.
	//
	// IMPORTANT: Apply MUST be run within a transaction so a mid-plan
	// failure leaves no partial curriculum behind. Use WithTx together with
	// store.RunInTransaction.
	//
	// Accepting only a *resolve.Plan is deliberate: an unresolved draft
	// cannot reach the database because nothing else produces that type.
	Apply(ctx context.Context, plan *resolve.Plan, programID *uuid.UUID) (*domain.Program, error)

	// GetProgram retrieves a program by ID.
	// Returns ErrProgramNotFound if the program does not exist.
	GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error)

	// WithTx returns a new CurriculumStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) CurriculumStore
}
