package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// Task represents a unit of background work.
type Task interface {
	// ID returns the task's unique identifier.
	ID() uuid.UUID

	// Type returns the task type name.
	Type() string

	// Execute runs the task. The context is cancelled when the runner
	// shuts down.
	Execute(ctx context.Context) error
}

// PipelineExecutor runs the staged import pipeline for one job. It is
// implemented by the import service; the indirection keeps this package
// free of a dependency on the service layer.
type PipelineExecutor interface {
	// RunPipeline advances the job through its remaining stages, starting
	// at the given stage. Stage results and failures are persisted on the
	// job row; the returned error is for logging only.
	RunPipeline(ctx context.Context, jobID uuid.UUID, credential string, from domain.ImportStatus) error
}
