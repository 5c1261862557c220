package task

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/events"
)

// ErrNilExecutor is returned when a task factory is constructed without a
// pipeline executor.
var ErrNilExecutor = errors.New("pipeline executor cannot be nil")

// ImportPipelineTask runs the staged pipeline for a single import job.
// The credential is held in memory for the duration of the run only.
type ImportPipelineTask struct {
	id         uuid.UUID
	jobID      uuid.UUID
	credential string
	from       domain.ImportStatus
	executor   PipelineExecutor
}

// ID returns the task's unique identifier.
func (t *ImportPipelineTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type name.
func (t *ImportPipelineTask) Type() string {
	return events.TaskTypeImportPipeline
}

// Execute runs the pipeline stages for the job.
func (t *ImportPipelineTask) Execute(ctx context.Context) error {
	return t.executor.RunPipeline(ctx, t.jobID, t.credential, t.from)
}

// PipelineTaskFactory creates import pipeline tasks bound to an executor.
type PipelineTaskFactory struct {
	executor PipelineExecutor
}

// NewPipelineTaskFactory creates a factory for import pipeline tasks.
func NewPipelineTaskFactory(executor PipelineExecutor) (*PipelineTaskFactory, error) {
	if executor == nil {
		return nil, ErrNilExecutor
	}
	return &PipelineTaskFactory{executor: executor}, nil
}

// NewTask creates a pipeline task for the given job starting at the given
// stage.
func (f *PipelineTaskFactory) NewTask(jobID uuid.UUID, credential string, from domain.ImportStatus) Task {
	return &ImportPipelineTask{
		id:         uuid.New(),
		jobID:      jobID,
		credential: credential,
		from:       from,
		executor:   f.executor,
	}
}
