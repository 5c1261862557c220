package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/daybreak-app/daybreak-api/internal/events"
)

// TaskRequestHandler consumes task request events and submits the
// corresponding tasks to the runner.
type TaskRequestHandler struct {
	runner  *TaskRunner
	factory *PipelineTaskFactory
	logger  *slog.Logger
}

// NewTaskRequestHandler creates an event handler that bridges the event
// emitter to the task runner.
func NewTaskRequestHandler(runner *TaskRunner, factory *PipelineTaskFactory, logger *slog.Logger) *TaskRequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskRequestHandler{
		runner:  runner,
		factory: factory,
		logger:  logger.With("component", "task_request_handler"),
	}
}

// HandleEvent turns a task request event into a queued task.
func (h *TaskRequestHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	switch event.Type {
	case events.TaskTypeImportPipeline:
		var payload events.ImportPipelinePayload
		if err := event.UnmarshalPayload(&payload); err != nil {
			return fmt.Errorf("failed to unmarshal pipeline payload: %w", err)
		}

		t := h.factory.NewTask(payload.JobID, payload.Credential, payload.FromStatus)
		if err := h.runner.Submit(ctx, t); err != nil {
			return fmt.Errorf("failed to submit pipeline task: %w", err)
		}

		h.logger.DebugContext(ctx, "submitted pipeline task",
			"task_id", t.ID(),
			"job_id", payload.JobID,
			"from_status", payload.FromStatus)
		return nil

	default:
		h.logger.WarnContext(ctx, "ignoring event of unknown type",
			"event_id", event.ID,
			"event_type", event.Type)
		return nil
	}
}
