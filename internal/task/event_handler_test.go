package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/events"
)

// recordingExecutor captures pipeline runs triggered through the handler.
type recordingExecutor struct {
	ran chan events.ImportPipelinePayload
}

func newRecordingExecutor() *recordingExecutor {
	return &recordingExecutor{ran: make(chan events.ImportPipelinePayload, 1)}
}

func (e *recordingExecutor) RunPipeline(_ context.Context, jobID uuid.UUID, credential string, from domain.ImportStatus) error {
	e.ran <- events.ImportPipelinePayload{JobID: jobID, Credential: credential, FromStatus: from}
	return nil
}

func TestTaskRequestHandlerRunsPipeline(t *testing.T) {
	executor := newRecordingExecutor()
	factory, err := NewPipelineTaskFactory(executor)
	require.NoError(t, err)

	runner := NewTaskRunner(newFakeJobStore(), testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	handler := NewTaskRequestHandler(runner, factory, nil)

	jobID := uuid.New()
	event, err := events.NewTaskRequestEvent(events.TaskTypeImportPipeline, events.ImportPipelinePayload{
		JobID:      jobID,
		Credential: "test-credential",
		FromStatus: domain.ImportStatusExtracting,
	})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))

	select {
	case got := <-executor.ran:
		assert.Equal(t, jobID, got.JobID)
		assert.Equal(t, "test-credential", got.Credential)
		assert.Equal(t, domain.ImportStatusExtracting, got.FromStatus)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline was not run")
	}
}

func TestTaskRequestHandlerIgnoresUnknownEventType(t *testing.T) {
	executor := newRecordingExecutor()
	factory, err := NewPipelineTaskFactory(executor)
	require.NoError(t, err)

	runner := NewTaskRunner(newFakeJobStore(), testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	handler := NewTaskRequestHandler(runner, factory, nil)

	event, err := events.NewTaskRequestEvent("unrelated", map[string]string{"k": "v"})
	require.NoError(t, err)
	assert.NoError(t, handler.HandleEvent(context.Background(), event))

	select {
	case <-executor.ran:
		t.Fatal("unexpected pipeline run")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNewPipelineTaskFactoryRequiresExecutor(t *testing.T) {
	_, err := NewPipelineTaskFactory(nil)
	assert.ErrorIs(t, err, ErrNilExecutor)
}
