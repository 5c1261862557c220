package task

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/store"
)

// fakeJobStore is an in-memory ImportJobStore for runner tests.
type fakeJobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*domain.ImportJob
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{jobs: make(map[uuid.UUID]*domain.ImportJob)}
}

func (s *fakeJobStore) Create(_ context.Context, job *domain.ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *fakeJobStore) GetByID(_ context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrImportJobNotFound
	}
	copied := *job
	return &copied, nil
}

func (s *fakeJobStore) List(_ context.Context, _ []domain.ImportStatus, _, _ int) ([]*domain.ImportJob, error) {
	return nil, nil
}

func (s *fakeJobStore) Update(_ context.Context, job *domain.ImportJob, expected domain.ImportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.jobs[job.ID]
	if !ok {
		return store.ErrImportJobNotFound
	}
	if current.Status != expected {
		return store.ErrStatusConflict
	}
	copied := *job
	s.jobs[job.ID] = &copied
	return nil
}

func (s *fakeJobStore) UpdateStatusIf(_ context.Context, id uuid.UUID, expected, target domain.ImportStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrImportJobNotFound
	}
	if job.Status != expected {
		return store.ErrStatusConflict
	}
	job.Status = target
	return nil
}

func (s *fakeJobStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

func (s *fakeJobStore) FindByStatuses(_ context.Context, statuses []domain.ImportStatus) ([]*domain.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*domain.ImportJob
	for _, job := range s.jobs {
		for _, status := range statuses {
			if job.Status == status {
				copied := *job
				found = append(found, &copied)
				break
			}
		}
	}
	return found, nil
}

func (s *fakeJobStore) WithTx(_ *sql.Tx) store.ImportJobStore {
	return s
}

// fakeTask is a controllable task for runner tests.
type fakeTask struct {
	id       uuid.UUID
	executed chan struct{}
	err      error
}

func newFakeTask() *fakeTask {
	return &fakeTask{id: uuid.New(), executed: make(chan struct{})}
}

func (t *fakeTask) ID() uuid.UUID { return t.id }
func (t *fakeTask) Type() string  { return "fake" }

func (t *fakeTask) Execute(_ context.Context) error {
	close(t.executed)
	return t.err
}

func seedJob(t *testing.T, s *fakeJobStore, status domain.ImportStatus, updatedAt time.Time) *domain.ImportJob {
	t.Helper()

	job, err := domain.NewImportJob(
		[]domain.SourceFile{{FileName: "notes.md", FilePath: "/tmp/notes.md", FileSize: 10}},
		domain.SourceTypeMarkdown,
		nil,
	)
	require.NoError(t, err)
	job.Status = status
	job.UpdatedAt = updatedAt

	require.NoError(t, s.Create(context.Background(), job))
	return job
}

func testRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount: 2,
		QueueSize:   4,
		StuckJobAge: time.Hour,
	}
}

func TestTaskRunnerExecutesSubmittedTasks(t *testing.T) {
	runner := NewTaskRunner(newFakeJobStore(), testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	task := newFakeTask()
	require.NoError(t, runner.Submit(context.Background(), task))

	select {
	case <-task.executed:
	case <-time.After(2 * time.Second):
		t.Fatal("task was not executed")
	}
}

func TestTaskRunnerSubmitQueueFull(t *testing.T) {
	config := testRunnerConfig()
	config.WorkerCount = 0
	config.QueueSize = 1

	runner := NewTaskRunner(newFakeJobStore(), config, nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	require.NoError(t, runner.Submit(context.Background(), newFakeTask()))
	err := runner.Submit(context.Background(), newFakeTask())
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTaskRunnerSubmitAfterStop(t *testing.T) {
	runner := NewTaskRunner(newFakeJobStore(), testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	runner.Stop()

	err := runner.Submit(context.Background(), newFakeTask())
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestTaskRunnerRecoversInterruptedJobs(t *testing.T) {
	jobs := newFakeJobStore()
	now := time.Now().UTC()

	pending := seedJob(t, jobs, domain.ImportStatusPending, now)
	analyzing := seedJob(t, jobs, domain.ImportStatusAnalyzing, now)
	applying := seedJob(t, jobs, domain.ImportStatusApplying, now)
	review := seedJob(t, jobs, domain.ImportStatusReview, now)

	runner := NewTaskRunner(jobs, testRunnerConfig(), nil)
	require.NoError(t, runner.Start())
	defer runner.Stop()

	cases := []struct {
		name string
		id   uuid.UUID
		step string
	}{
		{"pending retries from extraction", pending.ID, domain.StepExtracting},
		{"analyzing fails at analyzing", analyzing.ID, domain.StepAnalyzing},
		{"applying fails at applying", applying.ID, domain.StepApplying},
	}
	for _, tc := range cases {
		job, err := jobs.GetByID(context.Background(), tc.id)
		require.NoError(t, err)
		assert.Equal(t, domain.ImportStatusFailed, job.Status, tc.name)
		require.NotNil(t, job.ErrorStep, tc.name)
		assert.Equal(t, tc.step, *job.ErrorStep, tc.name)
		require.NotNil(t, job.ErrorMessage, tc.name)
		assert.Contains(t, *job.ErrorMessage, "restart", tc.name)

		// Recovered jobs stay retryable.
		_, ok := job.RetryStatus()
		assert.True(t, ok, tc.name)
	}

	// Jobs waiting on the user are untouched.
	job, err := jobs.GetByID(context.Background(), review.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusReview, job.Status)
}

func TestTaskRunnerMarksStuckJobs(t *testing.T) {
	jobs := newFakeJobStore()
	stale := seedJob(t, jobs, domain.ImportStatusGenerating, time.Now().UTC().Add(-time.Hour))

	config := testRunnerConfig()
	config.StuckJobAge = 10 * time.Minute
	config.StuckJobCheckInterval = 10 * time.Millisecond

	runner := NewTaskRunner(jobs, config, nil)

	// Bypass Start so recovery does not claim the job first.
	runner.wg.Add(1)
	go runner.stuckJobMonitor()
	defer runner.Stop()

	require.Eventually(t, func() bool {
		job, err := jobs.GetByID(context.Background(), stale.ID)
		if err != nil {
			return false
		}
		return job.Status == domain.ImportStatusFailed
	}, 2*time.Second, 20*time.Millisecond)

	job, err := jobs.GetByID(context.Background(), stale.ID)
	require.NoError(t, err)
	require.NotNil(t, job.ErrorStep)
	assert.Equal(t, domain.StepGenerating, *job.ErrorStep)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "stuck")
}

func TestTaskRunnerStuckMonitorSkipsFreshJobs(t *testing.T) {
	jobs := newFakeJobStore()
	fresh := seedJob(t, jobs, domain.ImportStatusGenerating, time.Now().UTC())

	config := testRunnerConfig()
	config.StuckJobAge = 10 * time.Minute
	runner := NewTaskRunner(jobs, config, nil)

	runner.checkForStuckJobs()

	job, err := jobs.GetByID(context.Background(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusGenerating, job.Status)
}
