package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/store"
)

// Errors returned by Submit.
var (
	ErrQueueFull     = errors.New("task queue is full")
	ErrRunnerStopped = errors.New("task runner is stopped")
)

const restartFailureMessage = "interrupted by server restart; retry with a fresh credential"

// TaskRunnerConfig holds the runner's tuning knobs.
type TaskRunnerConfig struct {
	// WorkerCount is the number of concurrent workers.
	WorkerCount int

	// QueueSize is the capacity of the task queue.
	QueueSize int

	// StuckJobAge is how long a job may sit in an active stage without a
	// row update before the monitor declares it stuck.
	StuckJobAge time.Duration

	// StuckJobCheckInterval is how often the stuck job monitor runs.
	StuckJobCheckInterval time.Duration
}

// TaskRunner distributes tasks to a pool of workers. Jobs carry their own
// durable state; the runner only schedules execution and repairs jobs that
// a crash or stall left in an active stage.
type TaskRunner struct {
	jobs     store.ImportJobStore
	taskChan chan Task
	config   TaskRunnerConfig
	logger   *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewTaskRunner creates a task runner with the given job store and config.
func NewTaskRunner(jobs store.ImportJobStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		jobs:     jobs,
		taskChan: make(chan Task, config.QueueSize),
		config:   config,
		logger:   logger.With("component", "task_runner"),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start recovers interrupted jobs, then launches the workers and the stuck
// job monitor.
func (r *TaskRunner) Start() error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return errors.New("task runner already started")
	}
	r.started = true
	r.mu.Unlock()

	if err := r.recoverInterruptedJobs(r.ctx); err != nil {
		return fmt.Errorf("failed to recover interrupted jobs: %w", err)
	}

	for i := 0; i < r.config.WorkerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}

	if r.config.StuckJobCheckInterval > 0 {
		r.wg.Add(1)
		go r.stuckJobMonitor()
	}

	r.logger.Info("task runner started",
		"worker_count", r.config.WorkerCount,
		"queue_size", r.config.QueueSize)
	return nil
}

// Stop cancels in-flight tasks and waits for the workers to exit.
func (r *TaskRunner) Stop() {
	r.cancel()
	r.wg.Wait()
	r.logger.Info("task runner stopped")
}

// Submit enqueues a task for execution. It never blocks: a full queue is
// reported to the caller instead of stalling the request path.
func (r *TaskRunner) Submit(ctx context.Context, t Task) error {
	select {
	case <-r.ctx.Done():
		return ErrRunnerStopped
	case <-ctx.Done():
		return ctx.Err()
	case r.taskChan <- t:
		r.logger.DebugContext(ctx, "task enqueued", "task_id", t.ID(), "task_type", t.Type())
		return nil
	default:
		return ErrQueueFull
	}
}

func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	logger := r.logger.With("worker_id", id)
	logger.Debug("worker started")

	for {
		select {
		case <-r.ctx.Done():
			logger.Debug("worker stopping")
			return
		case t := <-r.taskChan:
			r.processTask(logger, t)
		}
	}
}

func (r *TaskRunner) processTask(logger *slog.Logger, t Task) {
	logger.Info("processing task", "task_id", t.ID(), "task_type", t.Type())

	start := time.Now()
	err := t.Execute(r.ctx)
	elapsed := time.Since(start)

	if err != nil {
		// The pipeline records its own failure state on the job row;
		// the error here is for operator visibility only.
		logger.Error("task failed",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"duration_ms", elapsed.Milliseconds(),
			"error", err)
		return
	}

	logger.Info("task completed",
		"task_id", t.ID(),
		"task_type", t.Type(),
		"duration_ms", elapsed.Milliseconds())
}

// activeStageStatuses are the statuses recovery and the stuck job monitor
// look for. Pending is included for recovery: the in-memory queue does not
// survive a restart, so a pending job will never be picked up again.
var activeStageStatuses = []domain.ImportStatus{
	domain.ImportStatusPending,
	domain.ImportStatusExtracting,
	domain.ImportStatusAnalyzing,
	domain.ImportStatusGenerating,
	domain.ImportStatusApplying,
}

// recoverInterruptedJobs marks every job found mid-stage as failed at that
// stage. The jobs cannot be resumed in place because the API credential
// that fed the stage lived only in the crashed process; failing them keeps
// the retry path open.
func (r *TaskRunner) recoverInterruptedJobs(ctx context.Context) error {
	jobs, err := r.jobs.FindByStatuses(ctx, activeStageStatuses)
	if err != nil {
		return err
	}

	for _, job := range jobs {
		if err := r.failInterruptedJob(ctx, job, restartFailureMessage); err != nil {
			r.logger.ErrorContext(ctx, "failed to recover job", "job_id", job.ID, "error", err)
			continue
		}
		r.logger.InfoContext(ctx, "recovered interrupted job",
			"job_id", job.ID,
			"interrupted_status", job.ErrorStep)
	}

	if len(jobs) > 0 {
		r.logger.InfoContext(ctx, "job recovery complete", "recovered_count", len(jobs))
	}
	return nil
}

// failInterruptedJob rewrites the job as failed at the stage it was found
// in. Recovery writes the status directly rather than walking the state
// machine: the job was interrupted mid-edge and pending has no failure
// edge of its own.
func (r *TaskRunner) failInterruptedJob(ctx context.Context, job *domain.ImportJob, message string) error {
	prev := job.Status
	step := interruptedStep(prev)
	job.Status = domain.ImportStatusFailed
	job.ErrorStep = &step
	job.ErrorMessage = &message
	job.UpdatedAt = time.Now().UTC()
	return r.jobs.Update(ctx, job, prev)
}

// interruptedStep maps the stage a job was found in to the error step a
// retry will re-enter. A pending job had not extracted anything yet, so it
// retries from extraction.
func interruptedStep(status domain.ImportStatus) string {
	switch status {
	case domain.ImportStatusPending, domain.ImportStatusExtracting:
		return domain.StepExtracting
	case domain.ImportStatusAnalyzing:
		return domain.StepAnalyzing
	case domain.ImportStatusGenerating:
		return domain.StepGenerating
	case domain.ImportStatusApplying:
		return domain.StepApplying
	default:
		return domain.StepExtracting
	}
}

func (r *TaskRunner) stuckJobMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckJobCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.checkForStuckJobs()
		}
	}
}

// checkForStuckJobs fails jobs that have sat in an active stage with no
// row update for longer than StuckJobAge. Every stage boundary updates
// the row, so a stale UpdatedAt means the stage's goroutine is gone.
func (r *TaskRunner) checkForStuckJobs() {
	jobs, err := r.jobs.FindByStatuses(r.ctx, activeStageStatuses)
	if err != nil {
		r.logger.Error("failed to check for stuck jobs", "error", err)
		return
	}

	cutoff := time.Now().UTC().Add(-r.config.StuckJobAge)
	for _, job := range jobs {
		if job.UpdatedAt.After(cutoff) {
			continue
		}

		message := fmt.Sprintf("job made no progress for %s and was marked stuck", r.config.StuckJobAge)
		if err := r.failInterruptedJob(r.ctx, job, message); err != nil {
			r.logger.Error("failed to mark stuck job", "job_id", job.ID, "error", err)
			continue
		}
		r.logger.Warn("marked stuck job as failed",
			"job_id", job.ID,
			"stuck_status", job.ErrorStep,
			"last_update", job.UpdatedAt)
	}
}
