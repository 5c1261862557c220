package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/domain/resolve"
	"github.com/daybreak-app/daybreak-api/internal/events"
	"github.com/daybreak-app/daybreak-api/internal/extraction"
	"github.com/daybreak-app/daybreak-api/internal/generation"
	"github.com/daybreak-app/daybreak-api/internal/redact"
	"github.com/daybreak-app/daybreak-api/internal/store"
	"github.com/daybreak-app/daybreak-api/internal/synthesis"
)

// ImportService orchestrates the import pipeline. Request handlers call its
// lifecycle methods; the task runner calls RunPipeline to execute the
// background stages. All cross-request coordination goes through the job
// row's status column.
type ImportService struct {
	db         *sql.DB
	jobs       store.ImportJobStore
	curricula  store.CurriculumStore
	extractor  *extraction.Extractor
	capability generation.Capability
	emitter    events.EventEmitter
	modelName  string
	logger     *slog.Logger

	// cancels tracks the cancel func of each running pipeline so Cancel can
	// interrupt the stage goroutine after flipping the row to cancelled.
	cancelMu sync.Mutex
	cancels  map[uuid.UUID]context.CancelFunc
}

// NewImportService creates the import service.
func NewImportService(
	db *sql.DB,
	jobs store.ImportJobStore,
	curricula store.CurriculumStore,
	extractor *extraction.Extractor,
	capability generation.Capability,
	emitter events.EventEmitter,
	modelName string,
	logger *slog.Logger,
) (*ImportService, error) {
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	if jobs == nil {
		return nil, errors.New("import job store cannot be nil")
	}
	if curricula == nil {
		return nil, errors.New("curriculum store cannot be nil")
	}
	if extractor == nil {
		return nil, errors.New("extractor cannot be nil")
	}
	if capability == nil {
		return nil, errors.New("generation capability cannot be nil")
	}
	if emitter == nil {
		return nil, errors.New("event emitter cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ImportService{
		db:         db,
		jobs:       jobs,
		curricula:  curricula,
		extractor:  extractor,
		capability: capability,
		emitter:    emitter,
		modelName:  modelName,
		logger:     logger.With("component", "import_service"),
		cancels:    make(map[uuid.UUID]context.CancelFunc),
	}, nil
}

// Start creates a new import job and schedules its pipeline run. The
// credential travels with the scheduled task in memory only.
func (s *ImportService) Start(
	ctx context.Context,
	files []domain.SourceFile,
	sourceType domain.SourceType,
	programID *uuid.UUID,
	credential string,
) (*domain.ImportJob, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	job, err := domain.NewImportJob(files, sourceType, programID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}

	if err := s.schedulePipeline(ctx, job.ID, credential, domain.ImportStatusPending); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "import job started",
		"job_id", job.ID,
		"source_type", sourceType,
		"file_count", len(files))
	return job, nil
}

// Get retrieves an import job by ID.
func (s *ImportService) Get(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	return s.jobs.GetByID(ctx, id)
}

// List retrieves import jobs, newest first, optionally filtered by status.
func (s *ImportService) List(ctx context.Context, statuses []domain.ImportStatus, limit, offset int) ([]*domain.ImportJob, error) {
	return s.jobs.List(ctx, statuses, limit, offset)
}

// GetPreview returns the draft that apply would materialize: the reviewed
// plan when one has been submitted, otherwise the generated plan. Returns
// ErrPlanNotReady before generation has completed.
func (s *ImportService) GetPreview(ctx context.Context, id uuid.UUID) (*domain.DraftCurriculum, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	plan := job.Plan()
	if plan == nil {
		return nil, fmt.Errorf("%w: job is %s", ErrPlanNotReady, job.Status)
	}
	return plan, nil
}

// UpdatePreview stores an edited draft as the job's reviewed plan. Allowed
// while the job is in review, and also after a failed apply, which moves
// the job back to review so the corrected plan can be applied again.
func (s *ImportService) UpdatePreview(ctx context.Context, id uuid.UUID, draft *domain.DraftCurriculum) (*domain.ImportJob, error) {
	if err := draft.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	observed := job.Status
	switch {
	case job.Status == domain.ImportStatusReview:
		// Stays in review.
	case job.Status == domain.ImportStatusFailed && job.ErrorStep != nil && *job.ErrorStep == domain.StepApplying:
		if err := job.Transition(domain.ImportStatusReview); err != nil {
			return nil, err
		}
		job.ErrorMessage = nil
		job.ErrorStep = nil
	default:
		return nil, fmt.Errorf("%w: cannot edit plan while job is %s", ErrInvalidState, job.Status)
	}

	// Guarded on the status read above: if a concurrent apply claimed the
	// job in the meantime, this write loses with a conflict instead of
	// reverting the row to review.
	job.ReviewedPlan = draft
	job.UpdatedAt = time.Now().UTC()
	if err := s.jobs.Update(ctx, job, observed); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reviewed plan updated", "job_id", job.ID)
	return job, nil
}

// Apply resolves the job's plan and materializes it into the curriculum
// tables. The review to applying edge is claimed with a compare-and-swap,
// so a concurrent cancel or second apply loses cleanly with a conflict.
func (s *ImportService) Apply(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	if err := s.jobs.UpdateStatusIf(ctx, id, domain.ImportStatusReview, domain.ImportStatusApplying); err != nil {
		return nil, err
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.applyJob(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Cancel stops a job that has not yet reached apply. The status flip is a
// compare-and-swap against the status the caller observed; if a pipeline
// stage is running its context is cancelled afterwards. A job that is
// applying cannot be cancelled.
func (s *ImportService) Cancel(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if job.IsTerminal() || job.Status == domain.ImportStatusApplying || job.Status == domain.ImportStatusFailed {
		return nil, fmt.Errorf("%w: cannot cancel job in status %s", ErrInvalidState, job.Status)
	}

	if err := s.jobs.UpdateStatusIf(ctx, id, job.Status, domain.ImportStatusCancelled); err != nil {
		return nil, err
	}

	s.cancelRunningPipeline(id)

	s.logger.InfoContext(ctx, "import job cancelled", "job_id", id, "was_status", job.Status)
	return s.jobs.GetByID(ctx, id)
}

// Retry re-enters the stage recorded in error_step with a fresh credential.
// Stage artifacts from completed stages are kept, so a retry of generation
// does not repeat extraction or analysis.
func (s *ImportService) Retry(ctx context.Context, id uuid.UUID, credential string) (*domain.ImportJob, error) {
	if credential == "" {
		return nil, ErrMissingCredential
	}

	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	retryStatus, ok := job.RetryStatus()
	if !ok {
		return nil, fmt.Errorf("%w: job %s is not retryable", ErrInvalidState, job.Status)
	}

	if err := s.jobs.UpdateStatusIf(ctx, id, domain.ImportStatusFailed, retryStatus); err != nil {
		return nil, err
	}

	if err := s.schedulePipeline(ctx, id, credential, retryStatus); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "import job retry scheduled",
		"job_id", id,
		"retry_status", retryStatus)
	return s.jobs.GetByID(ctx, id)
}

// Delete removes a job that is not currently running a stage.
func (s *ImportService) Delete(ctx context.Context, id uuid.UUID) error {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if job.IsActiveStage() {
		return fmt.Errorf("%w: cannot delete job in status %s", ErrInvalidState, job.Status)
	}

	return s.jobs.Delete(ctx, id)
}

// schedulePipeline emits a task request event carrying the job ID and the
// per-call credential.
func (s *ImportService) schedulePipeline(ctx context.Context, jobID uuid.UUID, credential string, from domain.ImportStatus) error {
	event, err := events.NewTaskRequestEvent(events.TaskTypeImportPipeline, events.ImportPipelinePayload{
		JobID:      jobID,
		Credential: credential,
		FromStatus: from,
	})
	if err != nil {
		return fmt.Errorf("failed to create task request event: %w", err)
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to schedule pipeline: %w", err)
	}
	return nil
}

// RunPipeline executes the pipeline stages for a job, starting at the given
// stage. Called by the task runner; stage results and failures are written
// to the job row, so the returned error is for logging only.
func (s *ImportService) RunPipeline(ctx context.Context, jobID uuid.UUID, credential string, from domain.ImportStatus) error {
	runCtx, cancel := context.WithCancel(ctx)
	s.trackCancel(jobID, cancel)
	defer s.untrackCancel(jobID)
	defer cancel()

	job, err := s.jobs.GetByID(runCtx, jobID)
	if err != nil {
		return err
	}

	if from == domain.ImportStatusPending {
		// Claim the job. Losing the swap means it was cancelled before a
		// worker picked it up.
		if err := s.jobs.UpdateStatusIf(runCtx, jobID, domain.ImportStatusPending, domain.ImportStatusExtracting); err != nil {
			if errors.Is(err, store.ErrStatusConflict) {
				s.logger.InfoContext(runCtx, "job no longer pending, skipping pipeline run", "job_id", jobID)
				return nil
			}
			return err
		}
		job.Status = domain.ImportStatusExtracting
		now := time.Now().UTC()
		job.StartedAt = &now
		if err := s.jobs.Update(runCtx, job, domain.ImportStatusExtracting); err != nil {
			if errors.Is(err, store.ErrStatusConflict) {
				s.logger.InfoContext(runCtx, "job claimed by another actor, skipping pipeline run", "job_id", jobID)
				return nil
			}
			return err
		}
		from = domain.ImportStatusExtracting
	}

	type stage struct {
		status domain.ImportStatus
		step   string
		run    func(context.Context, *domain.ImportJob, string) error
	}
	stages := []stage{
		{domain.ImportStatusExtracting, domain.StepExtracting, s.runExtraction},
		{domain.ImportStatusAnalyzing, domain.StepAnalyzing, s.runAnalysis},
		{domain.ImportStatusGenerating, domain.StepGenerating, s.runGeneration},
	}

	if from == domain.ImportStatusApplying {
		return s.applyJob(runCtx, job)
	}

	started := false
	for _, st := range stages {
		if st.status == from {
			started = true
		}
		if !started {
			continue
		}

		if err := st.run(runCtx, job, credential); err != nil {
			if runCtx.Err() != nil {
				// The row was flipped to cancelled before the context was
				// cancelled; leave it untouched.
				s.logger.InfoContext(ctx, "pipeline stage interrupted", "job_id", jobID, "stage", st.step)
				return nil
			}
			if errors.Is(err, store.ErrStatusConflict) {
				// Another actor owns the row now (a cancel won the race);
				// the stage result is discarded.
				s.logger.InfoContext(ctx, "job status changed mid-stage, abandoning run", "job_id", jobID, "stage", st.step)
				return nil
			}
			// The row still holds the stage status regardless of how far
			// the stage got before failing.
			job.Status = st.status
			return s.markStageFailed(runCtx, job, st.step, err)
		}
	}

	return nil
}

// runExtraction extracts the source bundle into text and sections, then
// moves the job to analyzing.
func (s *ImportService) runExtraction(ctx context.Context, job *domain.ImportJob, _ string) error {
	bundle, err := s.extractor.ExtractBundle(ctx, job.SourceFiles)
	if err != nil {
		return err
	}

	job.ExtractedText = &bundle.Text
	job.ExtractedSections = bundle.Sections
	job.TotalPages = int64(bundle.TotalPages)
	job.TotalTokens = estimateTokens(bundle.Text)
	job.ErrorMessage = nil
	job.ErrorStep = nil

	if err := job.Transition(domain.ImportStatusAnalyzing); err != nil {
		return err
	}
	return s.jobs.Update(ctx, job, domain.ImportStatusExtracting)
}

// runAnalysis asks the model for its structural reading of the material,
// then moves the job to generating.
func (s *ImportService) runAnalysis(ctx context.Context, job *domain.ImportJob, credential string) error {
	if job.ExtractedText == nil {
		return errors.New("job has no extracted text")
	}

	analysis, err := s.capability.Analyze(ctx, generation.AnalyzeRequest{
		Credential: credential,
		Text:       *job.ExtractedText,
		Outline:    job.ExtractedSections,
	})
	if err != nil {
		return err
	}

	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to serialize analysis: %w", err)
	}
	job.AIAnalysis = raw
	job.AIModelUsed = s.modelName
	job.ErrorMessage = nil
	job.ErrorStep = nil

	if err := job.Transition(domain.ImportStatusGenerating); err != nil {
		return err
	}
	return s.jobs.Update(ctx, job, domain.ImportStatusAnalyzing)
}

// runGeneration generates the plan schema, normalizes it into a draft
// curriculum and moves the job to review. Error fields are cleared: the
// job has produced a reviewable result, so a previous failure is history.
func (s *ImportService) runGeneration(ctx context.Context, job *domain.ImportJob, credential string) error {
	if job.ExtractedText == nil {
		return errors.New("job has no extracted text")
	}
	if len(job.AIAnalysis) == 0 {
		return errors.New("job has no analysis")
	}

	var analysis generation.Analysis
	if err := json.Unmarshal(job.AIAnalysis, &analysis); err != nil {
		return fmt.Errorf("failed to deserialize analysis: %w", err)
	}

	schema, err := s.capability.GeneratePlan(ctx, generation.PlanRequest{
		Credential: credential,
		Analysis:   &analysis,
		Text:       *job.ExtractedText,
	})
	if err != nil {
		return err
	}

	draft := synthesis.Normalize(schema)
	job.GeneratedPlan = draft
	job.TotalDaysGenerated = int64(len(draft.DayPlans))
	job.ErrorMessage = nil
	job.ErrorStep = nil

	if err := job.Transition(domain.ImportStatusReview); err != nil {
		return err
	}
	if err := s.jobs.Update(ctx, job, domain.ImportStatusGenerating); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "plan generated, awaiting review",
		"job_id", job.ID,
		"day_count", len(draft.DayPlans),
		"warning_count", len(draft.ValidationWarnings))
	return nil
}

// applyJob resolves the governing plan and materializes it atomically. The
// job row is completed inside the same transaction as the curriculum rows,
// so a crash cannot leave a completed job without its curriculum or the
// other way around.
func (s *ImportService) applyJob(ctx context.Context, job *domain.ImportJob) error {
	plan := job.Plan()
	if plan == nil {
		return s.markStageFailed(ctx, job, domain.StepApplying, ErrPlanNotReady)
	}

	resolved, err := resolve.Resolve(plan)
	if err != nil {
		return s.markStageFailed(ctx, job, domain.StepApplying, err)
	}

	prevProgramID := job.ProgramID
	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		program, err := s.curricula.WithTx(tx).Apply(ctx, resolved, job.ProgramID)
		if err != nil {
			return err
		}

		job.ProgramID = &program.ID
		job.TotalDaysGenerated = int64(len(resolved.DayOrder))
		job.ErrorMessage = nil
		job.ErrorStep = nil
		now := time.Now().UTC()
		job.CompletedAt = &now

		if err := job.Transition(domain.ImportStatusCompleted); err != nil {
			return err
		}
		return s.jobs.WithTx(tx).Update(ctx, job, domain.ImportStatusApplying)
	})
	if err != nil {
		// The transaction rolled back; undo the in-memory completion fields
		// so the failure write reflects the row.
		job.ProgramID = prevProgramID
		job.CompletedAt = nil
		job.Status = domain.ImportStatusApplying
		return s.markStageFailed(ctx, job, domain.StepApplying, err)
	}

	s.logger.InfoContext(ctx, "import applied",
		"job_id", job.ID,
		"program_id", job.ProgramID,
		"day_count", job.TotalDaysGenerated)
	return nil
}

// markStageFailed records a stage failure on the job row. The message is
// redacted before persisting so a wrapped backend error cannot leak a
// credential into the database.
func (s *ImportService) markStageFailed(ctx context.Context, job *domain.ImportJob, step string, cause error) error {
	message := redact.Error(cause)
	job.ErrorStep = &step
	job.ErrorMessage = &message

	prev := job.Status
	if err := job.Transition(domain.ImportStatusFailed); err != nil {
		s.logger.ErrorContext(ctx, "failed to record stage failure",
			"job_id", job.ID,
			"step", step,
			"error", err)
		return fmt.Errorf("%w (while recording: %s)", err, message)
	}
	if err := s.jobs.Update(ctx, job, prev); err != nil {
		return err
	}

	s.logger.WarnContext(ctx, "pipeline stage failed",
		"job_id", job.ID,
		"step", step,
		"error", message)
	return cause
}

func (s *ImportService) trackCancel(jobID uuid.UUID, cancel context.CancelFunc) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	s.cancels[jobID] = cancel
}

func (s *ImportService) untrackCancel(jobID uuid.UUID) {
	s.cancelMu.Lock()
	defer s.cancelMu.Unlock()
	delete(s.cancels, jobID)
}

func (s *ImportService) cancelRunningPipeline(jobID uuid.UUID) {
	s.cancelMu.Lock()
	cancel, ok := s.cancels[jobID]
	s.cancelMu.Unlock()
	if ok {
		cancel()
	}
}

// estimateTokens approximates the token count of extracted text. There is
// no tokenizer dependency; four characters per token is close enough for
// the telemetry column this feeds.
func estimateTokens(text string) int64 {
	return int64(len(text) / 4)
}
