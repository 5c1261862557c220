package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/domain/resolve"
	"github.com/daybreak-app/daybreak-api/internal/store"
)

// PostgresCurriculumStore implements the store.CurriculumStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCurriculumStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCurriculumStore creates a new PostgreSQL implementation of the
// CurriculumStore interface. If logger is nil, a default logger will be used.
func NewPostgresCurriculumStore(db store.DBTX, logger *slog.Logger) *PostgresCurriculumStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCurriculumStore{
		db:     db,
		logger: logger.With(slog.String("component", "curriculum_store")),
	}
}

// Ensure PostgresCurriculumStore implements store.CurriculumStore interface
var _ store.CurriculumStore = (*PostgresCurriculumStore)(nil)

// WithTx implements store.CurriculumStore.WithTx
func (s *PostgresCurriculumStore) WithTx(tx *sql.Tx) store.CurriculumStore {
	return &PostgresCurriculumStore{
		db:     tx,
		logger: s.logger,
	}
}

// Apply implements store.CurriculumStore.Apply. Rows are written in
// dependency order: program, modules, day plans, their children, then the
// dependency edges once every day plan row exists. Day plans follow the
// plan's resolved order so a prerequisite target is always inserted before
// its dependents.
func (s *PostgresCurriculumStore) Apply(
	ctx context.Context,
	plan *resolve.Plan,
	programID *uuid.UUID,
) (*domain.Program, error) {
	draft := plan.Draft

	program, err := s.upsertProgram(ctx, draft, programID)
	if err != nil {
		return nil, err
	}

	moduleIDs, err := s.insertModules(ctx, program.ID, draft.Modules)
	if err != nil {
		return nil, err
	}

	dayPlanIDs, err := s.insertDayPlans(ctx, program.ID, moduleIDs, plan)
	if err != nil {
		return nil, err
	}

	if err := s.insertChecklistItems(ctx, dayPlanIDs, draft.ChecklistItems); err != nil {
		return nil, err
	}
	if err := s.insertQuizQuestions(ctx, dayPlanIDs, draft.QuizQuestions); err != nil {
		return nil, err
	}

	tagIDs, err := s.upsertConceptTags(ctx, draft.ConceptTags)
	if err != nil {
		return nil, err
	}
	if err := s.insertTagAssignments(ctx, dayPlanIDs, tagIDs, draft.TagAssignments); err != nil {
		return nil, err
	}

	if err := s.insertDependencies(ctx, dayPlanIDs, plan.Dependencies); err != nil {
		return nil, err
	}

	return program, nil
}

// GetProgram implements store.CurriculumStore.GetProgram
func (s *PostgresCurriculumStore) GetProgram(ctx context.Context, id uuid.UUID) (*domain.Program, error) {
	query := `
		SELECT id, title, description, target_days, status, created_at, updated_at
		FROM programs WHERE id = $1
	`
	var program domain.Program
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&program.ID,
		&program.Title,
		&program.Description,
		&program.TargetDays,
		&program.Status,
		&program.CreatedAt,
		&program.UpdatedAt,
	)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, store.ErrProgramNotFound
		}
		return nil, MapError(err)
	}
	return &program, nil
}

func (s *PostgresCurriculumStore) upsertProgram(
	ctx context.Context,
	draft *domain.DraftCurriculum,
	programID *uuid.UUID,
) (*domain.Program, error) {
	if programID != nil {
		query := `
			UPDATE programs
			SET title = $2, description = $3, updated_at = now()
			WHERE id = $1
		`
		result, err := s.db.ExecContext(ctx, query, *programID, draft.Program.Title, draft.Program.Description)
		if err != nil {
			return nil, MapError(err)
		}
		if err := CheckRowsAffected(result, "program"); err != nil {
			return nil, store.ErrProgramNotFound
		}
		return s.GetProgram(ctx, *programID)
	}

	program, err := domain.NewProgram(
		draft.Program.Title,
		draft.Program.Description,
		draft.Program.EstimatedTotalDays,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO programs (id, title, description, target_days, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		program.ID,
		program.Title,
		program.Description,
		program.TargetDays,
		program.Status,
		program.CreatedAt,
		program.UpdatedAt,
	)
	if err != nil {
		return nil, MapError(err)
	}
	return program, nil
}

func (s *PostgresCurriculumStore) insertModules(
	ctx context.Context,
	programID uuid.UUID,
	modules []domain.ModuleDraft,
) ([]uuid.UUID, error) {
	query := `
		INSERT INTO modules (id, program_id, title, description, order_index, color)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	ids := make([]uuid.UUID, len(modules))
	for i, module := range modules {
		ids[i] = uuid.New()
		_, err := s.db.ExecContext(ctx, query,
			ids[i],
			programID,
			module.Title,
			module.Description,
			module.OrderIndex,
			module.Color,
		)
		if err != nil {
			return nil, MapError(err)
		}
	}
	return ids, nil
}

// insertDayPlans writes day plans in the plan's resolved order and returns
// IDs indexed by the day's position in the draft, not the insertion order,
// so child rows can keep addressing days by draft index.
func (s *PostgresCurriculumStore) insertDayPlans(
	ctx context.Context,
	programID uuid.UUID,
	moduleIDs []uuid.UUID,
	plan *resolve.Plan,
) ([]uuid.UUID, error) {
	query := `
		INSERT INTO day_plans (id, program_id, module_id, title, day_number, version, status,
			syntax_targets, implementation_brief, files_to_create, success_criteria, stretch_challenge,
			notes, estimated_minutes, memory_rebuild_minutes, min_minutes, recommended_minutes,
			deep_minutes, complexity_level, focus_blocks)
		VALUES ($1, $2, $3, $4, $5, 1, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	ids := make([]uuid.UUID, len(plan.Draft.DayPlans))
	for _, dayIndex := range plan.DayOrder {
		day := plan.Draft.DayPlans[dayIndex]
		id := uuid.New()
		ids[dayIndex] = id

		focusBlocks, err := json.Marshal(domain.SplitFocusBlocks(day.EstimatedMinutes))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal focus blocks: %w", err)
		}

		_, err = s.db.ExecContext(ctx, query,
			id,
			programID,
			moduleIDs[day.ModuleIndex],
			day.Title,
			day.DayNumber,
			domain.DayPlanStatusPublished,
			day.SyntaxTargets,
			day.ImplementationBrief,
			day.FilesToCreate,
			day.SuccessCriteria,
			day.StretchChallenge,
			day.Notes,
			day.EstimatedMinutes,
			day.MemoryRebuildMinutes,
			day.MinMinutes,
			day.RecommendedMinutes,
			day.DeepMinutes,
			day.ComplexityLevel,
			focusBlocks,
		)
		if err != nil {
			return nil, MapError(err)
		}
	}
	return ids, nil
}

func (s *PostgresCurriculumStore) insertChecklistItems(
	ctx context.Context,
	dayPlanIDs []uuid.UUID,
	items []domain.ChecklistItemDraft,
) error {
	query := `
		INSERT INTO checklist_items (id, day_plan_id, label, is_required, order_index)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, item := range items {
		_, err := s.db.ExecContext(ctx, query,
			uuid.New(),
			dayPlanIDs[item.DayIndex],
			item.Label,
			item.IsRequired,
			item.OrderIndex,
		)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

func (s *PostgresCurriculumStore) insertQuizQuestions(
	ctx context.Context,
	dayPlanIDs []uuid.UUID,
	questions []domain.QuizQuestionDraft,
) error {
	query := `
		INSERT INTO quiz_questions (id, day_plan_id, question_text, question_type,
			correct_answer, options_json, points, time_limit_seconds, order_index)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0)
	`
	for _, question := range questions {
		options, err := json.Marshal(question.Options)
		if err != nil {
			return fmt.Errorf("failed to marshal quiz options: %w", err)
		}

		_, err = s.db.ExecContext(ctx, query,
			uuid.New(),
			dayPlanIDs[question.DayIndex],
			question.QuestionText,
			question.QuestionType,
			question.CorrectAnswer,
			options,
			question.Points,
			question.TimeLimitSeconds,
		)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

// tagKey identifies a concept tag. Name alone is not enough: the same name
// under two domains is two distinct tags.
type tagKey struct {
	name   string
	domain string
}

// upsertConceptTags reuses existing tags by (name, domain) and creates the
// rest. Tags are shared across programs, so apply never duplicates them.
func (s *PostgresCurriculumStore) upsertConceptTags(
	ctx context.Context,
	tags []domain.ConceptTagDraft,
) (map[tagKey]uuid.UUID, error) {
	tagIDs := make(map[tagKey]uuid.UUID, len(tags))
	for _, tag := range tags {
		var id uuid.UUID
		err := s.db.QueryRowContext(ctx,
			`SELECT id FROM concept_tags WHERE name = $1 AND domain = $2`,
			tag.Name, tag.Domain,
		).Scan(&id)
		switch {
		case err == nil:
		case IsNotFoundError(err):
			id = uuid.New()
			_, err = s.db.ExecContext(ctx,
				`INSERT INTO concept_tags (id, name, domain, color) VALUES ($1, $2, $3, $4)`,
				id, tag.Name, tag.Domain, domain.DefaultTagColor,
			)
			if err != nil {
				return nil, MapError(err)
			}
		default:
			return nil, MapError(err)
		}
		tagIDs[tagKey{name: tag.Name, domain: tag.Domain}] = id
	}
	return tagIDs, nil
}

func (s *PostgresCurriculumStore) insertTagAssignments(
	ctx context.Context,
	dayPlanIDs []uuid.UUID,
	tagIDs map[tagKey]uuid.UUID,
	assignments []domain.TagAssignment,
) error {
	query := `
		INSERT INTO day_plan_tags (day_plan_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`
	for _, assignment := range assignments {
		tagID, ok := tagIDs[tagKey{name: assignment.TagName, domain: assignment.TagDomain}]
		if !ok {
			// Assignments naming a tag missing from the tag list are
			// dropped rather than failing the whole apply.
			s.logger.WarnContext(ctx, "skipping tag assignment with unknown tag",
				slog.String("tag_name", assignment.TagName),
				slog.String("tag_domain", assignment.TagDomain))
			continue
		}
		_, err := s.db.ExecContext(ctx, query, dayPlanIDs[assignment.DayIndex], tagID)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}

func (s *PostgresCurriculumStore) insertDependencies(
	ctx context.Context,
	dayPlanIDs []uuid.UUID,
	deps []resolve.Dependency,
) error {
	query := `
		INSERT INTO day_dependencies (id, day_plan_id, depends_on_day_plan_id, dependency_type, minimum_score)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, dep := range deps {
		_, err := s.db.ExecContext(ctx, query,
			uuid.New(),
			dayPlanIDs[dep.DayIndex],
			dayPlanIDs[dep.DependsOnIndex],
			dep.DependencyType,
			dep.MinimumScore,
		)
		if err != nil {
			return MapError(err)
		}
	}
	return nil
}
