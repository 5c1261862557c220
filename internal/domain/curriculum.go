package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Program status values.
const (
	ProgramStatusActive   = "active"
	ProgramStatusArchived = "archived"
)

// Day plan status values. Imported day plans are published immediately.
const (
	DayPlanStatusDraft     = "draft"
	DayPlanStatusPublished = "published"
)

// Focus block session types. Every published day plan carries a
// learn/build/review split of its estimated minutes.
const (
	SessionTypeLearn  = "learn"
	SessionTypeBuild  = "build"
	SessionTypeReview = "review"
)

// DefaultTagColor is assigned to concept tags created during apply.
const DefaultTagColor = "#6366F1"

// Common validation errors for curriculum entities.
var (
	ErrEmptyProgramID   = errors.New("program ID cannot be empty")
	ErrEmptyTitle       = errors.New("title cannot be empty")
	ErrEmptyModuleID    = errors.New("module ID cannot be empty")
	ErrEmptyDayPlanID   = errors.New("day plan ID cannot be empty")
	ErrInvalidDayNumber = errors.New("day number must be positive")
	ErrEmptyTagName     = errors.New("concept tag name cannot be empty")
	ErrSelfDependency   = errors.New("day plan cannot depend on itself")
)

// Program is the top-level curriculum container.
type Program struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TargetDays  int64     `json:"target_days"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProgram creates an active Program with the given title.
func NewProgram(title, description string, targetDays int64) (*Program, error) {
	now := time.Now().UTC()
	program := &Program{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		TargetDays:  targetDays,
		Status:      ProgramStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := program.Validate(); err != nil {
		return nil, err
	}
	return program, nil
}

// Validate checks if the Program has valid data.
func (p *Program) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyProgramID
	}
	if p.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// Module groups consecutive day plans within a program.
type Module struct {
	ID          uuid.UUID `json:"id"`
	ProgramID   uuid.UUID `json:"program_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int64     `json:"order_index"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewModule creates a Module under the given program.
func NewModule(programID uuid.UUID, title, description string, orderIndex int64, color string) (*Module, error) {
	now := time.Now().UTC()
	module := &Module{
		ID:          uuid.New(),
		ProgramID:   programID,
		Title:       title,
		Description: description,
		OrderIndex:  orderIndex,
		Color:       color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := module.Validate(); err != nil {
		return nil, err
	}
	return module, nil
}

// Validate checks if the Module has valid data.
func (m *Module) Validate() error {
	if m.ID == uuid.Nil {
		return ErrEmptyModuleID
	}
	if m.ProgramID == uuid.Nil {
		return ErrEmptyProgramID
	}
	if m.Title == "" {
		return ErrEmptyTitle
	}
	return nil
}

// FocusBlock is one timed session of a day plan.
type FocusBlock struct {
	SessionType string `json:"session_type"`
	Minutes     int64  `json:"minutes"`
}

// SplitFocusBlocks divides a day's estimated minutes into the standard
// learn/build/review session split.
func SplitFocusBlocks(estimatedMinutes int64) []FocusBlock {
	return []FocusBlock{
		{SessionType: SessionTypeLearn, Minutes: estimatedMinutes / 3},
		{SessionType: SessionTypeBuild, Minutes: estimatedMinutes / 2},
		{SessionType: SessionTypeReview, Minutes: estimatedMinutes / 6},
	}
}

// DayPlan is one day of work inside a module.
type DayPlan struct {
	ID                   uuid.UUID    `json:"id"`
	ProgramID            uuid.UUID    `json:"program_id"`
	ModuleID             uuid.UUID    `json:"module_id"`
	Title                string       `json:"title"`
	DayNumber            int64        `json:"day_number"`
	Version              int64        `json:"version"`
	Status               string       `json:"status"`
	SyntaxTargets        string       `json:"syntax_targets"`
	ImplementationBrief  string       `json:"implementation_brief"`
	FilesToCreate        string       `json:"files_to_create"`
	SuccessCriteria      string       `json:"success_criteria"`
	StretchChallenge     string       `json:"stretch_challenge"`
	Notes                string       `json:"notes"`
	EstimatedMinutes     int64        `json:"estimated_minutes"`
	MemoryRebuildMinutes int64        `json:"memory_rebuild_minutes"`
	MinMinutes           int64        `json:"min_minutes"`
	RecommendedMinutes   int64        `json:"recommended_minutes"`
	DeepMinutes          int64        `json:"deep_minutes"`
	ComplexityLevel      int64        `json:"complexity_level"`
	FocusBlocks          []FocusBlock `json:"focus_blocks"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// Validate checks if the DayPlan has valid data.
func (d *DayPlan) Validate() error {
	if d.ID == uuid.Nil {
		return ErrEmptyDayPlanID
	}
	if d.ProgramID == uuid.Nil {
		return ErrEmptyProgramID
	}
	if d.ModuleID == uuid.Nil {
		return ErrEmptyModuleID
	}
	if d.Title == "" {
		return ErrEmptyTitle
	}
	if d.DayNumber < 1 {
		return ErrInvalidDayNumber
	}
	return nil
}

// ChecklistItem is one required or optional task of a day plan.
type ChecklistItem struct {
	ID         uuid.UUID `json:"id"`
	DayPlanID  uuid.UUID `json:"day_plan_id"`
	Label      string    `json:"label"`
	IsRequired bool      `json:"is_required"`
	OrderIndex int64     `json:"order_index"`
}

// QuizQuestion is one assessment question attached to a day plan.
type QuizQuestion struct {
	ID               uuid.UUID `json:"id"`
	DayPlanID        uuid.UUID `json:"day_plan_id"`
	QuestionText     string    `json:"question_text"`
	QuestionType     string    `json:"question_type"`
	CorrectAnswer    string    `json:"correct_answer"`
	Options          []string  `json:"options"`
	Points           int64     `json:"points"`
	TimeLimitSeconds int64     `json:"time_limit_seconds"`
	OrderIndex       int64     `json:"order_index"`
}

// ConceptTag labels day plans with a named concept within a domain.
// Tags are shared across programs and deduplicated by (name, domain).
type ConceptTag struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Domain string    `json:"domain"`
	Color  string    `json:"color"`
}

// Validate checks if the ConceptTag has valid data.
func (t *ConceptTag) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidID
	}
	if t.Name == "" {
		return ErrEmptyTagName
	}
	return nil
}

// DayDependency records that one day plan depends on another. Prerequisite
// dependencies may additionally require a minimum quiz score on the target.
type DayDependency struct {
	ID             uuid.UUID `json:"id"`
	DayPlanID      uuid.UUID `json:"day_plan_id"`
	DependsOnID    uuid.UUID `json:"depends_on_day_plan_id"`
	DependencyType string    `json:"dependency_type"`
	MinimumScore   int64     `json:"minimum_score"`
}

// Validate checks if the DayDependency has valid data.
func (d *DayDependency) Validate() error {
	if d.ID == uuid.Nil {
		return ErrInvalidID
	}
	if d.DayPlanID == uuid.Nil || d.DependsOnID == uuid.Nil {
		return ErrEmptyDayPlanID
	}
	if d.DayPlanID == d.DependsOnID {
		return ErrSelfDependency
	}
	if !IsValidDependencyType(d.DependencyType) {
		return ErrValidation
	}
	return nil
}
