package generation

import (
	"context"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// Capability defines the interface for the model-backed pipeline stages.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
//
// Credentials travel with each request and are never stored by
// implementations; a job that outlives its credential must be retried with
// a fresh one.
type Capability interface {
	// Analyze reads the extracted material and returns the model's
	// structural understanding of it. The analysis drives plan generation
	// but never touches the permanent store.
	Analyze(ctx context.Context, req AnalyzeRequest) (*Analysis, error)

	// GeneratePlan turns an analysis into a full nested plan schema.
	// The schema is raw model output; synthesis normalizes it into a
	// reviewable draft curriculum.
	GeneratePlan(ctx context.Context, req PlanRequest) (*PlanSchema, error)
}

// AnalyzeRequest carries the inputs of the analysis stage.
type AnalyzeRequest struct {
	// Credential is the API key for this call only.
	Credential string

	// Text is the combined extracted text of the source bundle.
	Text string

	// Outline is the structural outline produced by extraction.
	Outline []domain.Section
}

// PlanRequest carries the inputs of the plan generation stage.
type PlanRequest struct {
	// Credential is the API key for this call only.
	Credential string

	// Analysis is the output of the analysis stage.
	Analysis *Analysis

	// Text is the combined extracted text, included so generation works
	// from the material itself rather than the analysis summary alone.
	Text string
}

// Analysis is the model's structural reading of the source material.
type Analysis struct {
	Summary            string            `json:"summary"`
	Audience           string            `json:"audience"`
	Prerequisites      []string          `json:"prerequisites"`
	Topics             []string          `json:"topics"`
	SuggestedModules   []SuggestedModule `json:"suggested_modules"`
	EstimatedTotalDays int64             `json:"estimated_total_days"`
}

// SuggestedModule is one module boundary the analysis proposes.
type SuggestedModule struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Concepts    []string `json:"concepts"`
}

// PlanSchema is the wire format of a generated plan: modules with nested
// days, matching the JSON shape the model is instructed to produce.
type PlanSchema struct {
	ProgramTitle       string         `json:"program_title"`
	ProgramDescription string         `json:"program_description"`
	EstimatedTotalDays int64          `json:"estimated_total_days"`
	Modules            []ModuleSchema `json:"modules"`
}

// ModuleSchema is one module of a generated plan.
type ModuleSchema struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	OrderIndex  int64       `json:"order_index"`
	Color       string      `json:"color"`
	Days        []DaySchema `json:"days"`
}

// DaySchema is one day of a generated plan with its nested children.
type DaySchema struct {
	DayNumber            int64                 `json:"day_number"`
	Title                string                `json:"title"`
	SyntaxTargets        string                `json:"syntax_targets"`
	ImplementationBrief  string                `json:"implementation_brief"`
	FilesToCreate        string                `json:"files_to_create"`
	SuccessCriteria      string                `json:"success_criteria"`
	StretchChallenge     string                `json:"stretch_challenge"`
	Notes                string                `json:"notes"`
	EstimatedMinutes     int64                 `json:"estimated_minutes"`
	MemoryRebuildMinutes int64                 `json:"memory_rebuild_minutes"`
	ChecklistItems       []ChecklistItemSchema `json:"checklist_items"`
	QuizQuestions        []QuizQuestionSchema  `json:"quiz_questions"`
	ConceptTags          []ConceptTagSchema    `json:"concept_tags"`
	Dependencies         []DependencySchema    `json:"dependencies"`
}

// ChecklistItemSchema is one checklist entry of a generated day.
type ChecklistItemSchema struct {
	Label      string `json:"label"`
	IsRequired bool   `json:"is_required"`
}

// QuizQuestionSchema is one quiz question of a generated day.
type QuizQuestionSchema struct {
	QuestionText     string   `json:"question_text"`
	QuestionType     string   `json:"question_type"`
	CorrectAnswer    string   `json:"correct_answer"`
	Options          []string `json:"options"`
	Points           int64    `json:"points"`
	TimeLimitSeconds int64    `json:"time_limit_seconds"`
}

// ConceptTagSchema is one concept tag of a generated day.
type ConceptTagSchema struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// DependencySchema is one dependency declaration of a generated day.
type DependencySchema struct {
	DependsOnDayNumber int64  `json:"depends_on_day_number"`
	Type               string `json:"type"`
	MinimumScore       int64  `json:"minimum_score"`
}
