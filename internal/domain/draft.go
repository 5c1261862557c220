package domain

import (
	"errors"
	"fmt"
)

// Dependency types. Prerequisite edges are hard ordering constraints and
// must form an acyclic graph; recommended and related edges are advisory.
const (
	DependencyTypePrerequisite = "prerequisite"
	DependencyTypeRecommended  = "recommended"
	DependencyTypeRelated      = "related"
)

// Quiz question types.
const (
	QuestionTypeShortAnswer    = "short_answer"
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeCodePrompt     = "code_prompt"
	QuestionTypeReflection     = "reflection"
)

// Common validation errors for DraftCurriculum.
var (
	ErrEmptyProgramTitle = errors.New("draft program title cannot be empty")
	ErrNoModules         = errors.New("draft curriculum has no modules")
)

// DraftCurriculum is the reviewable output of synthesis. Day plans reference
// their module by position in Modules; checklist items, quiz questions and
// tag assignments reference their day by position in DayPlans; dependencies
// target a day by its day number because targets may be declared before the
// day they point at. None of these references are trusted until the resolver
// has validated them.
type DraftCurriculum struct {
	Program            ProgramDraft         `json:"program"`
	Modules            []ModuleDraft        `json:"modules"`
	DayPlans           []DayPlanDraft       `json:"day_plans"`
	ChecklistItems     []ChecklistItemDraft `json:"checklist_items"`
	QuizQuestions      []QuizQuestionDraft  `json:"quiz_questions"`
	ConceptTags        []ConceptTagDraft    `json:"concept_tags"`
	TagAssignments     []TagAssignment      `json:"tag_assignments"`
	Dependencies       []DependencyDraft    `json:"dependencies"`
	ValidationWarnings []string             `json:"validation_warnings"`
}

// ProgramDraft carries the program-level fields of a draft.
type ProgramDraft struct {
	Title              string `json:"title"`
	Description        string `json:"description"`
	EstimatedTotalDays int64  `json:"estimated_total_days"`
}

// ModuleDraft is one module of a draft, addressed by its position.
type ModuleDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int64  `json:"order_index"`
	Color       string `json:"color"`
}

// DayPlanDraft is one day of a draft. DayNumber must be unique within the
// draft; ModuleIndex is a position in the draft's module list.
type DayPlanDraft struct {
	ModuleIndex          int    `json:"module_index"`
	DayNumber            int64  `json:"day_number"`
	Title                string `json:"title"`
	SyntaxTargets        string `json:"syntax_targets"`
	ImplementationBrief  string `json:"implementation_brief"`
	FilesToCreate        string `json:"files_to_create"`
	SuccessCriteria      string `json:"success_criteria"`
	StretchChallenge     string `json:"stretch_challenge"`
	Notes                string `json:"notes"`
	EstimatedMinutes     int64  `json:"estimated_minutes"`
	MemoryRebuildMinutes int64  `json:"memory_rebuild_minutes"`
	MinMinutes           int64  `json:"min_minutes"`
	RecommendedMinutes   int64  `json:"recommended_minutes"`
	DeepMinutes          int64  `json:"deep_minutes"`
	ComplexityLevel      int64  `json:"complexity_level"`
}

// ChecklistItemDraft is one checklist entry, owned by the day at DayIndex.
type ChecklistItemDraft struct {
	DayIndex   int    `json:"day_index"`
	Label      string `json:"label"`
	IsRequired bool   `json:"is_required"`
	OrderIndex int64  `json:"order_index"`
}

// QuizQuestionDraft is one quiz question, owned by the day at DayIndex.
type QuizQuestionDraft struct {
	DayIndex         int      `json:"day_index"`
	QuestionText     string   `json:"question_text"`
	QuestionType     string   `json:"question_type"`
	CorrectAnswer    string   `json:"correct_answer"`
	Options          []string `json:"options"`
	Points           int64    `json:"points"`
	TimeLimitSeconds int64    `json:"time_limit_seconds"`
}

// ConceptTagDraft is a deduplicated concept tag referenced by assignments.
type ConceptTagDraft struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// TagAssignment attaches the tag identified by (TagName, TagDomain) to the
// day at DayIndex. The domain is part of the identity: the same name may
// exist under several domains as distinct tags.
type TagAssignment struct {
	DayIndex  int    `json:"day_index"`
	TagName   string `json:"tag_name"`
	TagDomain string `json:"tag_domain"`
}

// DependencyDraft declares that the day at DayIndex depends on the day
// whose day number is DependsOnDayNumber.
type DependencyDraft struct {
	DayIndex           int    `json:"day_index"`
	DependsOnDayNumber int64  `json:"depends_on_day_number"`
	DependencyType     string `json:"dependency_type"`
	MinimumScore       int64  `json:"minimum_score"`
}

// Validate performs the structural checks a draft must pass before it can
// be staged for review. Referential integrity (index bounds, day-number
// uniqueness, dependency targets, cycles) is the resolver's responsibility
// and deliberately not duplicated here.
func (d *DraftCurriculum) Validate() error {
	if d.Program.Title == "" {
		return ErrEmptyProgramTitle
	}
	if len(d.Modules) == 0 {
		return ErrNoModules
	}
	if len(d.DayPlans) == 0 {
		return ErrEmptyDraft
	}
	for i, q := range d.QuizQuestions {
		if !isValidQuestionType(q.QuestionType) {
			return fmt.Errorf("%w: quiz question %d has unknown type %q", ErrValidation, i, q.QuestionType)
		}
	}
	for i, dep := range d.Dependencies {
		if !IsValidDependencyType(dep.DependencyType) {
			return fmt.Errorf("%w: dependency %d has unknown type %q", ErrValidation, i, dep.DependencyType)
		}
	}
	return nil
}

// IsValidDependencyType reports whether the given dependency type is known.
func IsValidDependencyType(depType string) bool {
	switch depType {
	case DependencyTypePrerequisite, DependencyTypeRecommended, DependencyTypeRelated:
		return true
	default:
		return false
	}
}

func isValidQuestionType(questionType string) bool {
	switch questionType {
	case QuestionTypeShortAnswer, QuestionTypeMultipleChoice, QuestionTypeCodePrompt, QuestionTypeReflection:
		return true
	default:
		return false
	}
}
