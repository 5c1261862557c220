// Package synthesis turns raw generated plan schemas into reviewable draft
// curricula. The model's numbers and enums are not trusted: out-of-range
// values are coerced to the nearest sane bound and every coercion is
// recorded as a validation warning on the draft, so the reviewer can see
// what was adjusted. Normalization is pure and never touches storage.
package synthesis

import (
	"fmt"
	"strings"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/generation"
)

// Minute bounds for a single day. Values outside the range are replaced,
// not clamped to the violated bound: an absurdly low estimate is reset to
// the default 45 rather than the minimum.
const (
	minDayMinutes     = 15
	maxDayMinutes     = 180
	defaultDayMinutes = 45
)

// moduleColorPalette is the set of colors the UI renders for modules.
// Anything else falls back to the first palette entry.
var moduleColorPalette = map[string]bool{
	"#6366F1": true,
	"#EC4899": true,
	"#F59E0B": true,
	"#22C55E": true,
	"#3B82F6": true,
	"#A855F7": true,
	"#EF4444": true,
	"#14B8A6": true,
}

const defaultModuleColor = "#6366F1"

// Normalize flattens a generated plan schema into a draft curriculum. Days
// keep their module's order; checklist items, quiz questions, tags and
// dependencies are re-addressed by global day index. Empty days receive a
// default checklist item and reflection question with a warning, matching
// what review expects of every day.
func Normalize(schema *generation.PlanSchema) *domain.DraftCurriculum {
	draft := &domain.DraftCurriculum{
		Program: domain.ProgramDraft{
			Title:              schema.ProgramTitle,
			Description:        schema.ProgramDescription,
			EstimatedTotalDays: schema.EstimatedTotalDays,
		},
	}

	var warnings []string
	seenTags := make(map[[2]string]bool)
	dayIndex := 0

	for moduleIdx, module := range schema.Modules {
		draft.Modules = append(draft.Modules, domain.ModuleDraft{
			Title:       module.Title,
			Description: module.Description,
			OrderIndex:  module.OrderIndex,
			Color:       normalizeColor(module.Color),
		})

		for _, day := range module.Days {
			estimated := clampMinutes(day.EstimatedMinutes, &warnings)
			memoryRebuild := clampMinutes(day.MemoryRebuildMinutes, &warnings)

			draft.DayPlans = append(draft.DayPlans, domain.DayPlanDraft{
				ModuleIndex:          moduleIdx,
				DayNumber:            day.DayNumber,
				Title:                day.Title,
				SyntaxTargets:        day.SyntaxTargets,
				ImplementationBrief:  day.ImplementationBrief,
				FilesToCreate:        day.FilesToCreate,
				SuccessCriteria:      day.SuccessCriteria,
				StretchChallenge:     day.StretchChallenge,
				Notes:                day.Notes,
				EstimatedMinutes:     estimated,
				MemoryRebuildMinutes: memoryRebuild,
				MinMinutes:           int64(float64(estimated) * 0.75),
				RecommendedMinutes:   estimated,
				DeepMinutes:          int64(float64(estimated) * 1.5),
				ComplexityLevel:      calculateComplexity(day.SyntaxTargets, day.ImplementationBrief, estimated),
			})

			normalizeChecklist(draft, day, dayIndex, &warnings)
			normalizeQuiz(draft, day, dayIndex, &warnings)

			for _, tag := range day.ConceptTags {
				name := normalizeTagName(tag.Name)
				if name == "" {
					continue
				}
				key := [2]string{name, tag.Domain}
				if !seenTags[key] {
					seenTags[key] = true
					draft.ConceptTags = append(draft.ConceptTags, domain.ConceptTagDraft{
						Name:   name,
						Domain: tag.Domain,
					})
				}
				draft.TagAssignments = append(draft.TagAssignments, domain.TagAssignment{
					DayIndex:  dayIndex,
					TagName:   name,
					TagDomain: tag.Domain,
				})
			}

			for _, dep := range day.Dependencies {
				draft.Dependencies = append(draft.Dependencies, domain.DependencyDraft{
					DayIndex:           dayIndex,
					DependsOnDayNumber: dep.DependsOnDayNumber,
					DependencyType:     normalizeDependencyType(dep.Type),
					MinimumScore:       clampScore(dep.MinimumScore),
				})
			}

			dayIndex++
		}
	}

	draft.ValidationWarnings = warnings
	return draft
}

func normalizeChecklist(draft *domain.DraftCurriculum, day generation.DaySchema, dayIndex int, warnings *[]string) {
	if len(day.ChecklistItems) == 0 {
		*warnings = append(*warnings,
			fmt.Sprintf("Day %d has no checklist items, adding default", day.DayNumber))
		draft.ChecklistItems = append(draft.ChecklistItems, domain.ChecklistItemDraft{
			DayIndex:   dayIndex,
			Label:      "Complete the implementation",
			IsRequired: true,
			OrderIndex: 0,
		})
		return
	}

	for idx, item := range day.ChecklistItems {
		draft.ChecklistItems = append(draft.ChecklistItems, domain.ChecklistItemDraft{
			DayIndex:   dayIndex,
			Label:      item.Label,
			IsRequired: item.IsRequired,
			OrderIndex: int64(idx),
		})
	}
}

func normalizeQuiz(draft *domain.DraftCurriculum, day generation.DaySchema, dayIndex int, warnings *[]string) {
	if len(day.QuizQuestions) == 0 {
		*warnings = append(*warnings,
			fmt.Sprintf("Day %d has no quiz questions, adding default", day.DayNumber))
		draft.QuizQuestions = append(draft.QuizQuestions, domain.QuizQuestionDraft{
			DayIndex:         dayIndex,
			QuestionText:     fmt.Sprintf("What did you learn in %s?", day.Title),
			QuestionType:     domain.QuestionTypeReflection,
			Options:          []string{},
			Points:           10,
			TimeLimitSeconds: 300,
		})
		return
	}

	for _, question := range day.QuizQuestions {
		draft.QuizQuestions = append(draft.QuizQuestions, domain.QuizQuestionDraft{
			DayIndex:         dayIndex,
			QuestionText:     question.QuestionText,
			QuestionType:     normalizeQuestionType(question.QuestionType),
			CorrectAnswer:    question.CorrectAnswer,
			Options:          question.Options,
			Points:           maxInt64(question.Points, 1),
			TimeLimitSeconds: maxInt64(question.TimeLimitSeconds, 30),
		})
	}
}

func clampMinutes(minutes int64, warnings *[]string) int64 {
	switch {
	case minutes < minDayMinutes:
		*warnings = append(*warnings, fmt.Sprintf("Minutes %d too low, clamping to %d", minutes, defaultDayMinutes))
		return defaultDayMinutes
	case minutes > maxDayMinutes:
		*warnings = append(*warnings, fmt.Sprintf("Minutes %d too high, clamping to %d", minutes, maxDayMinutes))
		return maxDayMinutes
	default:
		return minutes
	}
}

func clampScore(score int64) int64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func normalizeColor(color string) string {
	if moduleColorPalette[color] {
		return color
	}
	return defaultModuleColor
}

func normalizeQuestionType(questionType string) string {
	switch questionType {
	case domain.QuestionTypeShortAnswer, domain.QuestionTypeMultipleChoice,
		domain.QuestionTypeCodePrompt, domain.QuestionTypeReflection:
		return questionType
	default:
		return domain.QuestionTypeShortAnswer
	}
}

func normalizeDependencyType(depType string) string {
	switch depType {
	case domain.DependencyTypePrerequisite, domain.DependencyTypeRecommended, domain.DependencyTypeRelated:
		return depType
	default:
		return domain.DependencyTypePrerequisite
	}
}

func normalizeTagName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func calculateComplexity(syntax, implementation string, minutes int64) int64 {
	var score int64 = 1

	if minutes > 90 {
		score++
	}
	if minutes > 120 {
		score++
	}

	combined := strings.ToLower(syntax + " " + implementation)
	complexKeywords := []string{
		"async", "await", "closure", "generic", "trait",
		"interface", "algorithm", "architecture", "state management", "optimization",
	}
	for _, keyword := range complexKeywords {
		if strings.Contains(combined, keyword) {
			score++
			break
		}
	}

	if len(syntax) > 500 || len(implementation) > 1000 {
		score++
	}

	if score > 5 {
		score = 5
	}
	return score
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
