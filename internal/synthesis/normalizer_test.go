package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/generation"
)

func minimalSchema() *generation.PlanSchema {
	return &generation.PlanSchema{
		ProgramTitle:       "Learn Go",
		ProgramDescription: "From zero to services",
		EstimatedTotalDays: 2,
		Modules: []generation.ModuleSchema{
			{
				Title:      "Basics",
				OrderIndex: 0,
				Color:      "#EC4899",
				Days: []generation.DaySchema{
					{
						DayNumber:            1,
						Title:                "Syntax and tooling",
						EstimatedMinutes:     60,
						MemoryRebuildMinutes: 20,
						ChecklistItems: []generation.ChecklistItemSchema{
							{Label: "Install the toolchain", IsRequired: true},
							{Label: "Write hello world", IsRequired: true},
						},
						QuizQuestions: []generation.QuizQuestionSchema{
							{
								QuestionText:     "What does go fmt do?",
								QuestionType:     "short_answer",
								CorrectAnswer:    "formats source",
								Points:           5,
								TimeLimitSeconds: 60,
							},
						},
						ConceptTags: []generation.ConceptTagSchema{
							{Name: " Goroutines ", Domain: "go"},
						},
					},
					{
						DayNumber:        2,
						Title:            "Channels",
						EstimatedMinutes: 90,
						ConceptTags: []generation.ConceptTagSchema{
							{Name: "goroutines", Domain: "go"},
						},
						Dependencies: []generation.DependencySchema{
							{DependsOnDayNumber: 1, Type: "prerequisite", MinimumScore: 70},
						},
					},
				},
			},
		},
	}
}

func TestNormalizeFlattensSchema(t *testing.T) {
	t.Parallel()

	draft := Normalize(minimalSchema())

	assert.Equal(t, "Learn Go", draft.Program.Title)
	require.Len(t, draft.Modules, 1)
	assert.Equal(t, "#EC4899", draft.Modules[0].Color)
	require.Len(t, draft.DayPlans, 2)
	assert.Equal(t, 0, draft.DayPlans[0].ModuleIndex)
	assert.Equal(t, 0, draft.DayPlans[1].ModuleIndex)

	// Derived minute bands.
	assert.Equal(t, int64(45), draft.DayPlans[0].MinMinutes)
	assert.Equal(t, int64(60), draft.DayPlans[0].RecommendedMinutes)
	assert.Equal(t, int64(90), draft.DayPlans[0].DeepMinutes)

	require.Len(t, draft.Dependencies, 1)
	assert.Equal(t, 1, draft.Dependencies[0].DayIndex)
	assert.Equal(t, int64(1), draft.Dependencies[0].DependsOnDayNumber)
}

func TestNormalizeClampsMinutesWithWarnings(t *testing.T) {
	t.Parallel()

	schema := minimalSchema()
	schema.Modules[0].Days[0].EstimatedMinutes = 5
	schema.Modules[0].Days[1].EstimatedMinutes = 400

	draft := Normalize(schema)

	assert.Equal(t, int64(45), draft.DayPlans[0].EstimatedMinutes)
	assert.Equal(t, int64(180), draft.DayPlans[1].EstimatedMinutes)
	assert.NotEmpty(t, draft.ValidationWarnings)
}

func TestNormalizeDefaultsEmptyDays(t *testing.T) {
	t.Parallel()

	schema := minimalSchema()
	schema.Modules[0].Days[1].ChecklistItems = nil
	schema.Modules[0].Days[1].QuizQuestions = nil

	draft := Normalize(schema)

	var day1Items int
	for _, item := range draft.ChecklistItems {
		if item.DayIndex == 1 {
			day1Items++
			assert.Equal(t, "Complete the implementation", item.Label)
			assert.True(t, item.IsRequired)
		}
	}
	assert.Equal(t, 1, day1Items)

	var day1Questions int
	for _, question := range draft.QuizQuestions {
		if question.DayIndex == 1 {
			day1Questions++
			assert.Equal(t, domain.QuestionTypeReflection, question.QuestionType)
			assert.Equal(t, int64(10), question.Points)
		}
	}
	assert.Equal(t, 1, day1Questions)
}

func TestNormalizeCoercesInvalidValues(t *testing.T) {
	t.Parallel()

	schema := minimalSchema()
	schema.Modules[0].Color = "#123456"
	schema.Modules[0].Days[0].QuizQuestions[0].QuestionType = "essay"
	schema.Modules[0].Days[0].QuizQuestions[0].Points = 0
	schema.Modules[0].Days[0].QuizQuestions[0].TimeLimitSeconds = 5
	schema.Modules[0].Days[1].Dependencies[0].Type = "mandatory"
	schema.Modules[0].Days[1].Dependencies[0].MinimumScore = 250

	draft := Normalize(schema)

	assert.Equal(t, "#6366F1", draft.Modules[0].Color)
	assert.Equal(t, domain.QuestionTypeShortAnswer, draft.QuizQuestions[0].QuestionType)
	assert.Equal(t, int64(1), draft.QuizQuestions[0].Points)
	assert.Equal(t, int64(30), draft.QuizQuestions[0].TimeLimitSeconds)
	assert.Equal(t, domain.DependencyTypePrerequisite, draft.Dependencies[0].DependencyType)
	assert.Equal(t, int64(100), draft.Dependencies[0].MinimumScore)
}

func TestNormalizeDeduplicatesTags(t *testing.T) {
	t.Parallel()

	draft := Normalize(minimalSchema())

	// " Goroutines " and "goroutines" normalize to the same tag.
	require.Len(t, draft.ConceptTags, 1)
	assert.Equal(t, "goroutines", draft.ConceptTags[0].Name)
	assert.Len(t, draft.TagAssignments, 2)

	// Draft passes structural validation.
	require.NoError(t, draft.Validate())
}

func TestNormalizeKeepsSameNameTagsAcrossDomains(t *testing.T) {
	t.Parallel()

	schema := minimalSchema()
	schema.Modules[0].Days[1].ConceptTags = []generation.ConceptTagSchema{
		{Name: "goroutines", Domain: "rust"},
	}

	draft := Normalize(schema)

	// Same name under two domains stays two distinct tags, and each
	// assignment carries its own domain.
	require.Len(t, draft.ConceptTags, 2)
	require.Len(t, draft.TagAssignments, 2)
	assert.Equal(t, "go", draft.TagAssignments[0].TagDomain)
	assert.Equal(t, "rust", draft.TagAssignments[1].TagDomain)
}

func TestNormalizeComplexity(t *testing.T) {
	t.Parallel()

	schema := minimalSchema()
	schema.Modules[0].Days[1].EstimatedMinutes = 150
	schema.Modules[0].Days[1].SyntaxTargets = "async channel select patterns"

	draft := Normalize(schema)

	// 1 base + 1 (>90) + 1 (>120) + 1 (keyword "async") = 4.
	assert.Equal(t, int64(4), draft.DayPlans[1].ComplexityLevel)
}
