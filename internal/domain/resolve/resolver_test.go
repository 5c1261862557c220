package resolve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

func draftWithDays(dayNumbers ...int64) *domain.DraftCurriculum {
	draft := &domain.DraftCurriculum{
		Program: domain.ProgramDraft{Title: "Test Program"},
		Modules: []domain.ModuleDraft{{Title: "Module 1", OrderIndex: 0}},
	}
	for _, num := range dayNumbers {
		draft.DayPlans = append(draft.DayPlans, domain.DayPlanDraft{
			ModuleIndex: 0,
			DayNumber:   num,
			Title:       "Day",
		})
	}
	return draft
}

func TestResolveValidDraft(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1, 2, 3)
	draft.Dependencies = []domain.DependencyDraft{
		{DayIndex: 2, DependsOnDayNumber: 1, DependencyType: domain.DependencyTypePrerequisite, MinimumScore: 70},
	}

	plan, err := Resolve(draft)
	require.NoError(t, err)
	require.NotNil(t, plan)

	assert.Equal(t, []int{0, 1, 2}, plan.DayOrder)
	require.Len(t, plan.Dependencies, 1)
	assert.Equal(t, 2, plan.Dependencies[0].DayIndex)
	assert.Equal(t, 0, plan.Dependencies[0].DependsOnIndex)
	assert.Equal(t, int64(70), plan.Dependencies[0].MinimumScore)
}

func TestResolveOrdersPrerequisiteTargetsFirst(t *testing.T) {
	t.Parallel()

	// Day 1 requires day 3, so day 3 must be materialized before day 1.
	draft := draftWithDays(1, 2, 3)
	draft.Dependencies = []domain.DependencyDraft{
		{DayIndex: 0, DependsOnDayNumber: 3, DependencyType: domain.DependencyTypePrerequisite},
	}

	plan, err := Resolve(draft)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 0}, plan.DayOrder)
}

func TestResolveAdvisoryEdgesDoNotConstrainOrder(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1, 2)
	draft.Dependencies = []domain.DependencyDraft{
		{DayIndex: 0, DependsOnDayNumber: 2, DependencyType: domain.DependencyTypeRecommended},
	}

	plan, err := Resolve(draft)
	require.NoError(t, err)

	// Day number order wins because recommended edges are advisory.
	assert.Equal(t, []int{0, 1}, plan.DayOrder)
	require.Len(t, plan.Dependencies, 1)
	assert.Equal(t, 1, plan.Dependencies[0].DependsOnIndex)
}

func TestResolveModuleIndexOutOfBounds(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1)
	draft.DayPlans[0].ModuleIndex = 5

	_, err := Resolve(draft)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasKind(KindOutOfBounds))
}

func TestResolveDuplicateDayNumbers(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1, 1)

	_, err := Resolve(draft)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasKind(KindDuplicateDayNumber))
}

func TestResolveDanglingDependency(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1, 2)
	draft.Dependencies = []domain.DependencyDraft{
		{DayIndex: 1, DependsOnDayNumber: 99, DependencyType: domain.DependencyTypePrerequisite},
	}

	_, err := Resolve(draft)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasKind(KindDanglingDependency))
}

func TestResolveSelfDependency(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1)
	draft.Dependencies = []domain.DependencyDraft{
		{DayIndex: 0, DependsOnDayNumber: 1, DependencyType: domain.DependencyTypePrerequisite},
	}

	_, err := Resolve(draft)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasKind(KindCyclicDependency))
}

func TestResolvePrerequisiteCycle(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1, 2, 3)
	draft.Dependencies = []domain.DependencyDraft{
		{DayIndex: 0, DependsOnDayNumber: 2, DependencyType: domain.DependencyTypePrerequisite},
		{DayIndex: 1, DependsOnDayNumber: 3, DependencyType: domain.DependencyTypePrerequisite},
		{DayIndex: 2, DependsOnDayNumber: 1, DependencyType: domain.DependencyTypePrerequisite},
	}

	_, err := Resolve(draft)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasKind(KindCyclicDependency))
}

func TestResolveCollectsAllIssues(t *testing.T) {
	t.Parallel()

	draft := draftWithDays(1, 1)
	draft.DayPlans[0].ModuleIndex = 3
	draft.ChecklistItems = []domain.ChecklistItemDraft{{DayIndex: 9, Label: "item"}}
	draft.Dependencies = []domain.DependencyDraft{
		{DayIndex: 0, DependsOnDayNumber: 42, DependencyType: domain.DependencyTypePrerequisite},
	}

	_, err := Resolve(draft)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasKind(KindOutOfBounds))
	assert.True(t, verr.HasKind(KindDuplicateDayNumber))
	assert.True(t, verr.HasKind(KindDanglingDependency))
	assert.GreaterOrEqual(t, len(verr.Issues), 3)
}
