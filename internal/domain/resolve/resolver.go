// Package resolve validates the positional and day-number references inside
// a draft curriculum and fixes the order in which its rows must be
// materialized. A draft straight out of synthesis, or edited by a user
// during review, is untrusted: module indices may be out of bounds, day
// numbers may collide, and dependencies may point at days that do not exist
// or form cycles. Apply refuses to touch the database until a draft has
// passed through Resolve.
package resolve

import (
	"fmt"
	"sort"

	"github.com/daybreak-app/daybreak-api/internal/domain"
)

// Dependency is one resolved dependency edge. Both endpoints are indices
// into the draft's day plan list.
type Dependency struct {
	DayIndex       int
	DependsOnIndex int
	DependencyType string
	MinimumScore   int64
}

// Plan is a draft whose references have all been validated. The curriculum
// store accepts only a Plan, never a raw draft, so an unresolved draft
// cannot reach the database by construction.
type Plan struct {
	Draft *domain.DraftCurriculum

	// DayOrder lists indices into Draft.DayPlans in materialization order:
	// a prerequisite target always precedes its dependents, and ties are
	// broken by ascending day number.
	DayOrder []int

	// Dependencies holds every dependency edge with its target resolved
	// from a day number to a day plan index.
	Dependencies []Dependency
}

// Resolve validates the draft's internal references and computes the
// materialization order. On failure it returns a *ValidationError listing
// every problem found.
func Resolve(draft *domain.DraftCurriculum) (*Plan, error) {
	var issues []Issue

	moduleCount := len(draft.Modules)
	dayCount := len(draft.DayPlans)

	for i, day := range draft.DayPlans {
		if day.ModuleIndex < 0 || day.ModuleIndex >= moduleCount {
			issues = append(issues, Issue{
				Kind:    KindOutOfBounds,
				Message: fmt.Sprintf("day plan %d references module index %d, have %d modules", i, day.ModuleIndex, moduleCount),
			})
		}
	}

	dayByNumber := make(map[int64]int, dayCount)
	for i, day := range draft.DayPlans {
		if prev, ok := dayByNumber[day.DayNumber]; ok {
			issues = append(issues, Issue{
				Kind:    KindDuplicateDayNumber,
				Message: fmt.Sprintf("day plans %d and %d both carry day number %d", prev, i, day.DayNumber),
			})
			continue
		}
		dayByNumber[day.DayNumber] = i
	}

	for i, item := range draft.ChecklistItems {
		if item.DayIndex < 0 || item.DayIndex >= dayCount {
			issues = append(issues, Issue{
				Kind:    KindOutOfBounds,
				Message: fmt.Sprintf("checklist item %d references day index %d, have %d days", i, item.DayIndex, dayCount),
			})
		}
	}
	for i, question := range draft.QuizQuestions {
		if question.DayIndex < 0 || question.DayIndex >= dayCount {
			issues = append(issues, Issue{
				Kind:    KindOutOfBounds,
				Message: fmt.Sprintf("quiz question %d references day index %d, have %d days", i, question.DayIndex, dayCount),
			})
		}
	}
	for i, assignment := range draft.TagAssignments {
		if assignment.DayIndex < 0 || assignment.DayIndex >= dayCount {
			issues = append(issues, Issue{
				Kind:    KindOutOfBounds,
				Message: fmt.Sprintf("tag assignment %d references day index %d, have %d days", i, assignment.DayIndex, dayCount),
			})
		}
	}

	deps := make([]Dependency, 0, len(draft.Dependencies))
	for i, dep := range draft.Dependencies {
		if dep.DayIndex < 0 || dep.DayIndex >= dayCount {
			issues = append(issues, Issue{
				Kind:    KindOutOfBounds,
				Message: fmt.Sprintf("dependency %d references day index %d, have %d days", i, dep.DayIndex, dayCount),
			})
			continue
		}
		target, ok := dayByNumber[dep.DependsOnDayNumber]
		if !ok {
			issues = append(issues, Issue{
				Kind:    KindDanglingDependency,
				Message: fmt.Sprintf("dependency %d targets day number %d, which no day plan carries", i, dep.DependsOnDayNumber),
			})
			continue
		}
		if target == dep.DayIndex {
			issues = append(issues, Issue{
				Kind:    KindCyclicDependency,
				Message: fmt.Sprintf("dependency %d makes day number %d depend on itself", i, dep.DependsOnDayNumber),
			})
			continue
		}
		deps = append(deps, Dependency{
			DayIndex:       dep.DayIndex,
			DependsOnIndex: target,
			DependencyType: dep.DependencyType,
			MinimumScore:   dep.MinimumScore,
		})
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Issues: issues}
	}

	order, err := topologicalOrder(draft.DayPlans, deps)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Draft:        draft,
		DayOrder:     order,
		Dependencies: deps,
	}, nil
}

// topologicalOrder runs Kahn's algorithm over the prerequisite edges only.
// Recommended and related edges are advisory and never constrain order.
// Among ready days the one with the lowest day number goes first, so the
// order is deterministic for a given draft.
func topologicalOrder(days []domain.DayPlanDraft, deps []Dependency) ([]int, error) {
	n := len(days)
	inDegree := make([]int, n)
	dependents := make([][]int, n)

	for _, dep := range deps {
		if dep.DependencyType != domain.DependencyTypePrerequisite {
			continue
		}
		inDegree[dep.DayIndex]++
		dependents[dep.DependsOnIndex] = append(dependents[dep.DependsOnIndex], dep.DayIndex)
	}

	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)
	for len(ready) > 0 {
		sort.Slice(ready, func(a, b int) bool {
			return days[ready[a]].DayNumber < days[ready[b]].DayNumber
		})
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dependent := range dependents[next] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
	}

	if len(order) < n {
		cyclic := make([]int64, 0)
		for i := 0; i < n; i++ {
			if inDegree[i] > 0 {
				cyclic = append(cyclic, days[i].DayNumber)
			}
		}
		return nil, &ValidationError{Issues: []Issue{{
			Kind:    KindCyclicDependency,
			Message: fmt.Sprintf("prerequisite dependencies form a cycle involving day numbers %v", cyclic),
		}}}
	}

	return order, nil
}
