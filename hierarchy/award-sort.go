package hierarchy

import (
	"cmp"
	"slices"

	"scorekeeper/repository"
)

// AwardSort orders awards for display: active first, then by the owning entity's tree_sort
// (unsorted entities last), kind descending so quartet precedes chorus, level, name and id.
func AwardSort(awards []*repository.Award, entitySorts map[int]int) map[int]int {
	ordered := slices.Clone(awards)
	slices.SortFunc(ordered, func(a, b *repository.Award) int {
		return cmp.Or(
			cmp.Compare(inactiveRank(a), inactiveRank(b)),
			compareEntitySort(entitySorts, a.EntityID, b.EntityID),
			cmp.Compare(b.Kind, a.Kind),
			cmp.Compare(a.Level, b.Level),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID, b.ID),
		)
	})
	sorts := make(map[int]int, len(ordered))
	for i, award := range ordered {
		sorts[award.ID] = i + 1
	}
	return sorts
}

func inactiveRank(award *repository.Award) int {
	if award.Status == repository.ActivationActive {
		return 0
	}
	return 1
}

func compareEntitySort(sorts map[int]int, a, b int) int {
	sa, okA := sorts[a]
	sb, okB := sorts[b]
	switch {
	case okA && okB:
		return cmp.Compare(sa, sb)
	case okA:
		return -1
	case okB:
		return 1
	}
	return 0
}
