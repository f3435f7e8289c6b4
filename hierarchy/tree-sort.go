package hierarchy

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"scorekeeper/repository"
)

var (
	ErrNoRoot       = errors.New("hierarchy has no root")
	ErrMultipleRoot = errors.New("hierarchy has more than one root")
)

var competitiveKinds = []repository.EntityKind{
	repository.EntityKindChapter,
	repository.EntityKindChorus,
	repository.EntityKindQuartet,
}

func compareStructural(a, b *repository.Entity) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Code, b.Code),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.ID, b.ID),
	)
}

func compareCompetitive(a, b *repository.Entity) int {
	return cmp.Or(
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.Name, b.Name),
		cmp.Compare(a.ID, b.ID),
	)
}

// Root returns the single parentless international entity.
func Root(entities []*repository.Entity) (*repository.Entity, error) {
	var root *repository.Entity
	for _, entity := range entities {
		if entity.ParentID != nil || entity.Kind != repository.EntityKindInternational {
			continue
		}
		if root != nil {
			return nil, fmt.Errorf("%w: %d and %d", ErrMultipleRoot, root.ID, entity.ID)
		}
		root = entity
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return root, nil
}

// TreeSort computes tree_sort values for the whole hierarchy, keyed by entity id.
// The root comes first, then each direct child followed by its divisions, then every chapter,
// chorus and quartet in one flat tail. Entities reached by neither phase get no value.
func TreeSort(entities []*repository.Entity) (map[int]int, error) {
	root, err := Root(entities)
	if err != nil {
		return nil, err
	}
	children := make(map[int][]*repository.Entity)
	for _, entity := range entities {
		if entity.ParentID != nil {
			children[*entity.ParentID] = append(children[*entity.ParentID], entity)
		}
	}

	sorts := make(map[int]int, len(entities))
	next := 1
	assign := func(entity *repository.Entity) {
		if _, done := sorts[entity.ID]; done {
			return
		}
		sorts[entity.ID] = next
		next++
	}

	assign(root)
	direct := slices.Clone(children[root.ID])
	slices.SortFunc(direct, compareStructural)
	for _, child := range direct {
		assign(child)
		divisions := make([]*repository.Entity, 0)
		for _, grandchild := range children[child.ID] {
			if grandchild.Kind == repository.EntityKindDivision {
				divisions = append(divisions, grandchild)
			}
		}
		slices.SortFunc(divisions, compareStructural)
		for _, division := range divisions {
			assign(division)
		}
	}

	tail := make([]*repository.Entity, 0)
	for _, entity := range entities {
		if slices.Contains(competitiveKinds, entity.Kind) {
			tail = append(tail, entity)
		}
	}
	slices.SortFunc(tail, compareCompetitive)
	for _, entity := range tail {
		assign(entity)
	}
	return sorts, nil
}
