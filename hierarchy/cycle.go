package hierarchy

import (
	"errors"
	"fmt"

	"scorekeeper/repository"
)

var (
	ErrCycle         = errors.New("parent assignment would create a cycle")
	ErrUnknownParent = errors.New("parent entity does not exist")
	ErrRootKind      = errors.New("only an international entity may be parentless")
)

// ValidateParent checks that giving node the parent parentID keeps the hierarchy a single tree.
// node may be new (ID 0) or already part of entities.
func ValidateParent(entities []*repository.Entity, node *repository.Entity, parentID *int) error {
	if parentID == nil {
		if node.Kind != repository.EntityKindInternational {
			return ErrRootKind
		}
		for _, entity := range entities {
			if entity.ID != node.ID && entity.ParentID == nil && entity.Kind == repository.EntityKindInternational {
				return fmt.Errorf("%w: %d", ErrMultipleRoot, entity.ID)
			}
		}
		return nil
	}

	parents := make(map[int]*int, len(entities))
	for _, entity := range entities {
		parents[entity.ID] = entity.ParentID
	}
	if _, ok := parents[*parentID]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownParent, *parentID)
	}
	if node.ID == 0 {
		return nil
	}

	// walk up from the new parent; meeting node means node would be its own ancestor
	seen := make(map[int]bool)
	for current := parentID; current != nil; current = parents[*current] {
		if *current == node.ID {
			return fmt.Errorf("%w: %d is a descendant of %d", ErrCycle, *parentID, node.ID)
		}
		if seen[*current] {
			return fmt.Errorf("%w: existing loop through %d", ErrCycle, *current)
		}
		seen[*current] = true
	}
	return nil
}
