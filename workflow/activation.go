package workflow

import "scorekeeper/repository"

// NewActivationMachine is shared by entities, awards, assignments and contestants, which are
// deactivated rather than deleted.
func NewActivationMachine(name string) *Machine[repository.ActivationStatus, any] {
	m := NewMachine[repository.ActivationStatus, any](name,
		repository.ActivationNew,
		repository.ActivationActive,
		repository.ActivationInactive,
	)
	m.On(ActionActivate, []repository.ActivationStatus{repository.ActivationNew, repository.ActivationInactive}, Rule[repository.ActivationStatus, any]{
		To:          repository.ActivationActive,
		Description: "Activated",
	})
	m.On(ActionDeactivate, []repository.ActivationStatus{repository.ActivationActive}, Rule[repository.ActivationStatus, any]{
		To:          repository.ActivationInactive,
		Description: "Deactivated",
	})
	return m
}
