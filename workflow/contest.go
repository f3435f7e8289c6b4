package workflow

import "scorekeeper/repository"

func NewContestMachine() *Machine[repository.ContestStatus, *repository.Contest] {
	m := NewMachine[repository.ContestStatus, *repository.Contest]("contest",
		repository.ContestNew,
		repository.ContestIncluded,
		repository.ContestExcluded,
	)
	m.On(ActionInclude, []repository.ContestStatus{repository.ContestNew, repository.ContestExcluded}, Rule[repository.ContestStatus, *repository.Contest]{
		To:          repository.ContestIncluded,
		Description: "Contest included",
	})
	m.On(ActionExclude, []repository.ContestStatus{repository.ContestNew, repository.ContestIncluded}, Rule[repository.ContestStatus, *repository.Contest]{
		To:          repository.ContestExcluded,
		Description: "Contest excluded",
	})
	return m
}
