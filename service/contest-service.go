package service

import (
	"context"

	"scorekeeper/repository"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

type ContestService struct {
	db      *gorm.DB
	machine *workflow.Machine[repository.ContestStatus, *repository.Contest]
}

func NewContestService(db *gorm.DB) *ContestService {
	return &ContestService{
		db:      db,
		machine: workflow.NewContestMachine(),
	}
}

func (s *ContestService) Transition(ctx context.Context, contestId int, action workflow.Action, actor string) (contest *repository.Contest, err error) {
	ctx, span := startSpan(ctx, "ContestService.Transition", contestId, action)
	defer func() { endSpan(span, err) }()

	var transition *workflow.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contestRepository := repository.NewContestRepository(tx)
		contest, err = contestRepository.GetContestForUpdate(contestId)
		if err != nil {
			return err
		}
		transition, err = s.machine.Fire(contest, contest.Status, action, actor)
		if err != nil {
			return err
		}
		contest.Status = repository.ContestStatus(transition.To)
		if _, err := contestRepository.Save(contest); err != nil {
			return err
		}
		return appendStateLog(tx, TypeContest, contest.ID, transition)
	})
	observe("contest", transition, err)
	if err != nil {
		return nil, err
	}
	return contest, nil
}
