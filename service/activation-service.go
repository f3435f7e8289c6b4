package service

import (
	"context"
	"fmt"

	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

// ActivationService activates and deactivates the records that are never deleted.
type ActivationService struct {
	db       *gorm.DB
	machines map[string]*workflow.Machine[repository.ActivationStatus, any]
}

func NewActivationService(db *gorm.DB) *ActivationService {
	machines := make(map[string]*workflow.Machine[repository.ActivationStatus, any])
	for _, entityType := range []string{TypeEntity, TypeAward, TypeAssignment, TypeContestant} {
		machines[entityType] = workflow.NewActivationMachine(entityType)
	}
	return &ActivationService{db: db, machines: machines}
}

type activationTarget struct {
	status *repository.ActivationStatus
	save   func() error
}

func loadActivationTarget(tx *gorm.DB, entityType string, id int) (*activationTarget, error) {
	switch entityType {
	case TypeEntity:
		repo := repository.NewEntityRepository(tx)
		entity, err := repo.GetEntityForUpdate(id)
		if err != nil {
			return nil, err
		}
		return &activationTarget{status: &entity.Status, save: func() error {
			_, err := repo.Save(entity)
			return err
		}}, nil
	case TypeAward:
		repo := repository.NewAwardRepository(tx)
		award, err := repo.GetAwardForUpdate(id)
		if err != nil {
			return nil, err
		}
		return &activationTarget{status: &award.Status, save: func() error {
			_, err := repo.Save(award)
			return err
		}}, nil
	case TypeAssignment:
		repo := repository.NewAssignmentRepository(tx)
		assignment, err := repo.GetAssignmentForUpdate(id)
		if err != nil {
			return nil, err
		}
		return &activationTarget{status: &assignment.Status, save: func() error {
			_, err := repo.Save(assignment)
			return err
		}}, nil
	case TypeContestant:
		repo := repository.NewContestRepository(tx)
		contestant, err := repo.GetContestantForUpdate(id)
		if err != nil {
			return nil, err
		}
		return &activationTarget{status: &contestant.Status, save: func() error {
			_, err := repo.SaveContestant(contestant)
			return err
		}}, nil
	}
	return nil, app_error.BadRequest(fmt.Errorf("%s records cannot be activated", entityType))
}

func (s *ActivationService) Transition(ctx context.Context, entityType string, id int, action workflow.Action, actor string) (status repository.ActivationStatus, err error) {
	ctx, span := startSpan(ctx, "ActivationService.Transition", id, action)
	defer func() { endSpan(span, err) }()

	machine, ok := s.machines[entityType]
	if !ok {
		return "", app_error.BadRequest(fmt.Errorf("%s records cannot be activated", entityType))
	}
	var transition *workflow.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := loadActivationTarget(tx, entityType, id)
		if err != nil {
			return err
		}
		transition, err = machine.Fire(nil, *target.status, action, actor)
		if err != nil {
			return err
		}
		*target.status = repository.ActivationStatus(transition.To)
		if err := target.save(); err != nil {
			return err
		}
		return appendStateLog(tx, entityType, id, transition)
	})
	observe(entityType, transition, err)
	if err != nil {
		return "", err
	}
	return repository.ActivationStatus(transition.To), nil
}
