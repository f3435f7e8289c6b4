package service

import (
	"context"

	"scorekeeper/app_error"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

type ConventionService struct {
	db                   *gorm.DB
	machine              *workflow.Machine[repository.ConventionStatus, *workflow.ConventionSubject]
	dispatcher           *Dispatcher
	conventionRepository *repository.ConventionRepository
	assignmentRepository *repository.AssignmentRepository
}

func NewConventionService(db *gorm.DB, dispatcher *Dispatcher) *ConventionService {
	return &ConventionService{
		db:                   db,
		machine:              workflow.NewConventionMachine(),
		dispatcher:           dispatcher,
		conventionRepository: repository.NewConventionRepository(db),
		assignmentRepository: repository.NewAssignmentRepository(db),
	}
}

func (s *ConventionService) GetConventionById(conventionId int, preloads ...string) (*repository.Convention, error) {
	return s.conventionRepository.GetConventionById(conventionId, preloads...)
}

func (s *ConventionService) GetAllConventions() ([]*repository.Convention, error) {
	return s.conventionRepository.FindAll()
}

// CreateConvention stores a new convention. Its sessions are created by build.
func (s *ConventionService) CreateConvention(convention *repository.Convention) (*repository.Convention, error) {
	convention.ID = 0
	convention.Status = repository.SessionNew
	for _, kind := range convention.SessionKinds {
		if _, err := repository.ParseSessionKind(kind); err != nil {
			return nil, app_error.BadRequest(err)
		}
	}
	if _, err := repository.NewEntityRepository(s.db).GetEntityById(convention.EntityID); err != nil {
		return nil, err
	}
	return s.conventionRepository.Save(convention)
}

func (s *ConventionService) GetAssignmentsForConvention(conventionId int) ([]*repository.Assignment, error) {
	return s.assignmentRepository.GetAssignmentsForConvention(conventionId)
}

func (s *ConventionService) CreateAssignment(assignment *repository.Assignment) (*repository.Assignment, error) {
	assignment.ID = 0
	assignment.Status = repository.ActivationNew
	if _, err := s.conventionRepository.GetConventionById(assignment.ConventionID); err != nil {
		return nil, err
	}
	return s.assignmentRepository.Save(assignment)
}

func (s *ConventionService) Transition(ctx context.Context, conventionId int, action workflow.Action, actor string) (convention *repository.Convention, err error) {
	ctx, span := startSpan(ctx, "ConventionService.Transition", conventionId, action)
	defer func() { endSpan(span, err) }()

	var transition *workflow.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		conventionRepository := repository.NewConventionRepository(tx)
		convention, err = conventionRepository.GetConventionForUpdate(conventionId)
		if err != nil {
			return err
		}
		subject := &workflow.ConventionSubject{Convention: convention}
		if subject.Sessions, err = repository.NewSessionRepository(tx).GetSessionsForConvention(convention.ID); err != nil {
			return err
		}
		transition, err = s.machine.Fire(subject, convention.Status, action, actor)
		if err != nil {
			return err
		}
		convention.Status = repository.ConventionStatus(transition.To)
		if action == workflow.ActionBuild {
			if err := repository.NewSessionRepository(tx).CreateSessions(subject.NewSessions); err != nil {
				return err
			}
		}
		if _, err := conventionRepository.Save(convention); err != nil {
			return err
		}
		return appendStateLog(tx, TypeConvention, convention.ID, transition)
	})
	observe("convention", transition, err)
	if err != nil {
		return nil, err
	}
	if action == workflow.ActionOpen || action == workflow.ActionClose {
		s.dispatcher.Announce(ctx, TypeConvention, convention.ID, transition)
	}
	return convention, nil
}
