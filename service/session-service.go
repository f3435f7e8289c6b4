package service

import (
	"context"
	"fmt"

	"scorekeeper/client"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

type SessionService struct {
	db                *gorm.DB
	machine           *workflow.Machine[repository.SessionStatus, *workflow.SessionSubject]
	dispatcher        *Dispatcher
	sessionRepository *repository.SessionRepository
	contestRepository *repository.ContestRepository
}

func NewSessionService(db *gorm.DB, dispatcher *Dispatcher) *SessionService {
	return &SessionService{
		db:                db,
		machine:           workflow.NewSessionMachine(),
		dispatcher:        dispatcher,
		sessionRepository: repository.NewSessionRepository(db),
		contestRepository: repository.NewContestRepository(db),
	}
}

func (s *SessionService) GetSessionById(sessionId int, preloads ...string) (*repository.Session, error) {
	return s.sessionRepository.GetSessionById(sessionId, preloads...)
}

func (s *SessionService) GetSessionsForConvention(conventionId int) ([]*repository.Session, error) {
	return s.sessionRepository.GetSessionsForConvention(conventionId)
}

func (s *SessionService) GetContestsForSession(sessionId int) ([]*repository.Contest, error) {
	return s.contestRepository.GetContestsForSession(sessionId)
}

// SetNumRounds changes the round count of a session that has not been built yet.
func (s *SessionService) SetNumRounds(ctx context.Context, sessionId int, numRounds int) (*repository.Session, error) {
	var session *repository.Session
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionRepository := repository.NewSessionRepository(tx)
		var err error
		session, err = sessionRepository.GetSessionForUpdate(sessionId)
		if err != nil {
			return err
		}
		if session.Status != repository.SessionNew {
			return &workflow.GuardError{Reason: workflow.ReasonBuildPrecondition, Detail: fmt.Sprintf("session is %s", session.Status)}
		}
		session.NumRounds = numRounds
		_, err = sessionRepository.Save(session)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionService) Transition(ctx context.Context, sessionId int, action workflow.Action, actor string) (session *repository.Session, err error) {
	ctx, span := startSpan(ctx, "SessionService.Transition", sessionId, action)
	defer func() { endSpan(span, err) }()

	var transition *workflow.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sessionRepository := repository.NewSessionRepository(tx)
		session, err = sessionRepository.GetSessionForUpdate(sessionId)
		if err != nil {
			return err
		}
		subject := &workflow.SessionSubject{Session: session}
		if subject.Rounds, err = repository.NewRoundRepository(tx).GetRoundsForSession(session.ID); err != nil {
			return err
		}
		if action == workflow.ActionBuild {
			convention, err := repository.NewConventionRepository(tx).GetConventionById(session.ConventionID)
			if err != nil {
				return fmt.Errorf("failed to load convention of session %d: %w", session.ID, err)
			}
			if subject.Awards, err = repository.NewAwardRepository(tx).GetActiveAwardsForEntity(convention.EntityID); err != nil {
				return err
			}
		}
		transition, err = s.machine.Fire(subject, session.Status, action, actor)
		if err != nil {
			return err
		}
		session.Status = repository.SessionStatus(transition.To)
		if action == workflow.ActionBuild {
			if err := repository.NewRoundRepository(tx).CreateRounds(subject.NewRounds); err != nil {
				return err
			}
			if err := repository.NewContestRepository(tx).CreateContests(subject.NewContests); err != nil {
				return err
			}
		}
		if _, err := sessionRepository.Save(session); err != nil {
			return err
		}
		return appendStateLog(tx, TypeSession, session.ID, transition)
	})
	observe("session", transition, err)
	if err != nil {
		return nil, err
	}

	switch action {
	case workflow.ActionOpen, workflow.ActionClose, workflow.ActionStart:
		s.dispatcher.Announce(ctx, TypeSession, session.ID, transition)
	case workflow.ActionVerify:
		s.dispatcher.RequestReport(ctx, client.ReportSessionOSS, TypeSession, session.ID, nil)
		s.dispatcher.RequestReport(ctx, client.ReportSessionSA, TypeSession, session.ID, nil)
		s.dispatcher.Announce(ctx, TypeSession, session.ID, transition)
	}
	return session, nil
}
