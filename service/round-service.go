package service

import (
	"context"
	"fmt"

	"scorekeeper/client"
	"scorekeeper/repository"
	"scorekeeper/scoring"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

type RoundService struct {
	db              *gorm.DB
	machine         *workflow.Machine[repository.RoundStatus, *workflow.RoundSubject]
	dispatcher      *Dispatcher
	roundRepository *repository.RoundRepository
}

func NewRoundService(db *gorm.DB, dispatcher *Dispatcher) *RoundService {
	return &RoundService{
		db:              db,
		machine:         workflow.NewRoundMachine(),
		dispatcher:      dispatcher,
		roundRepository: repository.NewRoundRepository(db),
	}
}

func (s *RoundService) GetRoundById(roundId int, preloads ...string) (*repository.Round, error) {
	return s.roundRepository.GetRoundById(roundId, preloads...)
}

func (s *RoundService) GetRoundsForSession(sessionId int) ([]*repository.Round, error) {
	return s.roundRepository.GetRoundsForSession(sessionId)
}

func (s *RoundService) Actions(round *repository.Round) []workflow.Action {
	return s.machine.Actions(round.Status)
}

// Transition fires action on the round inside one transaction. Build materializes appearances,
// panelists and outcomes; verify resolves outcomes; publish freezes them.
func (s *RoundService) Transition(ctx context.Context, roundId int, action workflow.Action, actor string) (round *repository.Round, err error) {
	ctx, span := startSpan(ctx, "RoundService.Transition", roundId, action)
	defer func() { endSpan(span, err) }()

	var transition *workflow.Transition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		roundRepository := repository.NewRoundRepository(tx)
		round, err = roundRepository.GetRoundForUpdate(roundId)
		if err != nil {
			return err
		}
		subject, err := s.loadSubject(tx, round, action)
		if err != nil {
			return err
		}
		transition, err = s.machine.Fire(subject, round.Status, action, actor)
		if err != nil {
			return err
		}
		round.Status = repository.RoundStatus(transition.To)
		if err := s.persistEffects(tx, subject, action); err != nil {
			return err
		}
		if _, err := roundRepository.Save(round); err != nil {
			return err
		}
		return appendStateLog(tx, TypeRound, round.ID, transition)
	})
	observe("round", transition, err)
	if err != nil {
		return nil, err
	}

	switch action {
	case workflow.ActionStart:
		s.dispatcher.Announce(ctx, TypeRound, round.ID, transition)
	case workflow.ActionPublish:
		s.dispatcher.RequestReport(ctx, client.ReportRoundOSS, TypeRound, round.ID, nil)
		s.dispatcher.RequestReport(ctx, client.ReportRoundSA, TypeRound, round.ID, nil)
		s.dispatcher.Announce(ctx, TypeRound, round.ID, transition)
	}
	return round, nil
}

func (s *RoundService) loadSubject(tx *gorm.DB, round *repository.Round, action workflow.Action) (*workflow.RoundSubject, error) {
	subject := &workflow.RoundSubject{Round: round}
	var err error
	switch action {
	case workflow.ActionBuild:
		session, err := repository.NewSessionRepository(tx).GetSessionById(round.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session of round %d: %w", round.ID, err)
		}
		if subject.ApprovedEntries, err = repository.NewEntryRepository(tx).GetApprovedEntries(session.ID); err != nil {
			return nil, err
		}
		if subject.Assignments, err = repository.NewAssignmentRepository(tx).GetPanelAssignments(session.ConventionID); err != nil {
			return nil, err
		}
		if subject.Contests, err = repository.NewContestRepository(tx).GetIncludedContests(session.ID); err != nil {
			return nil, err
		}
	case workflow.ActionFinish:
		subject.Appearances, err = repository.NewAppearanceRepository(tx).GetAppearancesForRound(round.ID)
	case workflow.ActionReview:
		subject.Appearances, err = repository.NewAppearanceRepository(tx).GetScoredAppearancesForRound(round.ID)
	case workflow.ActionVerify:
		if subject.Outcomes, err = repository.NewOutcomeRepository(tx).GetOutcomesForRound(round.ID); err != nil {
			return nil, err
		}
		subject.Contenders = make(map[int][]scoring.Contender, len(subject.Outcomes))
		for _, outcome := range subject.Outcomes {
			if outcome.Frozen {
				continue
			}
			if subject.Contenders[outcome.AwardID], err = loadContenders(tx, round, outcome.AwardID); err != nil {
				return nil, err
			}
		}
	case workflow.ActionPublish:
		subject.Outcomes, err = repository.NewOutcomeRepository(tx).GetOutcomesForRound(round.ID)
	}
	if err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *RoundService) persistEffects(tx *gorm.DB, subject *workflow.RoundSubject, action workflow.Action) error {
	switch action {
	case workflow.ActionBuild:
		if err := repository.NewAppearanceRepository(tx).CreateAppearances(subject.NewAppearances); err != nil {
			return err
		}
		if err := repository.NewScoreRepository(tx).CreatePanelists(subject.NewPanelists); err != nil {
			return err
		}
		return repository.NewOutcomeRepository(tx).CreateOutcomes(subject.NewOutcomes)
	case workflow.ActionVerify:
		outcomeRepository := repository.NewOutcomeRepository(tx)
		for _, outcome := range subject.Outcomes {
			if outcome.Frozen {
				continue
			}
			if err := outcomeRepository.Save(outcome); err != nil {
				return err
			}
		}
	case workflow.ActionPublish:
		return repository.NewOutcomeRepository(tx).FreezeOutcomes(subject.Round.ID)
	}
	return nil
}
