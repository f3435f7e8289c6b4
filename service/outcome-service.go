package service

import (
	"context"
	"fmt"

	"scorekeeper/repository"
	"scorekeeper/scoring"
	"scorekeeper/utils"
	"scorekeeper/workflow"

	"gorm.io/gorm"
)

type OutcomeService struct {
	db                *gorm.DB
	outcomeRepository *repository.OutcomeRepository
}

func NewOutcomeService(db *gorm.DB) *OutcomeService {
	return &OutcomeService{
		db:                db,
		outcomeRepository: repository.NewOutcomeRepository(db),
	}
}

func (s *OutcomeService) GetOutcomesForRound(roundId int) ([]*repository.Outcome, error) {
	return s.outcomeRepository.GetOutcomesForRound(roundId)
}

// Resolve recomputes the named recipient of one award in a round. Frozen outcomes are returned
// unchanged.
func (s *OutcomeService) Resolve(ctx context.Context, roundId int, awardId int) (outcome *repository.Outcome, err error) {
	ctx, span := startSpan(ctx, "OutcomeService.Resolve", roundId, "")
	defer func() { endSpan(span, err) }()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		outcomeRepository := repository.NewOutcomeRepository(tx)
		outcome, err = outcomeRepository.GetOutcomeForUpdate(roundId, awardId)
		if err != nil {
			return err
		}
		if outcome.Frozen {
			return nil
		}
		round, err := repository.NewRoundRepository(tx).GetRoundById(roundId)
		if err != nil {
			return err
		}
		outcome.Award, err = repository.NewAwardRepository(tx).GetAwardById(awardId)
		if err != nil {
			return err
		}
		contenders, err := loadContenders(tx, round, awardId)
		if err != nil {
			return err
		}
		if err := workflow.ResolveOutcome(round.Kind, outcome, contenders); err != nil {
			return err
		}
		return outcomeRepository.Save(outcome)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// loadContenders aggregates the official scores of the award's contestants across the session's
// rounds up to and including round.
func loadContenders(tx *gorm.DB, round *repository.Round, awardId int) ([]scoring.Contender, error) {
	contestRepository := repository.NewContestRepository(tx)
	contest, err := contestRepository.GetContestForAward(round.SessionID, awardId)
	if err != nil {
		return nil, fmt.Errorf("failed to load contest for award %d: %w", awardId, err)
	}
	entries, err := contestRepository.GetContendingEntries(contest.ID)
	if err != nil {
		return nil, err
	}
	entryIds := utils.Map(entries, func(entry *repository.Entry) int { return entry.ID })
	scores, err := repository.NewScoreRepository(tx).GetOfficialEntryScores(round.SessionID, round.Num, entryIds)
	if err != nil {
		return nil, err
	}
	return scoring.BuildContenders(entries, scores), nil
}
