package workflow

import (
	"fmt"
	"time"

	"scorekeeper/repository"
	"scorekeeper/scoring"
)

// SongsPerAppearance is the number of songs created for every appearance at round build.
const SongsPerAppearance = 2

// RoundSubject carries the data the round rules need. Build fills the New* slices, which the
// caller persists; verify and publish mutate Outcomes in place.
type RoundSubject struct {
	Round           *repository.Round
	ApprovedEntries []*repository.Entry
	Assignments     []*repository.Assignment
	Contests        []*repository.Contest
	// Review needs the appearances with songs and scores.
	Appearances     []*repository.Appearance
	Outcomes        []*repository.Outcome
	// Contenders per award id, loaded before verify.
	Contenders map[int][]scoring.Contender

	NewAppearances []*repository.Appearance
	NewPanelists   []*repository.Panelist
	NewOutcomes    []*repository.Outcome
}

type roundRule = Rule[repository.RoundStatus, *RoundSubject]

func NewRoundMachine() *Machine[repository.RoundStatus, *RoundSubject] {
	m := NewMachine[repository.RoundStatus, *RoundSubject]("round",
		repository.RoundNew,
		repository.RoundBuilt,
		repository.RoundStarted,
		repository.RoundFinished,
		repository.RoundReviewed,
		repository.RoundVerified,
		repository.RoundPublished,
	)
	m.On(ActionBuild, []repository.RoundStatus{repository.RoundNew}, roundRule{
		To:          repository.RoundBuilt,
		Description: "Round built",
		Guard: func(s *RoundSubject) error {
			if len(s.ApprovedEntries) == 0 {
				return reject(ReasonBuildPrecondition, "session has no approved entries")
			}
			return nil
		},
		Effect: func(s *RoundSubject, _ time.Time) error {
			buildRound(s)
			return nil
		},
	})
	m.On(ActionStart, []repository.RoundStatus{repository.RoundBuilt}, roundRule{
		To:          repository.RoundStarted,
		Description: "Round started",
	})
	m.On(ActionFinish, []repository.RoundStatus{repository.RoundStarted}, roundRule{
		To:          repository.RoundFinished,
		Description: "Round finished",
		Guard: func(s *RoundSubject) error {
			for _, appearance := range s.Appearances {
				if appearance.Status == repository.AppearanceStarted {
					return reject(ReasonAppearancesInProgress, "appearance %d is still on stage", appearance.ID)
				}
			}
			return nil
		},
	})
	m.On(ActionReview, []repository.RoundStatus{repository.RoundFinished, repository.RoundReviewed}, roundRule{
		To:          repository.RoundReviewed,
		Description: "Round reviewed",
		Guard: func(s *RoundSubject) error {
			for _, appearance := range s.Appearances {
				if appearance.Status != repository.AppearanceConfirmed {
					return reject(ReasonIncompleteConfirmation, "appearance %d is %s", appearance.ID, appearance.Status)
				}
				if appearance.VariancePending {
					return reject(ReasonVariancePending, "appearance %d has flagged variance", appearance.ID)
				}
				// scores corrected after confirmation must be confirmed again
				if !scoring.AggregateAppearance(appearance.Songs).Equal(scoring.FromAggregates(appearance.Aggregates)) {
					return reject(ReasonTotalsStale, "appearance %d has scores newer than its totals", appearance.ID)
				}
			}
			return nil
		},
	})
	m.On(ActionVerify, []repository.RoundStatus{repository.RoundReviewed, repository.RoundVerified}, roundRule{
		To:          repository.RoundVerified,
		Description: "Round verified",
		Effect: func(s *RoundSubject, _ time.Time) error {
			for _, outcome := range s.Outcomes {
				if err := ResolveOutcome(s.Round.Kind, outcome, s.Contenders[outcome.AwardID]); err != nil {
					return err
				}
			}
			return nil
		},
	})
	m.On(ActionPublish, []repository.RoundStatus{repository.RoundVerified}, roundRule{
		To:          repository.RoundPublished,
		Description: "Round published",
		Effect: func(s *RoundSubject, _ time.Time) error {
			for _, outcome := range s.Outcomes {
				outcome.Frozen = true
			}
			return nil
		},
	})
	return m
}

func buildRound(s *RoundSubject) {
	s.NewAppearances = make([]*repository.Appearance, 0, len(s.ApprovedEntries))
	for i, entry := range s.ApprovedEntries {
		songs := make([]*repository.Song, 0, SongsPerAppearance)
		for num := 1; num <= SongsPerAppearance; num++ {
			songs = append(songs, &repository.Song{Num: num})
		}
		s.NewAppearances = append(s.NewAppearances, &repository.Appearance{
			RoundID: s.Round.ID,
			EntryID: entry.ID,
			Num:     i + 1,
			Draw:    entry.Draw,
			Status:  repository.AppearanceNew,
			Songs:   songs,
		})
	}
	s.NewPanelists = make([]*repository.Panelist, 0, len(s.Assignments))
	for _, assignment := range s.Assignments {
		if assignment.Status != repository.ActivationActive || !assignment.Category.Sits() {
			continue
		}
		s.NewPanelists = append(s.NewPanelists, &repository.Panelist{
			RoundID:      s.Round.ID,
			AssignmentID: &assignment.ID,
			PersonName:   assignment.PersonName,
			Category:     assignment.Category,
			Kind:         assignment.Kind,
		})
	}
	s.NewOutcomes = make([]*repository.Outcome, 0, len(s.Contests))
	for _, contest := range s.Contests {
		if contest.Status != repository.ContestIncluded {
			continue
		}
		s.NewOutcomes = append(s.NewOutcomes, &repository.Outcome{
			RoundID: s.Round.ID,
			AwardID: contest.AwardID,
			Num:     len(s.NewOutcomes) + 1,
			Result:  repository.ResolutionPending,
		})
	}
}

// ResolveOutcome recomputes an outcome's name unless it is frozen.
func ResolveOutcome(roundKind repository.RoundKind, outcome *repository.Outcome, contenders []scoring.Contender) error {
	if outcome.Frozen {
		return nil
	}
	if outcome.Award == nil {
		return fmt.Errorf("outcome %d has no award loaded", outcome.ID)
	}
	resolution, err := scoring.Resolve(roundKind, outcome.Award, contenders)
	if err != nil {
		return err
	}
	outcome.Name = &resolution.Name
	outcome.Result = resolution.Kind
	return nil
}
