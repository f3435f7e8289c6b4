package workflow

import (
	"time"

	"scorekeeper/repository"
)

// MaxRounds is the deepest round structure a session can have: quarters, semis and finals.
const MaxRounds = 3

type SessionSubject struct {
	Session *repository.Session
	Rounds  []*repository.Round
	// Awards of the convention's entity, used by build.
	Awards []*repository.Award

	NewRounds   []*repository.Round
	NewContests []*repository.Contest
}

type sessionRule = Rule[repository.SessionStatus, *SessionSubject]

var sessionPhases = []repository.SessionStatus{
	repository.SessionNew,
	repository.SessionBuilt,
	repository.SessionOpened,
	repository.SessionClosed,
	repository.SessionStarted,
	repository.SessionFinished,
	repository.SessionVerified,
}

func NewSessionMachine() *Machine[repository.SessionStatus, *SessionSubject] {
	rounds := NewRoundMachine()
	m := NewMachine[repository.SessionStatus, *SessionSubject]("session", sessionPhases...)

	roundsReached := func(phase repository.RoundStatus) func(*SessionSubject) error {
		return func(s *SessionSubject) error {
			for _, round := range s.Rounds {
				if !rounds.AtLeast(round.Status, phase) {
					return reject(ReasonChildrenBehind, "round %d is %s, needs %s", round.Num, round.Status, phase)
				}
			}
			return nil
		}
	}

	m.On(ActionBuild, []repository.SessionStatus{repository.SessionNew}, sessionRule{
		To:          repository.SessionBuilt,
		Description: "Session built",
		Guard: func(s *SessionSubject) error {
			if s.Session.NumRounds < 1 || s.Session.NumRounds > MaxRounds {
				return reject(ReasonBuildPrecondition, "session needs between 1 and %d rounds, has %d", MaxRounds, s.Session.NumRounds)
			}
			return nil
		},
		Effect: func(s *SessionSubject, _ time.Time) error {
			buildSession(s)
			return nil
		},
	})
	m.On(ActionOpen, []repository.SessionStatus{repository.SessionBuilt}, sessionRule{
		To:          repository.SessionOpened,
		Description: "Session opened for entries",
	})
	m.On(ActionClose, []repository.SessionStatus{repository.SessionOpened}, sessionRule{
		To:          repository.SessionClosed,
		Description: "Session closed for entries",
	})
	m.On(ActionStart, []repository.SessionStatus{repository.SessionClosed}, sessionRule{
		To:          repository.SessionStarted,
		Description: "Session started",
		Guard: func(s *SessionSubject) error {
			if len(s.Rounds) == 0 {
				return reject(ReasonChildrenBehind, "session has no rounds")
			}
			first := s.Rounds[0]
			for _, round := range s.Rounds[1:] {
				if round.Num < first.Num {
					first = round
				}
			}
			if !rounds.AtLeast(first.Status, repository.RoundBuilt) {
				return reject(ReasonChildrenBehind, "first round is %s", first.Status)
			}
			return nil
		},
	})
	m.On(ActionFinish, []repository.SessionStatus{repository.SessionStarted}, sessionRule{
		To:          repository.SessionFinished,
		Description: "Session finished",
		Guard:       roundsReached(repository.RoundFinished),
	})
	m.On(ActionVerify, []repository.SessionStatus{repository.SessionFinished}, sessionRule{
		To:          repository.SessionVerified,
		Description: "Session verified",
		Guard:       roundsReached(repository.RoundPublished),
	})
	return m
}

func buildSession(s *SessionSubject) {
	n := s.Session.NumRounds
	s.NewRounds = make([]*repository.Round, 0, n)
	for num := 1; num <= n; num++ {
		s.NewRounds = append(s.NewRounds, &repository.Round{
			SessionID: s.Session.ID,
			Num:       num,
			Kind:      repository.RoundKind(n - num + 1),
			Status:    repository.RoundNew,
		})
	}
	s.NewContests = make([]*repository.Contest, 0)
	for _, award := range s.Awards {
		if award.Status != repository.ActivationActive || !s.Session.Kind.Admits(award.Kind) {
			continue
		}
		s.NewContests = append(s.NewContests, &repository.Contest{
			SessionID: s.Session.ID,
			AwardID:   award.ID,
			Status:    repository.ContestIncluded,
		})
	}
}
