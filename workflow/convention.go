package workflow

import (
	"time"

	"scorekeeper/repository"
)

type ConventionSubject struct {
	Convention *repository.Convention
	Sessions   []*repository.Session

	NewSessions []*repository.Session
}

type conventionRule = Rule[repository.ConventionStatus, *ConventionSubject]

// NewConventionMachine mirrors the session phases. Every action after build requires each
// session to have reached the target phase already.
func NewConventionMachine() *Machine[repository.ConventionStatus, *ConventionSubject] {
	sessions := NewSessionMachine()
	m := NewMachine[repository.ConventionStatus, *ConventionSubject]("convention", sessionPhases...)

	sessionsReached := func(phase repository.SessionStatus) func(*ConventionSubject) error {
		return func(s *ConventionSubject) error {
			for _, session := range s.Sessions {
				if !sessions.AtLeast(session.Status, phase) {
					return reject(ReasonChildrenBehind, "%s session %d is %s, needs %s", session.Kind, session.ID, session.Status, phase)
				}
			}
			return nil
		}
	}

	m.On(ActionBuild, []repository.ConventionStatus{repository.SessionNew}, conventionRule{
		To:          repository.SessionBuilt,
		Description: "Convention built",
		Guard: func(s *ConventionSubject) error {
			if len(s.Convention.SessionKinds) == 0 {
				return reject(ReasonBuildPrecondition, "convention has no session kinds")
			}
			for _, kind := range s.Convention.SessionKinds {
				if _, err := repository.ParseSessionKind(kind); err != nil {
					return reject(ReasonBuildPrecondition, "%s", err)
				}
			}
			return nil
		},
		Effect: func(s *ConventionSubject, _ time.Time) error {
			s.NewSessions = make([]*repository.Session, 0, len(s.Convention.SessionKinds))
			for _, name := range s.Convention.SessionKinds {
				kind, err := repository.ParseSessionKind(name)
				if err != nil {
					return err
				}
				s.NewSessions = append(s.NewSessions, &repository.Session{
					ConventionID: s.Convention.ID,
					Kind:         kind,
					NumRounds:    DefaultRounds(kind),
					Status:       repository.SessionNew,
				})
			}
			return nil
		},
	})

	steps := []struct {
		action      Action
		from, to    repository.ConventionStatus
		description string
	}{
		{ActionOpen, repository.SessionBuilt, repository.SessionOpened, "Convention opened"},
		{ActionClose, repository.SessionOpened, repository.SessionClosed, "Convention closed"},
		{ActionStart, repository.SessionClosed, repository.SessionStarted, "Convention started"},
		{ActionFinish, repository.SessionStarted, repository.SessionFinished, "Convention finished"},
		{ActionVerify, repository.SessionFinished, repository.SessionVerified, "Convention verified"},
	}
	for _, step := range steps {
		m.On(step.action, []repository.ConventionStatus{step.from}, conventionRule{
			To:          step.to,
			Description: step.description,
			Guard:       sessionsReached(step.to),
		})
	}
	return m
}

// DefaultRounds is the round count given to sessions created by a convention build.
// Quartet contests run quarter-finals, semi-finals and finals.
func DefaultRounds(kind repository.SessionKind) int {
	if kind == repository.SessionKindQuartet {
		return MaxRounds
	}
	return 1
}
