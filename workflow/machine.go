package workflow

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

type Action string

const (
	ActionBuild      Action = "build"
	ActionOpen       Action = "open"
	ActionClose      Action = "close"
	ActionStart      Action = "start"
	ActionFinish     Action = "finish"
	ActionConfirm    Action = "confirm"
	ActionReview     Action = "review"
	ActionVerify     Action = "verify"
	ActionPublish    Action = "publish"
	ActionInvite     Action = "invite"
	ActionSubmit     Action = "submit"
	ActionApprove    Action = "approve"
	ActionWithdraw   Action = "withdraw"
	ActionInclude    Action = "include"
	ActionExclude    Action = "exclude"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
)

// Rule is one entry of a transition table. Guard and Effect are optional.
// Effects run after the guard passed and receive the transition timestamp.
type Rule[S ~string, T any] struct {
	To          S
	Guard       func(subject T) error
	Effect      func(subject T, at time.Time) error
	Description string
}

// Transition is the audit record of a fired rule.
type Transition struct {
	Machine     string
	Action      Action
	From        string
	To          string
	Actor       string
	Timestamp   time.Time
	Description string
}

type ruleKey[S ~string] struct {
	from   S
	action Action
}

// Machine is a guarded transition table over states S for subjects T.
type Machine[S ~string, T any] struct {
	Name   string
	Clock  func() time.Time
	states []S
	rank   map[S]int
	rules  map[ruleKey[S]]Rule[S, T]
}

// NewMachine creates a machine whose states are ranked in the given order.
func NewMachine[S ~string, T any](name string, states ...S) *Machine[S, T] {
	rank := make(map[S]int, len(states))
	for i, s := range states {
		rank[s] = i
	}
	return &Machine[S, T]{
		Name:   name,
		Clock:  time.Now,
		states: states,
		rank:   rank,
		rules:  make(map[ruleKey[S]]Rule[S, T]),
	}
}

// On registers rule for action from every given state. Registering a pair twice panics.
func (m *Machine[S, T]) On(action Action, from []S, rule Rule[S, T]) *Machine[S, T] {
	if _, ok := m.rank[rule.To]; !ok {
		panic(fmt.Sprintf("%s: unknown target state %q", m.Name, rule.To))
	}
	for _, s := range from {
		if _, ok := m.rank[s]; !ok {
			panic(fmt.Sprintf("%s: unknown source state %q", m.Name, s))
		}
		key := ruleKey[S]{from: s, action: action}
		if _, exists := m.rules[key]; exists {
			panic(fmt.Sprintf("%s: duplicate rule for %s from %q", m.Name, action, s))
		}
		m.rules[key] = rule
	}
	return m
}

// Can reports whether a rule exists for action in state from. Guards are not evaluated.
func (m *Machine[S, T]) Can(from S, action Action) bool {
	_, ok := m.rules[ruleKey[S]{from: from, action: action}]
	return ok
}

// Actions lists the actions registered for a state, sorted by name.
func (m *Machine[S, T]) Actions(from S) []Action {
	actions := make([]Action, 0)
	for key := range m.rules {
		if key.from == from {
			actions = append(actions, key.action)
		}
	}
	slices.Sort(actions)
	return actions
}

// Rank is the position of s in the machine's state order, -1 when unknown.
func (m *Machine[S, T]) Rank(s S) int {
	if r, ok := m.rank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s has reached phase.
func (m *Machine[S, T]) AtLeast(s S, phase S) bool {
	return m.Rank(s) >= 0 && m.Rank(s) >= m.Rank(phase)
}

func (m *Machine[S, T]) States() []S {
	return append([]S(nil), m.states...)
}

// Fire evaluates the rule for (from, action) against subject. On success the caller persists
// the returned target state together with the transition record.
func (m *Machine[S, T]) Fire(subject T, from S, action Action, actor string) (*Transition, error) {
	rule, ok := m.rules[ruleKey[S]{from: from, action: action}]
	if !ok {
		return nil, &TransitionError{Machine: m.Name, Action: action, From: string(from)}
	}
	if rule.Guard != nil {
		if err := rule.Guard(subject); err != nil {
			var guardErr *GuardError
			if errors.As(err, &guardErr) {
				return nil, guardErr
			}
			return nil, &GuardError{Reason: ReasonGuardFailed, Detail: err.Error()}
		}
	}
	at := m.Clock()
	if rule.Effect != nil {
		if err := rule.Effect(subject, at); err != nil {
			return nil, err
		}
	}
	return &Transition{
		Machine:     m.Name,
		Action:      action,
		From:        string(from),
		To:          string(rule.To),
		Actor:       actor,
		Timestamp:   at,
		Description: rule.Description,
	}, nil
}
