package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lightState string

type bulb struct {
	watts   int
	flipped int
}

func lightMachine() *Machine[lightState, *bulb] {
	m := NewMachine[lightState, *bulb]("light", "off", "on", "broken")
	m.On("switch_on", []lightState{"off"}, Rule[lightState, *bulb]{
		To:          "on",
		Description: "switched on",
		Guard: func(b *bulb) error {
			if b.watts == 0 {
				return reject("no_power", "bulb has no wattage")
			}
			return nil
		},
		Effect: func(b *bulb, _ time.Time) error {
			b.flipped++
			return nil
		},
	})
	m.On("switch_off", []lightState{"on"}, Rule[lightState, *bulb]{To: "off"})
	m.On("smash", []lightState{"off", "on"}, Rule[lightState, *bulb]{
		To: "broken",
		Guard: func(b *bulb) error {
			return errors.New("plain guard error")
		},
	})
	return m
}

func TestFireRecordsTransition(t *testing.T) {
	m := lightMachine()
	at := time.Date(2026, 7, 1, 19, 30, 0, 0, time.UTC)
	m.Clock = func() time.Time { return at }
	b := &bulb{watts: 60}

	transition, err := m.Fire(b, "off", "switch_on", "stagehand")
	require.NoError(t, err)
	assert.Equal(t, &Transition{
		Machine:     "light",
		Action:      "switch_on",
		From:        "off",
		To:          "on",
		Actor:       "stagehand",
		Timestamp:   at,
		Description: "switched on",
	}, transition)
	assert.Equal(t, 1, b.flipped)
}

func TestFireWithoutRuleIsInvalidTransition(t *testing.T) {
	m := lightMachine()
	_, err := m.Fire(&bulb{watts: 60}, "on", "switch_on", "stagehand")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	var transitionErr *TransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "on", transitionErr.From)
}

func TestFireGuardRejection(t *testing.T) {
	m := lightMachine()
	b := &bulb{}
	_, err := m.Fire(b, "off", "switch_on", "stagehand")
	assert.ErrorIs(t, err, ErrGuardRejected)
	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, "no_power", guardErr.Reason)
	assert.Equal(t, 0, b.flipped, "effect must not run when the guard rejects")
}

func TestFireWrapsPlainGuardErrors(t *testing.T) {
	_, err := lightMachine().Fire(&bulb{}, "on", "smash", "stagehand")
	var guardErr *GuardError
	require.ErrorAs(t, err, &guardErr)
	assert.Equal(t, ReasonGuardFailed, guardErr.Reason)
	assert.Equal(t, "plain guard error", guardErr.Detail)
}

func TestMachineIntrospection(t *testing.T) {
	m := lightMachine()
	assert.True(t, m.Can("off", "switch_on"))
	assert.False(t, m.Can("broken", "switch_on"))
	assert.Equal(t, []Action{"smash", "switch_on"}, m.Actions("off"))
	assert.Equal(t, 1, m.Rank("on"))
	assert.Equal(t, -1, m.Rank("melted"))
	assert.True(t, m.AtLeast("broken", "on"))
	assert.False(t, m.AtLeast("melted", "off"))
	assert.Equal(t, []lightState{"off", "on", "broken"}, m.States())
}

func TestOnPanicsOnDuplicateRule(t *testing.T) {
	m := lightMachine()
	assert.Panics(t, func() {
		m.On("switch_off", []lightState{"on"}, Rule[lightState, *bulb]{To: "off"})
	})
	assert.Panics(t, func() {
		m.On("repair", []lightState{"broken"}, Rule[lightState, *bulb]{To: "melted"})
	})
}
