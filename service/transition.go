package service

import (
	"context"
	"errors"

	"scorekeeper/metrics"
	"scorekeeper/repository"
	"scorekeeper/workflow"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("scorekeeper/service")

// Entity types recorded in state logs, report requests and notifications.
const (
	TypeConvention = "convention"
	TypeSession    = "session"
	TypeRound      = "round"
	TypeAppearance = "appearance"
	TypeEntry      = "entry"
	TypeContest    = "contest"
	TypeEntity     = "entity"
	TypeAward      = "award"
	TypeAssignment = "assignment"
	TypeContestant = "contestant"
	TypeOutcome    = "outcome"
)

const reasonNoSuchRule = "invalid_transition"

func startSpan(ctx context.Context, name string, entityID int, action workflow.Action) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.Int("entity.id", entityID),
		attribute.String("workflow.action", string(action)),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// appendStateLog writes the audit row inside the transaction that changed the status.
func appendStateLog(tx *gorm.DB, entityType string, entityID int, transition *workflow.Transition) error {
	return repository.NewStateLogRepository(tx).Append(&repository.StateLog{
		EntityType:  entityType,
		EntityID:    entityID,
		Action:      string(transition.Action),
		FromState:   transition.From,
		ToState:     transition.To,
		Actor:       transition.Actor,
		Timestamp:   transition.Timestamp,
		Description: transition.Description,
	})
}

// observe counts a committed transition or the reason it was refused.
func observe(machine string, transition *workflow.Transition, err error) {
	if err == nil && transition != nil {
		metrics.TransitionCounter.WithLabelValues(transition.Machine, string(transition.Action)).Inc()
		return
	}
	var guardErr *workflow.GuardError
	switch {
	case errors.As(err, &guardErr):
		metrics.TransitionRejectedCounter.WithLabelValues(machine, guardErr.Reason).Inc()
	case errors.Is(err, workflow.ErrInvalidTransition):
		metrics.TransitionRejectedCounter.WithLabelValues(machine, reasonNoSuchRule).Inc()
	}
}
