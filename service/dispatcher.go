package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"scorekeeper/client"
	"scorekeeper/metrics"
	"scorekeeper/workflow"

	"github.com/google/uuid"
)

const dispatchTimeout = 10 * time.Second

// Dispatcher sends report requests and notifications in the background once a transaction has
// committed. Failures are logged and counted; the committed transition stands.
type Dispatcher struct {
	reports  client.ReportRequester
	notifier client.Notifier
	inflight sync.WaitGroup
}

func NewDispatcher(reports client.ReportRequester, notifier client.Notifier) *Dispatcher {
	return &Dispatcher{reports: reports, notifier: notifier}
}

// NewNopDispatcher drops everything. Used by CLI commands and tests.
func NewNopDispatcher() *Dispatcher {
	return NewDispatcher(client.NopReportRequester{}, client.NopNotifier{})
}

// Wait blocks until every dispatch started so far has finished or timed out.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}

// dispatch runs send detached from the request, which may already be answered when it runs.
func (d *Dispatcher) dispatch(ctx context.Context, send func(ctx context.Context)) {
	ctx = context.WithoutCancel(ctx)
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
		defer cancel()
		send(ctx)
	}()
}

func (d *Dispatcher) Announce(ctx context.Context, entityType string, entityID int, transition *workflow.Transition) {
	notification := client.Notification{
		ID:         uuid.New(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     string(transition.Action),
		Status:     transition.To,
		Message:    transition.Description,
		Actor:      transition.Actor,
		Timestamp:  transition.Timestamp,
	}
	d.dispatch(ctx, func(ctx context.Context) {
		if err := d.notifier.Notify(ctx, notification); err != nil {
			slog.Warn("failed to announce transition", "entity_type", entityType, "entity_id", entityID, "action", transition.Action, "error", err)
		}
	})
}

func (d *Dispatcher) RequestReport(ctx context.Context, kind client.ReportKind, entityType string, entityID int, payload any) {
	request := client.NewReportRequest(kind, entityType, entityID, payload)
	d.dispatch(ctx, func(ctx context.Context) {
		if err := d.reports.RequestReport(ctx, request); err != nil {
			metrics.DispatchErrorCounter.WithLabelValues("report").Inc()
			slog.Error("failed to request report", "kind", kind, "entity_type", entityType, "entity_id", entityID, "error", err)
		}
	})
}
