package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"scorekeeper/client"
	"scorekeeper/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatedNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	sent    []client.Notification
}

func (n *gatedNotifier) Notify(ctx context.Context, notification client.Notification) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

type gatedReports struct {
	release  chan struct{}
	mu       sync.Mutex
	requests []client.ReportRequest
}

func (r *gatedReports) RequestReport(ctx context.Context, request client.ReportRequest) error {
	select {
	case <-r.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, request)
	return nil
}

func TestDispatcherDoesNotBlockOnSlowChannels(t *testing.T) {
	release := make(chan struct{})
	notifier := &gatedNotifier{release: release}
	reports := &gatedReports{release: release}
	dispatcher := NewDispatcher(reports, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	transition := &workflow.Transition{Action: workflow.ActionPublish, To: "published", Actor: actor, Timestamp: time.Now()}

	done := make(chan struct{})
	go func() {
		dispatcher.Announce(ctx, TypeRound, 7, transition)
		dispatcher.RequestReport(ctx, client.ReportRoundOSS, TypeRound, 7, nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked the caller")
	}

	// the request finishing must not cancel delivery
	cancel()
	close(release)
	dispatcher.Wait()

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, 7, notifier.sent[0].EntityID)
	assert.Equal(t, string(workflow.ActionPublish), notifier.sent[0].Action)
	require.Len(t, reports.requests, 1)
	assert.Equal(t, client.ReportRoundOSS, reports.requests[0].Kind)
}
