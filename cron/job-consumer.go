package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scorekeeper/client"
	"scorekeeper/metrics"
	"scorekeeper/repository"
	"scorekeeper/service"

	"github.com/segmentio/kafka-go"
)

const maxJobAttempts = 3

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type JobHandler func(ctx context.Context, job client.Job) error

// JobConsumer runs jobs from the job topic. An offset is committed once its job succeeded or
// ran out of attempts, so every job runs at least once.
type JobConsumer struct {
	reader   MessageReader
	handlers map[repository.JobType]JobHandler
	backoff  time.Duration
}

func NewJobConsumer(reader MessageReader, appearanceService *service.AppearanceService, entityService *service.EntityService) *JobConsumer {
	return &JobConsumer{
		reader:  reader,
		backoff: time.Second,
		handlers: map[repository.JobType]JobHandler{
			repository.ResortHierarchy: func(ctx context.Context, _ client.Job) error {
				_, err := entityService.ResortHierarchy(ctx)
				return err
			},
			repository.RecomputeAppearance: func(ctx context.Context, job client.Job) error {
				_, _, err := appearanceService.Recompute(ctx, job.EntityID)
				return err
			},
			repository.RecomputeConfirmed: func(ctx context.Context, _ client.Job) error {
				_, err := appearanceService.RecomputeConfirmed(ctx)
				return err
			},
		},
	}
}

func (c *JobConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("failed to fetch job: %w", err)
		}
		c.process(ctx, msg)
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("failed to commit job offset: %w", err)
		}
	}
}

func (c *JobConsumer) process(ctx context.Context, msg kafka.Message) {
	var job client.Job
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		slog.Error("dropping malformed job", "offset", msg.Offset, "error", err)
		metrics.JobsProcessedCounter.WithLabelValues("unknown", "malformed").Inc()
		return
	}
	handler, ok := c.handlers[job.Type]
	if !ok {
		slog.Error("dropping job of unknown type", "job_id", job.ID, "type", job.Type)
		metrics.JobsProcessedCounter.WithLabelValues(string(job.Type), "unknown").Inc()
		return
	}
	for attempt := 1; attempt <= maxJobAttempts; attempt++ {
		err := handler(ctx, job)
		if err == nil {
			metrics.JobsProcessedCounter.WithLabelValues(string(job.Type), "ok").Inc()
			return
		}
		slog.Warn("job failed", "job_id", job.ID, "type", job.Type, "entity_id", job.EntityID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
	metrics.JobsProcessedCounter.WithLabelValues(string(job.Type), "failed").Inc()
}
