package client

import (
	"context"
	"encoding/json"
	"fmt"

	"scorekeeper/repository"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Job is an idempotent unit of background work. Delivery is at least once.
type Job struct {
	ID       uuid.UUID          `json:"id"`
	Type     repository.JobType `json:"type"`
	EntityID int                `json:"entity_id,omitempty"`
}

func NewJob(jobType repository.JobType, entityID int) Job {
	return Job{ID: uuid.New(), Type: jobType, EntityID: entityID}
}

type JobQueue interface {
	Enqueue(ctx context.Context, job Job) error
}

type KafkaJobQueue struct {
	writer MessageWriter
}

func NewKafkaJobQueue(writer MessageWriter) *KafkaJobQueue {
	return &KafkaJobQueue{writer: writer}
}

func (q *KafkaJobQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	err = q.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%d", job.Type, job.EntityID)),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue %s job: %w", job.Type, err)
	}
	return nil
}

type NopJobQueue struct{}

func (NopJobQueue) Enqueue(context.Context, Job) error {
	return nil
}
