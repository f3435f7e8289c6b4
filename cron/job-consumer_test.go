package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"scorekeeper/client"
	"scorekeeper/repository"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	pending   []kafka.Message
	committed []kafka.Message
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.pending) == 0 {
		return kafka.Message{}, context.Canceled
	}
	msg := r.pending[0]
	r.pending = r.pending[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func jobMessage(t *testing.T, offset int64, job client.Job) kafka.Message {
	data, err := json.Marshal(job)
	require.NoError(t, err)
	return kafka.Message{Offset: offset, Value: data}
}

func TestJobConsumerRunsAndCommits(t *testing.T) {
	reader := &fakeReader{}
	reader.pending = []kafka.Message{
		jobMessage(t, 1, client.NewJob(repository.RecomputeAppearance, 4)),
		{Offset: 2, Value: []byte("not json")},
		jobMessage(t, 3, client.NewJob("Unknown", 0)),
		jobMessage(t, 4, client.NewJob(repository.RecomputeAppearance, 5)),
	}
	recomputed := make([]int, 0)
	consumer := &JobConsumer{
		reader: reader,
		handlers: map[repository.JobType]JobHandler{
			repository.RecomputeAppearance: func(_ context.Context, job client.Job) error {
				recomputed = append(recomputed, job.EntityID)
				return nil
			},
		},
	}

	require.NoError(t, consumer.Run(context.Background()))
	assert.Equal(t, []int{4, 5}, recomputed)
	assert.Len(t, reader.committed, 4, "malformed and unknown jobs are skipped, not retried forever")
}

func TestJobConsumerRetriesFailedJobs(t *testing.T) {
	reader := &fakeReader{pending: []kafka.Message{jobMessage(t, 1, client.NewJob(repository.ResortHierarchy, 0))}}
	attempts := 0
	consumer := &JobConsumer{
		reader:  reader,
		backoff: time.Millisecond,
		handlers: map[repository.JobType]JobHandler{
			repository.ResortHierarchy: func(context.Context, client.Job) error {
				attempts++
				if attempts < 2 {
					return errors.New("deadlock detected")
				}
				return nil
			},
		},
	}

	require.NoError(t, consumer.Run(context.Background()))
	assert.Equal(t, 2, attempts)
	assert.Len(t, reader.committed, 1)
}

func TestJobConsumerGivesUpAfterMaxAttempts(t *testing.T) {
	reader := &fakeReader{pending: []kafka.Message{jobMessage(t, 1, client.NewJob(repository.ResortHierarchy, 0))}}
	attempts := 0
	consumer := &JobConsumer{
		reader:  reader,
		backoff: time.Millisecond,
		handlers: map[repository.JobType]JobHandler{
			repository.ResortHierarchy: func(context.Context, client.Job) error {
				attempts++
				return errors.New("no root")
			},
		},
	}

	require.NoError(t, consumer.Run(context.Background()))
	assert.Equal(t, maxJobAttempts, attempts)
	assert.Len(t, reader.committed, 1)
}
