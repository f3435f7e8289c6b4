package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scorekeeper/metrics"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Notification announces a transition to operators and live displays.
type Notification struct {
	ID         uuid.UUID `json:"id"`
	EntityType string    `json:"entity_type"`
	EntityID   int       `json:"entity_id"`
	Action     string    `json:"action"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Actor      string    `json:"actor"`
	Timestamp  time.Time `json:"timestamp"`
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s %d] %s (%s by %s)", n.EntityType, n.EntityID, n.Message, n.Status, n.Actor)
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// NamedNotifier labels a channel for logs and the dispatch error metric.
type NamedNotifier struct {
	Name     string
	Notifier Notifier
}

// MultiNotifier fans a notification out to every channel. A failing channel does not stop the others.
type MultiNotifier struct {
	channels []NamedNotifier
}

func NewMultiNotifier(channels ...NamedNotifier) *MultiNotifier {
	return &MultiNotifier{channels: channels}
}

func (m *MultiNotifier) Notify(ctx context.Context, notification Notification) error {
	errs := make([]error, 0)
	for _, channel := range m.channels {
		if err := channel.Notifier.Notify(ctx, notification); err != nil {
			metrics.DispatchErrorCounter.WithLabelValues(channel.Name).Inc()
			slog.Warn("notification dispatch failed", "channel", channel.Name, "entity_type", notification.EntityType, "entity_id", notification.EntityID, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", channel.Name, err))
		}
	}
	return errors.Join(errs...)
}

type KafkaNotifier struct {
	writer MessageWriter
}

func NewKafkaNotifier(writer MessageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

func (k *KafkaNotifier) Notify(ctx context.Context, notification Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(notification.ID.String()),
		Value: data,
	})
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) error {
	return nil
}
