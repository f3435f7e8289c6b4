package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

type ReportKind string

const (
	ReportVariance   ReportKind = "variance"
	ReportRoundOSS   ReportKind = "round_oss"
	ReportRoundSA    ReportKind = "round_sa"
	ReportSessionOSS ReportKind = "session_oss"
	ReportSessionSA  ReportKind = "session_sa"
)

// ReportRequest asks the report service to render an artifact. The service answers through the
// variance report callback or by storing the artifact under ID.
type ReportRequest struct {
	ID          uuid.UUID  `json:"id"`
	Kind        ReportKind `json:"kind"`
	EntityType  string     `json:"entity_type"`
	EntityID    int        `json:"entity_id"`
	RequestedAt time.Time  `json:"requested_at"`
	Payload     any        `json:"payload,omitempty"`
}

func NewReportRequest(kind ReportKind, entityType string, entityID int, payload any) ReportRequest {
	return ReportRequest{
		ID:          uuid.New(),
		Kind:        kind,
		EntityType:  entityType,
		EntityID:    entityID,
		RequestedAt: time.Now(),
		Payload:     payload,
	}
}

type ReportRequester interface {
	RequestReport(ctx context.Context, request ReportRequest) error
}

// MessageWriter is the part of *kafka.Writer used by the publishers.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaReportRequester struct {
	writer MessageWriter
}

func NewKafkaReportRequester(writer MessageWriter) *KafkaReportRequester {
	return &KafkaReportRequester{writer: writer}
}

func (r *KafkaReportRequester) RequestReport(ctx context.Context, request ReportRequest) error {
	data, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode report request: %w", err)
	}
	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%d", request.EntityType, request.EntityID)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "request_id", Value: []byte(request.ID.String())},
			{Key: "kind", Value: []byte(request.Kind)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish report request %s: %w", request.ID, err)
	}
	return nil
}

type NopReportRequester struct{}

func (NopReportRequester) RequestReport(context.Context, ReportRequest) error {
	return nil
}
