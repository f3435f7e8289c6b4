package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

type recordingNotifier struct {
	received []Notification
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, notification Notification) error {
	n.received = append(n.received, notification)
	return n.err
}

type recordingMessenger struct {
	channel string
	content string
}

func (m *recordingMessenger) ChannelMessageSend(channelID string, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.channel = channelID
	m.content = content
	return &discordgo.Message{}, nil
}

func testNotification() Notification {
	return Notification{
		ID:         uuid.New(),
		EntityType: "round",
		EntityID:   7,
		Action:     "publish",
		Status:     "published",
		Message:    "Round published",
		Actor:      "drcj",
	}
}

func TestMultiNotifierFansOut(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("unreachable")}
	healthy := &recordingNotifier{}
	multi := NewMultiNotifier(
		NamedNotifier{Name: "failing", Notifier: failing},
		NamedNotifier{Name: "healthy", Notifier: healthy},
	)

	err := multi.Notify(context.Background(), testNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failing")
	assert.Len(t, failing.received, 1)
	assert.Len(t, healthy.received, 1, "a failing channel must not stop the others")
}

func TestKafkaNotifierEncodesNotification(t *testing.T) {
	writer := &recordingWriter{}
	notification := testNotification()

	require.NoError(t, NewKafkaNotifier(writer).Notify(context.Background(), notification))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, notification.ID.String(), string(writer.messages[0].Key))

	var decoded Notification
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &decoded))
	assert.Equal(t, notification.EntityID, decoded.EntityID)
	assert.Equal(t, "published", decoded.Status)
}

func TestKafkaReportRequester(t *testing.T) {
	writer := &recordingWriter{}
	request := NewReportRequest(ReportVariance, "appearance", 3, map[string]int{"flags": 2})

	require.NoError(t, NewKafkaReportRequester(writer).RequestReport(context.Background(), request))
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "appearance-3", string(writer.messages[0].Key))
	assert.Equal(t, request.ID.String(), string(writer.messages[0].Headers[0].Value))

	writer.err = errors.New("broker down")
	err := NewKafkaReportRequester(writer).RequestReport(context.Background(), request)
	assert.ErrorIs(t, err, writer.err)
}

func TestDiscordNotifierPostsToChannel(t *testing.T) {
	messenger := &recordingMessenger{}
	notifier := &DiscordNotifier{session: messenger, channelID: "123"}

	require.NoError(t, notifier.Notify(context.Background(), testNotification()))
	assert.Equal(t, "123", messenger.channel)
	assert.Equal(t, "[round 7] Round published (published by drcj)", messenger.content)
}
