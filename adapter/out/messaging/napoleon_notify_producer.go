// Package messaging provides message queue adapters.
package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"napoleon_server/core/port/out"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Stream names. One stream per delivery channel; each has its own consumer
// (push gateway, mail sender, SMS provider bridge).
const (
	StreamNotifyPush    = "notify:push"
	StreamNotifyEmail   = "notify:email"
	StreamNotifySMS     = "notify:sms"
	StreamNotifyDesktop = "notify:desktop"
	StreamNotifyInApp   = "notify:in_app"

	// Streams are trimmed to bound memory; delivery is at-least-once.
	streamMaxLen = 10000
)

var channelStreams = map[string]string{
	"push":    StreamNotifyPush,
	"email":   StreamNotifyEmail,
	"sms":     StreamNotifySMS,
	"desktop": StreamNotifyDesktop,
	"in_app":  StreamNotifyInApp,
}

// deliveryJob is the wire payload one stream entry carries.
type deliveryJob struct {
	UserID   string    `json:"user_id"`
	Channel  string    `json:"channel"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}

// StreamSender implements out.NotificationSender by publishing delivery
// jobs onto per-channel Redis Streams.
type StreamSender struct {
	client *redis.Client
	log    zerolog.Logger
}

// NewStreamSender creates a new stream sender.
func NewStreamSender(client *redis.Client, log zerolog.Logger) *StreamSender {
	return &StreamSender{
		client: client,
		log:    log.With().Str("component", "notify-producer").Logger(),
	}
}

// Send publishes one delivery job for the channel.
func (s *StreamSender) Send(ctx context.Context, userID string, channel string, title, body string) error {
	stream, ok := channelStreams[channel]
	if !ok {
		return fmt.Errorf("unknown notification channel: %s", channel)
	}

	payload, err := json.Marshal(deliveryJob{
		UserID:   userID,
		Channel:  channel,
		Title:    title,
		Body:     body,
		QueuedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal delivery job: %w", err)
	}

	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{"payload": payload},
	}).Result()
	if err != nil {
		return err
	}

	s.log.Debug().Str("stream", stream).Str("id", id).Msg("delivery job queued")
	return nil
}

// Ensure interface compliance
var _ out.NotificationSender = (*StreamSender)(nil)
