package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// SessionBroadcaster pushes session status updates to every subscribed
// client of a (quiz, class) pair. Delivery is at-least-once: a subscriber may
// see the same status twice and must treat updates as idempotent.
type SessionBroadcaster interface {
	Broadcast(ctx context.Context, update SessionStatusEvent) error
	Subscribe(ctx context.Context, quizID, classID uint) (<-chan SessionStatusEvent, error)
	Close() error
}

type channelBroadcaster struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// NewSessionBroadcaster builds an in-process pub/sub channel. Topics are
// keyed by (quizID, classID) so a subscriber only sees its own session.
func NewSessionBroadcaster(logger *slog.Logger) SessionBroadcaster {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
		Persistent:          false,
	}, watermill.NewSlogLogger(logger))

	return &channelBroadcaster{pubsub: pubsub, logger: logger}
}

func sessionTopic(quizID, classID uint) string {
	return fmt.Sprintf("session.%d.%d", quizID, classID)
}

func (b *channelBroadcaster) Broadcast(ctx context.Context, update SessionStatusEvent) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal session update: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	topic := sessionTopic(update.QuizID, update.ClassID)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to broadcast session update: %w", err)
	}

	b.logger.Info("Broadcast session status",
		"quiz_id", update.QuizID,
		"class_id", update.ClassID,
		"status", update.Status)
	return nil
}

// Subscribe returns a channel of decoded status updates. The channel closes
// when ctx is cancelled. Undecodable messages are acked and dropped so one
// bad payload cannot wedge the subscription.
func (b *channelBroadcaster) Subscribe(ctx context.Context, quizID, classID uint) (<-chan SessionStatusEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, sessionTopic(quizID, classID))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to session updates: %w", err)
	}

	out := make(chan SessionStatusEvent)
	go func() {
		defer close(out)
		for msg := range messages {
			var update SessionStatusEvent
			if err := json.Unmarshal(msg.Payload, &update); err != nil {
				b.logger.Warn("Dropping malformed session update", "error", err)
				msg.Ack()
				continue
			}
			select {
			case out <- update:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

func (b *channelBroadcaster) Close() error {
	return b.pubsub.Close()
}
