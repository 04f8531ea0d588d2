// Package event provides a pub/sub event bus for the server using watermill.
package event

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/zmachine-ai/zmachine-web/internal/logging"
)

// Type names an event topic.
type Type string

const (
	SessionCreated     Type = "session.created"
	SessionCommand     Type = "session.command"
	SessionSwept       Type = "session.swept"
	EnhanceSubstituted Type = "enhance.substituted"
)

// Event is one published event with a JSON payload.
type Event struct {
	Type Type            `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Payload types.
type (
	// SessionCreatedData announces a new session for a game.
	SessionCreatedData struct {
		Game      string `json:"game"`
		SessionID string `json:"sessionId"`
	}
	// SessionCommandData records one applied command.
	SessionCommandData struct {
		Game      string `json:"game"`
		SessionID string `json:"sessionId"`
		Command   string `json:"command"`
	}
	// SessionSweptData reports one expiry sweep pass.
	SessionSweptData struct {
		Removed int `json:"removed"`
	}
	// EnhanceSubstitutedData records a generated response replacing a
	// parser failure.
	EnhanceSubstitutedData struct {
		Robot   string `json:"robot"`
		Command string `json:"command"`
	}
)

// Bus routes events through a watermill gochannel pub/sub, one topic per
// event type.
type Bus struct {
	pubsub *gochannel.GoChannel
}

// globalBus is the default bus instance.
var globalBus = NewBus()

// NewBus creates a new event bus.
func NewBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{
				OutputChannelBuffer: 100,
				Persistent:          false,
			},
			watermill.NopLogger{},
		),
	}
}

// Publish marshals data and sends it on the global bus. Marshal failures are
// logged and dropped; events are advisory, not load-bearing.
func Publish(t Type, data any) {
	globalBus.Publish(t, data)
}

func (b *Bus) Publish(t Type, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		logging.Error().Err(err).Str("type", string(t)).Msg("drop unmarshalable event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(string(t), msg); err != nil {
		logging.Error().Err(err).Str("type", string(t)).Msg("publish event")
	}
}

// Subscribe returns a channel of events for one type on the global bus.
// The channel closes when ctx is canceled or the bus is closed.
func Subscribe(ctx context.Context, t Type) (<-chan Event, error) {
	return globalBus.Subscribe(ctx, t)
}

func (b *Bus) Subscribe(ctx context.Context, t Type) (<-chan Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, string(t))
	if err != nil {
		return nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range msgs {
			ev := Event{Type: t, Data: json.RawMessage(msg.Payload)}
			select {
			case out <- ev:
				msg.Ack()
			case <-ctx.Done():
				msg.Nack()
				return
			}
		}
	}()
	return out, nil
}

// Close shuts down the bus and all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Reset replaces the global bus (for testing).
func Reset() {
	_ = globalBus.Close()
	globalBus = NewBus()
}
