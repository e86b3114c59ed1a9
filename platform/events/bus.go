package events

import (
	"context"
	"encoding/json"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/logging"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus is the in-process publish/subscribe service connecting the session, the
// version store, the history listing and the websocket stream.
type Bus struct {
	pubsub  *gochannel.GoChannel
	mirrors []Publisher
}

// NewBus creates the bus. Every published event is also handed to mirrors, e.g. Redis
// for other processes; mirror failures are logged and never fail the publish.
func NewBus(logger *slog.Logger, mirrors ...Publisher) *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: 64,
		}, NewSlogAdapter(logger)),
		mirrors: mirrors,
	}
}

func (b *Bus) Publish(ctx context.Context, event *models.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Error("fail Publish", "type", event.Type, "error", err)
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(Topic, msg); err != nil {
		logging.Logger.Error("fail Publish", "type", event.Type, "error", err)
		return err
	}
	for _, m := range b.mirrors {
		if err := m.Publish(ctx, event); err != nil {
			logging.Logger.Error("fail mirror Publish", "type", event.Type, "error", err)
		}
	}
	logging.Logger.Debug("Publish", "type", event.Type, "questionID", event.QuestionID)
	return nil
}

// Subscribe streams events until ctx is cancelled. Events published before the call are not replayed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *models.Event, error) {
	msgs, err := b.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		logging.Logger.Error("fail Subscribe", "error", err)
		return nil, err
	}
	ch := make(chan *models.Event, 64)
	go func() {
		defer close(ch)
		for msg := range msgs {
			var event models.Event
			err := json.Unmarshal(msg.Payload, &event)
			msg.Ack()
			if err != nil {
				logging.Logger.Error("Failed to unmarshal event", "error", err)
				continue
			}
			select {
			case ch <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

var (
	_ Publisher  = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)
