package events

import (
	"context"
	"encoding/json"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/logging"
	"time"

	"github.com/redis/go-redis/v9"
)

const RedisEventChannel = "qa:events"

// RedisEvents mirrors session events onto a Redis channel so other processes
// (a second UI, `qa events`) can follow the same session.
type RedisEvents struct {
	redisClient *redis.Client
}

func NewRedisEvents(redisClient *redis.Client) *RedisEvents {
	return &RedisEvents{redisClient: redisClient}
}

func (p *RedisEvents) Publish(ctx context.Context, event *models.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		logging.Logger.Error("fail RedisEvents.Publish", "error", err)
		return err
	}
	if err := p.redisClient.Publish(ctx, RedisEventChannel, string(data)).Err(); err != nil {
		logging.Logger.Error("fail RedisEvents.Publish", "error", err)
		return err
	}
	return nil
}

func (p *RedisEvents) Subscribe(ctx context.Context) (<-chan *models.Event, error) {
	pubsub := p.redisClient.Subscribe(ctx, RedisEventChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		logging.Logger.Error("fail RedisEvents.Subscribe", "error", err)
		return nil, err
	}
	ch := make(chan *models.Event, 100)

	go func() {
		defer close(ch)
		defer func(pubsub *redis.PubSub) {
			if err := pubsub.Close(); err != nil {
				logging.Logger.Error("fail closing redis pubsub", "error", err)
			}
		}(pubsub)

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event models.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					logging.Logger.Error("Failed to unmarshal event", "error", err)
					continue
				}
				select {
				case ch <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

var (
	_ Publisher  = (*RedisEvents)(nil)
	_ Subscriber = (*RedisEvents)(nil)
)
