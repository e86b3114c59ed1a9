package events

import (
	"context"
	"go_qa_assistant/models"
)

// Topic carries every session event on the in-process bus.
const Topic = "qa.events"

type Publisher interface {
	Publish(ctx context.Context, event *models.Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *models.Event, error)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Event) error { return nil }
