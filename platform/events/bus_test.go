package events

import (
	"context"
	"go_qa_assistant/models"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMirror struct {
	events []*models.Event
}

func (m *recordingMirror) Publish(_ context.Context, event *models.Event) error {
	m.events = append(m.events, event)
	return nil
}

func TestBusDeliversToEverySubscriber(t *testing.T) {
	mirror := &recordingMirror{}
	bus := NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)), mirror)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, &models.Event{Type: models.EventQuestionAnswered, QuestionID: "42"}))

	for _, ch := range []<-chan *models.Event{first, second} {
		select {
		case ev := <-ch:
			assert.Equal(t, models.EventQuestionAnswered, ev.Type)
			assert.Equal(t, "42", ev.QuestionID)
			assert.False(t, ev.Timestamp.IsZero())
		case <-time.After(2 * time.Second):
			t.Fatal("event not delivered")
		}
	}
	require.Len(t, mirror.events, 1)
}

func TestBusSubscriptionClosesWithContext(t *testing.T) {
	bus := NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not closed")
	}
}
