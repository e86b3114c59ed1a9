package services

import (
	"context"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/platform/events"
	"go_qa_assistant/repository"
	"slices"
	"sync"
	"time"
)

const DefaultListingRefreshDelay = time.Second

// HistoryService keeps the question listing shown in the sidebar.
type HistoryService struct {
	repo      repository.QuestionRepository
	recorder  repository.QuestionRecorder
	store     *VersionStore
	publisher events.Publisher
	delay     time.Duration

	mu        sync.Mutex
	questions []*models.Question
	err       error
	pending   *time.Timer
	listeners []func([]*models.Question)
}

func NewHistoryService(repo repository.QuestionRepository, store *VersionStore, publisher events.Publisher, delay time.Duration) *HistoryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if delay < 0 {
		delay = DefaultListingRefreshDelay
	}
	s := &HistoryService{repo: repo, store: store, publisher: publisher, delay: delay}
	if recorder, ok := repo.(repository.QuestionRecorder); ok {
		s.recorder = recorder
	}
	return s
}

// OnRefresh registers fn to be called with every refreshed listing.
func (s *HistoryService) OnRefresh(fn func([]*models.Question)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *HistoryService) Refresh(ctx context.Context) ([]*models.Question, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		logging.Logger.Error("fail RefreshHistory", "error", err)
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		return nil, err
	}
	slices.SortStableFunc(list, func(a, b *models.Question) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	s.mu.Lock()
	s.questions = list
	s.err = nil
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(slices.Clone(list))
	}
	return slices.Clone(list), nil
}

func (s *HistoryService) Questions() []*models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.questions)
}

func (s *HistoryService) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *HistoryService) Get(ctx context.Context, id string) (*models.Question, error) {
	return s.repo.Get(ctx, id)
}

// Delete removes the question remotely, then drops its versions from the cache.
func (s *HistoryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		logging.Logger.Error("fail DeleteQuestion", "id", id, "error", err)
		return err
	}
	if s.store != nil {
		s.store.Forget(id)
	}

	s.mu.Lock()
	s.questions = slices.DeleteFunc(slices.Clone(s.questions), func(q *models.Question) bool {
		return q.ID.String() == id
	})
	s.mu.Unlock()

	if err := s.publisher.Publish(ctx, &models.Event{Type: models.EventQuestionDeleted, QuestionID: id}); err != nil {
		logging.Logger.Error("fail publish event", "type", models.EventQuestionDeleted, "error", err)
	}
	return nil
}

// Run follows the event stream until ctx ends. Answers and new versions schedule a
// delayed refresh; a conversation reset cancels the pending one.
func (s *HistoryService) Run(ctx context.Context, subscriber events.Subscriber) error {
	ch, err := subscriber.Subscribe(ctx)
	if err != nil {
		return err
	}
	defer s.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			s.handle(ctx, event)
		}
	}
}

func (s *HistoryService) handle(ctx context.Context, event *models.Event) {
	switch event.Type {
	case models.EventQuestionAnswered:
		s.record(ctx, event)
		s.scheduleRefresh()
	case models.EventVersionAdded:
		s.scheduleRefresh()
	case models.EventConversationReset:
		s.cancelPending()
	}
}

// record writes the answered question when the store does not get it from the backend.
func (s *HistoryService) record(ctx context.Context, event *models.Event) {
	if s.recorder == nil {
		return
	}
	q := &models.Question{
		ID:               models.FlexID(event.QuestionID),
		Content:          event.Question,
		ParentName:       event.ParentName,
		ConversationID:   models.FlexID(event.ConversationID),
		DetailedResponse: event.Response,
		CreatedAt:        event.Timestamp,
	}
	if err := s.recorder.Record(ctx, q); err != nil {
		logging.Logger.Error("fail record question", "question", event.Question, "error", err)
	}
}

func (s *HistoryService) scheduleRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if s.pending != timer {
			s.mu.Unlock()
			return
		}
		s.pending = nil
		s.mu.Unlock()
		if _, err := s.Refresh(context.Background()); err != nil {
			logging.Logger.Warn("fail delayed history refresh", "error", err)
		}
	})
	s.pending = timer
}

func (s *HistoryService) cancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}
