package services

import (
	"context"
	"fmt"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/platform/cache"
	"slices"
	"sync"
	"testing"
	"time"
)

func newTestCache() cache.CacheService {
	return cache.NewCacheService(cache.InitL1Cache(), nil)
}

type fakeVersionRepo struct {
	mu        sync.Mutex
	versions  map[string][]*models.Version
	nextID    int
	listCalls int
	failList  error
	failNext  error
	failWrite error
	// listing, when set, receives once per List call, which then waits for listGate.
	listing  chan struct{}
	listGate chan struct{}
}

func newFakeVersionRepo() *fakeVersionRepo {
	return &fakeVersionRepo{versions: map[string][]*models.Version{}}
}

func (r *fakeVersionRepo) List(_ context.Context, questionID string) ([]*models.Version, error) {
	if r.listing != nil {
		r.listing <- struct{}{}
		<-r.listGate
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	if r.failList != nil {
		return nil, r.failList
	}
	return cloneVersions(r.versions[questionID]), nil
}

func (r *fakeVersionRepo) Create(_ context.Context, questionID string, v *models.Version) (*models.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return nil, err
	}
	if r.failWrite != nil {
		return nil, r.failWrite
	}
	r.nextID++
	created := v.Clone()
	created.ID = models.PersistedVersionID(fmt.Sprintf("%d", r.nextID))
	r.versions[questionID] = append(r.versions[questionID], created)
	return created.Clone(), nil
}

func (r *fakeVersionRepo) Update(_ context.Context, questionID string, versionID string, patch models.VersionPatch) (*models.Version, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return nil, r.failWrite
	}
	for _, v := range r.versions[questionID] {
		if v.ID.String() != versionID {
			continue
		}
		if patch.IsLiked != nil {
			v.IsLiked = *patch.IsLiked
		}
		if patch.IsBookmarked != nil {
			v.IsBookmarked = *patch.IsBookmarked
		}
		return v.Clone(), nil
	}
	return nil, apperr.NotFound("update version", "version not found")
}

func (r *fakeVersionRepo) seed(questionID string, versions ...*models.Version) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.versions[questionID] = append(r.versions[questionID], versions...)
}

func (r *fakeVersionRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

type fakeChat struct {
	mu       sync.Mutex
	calls    int
	requests []*models.ChatRequest
	resp     *models.ChatResponse
	err      error
	release  chan struct{}
	started  chan struct{}
}

func (c *fakeChat) Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	c.mu.Lock()
	c.calls++
	c.requests = append(c.requests, req)
	resp, err, release, started := c.resp, c.err, c.release, c.started
	c.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	out := *resp
	return &out, nil
}

func (c *fakeChat) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *fakeChat) lastRequest() *models.ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) ofType(t models.EventType) []*models.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*models.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeQuestionRepo struct {
	mu        sync.Mutex
	questions []*models.Question
	listCalls int
	recorded  []*models.Question
}

func (r *fakeQuestionRepo) List(context.Context) ([]*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	return slices.Clone(r.questions), nil
}

func (r *fakeQuestionRepo) Get(_ context.Context, id string) (*models.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.ID.String() == id {
			out := *q
			return &out, nil
		}
	}
	return nil, apperr.NotFound("get question", "question not found")
}

func (r *fakeQuestionRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, q := range r.questions {
		if q.ID.String() == id {
			r.questions = slices.Delete(r.questions, i, i+1)
			return nil
		}
	}
	return apperr.NotFound("delete question", "question not found")
}

func (r *fakeQuestionRepo) listCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listCalls
}

// recordingQuestionRepo also implements repository.QuestionRecorder.
type recordingQuestionRepo struct {
	fakeQuestionRepo
}

func (r *recordingQuestionRepo) Record(_ context.Context, q *models.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, q)
	r.questions = append(r.questions, q)
	return nil
}

func at(minute int) time.Time {
	return time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
