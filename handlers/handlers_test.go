package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/platform/cache"
	"go_qa_assistant/services"
	"go_qa_assistant/utils"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memVersions struct {
	mu       sync.Mutex
	versions map[string][]*models.Version
	next     int
}

func (m *memVersions) List(_ context.Context, questionID string) ([]*models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Version
	for _, v := range m.versions[questionID] {
		out = append(out, v.Clone())
	}
	return out, nil
}

func (m *memVersions) Create(_ context.Context, questionID string, v *models.Version) (*models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	created := v.Clone()
	created.ID = models.PersistedVersionID(fmt.Sprintf("%d", m.next))
	m.versions[questionID] = append(m.versions[questionID], created)
	return created.Clone(), nil
}

func (m *memVersions) Update(_ context.Context, questionID string, versionID string, patch models.VersionPatch) (*models.Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions[questionID] {
		if v.ID.String() == versionID {
			if patch.IsLiked != nil {
				v.IsLiked = *patch.IsLiked
			}
			if patch.IsBookmarked != nil {
				v.IsBookmarked = *patch.IsBookmarked
			}
			return v.Clone(), nil
		}
	}
	return nil, apperr.NotFound("update version", "version not found")
}

type memQuestions struct {
	questions []*models.Question
}

func (m *memQuestions) List(context.Context) ([]*models.Question, error) {
	return m.questions, nil
}

func (m *memQuestions) Get(_ context.Context, id string) (*models.Question, error) {
	for _, q := range m.questions {
		if q.ID.String() == id {
			return q, nil
		}
	}
	return nil, apperr.NotFound("get question", "question not found")
}

func (m *memQuestions) Delete(_ context.Context, id string) error {
	for i, q := range m.questions {
		if q.ID.String() == id {
			m.questions = append(m.questions[:i], m.questions[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("delete question", "question not found")
}

type stubChat struct {
	calls int
	err   error
}

func (s *stubChat) Chat(_ context.Context, req *models.ChatRequest) (*models.ChatResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.ChatResponse{
		DetailedResponse: "Detailed: " + req.Message,
		SimpleResponse:   "Simple: " + req.Message,
		ConversationID:   "c-1",
		QuestionID:       "q-1",
	}, nil
}

type testEnv struct {
	app      *fiber.App
	chat     *stubChat
	versions *memVersions
	store    *services.VersionStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cacheService := cache.NewCacheService(cache.InitL1Cache(), nil)
	versions := &memVersions{versions: map[string][]*models.Version{}}
	questions := &memQuestions{questions: []*models.Question{
		{ID: "h1", Content: "Stored question", SimpleResponse: "stored simple"},
	}}
	chat := &stubChat{}

	store := services.NewVersionStore(versions, cacheService, nil)
	history := services.NewHistoryService(questions, store, nil, 0)
	session := services.NewSessionService(services.NewAnswerService(chat, nil), store, history, services.SessionOptions{
		Sanitizer: utils.NewSanitizer(),
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	sessionHandler := NewSessionHandler(session)
	versionHandler := NewVersionHandler(store, session)
	historyHandler := NewHistoryHandler(history, session)

	app.Get("/api/session", sessionHandler.GetSession)
	app.Post("/api/session/questions", sessionHandler.Submit)
	app.Post("/api/session/new", sessionHandler.NewConversation)
	app.Post("/api/session/history/:question_id", sessionHandler.SelectHistory)
	app.Put("/api/session/display-mode", sessionHandler.SetDisplayMode)
	app.Get("/api/versions", versionHandler.List)
	app.Get("/api/versions/current", versionHandler.Current)
	app.Post("/api/versions", versionHandler.Save)
	app.Post("/api/versions/reload", versionHandler.Reload)
	app.Put("/api/versions/:version_id/select", versionHandler.Select)
	app.Post("/api/versions/:version_id/like", versionHandler.ToggleLike)
	app.Post("/api/versions/:version_id/bookmark", versionHandler.ToggleBookmark)
	app.Get("/api/versions/:version_id/diff", versionHandler.Diff)
	app.Get("/api/history", historyHandler.List)
	app.Delete("/api/history/:question_id", historyHandler.Delete)

	return &testEnv{app: app, chat: chat, versions: versions, store: store}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestSubmitAndEditFlow(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{
		"question": "What foods should I avoid?",
	})
	require.Equal(t, http.StatusOK, status)
	session := body["session"].(map[string]interface{})
	assert.Equal(t, "displaying_answer", session["state"])
	assert.Equal(t, "Detailed: What foods should I avoid?", session["display_text"])

	status, body = env.do(t, http.MethodPost, "/api/versions", map[string]interface{}{
		"content": "<p>Updated text<script>alert(1)</script></p>",
	})
	require.Equal(t, http.StatusCreated, status)
	version := body["version"].(map[string]interface{})
	assert.Equal(t, "<p>Updated text</p>", version["content"])
	assert.Equal(t, "user", version["type"])

	status, body = env.do(t, http.MethodPost, "/api/versions", map[string]interface{}{
		"content": "<p>Updated text</p>",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["created"])

	status, body = env.do(t, http.MethodGet, "/api/versions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["versions"], 2)
	assert.Equal(t, "q-1", body["question_id"])
}

func TestSubmitValidation(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{
		"question":            "hi",
		"conversation_action": "archive",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])

	status, body = env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{"question": ""})
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["answer"])
	assert.Equal(t, 0, env.chat.calls)
}

func TestSubmitErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	env.chat.err = apperr.Auth("POST /chat", "session expired")
	status, body := env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{"question": "q"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "session expired", body["error"])

	env.chat.err = apperr.Network("POST /chat", "model overloaded", nil)
	status, body = env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{"question": "q"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "model overloaded", body["error"])
}

func TestSelectHistoryDoesNotGenerate(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/session/history/h1", nil)
	require.Equal(t, http.StatusOK, status)
	answer := body["answer"].(map[string]interface{})
	assert.Equal(t, "stored simple", answer["detailed_response"])
	assert.Equal(t, true, answer["is_historical"])
	assert.Equal(t, 0, env.chat.calls)

	status, _ = env.do(t, http.MethodPost, "/api/session/history/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDisplayModeAndNewConversation(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodPut, "/api/session/display-mode", map[string]interface{}{"display_mode": "wide"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := env.do(t, http.MethodPut, "/api/session/display-mode", map[string]interface{}{"display_mode": "simplified"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "simplified", body["display_mode"])

	_, _ = env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{"question": "q"})
	status, body = env.do(t, http.MethodGet, "/api/versions/current", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Simple: q", body["content"])

	status, body = env.do(t, http.MethodPost, "/api/session/new", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "idle", body["state"])

	status, _ = env.do(t, http.MethodGet, "/api/versions/current", nil)
	assert.Equal(t, http.StatusNotFound, status)
	status, _ = env.do(t, http.MethodPost, "/api/versions/reload", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestVersionTogglesSelectAndDiff(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{"question": "q"})
	_, body := env.do(t, http.MethodPost, "/api/versions", map[string]interface{}{"content": "Edited answer"})
	userID := body["version"].(map[string]interface{})["id"].(string)
	aiID := "1"

	status, body := env.do(t, http.MethodPost, "/api/versions/"+aiID+"/like", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["changed"])
	assert.Equal(t, true, body["version"].(map[string]interface{})["is_liked"])

	status, body = env.do(t, http.MethodPost, "/api/versions/"+aiID+"/bookmark", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["version"].(map[string]interface{})["is_bookmarked"])

	status, body = env.do(t, http.MethodPost, "/api/versions/nope/like", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["changed"])

	status, body = env.do(t, http.MethodGet, "/api/versions/"+aiID+"/diff?against="+userID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["diff"], "-Edited answer")
	assert.Contains(t, body["diff"], "+Detailed: q")

	status, body = env.do(t, http.MethodPut, "/api/versions/"+aiID+"/select", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Detailed: q", body["content"])

	status, _ = env.do(t, http.MethodPut, "/api/versions/nope/select", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = env.do(t, http.MethodPost, "/api/versions/reload", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["versions"], 2)
}

func TestHistoryListAndDelete(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["questions"], 1)

	status, _ = env.do(t, http.MethodDelete, "/api/history/h1", nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.do(t, http.MethodDelete, "/api/history/h1", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestSaveRejectsQuestionTextWithMarkup(t *testing.T) {
	env := newTestEnv(t)
	_, _ = env.do(t, http.MethodPost, "/api/session/questions", map[string]interface{}{"question": "Is x < y?"})

	status, body := env.do(t, http.MethodPost, "/api/versions", map[string]interface{}{"content": "Is x < y?"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["created"])

	status, body = env.do(t, http.MethodGet, "/api/versions", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["versions"], 1)
}
