package services

import (
	"context"
	"errors"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/platform/events"
	"slices"
	"strings"
	"sync"
)

type SessionState string

const (
	StateIdle             SessionState = "idle"
	StateSubmitting       SessionState = "submitting"
	StateDisplayingAnswer SessionState = "displaying_answer"
	StateError            SessionState = "error"
)

type ConversationAction string

const (
	ConversationContinue ConversationAction = "continue"
	ConversationClose    ConversationAction = "close"
)

// ErrSuperseded is returned when the session moved on before a generation finished.
var ErrSuperseded = errors.New("session moved on before the answer arrived")

type Submission struct {
	Question           string                     `json:"question"`
	ConversationAction ConversationAction         `json:"conversation_action"`
	ParentName         string                     `json:"parent_name"`
	Parameters         *models.ResponseParameters `json:"parameters"`
	ClearOnly          bool                       `json:"clear_only"`
}

type Generator interface {
	Generate(ctx context.Context, question string, opts GenerateOptions) (*models.Answer, error)
}

type HistoryBrowser interface {
	Get(ctx context.Context, id string) (*models.Question, error)
	Delete(ctx context.Context, id string) error
}

// Renderer turns answer markdown into HTML for the editor.
type Renderer interface {
	Render(markdown string) (string, error)
}

// SessionView is the coordinator state as the UI reads it.
type SessionView struct {
	State             SessionState       `json:"state"`
	Question          string             `json:"question,omitempty"`
	QuestionID        string             `json:"question_id,omitempty"`
	ConversationID    string             `json:"conversation_id,omitempty"`
	ParentName        string             `json:"parent_name,omitempty"`
	DisplayMode       models.DisplayMode `json:"display_mode"`
	Answer            *models.Answer     `json:"answer,omitempty"`
	DisplayText       string             `json:"display_text,omitempty"`
	DisplayHTML       string             `json:"display_html,omitempty"`
	CurrentVersion    *models.Version    `json:"current_version,omitempty"`
	SelectedHistoryID string             `json:"selected_history_id,omitempty"`
	CloseConversation bool               `json:"close_conversation"`
	Error             string             `json:"error,omitempty"`
}

// Sanitizer cleans user-edited HTML before it is stored.
type Sanitizer interface {
	HTML(content string) string
}

type SessionOptions struct {
	UserID      string
	Preferences *PreferencesService
	Renderer    Renderer
	Sanitizer   Sanitizer
	Publisher   events.Publisher
}

// SessionService coordinates submissions, history selection and the version store.
// Every transition bumps token; a generation whose token is stale is dropped.
// storeMu orders the store work of transitions; mu is never held across a call.
type SessionService struct {
	generator Generator
	store     *VersionStore
	history   HistoryBrowser
	prefs     *PreferencesService
	renderer  Renderer
	sanitizer Sanitizer
	publisher events.Publisher
	userID    string

	storeMu sync.Mutex

	mu             sync.Mutex
	token          uint64
	state          SessionState
	question       string
	questionID     string
	conversationID string
	parentName     string
	displayMode    models.DisplayMode
	answer         *models.Answer
	versionMeta    map[string]interface{}
	selected       *models.Question
	closeAfter     bool
	err            error
	callbacks      []func(*models.Answer)
}

func NewSessionService(generator Generator, store *VersionStore, history HistoryBrowser, opts SessionOptions) *SessionService {
	publisher := opts.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	s := &SessionService{
		generator:   generator,
		store:       store,
		history:     history,
		prefs:       opts.Preferences,
		renderer:    opts.Renderer,
		sanitizer:   opts.Sanitizer,
		publisher:   publisher,
		userID:      opts.UserID,
		state:       StateIdle,
		displayMode: models.DisplayDetailed,
	}
	if s.prefs != nil {
		s.displayMode = s.prefs.Resolve(context.Background(), s.userID).DisplayMode
	}
	return s
}

// OnAnswer registers fn to be called with every answer the session displays.
func (s *SessionService) OnAnswer(fn func(*models.Answer)) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, fn)
	s.mu.Unlock()
}

// Submit sends a question. Empty questions and a resubmission of the selected
// historical question are dropped with a nil answer and a nil error. ClearOnly
// clears the display but stays on the current thread.
func (s *SessionService) Submit(ctx context.Context, sub Submission) (*models.Answer, error) {
	if sub.ClearOnly {
		s.mu.Lock()
		conversationID, parentName := s.conversationID, s.parentName
		s.clearLocked()
		s.conversationID, s.parentName = conversationID, parentName
		token := s.token
		s.mu.Unlock()
		s.resetStore(token)
		return nil, nil
	}
	question := strings.TrimSpace(sub.Question)
	if question == "" {
		return nil, nil
	}
	params := s.parameters(ctx, sub.Parameters)

	s.mu.Lock()
	if s.selected != nil && s.selected.Content == question {
		id := s.selected.ID.String()
		s.mu.Unlock()
		logging.Logger.Debug("resubmission of selected history question dropped", "question_id", id)
		return nil, nil
	}
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, apperr.Validation("submit", "a question is already being answered")
	}

	parentName := sub.ParentName
	if parentName == "" && s.selected != nil {
		parentName = s.selected.ParentName
	}
	if parentName == "" {
		parentName = s.parentName
	}
	conversationID := s.conversationID

	s.token++
	token := s.token
	s.state = StateSubmitting
	s.question = question
	s.questionID = ""
	s.parentName = parentName
	s.answer = nil
	s.selected = nil
	s.err = nil
	s.closeAfter = sub.ConversationAction == ConversationClose
	s.mu.Unlock()

	answer, err := s.generator.Generate(ctx, question, GenerateOptions{
		ConversationID: conversationID,
		ParentName:     parentName,
		Parameters:     &params,
	})

	s.mu.Lock()
	if s.token != token {
		s.mu.Unlock()
		logging.Logger.Info("stale answer discarded", "question", question)
		return nil, ErrSuperseded
	}
	if err != nil {
		s.state = StateError
		s.err = err
		s.mu.Unlock()
		return nil, err
	}

	s.state = StateDisplayingAnswer
	s.answer = answer
	s.questionID = answer.QuestionID
	s.conversationID = answer.ConversationID
	if s.closeAfter {
		s.conversationID = ""
		s.closeAfter = false
	}
	if answer.Metadata.ParentName != "" {
		s.parentName = answer.Metadata.ParentName
	}
	s.versionMeta = map[string]interface{}{
		models.MetaQuestion:       question,
		models.MetaParentName:     s.parentName,
		models.MetaConversationID: answer.ConversationID,
		models.MetaParameters:     params,
		models.MetaDisplayMode:    string(s.displayMode),
	}
	text := answer.Text(s.displayMode)
	meta := copyMetadata(s.versionMeta)
	questionID := s.questionID
	s.mu.Unlock()

	applied := s.withStore(token, func() bool {
		if questionID != "" {
			if _, err := s.store.LoadVersions(ctx, questionID); err != nil {
				logging.Logger.Warn("fail load versions after answer", "question_id", questionID, "error", err)
			}
		} else {
			s.store.Reset()
		}
		if !s.current(token) {
			return false
		}
		if err := s.showVersion(ctx, text, meta); err != nil {
			logging.Logger.Warn("fail add ai version", "question_id", questionID, "error", err)
		}
		return true
	})
	if !applied {
		logging.Logger.Info("stale answer discarded", "question", question)
		return nil, ErrSuperseded
	}

	s.notify(answer)
	return answer, nil
}

// SelectHistory displays a stored question without calling generation.
func (s *SessionService) SelectHistory(ctx context.Context, q *models.Question) (*models.Answer, error) {
	if q == nil {
		return nil, apperr.Validation("select history", "question is required")
	}
	s.mu.Lock()
	parentName := q.ParentName
	if parentName == "" {
		parentName = s.parentName
	}
	s.mu.Unlock()

	answer, err := s.generator.Generate(ctx, q.Content, GenerateOptions{
		IsHistoricalAnswer: true,
		QuestionID:         q.ID.String(),
		ConversationID:     q.ConversationID.String(),
		ParentName:         parentName,
		Response:           q.Response,
		SimpleResponse:     q.SimpleResponse,
		DetailedResponse:   q.DetailedResponse,
		SourceData:         q.SourceData,
		ResponseMetadata:   q.ResponseMetadata,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.token++
	token := s.token
	selected := *q
	s.selected = &selected
	s.state = StateDisplayingAnswer
	s.answer = answer
	s.question = q.Content
	s.questionID = q.ID.String()
	s.conversationID = q.ConversationID.String()
	s.parentName = parentName
	s.closeAfter = false
	s.err = nil
	s.versionMeta = map[string]interface{}{
		models.MetaQuestion:       q.Content,
		models.MetaParentName:     parentName,
		models.MetaConversationID: q.ConversationID.String(),
	}
	s.mu.Unlock()

	applied := s.withStore(token, func() bool {
		if _, err := s.store.LoadVersions(ctx, q.ID.String()); err != nil {
			logging.Logger.Warn("fail load versions for history", "question_id", q.ID.String(), "error", err)
		}
		return true
	})
	if !applied {
		return nil, ErrSuperseded
	}
	s.notify(answer)
	return answer, nil
}

func (s *SessionService) SelectHistoryByID(ctx context.Context, id string) (*models.Answer, error) {
	if s.history == nil {
		return nil, apperr.NotFound("select history", "history is unavailable")
	}
	q, err := s.history.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SelectHistory(ctx, q)
}

// NewConversation returns to Idle, resets the version store and tells listeners.
func (s *SessionService) NewConversation(ctx context.Context) {
	s.mu.Lock()
	s.clearLocked()
	token := s.token
	s.mu.Unlock()
	s.resetStore(token)

	if err := s.publisher.Publish(ctx, &models.Event{Type: models.EventConversationReset}); err != nil {
		logging.Logger.Error("fail publish event", "type", models.EventConversationReset, "error", err)
	}
}

// SetDisplayMode switches the shown variant. A live answer gets an ai version for
// the newly shown text when there is none yet, and that version becomes current.
func (s *SessionService) SetDisplayMode(ctx context.Context, mode models.DisplayMode) error {
	if !mode.Valid() {
		return apperr.Validation("set display mode", "display mode must be detailed or simplified")
	}
	s.mu.Lock()
	token := s.token
	s.displayMode = mode
	var text string
	var meta map[string]interface{}
	if s.state == StateDisplayingAnswer && s.answer != nil && !s.answer.IsHistorical {
		text = s.answer.Text(mode)
		meta = copyMetadata(s.versionMeta)
		if meta != nil {
			meta[models.MetaDisplayMode] = string(mode)
		}
	}
	s.mu.Unlock()

	if s.prefs != nil && s.userID != "" {
		if err := s.prefs.UpdateDisplayMode(ctx, s.userID, mode); err != nil {
			logging.Logger.Warn("fail store display mode", "user_id", s.userID, "error", err)
		}
	}
	if text == "" {
		return nil
	}
	var err error
	s.withStore(token, func() bool {
		err = s.showVersion(ctx, text, meta)
		return true
	})
	return err
}

// SaveVersion stores edited content for the displayed question. Content equal to the
// question text is dropped before sanitizing, so both are compared as typed.
func (s *SessionService) SaveVersion(ctx context.Context, content string, vtype models.VersionType) (*models.Version, error) {
	if vtype == "" {
		vtype = models.VersionUser
	}
	if vtype == models.VersionAI {
		return nil, apperr.Validation("save version", "edited content cannot be saved as an ai version")
	}
	s.mu.Lock()
	token := s.token
	if vtype == models.VersionUser && s.question != "" && content == s.question {
		s.mu.Unlock()
		return nil, nil
	}
	meta := copyMetadata(s.versionMeta)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	if s.question != "" {
		meta[models.MetaQuestion] = s.question
	}
	if s.parentName != "" {
		meta[models.MetaParentName] = s.parentName
	}
	s.mu.Unlock()

	if s.sanitizer != nil {
		content = s.sanitizer.HTML(content)
	}
	var (
		v   *models.Version
		err error
	)
	applied := s.withStore(token, func() bool {
		v, err = s.store.AddVersion(ctx, content, vtype, meta)
		return true
	})
	if !applied {
		return nil, ErrSuperseded
	}
	return v, err
}

// DeleteQuestion deletes through the history listing; the displayed question is
// cleared when it is the one deleted.
func (s *SessionService) DeleteQuestion(ctx context.Context, id string) error {
	if s.history == nil {
		return apperr.NotFound("delete question", "history is unavailable")
	}
	if err := s.history.Delete(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	displayed := s.questionID == id
	if displayed {
		s.clearLocked()
	}
	token := s.token
	s.mu.Unlock()
	if displayed {
		s.resetStore(token)
	}
	return nil
}

// Reconcile attaches the displayed question to its persisted record once the
// listing shows it, which upgrades any local versions.
func (s *SessionService) Reconcile(ctx context.Context, questions []*models.Question) {
	s.mu.Lock()
	if s.state != StateDisplayingAnswer || s.questionID != "" || s.question == "" {
		s.mu.Unlock()
		return
	}
	var match *models.Question
	for _, q := range questions {
		if q.Content == s.question && q.ID != "" {
			match = q
			break
		}
	}
	if match == nil {
		s.mu.Unlock()
		return
	}
	s.questionID = match.ID.String()
	if s.answer != nil && s.answer.QuestionID == "" {
		s.answer.QuestionID = s.questionID
	}
	id := s.questionID
	token := s.token
	s.mu.Unlock()

	s.withStore(token, func() bool {
		if err := s.store.AttachQuestion(ctx, id); err != nil {
			logging.Logger.Warn("fail attach local versions", "question_id", id, "error", err)
		}
		return true
	})
}

func (s *SessionService) Snapshot() SessionView {
	s.mu.Lock()
	view := SessionView{
		State:             s.state,
		Question:          s.question,
		QuestionID:        s.questionID,
		ConversationID:    s.conversationID,
		ParentName:        s.parentName,
		DisplayMode:       s.displayMode,
		CloseConversation: s.closeAfter,
	}
	if s.answer != nil {
		answer := *s.answer
		view.Answer = &answer
		view.DisplayText = s.answer.Text(s.displayMode)
	}
	if s.selected != nil {
		view.SelectedHistoryID = s.selected.ID.String()
	}
	if s.err != nil {
		view.Error = apperr.Message(s.err)
	}
	s.mu.Unlock()

	if view.Answer != nil {
		if current := s.store.CurrentVersion(); current != nil {
			view.CurrentVersion = current
			view.DisplayText = current.Content
		}
	}
	if s.renderer != nil && view.DisplayText != "" {
		html, err := s.renderer.Render(view.DisplayText)
		if err != nil {
			logging.Logger.Warn("fail render answer", "error", err)
		} else {
			view.DisplayHTML = html
		}
	}
	return view
}

func (s *SessionService) parameters(ctx context.Context, explicit *models.ResponseParameters) models.ResponseParameters {
	if explicit != nil {
		return explicit.WithDefaults()
	}
	if s.prefs != nil {
		return s.prefs.Resolve(ctx, s.userID).Parameters
	}
	return models.DefaultParameters()
}

func (s *SessionService) current(token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token == token
}

// withStore runs fn with the store to itself, only while token is current. It reports
// whether fn ran and returned true.
func (s *SessionService) withStore(token uint64, fn func() bool) bool {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if !s.current(token) {
		return false
	}
	return fn()
}

func (s *SessionService) resetStore(token uint64) {
	s.withStore(token, func() bool {
		s.store.Reset()
		return true
	})
}

// showVersion records text as an ai version and makes it the current one, including
// when an ai version with that text already exists.
func (s *SessionService) showVersion(ctx context.Context, text string, meta map[string]interface{}) error {
	v, err := s.store.AddVersion(ctx, text, models.VersionAI, meta)
	if err != nil || v == nil {
		return err
	}
	if _, err := s.store.Select(v.ID); err != nil {
		logging.Logger.Warn("fail select ai version", "version_id", v.ID.String(), "error", err)
	}
	return nil
}

func (s *SessionService) notify(answer *models.Answer) {
	s.mu.Lock()
	callbacks := slices.Clone(s.callbacks)
	s.mu.Unlock()
	for _, fn := range callbacks {
		fn(answer)
	}
}

func (s *SessionService) clearLocked() {
	s.token++
	s.state = StateIdle
	s.selected = nil
	s.answer = nil
	s.question = ""
	s.questionID = ""
	s.conversationID = ""
	s.parentName = ""
	s.versionMeta = nil
	s.closeAfter = false
	s.err = nil
}
