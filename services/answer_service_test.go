package services

import (
	"context"
	"encoding/json"
	"errors"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_LiveRequestAndEvent(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{
		DetailedResponse: "Avoid X because...",
		Sources:          []json.RawMessage{json.RawMessage(`{"title":"doc"}`)},
		ConversationID:   "c-1",
		QuestionID:       "17",
		ParentName:       "Alex",
	}}
	pub := &recordingPublisher{}
	svc := NewAnswerService(chat, pub)

	answer, err := svc.Generate(context.Background(), "What foods should I avoid?", GenerateOptions{ParentName: "Sam"})
	require.NoError(t, err)

	req := chat.lastRequest()
	assert.Equal(t, "What foods should I avoid?", req.Message)
	assert.Equal(t, models.ResponseTypeText, req.ResponseType)
	assert.Equal(t, models.DefaultParameters(), req.Parameters)
	assert.Equal(t, "Sam", req.ParentName)

	assert.Equal(t, "Avoid X because...", answer.DetailedResponse)
	assert.Equal(t, "Avoid X because...", answer.SimpleResponse)
	assert.Equal(t, "c-1", answer.ConversationID)
	assert.Equal(t, "17", answer.QuestionID)
	assert.Equal(t, "Alex", answer.Metadata.ParentName)
	assert.False(t, answer.IsHistorical)

	state := svc.State()
	assert.Equal(t, "Alex", state.ParentName)
	assert.Equal(t, "c-1", state.ConversationID)
	assert.Len(t, state.Sources, 1)
	assert.False(t, state.Generating)

	answered := pub.ofType(models.EventQuestionAnswered)
	require.Len(t, answered, 1)
	assert.Equal(t, "What foods should I avoid?", answered[0].Question)
	assert.Equal(t, "Avoid X because...", answered[0].Response)
	assert.Equal(t, "Alex", answered[0].ParentName)
	require.NotNil(t, answered[0].Parameters)
}

func TestGenerate_ParentNameKeptWhenResponseHasNone(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{SimpleResponse: "short", ParentName: "Alex"}}
	svc := NewAnswerService(chat, nil)

	_, err := svc.Generate(context.Background(), "one", GenerateOptions{})
	require.NoError(t, err)

	chat.resp = &models.ChatResponse{SimpleResponse: "short again"}
	answer, err := svc.Generate(context.Background(), "two", GenerateOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Alex", svc.State().ParentName)
	assert.Equal(t, "Alex", answer.Metadata.ParentName)
	assert.Equal(t, "short again", answer.DetailedResponse)
}

func TestGenerate_PartialParametersGetDefaults(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{Response: "legacy"}}
	svc := NewAnswerService(chat, nil)

	answer, err := svc.Generate(context.Background(), "q", GenerateOptions{Parameters: &models.ResponseParameters{Tone: "warm"}})
	require.NoError(t, err)
	params := chat.lastRequest().Parameters
	assert.Equal(t, "warm", params.Tone)
	assert.Equal(t, "moderate", params.DetailLevel)
	assert.Equal(t, "legacy", answer.SimpleResponse)
	assert.Equal(t, "legacy", answer.DetailedResponse)
}

func TestGenerate_FailureKeepsServerMessage(t *testing.T) {
	chat := &fakeChat{err: apperr.Network("POST /chat", "model overloaded", nil)}
	pub := &recordingPublisher{}
	svc := NewAnswerService(chat, pub)

	_, err := svc.Generate(context.Background(), "q", GenerateOptions{})
	require.Error(t, err)
	assert.Equal(t, "model overloaded", apperr.Message(err))
	assert.Equal(t, 0, pub.count())
	assert.False(t, svc.Generating())
	assert.Equal(t, "model overloaded", svc.State().Error)
}

func TestGenerate_UntypedFailureGetsFallbackMessage(t *testing.T) {
	svc := NewAnswerService(&fakeChat{err: errors.New("EOF")}, nil)

	_, err := svc.Generate(context.Background(), "q", GenerateOptions{})
	assert.ErrorIs(t, err, apperr.ErrNetwork)
	assert.Equal(t, generationFallbackMessage, apperr.Message(err))
}

func TestGenerate_AuthErrorPassesThrough(t *testing.T) {
	svc := NewAnswerService(&fakeChat{err: apperr.Auth("POST /chat", "session expired")}, nil)

	_, err := svc.Generate(context.Background(), "q", GenerateOptions{})
	assert.ErrorIs(t, err, apperr.ErrAuth)
}

func TestGenerate_RejectsOverlappingCalls(t *testing.T) {
	chat := &fakeChat{
		resp:    &models.ChatResponse{DetailedResponse: "done"},
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	svc := NewAnswerService(chat, nil)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), "first", GenerateOptions{})
		done <- err
	}()
	<-chat.started
	assert.True(t, svc.Generating())

	_, err := svc.Generate(context.Background(), "second", GenerateOptions{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	close(chat.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, chat.callCount())
	assert.False(t, svc.Generating())
}

func TestGenerate_EmptyQuestion(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{}}
	svc := NewAnswerService(chat, nil)

	_, err := svc.Generate(context.Background(), "  ", GenerateOptions{})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 0, chat.callCount())
}

func TestGenerate_HistoricalDoesNotCallNetwork(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{}}
	pub := &recordingPublisher{}
	svc := NewAnswerService(chat, pub)

	answer, err := svc.Generate(context.Background(), "Old question", GenerateOptions{
		IsHistoricalAnswer: true,
		QuestionID:         "5",
		DetailedResponse:   "Only detailed",
		ResponseMetadata: map[string]interface{}{
			"response_parameters": map[string]interface{}{"tone": "direct"},
			"parent_name":         "Robin",
			"model":               "m1",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, chat.callCount())
	assert.Equal(t, 0, pub.count())
	assert.True(t, answer.IsHistorical)
	assert.Equal(t, "Only detailed", answer.SimpleResponse)
	assert.Equal(t, "Only detailed", answer.DetailedResponse)
	assert.Equal(t, "direct", answer.Metadata.Parameters.Tone)
	assert.Equal(t, "moderate", answer.Metadata.Parameters.Empathy)
	assert.Equal(t, "Robin", answer.Metadata.ParentName)
	assert.Equal(t, "m1", answer.Metadata.Extra["model"])
	assert.NotNil(t, answer.Sources)
}

func TestGenerate_SourcesAlwaysAList(t *testing.T) {
	chat := &fakeChat{resp: &models.ChatResponse{DetailedResponse: "No sources here", QuestionID: "3"}}
	svc := NewAnswerService(chat, nil)

	live, err := svc.Generate(context.Background(), "q", GenerateOptions{})
	require.NoError(t, err)
	historical, err := svc.Generate(context.Background(), "q", GenerateOptions{IsHistoricalAnswer: true, DetailedResponse: "old"})
	require.NoError(t, err)

	for _, answer := range []*models.Answer{live, historical} {
		require.NotNil(t, answer.Sources)
		raw, err := json.Marshal(answer)
		require.NoError(t, err)
		assert.Contains(t, string(raw), `"sources":[]`)
	}
}
