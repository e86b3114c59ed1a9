package services

import (
	"context"
	"encoding/json"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/platform/events"
	"strings"
	"sync"
)

const generationFallbackMessage = "Failed to get a response. Please try again."

// ChatAPI is the generation endpoint.
type ChatAPI interface {
	Chat(ctx context.Context, req *models.ChatRequest) (*models.ChatResponse, error)
}

// GenerateOptions configure one generation. The replay fields are only read when
// IsHistoricalAnswer is set.
type GenerateOptions struct {
	ConversationID     string
	ParentName         string
	Parameters         *models.ResponseParameters
	IsHistoricalAnswer bool

	QuestionID       string
	Response         string
	SimpleResponse   string
	DetailedResponse string
	SourceData       []json.RawMessage
	ResponseMetadata map[string]interface{}
}

// AnswerState is what the service remembers about the last live answer.
type AnswerState struct {
	LastAnswer     *models.Answer        `json:"last_answer,omitempty"`
	Sources        []json.RawMessage     `json:"sources,omitempty"`
	ConversationID string                `json:"conversation_id,omitempty"`
	QuestionID     string                `json:"question_id,omitempty"`
	ParentName     string                `json:"parent_name,omitempty"`
	Metadata       models.AnswerMetadata `json:"metadata"`
	Generating     bool                  `json:"generating"`
	Error          string                `json:"error,omitempty"`
}

type AnswerService struct {
	api       ChatAPI
	publisher events.Publisher

	mu    sync.Mutex
	state AnswerState
}

func NewAnswerService(api ChatAPI, publisher events.Publisher) *AnswerService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &AnswerService{api: api, publisher: publisher}
}

// Generate returns the canonical answer for question. Historical answers are rebuilt
// from opts without a request; live answers go to the chat endpoint, one at a time.
func (s *AnswerService) Generate(ctx context.Context, question string, opts GenerateOptions) (*models.Answer, error) {
	if opts.IsHistoricalAnswer {
		return historicalAnswer(opts), nil
	}
	if strings.TrimSpace(question) == "" {
		return nil, apperr.Validation("generate", "question is empty")
	}

	s.mu.Lock()
	if s.state.Generating {
		s.mu.Unlock()
		return nil, apperr.Validation("generate", "a generation is already in flight")
	}
	s.state.Generating = true
	s.state.Error = ""
	s.mu.Unlock()

	params := models.DefaultParameters()
	if opts.Parameters != nil {
		params = opts.Parameters.WithDefaults()
	}
	req := &models.ChatRequest{
		Message:        question,
		ConversationID: opts.ConversationID,
		Parameters:     params,
		ResponseType:   models.ResponseTypeText,
		ParentName:     opts.ParentName,
	}

	resp, err := s.api.Chat(ctx, req)
	if err != nil {
		err = generationError(err)
		logging.Logger.Error("fail Generate", "error", err)
		s.mu.Lock()
		s.state.Generating = false
		s.state.Error = apperr.Message(err)
		s.mu.Unlock()
		return nil, err
	}

	simple, detailed := models.NormalizeResponses(resp.SimpleResponse, resp.DetailedResponse, resp.Response)
	sources := resp.Sources
	if sources == nil {
		sources = []json.RawMessage{}
	}
	answer := &models.Answer{
		SimpleResponse:   simple,
		DetailedResponse: detailed,
		Sources:          sources,
		Relationships:    resp.Relationships,
		ConversationID:   resp.ConversationID.String(),
		QuestionID:       resp.QuestionID.String(),
		Metadata: models.AnswerMetadata{
			Parameters: params,
			ParentName: resp.ParentName,
			Extra:      resp.Metadata,
		},
	}
	if answer.ConversationID == "" {
		answer.ConversationID = opts.ConversationID
	}

	s.mu.Lock()
	s.state.Generating = false
	s.state.LastAnswer = answer
	s.state.Sources = answer.Sources
	s.state.ConversationID = answer.ConversationID
	s.state.QuestionID = answer.QuestionID
	s.state.Metadata = answer.Metadata
	if resp.ParentName != "" {
		s.state.ParentName = resp.ParentName
	}
	parentName := s.state.ParentName
	s.mu.Unlock()
	if answer.Metadata.ParentName == "" {
		answer.Metadata.ParentName = firstNonEmpty(opts.ParentName, parentName)
	}

	if err := s.publisher.Publish(ctx, &models.Event{
		Type:           models.EventQuestionAnswered,
		QuestionID:     answer.QuestionID,
		ConversationID: answer.ConversationID,
		Question:       question,
		Response:       answer.DetailedResponse,
		ParentName:     answer.Metadata.ParentName,
		Parameters:     &params,
	}); err != nil {
		logging.Logger.Error("fail publish event", "type", models.EventQuestionAnswered, "error", err)
	}
	return answer, nil
}

func (s *AnswerService) State() AnswerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *AnswerService) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Generating
}

func historicalAnswer(opts GenerateOptions) *models.Answer {
	simple, detailed := models.NormalizeResponses(opts.SimpleResponse, opts.DetailedResponse, opts.Response)
	meta := models.AnswerMetadata{
		Parameters: models.DefaultParameters(),
		ParentName: opts.ParentName,
	}
	if opts.Parameters != nil {
		meta.Parameters = opts.Parameters.WithDefaults()
	}
	if len(opts.ResponseMetadata) > 0 {
		extra := make(map[string]interface{}, len(opts.ResponseMetadata))
		for k, v := range opts.ResponseMetadata {
			switch k {
			case "response_parameters", "parameters":
				if p, ok := decodeParameters(v); ok {
					meta.Parameters = p
				}
			case models.MetaParentName:
				if name, ok := v.(string); ok && meta.ParentName == "" {
					meta.ParentName = name
				}
			default:
				extra[k] = v
			}
		}
		if len(extra) > 0 {
			meta.Extra = extra
		}
	}
	sources := opts.SourceData
	if sources == nil {
		sources = []json.RawMessage{}
	}
	return &models.Answer{
		SimpleResponse:   simple,
		DetailedResponse: detailed,
		Sources:          sources,
		Metadata:         meta,
		ConversationID:   opts.ConversationID,
		QuestionID:       opts.QuestionID,
		IsHistorical:     true,
	}
}

func decodeParameters(v interface{}) (models.ResponseParameters, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return models.ResponseParameters{}, false
	}
	var p models.ResponseParameters
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.ResponseParameters{}, false
	}
	return p.WithDefaults(), true
}

// generationError keeps typed errors and gives everything else the generic message.
func generationError(err error) error {
	if apperr.KindOf(err) != "" {
		return err
	}
	return apperr.Network("generate", generationFallbackMessage, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
