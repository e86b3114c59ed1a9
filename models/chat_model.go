package models

import "encoding/json"

// ResponseTypeText is the fixed response_type marker sent with every chat request.
const ResponseTypeText = "text"

type ChatRequest struct {
	Message        string             `json:"message"`
	ConversationID string             `json:"conversation_id,omitempty"`
	Parameters     ResponseParameters `json:"parameters"`
	ResponseType   string             `json:"response_type"`
	ParentName     string             `json:"parent_name,omitempty"`
}

type ChatResponse struct {
	DetailedResponse string                 `json:"detailed_response"`
	SimpleResponse   string                 `json:"simple_response"`
	Response         string                 `json:"response"`
	Sources          []json.RawMessage      `json:"sources"`
	Relationships    json.RawMessage        `json:"relationships"`
	ConversationID   FlexID                 `json:"conversation_id"`
	Metadata         map[string]interface{} `json:"metadata"`
	QuestionID       FlexID                 `json:"question_id"`
	ParentName       string                 `json:"parent_name"`
}

// ErrorBody covers the error shapes the API returns.
type ErrorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (b ErrorBody) Text() string {
	return firstNonEmpty(b.Detail, b.Message, b.Error)
}
