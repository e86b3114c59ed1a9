package models

import "time"

type EventType string

const (
	EventQuestionAnswered  EventType = "question_answered"
	EventVersionAdded      EventType = "version_added"
	EventConversationReset EventType = "conversation_reset"
	EventQuestionDeleted   EventType = "question_deleted"
)

type Event struct {
	Type           EventType           `json:"type"`
	QuestionID     string              `json:"question_id,omitempty"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Question       string              `json:"question,omitempty"`
	Response       string              `json:"response,omitempty"`
	ParentName     string              `json:"parent_name,omitempty"`
	Parameters     *ResponseParameters `json:"parameters,omitempty"`
	Version        *Version            `json:"version,omitempty"`
	Timestamp      time.Time           `json:"timestamp"`
}
