package models

import (
	"encoding/json"
	"time"
)

// Question is a submitted question as returned by the history API.
type Question struct {
	ID               FlexID                 `json:"id"`
	Content          string                 `json:"content"`
	ParentName       string                 `json:"parent_name,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	ConversationID   FlexID                 `json:"conversation_id,omitempty"`
	SimpleResponse   string                 `json:"simple_response,omitempty"`
	DetailedResponse string                 `json:"detailed_response,omitempty"`
	Response         string                 `json:"response,omitempty"`
	SourceData       []json.RawMessage      `json:"source_data,omitempty"`
	ResponseMetadata map[string]interface{} `json:"response_metadata,omitempty"`
}
