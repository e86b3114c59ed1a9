package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QuestionRecord is the row layout used when the session talks to Postgres directly.
type QuestionRecord struct {
	ID               string         `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	Content          string         `gorm:"column:content;type:text;not null" json:"content"`
	ParentName       string         `gorm:"column:parent_name;type:varchar(255)" json:"parent_name"`
	ConversationID   string         `gorm:"column:conversation_id;type:varchar(64);index:idx_conversation_id" json:"conversation_id"`
	SimpleResponse   string         `gorm:"column:simple_response;type:text" json:"simple_response"`
	DetailedResponse string         `gorm:"column:detailed_response;type:text" json:"detailed_response"`
	SourceData       datatypes.JSON `gorm:"column:source_data" json:"source_data"`
	CreatedAt        time.Time      `gorm:"column:created_at;index:idx_question_created_at" json:"created_at"`
}

func (QuestionRecord) TableName() string {
	return "questions"
}

func (q *QuestionRecord) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	return nil
}

func (q *QuestionRecord) ToQuestion() *Question {
	out := &Question{
		ID:               FlexID(q.ID),
		Content:          q.Content,
		ParentName:       q.ParentName,
		CreatedAt:        q.CreatedAt,
		ConversationID:   FlexID(q.ConversationID),
		SimpleResponse:   q.SimpleResponse,
		DetailedResponse: q.DetailedResponse,
	}
	if len(q.SourceData) > 0 {
		var sources []json.RawMessage
		if err := json.Unmarshal(q.SourceData, &sources); err == nil {
			out.SourceData = sources
		}
	}
	return out
}

type VersionRecord struct {
	ID           string            `gorm:"column:id;type:varchar(64);primaryKey" json:"id"`
	QuestionID   string            `gorm:"column:question_id;type:varchar(64);not null;index:idx_version_question_id" json:"question_id"`
	Content      string            `gorm:"column:content;type:text;not null" json:"content"`
	Type         string            `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Timestamp    time.Time         `gorm:"column:timestamp" json:"timestamp"`
	IsLiked      bool              `gorm:"column:is_liked;default:false" json:"is_liked"`
	IsBookmarked bool              `gorm:"column:is_bookmarked;default:false" json:"is_bookmarked"`
	Metadata     datatypes.JSONMap `gorm:"column:metadata" json:"metadata"`
}

func (VersionRecord) TableName() string {
	return "question_versions"
}

func (v *VersionRecord) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	return nil
}

func (v *VersionRecord) ToVersion() *Version {
	return &Version{
		ID:           PersistedVersionID(v.ID),
		Content:      v.Content,
		Type:         VersionType(v.Type),
		Timestamp:    v.Timestamp,
		IsLiked:      v.IsLiked,
		IsBookmarked: v.IsBookmarked,
		Metadata:     map[string]interface{}(v.Metadata),
	}
}

func NewVersionRecord(questionID string, v *Version) *VersionRecord {
	return &VersionRecord{
		QuestionID:   questionID,
		Content:      v.Content,
		Type:         string(v.Type),
		Timestamp:    v.Timestamp,
		IsLiked:      v.IsLiked,
		IsBookmarked: v.IsBookmarked,
		Metadata:     datatypes.JSONMap(v.Metadata),
	}
}
