package repository

import (
	"context"
	"encoding/json"
	"errors"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository returns the Postgres store. It also implements QuestionRecorder.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) List(ctx context.Context) ([]*models.Question, error) {
	var records []*models.QuestionRecord
	if err := r.db.WithContext(ctx).Order("created_at desc").Find(&records).Error; err != nil {
		logging.Logger.Error("fail ListQuestions", "error", err)
		return nil, apperr.Network("list questions", "database error", err)
	}
	out := make([]*models.Question, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ToQuestion())
	}
	return out, nil
}

func (r *questionRepository) Get(ctx context.Context, id string) (*models.Question, error) {
	var rec models.QuestionRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("get question", "question not found")
	}
	if err != nil {
		logging.Logger.Error("fail GetQuestion", "id", id, "error", err)
		return nil, apperr.Network("get question", "database error", err)
	}
	return rec.ToQuestion(), nil
}

func (r *questionRepository) Delete(ctx context.Context, id string) error {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.VersionRecord{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.QuestionRecord{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		logging.Logger.Error("fail DeleteQuestion", "id", id, "error", err)
		return apperr.Network("delete question", "database error", err)
	}
	if deleted == 0 {
		return apperr.NotFound("delete question", "question not found")
	}
	return nil
}

// Record upserts the question row keyed by its id.
func (r *questionRepository) Record(ctx context.Context, q *models.Question) error {
	rec := &models.QuestionRecord{
		ID:               q.ID.String(),
		Content:          q.Content,
		ParentName:       q.ParentName,
		ConversationID:   q.ConversationID.String(),
		SimpleResponse:   q.SimpleResponse,
		DetailedResponse: q.DetailedResponse,
		CreatedAt:        q.CreatedAt,
	}
	if len(q.SourceData) > 0 {
		raw, err := json.Marshal(q.SourceData)
		if err != nil {
			return err
		}
		rec.SourceData = raw
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"simple_response", "detailed_response", "source_data", "conversation_id"}),
	}).Create(rec).Error
	if err != nil {
		logging.Logger.Error("fail RecordQuestion", "id", rec.ID, "error", err)
		return apperr.Network("record question", "database error", err)
	}
	return nil
}
