package repository

import (
	"context"
	"errors"
	"go_qa_assistant/models"
	"go_qa_assistant/pkg/apperr"
	"go_qa_assistant/pkg/logging"

	"gorm.io/gorm"
)

type versionRepository struct {
	db *gorm.DB
}

func NewVersionRepository(db *gorm.DB) VersionRepository {
	return &versionRepository{db: db}
}

func (r *versionRepository) List(ctx context.Context, questionID string) ([]*models.Version, error) {
	var records []*models.VersionRecord
	err := r.db.WithContext(ctx).Where("question_id = ?", questionID).Order("timestamp desc").Find(&records).Error
	if err != nil {
		logging.Logger.Error("fail ListVersions", "question_id", questionID, "error", err)
		return nil, apperr.Network("list versions", "database error", err)
	}
	out := make([]*models.Version, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ToVersion())
	}
	return out, nil
}

func (r *versionRepository) Create(ctx context.Context, questionID string, v *models.Version) (*models.Version, error) {
	rec := models.NewVersionRecord(questionID, v)
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		logging.Logger.Error("fail CreateVersion", "question_id", questionID, "error", err)
		return nil, apperr.Network("create version", "database error", err)
	}
	return rec.ToVersion(), nil
}

func (r *versionRepository) Update(ctx context.Context, questionID string, versionID string, patch models.VersionPatch) (*models.Version, error) {
	var rec models.VersionRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND question_id = ?", versionID, questionID).First(&rec).Error; err != nil {
			return err
		}
		updates := map[string]interface{}{}
		if patch.IsLiked != nil {
			rec.IsLiked = *patch.IsLiked
			updates["is_liked"] = rec.IsLiked
		}
		if patch.IsBookmarked != nil {
			rec.IsBookmarked = *patch.IsBookmarked
			updates["is_bookmarked"] = rec.IsBookmarked
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&rec).Updates(updates).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("update version", "version not found")
	}
	if err != nil {
		logging.Logger.Error("fail UpdateVersion", "version_id", versionID, "error", err)
		return nil, apperr.Network("update version", "database error", err)
	}
	return rec.ToVersion(), nil
}
