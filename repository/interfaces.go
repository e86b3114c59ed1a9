package repository

import (
	"context"
	"go_qa_assistant/models"
)

type VersionRepository interface {
	List(ctx context.Context, questionID string) ([]*models.Version, error)
	Create(ctx context.Context, questionID string, v *models.Version) (*models.Version, error)
	Update(ctx context.Context, questionID string, versionID string, patch models.VersionPatch) (*models.Version, error)
}

type QuestionRepository interface {
	List(ctx context.Context) ([]*models.Question, error)
	Get(ctx context.Context, id string) (*models.Question, error)
	// Delete removes the question together with its versions.
	Delete(ctx context.Context, id string) error
}

// QuestionRecorder is implemented by stores that do not receive questions from the
// generation backend and need them written after an answer.
type QuestionRecorder interface {
	Record(ctx context.Context, q *models.Question) error
}
