package repository

import (
	"context"
	"go_qa_assistant/models"
	"go_qa_assistant/platform/api"
)

// The API-backed repositories forward to the persistence and history endpoints.

type apiVersionRepository struct {
	client *api.Client
}

func NewAPIVersionRepository(client *api.Client) VersionRepository {
	return &apiVersionRepository{client: client}
}

func (r *apiVersionRepository) List(ctx context.Context, questionID string) ([]*models.Version, error) {
	return r.client.ListVersions(ctx, questionID)
}

func (r *apiVersionRepository) Create(ctx context.Context, questionID string, v *models.Version) (*models.Version, error) {
	return r.client.CreateVersion(ctx, questionID, v)
}

func (r *apiVersionRepository) Update(ctx context.Context, questionID string, versionID string, patch models.VersionPatch) (*models.Version, error) {
	return r.client.UpdateVersion(ctx, questionID, versionID, patch)
}

type apiQuestionRepository struct {
	client *api.Client
}

func NewAPIQuestionRepository(client *api.Client) QuestionRepository {
	return &apiQuestionRepository{client: client}
}

func (r *apiQuestionRepository) List(ctx context.Context) ([]*models.Question, error) {
	return r.client.ListQuestions(ctx)
}

func (r *apiQuestionRepository) Get(ctx context.Context, id string) (*models.Question, error) {
	return r.client.GetQuestion(ctx, id)
}

func (r *apiQuestionRepository) Delete(ctx context.Context, id string) error {
	return r.client.DeleteQuestion(ctx, id)
}
