package bootstrap

import (
	"go_qa_assistant/config"
	"go_qa_assistant/repository"
)

type Repositories struct {
	VersionRepository  repository.VersionRepository
	QuestionRepository repository.QuestionRepository
}

func NewRepositories(cfg *config.Config, infra *Infrastructure) *Repositories {
	if cfg.PersistenceMode == config.PersistencePostgres && infra.DB != nil {
		sqlDB := infra.DB.GetDatabase()
		return &Repositories{
			VersionRepository:  repository.NewVersionRepository(sqlDB),
			QuestionRepository: repository.NewQuestionRepository(sqlDB),
		}
	}
	return &Repositories{
		VersionRepository:  repository.NewAPIVersionRepository(infra.API),
		QuestionRepository: repository.NewAPIQuestionRepository(infra.API),
	}
}
