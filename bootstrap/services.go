package bootstrap

import (
	"context"
	"go_qa_assistant/config"
	"go_qa_assistant/models"
	"go_qa_assistant/services"
	"go_qa_assistant/utils"
)

type Services struct {
	PreferencesService *services.PreferencesService
	AnswerService      *services.AnswerService
	VersionStore       *services.VersionStore
	HistoryService     *services.HistoryService
	SessionService     *services.SessionService
	Sanitizer          *utils.Sanitizer
}

func NewServices(cfg *config.Config, repos *Repositories, infra *Infrastructure) *Services {
	res := &Services{}

	res.Sanitizer = utils.NewSanitizer()
	res.PreferencesService = services.NewPreferencesService(infra.Cache, models.DisplayMode(cfg.DisplayMode))
	res.AnswerService = services.NewAnswerService(infra.API, infra.Bus)
	res.VersionStore = services.NewVersionStore(repos.VersionRepository, infra.Cache, infra.Bus)
	res.HistoryService = services.NewHistoryService(repos.QuestionRepository, res.VersionStore, infra.Bus, cfg.ListingRefreshDelay)

	opts := services.SessionOptions{
		UserID:      cfg.UserID,
		Preferences: res.PreferencesService,
		Sanitizer:   res.Sanitizer,
		Publisher:   infra.Bus,
	}
	if cfg.RenderMarkdown {
		opts.Renderer = utils.NewMarkdownRenderer(res.Sanitizer)
	}
	res.SessionService = services.NewSessionService(res.AnswerService, res.VersionStore, res.HistoryService, opts)

	// a refreshed listing may reveal the persisted id of an unsaved question
	res.HistoryService.OnRefresh(func(questions []*models.Question) {
		res.SessionService.Reconcile(context.Background(), questions)
	})
	return res
}
