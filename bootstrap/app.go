package bootstrap

import (
	"context"
	"go_qa_assistant/config"
	"go_qa_assistant/handlers"
	"go_qa_assistant/middleware"
	"go_qa_assistant/pkg/logging"
	"go_qa_assistant/routes"

	"github.com/gofiber/fiber/v2"
)

type App struct {
	Cfg            *config.Config
	Infrastructure *Infrastructure
	Repositories   *Repositories
	Services       *Services
	Handlers       *Handlers

	cancel context.CancelFunc
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Cfg: cfg}
	infra, err := NewInfrastructure(cfg)
	if err != nil {
		logging.Logger.Error("fail NewInfrastructure", "error", err)
		return nil, err
	}
	app.Infrastructure = infra

	// repos
	repos := NewRepositories(cfg, infra)
	app.Repositories = repos

	// services
	services := NewServices(cfg, repos, infra)
	app.Services = services

	app.Handlers = NewHandlers(services, infra)
	return app, nil
}

// Start runs the background listeners: the history listing follows the event bus.
func (a *App) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	go func() {
		if err := a.Services.HistoryService.Run(ctx, a.Infrastructure.Bus); err != nil {
			logging.Logger.Error("fail history listener", "error", err)
		}
	}()
}

// Server builds the fiber app with every route registered.
func (a *App) Server() *fiber.App {
	server := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})
	server.Use(middleware.Logger(a.Cfg.AppEnv))
	server.Use(middleware.CORS(a.Cfg.AllowOrigins))

	routes.RegisterSessionRoutes(server, a.Handlers.SessionHandler)
	routes.RegisterVersionRoutes(server, a.Handlers.VersionHandler)
	routes.RegisterHistoryRoutes(server, a.Handlers.HistoryHandler)
	routes.SetupWebSocketRoutes(server, a.Handlers.WSHandler)
	return server
}

// Shutdown infra
func (a *App) Shutdown() error {
	if a == nil {
		return nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.Infrastructure != nil {
		if err := a.Infrastructure.Shutdown(); err != nil {
			return err
		}
	}
	return nil
}
