package bootstrap

import "go_qa_assistant/handlers"

type Handlers struct {
	SessionHandler *handlers.SessionHandler
	VersionHandler *handlers.VersionHandler
	HistoryHandler *handlers.HistoryHandler
	WSHandler      *handlers.WSHandler
}

func NewHandlers(services *Services, infra *Infrastructure) *Handlers {
	return &Handlers{
		SessionHandler: handlers.NewSessionHandler(services.SessionService),
		VersionHandler: handlers.NewVersionHandler(services.VersionStore, services.SessionService),
		HistoryHandler: handlers.NewHistoryHandler(services.HistoryService, services.SessionService),
		WSHandler:      handlers.NewWSHandler(infra.Bus),
	}
}
