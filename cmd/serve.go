package cmd

import (
	"context"
	"go_qa_assistant/bootstrap"
	"go_qa_assistant/pkg/logging"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	app.Start(ctx)
	server := app.Server()

	errCh := make(chan error, 1)
	go func() {
		logging.Logger.Info("Server running", "port", cfg.HttpPort)
		errCh <- server.Listen(":" + cfg.HttpPort)
	}()

	select {
	case err = <-errCh:
		logging.Logger.Error("fail Listen", "error", err)
	case <-ctx.Done():
		logging.Logger.Info("shutting down")
		if shutdownErr := server.ShutdownWithContext(context.Background()); shutdownErr != nil {
			logging.Logger.Error("fail server shutdown", "error", shutdownErr)
		}
	}
	if shutdownErr := app.Shutdown(); shutdownErr != nil {
		return shutdownErr
	}
	return err
}
