package cmd

import (
	"fmt"
	"go_qa_assistant/bootstrap"
	"go_qa_assistant/config"
	"go_qa_assistant/pkg/logging"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "qa",
		Short: "Question/answer assistant with answer versioning",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.LoadConfig()
			logging.Init(cfg.AppEnv)
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, versionsCmd, historyCmd, eventsCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp builds the application for a one-shot command and shuts it down after fn.
func withApp(fn func(app *bootstrap.App) error) error {
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Shutdown(); err != nil {
			logging.Logger.Error("fail Shutdown", "error", err)
		}
	}()
	return fn(app)
}
