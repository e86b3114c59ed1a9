package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"go_qa_assistant/bootstrap"
	"go_qa_assistant/platform/events"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow the session events mirrored to Redis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return withApp(func(app *bootstrap.App) error {
			if app.Infrastructure.Redis == nil {
				return errors.New("REDIS_URL is not set")
			}
			ch, err := events.NewRedisEvents(app.Infrastructure.Redis.Rdb).Subscribe(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for event := range ch {
				if err := enc.Encode(event); err != nil {
					return fmt.Errorf("encode event: %w", err)
				}
			}
			return nil
		})
	},
}
