package cmd

import (
	"fmt"
	"go_qa_assistant/bootstrap"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previously asked questions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			questions, err := app.Services.HistoryService.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCREATED\tPARENT\tQUESTION")
			for _, q := range questions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.ID, q.CreatedAt.Format("2006-01-02 15:04"), q.ParentName, preview(q.Content, 70))
			}
			return w.Flush()
		})
	},
}
