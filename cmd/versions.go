package cmd

import (
	"fmt"
	"go_qa_assistant/bootstrap"
	"go_qa_assistant/models"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var versionsCmd = &cobra.Command{
	Use:   "versions [question-id]",
	Short: "List the versions of a question, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(app *bootstrap.App) error {
			store := app.Services.VersionStore
			versions, err := store.LoadVersions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			current := store.CurrentVersion()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\tID\tTYPE\tTIMESTAMP\tFLAGS\tCONTENT")
			for _, v := range versions {
				marker := ""
				if current != nil && v.ID == current.ID {
					marker = "*"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					marker, v.ID, v.Type, v.Timestamp.Format("2006-01-02 15:04:05"), flags(v), preview(v.Content, 60))
			}
			return w.Flush()
		})
	},
}

func flags(v *models.Version) string {
	var f []string
	if v.IsLiked {
		f = append(f, "liked")
	}
	if v.IsBookmarked {
		f = append(f, "bookmarked")
	}
	return strings.Join(f, ",")
}

func preview(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
