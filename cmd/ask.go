package cmd

import (
	"fmt"
	"go_qa_assistant/bootstrap"
	"go_qa_assistant/models"
	"go_qa_assistant/services"
	"strings"

	"github.com/spf13/cobra"
)

var (
	askParent  string
	askTone    string
	askDetail  string
	askEmpathy string
	askStyle   string
	askSimple  bool
	askClose   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Submit one question and print the answer and its current version",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askParent, "parent", "", "name of the parent the answer is addressed to")
	askCmd.Flags().StringVar(&askTone, "tone", "", "response tone")
	askCmd.Flags().StringVar(&askDetail, "detail", "", "response detail level")
	askCmd.Flags().StringVar(&askEmpathy, "empathy", "", "response empathy")
	askCmd.Flags().StringVar(&askStyle, "style", "", "professional style")
	askCmd.Flags().BoolVar(&askSimple, "simple", false, "show the simplified answer")
	askCmd.Flags().BoolVar(&askClose, "close", false, "close the conversation after this answer")
}

func runAsk(cmd *cobra.Command, args []string) error {
	return withApp(func(app *bootstrap.App) error {
		session := app.Services.SessionService
		ctx := cmd.Context()
		app.Start(ctx)

		if askSimple {
			if err := session.SetDisplayMode(ctx, models.DisplaySimplified); err != nil {
				return err
			}
		}
		sub := services.Submission{
			Question:   strings.Join(args, " "),
			ParentName: askParent,
		}
		if askTone != "" || askDetail != "" || askEmpathy != "" || askStyle != "" {
			sub.Parameters = &models.ResponseParameters{
				Tone:              askTone,
				DetailLevel:       askDetail,
				Empathy:           askEmpathy,
				ProfessionalStyle: askStyle,
			}
		}
		if askClose {
			sub.ConversationAction = services.ConversationClose
		}

		answer, err := session.Submit(ctx, sub)
		if err != nil {
			return err
		}
		if answer == nil {
			fmt.Fprintln(cmd.ErrOrStderr(), "nothing to submit")
			return nil
		}

		view := session.Snapshot()
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, view.DisplayText)
		if view.QuestionID != "" {
			fmt.Fprintf(out, "\nquestion: %s\n", view.QuestionID)
		}
		if view.ConversationID != "" {
			fmt.Fprintf(out, "conversation: %s\n", view.ConversationID)
		}
		if v := view.CurrentVersion; v != nil {
			fmt.Fprintf(out, "version: %s (%s, %s)\n", v.ID, v.Type, v.Timestamp.Format("2006-01-02 15:04:05"))
		}
		return nil
	})
}
