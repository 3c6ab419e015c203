package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/review"
	"github.com/edumeet/edumeet/internal/store"
	"github.com/edumeet/edumeet/internal/ui"
	"github.com/edumeet/edumeet/internal/ui/theme"
)

func (a *app) reviewer(s *store.Store) *review.Service {
	return review.NewService(s.Progress(), s.Notifications(), a.log)
}

func newCapstonePendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending <course>",
		Short: "List capstones awaiting a grade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.staff(cmd)
			if err != nil {
				return err
			}
			recs, err := a.reviewer(s).Pending(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printOut(cmd, ui.Submissions(recs))
			return nil
		},
	}
}

func newCapstoneGradeCmd(a *app) *cobra.Command {
	var (
		score    int
		feedback string
	)
	cmd := &cobra.Command{
		Use:   "grade <submission-id>",
		Short: "Grade a submitted capstone and notify the learner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.staff(cmd)
			if err != nil {
				return err
			}
			rec, err := a.reviewer(s).Grade(cmd.Context(), args[0], score, feedback)
			if err != nil {
				return err
			}
			printOut(cmd, theme.Passed.Render(fmt.Sprintf("Graded %s for %s: %d%%", rec.ID, rec.UserID, score)))
			return nil
		},
	}
	cmd.Flags().IntVar(&score, "score", 0, "Score from 0 to 100")
	cmd.Flags().StringVar(&feedback, "feedback", "", "Feedback for the learner")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}
