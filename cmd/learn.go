package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/player"
	"github.com/edumeet/edumeet/internal/ui"
	"github.com/edumeet/edumeet/internal/ui/theme"
)

// player loads courseID for the acting user. Learners must be enrolled
// and the course published; tutors and admins get a preview.
func (a *app) player(cmd *cobra.Command, courseID string) (*player.Player, error) {
	s, u, err := a.user(cmd)
	if err != nil {
		return nil, err
	}
	if !u.Privileged() && !u.IsEnrolled(courseID) {
		return nil, fmt.Errorf("%s is not enrolled in %s; run edumeet enroll %s", u.ID, courseID, courseID)
	}

	p := player.New(s.Courses(), s.Progress(),
		player.WithLogger(a.log),
		player.WithTimeout(a.cfg.RequestTimeout),
	)
	if err := p.Load(cmd.Context(), courseID, player.Viewer{UserID: u.ID, Role: u.Role}); err != nil {
		return nil, err
	}
	if !u.Privileged() && !p.Course().Published {
		return nil, fmt.Errorf("course %s is not published", courseID)
	}
	return p, nil
}

// llmContext bounds one LLM exchange and cancels it on interrupt.
func (a *app) llmContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	if a.cfg.LLM.Timeout <= 0 {
		return ctx, stop
	}
	ctx, cancel := context.WithTimeout(ctx, a.cfg.LLM.Timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

func newEnrollCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "enroll <course>",
		Short: "Enroll the acting user in a published course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, u, err := a.user(cmd)
			if err != nil {
				return err
			}
			c, err := s.Courses().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !c.Published {
				return fmt.Errorf("course %s is not published", c.ID)
			}
			u, err = s.Users().Enroll(cmd.Context(), u.ID, c.ID)
			if err != nil {
				return err
			}
			printOut(cmd, ui.User(u))
			return nil
		},
	}
}

func newModuleCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "module",
		Short: "Work through course modules",
	}

	var number int
	complete := &cobra.Command{
		Use:   "complete <course>",
		Short: "Mark a module complete (default: the current one)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			if number > 0 {
				if err := p.GoToModule(number - 1); err != nil {
					return fmt.Errorf("module %d: %w", number, err)
				}
			}
			if err := p.MarkComplete(cmd.Context()); err != nil {
				return err
			}
			printOut(cmd, ui.Outline(p.Course(), p.State()))
			return nil
		},
	}
	complete.Flags().IntVar(&number, "module", 0, "Module number, starting at 1")

	show := &cobra.Command{
		Use:   "show <course> <number>",
		Short: "Show a module's lesson",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("module number %q: %w", args[1], err)
			}
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			if err := p.GoToModule(n - 1); err != nil {
				return fmt.Errorf("module %d: %w", n, err)
			}
			m, err := p.ActiveModule()
			if err != nil {
				return err
			}
			printOut(cmd, theme.Title.Render(fmt.Sprintf("%d. %s", n, m.Title)))
			if m.VideoURL != "" {
				printOut(cmd, theme.Hint.Render(m.VideoURL))
			}
			printOut(cmd, theme.Body.Render(m.LessonContent))
			return nil
		},
	}

	c.AddCommand(complete, show)
	return c
}

func newQuizCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "quiz",
		Short: "Take the mid-term and final quizzes",
	}

	show := &cobra.Command{
		Use:   "show <course> <mid|final>",
		Short: "Show a quiz's questions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseSlot(args[1])
			if err != nil {
				return err
			}
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			if err := p.OpenQuiz(k); err != nil {
				return fmt.Errorf("%s quiz: %w", slotName(k), err)
			}
			q, err := p.ActiveQuiz()
			if err != nil {
				return err
			}
			printOut(cmd, renderQuiz(q, p.State().Preview))
			return nil
		},
	}

	var answers string
	take := &cobra.Command{
		Use:   "take <course> <mid|final>",
		Short: "Submit answers to a quiz",
		Long:  "Submit answers to a quiz. --answers lists one choice per question in order, as letters (a-d) or numbers (1-4); '-' skips a question.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseSlot(args[1])
			if err != nil {
				return err
			}
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			if err := p.OpenQuiz(k); err != nil {
				return fmt.Errorf("%s quiz: %w", slotName(k), err)
			}
			q, err := p.ActiveQuiz()
			if err != nil {
				return err
			}
			picked, err := parseAnswers(answers, q)
			if err != nil {
				return err
			}
			r, err := p.SubmitQuiz(cmd.Context(), picked)
			if err != nil {
				return err
			}
			printOut(cmd, ui.QuizResult(r))
			if p.State().Preview {
				printOut(cmd, theme.Hint.Render("preview: result not saved"))
			}
			return nil
		},
	}
	take.Flags().StringVar(&answers, "answers", "", "Comma-separated answers, e.g. a,c,b,d")
	_ = take.MarkFlagRequired("answers")

	c.AddCommand(show, take)
	return c
}

func newCapstoneCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "capstone",
		Short: "Submit and review capstone projects",
	}

	var text, file string
	submit := &cobra.Command{
		Use:   "submit <course>",
		Short: "Submit your capstone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("read submission: %w", err)
				}
				text = string(data)
			}
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			if err := p.OpenCapstone(); err != nil {
				return fmt.Errorf("capstone: %w", err)
			}
			if err := p.SubmitCapstone(cmd.Context(), text); err != nil {
				return err
			}
			printOut(cmd, theme.Passed.Render("Capstone submitted"))
			return nil
		},
	}
	submit.Flags().StringVar(&text, "text", "", "Submission text")
	submit.Flags().StringVar(&file, "file", "", "Read the submission from a file")
	submit.MarkFlagsOneRequired("text", "file")
	submit.MarkFlagsMutuallyExclusive("text", "file")

	c.AddCommand(submit, newCapstonePendingCmd(a), newCapstoneGradeCmd(a))
	return c
}

func newGradeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "grade <course>",
		Short: "Show your final grade breakdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			printOut(cmd, ui.Grade(p.State().Grade))
			return nil
		},
	}
}

func newProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <course>",
		Short: "Show your progress through a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			st := p.State()
			printOut(cmd, ui.Progress(p.Course(), st.Progress))
			printOut(cmd, ui.Outline(p.Course(), st))
			return nil
		},
	}
}

func parseSlot(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mid", "midterm", "mid-term", "0":
		return course.MidTermIndex, nil
	case "final", "1":
		return course.FinalIndex, nil
	}
	return 0, fmt.Errorf("unknown quiz slot %q: use mid or final", s)
}

func slotName(k int) string {
	if k == course.MidTermIndex {
		return "mid-term"
	}
	return "final"
}

// parseAnswers maps a comma-separated answer list onto q's question ids.
func parseAnswers(s string, q course.Quiz) (map[string]int, error) {
	tokens := strings.Split(s, ",")
	if len(tokens) > len(q.Questions) {
		return nil, fmt.Errorf("%d answers for %d questions", len(tokens), len(q.Questions))
	}
	out := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" || tok == "-" {
			continue
		}
		var idx int
		switch {
		case len(tok) == 1 && tok[0] >= 'a' && tok[0] < 'a'+course.OptionsPerQuestion:
			idx = int(tok[0] - 'a')
		default:
			n, err := strconv.Atoi(tok)
			if err != nil || n < 1 || n > course.OptionsPerQuestion {
				return nil, fmt.Errorf("answer %d: %q is not a-d or 1-4", i+1, tok)
			}
			idx = n - 1
		}
		out[q.Questions[i].ID] = idx
	}
	return out, nil
}
