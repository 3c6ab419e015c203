package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/llm"
	"github.com/edumeet/edumeet/internal/quizgen"
	"github.com/edumeet/edumeet/internal/store"
	"github.com/edumeet/edumeet/internal/ui"
	"github.com/edumeet/edumeet/internal/ui/theme"
)

func newCourseCmd(a *app) *cobra.Command {
	c := &cobra.Command{
		Use:   "course",
		Short: "Author, inspect and publish courses",
	}
	c.AddCommand(
		newCourseImportCmd(a),
		newCourseValidateCmd(),
		newCourseShowCmd(a),
		newCourseListCmd(a),
		newCoursePublishCmd(a),
		newCourseDraftQuizCmd(a),
	)
	return c
}

func newCourseImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a course document as an unpublished draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, u, err := a.staff(cmd)
			if err != nil {
				return err
			}
			doc, err := course.LoadFile(args[0])
			if err != nil {
				return err
			}
			course.AssignIDs(doc)
			if doc.TutorID == "" {
				doc.TutorID, doc.TutorName = u.ID, u.Name
			}
			c, err := course.Sanitize(doc)
			if err != nil {
				return err
			}
			c.Published = false
			if err := s.Courses().Save(cmd.Context(), c); err != nil {
				return fmt.Errorf("save course: %w", err)
			}
			printOut(cmd, ui.CourseSummary(c))
			return nil
		},
	}
}

func newCourseValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check that a course document is complete enough to publish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := course.LoadFile(args[0])
			if err != nil {
				return err
			}
			course.AssignIDs(doc)
			c, err := course.Sanitize(doc)
			if err != nil {
				return err
			}
			if err := course.ValidateForPublish(c); err != nil {
				return err
			}
			printOut(cmd, theme.Passed.Render(fmt.Sprintf("%s is ready to publish", c.Title)))
			return nil
		},
	}
}

func newCourseShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <course>",
		Short: "Show a course and, with an acting user, its outline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.db()
			if err != nil {
				return err
			}
			c, err := s.Courses().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printOut(cmd, ui.CourseSummary(c))
			if a.cfg.User == "" {
				return nil
			}
			_, u, err := a.user(cmd)
			if err != nil {
				return err
			}
			if !u.Privileged() && !u.IsEnrolled(c.ID) {
				return nil
			}
			p, err := a.player(cmd, args[0])
			if err != nil {
				return err
			}
			printOut(cmd, ui.Outline(p.Course(), p.State()))
			return nil
		},
	}
}

func newCourseListCmd(a *app) *cobra.Command {
	var mine bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List courses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.db()
			if err != nil {
				return err
			}
			f := store.CourseFilter{PublishedOnly: true}
			if a.cfg.User != "" {
				if _, u, err := a.user(cmd); err == nil && u.Privileged() {
					f.PublishedOnly = false
					if mine {
						f.TutorID = u.ID
					}
				}
			}
			courses, err := s.Courses().List(cmd.Context(), f)
			if err != nil {
				return err
			}
			if len(courses) == 0 {
				printOut(cmd, theme.Hint.Render("No courses."))
				return nil
			}
			for _, c := range courses {
				status := ""
				if !c.Published {
					status = theme.Pending.Render("  draft")
				}
				printOut(cmd, theme.Current.Render(c.ID)+"  "+theme.Body.Render(c.Title)+status)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&mine, "mine", false, "Only courses you tutor")
	return cmd
}

func newCoursePublishCmd(a *app) *cobra.Command {
	var unpublish bool
	cmd := &cobra.Command{
		Use:   "publish <course>",
		Short: "Publish a course after validating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := a.staff(cmd)
			if err != nil {
				return err
			}
			c, err := s.Courses().SetPublished(cmd.Context(), args[0], !unpublish)
			if err != nil {
				return err
			}
			printOut(cmd, ui.CourseSummary(c))
			return nil
		},
	}
	cmd.Flags().BoolVar(&unpublish, "unpublish", false, "Withdraw the course instead")
	return cmd
}

func newCourseDraftQuizCmd(a *app) *cobra.Command {
	var (
		slot  string
		topic string
		count int
		save  bool
	)
	cmd := &cobra.Command{
		Use:   "draft-quiz <course>",
		Short: "Draft a quiz with the configured LLM provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseSlot(slot)
			if err != nil {
				return err
			}
			s, _, err := a.staff(cmd)
			if err != nil {
				return err
			}
			c, err := s.Courses().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if topic == "" {
				topic = c.Title
			}

			provider, err := a.provider(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := a.llmContext(cmd)
			defer cancel()
			quiz, err := quizgen.New(provider, quizgen.DefaultConfig(), a.log).Draft(ctx, quizgen.Input{
				CourseTitle: c.Title,
				Topic:       topic,
				Count:       count,
			})
			if err != nil {
				return err
			}
			printOut(cmd, renderQuiz(quiz, true))

			if !save {
				return nil
			}
			for len(c.Quizzes) <= k {
				c.Quizzes = append(c.Quizzes, course.Quiz{})
			}
			c.Quizzes[k] = quiz
			if err := s.Courses().Save(cmd.Context(), c); err != nil {
				return fmt.Errorf("save course: %w", err)
			}
			printOut(cmd, theme.Passed.Render(fmt.Sprintf("Saved as the %s quiz of %s", slotName(k), c.ID)))
			return nil
		},
	}
	cmd.Flags().StringVar(&slot, "slot", "mid", "Quiz slot: mid or final")
	cmd.Flags().StringVar(&topic, "topic", "", "Topic to draft questions on (default: course title)")
	cmd.Flags().IntVar(&count, "count", 0, "Number of questions (default 20)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the draft in the course")
	return cmd
}

// provider builds the configured LLM provider with request logging.
func (a *app) provider(cmd *cobra.Command) (llm.Provider, error) {
	if err := a.cfg.LLM.Validate(); err != nil {
		return nil, err
	}
	s, err := a.db()
	if err != nil {
		return nil, err
	}
	return llm.NewProvider(cmd.Context(), a.cfg.LLM, s.EventRepo(), a.log)
}

func renderQuiz(q course.Quiz, withAnswers bool) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(q.Title))
	for i, question := range q.Questions {
		fmt.Fprintf(&b, "\n%s\n", theme.Body.Render(fmt.Sprintf("%d. %s", i+1, question.Text)))
		for j, opt := range question.Options {
			line := fmt.Sprintf("   %c) %s", 'a'+j, opt)
			if withAnswers && j == question.CorrectIndex {
				b.WriteString(theme.Passed.Render(line))
			} else {
				b.WriteString(theme.Subtitle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
