// Package ui renders edumeet state for the terminal.
package ui

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/edumeet/edumeet/internal/access"
	"github.com/edumeet/edumeet/internal/account"
	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/grade"
	"github.com/edumeet/edumeet/internal/llm"
	"github.com/edumeet/edumeet/internal/player"
	"github.com/edumeet/edumeet/internal/progress"
	"github.com/edumeet/edumeet/internal/store"
	"github.com/edumeet/edumeet/internal/ui/components"
	"github.com/edumeet/edumeet/internal/ui/theme"
)

// Width is the column budget for bars and cards.
const Width = 60

const timeFormat = "2006-01-02 15:04"

// CourseSummary renders a course's headline facts.
func CourseSummary(c *course.Course) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(c.Title))
	b.WriteString("\n")
	if c.Description != "" {
		b.WriteString(theme.Subtitle.Render(c.Description))
		b.WriteString("\n")
	}
	b.WriteString(field("ID", c.ID))
	if c.TutorName != "" {
		b.WriteString(field("Tutor", c.TutorName))
	}
	b.WriteString(field("Modules", fmt.Sprintf("%d", len(c.Modules))))
	quizzes := 0
	for _, q := range c.Quizzes {
		if q.Present() {
			quizzes++
		}
	}
	b.WriteString(field("Quizzes", fmt.Sprintf("%d", quizzes)))
	if c.Capstone != nil {
		b.WriteString(field("Capstone", string(c.Capstone.Type)))
	}
	status := theme.Pending.Render("draft")
	if c.Published {
		status = theme.Passed.Render("published")
	}
	b.WriteString(field("Status", status))
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

// Outline renders every module, quiz and the capstone with its lock and
// completion state, marking the viewer's position.
func Outline(c *course.Course, st player.State) string {
	var b strings.Builder
	p := st.Progress

	for i, m := range c.Modules {
		done := p != nil && p.HasCompleted(m.ID)
		unlocked := i < len(st.Outline.Modules) && st.Outline.Modules[i]
		current := st.View == player.ViewModule && i == st.Index
		b.WriteString(line(current, unlocked, done, fmt.Sprintf("%2d. %s", i+1, m.Title)))

		for k, q := range c.Quizzes {
			if !q.Present() || quizAfter(c, k) != i {
				continue
			}
			passed := p != nil && p.HasPassed(q.ID)
			open := k < len(st.Outline.Quizzes) && st.Outline.Quizzes[k]
			cur := (st.View == player.ViewQuiz || st.View == player.ViewResult) && st.QuizSlot == k
			b.WriteString(line(cur, open, passed, "    Quiz: "+quizLabel(q, k)))
		}
	}

	if c.Capstone != nil {
		graded := p != nil && p.CapstoneStatus == progress.CapstoneGraded
		b.WriteString(line(st.View == player.ViewCapstone, st.Outline.Capstone, graded, "    Capstone ("+string(c.Capstone.Type)+")"))
	}
	if st.Preview {
		b.WriteString(theme.Hint.Render("preview: progress is not saved"))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// quizAfter returns the module index a quiz slot follows.
func quizAfter(c *course.Course, slot int) int {
	if slot == course.MidTermIndex {
		return min(access.MidTermReadyIndex, c.LastModuleIndex())
	}
	return c.LastModuleIndex()
}

func quizLabel(q course.Quiz, slot int) string {
	if q.Title != "" {
		return q.Title
	}
	if slot == course.MidTermIndex {
		return "Mid-term"
	}
	return "Final"
}

func line(current, unlocked, done bool, text string) string {
	marker := "[ ]"
	style := theme.Unlocked
	switch {
	case done:
		marker, style = "[x]", theme.Passed
	case !unlocked:
		marker, style = "[-]", theme.Locked
	}
	if current {
		style = theme.Current
		text += "  <"
	}
	return style.Render(marker+" "+text) + "\n"
}

// Grade renders a grade breakdown with one bar per component.
func Grade(bd grade.Breakdown) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(fmt.Sprintf("Final grade: %d%%", bd.Total)))
	b.WriteString("\n")
	for _, part := range []struct {
		label  string
		score  float64
		weight float64
	}{
		{"Modules", bd.ModuleScore, grade.ModuleWeight},
		{"Mid-term", bd.MidTermScore, grade.MidTermWeight},
		{"Final", bd.FinalScore, grade.FinalWeight},
		{"Capstone", bd.CapstoneScore, grade.CapstoneWeight},
	} {
		bar := components.NewProgressBar(part.label, part.score/part.weight, false, Width-14)
		b.WriteString(bar.View())
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf(" %4.1f / %.0f", part.score, part.weight)))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// QuizResult renders one attempt's outcome.
func QuizResult(r progress.QuizResult) string {
	if r.Passed {
		return theme.Passed.Render(fmt.Sprintf("Passed with %d%%", r.Score))
	}
	return theme.Failed.Render(fmt.Sprintf("Scored %d%%, %d%% needed to pass", r.Score, progress.PassingScore))
}

// Progress renders a learner's record against its course.
func Progress(c *course.Course, p *progress.Progress) string {
	var b strings.Builder
	done := 0
	for _, m := range c.Modules {
		if p.HasCompleted(m.ID) {
			done++
		}
	}
	frac := 0.0
	if len(c.Modules) > 0 {
		frac = float64(done) / float64(len(c.Modules))
	}
	b.WriteString(components.NewProgressBar("Modules", frac, true, Width).View())
	b.WriteString("\n")

	for k, q := range c.Quizzes {
		if !q.Present() {
			continue
		}
		label := quizLabel(q, k)
		if r, ok := p.LatestResult(q.ID); ok {
			b.WriteString(field(label, QuizResult(r)+theme.Hint.Render(fmt.Sprintf("  %d attempt(s)", len(p.Attempts(q.ID))))))
		} else {
			b.WriteString(field(label, theme.Locked.Render("not attempted")))
		}
	}

	if c.Capstone != nil {
		status := theme.Pending.Render(string(p.CapstoneStatus))
		if p.CapstoneStatus == progress.CapstoneGraded && p.CapstoneGrade != nil {
			status = theme.Passed.Render(fmt.Sprintf("graded %d%%", *p.CapstoneGrade))
		}
		b.WriteString(field("Capstone", status))
		if p.CapstoneFeedback != "" {
			b.WriteString(field("Feedback", p.CapstoneFeedback))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// User renders an account.
func User(u *account.User) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render(u.Name))
	b.WriteString("\n")
	b.WriteString(field("ID", u.ID))
	if u.Email != "" {
		b.WriteString(field("Email", u.Email))
	}
	b.WriteString(field("Role", string(u.Role)))
	enrolled := "none"
	if len(u.EnrolledCourseIDs) > 0 {
		enrolled = strings.Join(u.EnrolledCourseIDs, ", ")
	}
	b.WriteString(field("Enrolled", fmt.Sprintf("%s (%d/%d)", enrolled, len(u.EnrolledCourseIDs), account.MaxEnrollments)))
	return theme.Card.Render(strings.TrimRight(b.String(), "\n"))
}

// Submissions renders capstones awaiting a grade.
func Submissions(recs []*progress.Progress) string {
	if len(recs) == 0 {
		return theme.Hint.Render("No submissions awaiting a grade.")
	}
	var b strings.Builder
	for _, r := range recs {
		b.WriteString(theme.Current.Render(r.ID))
		b.WriteString(theme.Subtitle.Render("  learner " + r.UserID + "  " + r.UpdatedAt.Local().Format(timeFormat)))
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(indent(r.CapstoneSubmission, "  ")))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Notifications renders a user's inbox, newest first.
func Notifications(ns []store.Notification) string {
	if len(ns) == 0 {
		return theme.Hint.Render("No notifications.")
	}
	var b strings.Builder
	for _, n := range ns {
		style := theme.Body
		if !n.Read {
			style = theme.Current
		}
		b.WriteString(theme.Subtitle.Render(n.CreatedAt.Local().Format(timeFormat) + "  "))
		b.WriteString(style.Render(n.Message))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Usage renders logged LLM requests with their estimated cost.
func Usage(events []store.LLMRequestEvent) string {
	if len(events) == 0 {
		return theme.Hint.Render("No LLM requests recorded.")
	}
	var b strings.Builder
	var total float64
	for _, e := range events {
		cost := "   n/a"
		if c := llm.LookupCost(e.Model); c != nil {
			v := c.Cost(e.InputTokens, e.OutputTokens)
			total += v
			cost = fmt.Sprintf("$%.4f", v)
		}
		status := theme.Passed.Render("ok  ")
		if !e.Success {
			status = theme.Failed.Render("fail")
		}
		fmt.Fprintf(&b, "%s %s %-10s %-28s %6d/%-6d %5dms %s\n",
			e.Timestamp.Local().Format(timeFormat), status, e.Purpose, e.Model,
			e.InputTokens, e.OutputTokens, e.LatencyMs, cost)
	}
	b.WriteString(theme.Title.Render(fmt.Sprintf("Estimated total: $%.4f", total)))
	return b.String()
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, theme.Label.Render(label), value) + "\n"
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(strings.TrimSpace(s), "\n", "\n"+prefix)
}
