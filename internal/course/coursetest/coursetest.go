// Package coursetest builds course fixtures for tests.
package coursetest

import (
	"fmt"

	"github.com/edumeet/edumeet/internal/course"
)

// Fixture ids.
const (
	CourseID   = "course-1"
	MidTermID  = "quiz-mid"
	FinalID    = "quiz-final"
	CapstoneID = "capstone-1"
)

// ModuleID returns the id of the fixture module at index i.
func ModuleID(i int) string {
	return fmt.Sprintf("mod-%d", i)
}

// Option configures a fixture document.
type Option func(*course.Document)

// WithoutQuizzes removes both quiz slots.
func WithoutQuizzes() Option {
	return func(d *course.Document) { d.Quizzes = nil }
}

// WithoutCapstone removes the capstone.
func WithoutCapstone() Option {
	return func(d *course.Document) { d.Capstone = nil }
}

// WithModules replaces the module count.
func WithModules(n int) Option {
	return func(d *course.Document) { d.Modules = modules(n) }
}

// Document returns a publishable course document: ten modules, a mid-term
// and a final of ten questions each (correct option 0) and a project capstone.
func Document(opts ...Option) *course.Document {
	doc := &course.Document{
		Format:    course.CurrentFormat,
		ID:        CourseID,
		Title:     "Distributed Systems",
		TutorID:   "tutor-1",
		TutorName: "Ada",
		Modules:   modules(course.ModuleCount),
		Quizzes: []*course.Quiz{
			Quiz(MidTermID, "Mid-term", 10),
			Quiz(FinalID, "Final", 10),
		},
		Capstone: &course.Capstone{
			ID:           CapstoneID,
			Instructions: "Build a replicated key-value store.",
			Type:         course.CapstoneProject,
		},
	}
	for _, opt := range opts {
		opt(doc)
	}
	return doc
}

// Course returns the sanitized form of Document(opts...).
func Course(opts ...Option) *course.Course {
	c, err := course.Sanitize(Document(opts...))
	if err != nil {
		panic(err)
	}
	return c
}

// Quiz builds a quiz of n questions whose correct option is always 0.
func Quiz(id, title string, n int) *course.Quiz {
	q := &course.Quiz{ID: id, Title: title}
	for i := range n {
		q.Questions = append(q.Questions, course.Question{
			ID:           fmt.Sprintf("%s-q%d", id, i),
			Text:         fmt.Sprintf("Question %d", i+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
		})
	}
	return q
}

// Answers answers the first correct questions of q correctly and the rest
// wrongly.
func Answers(q course.Quiz, correct int) map[string]int {
	answers := make(map[string]int, len(q.Questions))
	for i, question := range q.Questions {
		if i < correct {
			answers[question.ID] = question.CorrectIndex
		} else {
			answers[question.ID] = (question.CorrectIndex + 1) % len(question.Options)
		}
	}
	return answers
}

func modules(n int) []*course.Module {
	out := make([]*course.Module, n)
	for i := range n {
		out[i] = &course.Module{
			ID:         ModuleID(i),
			Title:      fmt.Sprintf("Lesson %d", i+1),
			Order:      i + 1,
			VideoURL:   "https://youtu.be/dQw4w9WgXcQ",
			Transcript: fmt.Sprintf("Transcript of lesson %d.", i+1),
		}
	}
	return out
}
