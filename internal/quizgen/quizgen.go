// Package quizgen drafts multiple-choice quizzes for course authors.
package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/llm"
)

var (
	// ErrEmptyTopic is returned when no topic is given.
	ErrEmptyTopic = errors.New("topic is empty")

	// ErrNoQuestions is returned when every drafted question was dropped.
	ErrNoQuestions = errors.New("no usable questions drafted")
)

const systemPrompt = `You write multiple-choice quiz questions for an online course.

Rules:
- Every question has exactly 4 options and exactly one correct option.
- correctIndex is the zero-based position of the correct option.
- Distractors should reflect common misunderstandings, not random values.
- Use plain text. No markdown.
- Do not repeat a question.`

// Config holds drafting settings.
type Config struct {
	Count       int
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the drafting defaults.
func DefaultConfig() Config {
	return Config{
		Count:       20,
		MaxTokens:   8192,
		Temperature: 0.5,
	}
}

// Input describes the quiz to draft.
type Input struct {
	CourseTitle string
	Topic       string
	// Count overrides Config.Count when positive.
	Count int
}

// Generator drafts quizzes through an LLM provider.
type Generator struct {
	provider llm.Provider
	cfg      Config
	log      *slog.Logger
}

// New returns a Generator. A nil logger uses slog.Default.
func New(provider llm.Provider, cfg Config, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{provider: provider, cfg: cfg, log: log}
}

type draftOutput struct {
	Questions []questionOutput `json:"questions"`
}

type questionOutput struct {
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
}

// Draft asks the provider for a quiz on in.Topic. Malformed and repeated
// questions are dropped and at most Count are kept. The quiz and its
// questions get fresh ids.
func (g *Generator) Draft(ctx context.Context, in Input) (course.Quiz, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return course.Quiz{}, ErrEmptyTopic
	}
	count := in.Count
	if count <= 0 {
		count = g.cfg.Count
	}

	resp, err := g.provider.Generate(llm.WithPurpose(ctx, llm.PurposeQuizDraft), llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(in.CourseTitle, topic, count)}},
		Schema:      QuizSchema,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return course.Quiz{}, fmt.Errorf("quiz draft: %w", err)
	}

	var out draftOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return course.Quiz{}, fmt.Errorf("parse quiz draft: %w", err)
	}

	questions := g.keep(out.Questions, count)
	if len(questions) == 0 {
		return course.Quiz{}, ErrNoQuestions
	}
	return course.Quiz{
		ID:        uuid.NewString(),
		Title:     topic,
		Questions: questions,
	}, nil
}

func (g *Generator) keep(in []questionOutput, limit int) []course.Question {
	seen := make(map[string]bool, len(in))
	out := make([]course.Question, 0, min(len(in), limit))
	for i, q := range in {
		if len(out) == limit {
			break
		}
		text := strings.TrimSpace(q.Text)
		if reason := reject(text, q, seen); reason != "" {
			g.log.Debug("dropped drafted question", "index", i, "reason", reason)
			continue
		}
		seen[strings.ToLower(text)] = true

		opts := make([]string, len(q.Options))
		for j, o := range q.Options {
			opts[j] = strings.TrimSpace(o)
		}
		out = append(out, course.Question{
			ID:           uuid.NewString(),
			Text:         text,
			Options:      opts,
			CorrectIndex: q.CorrectIndex,
		})
	}
	return out
}

func reject(text string, q questionOutput, seen map[string]bool) string {
	switch {
	case text == "":
		return "empty text"
	case len(q.Options) != course.OptionsPerQuestion:
		return fmt.Sprintf("%d options", len(q.Options))
	case q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options):
		return "correct index out of range"
	case seen[strings.ToLower(text)]:
		return "duplicate"
	}
	for _, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return "blank option"
		}
	}
	return ""
}

func buildUserMessage(courseTitle, topic string, count int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", topic)
	if courseTitle != "" {
		fmt.Fprintf(&b, "Course: %s\n", courseTitle)
	}
	fmt.Fprintf(&b, "Number of questions: %d\n", count)
	return b.String()
}
