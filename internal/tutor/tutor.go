// Package tutor answers learner questions about the active module,
// grounded in that module's transcript.
package tutor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"

	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/llm"
)

// BusyReply is streamed in place of an answer when the provider fails.
const BusyReply = "The tutor is busy right now. Please pause and try your question again in a few seconds."

// ErrEmptyQuestion is returned for a blank question.
var ErrEmptyQuestion = errors.New("question is empty")

const systemPrompt = `You are a grounded tutor for an online course on edumeet.
Help the student understand and connect the lesson material.
Use ONLY the lesson transcript below for factual details. If the answer is not in the transcript, say so and give general study guidance instead.
Answer in plain text: no bold, no italics, no markdown. Keep the language simple, direct and friendly.`

// Config holds tutor generation settings.
type Config struct {
	MaxTokens     int
	Temperature   float64
	MaxTranscript int // characters of transcript sent with each question
}

// DefaultConfig returns the tutor defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:     1024,
		Temperature:   0.2,
		MaxTranscript: 30000,
	}
}

// Tutor starts grounded conversations.
type Tutor struct {
	provider llm.Provider
	cfg      Config
	log      *slog.Logger
}

// New returns a Tutor. A nil logger uses slog.Default.
func New(provider llm.Provider, cfg Config, log *slog.Logger) *Tutor {
	if log == nil {
		log = slog.Default()
	}
	return &Tutor{provider: provider, cfg: cfg, log: log}
}

// Conversation is the chat about one module. History holds completed
// exchanges only.
type Conversation struct {
	tutor  *Tutor
	system string
	module string

	mu      sync.Mutex
	history []llm.Message
}

// Conversation opens a chat grounded in module m of course c.
func (t *Tutor) Conversation(c *course.Course, m course.Module) *Conversation {
	return &Conversation{
		tutor:  t,
		system: buildSystem(c, m, t.cfg.MaxTranscript),
		module: m.ID,
	}
}

// ModuleID returns the module the conversation is grounded in.
func (c *Conversation) ModuleID() string {
	return c.module
}

// History returns a copy of the completed exchanges, oldest first.
func (c *Conversation) History() []llm.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]llm.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Ask streams the answer to question. A provider failure is logged and
// BusyReply is streamed in its place; the exchange is then not kept.
// Cancelling ctx stops the stream with ctx's error.
func (c *Conversation) Ask(ctx context.Context, question string) iter.Seq2[string, error] {
	question = strings.TrimSpace(question)
	return func(yield func(string, error) bool) {
		if question == "" {
			yield("", ErrEmptyQuestion)
			return
		}

		msgs := append(c.History(), llm.Message{Role: llm.RoleUser, Content: question})

		req := llm.Request{
			System:      c.system,
			Messages:    msgs,
			MaxTokens:   c.tutor.cfg.MaxTokens,
			Temperature: c.tutor.cfg.Temperature,
		}

		var answer strings.Builder
		for delta, err := range c.tutor.provider.Stream(llm.WithPurpose(ctx, llm.PurposeTutor), req) {
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					yield("", ctxErr)
					return
				}
				if n, ok := llm.Interrupted(err); ok {
					c.tutor.log.Warn("tutor stream interrupted", "module", c.module, "delivered", n, "error", err)
				} else {
					c.tutor.log.Warn("tutor stream failed", "module", c.module, "error", err)
				}
				if answer.Len() > 0 {
					yield("\n\n", nil)
				}
				yield(BusyReply, nil)
				return
			}
			answer.WriteString(delta)
			if !yield(delta, nil) {
				return
			}
		}
		if ctx.Err() != nil {
			yield("", ctx.Err())
			return
		}

		c.mu.Lock()
		c.history = append(c.history,
			llm.Message{Role: llm.RoleUser, Content: question},
			llm.Message{Role: llm.RoleAssistant, Content: answer.String()},
		)
		c.mu.Unlock()
	}
}

func buildSystem(c *course.Course, m course.Module, maxTranscript int) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\n")
	if c != nil {
		fmt.Fprintf(&b, "COURSE: %s\n", c.Title)
	}
	fmt.Fprintf(&b, "MODULE: %s\n", m.Title)
	b.WriteString("LESSON TRANSCRIPT:\n")
	b.WriteString(Truncate(m.Transcript, maxTranscript))
	return b.String()
}

// Truncate returns at most n characters of s. n <= 0 means no limit.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
