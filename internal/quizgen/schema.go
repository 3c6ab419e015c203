package quizgen

import "github.com/edumeet/edumeet/internal/llm"

// QuizSchema is the structured output requested from the provider.
// Option count and answer range are checked after decoding so a single
// malformed question does not reject the whole draft.
var QuizSchema = &llm.Schema{
	Name:        "quiz-draft",
	Description: "Multiple-choice questions for a course quiz",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"text": map[string]any{
							"type":        "string",
							"description": "The question shown to the learner, plain text",
						},
						"options": map[string]any{
							"type":        "array",
							"items":       map[string]any{"type": "string"},
							"description": "Exactly 4 answer options",
						},
						"correctIndex": map[string]any{
							"type":        "integer",
							"description": "Zero-based index of the correct option",
						},
					},
					"required":             []any{"text", "options", "correctIndex"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"questions"},
		"additionalProperties": false,
	},
}
