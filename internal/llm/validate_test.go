package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func questionSchema() *Schema {
	return &Schema{
		Name:        "test-question",
		Description: "A multiple choice question",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"prompt": map[string]any{"type": "string"},
				"options": map[string]any{
					"type":     "array",
					"items":    map[string]any{"type": "string"},
					"minItems": 4,
					"maxItems": 4,
				},
				"correctIndex": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
				"kind":         map[string]any{"type": "string", "enum": []any{"mid", "final"}},
			},
			"required": []any{"prompt", "options", "correctIndex"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		raw     string
		wantErr bool
	}{
		{"valid", questionSchema(), `{"prompt":"2+2?","options":["1","2","3","4"],"correctIndex":3,"kind":"mid"}`, false},
		{"optional field omitted", questionSchema(), `{"prompt":"2+2?","options":["1","2","3","4"],"correctIndex":3}`, false},
		{"missing required", questionSchema(), `{"prompt":"2+2?","options":["1","2","3","4"]}`, true},
		{"wrong type", questionSchema(), `{"prompt":"2+2?","options":["1","2","3","4"],"correctIndex":"3"}`, true},
		{"too few options", questionSchema(), `{"prompt":"2+2?","options":["1","2"],"correctIndex":1}`, true},
		{"index out of range", questionSchema(), `{"prompt":"2+2?","options":["1","2","3","4"],"correctIndex":4}`, true},
		{"bad enum", questionSchema(), `{"prompt":"2+2?","options":["1","2","3","4"],"correctIndex":0,"kind":"quiz"}`, true},
		{"malformed JSON", questionSchema(), `{"prompt":`, true},
		{"empty", questionSchema(), ``, true},
		{"nil schema accepts anything", nil, `not json`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(tt.schema, json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var inv *ErrInvalidResponse
			if !errors.As(err, &inv) {
				t.Fatalf("expected ErrInvalidResponse, got %T", err)
			}
			if string(inv.Content) != tt.raw {
				t.Fatalf("error content = %q, want %q", inv.Content, tt.raw)
			}
		})
	}
}

func TestValidateResponse_CachesBySchemaName(t *testing.T) {
	s := questionSchema()
	s.Name = "test-cache"
	if err := validateResponse(s, json.RawMessage(`{"prompt":"p","options":["a","b","c","d"],"correctIndex":0}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := schemaCache.Load("test-cache"); !ok {
		t.Fatal("expected compiled schema in cache")
	}
}
