package course_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/course/coursetest"
)

func TestSanitize_DropsNilAndIDlessModules(t *testing.T) {
	doc := coursetest.Document()
	doc.Modules = []*course.Module{
		nil,
		{ID: "a", Title: "A"},
		{Title: "no id"},
		nil,
		{ID: "b", Title: "B"},
		{ID: "a", Title: "A again"},
	}

	c, err := course.Sanitize(doc)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(c.Modules) != 2 {
		t.Fatalf("len(Modules) = %d, want 2", len(c.Modules))
	}
	if c.Modules[0].ID != "a" || c.Modules[1].ID != "b" {
		t.Errorf("Modules = %q, %q; want a, b", c.Modules[0].ID, c.Modules[1].ID)
	}
	if c.Modules[0].Title != "A" {
		t.Errorf("first occurrence of a repeated id should win, got %q", c.Modules[0].Title)
	}
}

func TestSanitize_KeepsQuizSlotPositions(t *testing.T) {
	doc := coursetest.Document()
	doc.Quizzes = []*course.Quiz{nil, coursetest.Quiz(coursetest.FinalID, "Final", 3)}

	c, err := course.Sanitize(doc)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if _, ok := c.MidTerm(); ok {
		t.Error("nil mid-term slot should be absent")
	}
	final, ok := c.Final()
	if !ok {
		t.Fatal("final should stay in slot 1")
	}
	if final.ID != coursetest.FinalID {
		t.Errorf("final.ID = %q, want %q", final.ID, coursetest.FinalID)
	}
}

func TestSanitize_DropsMalformedQuestions(t *testing.T) {
	doc := coursetest.Document()
	q := doc.Quizzes[0]
	q.Questions = append(q.Questions,
		course.Question{Text: "no id", Options: []string{"x"}},
		course.Question{ID: "no-options", Text: "?"},
	)

	c, err := course.Sanitize(doc)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	mid, _ := c.MidTerm()
	if len(mid.Questions) != 10 {
		t.Errorf("len(Questions) = %d, want 10", len(mid.Questions))
	}
}

func TestSanitize_Capstone(t *testing.T) {
	tests := []struct {
		name     string
		capstone *course.Capstone
		wantNil  bool
		wantType course.CapstoneType
	}{
		{"absent", nil, true, ""},
		{"missing id", &course.Capstone{Instructions: "x", Type: course.CapstoneProject}, true, ""},
		{"unknown type", &course.Capstone{ID: "c", Type: "essay"}, false, course.CapstoneProject},
		{"final exam", &course.Capstone{ID: "c", Type: course.CapstoneFinalExam}, false, course.CapstoneFinalExam},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := coursetest.Document()
			doc.Capstone = tt.capstone
			c, err := course.Sanitize(doc)
			if err != nil {
				t.Fatalf("sanitize: %v", err)
			}
			if tt.wantNil {
				if c.HasCapstone() {
					t.Error("expected no capstone")
				}
				return
			}
			if !c.HasCapstone() {
				t.Fatal("expected a capstone")
			}
			if c.Capstone.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", c.Capstone.Type, tt.wantType)
			}
		})
	}
}

func TestSanitize_Errors(t *testing.T) {
	if _, err := course.Sanitize(nil); !errors.Is(err, course.ErrInvalidDocument) {
		t.Errorf("nil document: err = %v, want ErrInvalidDocument", err)
	}
	doc := coursetest.Document()
	doc.ID = ""
	if _, err := course.Sanitize(doc); !errors.Is(err, course.ErrInvalidDocument) {
		t.Errorf("missing id: err = %v, want ErrInvalidDocument", err)
	}
}

func TestSanitize_DoesNotAliasDocument(t *testing.T) {
	doc := coursetest.Document()
	c, err := course.Sanitize(doc)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	doc.Modules[0].Title = "changed"
	if c.Modules[0].Title == "changed" {
		t.Error("course module shares memory with the document")
	}
}

func TestCourse_Lookups(t *testing.T) {
	c := coursetest.Course()

	if got := c.LastModuleIndex(); got != 9 {
		t.Errorf("LastModuleIndex = %d, want 9", got)
	}
	if got := c.ModuleIndex(coursetest.ModuleID(3)); got != 3 {
		t.Errorf("ModuleIndex = %d, want 3", got)
	}
	if got := c.ModuleIndex("missing"); got != -1 {
		t.Errorf("ModuleIndex(missing) = %d, want -1", got)
	}
	if _, ok := c.QuizAt(2); ok {
		t.Error("QuizAt(2) should be absent")
	}
	if _, ok := c.QuizAt(-1); ok {
		t.Error("QuizAt(-1) should be absent")
	}

	var nilCourse *course.Course
	if nilCourse.LastModuleIndex() != -1 {
		t.Error("nil course should have no modules")
	}
}

func TestToDocument_RoundTrip(t *testing.T) {
	c := coursetest.Course()
	back, err := course.Sanitize(c.ToDocument())
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(back.Modules) != len(c.Modules) || len(back.Quizzes) != len(c.Quizzes) {
		t.Fatalf("shape changed: %d modules, %d quizzes", len(back.Modules), len(back.Quizzes))
	}
	if back.Capstone == nil || back.Capstone.ID != coursetest.CapstoneID {
		t.Error("capstone lost")
	}
}

func TestValidateForPublish(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*course.Course)
		wantErr string
	}{
		{"valid", func(*course.Course) {}, ""},
		{"no quizzes", func(c *course.Course) { c.Quizzes = nil }, ""},
		{"no capstone", func(c *course.Course) { c.Capstone = nil }, ""},
		{"nine modules", func(c *course.Course) { c.Modules = c.Modules[:9] }, "modules must have exactly 10 entries"},
		{"three quizzes", func(c *course.Course) {
			c.Quizzes = append(c.Quizzes, *coursetest.Quiz("extra", "Extra", 1))
		}, "quizzes must have at most 2 entries"},
		{"three options", func(c *course.Course) {
			c.Quizzes[0].Questions[0].Options = []string{"a", "b", "c"}
		}, "quizzes[0].questions[0].options must have exactly 4 entries"},
		{"answer out of range", func(c *course.Course) {
			c.Quizzes[1].Questions[2].CorrectIndex = 4
		}, "quizzes[1].questions[2].correctIndex is out of range"},
		{"untitled module", func(c *course.Course) { c.Modules[4].Title = "" }, "modules[4].title is required"},
		{"bad capstone type", func(c *course.Course) { c.Capstone.Type = "essay" }, "capstone.type must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := coursetest.Course()
			tt.mutate(c)
			err := course.ValidateForPublish(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, course.ErrNotPublishable) {
				t.Fatalf("err = %v, want ErrNotPublishable", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestReadDocument_Format(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		wantErr bool
	}{
		{"no format", `{"id":"c1"}`, false},
		{"same major", `{"format":"v1.4.2","id":"c1"}`, false},
		{"next major", `{"format":"v2.0.0","id":"c1"}`, true},
		{"not semver", `{"format":"1.0","id":"c1"}`, true},
		{"bad json", `{"id":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := course.ReadDocument(strings.NewReader(tt.json))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if doc.Format == "" {
				t.Error("format should default to the current format")
			}
		})
	}
}

func TestReadDocument_NullModules(t *testing.T) {
	doc, err := course.ReadDocument(strings.NewReader(
		`{"id":"c1","modules":[null,{"id":"m1","title":"One"},null],"quizzes":[null]}`))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	c, err := course.Sanitize(doc)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if len(c.Modules) != 1 || c.Modules[0].ID != "m1" {
		t.Errorf("Modules = %+v, want only m1", c.Modules)
	}
	if _, ok := c.MidTerm(); ok {
		t.Error("null mid-term should be absent")
	}
}

func TestAssignIDs(t *testing.T) {
	doc := &course.Document{
		Modules: []*course.Module{{Title: "One"}, nil, {ID: "keep", Title: "Two"}},
		Quizzes: []*course.Quiz{{Title: "Mid", Questions: []course.Question{{Text: "?", Options: []string{"a"}}}}},
		Capstone: &course.Capstone{
			Instructions: "Write it up", Type: course.CapstoneProject,
		},
	}

	course.AssignIDs(doc)

	if doc.ID == "" {
		t.Error("course id not assigned")
	}
	if doc.Modules[0].ID == "" || doc.Modules[0].Order != 1 {
		t.Errorf("module 0 = %+v, want id and order 1", doc.Modules[0])
	}
	if doc.Modules[2].ID != "keep" {
		t.Errorf("existing id overwritten: %q", doc.Modules[2].ID)
	}
	if doc.Quizzes[0].ID == "" || doc.Quizzes[0].Questions[0].ID == "" {
		t.Error("quiz or question id not assigned")
	}
	if doc.Capstone.ID == "" {
		t.Error("capstone id not assigned")
	}
}
