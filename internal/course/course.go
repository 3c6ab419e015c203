package course

import "time"

// Curriculum shape of a published course.
const (
	// ModuleCount is the number of modules a published course carries.
	ModuleCount = 10

	// MaxQuizzes is the number of quiz slots: mid-term and final.
	MaxQuizzes = 2

	// OptionsPerQuestion is the number of answer options per question.
	OptionsPerQuestion = 4

	MidTermIndex = 0
	FinalIndex   = 1
)

// CapstoneType distinguishes a free-form project from a final exam.
type CapstoneType string

const (
	CapstoneProject   CapstoneType = "project"
	CapstoneFinalExam CapstoneType = "final_exam"
)

// Valid reports whether t is a known capstone type.
func (t CapstoneType) Valid() bool {
	return t == CapstoneProject || t == CapstoneFinalExam
}

// Module is one lesson unit. Its position in Course.Modules is authoritative;
// Order is informational.
type Module struct {
	ID            string `json:"id" validate:"required"`
	Title         string `json:"title" validate:"required"`
	Order         int    `json:"order"`
	VideoURL      string `json:"videoUrl"`
	LessonContent string `json:"lessonContent"`
	Transcript    string `json:"transcript"`
}

// Question is a multiple-choice question with a single correct option.
type Question struct {
	ID           string   `json:"id" validate:"required"`
	Text         string   `json:"text" validate:"required"`
	Options      []string `json:"options" validate:"len=4,dive,required"`
	CorrectIndex int      `json:"correctIndex" validate:"gte=0,lte=3"`
}

// Quiz is an ordered list of questions. A zero Quiz (empty ID) marks an
// absent slot.
type Quiz struct {
	ID        string     `json:"id" validate:"required"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions" validate:"min=1,dive"`
}

// Present reports whether the slot holds a quiz.
func (q Quiz) Present() bool {
	return q.ID != ""
}

// Capstone is the final project or exam of a course.
type Capstone struct {
	ID           string       `json:"id" validate:"required"`
	Instructions string       `json:"instructions" validate:"required"`
	Type         CapstoneType `json:"type" validate:"required,capstonetype"`
}

// Course is a sanitized curriculum definition. Build one with Sanitize.
type Course struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	TutorID     string    `json:"tutorId"`
	TutorName   string    `json:"tutorName"`
	Price       float64   `json:"price" validate:"gte=0"`
	Modules     []Module  `json:"modules" validate:"len=10,dive"`
	Quizzes     []Quiz    `json:"quizzes" validate:"max=2,dive"`
	Capstone    *Capstone `json:"capstone,omitempty" validate:"omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
}

// QuizAt returns the quiz in slot i. ok is false when the slot is out of
// range or empty.
func (c *Course) QuizAt(i int) (Quiz, bool) {
	if c == nil || i < 0 || i >= len(c.Quizzes) {
		return Quiz{}, false
	}
	q := c.Quizzes[i]
	return q, q.Present()
}

// MidTerm returns the quiz in the mid-term slot.
func (c *Course) MidTerm() (Quiz, bool) {
	return c.QuizAt(MidTermIndex)
}

// Final returns the quiz in the final slot.
func (c *Course) Final() (Quiz, bool) {
	return c.QuizAt(FinalIndex)
}

// LastModuleIndex returns the index of the last module, or -1 for a course
// without modules.
func (c *Course) LastModuleIndex() int {
	if c == nil {
		return -1
	}
	return len(c.Modules) - 1
}

// ModuleIndex returns the position of the module with the given id, or -1.
func (c *Course) ModuleIndex(id string) int {
	if c == nil {
		return -1
	}
	for i, m := range c.Modules {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// ModuleIDs returns the set of module ids in the course.
func (c *Course) ModuleIDs() map[string]bool {
	ids := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		ids[m.ID] = true
	}
	return ids
}

// HasCapstone reports whether the course defines a capstone.
func (c *Course) HasCapstone() bool {
	return c != nil && c.Capstone != nil
}
