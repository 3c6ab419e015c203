package course

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDocument is returned when a course document cannot be turned
// into a Course at all.
var ErrInvalidDocument = errors.New("invalid course document")

// Document is a course as handed over by the course store or read from an
// authoring file. Entries may be nil or incomplete; Sanitize is the only
// way from a Document to a Course.
type Document struct {
	Format      string    `json:"format,omitempty"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	TutorID     string    `json:"tutorId"`
	TutorName   string    `json:"tutorName"`
	Price       float64   `json:"price"`
	Modules     []*Module `json:"modules"`
	Quizzes     []*Quiz   `json:"quizzes"`
	Capstone    *Capstone `json:"capstone,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Sanitize filters a document into a Course that is safe to index by
// position:
//   - nil modules, modules without an id and repeated module ids are dropped
//   - quiz slots keep their position; a nil or id-less quiz becomes an empty slot
//   - nil questions, id-less questions and questions without options are dropped
//   - a capstone without an id is dropped; an unknown type becomes a project
func Sanitize(doc *Document) (*Course, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return nil, fmt.Errorf("%w: missing course id", ErrInvalidDocument)
	}

	c := &Course{
		ID:          doc.ID,
		Title:       doc.Title,
		Description: doc.Description,
		TutorID:     doc.TutorID,
		TutorName:   doc.TutorName,
		Price:       doc.Price,
		Published:   doc.Published,
		CreatedAt:   doc.CreatedAt,
		Modules:     sanitizeModules(doc.Modules),
		Quizzes:     sanitizeQuizzes(doc.Quizzes),
	}

	if cs := doc.Capstone; cs != nil && cs.ID != "" {
		capstone := *cs
		if !capstone.Type.Valid() {
			capstone.Type = CapstoneProject
		}
		c.Capstone = &capstone
	}

	return c, nil
}

func sanitizeModules(in []*Module) []Module {
	out := make([]Module, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, m := range in {
		if m == nil || m.ID == "" || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, *m)
	}
	return out
}

func sanitizeQuizzes(in []*Quiz) []Quiz {
	out := make([]Quiz, len(in))
	for i, q := range in {
		if q == nil || q.ID == "" {
			continue
		}
		out[i] = Quiz{
			ID:        q.ID,
			Title:     q.Title,
			Questions: sanitizeQuestions(q.Questions),
		}
	}
	return out
}

func sanitizeQuestions(in []Question) []Question {
	out := make([]Question, 0, len(in))
	for _, q := range in {
		if q.ID == "" || len(q.Options) == 0 {
			continue
		}
		out = append(out, q)
	}
	return out
}

// ToDocument converts a course back into its wire shape.
func (c *Course) ToDocument() *Document {
	doc := &Document{
		Format:      CurrentFormat,
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		TutorID:     c.TutorID,
		TutorName:   c.TutorName,
		Price:       c.Price,
		Published:   c.Published,
		CreatedAt:   c.CreatedAt,
		Modules:     make([]*Module, len(c.Modules)),
		Quizzes:     make([]*Quiz, len(c.Quizzes)),
	}
	for i := range c.Modules {
		m := c.Modules[i]
		doc.Modules[i] = &m
	}
	for i := range c.Quizzes {
		if !c.Quizzes[i].Present() {
			continue
		}
		q := c.Quizzes[i]
		doc.Quizzes[i] = &q
	}
	if c.Capstone != nil {
		cs := *c.Capstone
		doc.Capstone = &cs
	}
	return doc
}
