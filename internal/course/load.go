package course

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"
)

// CurrentFormat is the course document format written by this version.
// Documents with the same major version are accepted on read.
const CurrentFormat = "v1.0.0"

// ReadDocument decodes a course document and checks its format version.
// A document without a format is read as the current format.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode course document: %w", err)
	}
	if err := checkFormat(doc.Format); err != nil {
		return nil, err
	}
	if doc.Format == "" {
		doc.Format = CurrentFormat
	}
	return &doc, nil
}

// LoadFile reads a course document from disk.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open course document: %w", err)
	}
	defer f.Close()
	return ReadDocument(f)
}

func checkFormat(format string) error {
	if format == "" {
		return nil
	}
	if !semver.IsValid(format) {
		return fmt.Errorf("%w: format %q is not a semantic version", ErrInvalidDocument, format)
	}
	if semver.Major(format) != semver.Major(CurrentFormat) {
		return fmt.Errorf("%w: unsupported format %s (want %s.x)",
			ErrInvalidDocument, format, semver.Major(CurrentFormat))
	}
	return nil
}

// AssignIDs fills in missing course, module, quiz, question and capstone ids.
// Authoring files may omit ids; Sanitize would otherwise drop those entries.
func AssignIDs(doc *Document) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	for i, m := range doc.Modules {
		if m == nil {
			continue
		}
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.Order == 0 {
			m.Order = i + 1
		}
	}
	for _, q := range doc.Quizzes {
		if q == nil {
			continue
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		for j := range q.Questions {
			if q.Questions[j].ID == "" {
				q.Questions[j].ID = uuid.NewString()
			}
		}
	}
	if doc.Capstone != nil && doc.Capstone.ID == "" {
		doc.Capstone.ID = uuid.NewString()
	}
}
