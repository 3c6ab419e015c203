package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/edumeet/edumeet/internal/course"
)

// CourseRepo stores course documents.
type CourseRepo struct {
	db *sql.DB
}

// CourseFilter narrows List.
type CourseFilter struct {
	TutorID       string
	PublishedOnly bool
}

// GetCourse returns the stored document for id. Documents are returned as
// stored; callers sanitize them.
func (r *CourseRepo) GetCourse(ctx context.Context, id string) (*course.Document, error) {
	sel := builder().Select("data").From(entsql.Table("courses")).Where(entsql.EQ("id", id))

	var data string
	if err := queryRow(ctx, r.db, sel).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("course %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query course: %w", err)
	}
	return decodeCourse(data)
}

// Get returns the sanitized course for id.
func (r *CourseRepo) Get(ctx context.Context, id string) (*course.Course, error) {
	doc, err := r.GetCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	return course.Sanitize(doc)
}

// Save inserts or replaces a course. CreatedAt is set on first save.
func (r *CourseRepo) Save(ctx context.Context, c *course.Course) error {
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	data, err := json.Marshal(c.ToDocument())
	if err != nil {
		return fmt.Errorf("marshal course: %w", err)
	}

	ins := builder().Insert("courses").
		Columns("id", "tutor_id", "title", "published", "data", "created_at", "updated_at").
		Values(c.ID, c.TutorID, c.Title, c.Published, string(data), formatTime(c.CreatedAt), formatTime(now)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("tutor_id")
				u.SetExcluded("title")
				u.SetExcluded("published")
				u.SetExcluded("data")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := execQuery(ctx, r.db, ins); err != nil {
		return fmt.Errorf("save course: %w", err)
	}
	return nil
}

// SetPublished publishes or unpublishes a course. Publishing enforces the
// publish rules.
func (r *CourseRepo) SetPublished(ctx context.Context, id string, published bool) (*course.Course, error) {
	c, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if published {
		if err := course.ValidateForPublish(c); err != nil {
			return nil, err
		}
	}
	c.Published = published
	if err := r.Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the courses matching f ordered by title. Documents that
// cannot be read are skipped.
func (r *CourseRepo) List(ctx context.Context, f CourseFilter) ([]*course.Course, error) {
	sel := builder().Select("data").From(entsql.Table("courses")).OrderBy("title")
	var preds []*entsql.Predicate
	if f.TutorID != "" {
		preds = append(preds, entsql.EQ("tutor_id", f.TutorID))
	}
	if f.PublishedOnly {
		preds = append(preds, entsql.EQ("published", true))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}

	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []*course.Course
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		doc, err := decodeCourse(data)
		if err != nil {
			continue
		}
		c, err := course.Sanitize(doc)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func decodeCourse(data string) (*course.Document, error) {
	var doc course.Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return nil, fmt.Errorf("decode course: %w", err)
	}
	return &doc, nil
}
