package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/edumeet/edumeet/internal/progress"
)

// ErrStatusRegression is returned when an update would move a capstone
// status backwards.
var ErrStatusRegression = errors.New("capstone status cannot move backwards")

// ProgressRepo stores progress records. It implements progress.Store.
type ProgressRepo struct {
	db *sql.DB
}

var _ progress.Store = (*ProgressRepo)(nil)

// Get returns the record for (userID, courseID), or nil if none exists.
func (r *ProgressRepo) Get(ctx context.Context, userID, courseID string) (*progress.Progress, error) {
	return r.get(ctx, r.db, entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("course_id", courseID),
	))
}

// GetByID returns the record with the given id, or nil if none exists.
func (r *ProgressRepo) GetByID(ctx context.Context, id string) (*progress.Progress, error) {
	return r.get(ctx, r.db, entsql.EQ("id", id))
}

func (r *ProgressRepo) get(ctx context.Context, c conn, pred *entsql.Predicate) (*progress.Progress, error) {
	sel := builder().Select("data").From(entsql.Table("progress")).Where(pred)

	var data string
	if err := queryRow(ctx, c, sel).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return decodeProgress(data)
}

// Update writes the whole record keyed by (user, course). The first write
// creates the record and assigns its id; later writes keep the stored id.
// It returns the record as stored.
func (r *ProgressRepo) Update(ctx context.Context, p *progress.Progress) (*progress.Progress, error) {
	var stored *progress.Progress
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		stored, err = r.upsert(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (r *ProgressRepo) upsert(ctx context.Context, tx *sql.Tx, p *progress.Progress) (*progress.Progress, error) {
	key := entsql.And(entsql.EQ("user_id", p.UserID), entsql.EQ("course_id", p.CourseID))
	existing, err := r.get(ctx, tx, key)
	if err != nil {
		return nil, err
	}

	next := p.Clone()
	next.Normalize()
	switch {
	case existing != nil:
		if !existing.Advances(next) {
			return nil, fmt.Errorf("%w: %s to %s", ErrStatusRegression,
				existing.CapstoneStatus, next.CapstoneStatus)
		}
		next.ID = existing.ID
	case next.ID == "" || next.ID == progress.PreviewID:
		next.ID = uuid.NewString()
	}

	data, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("marshal progress: %w", err)
	}
	ins := builder().Insert("progress").
		Columns("id", "user_id", "course_id", "capstone_status", "data", "updated_at").
		Values(next.ID, next.UserID, next.CourseID, string(next.CapstoneStatus), string(data), formatTime(next.UpdatedAt)).
		OnConflict(
			entsql.ConflictColumns("user_id", "course_id"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				u.SetExcluded("capstone_status")
				u.SetExcluded("data")
				u.SetExcluded("updated_at")
			}),
		)
	if _, err := execQuery(ctx, tx, ins); err != nil {
		return nil, fmt.Errorf("save progress: %w", err)
	}
	return r.get(ctx, tx, key)
}

// GradeCapstone grades the submitted capstone of the record with the given id.
func (r *ProgressRepo) GradeCapstone(ctx context.Context, progressID string, score int, feedback string) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		p, err := r.get(ctx, tx, entsql.EQ("id", progressID))
		if err != nil {
			return err
		}
		if p == nil {
			return fmt.Errorf("progress %s: %w", progressID, ErrNotFound)
		}
		graded, err := p.WithCapstoneGrade(score, feedback)
		if err != nil {
			return err
		}
		_, err = r.upsert(ctx, tx, graded)
		return err
	})
}

// ListByCourse returns the records of a course, optionally only those
// with the given capstone status.
func (r *ProgressRepo) ListByCourse(ctx context.Context, courseID string, status progress.CapstoneStatus) ([]*progress.Progress, error) {
	pred := entsql.EQ("course_id", courseID)
	if status != "" {
		pred = entsql.And(pred, entsql.EQ("capstone_status", string(status)))
	}
	sel := builder().Select("data").From(entsql.Table("progress")).
		Where(pred).
		OrderBy("updated_at")

	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var out []*progress.Progress
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		p, err := decodeProgress(data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func decodeProgress(data string) (*progress.Progress, error) {
	var p progress.Progress
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode progress: %w", err)
	}
	p.Normalize()
	return &p, nil
}
