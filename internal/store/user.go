package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/edumeet/edumeet/internal/account"
)

// UserRepo stores user accounts.
type UserRepo struct {
	db *sql.DB
}

var userColumns = []string{"id", "name", "email", "role", "enrolled", "created_at"}

// Get returns the user with the given id.
func (r *UserRepo) Get(ctx context.Context, id string) (*account.User, error) {
	return r.get(ctx, r.db, id)
}

func (r *UserRepo) get(ctx context.Context, c conn, id string) (*account.User, error) {
	sel := builder().Select(userColumns...).From(entsql.Table("users")).Where(entsql.EQ("id", id))
	u, err := scanUser(queryRow(ctx, c, sel))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return u, nil
}

// Save inserts or replaces a user. CreatedAt is set on first save.
func (r *UserRepo) Save(ctx context.Context, u *account.User) error {
	return r.save(ctx, r.db, u)
}

func (r *UserRepo) save(ctx context.Context, c conn, u *account.User) error {
	if _, err := account.ParseRole(string(u.Role)); err != nil {
		return err
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.EnrolledCourseIDs == nil {
		u.EnrolledCourseIDs = []string{}
	}
	enrolled, err := json.Marshal(u.EnrolledCourseIDs)
	if err != nil {
		return fmt.Errorf("marshal enrollments: %w", err)
	}

	ins := builder().Insert("users").
		Columns(userColumns...).
		Values(u.ID, u.Name, u.Email, string(u.Role), string(enrolled), formatTime(u.CreatedAt)).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWith(func(s *entsql.UpdateSet) {
				s.SetExcluded("name")
				s.SetExcluded("email")
				s.SetExcluded("role")
				s.SetExcluded("enrolled")
			}),
		)
	if _, err := execQuery(ctx, c, ins); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// Enroll adds courseID to the user's enrollments, enforcing the
// enrollment cap. Enrolling twice is a no-op.
func (r *UserRepo) Enroll(ctx context.Context, userID, courseID string) (*account.User, error) {
	var out *account.User
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		u, err := r.get(ctx, tx, userID)
		if err != nil {
			return err
		}
		ids, changed, err := account.Enroll(u, courseID)
		if err != nil {
			return err
		}
		u.EnrolledCourseIDs = ids
		out = u
		if !changed {
			return nil
		}
		return r.save(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns all users ordered by name.
func (r *UserRepo) List(ctx context.Context) ([]*account.User, error) {
	sel := builder().Select(userColumns...).From(entsql.Table("users")).OrderBy("name")
	rows, err := queryRows(ctx, r.db, sel)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []*account.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(s scanner) (*account.User, error) {
	var (
		u                  account.User
		role, enrolled, at string
	)
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &role, &enrolled, &at); err != nil {
		return nil, err
	}
	u.Role = account.Role(role)
	u.CreatedAt = parseTime(at)
	if err := json.Unmarshal([]byte(enrolled), &u.EnrolledCourseIDs); err != nil {
		return nil, fmt.Errorf("decode enrollments: %w", err)
	}
	return &u, nil
}
