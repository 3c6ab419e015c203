// Package account models platform users, their roles and enrollment.
package account

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// MaxEnrollments is the number of courses a learner may be enrolled in.
const MaxEnrollments = 3

// ErrEnrollmentLimit is returned when enrolling past MaxEnrollments.
var ErrEnrollmentLimit = errors.New("enrollment limit reached")

// Role is a user's platform role.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// ParseRole parses a role name.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleStudent, RoleTutor, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Privileged reports whether the role previews courses: every non-student
// role bypasses access gates and never records progress.
func (r Role) Privileged() bool {
	return r != RoleStudent
}

// User is a platform account.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Role              Role      `json:"role"`
	EnrolledCourseIDs []string  `json:"enrolledCourseIds"`
	CreatedAt         time.Time `json:"createdAt"`
}

// Privileged reports whether the user previews courses.
func (u *User) Privileged() bool {
	return u != nil && u.Role.Privileged()
}

// IsEnrolled reports whether the user is enrolled in courseID.
func (u *User) IsEnrolled(courseID string) bool {
	return u != nil && slices.Contains(u.EnrolledCourseIDs, courseID)
}

// Enroll returns the user's course list with courseID added. Enrolling in a
// course twice is a no-op. changed reports whether the list grew.
func Enroll(u *User, courseID string) (ids []string, changed bool, err error) {
	ids = slices.Clone(u.EnrolledCourseIDs)
	if slices.Contains(ids, courseID) {
		return ids, false, nil
	}
	if len(ids) >= MaxEnrollments {
		return nil, false, fmt.Errorf("%w: %s is enrolled in %d courses", ErrEnrollmentLimit, u.ID, len(ids))
	}
	return append(ids, courseID), true, nil
}
