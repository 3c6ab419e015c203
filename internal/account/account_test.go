package account

import (
	"errors"
	"slices"
	"testing"
)

func TestRole_Privileged(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleStudent, false},
		{RoleTutor, true},
		{RoleAdmin, true},
	}
	for _, tt := range tests {
		if got := tt.role.Privileged(); got != tt.want {
			t.Errorf("%s.Privileged() = %v, want %v", tt.role, got, tt.want)
		}
	}

	var nilUser *User
	if nilUser.Privileged() {
		t.Error("nil user should not be privileged")
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole("tutor"); err != nil || r != RoleTutor {
		t.Errorf("ParseRole(tutor) = %q, %v", r, err)
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestEnroll(t *testing.T) {
	u := &User{ID: "u1", Role: RoleStudent}

	for _, c := range []string{"c1", "c2", "c3"} {
		ids, changed, err := Enroll(u, c)
		if err != nil || !changed {
			t.Fatalf("Enroll(%s) = %v, %v", c, changed, err)
		}
		u.EnrolledCourseIDs = ids
	}

	ids, changed, err := Enroll(u, "c2")
	if err != nil || changed {
		t.Errorf("re-enroll: changed = %v, err = %v; want no-op", changed, err)
	}
	if !slices.Equal(ids, []string{"c1", "c2", "c3"}) {
		t.Errorf("ids = %v", ids)
	}

	if _, _, err := Enroll(u, "c4"); !errors.Is(err, ErrEnrollmentLimit) {
		t.Errorf("fourth course: err = %v, want ErrEnrollmentLimit", err)
	}
	if !u.IsEnrolled("c3") || u.IsEnrolled("c4") {
		t.Error("IsEnrolled mismatch")
	}
}
