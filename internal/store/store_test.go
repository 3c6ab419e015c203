package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumeet/edumeet/internal/account"
	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/course/coursetest"
	"github.com/edumeet/edumeet/internal/progress"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestCourseRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.Courses()
	ctx := context.Background()

	_, err := repo.GetCourse(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	c := coursetest.Course()
	require.NoError(t, repo.Save(ctx, c))
	assert.False(t, c.CreatedAt.IsZero())

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Title, got.Title)
	assert.Len(t, got.Modules, course.ModuleCount)
	require.NotNil(t, got.Capstone)
	assert.Equal(t, course.CapstoneProject, got.Capstone.Type)

	// Replace keeps a single row.
	c.Title = "Renamed"
	require.NoError(t, repo.Save(ctx, c))
	all, err := repo.List(ctx, CourseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Renamed", all[0].Title)

	published, err := repo.List(ctx, CourseFilter{PublishedOnly: true})
	require.NoError(t, err)
	assert.Empty(t, published)

	_, err = repo.SetPublished(ctx, c.ID, true)
	require.NoError(t, err)
	published, err = repo.List(ctx, CourseFilter{PublishedOnly: true, TutorID: c.TutorID})
	require.NoError(t, err)
	assert.Len(t, published, 1)
}

func TestCourseRepo_PublishRejectsIncompleteCourse(t *testing.T) {
	s := openTestStore(t)
	repo := s.Courses()
	ctx := context.Background()

	c := coursetest.Course(coursetest.WithModules(6))
	require.NoError(t, repo.Save(ctx, c))

	_, err := repo.SetPublished(ctx, c.ID, true)
	require.ErrorIs(t, err, course.ErrNotPublishable)

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.False(t, got.Published)
}

func TestProgressRepo_UpsertLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.Progress()
	ctx := context.Background()

	p, err := repo.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, p, "absent record reads as nil")

	first, _ := progress.New("u1", "c1").WithCompletedModule("m0")
	stored, err := repo.Update(ctx, first)
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)
	assert.Equal(t, []string{"m0"}, stored.CompletedModuleIDs)

	// A later write without an id keeps the stored id.
	second, _ := first.WithCompletedModule("m1")
	second = second.WithQuizResult(progress.QuizResult{
		QuizID: "q", Score: 80, Passed: true,
		AttemptedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	})
	again, err := repo.Update(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, stored.ID, again.ID)
	assert.Equal(t, []string{"m0", "m1"}, again.CompletedModuleIDs)
	require.Len(t, again.QuizResults, 1)
	assert.True(t, again.QuizResults[0].AttemptedAt.Equal(second.QuizResults[0].AttemptedAt))

	byID, err := repo.GetByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, again.CompletedModuleIDs, byID.CompletedModuleIDs)
}

func TestProgressRepo_GradeCapstone(t *testing.T) {
	s := openTestStore(t)
	repo := s.Progress()
	ctx := context.Background()

	p, err := repo.Update(ctx, progress.New("u1", "c1"))
	require.NoError(t, err)

	err = repo.GradeCapstone(ctx, p.ID, 90, "")
	require.ErrorIs(t, err, progress.ErrNotSubmitted)

	sub, err := p.WithCapstoneSubmission("my project")
	require.NoError(t, err)
	_, err = repo.Update(ctx, sub)
	require.NoError(t, err)

	pending, err := repo.ListByCourse(ctx, "c1", progress.CapstoneSubmitted)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, repo.GradeCapstone(ctx, p.ID, 85, "Well done"))
	graded, err := repo.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Equal(t, progress.CapstoneGraded, graded.CapstoneStatus)
	require.NotNil(t, graded.CapstoneGrade)
	assert.Equal(t, 85, *graded.CapstoneGrade)
	assert.Equal(t, "Well done", graded.CapstoneFeedback)

	// A stale client copy cannot move the status backwards.
	_, err = repo.Update(ctx, sub)
	require.ErrorIs(t, err, ErrStatusRegression)

	err = repo.GradeCapstone(ctx, "missing", 50, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepo_Enroll(t *testing.T) {
	s := openTestStore(t)
	repo := s.Users()
	ctx := context.Background()

	_, err := repo.Get(ctx, "u1")
	require.ErrorIs(t, err, ErrNotFound)

	require.Error(t, repo.Save(ctx, &account.User{ID: "bad", Role: "owner"}))
	require.NoError(t, repo.Save(ctx, &account.User{ID: "u1", Name: "Grace", Role: account.RoleStudent}))

	for _, c := range []string{"c1", "c2", "c3", "c2"} {
		_, err := repo.Enroll(ctx, "u1", c)
		require.NoError(t, err)
	}
	_, err = repo.Enroll(ctx, "u1", "c4")
	require.ErrorIs(t, err, account.ErrEnrollmentLimit)

	u, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, u.EnrolledCourseIDs)
	assert.Equal(t, account.RoleStudent, u.Role)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestNotificationRepo(t *testing.T) {
	s := openTestStore(t)
	repo := s.Notifications()
	ctx := context.Background()

	first, err := repo.Append(ctx, Notification{UserID: "u1", Message: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, NotifyInfo, first.Type)
	_, err = repo.Append(ctx, Notification{UserID: "u1", Type: NotifyGrade, Message: "Graded"})
	require.NoError(t, err)
	_, err = repo.Append(ctx, Notification{UserID: "u2", Message: "Other"})
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, "u1", false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Graded", list[0].Message, "newest first")

	require.NoError(t, repo.MarkRead(ctx, first.ID))
	unread, err := repo.ListByUser(ctx, "u1", true)
	require.NoError(t, err)
	require.Len(t, unread, 1)
	assert.Equal(t, NotifyGrade, unread[0].Type)

	err = repo.MarkRead(ctx, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEventRepo_LLMRequests(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i := range 3 {
		err := repo.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:    "anthropic",
			Model:       "claude-sonnet-4",
			Purpose:     "tutor",
			InputTokens: 100 * (i + 1),
			LatencyMs:   250,
			Success:     i != 1,
		})
		require.NoError(t, err)
	}

	events, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 300, events[0].InputTokens)
	assert.False(t, events[1].Success)

	after, err := repo.QueryLLMEvents(ctx, QueryOpts{After: events[1].ID})
	require.NoError(t, err)
	assert.Len(t, after, 1)
}
