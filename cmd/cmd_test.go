package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumeet/edumeet/internal/course/coursetest"
	"github.com/edumeet/edumeet/internal/progress"
	"github.com/edumeet/edumeet/internal/store"
	"github.com/edumeet/edumeet/internal/tutor"
)

type harness struct {
	t  *testing.T
	db string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("EDUMEET_LLM_PROVIDER", "mock")
	t.Setenv("EDUMEET_USER", "")
	return &harness{t: t, db: filepath.Join(t.TempDir(), "edumeet.db")}
}

func (h *harness) run(user string, args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	full := []string{"--db", h.db}
	if user != "" {
		full = append(full, "--user", user)
	}
	root.SetArgs(append(full, args...))
	err := root.ExecuteContext(context.Background())
	return ansi.Strip(out.String()), err
}

func (h *harness) must(user string, args ...string) string {
	h.t.Helper()
	out, err := h.run(user, args...)
	require.NoError(h.t, err, "edumeet %s", strings.Join(args, " "))
	return out
}

// seed creates a tutor, a learner and the published fixture course.
func (h *harness) seed() {
	h.t.Helper()
	data, err := json.Marshal(coursetest.Document())
	require.NoError(h.t, err)
	path := filepath.Join(h.t.TempDir(), "course.json")
	require.NoError(h.t, os.WriteFile(path, data, 0o644))

	h.must("", "user", "add", "--id", "tutor-1", "--name", "Ada", "--role", "tutor")
	h.must("", "user", "add", "--id", "stu-1", "--name", "Grace")
	h.must("tutor-1", "course", "import", path)
	h.must("tutor-1", "course", "publish", coursetest.CourseID)
	h.must("stu-1", "enroll", coursetest.CourseID)
}

func allA(n int) string {
	return strings.TrimSuffix(strings.Repeat("a,", n), ",")
}

func TestNoActingUser(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "grade", coursetest.CourseID)
	assert.ErrorIs(t, err, errNoUser)
}

func TestLearnerCannotImport(t *testing.T) {
	h := newHarness(t)
	h.must("", "user", "add", "--id", "stu-1", "--name", "Grace")
	_, err := h.run("stu-1", "course", "import", "missing.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tutor or admin")
}

func TestEnrollRequiresPublishedCourse(t *testing.T) {
	h := newHarness(t)
	data, err := json.Marshal(coursetest.Document())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "course.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	h.must("", "user", "add", "--id", "tutor-1", "--name", "Ada", "--role", "tutor")
	h.must("", "user", "add", "--id", "stu-1", "--name", "Grace")
	h.must("tutor-1", "course", "import", path)

	_, err = h.run("stu-1", "enroll", coursetest.CourseID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not published")
}

func TestUnenrolledLearnerIsRejected(t *testing.T) {
	h := newHarness(t)
	h.seed()
	h.must("", "user", "add", "--id", "stu-2", "--name", "Linus")

	_, err := h.run("stu-2", "progress", coursetest.CourseID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enrolled")
}

func TestMidTermLockedUntilModuleFive(t *testing.T) {
	h := newHarness(t)
	h.seed()

	_, err := h.run("stu-1", "quiz", "take", coursetest.CourseID, "mid", "--answers", allA(10))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestCourseWalkthrough(t *testing.T) {
	h := newHarness(t)
	h.seed()
	id := coursetest.CourseID

	for range 5 {
		h.must("stu-1", "module", "complete", id)
	}

	_, err := h.run("stu-1", "module", "complete", id, "--module", "6")
	require.Error(t, err, "module 6 needs the mid-term")

	out := h.must("stu-1", "quiz", "take", id, "mid", "--answers", "a,a,a,a,a,a,b,b,b,b")
	assert.Contains(t, out, "Scored 60%")

	out = h.must("stu-1", "quiz", "take", id, "mid", "--answers", allA(10))
	assert.Contains(t, out, "Passed with 100%")

	for range 5 {
		h.must("stu-1", "module", "complete", id)
	}

	out = h.must("stu-1", "quiz", "take", id, "final", "--answers", allA(8))
	assert.Contains(t, out, "Passed with 80%")

	h.must("stu-1", "capstone", "submit", id, "--text", "A Raft-backed key-value store.")

	out = h.must("tutor-1", "capstone", "pending", id)
	assert.Contains(t, out, "A Raft-backed key-value store.")

	s, err := store.Open(h.db)
	require.NoError(t, err)
	rec, err := s.Progress().Get(context.Background(), "stu-1", id)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	assert.Equal(t, progress.CapstoneSubmitted, rec.CapstoneStatus)
	assert.Len(t, rec.CompletedModuleIDs, 10)

	h.must("tutor-1", "capstone", "grade", rec.ID, "--score", "90", "--feedback", "Solid work")

	out = h.must("stu-1", "notifications", "--unread", "--mark-read")
	assert.Contains(t, out, "Your project has been graded: 90%")
	out = h.must("stu-1", "notifications", "--unread")
	assert.Contains(t, out, "No notifications.")

	out = h.must("stu-1", "grade", id)
	assert.Contains(t, out, "Capstone")
}

func TestCapstoneGradeRequiresStaff(t *testing.T) {
	h := newHarness(t)
	h.seed()
	_, err := h.run("stu-1", "capstone", "grade", "anything", "--score", "100")
	require.Error(t, err)
}

func TestPreviewDoesNotRecord(t *testing.T) {
	h := newHarness(t)
	h.seed()
	id := coursetest.CourseID

	out := h.must("tutor-1", "quiz", "take", id, "final", "--answers", allA(10))
	assert.Contains(t, out, "Passed with 100%")
	assert.Contains(t, out, "preview: result not saved")

	s, err := store.Open(h.db)
	require.NoError(t, err)
	defer s.Close()
	rec, err := s.Progress().Get(context.Background(), "tutor-1", id)
	if err == nil {
		assert.Nil(t, rec)
	}
}

func TestTutorBusyReply(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out := h.must("stu-1", "tutor", "ask", coursetest.CourseID, "what", "is", "consensus?")
	assert.Contains(t, out, tutor.BusyReply)
}

func TestTutorLockedModule(t *testing.T) {
	h := newHarness(t)
	h.seed()

	_, err := h.run("stu-1", "tutor", "ask", coursetest.CourseID, "--module", "3", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestQuizShowPreview(t *testing.T) {
	h := newHarness(t)
	h.seed()

	out := h.must("tutor-1", "quiz", "show", coursetest.CourseID, "mid")
	assert.Contains(t, out, "a) ")
}

func TestParseAnswers(t *testing.T) {
	q := coursetest.Quiz("q", "Quiz", 4)

	got, err := parseAnswers("a, 2,-,D", *q)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{
		q.Questions[0].ID: 0,
		q.Questions[1].ID: 1,
		q.Questions[3].ID: 3,
	}, got)

	_, err = parseAnswers("e", *q)
	assert.Error(t, err)
	_, err = parseAnswers("a,a,a,a,a", *q)
	assert.Error(t, err)
}

func TestParseSlot(t *testing.T) {
	for in, want := range map[string]int{"mid": 0, "Midterm": 0, "final": 1, "1": 1} {
		got, err := parseSlot(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseSlot("capstone")
	assert.Error(t, err)
}
