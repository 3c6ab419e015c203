package progress

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// PassingScore is the minimum quiz score that counts as a pass.
const PassingScore = 70

// PreviewID is the id of the ephemeral record handed to privileged viewers.
const PreviewID = "preview"

var (
	// ErrCapstoneGraded is returned when a graded capstone is resubmitted.
	ErrCapstoneGraded = errors.New("capstone already graded")

	// ErrNotSubmitted is returned when grading a capstone that was never submitted.
	ErrNotSubmitted = errors.New("capstone not submitted")

	// ErrEmptySubmission is returned for a blank capstone submission.
	ErrEmptySubmission = errors.New("capstone submission is empty")

	// ErrGradeRange is returned for a grade outside 0-100.
	ErrGradeRange = errors.New("grade out of range")
)

// CapstoneStatus is the forward-only capstone lifecycle.
type CapstoneStatus string

const (
	CapstonePending   CapstoneStatus = "pending"
	CapstoneSubmitted CapstoneStatus = "submitted"
	CapstoneGraded    CapstoneStatus = "graded"
)

// rank orders statuses so transitions can be checked for regression.
func (s CapstoneStatus) rank() int {
	switch s {
	case CapstoneSubmitted:
		return 1
	case CapstoneGraded:
		return 2
	default:
		return 0
	}
}

// QuizResult is one recorded quiz attempt.
type QuizResult struct {
	QuizID      string    `json:"quizId"`
	Score       int       `json:"score"`
	Passed      bool      `json:"passed"`
	AttemptedAt time.Time `json:"timestamp"`
}

// ScoreAttempt grades an attempt: the percentage of correct answers rounded
// to the nearest integer, passed at PassingScore or above.
func ScoreAttempt(correct, total int) (score int, passed bool) {
	if total <= 0 {
		return 0, false
	}
	correct = max(0, min(correct, total))
	// Integer rounding of correct*100/total, half away from zero.
	score = (correct*200 + total) / (2 * total)
	return score, score >= PassingScore
}

// Progress is a learner's record for one course.
type Progress struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"userId"`
	CourseID           string         `json:"courseId"`
	CompletedModuleIDs []string       `json:"completedModuleIds"`
	QuizResults        []QuizResult   `json:"quizResults"`
	CapstoneStatus     CapstoneStatus `json:"capstoneStatus"`
	CapstoneSubmission string         `json:"capstoneSubmissionText,omitempty"`
	CapstoneGrade      *int           `json:"capstoneGrade,omitempty"`
	CapstoneFeedback   string         `json:"capstoneFeedback,omitempty"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// New returns the default record of a learner who never started the course.
// The id is left empty; the store assigns one on first update.
func New(userID, courseID string) *Progress {
	return &Progress{
		UserID:             userID,
		CourseID:           courseID,
		CompletedModuleIDs: []string{},
		QuizResults:        []QuizResult{},
		CapstoneStatus:     CapstonePending,
	}
}

// Clone returns a deep copy of p.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	c.CompletedModuleIDs = slices.Clone(p.CompletedModuleIDs)
	c.QuizResults = slices.Clone(p.QuizResults)
	if p.CapstoneGrade != nil {
		g := *p.CapstoneGrade
		c.CapstoneGrade = &g
	}
	return &c
}

// Normalize repairs a record read from an external store: duplicate module
// ids are removed keeping the first occurrence, nil slices become empty and
// an unknown capstone status reads as pending.
func (p *Progress) Normalize() {
	seen := make(map[string]bool, len(p.CompletedModuleIDs))
	ids := make([]string, 0, len(p.CompletedModuleIDs))
	for _, id := range p.CompletedModuleIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	p.CompletedModuleIDs = ids
	if p.QuizResults == nil {
		p.QuizResults = []QuizResult{}
	}
	switch p.CapstoneStatus {
	case CapstonePending, CapstoneSubmitted, CapstoneGraded:
	default:
		p.CapstoneStatus = CapstonePending
	}
}

// HasCompleted reports whether moduleID is in the completed set.
func (p *Progress) HasCompleted(moduleID string) bool {
	return p != nil && slices.Contains(p.CompletedModuleIDs, moduleID)
}

// HasPassed reports whether any recorded attempt at quizID passed.
func (p *Progress) HasPassed(quizID string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.QuizResults {
		if r.QuizID == quizID && r.Passed {
			return true
		}
	}
	return false
}

// LatestResult returns the most recent attempt at quizID by AttemptedAt.
// Attempts with equal timestamps resolve to the one recorded last.
func (p *Progress) LatestResult(quizID string) (QuizResult, bool) {
	var (
		latest QuizResult
		found  bool
	)
	if p == nil {
		return latest, false
	}
	for _, r := range p.QuizResults {
		if r.QuizID != quizID {
			continue
		}
		if !found || !r.AttemptedAt.Before(latest.AttemptedAt) {
			latest, found = r, true
		}
	}
	return latest, found
}

// Attempts returns every recorded attempt at quizID in recorded order.
func (p *Progress) Attempts(quizID string) []QuizResult {
	var out []QuizResult
	if p == nil {
		return out
	}
	for _, r := range p.QuizResults {
		if r.QuizID == quizID {
			out = append(out, r)
		}
	}
	return out
}

// WithCompletedModule returns a copy with moduleID appended to the completed
// set. changed is false, and the copy equals p, when it was already there.
func (p *Progress) WithCompletedModule(moduleID string) (next *Progress, changed bool) {
	next = p.Clone()
	if moduleID == "" || next.HasCompleted(moduleID) {
		return next, false
	}
	next.CompletedModuleIDs = append(next.CompletedModuleIDs, moduleID)
	return next, true
}

// WithQuizResult returns a copy with r appended to the attempt list.
func (p *Progress) WithQuizResult(r QuizResult) *Progress {
	next := p.Clone()
	next.QuizResults = append(next.QuizResults, r)
	return next
}

// WithCapstoneSubmission returns a copy carrying text as the submitted
// capstone. A submitted capstone may be replaced until it is graded.
func (p *Progress) WithCapstoneSubmission(text string) (*Progress, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptySubmission
	}
	if p.CapstoneStatus == CapstoneGraded {
		return nil, ErrCapstoneGraded
	}
	next := p.Clone()
	next.CapstoneStatus = CapstoneSubmitted
	next.CapstoneSubmission = text
	return next, nil
}

// WithCapstoneGrade returns a copy with the capstone graded.
func (p *Progress) WithCapstoneGrade(score int, feedback string) (*Progress, error) {
	if err := CheckGrade(score); err != nil {
		return nil, err
	}
	if p.CapstoneStatus != CapstoneSubmitted {
		return nil, fmt.Errorf("%w: status is %s", ErrNotSubmitted, p.CapstoneStatus)
	}
	next := p.Clone()
	next.CapstoneStatus = CapstoneGraded
	next.CapstoneGrade = &score
	next.CapstoneFeedback = feedback
	return next, nil
}

// CheckGrade rejects grades outside 0-100.
func CheckGrade(score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("%w: %d", ErrGradeRange, score)
	}
	return nil
}

// Advances reports whether moving from p to next keeps the capstone status
// moving forward.
func (p *Progress) Advances(next *Progress) bool {
	return next.CapstoneStatus.rank() >= p.CapstoneStatus.rank()
}
