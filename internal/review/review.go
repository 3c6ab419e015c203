// Package review is the tutor side of the capstone: listing submissions
// that await a grade and recording grades.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/edumeet/edumeet/internal/progress"
	"github.com/edumeet/edumeet/internal/store"
)

// ErrNoRecord is returned when grading an unknown progress record.
var ErrNoRecord = errors.New("progress record not found")

// Records is the progress storage review needs.
type Records interface {
	ListByCourse(ctx context.Context, courseID string, status progress.CapstoneStatus) ([]*progress.Progress, error)
	GetByID(ctx context.Context, id string) (*progress.Progress, error)
	GradeCapstone(ctx context.Context, progressID string, score int, feedback string) error
}

// Notifier delivers messages to users.
type Notifier interface {
	Append(ctx context.Context, n store.Notification) (store.Notification, error)
}

// Service grades capstone submissions.
type Service struct {
	records  Records
	notifier Notifier
	log      *slog.Logger
}

// NewService returns a Service. A nil logger uses slog.Default.
func NewService(records Records, notifier Notifier, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{records: records, notifier: notifier, log: log}
}

// Pending returns the course's submitted, ungraded capstones.
func (s *Service) Pending(ctx context.Context, courseID string) ([]*progress.Progress, error) {
	recs, err := s.records.ListByCourse(ctx, courseID, progress.CapstoneSubmitted)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return recs, nil
}

// Grade records score and feedback for a submitted capstone and notifies
// the learner. A failed notification is logged, not returned.
func (s *Service) Grade(ctx context.Context, progressID string, score int, feedback string) (*progress.Progress, error) {
	if err := progress.CheckGrade(score); err != nil {
		return nil, err
	}
	rec, err := s.records.GetByID(ctx, progressID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, progressID)
	}
	if rec.CapstoneStatus != progress.CapstoneSubmitted {
		return nil, fmt.Errorf("%w: status is %s", progress.ErrNotSubmitted, rec.CapstoneStatus)
	}

	if err := s.records.GradeCapstone(ctx, progressID, score, feedback); err != nil {
		return nil, fmt.Errorf("grade capstone: %w", err)
	}

	_, err = s.notifier.Append(ctx, store.Notification{
		UserID:  rec.UserID,
		Type:    store.NotifyGrade,
		Message: fmt.Sprintf("Your project has been graded: %d%%", score),
	})
	if err != nil {
		s.log.Warn("grade notification failed", "user", rec.UserID, "progress", progressID, "error", err)
	}

	graded, err := s.records.GetByID(ctx, progressID)
	if err != nil {
		return nil, fmt.Errorf("reload progress: %w", err)
	}
	return graded, nil
}
