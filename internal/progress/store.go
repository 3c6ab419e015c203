// Package progress holds a learner's per-course record and the protocol
// that keeps the in-memory copy in step with the external progress store.
package progress

import "context"

// Store is the external progress collaborator.
type Store interface {
	// Get returns the record for (userID, courseID), or nil if the learner
	// never started the course.
	Get(ctx context.Context, userID, courseID string) (*Progress, error)

	// Update writes the full record, creating it on first write, and
	// returns the canonical stored record.
	Update(ctx context.Context, p *Progress) (*Progress, error)

	// GradeCapstone records a tutor's grade. The result is observed through Get.
	GradeCapstone(ctx context.Context, progressID string, score int, feedback string) error
}
