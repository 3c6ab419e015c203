// Package progresstest provides an in-memory progress store for tests.
package progresstest

import (
	"context"
	"fmt"
	"sync"

	"github.com/edumeet/edumeet/internal/progress"
)

// MemStore is an in-memory progress.Store. Failure hooks let tests
// simulate a misbehaving backend.
type MemStore struct {
	mu      sync.Mutex
	records map[string]*progress.Progress
	nextID  int

	// GetErr and UpdateErr, when set, are returned by Get and Update.
	GetErr    error
	UpdateErr error

	// EmptyUpdate makes Update succeed without returning a record.
	EmptyUpdate bool

	// Block, when non-nil, makes Update wait until it is closed or the
	// context ends.
	Block chan struct{}

	// Updates counts successful Update calls.
	Updates int
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[string]*progress.Progress)}
}

func key(userID, courseID string) string {
	return userID + "/" + courseID
}

// Put seeds a record.
func (m *MemStore) Put(p *progress.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := p.Clone()
	if c.ID == "" {
		m.nextID++
		c.ID = fmt.Sprintf("progress-%d", m.nextID)
	}
	m.records[key(c.UserID, c.CourseID)] = c
}

func (m *MemStore) Get(ctx context.Context, userID, courseID string) (*progress.Progress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.records[key(userID, courseID)].Clone(), nil
}

func (m *MemStore) Update(ctx context.Context, p *progress.Progress) (*progress.Progress, error) {
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	if m.EmptyUpdate {
		return nil, nil
	}
	c := p.Clone()
	if c.ID == "" {
		m.nextID++
		c.ID = fmt.Sprintf("progress-%d", m.nextID)
	}
	m.records[key(c.UserID, c.CourseID)] = c
	m.Updates++
	return c.Clone(), nil
}

func (m *MemStore) GradeCapstone(ctx context.Context, progressID string, score int, feedback string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, p := range m.records {
		if p.ID != progressID {
			continue
		}
		next, err := p.WithCapstoneGrade(score, feedback)
		if err != nil {
			return err
		}
		m.records[k] = next
		return nil
	}
	return fmt.Errorf("progress %s not found", progressID)
}

// Record returns a copy of the stored record for (userID, courseID).
func (m *MemStore) Record(userID, courseID string) *progress.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[key(userID, courseID)].Clone()
}
