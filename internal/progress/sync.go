package progress

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds a single store request.
const DefaultTimeout = 120 * time.Second

var (
	// ErrBusy is returned when a write is issued while another is pending.
	ErrBusy = errors.New("progress write already in flight")

	// ErrTimeout is returned when the store does not answer in time. The
	// local record is unchanged and the write may be retried.
	ErrTimeout = errors.New("progress store timed out")

	// ErrEmptyResponse is returned when the store acknowledges a write
	// without returning the stored record.
	ErrEmptyResponse = errors.New("progress store returned no record")

	// ErrReadOnly is returned when a preview syncer is asked to write.
	ErrReadOnly = errors.New("progress is read-only in preview")
)

// Mutation derives the next record from the current one. It must not
// modify its argument.
type Mutation func(cur *Progress) (*Progress, error)

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithTimeout sets the per-request window. Zero disables it.
func WithTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) { s.log = l }
}

// Syncer owns the session's copy of one progress record. Every change is a
// full read-modify-write: the mutation is applied to the local copy, the
// whole record is sent to the store and the store's answer replaces the
// local copy. At most one write is in flight at a time.
type Syncer struct {
	store   Store
	timeout time.Duration
	log     *slog.Logger

	mu       sync.Mutex
	cur      *Progress
	inFlight bool
	preview  bool
}

// NewSyncer returns a Syncer for the given store.
func NewSyncer(store Store, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store:   store,
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the record for (userID, courseID) and makes it the local
// copy. A missing record or a failed fetch leaves the default empty record
// in place; the fetch error is returned so the caller can report it.
func (s *Syncer) Load(ctx context.Context, userID, courseID string) (*Progress, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.inFlight = true
	s.preview = false
	s.mu.Unlock()

	p, err := s.fetch(ctx, userID, courseID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil || p == nil {
		s.cur = New(userID, courseID)
		if err != nil {
			s.log.Warn("load progress failed, starting from empty record",
				"user", userID, "course", courseID, "error", err)
			return s.cur.Clone(), err
		}
		return s.cur.Clone(), nil
	}
	p.Normalize()
	s.cur = p
	return s.cur.Clone(), nil
}

func (s *Syncer) fetch(ctx context.Context, userID, courseID string) (*Progress, error) {
	ctx, cancel := s.window(ctx)
	defer cancel()

	p, err := s.store.Get(ctx, userID, courseID)
	if err != nil {
		return nil, s.classify(ctx, fmt.Errorf("get progress: %w", err))
	}
	return p, nil
}

// Preview installs an ephemeral record that is never written.
func (s *Syncer) Preview(userID, courseID string) *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := New(userID, courseID)
	p.ID = PreviewID
	s.cur = p
	s.preview = true
	return p.Clone()
}

// Current returns a copy of the local record.
func (s *Syncer) Current() *Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Clone()
}

// Busy reports whether a request is pending.
func (s *Syncer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Apply runs m against the local record, writes the result and installs the
// store's answer as the new local record. On any error the local record is
// left as it was.
func (s *Syncer) Apply(ctx context.Context, m Mutation) (*Progress, error) {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if s.preview {
		s.mu.Unlock()
		return nil, ErrReadOnly
	}
	if s.cur == nil {
		s.mu.Unlock()
		return nil, errors.New("progress not loaded")
	}
	next, err := m(s.cur.Clone())
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.inFlight = true
	s.mu.Unlock()

	stored, err := s.write(ctx, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.log.Warn("progress write failed", "progress", next.ID, "error", err)
		return nil, err
	}
	stored.Normalize()
	s.cur = stored
	return s.cur.Clone(), nil
}

func (s *Syncer) write(ctx context.Context, p *Progress) (*Progress, error) {
	ctx, cancel := s.window(ctx)
	defer cancel()

	p.UpdatedAt = time.Now().UTC()
	stored, err := s.store.Update(ctx, p)
	if err != nil {
		return nil, s.classify(ctx, fmt.Errorf("update progress: %w", err))
	}
	if stored == nil {
		return nil, ErrEmptyResponse
	}
	return stored, nil
}

func (s *Syncer) window(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// classify maps a deadline expiry of the request window to ErrTimeout.
func (s *Syncer) classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
