// Package player drives a learner through a course: which view is active,
// which transitions are allowed from it, and how each transition is
// recorded in the learner's progress.
package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/edumeet/edumeet/internal/access"
	"github.com/edumeet/edumeet/internal/account"
	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/grade"
	"github.com/edumeet/edumeet/internal/progress"
)

var (
	// ErrCourseUnavailable is returned by Load when the course cannot be
	// fetched or has nothing to play.
	ErrCourseUnavailable = errors.New("course unavailable")

	// ErrNotLoaded is returned by transitions before a successful Load.
	ErrNotLoaded = errors.New("player not loaded")

	// ErrLocked is returned when the access policy denies the target.
	ErrLocked = errors.New("locked")

	// ErrInvalidTransition is returned when the action is not available
	// from the current view.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrNoQuiz is returned when opening an empty quiz slot.
	ErrNoQuiz = errors.New("no quiz in slot")

	// ErrNoCapstone is returned when the course defines no capstone.
	ErrNoCapstone = errors.New("course has no capstone")

	// ErrEmptyQuiz is returned when submitting a quiz without questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")

	// ErrBusy is returned while a store request is pending.
	ErrBusy = progress.ErrBusy
)

// View is the active player screen.
type View string

const (
	ViewModule   View = "module"
	ViewQuiz     View = "quiz"
	ViewCapstone View = "capstone"
	ViewResult   View = "result"
)

// CourseSource is the external course collaborator.
type CourseSource interface {
	GetCourse(ctx context.Context, courseID string) (*course.Document, error)
}

// Viewer identifies who is playing the course.
type Viewer struct {
	UserID string
	Role   account.Role
}

// Privileged reports whether the viewer previews the course.
func (v Viewer) Privileged() bool {
	return v.Role.Privileged()
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Player) { p.log = l }
}

// WithTimeout bounds each course and progress request.
func WithTimeout(d time.Duration) Option {
	return func(p *Player) { p.timeout = d }
}

// WithClock overrides the time source used to stamp quiz attempts.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// Player is the progression state machine for one viewer and one course.
// It is safe for concurrent use; a transition issued while a store request
// is pending fails with ErrBusy.
type Player struct {
	courses CourseSource
	store   progress.Store
	log     *slog.Logger
	timeout time.Duration
	now     func() time.Time

	mu      sync.Mutex
	syncer  *progress.Syncer
	pending bool
	viewer  Viewer
	course  *course.Course
	view    View
	index   int
	slot    int
	result  *progress.QuizResult
}

// New returns an unloaded Player.
func New(courses CourseSource, store progress.Store, opts ...Option) *Player {
	p := &Player{
		courses: courses,
		store:   store,
		log:     slog.Default(),
		timeout: progress.DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State is a snapshot of the player.
type State struct {
	View     View
	Index    int
	QuizSlot int
	Result   *progress.QuizResult
	Progress *progress.Progress
	Outline  access.Outline
	Grade    grade.Breakdown
	Busy     bool
	Preview  bool
}

// Load fetches the course and the viewer's progress and places the viewer
// on the module view. A course that cannot be fetched or sanitized fails
// with ErrCourseUnavailable. Progress that cannot be fetched degrades to an
// empty record. Privileged viewers get an ephemeral preview record.
func (p *Player) Load(ctx context.Context, courseID string, viewer Viewer) error {
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	c, err := p.fetchCourse(ctx, courseID)
	if err != nil {
		return err
	}

	s := progress.NewSyncer(p.store,
		progress.WithTimeout(p.timeout),
		progress.WithLogger(p.log))
	var rec *progress.Progress
	if viewer.Privileged() {
		rec = s.Preview(viewer.UserID, c.ID)
	} else {
		// Load logs the failure and falls back to an empty record.
		rec, _ = s.Load(ctx, viewer.UserID, c.ID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.syncer = s
	p.viewer = viewer
	p.course = c
	p.view = ViewModule
	p.result = nil
	p.index = p.initialIndex(rec)
	p.log.Debug("course loaded", "course", c.ID, "user", viewer.UserID,
		"module", p.index, "preview", viewer.Privileged())
	return nil
}

// Reload re-fetches course and progress, for example to observe a grade
// recorded by a tutor.
func (p *Player) Reload(ctx context.Context) error {
	p.mu.Lock()
	if p.course == nil {
		p.mu.Unlock()
		return ErrNotLoaded
	}
	courseID, viewer := p.course.ID, p.viewer
	p.mu.Unlock()
	return p.Load(ctx, courseID, viewer)
}

func (p *Player) fetchCourse(ctx context.Context, courseID string) (*course.Course, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	doc, err := p.courses.GetCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCourseUnavailable, err)
	}
	c, err := course.Sanitize(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCourseUnavailable, err)
	}
	if len(c.Modules) == 0 {
		return nil, fmt.Errorf("%w: %s has no modules", ErrCourseUnavailable, courseID)
	}
	return c, nil
}

// initialIndex places the viewer just past the furthest completed module,
// clamped to the course. Learners are pulled back to the furthest module
// they may actually open.
func (p *Player) initialIndex(rec *progress.Progress) int {
	idx := 0
	for i, m := range p.course.Modules {
		if rec.HasCompleted(m.ID) {
			idx = i + 1
		}
	}
	idx = min(idx, p.course.LastModuleIndex())
	if !p.viewer.Privileged() {
		idx = max(0, p.policy(rec).HighestUnlocked(idx))
	}
	return idx
}

func (p *Player) policy(rec *progress.Progress) access.Policy {
	return access.Policy{Course: p.course, Progress: rec, Privileged: p.viewer.Privileged()}
}

// begin claims the player for a store request.
func (p *Player) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending {
		return ErrBusy
	}
	p.pending = true
	return nil
}

func (p *Player) end() {
	p.mu.Lock()
	p.pending = false
	p.mu.Unlock()
}

// ready checks the common preconditions of a transition. The caller holds
// p.mu.
func (p *Player) ready(from ...View) error {
	if p.pending {
		return ErrBusy
	}
	if p.course == nil {
		return ErrNotLoaded
	}
	for _, v := range from {
		if p.view == v {
			return nil
		}
	}
	return fmt.Errorf("%w: not available from %s view", ErrInvalidTransition, p.view)
}

// Busy reports whether a store request is pending.
func (p *Player) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Course returns the loaded course.
func (p *Player) Course() *course.Course {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.course
}

// View returns the active view.
func (p *Player) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.view
}

// Index returns the active module index.
func (p *Player) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Progress returns a copy of the local progress record.
func (p *Player) Progress() *progress.Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.syncer == nil {
		return nil
	}
	return p.syncer.Current()
}

// State returns a snapshot of the player.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := State{
		View:     p.view,
		Index:    p.index,
		QuizSlot: p.slot,
		Busy:     p.pending,
		Preview:  p.viewer.Privileged(),
	}
	if p.course == nil {
		return st
	}
	rec := p.syncer.Current()
	st.Progress = rec
	st.Outline = p.policy(rec).Outline(p.index)
	st.Grade = grade.Compute(p.course, rec)
	if p.result != nil {
		r := *p.result
		st.Result = &r
	}
	return st
}

// ActiveModule returns the module at the active index.
func (p *Player) ActiveModule() (course.Module, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.course == nil {
		return course.Module{}, ErrNotLoaded
	}
	return p.course.Modules[p.index], nil
}

// ActiveQuiz returns the quiz being attempted.
func (p *Player) ActiveQuiz() (course.Quiz, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.course == nil {
		return course.Quiz{}, ErrNotLoaded
	}
	if p.view != ViewQuiz && p.view != ViewResult {
		return course.Quiz{}, fmt.Errorf("%w: no quiz open", ErrInvalidTransition)
	}
	q, _ := p.course.QuizAt(p.slot)
	return q, nil
}
