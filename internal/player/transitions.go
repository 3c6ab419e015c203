package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/edumeet/edumeet/internal/progress"
)

// GoToModule makes module i active. Learners may only open unlocked modules.
func (p *Player) GoToModule(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(ViewModule, ViewQuiz, ViewCapstone); err != nil {
		return err
	}
	if !p.policy(p.syncer.Current()).ModuleUnlocked(i) {
		return fmt.Errorf("%w: module %d", ErrLocked, i)
	}
	p.index = i
	p.view = ViewModule
	return nil
}

// OpenQuiz starts an attempt at quiz slot k.
func (p *Player) OpenQuiz(k int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(ViewModule); err != nil {
		return err
	}
	if _, ok := p.course.QuizAt(k); !ok {
		return fmt.Errorf("%w: %d", ErrNoQuiz, k)
	}
	if !p.policy(p.syncer.Current()).QuizUnlocked(k, p.index) {
		return fmt.Errorf("%w: quiz %d", ErrLocked, k)
	}
	p.slot = k
	p.result = nil
	p.view = ViewQuiz
	return nil
}

// SubmitQuiz grades answers, keyed by question id, against the open quiz
// and records the attempt. Unanswered questions count as wrong. The result
// view is shown only once the attempt is stored; preview attempts are
// never stored.
func (p *Player) SubmitQuiz(ctx context.Context, answers map[string]int) (progress.QuizResult, error) {
	p.mu.Lock()
	if err := p.ready(ViewQuiz); err != nil {
		p.mu.Unlock()
		return progress.QuizResult{}, err
	}
	q, _ := p.course.QuizAt(p.slot)
	if len(q.Questions) == 0 {
		p.mu.Unlock()
		return progress.QuizResult{}, ErrEmptyQuiz
	}

	correct := 0
	for _, question := range q.Questions {
		if a, ok := answers[question.ID]; ok && a == question.CorrectIndex {
			correct++
		}
	}
	score, passed := progress.ScoreAttempt(correct, len(q.Questions))
	r := progress.QuizResult{
		QuizID:      q.ID,
		Score:       score,
		Passed:      passed,
		AttemptedAt: p.now().UTC(),
	}

	if p.viewer.Privileged() {
		p.showResult(r)
		p.mu.Unlock()
		return r, nil
	}
	p.pending = true
	p.mu.Unlock()

	_, err := p.syncer.Apply(ctx, func(cur *progress.Progress) (*progress.Progress, error) {
		return cur.WithQuizResult(r), nil
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = false
	if err != nil {
		return progress.QuizResult{}, fmt.Errorf("record quiz attempt: %w", err)
	}
	p.showResult(r)
	p.log.Info("quiz submitted", "course", p.course.ID, "quiz", q.ID,
		"score", score, "passed", passed)
	return r, nil
}

func (p *Player) showResult(r progress.QuizResult) {
	p.result = &r
	p.view = ViewResult
}

// Acknowledge leaves the result view and moves on to the next module,
// clamped to the last one. A learner is never moved onto a locked module
// and stays on the current one instead.
func (p *Player) Acknowledge() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(ViewResult); err != nil {
		return err
	}
	next := min(p.index+1, p.course.LastModuleIndex())
	if p.policy(p.syncer.Current()).ModuleUnlocked(next) {
		p.index = next
	}
	p.view = ViewModule
	return nil
}

// OpenCapstone shows the capstone submission view.
func (p *Player) OpenCapstone() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ready(ViewModule); err != nil {
		return err
	}
	if !p.course.HasCapstone() {
		return ErrNoCapstone
	}
	if !p.policy(p.syncer.Current()).CapstoneUnlocked(p.index) {
		return fmt.Errorf("%w: capstone", ErrLocked)
	}
	p.view = ViewCapstone
	return nil
}

// SubmitCapstone submits text as the learner's capstone and returns to the
// module view once the store has the submission. Preview submissions are
// checked but not stored.
func (p *Player) SubmitCapstone(ctx context.Context, text string) error {
	p.mu.Lock()
	if err := p.ready(ViewCapstone); err != nil {
		p.mu.Unlock()
		return err
	}
	if strings.TrimSpace(text) == "" {
		p.mu.Unlock()
		return progress.ErrEmptySubmission
	}
	if p.viewer.Privileged() {
		p.view = ViewModule
		p.mu.Unlock()
		return nil
	}
	p.pending = true
	p.mu.Unlock()

	_, err := p.syncer.Apply(ctx, func(cur *progress.Progress) (*progress.Progress, error) {
		return cur.WithCapstoneSubmission(text)
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = false
	if err != nil {
		return fmt.Errorf("submit capstone: %w", err)
	}
	p.view = ViewModule
	p.log.Info("capstone submitted", "course", p.course.ID, "user", p.viewer.UserID)
	return nil
}

// MarkComplete records the active module as completed. It is a no-op for an
// already completed module and in preview.
func (p *Player) MarkComplete(ctx context.Context) error {
	p.mu.Lock()
	if err := p.ready(ViewModule); err != nil {
		p.mu.Unlock()
		return err
	}
	moduleID := p.course.Modules[p.index].ID
	if p.viewer.Privileged() || p.syncer.Current().HasCompleted(moduleID) {
		p.mu.Unlock()
		return nil
	}
	p.pending = true
	p.mu.Unlock()

	_, err := p.syncer.Apply(ctx, func(cur *progress.Progress) (*progress.Progress, error) {
		next, _ := cur.WithCompletedModule(moduleID)
		return next, nil
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = false
	if err != nil {
		return fmt.Errorf("mark module complete: %w", err)
	}
	return nil
}
