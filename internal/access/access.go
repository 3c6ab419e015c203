// Package access decides what a learner may open at a given point in a
// course. Denials are plain booleans; the caller disables the control.
package access

import (
	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/progress"
)

const (
	// MidTermReadyIndex is the first module position from which the
	// mid-term may be attempted.
	MidTermReadyIndex = 4

	// MidTermGateIndex is the first module that requires a passed mid-term.
	MidTermGateIndex = 5
)

// Policy evaluates access for one viewer of one course.
//
// A course without a mid-term can never satisfy the mid-term gate, so its
// modules from MidTermGateIndex on stay locked for learners. Privileged
// viewers bypass every gate.
type Policy struct {
	Course     *course.Course
	Progress   *progress.Progress
	Privileged bool
}

// MidTermPassed reports whether the learner has any passing attempt at the
// course's mid-term.
func (p Policy) MidTermPassed() bool {
	mid, ok := p.Course.MidTerm()
	if !ok {
		return false
	}
	return p.Progress.HasPassed(mid.ID)
}

// ModuleUnlocked reports whether module i may be opened. Module 0 is always
// open; module i needs module i-1 completed, and modules from
// MidTermGateIndex on also need a passed mid-term.
func (p Policy) ModuleUnlocked(i int) bool {
	if p.Course == nil || i < 0 || i >= len(p.Course.Modules) {
		return false
	}
	if p.Privileged || i == 0 {
		return true
	}
	if !p.Progress.HasCompleted(p.Course.Modules[i-1].ID) {
		return false
	}
	if i >= MidTermGateIndex && !p.MidTermPassed() {
		return false
	}
	return true
}

// QuizUnlocked reports whether quiz slot k may be attempted by a learner
// whose active module is position. An empty slot is never unlocked.
func (p Policy) QuizUnlocked(k, position int) bool {
	if _, ok := p.Course.QuizAt(k); !ok {
		return false
	}
	if p.Privileged {
		return true
	}
	switch k {
	case course.MidTermIndex:
		return position >= MidTermReadyIndex
	case course.FinalIndex:
		return p.reachedLastModule(position)
	}
	return false
}

// CapstoneUnlocked reports whether the capstone may be opened. It opens
// together with the final.
func (p Policy) CapstoneUnlocked(position int) bool {
	if !p.Course.HasCapstone() {
		return false
	}
	return p.Privileged || p.reachedLastModule(position)
}

func (p Policy) reachedLastModule(position int) bool {
	last := p.Course.LastModuleIndex()
	return last >= 0 && position >= last
}

// Outline is the lock state of a whole course at one position.
type Outline struct {
	Modules  []bool
	Quizzes  []bool
	Capstone bool
}

// Outline returns the lock state of every module, quiz slot and the
// capstone for a learner at position.
func (p Policy) Outline(position int) Outline {
	var o Outline
	if p.Course == nil {
		return o
	}
	o.Modules = make([]bool, len(p.Course.Modules))
	for i := range o.Modules {
		o.Modules[i] = p.ModuleUnlocked(i)
	}
	o.Quizzes = make([]bool, len(p.Course.Quizzes))
	for k := range o.Quizzes {
		o.Quizzes[k] = p.QuizUnlocked(k, position)
	}
	o.Capstone = p.CapstoneUnlocked(position)
	return o
}

// HighestUnlocked returns the largest module index that is unlocked and not
// above limit, or -1 when the course has no modules.
func (p Policy) HighestUnlocked(limit int) int {
	if p.Course == nil {
		return -1
	}
	limit = min(limit, p.Course.LastModuleIndex())
	for i := limit; i >= 0; i-- {
		if p.ModuleUnlocked(i) {
			return i
		}
	}
	return -1
}
