// Package grade computes a learner's weighted course grade.
package grade

import (
	"math"

	"github.com/edumeet/edumeet/internal/course"
	"github.com/edumeet/edumeet/internal/progress"
)

// Component weights. They sum to 100.
const (
	ModuleWeight   = 20.0
	MidTermWeight  = 20.0
	FinalWeight    = 20.0
	CapstoneWeight = 40.0
)

// Breakdown is a learner's grade. Components are rounded to one decimal,
// Total to the nearest integer.
type Breakdown struct {
	Total         int     `json:"total"`
	ModuleScore   float64 `json:"moduleScore"`
	MidTermScore  float64 `json:"midScore"`
	FinalScore    float64 `json:"finalScore"`
	CapstoneScore float64 `json:"capstoneScore"`
}

// Compute grades p against c. Only completed ids that belong to the course
// count towards the module component. Each quiz contributes its latest
// attempt by time. Absent quizzes, missing attempts and an ungraded
// capstone contribute zero. Scores from the store are clamped to 0-100.
func Compute(c *course.Course, p *progress.Progress) Breakdown {
	if c == nil || p == nil {
		return Breakdown{}
	}

	module := moduleScore(c, p)
	mid := quizScore(c, p, course.MidTermIndex, MidTermWeight)
	final := quizScore(c, p, course.FinalIndex, FinalWeight)

	var capstone float64
	if p.CapstoneGrade != nil {
		capstone = clampPercent(float64(*p.CapstoneGrade)) / 100 * CapstoneWeight
	}

	total := int(math.Round(module + mid + final + capstone))
	return Breakdown{
		Total:         max(0, min(total, 100)),
		ModuleScore:   round1(module),
		MidTermScore:  round1(mid),
		FinalScore:    round1(final),
		CapstoneScore: round1(capstone),
	}
}

func moduleScore(c *course.Course, p *progress.Progress) float64 {
	if len(c.Modules) == 0 {
		return 0
	}
	ids := c.ModuleIDs()
	done := 0
	for _, id := range p.CompletedModuleIDs {
		if ids[id] {
			done++
			// Guard against duplicates in an unnormalized record.
			delete(ids, id)
		}
	}
	return float64(done) / float64(len(c.Modules)) * ModuleWeight
}

func quizScore(c *course.Course, p *progress.Progress, slot int, weight float64) float64 {
	q, ok := c.QuizAt(slot)
	if !ok {
		return 0
	}
	r, ok := p.LatestResult(q.ID)
	if !ok {
		return 0
	}
	return clampPercent(float64(r.Score)) / 100 * weight
}

func clampPercent(v float64) float64 {
	return math.Max(0, math.Min(v, 100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
