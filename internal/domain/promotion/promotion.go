// Package promotion works out a cadet's next rank and progress toward it.
package promotion

import (
	"math"

	"github.com/okian/cadettracker/internal/domain/model"
)

const percentScale = 100

// Next returns the highest rank the cadet holds and the rank that follows it.
// With no rank held the lowest rank is next. At the top rank next is nil.
// ranks need not be sorted.
func Next(ranks []model.Rank, held []model.CadetRank) (current, next *model.Rank) {
	if len(ranks) == 0 {
		return nil, nil
	}
	for i := range held {
		if current == nil || held[i].Order > current.Order {
			r := held[i].Rank
			current = &r
		}
	}
	for i := range ranks {
		if current != nil && ranks[i].Order <= current.Order {
			continue
		}
		if next == nil || ranks[i].Order < next.Order {
			r := ranks[i]
			next = &r
		}
	}
	return current, next
}

// Evaluate builds the promotion status from the next rank's requirements and
// the cadet's completions. Requirements keep their given order.
func Evaluate(cadetID int64, current, next *model.Rank, reqs []model.Requirement, done []model.Completion) model.PromotionStatus {
	status := model.PromotionStatus{
		CadetID:      cadetID,
		CurrentRank:  current,
		NextRank:     next,
		Requirements: []model.RequirementProgress{},
	}
	if next == nil {
		return status
	}

	completedOn := make(map[int64]model.Date, len(done))
	for _, c := range done {
		completedOn[c.RequirementID] = c.DateCompleted
	}

	for _, req := range reqs {
		p := model.RequirementProgress{Requirement: req}
		if d, ok := completedOn[req.ID]; ok {
			p.Completed = true
			if !d.IsZero() {
				date := d
				p.DateCompleted = &date
			}
			status.Completed++
		}
		status.Requirements = append(status.Requirements, p)
	}
	status.Total = len(reqs)
	status.Eligible = status.Completed == status.Total
	status.PercentComplete = percent(status.Completed, status.Total)
	return status
}

// percent rounds to one decimal place. No requirements counts as complete.
func percent(done, total int) float64 {
	if total == 0 {
		return percentScale
	}
	return math.Round(float64(done)/float64(total)*percentScale*10) / 10
}
