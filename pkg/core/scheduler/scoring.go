package scheduler

import (
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// Result is a candidate's score together with the factors that produced it
type Result struct {
	Score     float64
	Breakdown map[string]float64
}

// Score computes the assignment score for one candidate using DefaultFactors
func Score(in ScoreInput) Result {
	return ScoreWith(in, DefaultFactors())
}

// ScoreWith computes BaseScore plus the delta of every factor. Factors that do
// not apply are left out of the breakdown.
func ScoreWith(in ScoreInput, factors []Factor) Result {
	result := Result{
		Score:     BaseScore,
		Breakdown: make(map[string]float64),
	}

	for _, factor := range factors {
		delta := factor.Delta(&in)
		if delta == 0 {
			continue
		}
		result.Score += delta
		result.Breakdown[factor.Name()] += delta
	}

	return result
}

// Eligible reports whether staff may take a main duty at shop on date: the shop
// must be in their applicable set, they must be active and approved, and they
// must not hold any other shift that day
func Eligible(staff model.Staff, shop model.Shop, date time.Time, state *AssignmentState) bool {
	if !staff.IsSchedulable() {
		return false
	}
	if !staff.CanWorkAt(shop.ID) {
		return false
	}
	return !state.IsAssigned(staff.ID, date)
}
