package services

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// NewRand returns the tie-break source for a run. A zero seed draws one from
// the clock so unseeded runs differ.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x5eed))
}

// WeekStarts returns n consecutive Mondays beginning at first
func WeekStarts(first time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, fmt.Errorf("week count must be positive, got %d", n)
	}

	first = model.Date(first)
	if !model.IsWeekStart(first) {
		return nil, fmt.Errorf("week start %s is not a Monday", first.Format(model.DateLayout))
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Byweekday: []rrule.Weekday{rrule.MO},
		Count:     n,
		Dtstart:   first,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build week rule: %w", err)
	}

	weeks := rule.All()
	for i := range weeks {
		weeks[i] = model.Date(weeks[i])
	}
	return weeks, nil
}

// NextWeekStart returns the Monday after the week containing today
func NextWeekStart(today time.Time) time.Time {
	return model.WeekStart(today).AddDate(0, 0, 7)
}

// today returns the civil date of now in loc
func today(now time.Time, loc *time.Location) time.Time {
	return model.Date(now.In(loc))
}
