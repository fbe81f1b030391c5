package scheduler

import (
	"sort"
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// StandbyInput contains everything needed to build one week's stand-by pool
type StandbyInput struct {
	WeekStart    time.Time
	Staff        []model.Staff
	History      *History
	State        *AssignmentState
	Rand         Shuffler
	RovingShopID string
}

// AllocateStandby gives every active, approved staff member without a shift on
// a date a backup shift at the Roving shop for that date. Within a day the pool
// is ordered by fewest main duties in the preceding week; Rank records the
// position, starting at 1.
func AllocateStandby(input StandbyInput) []model.Shift {
	shifts := []model.Shift{}

	for _, date := range model.WeekDates(input.WeekStart) {
		pool := make([]model.Staff, 0, len(input.Staff))
		for _, staff := range input.Staff {
			if !staff.IsSchedulable() || input.State.IsAssigned(staff.ID, date) {
				continue
			}
			pool = append(pool, staff)
		}

		input.Rand.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		sort.SliceStable(pool, func(i, j int) bool {
			return input.History.PrevWeekMainCount(pool[i].ID) < input.History.PrevWeekMainCount(pool[j].ID)
		})

		for i, staff := range pool {
			input.State.MarkOccupied(staff.ID, date)
			shifts = append(shifts, model.Shift{
				StaffID: staff.ID,
				ShopID:  input.RovingShopID,
				Date:    date,
				Role:    model.RoleBackup,
				Rank:    i + 1,
			})
		}
	}

	return shifts
}
