package scheduler

import (
	"sort"
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// Shuffler is the random source used for tie-breaking. *math/rand/v2.Rand
// satisfies it; tests pass a seeded one.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// MainSlotInput contains everything needed to fill one week's duty slots
type MainSlotInput struct {
	WeekStart time.Time

	// Shops in scope, visited in this order for each (rank, date)
	Shops []model.Shop

	// Staff is the directory of candidates
	Staff []model.Staff

	History *History
	State   *AssignmentState
	Rand    Shuffler

	// Factors defaults to DefaultFactors when nil
	Factors []Factor
}

// SlotVisit records one (rank, date, shop) step of the allocation loop
type SlotVisit struct {
	Rank   int
	Date   time.Time
	ShopID string
	Filled bool
}

// UnfilledSlot is a duty slot left empty because no candidate was eligible
type UnfilledSlot struct {
	Rank   int
	Date   time.Time
	ShopID string
}

// MainSlotOutcome is the result of AllocateMainSlots
type MainSlotOutcome struct {
	// Shifts are main shifts in assignment order, without IDs or schedule refs
	Shifts []model.Shift

	// Unfilled lists slots with an empty eligible pool
	Unfilled []UnfilledSlot

	// Trace is every slot visited, in processing order
	Trace []SlotVisit
}

type rankedCandidate struct {
	staff  model.Staff
	result Result
}

// AllocateMainSlots fills duty slots breadth-first: slot rank 1 at every shop
// for every date of the week, then rank 2, and so on. Each slot goes to the
// highest-scoring eligible candidate, with equal scores broken at random.
func AllocateMainSlots(input MainSlotInput) MainSlotOutcome {
	factors := input.Factors
	if factors == nil {
		factors = DefaultFactors()
	}

	outcome := MainSlotOutcome{
		Shifts:   []model.Shift{},
		Unfilled: []UnfilledSlot{},
		Trace:    []SlotVisit{},
	}

	maxSlots := 0
	for _, shop := range input.Shops {
		maxSlots = max(maxSlots, shop.Requirement.MainStaff)
	}

	dates := model.WeekDates(input.WeekStart)

	for rank := 1; rank <= maxSlots; rank++ {
		for _, date := range dates {
			for _, shop := range input.Shops {
				if rank > shop.Requirement.MainStaff {
					continue
				}

				shift, ok := fillSlot(input, factors, shop, date)
				outcome.Trace = append(outcome.Trace, SlotVisit{Rank: rank, Date: date, ShopID: shop.ID, Filled: ok})
				if !ok {
					outcome.Unfilled = append(outcome.Unfilled, UnfilledSlot{Rank: rank, Date: date, ShopID: shop.ID})
					continue
				}
				outcome.Shifts = append(outcome.Shifts, shift)
			}
		}
	}

	return outcome
}

// fillSlot picks and records the best candidate for one slot
func fillSlot(input MainSlotInput, factors []Factor, shop model.Shop, date time.Time) (model.Shift, bool) {
	eligible := make([]model.Staff, 0, len(input.Staff))
	for _, staff := range input.Staff {
		if Eligible(staff, shop, date, input.State) {
			eligible = append(eligible, staff)
		}
	}

	if len(eligible) == 0 {
		return model.Shift{}, false
	}

	// A preferred day off is only overridden when nobody else can cover
	eligible = withoutPreferredDayOff(eligible, date)

	minDuty := input.State.DutyCount(eligible[0].ID)
	for _, staff := range eligible[1:] {
		minDuty = min(minDuty, input.State.DutyCount(staff.ID))
	}

	candidates := make([]rankedCandidate, len(eligible))
	for i, staff := range eligible {
		candidates[i] = rankedCandidate{
			staff: staff,
			result: ScoreWith(ScoreInput{
				Staff:           staff,
				Shop:            shop,
				Date:            date,
				History:         input.History,
				State:           input.State,
				MinEligibleDuty: &minDuty,
			}, factors),
		}
	}

	// Shuffle first so the stable sort leaves equal scores in random order
	input.Rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].result.Score > candidates[j].result.Score
	})

	best := candidates[0]
	input.State.Add(best.staff.ID, shop.ID, date)

	shift := model.Shift{
		StaffID: best.staff.ID,
		ShopID:  shop.ID,
		Date:    model.Date(date),
		Role:    model.RoleMain,
	}

	// Roving absorbs leftover staff rather than competing on merit
	if !shop.IsRoving {
		score := best.result.Score
		shift.Score = &score
		shift.Breakdown = best.result.Breakdown
	}

	return shift, true
}

// withoutPreferredDayOff drops staff who prefer date off, unless that would
// leave nobody to fill the slot
func withoutPreferredDayOff(staff []model.Staff, date time.Time) []model.Staff {
	available := make([]model.Staff, 0, len(staff))
	for _, s := range staff {
		if !s.PrefersOff(date) {
			available = append(available, s)
		}
	}
	if len(available) == 0 {
		return staff
	}
	return available
}
