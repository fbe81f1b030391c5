package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

func TestAllocateMainSlots_TwoPerDayAtSingleShop(t *testing.T) {
	shops := []model.Shop{shop(shopOne, 2, 0)}
	staff := []model.Staff{
		regular("alice", shopOne),
		regular("bob", shopOne),
		regular("carol", shopOne),
		supervisor("sam"),
	}

	shifts := generateWeek(testWeek, shops, staff, emptyHistory(), 7)

	for _, date := range model.WeekDates(testWeek) {
		mains := map[string]bool{}
		backups := map[string]bool{}
		for _, shift := range shifts {
			if !model.SameDate(shift.Date, date) {
				continue
			}
			switch shift.Role {
			case model.RoleMain:
				assert.Equal(t, shopOne, shift.ShopID)
				mains[shift.StaffID] = true
			case model.RoleBackup:
				assert.Equal(t, rovingShop, shift.ShopID)
				backups[shift.StaffID] = true
			}
		}

		assert.Len(t, mains, 2, "two distinct staff on duty on %s", date.Format(model.DateLayout))
		assert.Len(t, backups, 2, "third regular and the supervisor on stand-by")
		assert.True(t, backups["sam"])
		for staffID := range mains {
			assert.False(t, backups[staffID])
		}
	}
}

func TestAllocateMainSlots_AvoidsPreferredDayOff(t *testing.T) {
	xavier := regular("xavier", shopOne)
	xavier.PreferredDayOff = intPtr(2)

	tests := []struct {
		name  string
		staff []model.Staff
	}{
		{
			name:  "two staff",
			staff: []model.Staff{xavier, regular("yasmin", shopOne)},
		},
		{
			// xavier is owed a shift by Wednesday and must still be passed over
			name:  "three staff",
			staff: []model.Staff{xavier, regular("yasmin", shopOne), regular("zoe", shopOne)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for seed := uint64(1); seed <= 200; seed++ {
				outcome := AllocateMainSlots(MainSlotInput{
					WeekStart: testWeek,
					Shops:     []model.Shop{shop(shopOne, 1, 0)},
					Staff:     tt.staff,
					History:   emptyHistory(),
					State:     NewAssignmentState(testWeek),
					Rand:      newRand(seed),
				})

				require.Empty(t, outcome.Unfilled, "seed %d", seed)
				for _, shift := range outcome.Shifts {
					if model.SameDate(shift.Date, day(2)) {
						assert.NotEqual(t, "xavier", shift.StaffID, "seed %d", seed)
						assert.NotContains(t, shift.Breakdown, FactorPreferredDayOff, "seed %d", seed)
					}
				}
			}
		})
	}
}

func TestAllocateMainSlots_PreferredDayOffWhenNobodyElse(t *testing.T) {
	xavier := regular("xavier", shopOne)
	xavier.PreferredDayOff = intPtr(2)
	yasmin := regular("yasmin", shopOne)
	yasmin.PreferredDayOff = intPtr(2)

	outcome := AllocateMainSlots(MainSlotInput{
		WeekStart: testWeek,
		Shops:     []model.Shop{shop(shopOne, 1, 0)},
		Staff:     []model.Staff{xavier, yasmin},
		History:   emptyHistory(),
		State:     NewAssignmentState(testWeek),
		Rand:      newRand(5),
	})

	assert.Empty(t, outcome.Unfilled)

	var wednesday []model.Shift
	for _, shift := range outcome.Shifts {
		if model.SameDate(shift.Date, day(2)) {
			wednesday = append(wednesday, shift)
		}
	}
	require.Len(t, wednesday, 1)
	assert.Equal(t, DeltaPreferredDayOff, wednesday[0].Breakdown[FactorPreferredDayOff])
}

func TestAllocateMainSlots_DeterministicForSeed(t *testing.T) {
	shops := []model.Shop{shop(shopOne, 2, 0), shop(shopTwo, 1, 0)}
	staff := []model.Staff{
		regular("alice", shopOne, shopTwo),
		regular("bob", shopOne, shopTwo),
		regular("carol", shopOne, shopTwo),
		regular("dan", shopOne, shopTwo),
		regular("erin", shopOne, shopTwo),
	}

	first := generateWeek(testWeek, shops, staff, emptyHistory(), 42)
	second := generateWeek(testWeek, shops, staff, emptyHistory(), 42)

	assert.Equal(t, first, second)
}

func TestAllocateMainSlots_EligibilityAndNoDoubleBooking(t *testing.T) {
	inactive := regular("inactive", shopOne, shopTwo)
	inactive.Active = false
	unapproved := regular("unapproved", shopOne, shopTwo)
	unapproved.Approved = false

	shops := []model.Shop{shop(shopOne, 2, 0), shop(shopTwo, 2, 0)}
	staff := []model.Staff{
		regular("alice", shopOne, shopTwo),
		regular("bob", shopOne),
		regular("carol", shopTwo),
		regular("dan", shopOne, shopTwo),
		inactive,
		unapproved,
	}
	staffByID := map[string]model.Staff{}
	for _, s := range staff {
		staffByID[s.ID] = s
	}

	outcome := AllocateMainSlots(MainSlotInput{
		WeekStart: testWeek,
		Shops:     shops,
		Staff:     staff,
		History:   emptyHistory(),
		State:     NewAssignmentState(testWeek),
		Rand:      newRand(3),
	})

	seen := map[string]bool{}
	for _, shift := range outcome.Shifts {
		s := staffByID[shift.StaffID]
		assert.True(t, s.IsSchedulable(), "%s should not be scheduled", s.ID)
		assert.True(t, s.CanWorkAt(shift.ShopID), "%s cannot work at %s", s.ID, shift.ShopID)

		key := shift.StaffID + "|" + shift.Date.Format(model.DateLayout)
		assert.False(t, seen[key], "%s double booked", key)
		seen[key] = true

		require.NotNil(t, shift.Score)
		assert.NotNil(t, shift.Breakdown)
	}

	// Greedy filling may strand a rank 2 slot, but every slot is accounted for
	assert.Equal(t, 28, len(outcome.Shifts)+len(outcome.Unfilled))
}

func TestAllocateMainSlots_UnfilledSlotsAreReported(t *testing.T) {
	outcome := AllocateMainSlots(MainSlotInput{
		WeekStart: testWeek,
		Shops:     []model.Shop{shop(shopOne, 1, 0), shop(shopTwo, 1, 0)},
		Staff:     []model.Staff{regular("alice", shopOne)},
		History:   emptyHistory(),
		State:     NewAssignmentState(testWeek),
		Rand:      newRand(1),
	})

	assert.Len(t, outcome.Shifts, 7)
	require.Len(t, outcome.Unfilled, 7)
	for _, slot := range outcome.Unfilled {
		assert.Equal(t, shopTwo, slot.ShopID)
		assert.Equal(t, 1, slot.Rank)
	}
}

func TestAllocateMainSlots_RankOrdering(t *testing.T) {
	shops := []model.Shop{shop(shopOne, 2, 0), shop(shopTwo, 1, 0)}
	staff := []model.Staff{
		regular("alice", shopOne, shopTwo),
		regular("bob", shopOne, shopTwo),
		regular("carol", shopOne, shopTwo),
	}

	outcome := AllocateMainSlots(MainSlotInput{
		WeekStart: testWeek,
		Shops:     shops,
		Staff:     staff,
		History:   emptyHistory(),
		State:     NewAssignmentState(testWeek),
		Rand:      newRand(9),
	})

	require.Len(t, outcome.Trace, 7*3)

	// Every rank 1 visit comes before any rank 2 visit
	for i, visit := range outcome.Trace {
		if i < 14 {
			assert.Equal(t, 1, visit.Rank)
		} else {
			assert.Equal(t, 2, visit.Rank)
			assert.Equal(t, shopOne, visit.ShopID, "shop-2 needs a single main")
		}
	}

	// Dates ascend within a rank and shops keep their order within a date
	assert.Equal(t, SlotVisit{Rank: 1, Date: day(0), ShopID: shopOne, Filled: true}, outcome.Trace[0])
	assert.Equal(t, SlotVisit{Rank: 1, Date: day(0), ShopID: shopTwo, Filled: true}, outcome.Trace[1])
	assert.Equal(t, day(1), outcome.Trace[2].Date)
}

func TestAllocateMainSlots_RovingShiftsHaveNoScore(t *testing.T) {
	outcome := AllocateMainSlots(MainSlotInput{
		WeekStart: testWeek,
		Shops:     []model.Shop{roving()},
		Staff:     []model.Staff{supervisor("sam")},
		History:   emptyHistory(),
		State:     NewAssignmentState(testWeek),
		Rand:      newRand(1),
	})

	require.Len(t, outcome.Shifts, 7)
	for _, shift := range outcome.Shifts {
		assert.Nil(t, shift.Score)
		assert.Nil(t, shift.Breakdown)
	}
}

func TestAllocateMainSlots_CustomFactorsDecide(t *testing.T) {
	// A factor that always prefers bob
	outcome := AllocateMainSlots(MainSlotInput{
		WeekStart: testWeek,
		Shops:     []model.Shop{shop(shopOne, 1, 0)},
		Staff:     []model.Staff{regular("alice", shopOne), regular("bob", shopOne)},
		State:     NewAssignmentState(testWeek),
		Rand:      newRand(1),
		Factors:   []Factor{preferStaff{"bob"}},
	})

	for _, shift := range outcome.Shifts {
		assert.Equal(t, "bob", shift.StaffID)
		assert.Equal(t, 21.0, *shift.Score)
	}
}

type preferStaff struct {
	staffID string
}

func (p preferStaff) Name() string { return "Preferred" }

func (p preferStaff) Delta(in *ScoreInput) float64 {
	if in.Staff.ID == p.staffID {
		return 1
	}
	return 0
}
