package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// swappingWeeks puts alice and bob at opposite shops every day, swapping shops
// in the second week
func swappingWeeks() VerifyInput {
	nextWeek := testWeek.AddDate(0, 0, 7)

	var first, second []model.Shift
	for _, date := range model.WeekDates(testWeek) {
		first = append(first, mainShift("alice", shopOne, date), mainShift("bob", shopTwo, date))
	}
	for _, date := range model.WeekDates(nextWeek) {
		second = append(second, mainShift("alice", shopTwo, date), mainShift("bob", shopOne, date))
	}

	return VerifyInput{
		Weeks: []WeekShifts{
			{WeekStart: testWeek, Shifts: first},
			{WeekStart: nextWeek, Shifts: second},
		},
		Shops: []model.Shop{shop(shopOne, 1, 0), shop(shopTwo, 1, 0), roving()},
		Staff: []model.Staff{
			regular("alice", shopOne, shopTwo),
			regular("bob", shopOne, shopTwo),
		},
		RovingShopID: rovingShop,
	}
}

func checksFailed(report Report) []string {
	var failed []string
	for _, v := range report.Violations {
		failed = append(failed, v.Check)
	}
	return failed
}

func TestVerify_AllPass(t *testing.T) {
	report := Verify(swappingWeeks())

	assert.True(t, report.AllPassed())
	assert.Empty(t, report.Violations)
}

func TestVerify_Coverage(t *testing.T) {
	in := swappingWeeks()
	// Drop alice's Monday shift at shop-1
	in.Weeks[0].Shifts = in.Weeks[0].Shifts[1:]

	report := Verify(in)

	assert.False(t, report.Coverage)
	assert.True(t, report.Rotation)
	assert.True(t, report.WorkloadBalance, "six against seven is still balanced")
	require.Len(t, report.Violations, 1)
	assert.Equal(t, CheckCoverage, report.Violations[0].Check)
	assert.Equal(t, shopOne, report.Violations[0].ShopID)
	assert.Equal(t, day(0), report.Violations[0].Date)
}

func TestVerify_RovingIsNotCovered(t *testing.T) {
	in := swappingWeeks()
	in.Shops[2].Requirement.MainStaff = 3

	report := Verify(in)

	assert.True(t, report.Coverage)
}

func TestVerify_WorkloadBalance(t *testing.T) {
	var shifts []model.Shift
	for _, date := range model.WeekDates(testWeek) {
		shifts = append(shifts, mainShift("alice", shopOne, date))
	}
	shifts = append(shifts, mainShift("bob", shopTwo, day(0)))
	shifts = append(shifts, mainShift("sam", rovingShop, day(1)))

	report := Verify(VerifyInput{
		Weeks:        []WeekShifts{{WeekStart: testWeek, Shifts: shifts}},
		Shops:        []model.Shop{shop(shopOne, 1, 0), roving()},
		RovingShopID: rovingShop,
	})

	assert.False(t, report.WorkloadBalance)
	require.Equal(t, []string{CheckWorkloadBalance}, checksFailed(report))
	assert.Equal(t, "alice", report.Violations[0].StaffID)
}

func TestVerify_ReserveCoverage(t *testing.T) {
	in := swappingWeeks()
	in.Shops[0].Requirement.ReserveStaff = 1
	in.Weeks[0].Shifts = append(in.Weeks[0].Shifts, backupShift("carol", day(0)))

	report := Verify(in)

	// Backups live at Roving so the per-shop reserve target is never met
	assert.False(t, report.ReserveCoverage)
	assert.Len(t, report.Violations, 14)
	assert.True(t, report.Coverage)
}

func TestVerify_PreferenceRespected(t *testing.T) {
	in := swappingWeeks()
	in.Staff[0].PreferredDayOff = intPtr(4)

	report := Verify(in)

	assert.False(t, report.PreferenceRespected)
	require.Len(t, report.Violations, 2)
	assert.Equal(t, day(4), report.Violations[0].Date)
	assert.Equal(t, "alice", report.Violations[0].StaffID)
}

func TestVerify_ShopStability(t *testing.T) {
	in := swappingWeeks()
	// alice and bob swap on Wednesday of the first week
	in.Weeks[0].Shifts[4] = mainShift("alice", shopTwo, day(2))
	in.Weeks[0].Shifts[5] = mainShift("bob", shopOne, day(2))

	report := Verify(in)

	assert.False(t, report.ShopStability)
	assert.Len(t, report.Violations, 2)
	assert.True(t, report.Coverage)
}

func TestVerify_Rotation(t *testing.T) {
	in := swappingWeeks()
	for i := range in.Weeks[1].Shifts {
		shift := &in.Weeks[1].Shifts[i]
		if shift.StaffID == "alice" {
			shift.ShopID = shopOne
		} else {
			shift.ShopID = shopTwo
		}
	}

	report := Verify(in)

	assert.False(t, report.Rotation)
	require.Len(t, report.Violations, 2)
	assert.Equal(t, "alice", report.Violations[0].StaffID)
	assert.Equal(t, testWeek.AddDate(0, 0, 7), report.Violations[0].WeekStart)
}

func TestVerify_RotationUsesLastShopOfWeek(t *testing.T) {
	nextWeek := testWeek.AddDate(0, 0, 7)

	report := Verify(VerifyInput{
		Weeks: []WeekShifts{
			// Unordered on purpose: the Tuesday shift at shop-2 is the last one
			{WeekStart: testWeek, Shifts: []model.Shift{
				mainShift("alice", shopTwo, day(1)),
				mainShift("alice", shopOne, day(0)),
			}},
			{WeekStart: nextWeek, Shifts: []model.Shift{
				mainShift("alice", shopTwo, nextWeek),
			}},
		},
		Shops:        []model.Shop{shop(shopOne, 0, 0), shop(shopTwo, 0, 0)},
		RovingShopID: rovingShop,
	})

	assert.False(t, report.Rotation)
	assert.False(t, report.ShopStability)
}

func TestVerify_RotationSkipsNonAdjacentWeeks(t *testing.T) {
	later := testWeek.AddDate(0, 0, 14)

	report := Verify(VerifyInput{
		Weeks: []WeekShifts{
			{WeekStart: later, Shifts: []model.Shift{mainShift("alice", shopOne, later)}},
			{WeekStart: testWeek, Shifts: []model.Shift{mainShift("alice", shopOne, day(0))}},
		},
		Shops:        []model.Shop{shop(shopOne, 0, 0)},
		RovingShopID: rovingShop,
	})

	assert.True(t, report.Rotation)
}

func TestVerify_SingleShopForcesRepeatAcrossGeneratedWeeks(t *testing.T) {
	shops := []model.Shop{shop(shopOne, 1, 0)}
	staff := []model.Staff{regular("alice", shopOne), regular("bob", shopOne), supervisor("sam")}
	today := testWeek

	var weeks []WeekShifts
	var previous []model.Shift
	for k := 0; k < 4; k++ {
		weekStart := testWeek.AddDate(0, 0, 7*k)
		history := BuildHistory(HistoryInput{
			WeekStart:      weekStart,
			Today:          today,
			PrevWeekShifts: previous,
			PriorShifts:    shiftsBefore(weeks, weekStart),
		})

		shifts := generateWeek(weekStart, shops, staff, history, uint64(k+1))
		weeks = append(weeks, WeekShifts{WeekStart: weekStart, Shifts: shifts})
		previous = shifts
	}

	var report Report
	require.NotPanics(t, func() {
		report = Verify(VerifyInput{
			Weeks:        weeks,
			Shops:        append(shops, roving()),
			Staff:        staff,
			RovingShopID: rovingShop,
		})
	})

	assert.True(t, report.Coverage)
	assert.True(t, report.ShopStability)
	assert.False(t, report.Rotation)
}

func shiftsBefore(weeks []WeekShifts, weekStart time.Time) []model.Shift {
	var shifts []model.Shift
	for _, week := range weeks {
		if week.WeekStart.Before(weekStart) {
			shifts = append(shifts, week.Shifts...)
		}
	}
	return shifts
}
