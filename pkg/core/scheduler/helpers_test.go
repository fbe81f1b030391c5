package scheduler

import (
	"math/rand/v2"
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

const (
	shopOne    = "shop-1"
	shopTwo    = "shop-2"
	rovingShop = "roving"
)

// testWeek is a Monday
var testWeek = time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return testWeek.AddDate(0, 0, offset)
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func regular(id string, shopIDs ...string) model.Staff {
	return model.Staff{
		ID:                id,
		FirstName:         id,
		Tier:              model.TierRegular,
		Active:            true,
		Approved:          true,
		ApplicableShopIDs: shopIDs,
	}
}

func supervisor(id string) model.Staff {
	s := regular(id, rovingShop)
	s.Tier = model.TierSupervisor
	return s
}

func shop(id string, mainStaff, reserveStaff int) model.Shop {
	return model.Shop{
		ID:          id,
		Name:        id,
		Active:      true,
		Requirement: model.Requirement{MainStaff: mainStaff, ReserveStaff: reserveStaff},
	}
}

func roving() model.Shop {
	s := shop(rovingShop, 1, 0)
	s.Name = "Roving"
	s.IsRoving = true
	return s
}

func mainShift(staffID, shopID string, date time.Time) model.Shift {
	return model.Shift{StaffID: staffID, ShopID: shopID, Date: date, Role: model.RoleMain}
}

func backupShift(staffID string, date time.Time) model.Shift {
	return model.Shift{StaffID: staffID, ShopID: rovingShop, Date: date, Role: model.RoleBackup}
}

func fact(staffID, shopID string, date time.Time) model.AttendanceFact {
	timeOut := date.Add(17 * time.Hour)
	return model.AttendanceFact{StaffID: staffID, ShopID: shopID, Date: date, TimeIn: date.Add(9 * time.Hour), TimeOut: &timeOut}
}

func intPtr(i int) *int {
	return &i
}

// generateWeek runs both allocators for one week against a fresh ledger
func generateWeek(weekStart time.Time, shops []model.Shop, staff []model.Staff, history *History, seed uint64) []model.Shift {
	state := NewAssignmentState(weekStart)
	r := newRand(seed)

	outcome := AllocateMainSlots(MainSlotInput{
		WeekStart: weekStart,
		Shops:     shops,
		Staff:     staff,
		History:   history,
		State:     state,
		Rand:      r,
	})
	backups := AllocateStandby(StandbyInput{
		WeekStart:    weekStart,
		Staff:        staff,
		History:      history,
		State:        state,
		Rand:         r,
		RovingShopID: rovingShop,
	})

	return append(outcome.Shifts, backups...)
}
