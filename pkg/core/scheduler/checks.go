package scheduler

import (
	"fmt"
	"sort"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// Check names
const (
	CheckCoverage        = "Coverage"
	CheckWorkloadBalance = "WorkloadBalance"
	CheckReserveCoverage = "ReserveCoverage"
	CheckPreference      = "PreferenceRespected"
	CheckShopStability   = "ShopStability"
	CheckRotation        = "Rotation"
)

type shopDateKey struct {
	shopID string
	date   string
}

func countByShopDate(shifts []model.Shift, role model.Role) map[shopDateKey]int {
	counts := make(map[shopDateKey]int)
	for _, shift := range shifts {
		if shift.Role == role {
			counts[shopDateKey{shift.ShopID, dateKey(shift.Date)}]++
		}
	}
	return counts
}

// CoverageCheck requires every non-Roving shop to have its required main staff
// on every day of every week
type CoverageCheck struct{}

func (CoverageCheck) Name() string { return CheckCoverage }

func (c CoverageCheck) Validate(in *VerifyInput) []Violation {
	var violations []Violation

	for _, week := range in.Weeks {
		counts := countByShopDate(week.Shifts, model.RoleMain)
		for _, date := range model.WeekDates(week.WeekStart) {
			for _, shop := range in.nonRovingShops() {
				got := counts[shopDateKey{shop.ID, dateKey(date)}]
				if got < shop.Requirement.MainStaff {
					violations = append(violations, Violation{
						Check:       c.Name(),
						WeekStart:   week.WeekStart,
						Date:        date,
						ShopID:      shop.ID,
						Description: fmt.Sprintf("Shop '%s' has %d main staff but needs %d", shop.Name, got, shop.Requirement.MainStaff),
					})
				}
			}
		}
	}

	return violations
}

// WorkloadBalanceCheck requires weekly non-Roving main counts to differ by at
// most one among staff who worked at least one
type WorkloadBalanceCheck struct{}

func (WorkloadBalanceCheck) Name() string { return CheckWorkloadBalance }

func (c WorkloadBalanceCheck) Validate(in *VerifyInput) []Violation {
	var violations []Violation

	for _, week := range in.Weeks {
		counts := make(map[string]int)
		for _, shift := range week.Shifts {
			if shift.Role == model.RoleMain && !in.isRoving(shift.ShopID) {
				counts[shift.StaffID]++
			}
		}
		if len(counts) == 0 {
			continue
		}

		minCount, maxCount := -1, 0
		var minStaff, maxStaff string
		for staffID, count := range counts {
			if minCount < 0 || count < minCount || (count == minCount && staffID < minStaff) {
				minCount, minStaff = count, staffID
			}
			if count > maxCount || (count == maxCount && staffID < maxStaff) {
				maxCount, maxStaff = count, staffID
			}
		}

		if maxCount-minCount > 1 {
			violations = append(violations, Violation{
				Check:       c.Name(),
				WeekStart:   week.WeekStart,
				StaffID:     maxStaff,
				Description: fmt.Sprintf("Main duty counts range from %d (%s) to %d (%s)", minCount, minStaff, maxCount, maxStaff),
			})
		}
	}

	return violations
}

// ReserveCoverageCheck compares backup shifts recorded at each non-Roving shop
// against its reserve requirement. Backups are recorded at Roving, so any
// shop with a reserve requirement fails this check.
type ReserveCoverageCheck struct{}

func (ReserveCoverageCheck) Name() string { return CheckReserveCoverage }

func (c ReserveCoverageCheck) Validate(in *VerifyInput) []Violation {
	var violations []Violation

	for _, week := range in.Weeks {
		counts := countByShopDate(week.Shifts, model.RoleBackup)
		for _, date := range model.WeekDates(week.WeekStart) {
			for _, shop := range in.nonRovingShops() {
				got := counts[shopDateKey{shop.ID, dateKey(date)}]
				if got < shop.Requirement.ReserveStaff {
					violations = append(violations, Violation{
						Check:       c.Name(),
						WeekStart:   week.WeekStart,
						Date:        date,
						ShopID:      shop.ID,
						Description: fmt.Sprintf("Shop '%s' has %d reserve staff but needs %d", shop.Name, got, shop.Requirement.ReserveStaff),
					})
				}
			}
		}
	}

	return violations
}

// PreferenceCheck forbids main duty on a staff member's preferred day off
type PreferenceCheck struct{}

func (PreferenceCheck) Name() string { return CheckPreference }

func (c PreferenceCheck) Validate(in *VerifyInput) []Violation {
	var violations []Violation

	staffByID := make(map[string]model.Staff, len(in.Staff))
	for _, staff := range in.Staff {
		staffByID[staff.ID] = staff
	}

	for _, week := range in.Weeks {
		for _, shift := range week.Shifts {
			if shift.Role != model.RoleMain {
				continue
			}
			staff, ok := staffByID[shift.StaffID]
			if !ok || !staff.PrefersOff(shift.Date) {
				continue
			}
			violations = append(violations, Violation{
				Check:       c.Name(),
				WeekStart:   week.WeekStart,
				Date:        shift.Date,
				StaffID:     shift.StaffID,
				ShopID:      shift.ShopID,
				Description: fmt.Sprintf("%s is on duty on their preferred day off", staff.FullName()),
			})
		}
	}

	return violations
}

// ShopStabilityCheck requires a staff member's non-Roving main duties within a
// week to all be at one shop
type ShopStabilityCheck struct{}

func (ShopStabilityCheck) Name() string { return CheckShopStability }

func (c ShopStabilityCheck) Validate(in *VerifyInput) []Violation {
	var violations []Violation

	for _, week := range in.Weeks {
		shopsByStaff := make(map[string]map[string]bool)
		var order []string
		for _, shift := range week.Shifts {
			if shift.Role != model.RoleMain || in.isRoving(shift.ShopID) {
				continue
			}
			if shopsByStaff[shift.StaffID] == nil {
				shopsByStaff[shift.StaffID] = make(map[string]bool)
				order = append(order, shift.StaffID)
			}
			shopsByStaff[shift.StaffID][shift.ShopID] = true
		}

		for _, staffID := range order {
			if n := len(shopsByStaff[staffID]); n > 1 {
				violations = append(violations, Violation{
					Check:       c.Name(),
					WeekStart:   week.WeekStart,
					StaffID:     staffID,
					Description: fmt.Sprintf("Staff '%s' works at %d different shops this week", staffID, n),
				})
			}
		}
	}

	return violations
}

// RotationCheck requires each staff member's main shop to change from one week
// to the next. The shop compared is the last main shop seen in the week when
// shifts are ordered by date then shop, so a staff member who moved between
// shops mid-week is judged on their final placement only.
type RotationCheck struct{}

func (RotationCheck) Name() string { return CheckRotation }

func (c RotationCheck) Validate(in *VerifyInput) []Violation {
	var violations []Violation

	weeks := make([]WeekShifts, len(in.Weeks))
	copy(weeks, in.Weeks)
	sort.SliceStable(weeks, func(i, j int) bool {
		return weeks[i].WeekStart.Before(weeks[j].WeekStart)
	})

	for k := 0; k+1 < len(weeks); k++ {
		current, next := weeks[k], weeks[k+1]
		if !model.SameDate(current.WeekStart.AddDate(0, 0, 7), next.WeekStart) {
			continue
		}

		currentShops := lastMainShop(current.Shifts)
		nextShops := lastMainShop(next.Shifts)

		staffIDs := make([]string, 0, len(currentShops))
		for staffID := range currentShops {
			staffIDs = append(staffIDs, staffID)
		}
		sort.Strings(staffIDs)

		for _, staffID := range staffIDs {
			nextShop, ok := nextShops[staffID]
			if !ok || nextShop != currentShops[staffID] {
				continue
			}
			violations = append(violations, Violation{
				Check:       c.Name(),
				WeekStart:   next.WeekStart,
				StaffID:     staffID,
				ShopID:      nextShop,
				Description: fmt.Sprintf("Staff '%s' stays at shop '%s' for consecutive weeks", staffID, nextShop),
			})
		}
	}

	return violations
}

// lastMainShop maps each staff member to the shop of their last main shift,
// with shifts ordered by date then shop id
func lastMainShop(shifts []model.Shift) map[string]string {
	ordered := make([]model.Shift, 0, len(shifts))
	for _, shift := range shifts {
		if shift.Role == model.RoleMain {
			ordered = append(ordered, shift)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if !model.SameDate(ordered[i].Date, ordered[j].Date) {
			return ordered[i].Date.Before(ordered[j].Date)
		}
		return ordered[i].ShopID < ordered[j].ShopID
	})

	last := make(map[string]string)
	for _, shift := range ordered {
		last[shift.StaffID] = shift.ShopID
	}
	return last
}
