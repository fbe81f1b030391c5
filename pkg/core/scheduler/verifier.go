package scheduler

import (
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// WeekShifts is one generated week as read back from storage
type WeekShifts struct {
	WeekStart time.Time
	Shifts    []model.Shift
}

// VerifyInput is the read-only view the checks evaluate
type VerifyInput struct {
	Weeks        []WeekShifts
	Shops        []model.Shop
	Staff        []model.Staff
	RovingShopID string
}

// Violation describes one failed soft invariant
type Violation struct {
	Check       string
	WeekStart   time.Time
	Date        time.Time // zero when the violation spans the week
	StaffID     string
	ShopID      string
	Description string
}

// Check is one soft invariant over generated weeks
type Check interface {
	// Name identifies the check in reports and violations
	Name() string

	// Validate returns every violation found; empty means the invariant holds
	Validate(in *VerifyInput) []Violation
}

// Report holds the outcome of each check. All flags start true and flip on the
// first violation. Generation never depends on these.
type Report struct {
	Coverage            bool
	WorkloadBalance     bool
	ReserveCoverage     bool
	PreferenceRespected bool
	ShopStability       bool
	Rotation            bool

	Violations []Violation
}

// AllPassed reports whether every check held
func (r Report) AllPassed() bool {
	return r.Coverage && r.WorkloadBalance && r.ReserveCoverage &&
		r.PreferenceRespected && r.ShopStability && r.Rotation
}

// DefaultChecks returns the six standard checks
func DefaultChecks() []Check {
	return []Check{
		CoverageCheck{},
		WorkloadBalanceCheck{},
		ReserveCoverageCheck{},
		PreferenceCheck{},
		ShopStabilityCheck{},
		RotationCheck{},
	}
}

// Verify runs DefaultChecks over the input
func Verify(in VerifyInput) Report {
	report := Report{
		Coverage:            true,
		WorkloadBalance:     true,
		ReserveCoverage:     true,
		PreferenceRespected: true,
		ShopStability:       true,
		Rotation:            true,
		Violations:          []Violation{},
	}

	for _, check := range DefaultChecks() {
		violations := check.Validate(&in)
		if len(violations) == 0 {
			continue
		}
		report.Violations = append(report.Violations, violations...)
		report.fail(check.Name())
	}

	return report
}

func (r *Report) fail(checkName string) {
	switch checkName {
	case CheckCoverage:
		r.Coverage = false
	case CheckWorkloadBalance:
		r.WorkloadBalance = false
	case CheckReserveCoverage:
		r.ReserveCoverage = false
	case CheckPreference:
		r.PreferenceRespected = false
	case CheckShopStability:
		r.ShopStability = false
	case CheckRotation:
		r.Rotation = false
	}
}

func (in *VerifyInput) isRoving(shopID string) bool {
	if shopID == in.RovingShopID {
		return true
	}
	for _, shop := range in.Shops {
		if shop.ID == shopID {
			return shop.IsRoving
		}
	}
	return false
}

func (in *VerifyInput) nonRovingShops() []model.Shop {
	shops := make([]model.Shop, 0, len(in.Shops))
	for _, shop := range in.Shops {
		if !in.isRoving(shop.ID) {
			shops = append(shops, shop)
		}
	}
	return shops
}
