package scheduler

import (
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// ScoreInput is everything a factor may look at when scoring one candidate for
// one (shop, date) slot
type ScoreInput struct {
	Staff model.Staff
	Shop  model.Shop
	Date  time.Time

	// History is nil when no attendance context is available; history factors
	// then contribute nothing
	History *History

	// State is the in-progress week ledger
	State *AssignmentState

	// MinEligibleDuty is the lowest duty count among the slot's eligible
	// candidates, nil when the caller is scoring outside a slot
	MinEligibleDuty *int
}

// Factor is one additive term of the assignment score
type Factor interface {
	// Name is the human-readable key used in the score breakdown
	Name() string

	// Delta returns the signed adjustment for the candidate; 0 means the factor
	// does not apply and is left out of the breakdown
	Delta(in *ScoreInput) float64
}

// Factor names as they appear in score breakdowns
const (
	FactorSameShopPrevWeek   = "Worked same shop last week"
	FactorSameShopPriorWeeks = "Worked same shop in prior 3 weeks"
	FactorWorkedPrevWeek     = "Worked last week"
	FactorDutyCount          = "Duties this week"
	FactorPreferredDayOff    = "Preferred day off"
	FactorBackupWorked       = "Called in from stand-by last week"
	FactorHeavyWeek          = "Heavy week"
	FactorAbsentPrevWeek     = "Absent last week"
	FactorLowestDutyCount    = "Lowest duty count"
	FactorConsecutiveShop    = "Same shop as yesterday"
	FactorOwedShift          = "Owed a shift"
)

// DefaultFactors returns the standard scoring factors in breakdown order
func DefaultFactors() []Factor {
	return []Factor{
		sameShopPrevWeek{},
		sameShopPriorWeeks{},
		workedPrevWeek{},
		dutyCount{},
		preferredDayOff{},
		backupWorked{},
		heavyWeek{},
		absentPrevWeek{},
		lowestDutyCount{},
		consecutiveShop{},
		owedShift{},
	}
}

type sameShopPrevWeek struct{}

func (sameShopPrevWeek) Name() string { return FactorSameShopPrevWeek }

func (sameShopPrevWeek) Delta(in *ScoreInput) float64 {
	if in.History == nil {
		return 0
	}
	return DeltaSameShopPrevWeek * float64(in.History.WorkedDaysAtShop(in.Staff.ID, in.Shop.ID))
}

type sameShopPriorWeeks struct{}

func (sameShopPriorWeeks) Name() string { return FactorSameShopPriorWeeks }

func (sameShopPriorWeeks) Delta(in *ScoreInput) float64 {
	if in.History == nil {
		return 0
	}
	return DeltaSameShopPriorWeeks * float64(in.History.PriorWeeksAtShop(in.Staff.ID, in.Shop.ID))
}

type workedPrevWeek struct{}

func (workedPrevWeek) Name() string { return FactorWorkedPrevWeek }

func (workedPrevWeek) Delta(in *ScoreInput) float64 {
	if in.History == nil {
		return 0
	}
	return DeltaWorkedPrevWeek * float64(in.History.WorkedDays(in.Staff.ID))
}

type dutyCount struct{}

func (dutyCount) Name() string { return FactorDutyCount }

func (dutyCount) Delta(in *ScoreInput) float64 {
	if in.State == nil {
		return 0
	}
	return DeltaPerDuty * float64(in.State.DutyCount(in.Staff.ID))
}

type preferredDayOff struct{}

func (preferredDayOff) Name() string { return FactorPreferredDayOff }

func (preferredDayOff) Delta(in *ScoreInput) float64 {
	if in.Staff.PrefersOff(in.Date) {
		return DeltaPreferredDayOff
	}
	return 0
}

type backupWorked struct{}

func (backupWorked) Name() string { return FactorBackupWorked }

func (backupWorked) Delta(in *ScoreInput) float64 {
	if in.History == nil {
		return 0
	}
	return DeltaBackupWorked * float64(in.History.BackupDaysWorked(in.Staff.ID))
}

type heavyWeek struct{}

func (heavyWeek) Name() string { return FactorHeavyWeek }

func (heavyWeek) Delta(in *ScoreInput) float64 {
	if in.State != nil && in.State.DutyCount(in.Staff.ID) >= HeavyWeekDutyCount {
		return DeltaHeavyWeek
	}
	return 0
}

type absentPrevWeek struct{}

func (absentPrevWeek) Name() string { return FactorAbsentPrevWeek }

func (absentPrevWeek) Delta(in *ScoreInput) float64 {
	if in.History == nil {
		return 0
	}
	return DeltaAbsentPrevWeek * float64(in.History.AbsentDays(in.Staff.ID))
}

type lowestDutyCount struct{}

func (lowestDutyCount) Name() string { return FactorLowestDutyCount }

func (lowestDutyCount) Delta(in *ScoreInput) float64 {
	if in.State == nil || in.MinEligibleDuty == nil {
		return 0
	}
	if in.State.DutyCount(in.Staff.ID) == *in.MinEligibleDuty {
		return DeltaLowestDutyCount
	}
	return 0
}

type consecutiveShop struct{}

func (consecutiveShop) Name() string { return FactorConsecutiveShop }

func (consecutiveShop) Delta(in *ScoreInput) float64 {
	if in.State == nil {
		return 0
	}
	yesterday := model.Date(in.Date).AddDate(0, 0, -1)
	// The previous day must fall inside the same week
	if yesterday.Before(in.State.WeekStart()) {
		return 0
	}
	if shopID, ok := in.State.AssignedShop(in.Staff.ID, yesterday); ok && shopID == in.Shop.ID {
		return DeltaConsecutiveShop
	}
	return 0
}

type owedShift struct{}

func (owedShift) Name() string { return FactorOwedShift }

func (owedShift) Delta(in *ScoreInput) float64 {
	if in.State == nil {
		return 0
	}
	if in.State.IdleDaysBefore(in.Staff.ID, in.Date) >= OwedShiftIdleDayCount {
		return DeltaOwedShift
	}
	return 0
}
