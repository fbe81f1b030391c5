package scheduler

// Score deltas for assignment ranking. A candidate starts at BaseScore and each
// factor adds its delta; higher scores are assigned first.
const (
	BaseScore = 20.0

	// History factors, applied once per matching day or week
	DeltaSameShopPrevWeek   = -1.0
	DeltaSameShopPriorWeeks = -1.0
	DeltaWorkedPrevWeek     = -1.0
	DeltaBackupWorked       = -2.0
	DeltaAbsentPrevWeek     = 4.0

	// Current week factors
	DeltaPerDuty          = -2.0
	DeltaPreferredDayOff  = -5.0
	DeltaHeavyWeek        = -4.0
	DeltaLowestDutyCount  = 1.0
	DeltaConsecutiveShop  = 1.0
	DeltaOwedShift        = 10.0
	HeavyWeekDutyCount    = 6
	OwedShiftIdleDayCount = 2
)

// PriorWeekCount is the number of weeks before the preceding week that the
// same-shop rotation factor looks at
const PriorWeekCount = 3
