package scheduler

import (
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// Window is an inclusive range of civil dates
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether date falls inside the window
func (w Window) Contains(date time.Time) bool {
	d := model.Date(date)
	return !d.Before(w.From) && !d.After(w.To)
}

// HistoryWindows returns the preceding week [ws-7, ws-1] and the three weeks
// before it [ws-28, ws-8] for the week starting at weekStart
func HistoryWindows(weekStart time.Time) (prevWeek Window, priorWeeks Window) {
	ws := model.Date(weekStart)
	prevWeek = Window{From: ws.AddDate(0, 0, -7), To: ws.AddDate(0, 0, -1)}
	priorWeeks = Window{From: ws.AddDate(0, 0, -7*(PriorWeekCount+1)), To: ws.AddDate(0, 0, -8)}
	return prevWeek, priorWeeks
}

// History is the attendance and shift context needed to score one week
type History struct {
	WeekStart time.Time

	// PrevWeekAttendance holds facts for the 7 days before WeekStart
	PrevWeekAttendance []model.AttendanceFact

	// PrevWeekShifts holds shifts scheduled for the 7 days before WeekStart
	PrevWeekShifts []model.Shift

	// PriorAttendance holds facts for the 21 days before the preceding week
	PriorAttendance []model.AttendanceFact

	idx *historyIndex
}

type historyIndex struct {
	workedDays         map[string]map[string]bool // staff -> dates with any fact
	workedShopDays     map[staffShopKey]map[string]bool
	priorShopWeeks     map[staffShopKey]map[int]bool
	prevMainDates      map[string][]time.Time
	prevBackupDates    map[string][]time.Time
	prevMainShiftCount map[string]int
}

type staffShopKey struct {
	staffID string
	shopID  string
}

func dateKey(t time.Time) string {
	return t.Format(model.DateLayout)
}

func (h *History) index() *historyIndex {
	if h.idx != nil {
		return h.idx
	}

	prevWeek, priorWeeks := HistoryWindows(h.WeekStart)
	idx := &historyIndex{
		workedDays:         make(map[string]map[string]bool),
		workedShopDays:     make(map[staffShopKey]map[string]bool),
		priorShopWeeks:     make(map[staffShopKey]map[int]bool),
		prevMainDates:      make(map[string][]time.Time),
		prevBackupDates:    make(map[string][]time.Time),
		prevMainShiftCount: make(map[string]int),
	}

	for _, fact := range h.PrevWeekAttendance {
		if !prevWeek.Contains(fact.Date) {
			continue
		}
		day := dateKey(fact.Date)
		if idx.workedDays[fact.StaffID] == nil {
			idx.workedDays[fact.StaffID] = make(map[string]bool)
		}
		idx.workedDays[fact.StaffID][day] = true

		key := staffShopKey{fact.StaffID, fact.ShopID}
		if idx.workedShopDays[key] == nil {
			idx.workedShopDays[key] = make(map[string]bool)
		}
		idx.workedShopDays[key][day] = true
	}

	ws := model.Date(h.WeekStart)
	for _, fact := range h.PriorAttendance {
		if !priorWeeks.Contains(fact.Date) {
			continue
		}
		// Days back 8..14 is week 1, 15..21 week 2, 22..28 week 3
		daysBack := int(ws.Sub(model.Date(fact.Date)).Hours() / 24)
		week := (daysBack - 1) / 7
		key := staffShopKey{fact.StaffID, fact.ShopID}
		if idx.priorShopWeeks[key] == nil {
			idx.priorShopWeeks[key] = make(map[int]bool)
		}
		idx.priorShopWeeks[key][week] = true
	}

	for _, shift := range h.PrevWeekShifts {
		if !prevWeek.Contains(shift.Date) {
			continue
		}
		switch shift.Role {
		case model.RoleMain:
			idx.prevMainDates[shift.StaffID] = append(idx.prevMainDates[shift.StaffID], model.Date(shift.Date))
			idx.prevMainShiftCount[shift.StaffID]++
		case model.RoleBackup:
			idx.prevBackupDates[shift.StaffID] = append(idx.prevBackupDates[shift.StaffID], model.Date(shift.Date))
		}
	}

	h.idx = idx
	return idx
}

// WorkedDaysAtShop counts distinct days in the preceding week with a fact at shopID
func (h *History) WorkedDaysAtShop(staffID, shopID string) int {
	return len(h.index().workedShopDays[staffShopKey{staffID, shopID}])
}

// PriorWeeksAtShop counts the distinct weeks among the prior three in which the
// staff member worked at shopID at least once
func (h *History) PriorWeeksAtShop(staffID, shopID string) int {
	return len(h.index().priorShopWeeks[staffShopKey{staffID, shopID}])
}

// WorkedDays counts distinct days in the preceding week with any fact
func (h *History) WorkedDays(staffID string) int {
	return len(h.index().workedDays[staffID])
}

// BackupDaysWorked counts preceding-week days on which the staff member was on
// stand-by and clocked in anyway
func (h *History) BackupDaysWorked(staffID string) int {
	idx := h.index()
	seen := make(map[string]bool)
	for _, date := range idx.prevBackupDates[staffID] {
		day := dateKey(date)
		if idx.workedDays[staffID][day] {
			seen[day] = true
		}
	}
	return len(seen)
}

// AbsentDays counts preceding-week days with a main shift but no attendance fact
func (h *History) AbsentDays(staffID string) int {
	idx := h.index()
	seen := make(map[string]bool)
	for _, date := range idx.prevMainDates[staffID] {
		day := dateKey(date)
		if !idx.workedDays[staffID][day] {
			seen[day] = true
		}
	}
	return len(seen)
}

// PrevWeekMainCount counts main shifts the staff member held in the preceding week
func (h *History) PrevWeekMainCount(staffID string) int {
	if h == nil {
		return 0
	}
	return h.index().prevMainShiftCount[staffID]
}

// HistoryInput carries the raw windows loaded from storage
type HistoryInput struct {
	WeekStart time.Time

	// Today separates real attendance from synthesized attendance. Dates on or
	// after Today have no trustworthy facts yet.
	Today time.Time

	PrevWeekAttendance []model.AttendanceFact
	PriorAttendance    []model.AttendanceFact

	// PrevWeekShifts are the preceding week's shifts; PriorShifts cover the prior
	// three weeks and are only used to synthesize attendance
	PrevWeekShifts []model.Shift
	PriorShifts    []model.Shift
}

// BuildHistory assembles the History for a week. For every date on or after
// Today the real facts are replaced by one synthesized fact per main shift,
// assuming the shift was worked in full.
func BuildHistory(input HistoryInput) *History {
	today := model.Date(input.Today)
	prevWeek, priorWeeks := HistoryWindows(input.WeekStart)

	return &History{
		WeekStart:          model.Date(input.WeekStart),
		PrevWeekAttendance: mergeAttendance(prevWeek, today, input.PrevWeekAttendance, input.PrevWeekShifts),
		PrevWeekShifts:     filterShifts(prevWeek, input.PrevWeekShifts),
		PriorAttendance:    mergeAttendance(priorWeeks, today, input.PriorAttendance, input.PriorShifts),
	}
}

// IsSpeculative reports whether any day of the preceding week is on or after today
func IsSpeculative(weekStart, today time.Time) bool {
	prevWeek, _ := HistoryWindows(weekStart)
	return !prevWeek.To.Before(model.Date(today))
}

func mergeAttendance(window Window, today time.Time, facts []model.AttendanceFact, shifts []model.Shift) []model.AttendanceFact {
	merged := make([]model.AttendanceFact, 0, len(facts))
	for _, fact := range facts {
		date := model.Date(fact.Date)
		if window.Contains(date) && date.Before(today) {
			merged = append(merged, fact)
		}
	}

	for _, shift := range shifts {
		date := model.Date(shift.Date)
		if shift.Role != model.RoleMain || !window.Contains(date) || date.Before(today) {
			continue
		}
		merged = append(merged, synthesizeFact(shift))
	}

	return merged
}

// synthesizeFact builds a full-day attendance fact for a main shift
func synthesizeFact(shift model.Shift) model.AttendanceFact {
	date := model.Date(shift.Date)
	timeOut := date.Add(17 * time.Hour)
	return model.AttendanceFact{
		StaffID:     shift.StaffID,
		ShopID:      shift.ShopID,
		Date:        date,
		TimeIn:      date.Add(9 * time.Hour),
		TimeOut:     &timeOut,
		Synthesized: true,
	}
}

func filterShifts(window Window, shifts []model.Shift) []model.Shift {
	filtered := make([]model.Shift, 0, len(shifts))
	for _, shift := range shifts {
		if window.Contains(shift.Date) {
			filtered = append(filtered, shift)
		}
	}
	return filtered
}
