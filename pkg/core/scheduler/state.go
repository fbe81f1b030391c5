package scheduler

import (
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// Assignment is one main-duty placement recorded in the week ledger
type Assignment struct {
	StaffID string
	ShopID  string
	Date    time.Time
}

type staffDateKey struct {
	staffID string
	date    string
}

// AssignmentState is the mutable ledger for one week of generation. It tracks
// duty counts per staff member, placements per (staff, shop) and every
// (staff, shop, date) tuple so scoring can see the week built so far.
type AssignmentState struct {
	weekStart   time.Time
	dutyCounts  map[string]int
	shopCounts  map[staffShopKey]int
	assignments []Assignment
	mainShop    map[staffDateKey]string

	// occupied covers every shift on a date, main or backup
	occupied map[staffDateKey]bool
}

// NewAssignmentState creates an empty ledger for the week starting at weekStart
func NewAssignmentState(weekStart time.Time) *AssignmentState {
	return &AssignmentState{
		weekStart:   model.Date(weekStart),
		dutyCounts:  make(map[string]int),
		shopCounts:  make(map[staffShopKey]int),
		assignments: []Assignment{},
		mainShop:    make(map[staffDateKey]string),
		occupied:    make(map[staffDateKey]bool),
	}
}

// WeekStart returns the Monday this ledger covers
func (s *AssignmentState) WeekStart() time.Time {
	return s.weekStart
}

// DutyCount returns how many main duties staffID holds so far this week
func (s *AssignmentState) DutyCount(staffID string) int {
	return s.dutyCounts[staffID]
}

// ShopCount returns how many main duties staffID holds at shopID this week
func (s *AssignmentState) ShopCount(staffID, shopID string) int {
	return s.shopCounts[staffShopKey{staffID, shopID}]
}

// IsAssigned reports whether staffID already holds any shift on date
func (s *AssignmentState) IsAssigned(staffID string, date time.Time) bool {
	return s.occupied[staffDateKey{staffID, dateKey(date)}]
}

// AssignedShop returns the shop of staffID's main duty on date, if any
func (s *AssignmentState) AssignedShop(staffID string, date time.Time) (string, bool) {
	shopID, ok := s.mainShop[staffDateKey{staffID, dateKey(date)}]
	return shopID, ok
}

// Add records a main duty, updating all views together
func (s *AssignmentState) Add(staffID, shopID string, date time.Time) {
	d := model.Date(date)
	key := staffDateKey{staffID, dateKey(d)}

	s.dutyCounts[staffID]++
	s.shopCounts[staffShopKey{staffID, shopID}]++
	s.assignments = append(s.assignments, Assignment{StaffID: staffID, ShopID: shopID, Date: d})
	s.mainShop[key] = shopID
	s.occupied[key] = true
}

// MarkOccupied blocks staffID on date without counting a duty
func (s *AssignmentState) MarkOccupied(staffID string, date time.Time) {
	s.occupied[staffDateKey{staffID, dateKey(date)}] = true
}

// Seed records a shift that already exists in the schedule and is not being
// regenerated. Main shifts count as duties; backups only block the date.
func (s *AssignmentState) Seed(shift model.Shift) {
	if shift.Role == model.RoleMain {
		s.Add(shift.StaffID, shift.ShopID, shift.Date)
		return
	}
	s.MarkOccupied(shift.StaffID, shift.Date)
}

// Assignments returns the recorded main duties in insertion order
func (s *AssignmentState) Assignments() []Assignment {
	out := make([]Assignment, len(s.assignments))
	copy(out, s.assignments)
	return out
}

// IdleDaysBefore counts the days from the start of the week up to (not
// including) date on which staffID holds no shift
func (s *AssignmentState) IdleDaysBefore(staffID string, date time.Time) int {
	idle := 0
	for d := s.weekStart; d.Before(model.Date(date)); d = d.AddDate(0, 0, 1) {
		if !s.IsAssigned(staffID, d) {
			idle++
		}
	}
	return idle
}
