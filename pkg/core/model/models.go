package model

import "time"

type Tier string

const (
	TierRegular       Tier = "regular"
	TierSupervisor    Tier = "supervisor"
	TierAdministrator Tier = "administrator"
)

func (t Tier) IsValid() bool {
	return t == TierRegular || t == TierSupervisor || t == TierAdministrator
}

type Role string

const (
	RoleMain   Role = "main"
	RoleBackup Role = "backup"
)

func (r Role) IsValid() bool {
	return r == RoleMain || r == RoleBackup
}

// Staff represents a shop employee as resolved by the staff directory
type Staff struct {
	ID        string
	FirstName string
	LastName  string
	Tier      Tier
	Active    bool
	Approved  bool

	// PreferredDayOff is 0=Monday..6=Sunday, nil when no preference is recorded
	PreferredDayOff *int

	// ApplicableShopIDs is maintained by the roster sync: regulars get every active
	// non-Roving shop, supervisors get only the Roving shop
	ApplicableShopIDs []string
}

// FullName returns "First Last", falling back to the ID when no name is recorded
func (s Staff) FullName() string {
	if s.FirstName == "" && s.LastName == "" {
		return s.ID
	}
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// IsSchedulable reports whether the staff member can be placed on any shift
func (s Staff) IsSchedulable() bool {
	return s.Active && s.Approved
}

// CanWorkAt reports whether shopID is in the staff member's applicable set
func (s Staff) CanWorkAt(shopID string) bool {
	for _, id := range s.ApplicableShopIDs {
		if id == shopID {
			return true
		}
	}
	return false
}

// PrefersOff reports whether date falls on the staff member's preferred day off
func (s Staff) PrefersOff(date time.Time) bool {
	return s.PreferredDayOff != nil && *s.PreferredDayOff == DayIndex(date)
}

// StaffNames maps staff IDs to display names
func StaffNames(staff []Staff) map[string]string {
	names := make(map[string]string, len(staff))
	for _, s := range staff {
		names[s.ID] = s.FullName()
	}
	return names
}

// Requirement is the per-shop staffing target
type Requirement struct {
	MainStaff    int
	ReserveStaff int
}

// DefaultRequirement is used for shops with no requirement row
var DefaultRequirement = Requirement{MainStaff: 1, ReserveStaff: 0}

// Shop represents a retail location. Exactly one shop per scope is the Roving shop.
type Shop struct {
	ID          string
	Name        string
	Active      bool
	IsRoving    bool
	Requirement Requirement
}

// Schedule is the container for one week's shifts, identified by its Monday
type Schedule struct {
	ID            string
	WeekStartDate time.Time
	IsPublished   bool
	CreatedAt     time.Time
}

// Shift is a single assignment of a staff member to a shop on a date
type Shift struct {
	ID         string
	ScheduleID string
	StaffID    string
	ShopID     string
	Date       time.Time
	Role       Role

	// Rank is the 1-based position of a backup shift in its day's stand-by
	// pool; 0 for main shifts
	Rank int

	// Score and Breakdown are nil for Roving and backup shifts
	Score     *float64
	Breakdown map[string]float64
}

// AttendanceFact is a clock-in record owned by the attendance subsystem
type AttendanceFact struct {
	StaffID string
	ShopID  string
	Date    time.Time
	TimeIn  time.Time

	// TimeOut is nil until the staff member clocks out
	TimeOut *time.Time

	// Synthesized marks facts fabricated for weeks that have not happened yet
	Synthesized bool
}

// ChangeLogEntry is an append-only audit record for a schedule
type ChangeLogEntry struct {
	ID         string
	ScheduleID string
	ActorID    string // empty for system actions
	Message    string
	CreatedAt  time.Time
}
