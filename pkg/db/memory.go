package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// MemoryDB is an in-process Database. It backs tests and dry runs, where a
// snapshot of the real store is generated against without persisting anything.
type MemoryDB struct {
	mu sync.Mutex

	shops      map[string]model.Shop
	shopOrder  []string
	staff      map[string]model.Staff
	staffOrder []string
	schedules  map[string]model.Schedule
	shifts     []model.Shift
	attendance []model.AttendanceFact
	changeLog  []model.ChangeLogEntry
	locks      map[string]bool

	now func() time.Time
}

// NewMemoryDB creates an empty in-memory store
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		shops:     make(map[string]model.Shop),
		staff:     make(map[string]model.Staff),
		schedules: make(map[string]model.Schedule),
		locks:     make(map[string]bool),
		now:       time.Now,
	}
}

// AddShop inserts or replaces a shop
func (m *MemoryDB) AddShop(shop model.Shop) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.shops[shop.ID]; !ok {
		m.shopOrder = append(m.shopOrder, shop.ID)
	}
	m.shops[shop.ID] = shop
}

// AddStaff inserts or replaces a staff member
func (m *MemoryDB) AddStaff(staff model.Staff) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.staff[staff.ID]; !ok {
		m.staffOrder = append(m.staffOrder, staff.ID)
	}
	staff.ApplicableShopIDs = append([]string(nil), staff.ApplicableShopIDs...)
	m.staff[staff.ID] = staff
}

// AddAttendance records clock-in facts
func (m *MemoryDB) AddAttendance(facts ...model.AttendanceFact) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendance = append(m.attendance, facts...)
}

// AddSchedule inserts a schedule together with its shifts
func (m *MemoryDB) AddSchedule(schedule model.Schedule, shifts ...model.Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	schedule.WeekStartDate = model.Date(schedule.WeekStartDate)
	m.schedules[schedule.ID] = schedule
	for _, shift := range shifts {
		shift.ScheduleID = schedule.ID
		m.shifts = append(m.shifts, shift)
	}
}

// GetOrCreateSchedule returns the schedule for weekStart, creating a draft if
// none exists
func (m *MemoryDB) GetOrCreateSchedule(ctx context.Context, weekStart time.Time) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if schedule, ok := m.scheduleByWeek(weekStart); ok {
		return schedule, nil
	}

	schedule := model.Schedule{
		ID:            uuid.New().String(),
		WeekStartDate: model.Date(weekStart),
		CreatedAt:     m.now().UTC(),
	}
	m.schedules[schedule.ID] = schedule
	return schedule, nil
}

// GetScheduleByWeek returns ErrNotFound when no schedule exists for weekStart
func (m *MemoryDB) GetScheduleByWeek(ctx context.Context, weekStart time.Time) (model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if schedule, ok := m.scheduleByWeek(weekStart); ok {
		return schedule, nil
	}
	return model.Schedule{}, fmt.Errorf("schedule for week %s: %w", weekStart.Format(model.DateLayout), ErrNotFound)
}

func (m *MemoryDB) scheduleByWeek(weekStart time.Time) (model.Schedule, bool) {
	for _, schedule := range m.schedules {
		if model.SameDate(schedule.WeekStartDate, weekStart) {
			return schedule, true
		}
	}
	return model.Schedule{}, false
}

// ListSchedules returns every schedule ordered by week
func (m *MemoryDB) ListSchedules(ctx context.Context) ([]model.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedules := make([]model.Schedule, 0, len(m.schedules))
	for _, schedule := range m.schedules {
		schedules = append(schedules, schedule)
	}
	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].WeekStartDate.Before(schedules[j].WeekStartDate)
	})
	return schedules, nil
}

// SetPublished flips the visibility flag of a schedule
func (m *MemoryDB) SetPublished(ctx context.Context, scheduleID string, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedule, ok := m.schedules[scheduleID]
	if !ok {
		return fmt.Errorf("schedule %s: %w", scheduleID, ErrNotFound)
	}
	schedule.IsPublished = published
	m.schedules[scheduleID] = schedule
	return nil
}

// MarkPublished publishes a schedule and appends entry to its change log
func (m *MemoryDB) MarkPublished(ctx context.Context, scheduleID string, entry model.ChangeLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	schedule, ok := m.schedules[scheduleID]
	if !ok {
		return fmt.Errorf("schedule %s: %w", scheduleID, ErrNotFound)
	}
	entry.ScheduleID = scheduleID
	schedule.IsPublished = true
	m.schedules[scheduleID] = schedule
	m.appendChangeLog(entry)
	return nil
}

// GetShifts returns the shifts of one schedule ordered by date, role and rank
func (m *MemoryDB) GetShifts(ctx context.Context, scheduleID string) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var shifts []model.Shift
	for _, shift := range m.shifts {
		if shift.ScheduleID == scheduleID {
			shifts = append(shifts, copyShift(shift))
		}
	}
	sortShifts(shifts)
	return shifts, nil
}

// GetShiftsBetween returns shifts dated within [from, to]
func (m *MemoryDB) GetShiftsBetween(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var shifts []model.Shift
	for _, shift := range m.shifts {
		if inRange(shift.Date, from, to) {
			shifts = append(shifts, copyShift(shift))
		}
	}
	sortShifts(shifts)
	return shifts, nil
}

// ReplaceShifts swaps the scoped shifts of a schedule for new ones
func (m *MemoryDB) ReplaceShifts(ctx context.Context, scheduleID string, scope ReplaceScope, shifts []model.Shift, entry *model.ChangeLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schedules[scheduleID]; !ok {
		return fmt.Errorf("schedule %s: %w", scheduleID, ErrNotFound)
	}

	kept := make([]model.Shift, 0, len(m.shifts))
	for _, shift := range m.shifts {
		if shift.ScheduleID == scheduleID && scope.Matches(shift) {
			continue
		}
		kept = append(kept, shift)
	}

	// Enforce the same uniqueness postgres does
	seen := make(map[string]bool)
	for _, shift := range kept {
		if shift.ScheduleID == scheduleID {
			seen[uniqueShiftKey(shift)] = true
		}
	}
	for _, shift := range shifts {
		key := uniqueShiftKey(shift)
		if seen[key] {
			return fmt.Errorf("duplicate shift for staff %s at shop %s on %s", shift.StaffID, shift.ShopID, shift.Date.Format(model.DateLayout))
		}
		seen[key] = true

		shift = copyShift(shift)
		shift.ScheduleID = scheduleID
		shift.Date = model.Date(shift.Date)
		if shift.ID == "" {
			shift.ID = uuid.New().String()
		}
		kept = append(kept, shift)
	}

	m.shifts = kept
	if entry != nil {
		m.appendChangeLog(*entry)
	}
	return nil
}

// ListShops returns shops in insertion order
func (m *MemoryDB) ListShops(ctx context.Context) ([]model.Shop, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shops := make([]model.Shop, 0, len(m.shopOrder))
	for _, id := range m.shopOrder {
		shops = append(shops, m.shops[id])
	}
	return shops, nil
}

// ListStaff returns staff in insertion order
func (m *MemoryDB) ListStaff(ctx context.Context) ([]model.Staff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	staff := make([]model.Staff, 0, len(m.staffOrder))
	for _, id := range m.staffOrder {
		s := m.staff[id]
		s.ApplicableShopIDs = append([]string(nil), s.ApplicableShopIDs...)
		staff = append(staff, s)
	}
	return staff, nil
}

// CreateShop adds a shop, failing if the id is taken
func (m *MemoryDB) CreateShop(ctx context.Context, shop model.Shop) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.shops[shop.ID]; ok {
		return fmt.Errorf("shop %s already exists", shop.ID)
	}
	m.shops[shop.ID] = shop
	m.shopOrder = append(m.shopOrder, shop.ID)
	return nil
}

// SetShopActive updates the active flag of a shop
func (m *MemoryDB) SetShopActive(ctx context.Context, shopID string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	shop, ok := m.shops[shopID]
	if !ok {
		return fmt.Errorf("shop %s: %w", shopID, ErrNotFound)
	}
	shop.Active = active
	m.shops[shopID] = shop
	return nil
}

// SetApplicableShops replaces a staff member's applicable shop set
func (m *MemoryDB) SetApplicableShops(ctx context.Context, staffID string, shopIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staff, ok := m.staff[staffID]
	if !ok {
		return fmt.Errorf("staff %s: %w", staffID, ErrNotFound)
	}
	staff.ApplicableShopIDs = append([]string(nil), shopIDs...)
	m.staff[staffID] = staff
	return nil
}

// GetAttendance returns facts dated within [from, to]
func (m *MemoryDB) GetAttendance(ctx context.Context, from, to time.Time) ([]model.AttendanceFact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var facts []model.AttendanceFact
	for _, fact := range m.attendance {
		if inRange(fact.Date, from, to) {
			facts = append(facts, fact)
		}
	}
	return facts, nil
}

// InsertChangeLog appends an audit entry
func (m *MemoryDB) InsertChangeLog(ctx context.Context, entry model.ChangeLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.schedules[entry.ScheduleID]; !ok {
		return fmt.Errorf("schedule %s: %w", entry.ScheduleID, ErrNotFound)
	}
	m.appendChangeLog(entry)
	return nil
}

func (m *MemoryDB) appendChangeLog(entry model.ChangeLogEntry) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now().UTC()
	}
	m.changeLog = append(m.changeLog, entry)
}

// GetChangeLog returns a schedule's entries in insertion order
func (m *MemoryDB) GetChangeLog(ctx context.Context, scheduleID string) ([]model.ChangeLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []model.ChangeLogEntry
	for _, entry := range m.changeLog {
		if entry.ScheduleID == scheduleID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// AcquireWeekLock fails fast with ErrScheduleLocked if the week is held
func (m *MemoryDB) AcquireWeekLock(ctx context.Context, weekStart time.Time) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := model.Date(weekStart).Format(model.DateLayout)
	if m.locks[key] {
		return nil, fmt.Errorf("week %s: %w", key, ErrScheduleLocked)
	}
	m.locks[key] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			defer m.mu.Unlock()
			delete(m.locks, key)
		})
	}, nil
}

// SnapshotSource is the read side Snapshot copies from
type SnapshotSource interface {
	DirectoryStore
	AttendanceStore
	ListSchedules(ctx context.Context) ([]model.Schedule, error)
	GetShiftsBetween(ctx context.Context, from, to time.Time) ([]model.Shift, error)
}

// Snapshot copies the directory, every schedule, and the shifts and attendance
// dated within [from, to] from src into a new MemoryDB
func Snapshot(ctx context.Context, src SnapshotSource, from, to time.Time) (*MemoryDB, error) {
	snapshot := NewMemoryDB()

	shops, err := src.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}
	for _, shop := range shops {
		snapshot.AddShop(shop)
	}

	staff, err := src.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	for _, s := range staff {
		snapshot.AddStaff(s)
	}

	schedules, err := src.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	for _, schedule := range schedules {
		snapshot.AddSchedule(schedule)
	}

	shifts, err := src.GetShiftsBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts: %w", err)
	}
	snapshot.shifts = append(snapshot.shifts, shifts...)

	attendance, err := src.GetAttendance(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	snapshot.AddAttendance(attendance...)

	return snapshot, nil
}

func inRange(date, from, to time.Time) bool {
	d := model.Date(date)
	return !d.Before(model.Date(from)) && !d.After(model.Date(to))
}

func uniqueShiftKey(shift model.Shift) string {
	return shift.StaffID + "|" + shift.ShopID + "|" + model.Date(shift.Date).Format(model.DateLayout)
}

func copyShift(shift model.Shift) model.Shift {
	if shift.Score != nil {
		score := *shift.Score
		shift.Score = &score
	}
	if shift.Breakdown != nil {
		breakdown := make(map[string]float64, len(shift.Breakdown))
		for k, v := range shift.Breakdown {
			breakdown[k] = v
		}
		shift.Breakdown = breakdown
	}
	return shift
}

// sortShifts orders by date, then mains before backups, then shop and rank
func sortShifts(shifts []model.Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if !model.SameDate(a.Date, b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Role != b.Role {
			return a.Role == model.RoleMain
		}
		if a.ShopID != b.ShopID {
			return a.ShopID < b.ShopID
		}
		return a.Rank < b.Rank
	})
}
