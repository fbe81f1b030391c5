package db

import (
	"context"
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// ScheduleStore defines the interface for schedule database operations
type ScheduleStore interface {
	GetOrCreateSchedule(ctx context.Context, weekStart time.Time) (model.Schedule, error)
	GetScheduleByWeek(ctx context.Context, weekStart time.Time) (model.Schedule, error)
	ListSchedules(ctx context.Context) ([]model.Schedule, error)
	SetPublished(ctx context.Context, scheduleID string, published bool) error
	// MarkPublished sets the published flag and records entry in one write
	MarkPublished(ctx context.Context, scheduleID string, entry model.ChangeLogEntry) error
}

// ShiftStore defines the interface for shift database operations
type ShiftStore interface {
	GetShifts(ctx context.Context, scheduleID string) ([]model.Shift, error)
	GetShiftsBetween(ctx context.Context, from, to time.Time) ([]model.Shift, error)

	// ReplaceShifts deletes the schedule's shifts matched by scope, inserts the
	// new shifts and, when entry is non-nil, appends it to the change log. All
	// of it happens in one transaction.
	ReplaceShifts(ctx context.Context, scheduleID string, scope ReplaceScope, shifts []model.Shift, entry *model.ChangeLogEntry) error
}

// DirectoryStore resolves shops and staff with their requirements, preferences
// and applicable shops
type DirectoryStore interface {
	ListShops(ctx context.Context) ([]model.Shop, error)
	ListStaff(ctx context.Context) ([]model.Staff, error)
}

// RosterStore defines the writes performed by the roster sync
type RosterStore interface {
	CreateShop(ctx context.Context, shop model.Shop) error
	SetShopActive(ctx context.Context, shopID string, active bool) error
	SetApplicableShops(ctx context.Context, staffID string, shopIDs []string) error
}

// AttendanceStore reads clock-in records by date range
type AttendanceStore interface {
	GetAttendance(ctx context.Context, from, to time.Time) ([]model.AttendanceFact, error)
}

// ChangeLogStore defines the interface for the schedule audit trail
type ChangeLogStore interface {
	InsertChangeLog(ctx context.Context, entry model.ChangeLogEntry) error
	GetChangeLog(ctx context.Context, scheduleID string) ([]model.ChangeLogEntry, error)
}

// WeekLocker serialises regeneration of a schedule week. The returned release
// function must be called once the week has been written.
type WeekLocker interface {
	AcquireWeekLock(ctx context.Context, weekStart time.Time) (release func(), err error)
}

// Database defines the interface for all database operations.
// Both the in-memory MemoryDB and postgres.DB implement this interface.
type Database interface {
	ScheduleStore
	ShiftStore
	DirectoryStore
	RosterStore
	AttendanceStore
	ChangeLogStore
	WeekLocker
}
