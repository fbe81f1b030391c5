package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

// AttendanceStatus describes how a shift turned out
type AttendanceStatus string

const (
	// StatusWorked is a main shift with a clock-in
	StatusWorked AttendanceStatus = "worked"
	// StatusAbsent is a main shift without a clock-in
	StatusAbsent AttendanceStatus = "absent"
	// StatusSubstituted is a stand-by who was called in
	StatusSubstituted AttendanceStatus = "substituted"
	// StatusStandby is a stand-by who was not needed
	StatusStandby AttendanceStatus = "standby"
	// StatusSupplement is a clock-in with no shift behind it
	StatusSupplement AttendanceStatus = "supplement"
)

// AttendanceViewStore defines the database operations needed for the attendance view
type AttendanceViewStore interface {
	db.DirectoryStore
	db.AttendanceStore
	GetScheduleByWeek(ctx context.Context, weekStart time.Time) (model.Schedule, error)
	GetShifts(ctx context.Context, scheduleID string) ([]model.Shift, error)
}

// AttendanceRow is one line of the attendance view
type AttendanceRow struct {
	Date      time.Time
	StaffID   string
	StaffName string

	// ShopID is where the staff member was scheduled, or where they clocked
	// in for supplements and substitutions
	ShopID   string
	ShopName string

	Role    model.Role // empty for supplements
	Status  AttendanceStatus
	TimeIn  *time.Time
	TimeOut *time.Time
}

// AttendanceView is a week of shifts joined with what actually happened
type AttendanceView struct {
	Schedule model.Schedule
	Rows     []AttendanceRow
	Counts   map[AttendanceStatus]int
}

// BuildAttendanceView joins a stored week with its attendance facts. Nothing
// is written back.
func BuildAttendanceView(ctx context.Context, store AttendanceViewStore, logger *zap.Logger, weekStart time.Time) (*AttendanceView, error) {
	weekStart = model.Date(weekStart)

	schedule, err := store.GetScheduleByWeek(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	shifts, err := store.GetShifts(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts: %w", err)
	}

	facts, err := store.GetAttendance(ctx, weekStart, weekStart.AddDate(0, 0, model.DaysPerWeek-1))
	if err != nil {
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}

	shops, err := store.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	staff, err := store.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}

	rows := AttendanceRows(shifts, facts)

	names := model.StaffNames(staff)
	shopNames := make(map[string]string, len(shops))
	for _, shop := range shops {
		shopNames[shop.ID] = shop.Name
	}

	counts := make(map[AttendanceStatus]int)
	for i := range rows {
		rows[i].StaffName = names[rows[i].StaffID]
		rows[i].ShopName = shopNames[rows[i].ShopID]
		counts[rows[i].Status]++
	}

	logger.Debug("Built attendance view",
		zap.String("schedule_id", schedule.ID),
		zap.Int("rows", len(rows)),
		zap.Int("absent", counts[StatusAbsent]),
		zap.Int("supplement", counts[StatusSupplement]))

	return &AttendanceView{Schedule: schedule, Rows: rows, Counts: counts}, nil
}

// AttendanceRows classifies every shift against the facts for the same staff
// and date. Facts that match no shift become supplements.
func AttendanceRows(shifts []model.Shift, facts []model.AttendanceFact) []AttendanceRow {
	type key struct {
		staffID string
		date    string
	}

	factsByKey := make(map[key]model.AttendanceFact, len(facts))
	for _, fact := range facts {
		k := key{fact.StaffID, model.Date(fact.Date).Format(model.DateLayout)}
		if existing, ok := factsByKey[k]; !ok || fact.TimeIn.Before(existing.TimeIn) {
			factsByKey[k] = fact
		}
	}

	used := make(map[key]bool)
	rows := make([]AttendanceRow, 0, len(shifts)+len(facts))

	for _, shift := range shifts {
		k := key{shift.StaffID, model.Date(shift.Date).Format(model.DateLayout)}
		fact, ok := factsByKey[k]

		row := AttendanceRow{
			Date:    model.Date(shift.Date),
			StaffID: shift.StaffID,
			ShopID:  shift.ShopID,
			Role:    shift.Role,
		}

		switch {
		case shift.Role == model.RoleMain && ok:
			row.Status = StatusWorked
		case shift.Role == model.RoleMain:
			row.Status = StatusAbsent
		case ok:
			row.Status = StatusSubstituted
			row.ShopID = fact.ShopID
		default:
			row.Status = StatusStandby
		}

		if ok {
			used[k] = true
			timeIn := fact.TimeIn
			row.TimeIn = &timeIn
			row.TimeOut = fact.TimeOut
		}
		rows = append(rows, row)
	}

	for k, fact := range factsByKey {
		if used[k] {
			continue
		}
		timeIn := fact.TimeIn
		rows = append(rows, AttendanceRow{
			Date:    model.Date(fact.Date),
			StaffID: fact.StaffID,
			ShopID:  fact.ShopID,
			Status:  StatusSupplement,
			TimeIn:  &timeIn,
			TimeOut: fact.TimeOut,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].Role != rows[j].Role {
			return roleOrder(rows[i].Role) < roleOrder(rows[j].Role)
		}
		if rows[i].ShopID != rows[j].ShopID {
			return rows[i].ShopID < rows[j].ShopID
		}
		return rows[i].StaffID < rows[j].StaffID
	})

	return rows
}

func roleOrder(role model.Role) int {
	switch role {
	case model.RoleMain:
		return 0
	case model.RoleBackup:
		return 1
	default:
		return 2
	}
}
