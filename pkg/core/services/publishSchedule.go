package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/internal/config"
	"github.com/jakechorley/shopduty/pkg/clients/sheetsclient"
	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

// PublishedMessage is the change-log entry written on publish
const PublishedMessage = "Schedule published"

// PublishStore defines the database operations needed for publishing a week
type PublishStore interface {
	db.DirectoryStore
	GetScheduleByWeek(ctx context.Context, weekStart time.Time) (model.Schedule, error)
	GetShifts(ctx context.Context, scheduleID string) ([]model.Shift, error)
	MarkPublished(ctx context.Context, scheduleID string, entry model.ChangeLogEntry) error
}

// WeekExporter writes a published week somewhere staff can read it
type WeekExporter interface {
	PublishWeek(spreadsheetID string, week *sheetsclient.WeekExport) error
}

// PublishResult describes what publishing did
type PublishResult struct {
	Schedule model.Schedule
	Shifts   int

	// Exported is false when no sheet is configured or no exporter was given
	Exported bool
	TabTitle string
}

// PublishSchedule marks the week starting at weekStart as published, records
// the actor in the change log and exports the week when a sheet is configured
func PublishSchedule(ctx context.Context, store PublishStore, exporter WeekExporter, cfg *config.Config, logger *zap.Logger, weekStart time.Time, actor string) (*PublishResult, error) {
	weekStart = model.Date(weekStart)
	if !model.IsWeekStart(weekStart) {
		return nil, fmt.Errorf("week start %s is not a Monday", weekStart.Format(model.DateLayout))
	}

	logger.Debug("Publishing schedule", zap.String("week_start", weekStart.Format(model.DateLayout)))

	schedule, err := store.GetScheduleByWeek(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	shifts, err := store.GetShifts(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts: %w", err)
	}
	if len(shifts) == 0 {
		return nil, fmt.Errorf("schedule for %s has no shifts; generate it first", weekStart.Format(model.DateLayout))
	}

	if err := store.MarkPublished(ctx, schedule.ID, model.ChangeLogEntry{
		ScheduleID: schedule.ID,
		ActorID:    actor,
		Message:    PublishedMessage,
	}); err != nil {
		return nil, fmt.Errorf("failed to mark schedule published: %w", err)
	}
	schedule.IsPublished = true

	result := &PublishResult{Schedule: schedule, Shifts: len(shifts)}

	if cfg.PublishSheetID == "" || exporter == nil {
		logger.Info("Schedule published without export", zap.String("schedule_id", schedule.ID))
		return result, nil
	}

	export, err := buildWeekExport(ctx, store, weekStart, shifts)
	if err != nil {
		return nil, err
	}

	if err := exporter.PublishWeek(cfg.PublishSheetID, export); err != nil {
		return nil, fmt.Errorf("failed to export schedule: %w", err)
	}

	result.Exported = true
	result.TabTitle = sheetsclient.TabTitle(weekStart)

	logger.Info("Schedule published",
		zap.String("schedule_id", schedule.ID),
		zap.String("tab", result.TabTitle))

	return result, nil
}

// buildWeekExport orders columns with the active non-Roving shops first and
// the Roving shop last
func buildWeekExport(ctx context.Context, store db.DirectoryStore, weekStart time.Time, shifts []model.Shift) (*sheetsclient.WeekExport, error) {
	shops, err := store.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	staff, err := store.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}

	var columns []model.Shop
	var roving []model.Shop
	for _, shop := range shops {
		switch {
		case !shop.Active:
		case shop.IsRoving:
			roving = append(roving, shop)
		default:
			columns = append(columns, shop)
		}
	}

	return &sheetsclient.WeekExport{
		WeekStart: weekStart,
		Shops:     append(columns, roving...),
		Staff:     staff,
		Shifts:    shifts,
	}, nil
}
