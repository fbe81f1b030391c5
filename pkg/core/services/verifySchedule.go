package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/scheduler"
	"github.com/jakechorley/shopduty/pkg/db"
)

// VerifyStore defines the database operations needed for verifying stored weeks
type VerifyStore interface {
	db.DirectoryStore
	GetScheduleByWeek(ctx context.Context, weekStart time.Time) (model.Schedule, error)
	GetShifts(ctx context.Context, scheduleID string) ([]model.Shift, error)
}

// VerifyResult is the verifier report over the weeks that exist in storage
type VerifyResult struct {
	Report scheduler.Report

	// Missing lists requested weeks with no schedule
	Missing []time.Time

	Verified []time.Time
}

// VerifySchedules runs the verifier over stored weeks. Weeks without a
// schedule are skipped and reported as missing.
func VerifySchedules(ctx context.Context, store VerifyStore, logger *zap.Logger, weekStart time.Time, weeks int) (*VerifyResult, error) {
	weekStarts, err := WeekStarts(weekStart, weeks)
	if err != nil {
		return nil, err
	}

	shops, err := store.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	roving, err := scheduler.FindRovingShop(shops)
	if err != nil {
		return nil, err
	}

	staff, err := store.ListStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}

	activeShops := make([]model.Shop, 0, len(shops))
	for _, shop := range shops {
		if shop.Active {
			activeShops = append(activeShops, shop)
		}
	}

	result := &VerifyResult{}
	input := scheduler.VerifyInput{
		Shops:        activeShops,
		Staff:        staff,
		RovingShopID: roving.ID,
	}

	for _, ws := range weekStarts {
		schedule, err := store.GetScheduleByWeek(ctx, ws)
		if errors.Is(err, db.ErrNotFound) {
			logger.Debug("No schedule for week", zap.String("week_start", ws.Format(model.DateLayout)))
			result.Missing = append(result.Missing, ws)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get schedule for %s: %w", ws.Format(model.DateLayout), err)
		}

		shifts, err := store.GetShifts(ctx, schedule.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get shifts for %s: %w", ws.Format(model.DateLayout), err)
		}

		input.Weeks = append(input.Weeks, scheduler.WeekShifts{WeekStart: ws, Shifts: shifts})
		result.Verified = append(result.Verified, ws)
	}

	result.Report = scheduler.Verify(input)
	logVerification(logger, result.Report)

	logger.Debug("Verified schedules",
		zap.Int("verified", len(result.Verified)),
		zap.Int("missing", len(result.Missing)),
		zap.Int("violations", len(result.Report.Violations)))

	return result, nil
}
