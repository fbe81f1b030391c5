package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/internal/config"
	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/scheduler"
	"github.com/jakechorley/shopduty/pkg/db"
)

// AutoGenerateStore defines the database operations needed by the scheduled run
type AutoGenerateStore interface {
	GenerateStore
}

// AutoGenerateOptions controls one scheduled run
type AutoGenerateOptions struct {
	// Now is the moment the run happens; zero means time.Now
	Now time.Time

	// Force runs even when today is not an occurrence of the rule
	Force bool

	Rand scheduler.Shuffler
}

// AutoGenerateAction is what the scheduled run ended up doing
type AutoGenerateAction string

const (
	ActionSkipped   AutoGenerateAction = "skipped"
	ActionUpToDate  AutoGenerateAction = "up-to-date"
	ActionPublished AutoGenerateAction = "published"
	ActionGenerated AutoGenerateAction = "generated"
)

// AutoGenerateResult reports the outcome of a scheduled run
type AutoGenerateResult struct {
	Action    AutoGenerateAction
	WeekStart time.Time
	Generate  *GenerateResult
	Publish   *PublishResult
}

// AutoGenerate prepares next week on the days selected by
// cfg.AutoGenerateRRule. A draft that already has shifts is published as is;
// an empty week is generated and then published; a published week is left alone.
func AutoGenerate(ctx context.Context, store AutoGenerateStore, exporter WeekExporter, cfg *config.Config, logger *zap.Logger, opts AutoGenerateOptions) (*AutoGenerateResult, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	todayDate := today(opts.Now, cfg.Location())
	target := NextWeekStart(todayDate)

	if !opts.Force {
		due, err := IsOccurrence(cfg.AutoGenerateRRule, todayDate)
		if err != nil {
			return nil, err
		}
		if !due {
			logger.Debug("Today is not an auto-generate day",
				zap.String("today", todayDate.Format(model.DateLayout)),
				zap.String("rrule", cfg.AutoGenerateRRule))
			return &AutoGenerateResult{Action: ActionSkipped, WeekStart: target}, nil
		}
	}

	logger.Debug("Auto-generating next week", zap.String("week_start", target.Format(model.DateLayout)))

	result := &AutoGenerateResult{WeekStart: target}

	schedule, err := store.GetScheduleByWeek(ctx, target)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	default:
		shifts, err := store.GetShifts(ctx, schedule.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get shifts: %w", err)
		}
		if len(shifts) > 0 {
			if schedule.IsPublished {
				logger.Info("Next week is already published", zap.String("schedule_id", schedule.ID))
				result.Action = ActionUpToDate
				return result, nil
			}

			result.Publish, err = PublishSchedule(ctx, store, exporter, cfg, logger, target, "")
			if err != nil {
				return nil, err
			}
			result.Action = ActionPublished
			return result, nil
		}
	}

	result.Generate, err = GenerateSchedules(ctx, store, cfg, logger, GenerateOptions{
		WeekStart: target,
		Weeks:     1,
		Rand:      opts.Rand,
		Now:       opts.Now,
	})
	if err != nil {
		return nil, err
	}

	result.Publish, err = PublishSchedule(ctx, store, exporter, cfg, logger, target, "")
	if err != nil {
		return nil, err
	}

	result.Action = ActionGenerated
	return result, nil
}

// IsOccurrence reports whether the rule fires on date. The rule is anchored
// at date itself, so rules that only constrain the weekday or month day behave
// as expected.
func IsOccurrence(rule string, date time.Time) (bool, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return false, fmt.Errorf("failed to parse rrule %q: %w", rule, err)
	}

	day := model.Date(date)
	opt.Dtstart = day
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return false, fmt.Errorf("failed to build rrule %q: %w", rule, err)
	}
	return len(r.Between(day, day.AddDate(0, 0, 1).Add(-time.Nanosecond), true)) > 0, nil
}
