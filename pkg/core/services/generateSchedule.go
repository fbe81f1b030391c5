package services

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/shopduty/internal/config"
	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/core/scheduler"
	"github.com/jakechorley/shopduty/pkg/db"
)

// RegeneratedMessage is the change-log entry written when a published week is
// generated again
const RegeneratedMessage = "Schedule regenerated"

// GenerateStore defines the database operations needed for generating schedules
type GenerateStore interface {
	db.ScheduleStore
	db.ShiftStore
	db.DirectoryStore
	db.AttendanceStore
	db.WeekLocker
}

// GenerateOptions selects what to generate
type GenerateOptions struct {
	// ShopIDs limits regeneration to these shops. Empty means every active
	// non-Roving shop. The Roving shop only gets main slots when named here.
	ShopIDs []string

	// WeekStart is the first Monday to generate; zero means next week
	WeekStart time.Time

	// Weeks is the number of consecutive weeks; zero uses cfg.WeeksAhead
	Weeks int

	// Actor is recorded on change-log entries; empty for system runs
	Actor string

	// Rand breaks score ties; nil seeds from cfg.RandomSeed
	Rand scheduler.Shuffler

	// Now decides which history is real and which is synthesized; zero means time.Now
	Now time.Time

	// DryRun generates against an in-memory copy of the store
	DryRun bool
}

// WeekResult is the outcome for one generated week
type WeekResult struct {
	Schedule model.Schedule

	// Shifts holds every shift of the week after regeneration, including
	// out-of-scope shifts that were left in place
	Shifts []model.Shift

	Unfilled []scheduler.UnfilledSlot

	// Speculative is true when the week's history was partly synthesized
	Speculative bool

	Regenerated bool
}

// GenerateResult holds every generated week and the verifier report over them
type GenerateResult struct {
	Weeks  []WeekResult
	Report scheduler.Report
	DryRun bool
}

// generateRun is the resolved context shared by every week of one run
type generateRun struct {
	store    GenerateStore
	logger   *zap.Logger
	opts     GenerateOptions
	today    time.Time
	now      time.Time
	scope    []model.Shop
	allShops []model.Shop
	roving   model.Shop
	staff    []model.Staff
}

// GenerateSchedules generates consecutive weeks in order. Each week is locked,
// its in-scope shifts are replaced in one transaction, and the next week's
// history sees the shifts just written.
func GenerateSchedules(ctx context.Context, store GenerateStore, cfg *config.Config, logger *zap.Logger, opts GenerateOptions) (*GenerateResult, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.Rand == nil {
		opts.Rand = NewRand(cfg.RandomSeed)
	}
	if opts.Weeks == 0 {
		opts.Weeks = cfg.WeeksAhead
	}

	todayDate := today(opts.Now, cfg.Location())
	if opts.WeekStart.IsZero() {
		opts.WeekStart = NextWeekStart(todayDate)
	}

	weekStarts, err := WeekStarts(opts.WeekStart, opts.Weeks)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating schedules",
		zap.String("first_week", weekStarts[0].Format(model.DateLayout)),
		zap.Int("weeks", len(weekStarts)),
		zap.Strings("shop_ids", opts.ShopIDs),
		zap.Bool("dry_run", opts.DryRun))

	if opts.DryRun {
		_, prior := scheduler.HistoryWindows(weekStarts[0])
		to := weekStarts[len(weekStarts)-1].AddDate(0, 0, model.DaysPerWeek-1)
		snapshot, err := db.Snapshot(ctx, store, prior.From, to)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot store for dry run: %w", err)
		}
		store = snapshot
		logger.Info("Dry run: changes will not be persisted")
	}

	run, err := resolveRun(ctx, store, logger, opts, todayDate)
	if err != nil {
		return nil, err
	}

	result := &GenerateResult{DryRun: opts.DryRun}
	for _, weekStart := range weekStarts {
		week, err := run.generateWeek(ctx, weekStart)
		if err != nil {
			return nil, fmt.Errorf("failed to generate week %s: %w", weekStart.Format(model.DateLayout), err)
		}
		result.Weeks = append(result.Weeks, *week)
	}

	verifyInput := scheduler.VerifyInput{
		Shops:        run.allShops,
		Staff:        run.staff,
		RovingShopID: run.roving.ID,
	}
	for _, week := range result.Weeks {
		verifyInput.Weeks = append(verifyInput.Weeks, scheduler.WeekShifts{
			WeekStart: week.Schedule.WeekStartDate,
			Shifts:    week.Shifts,
		})
	}
	result.Report = scheduler.Verify(verifyInput)

	logVerification(logger, result.Report)
	logger.Info("Schedules generated",
		zap.Int("weeks", len(result.Weeks)),
		zap.Bool("all_checks_passed", result.Report.AllPassed()))

	return result, nil
}

// resolveRun loads the directory once and works out the shop scope
func resolveRun(ctx context.Context, store GenerateStore, logger *zap.Logger, opts GenerateOptions, todayDate time.Time) (*generateRun, error) {
	shops, err := store.ListShops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shops: %w", err)
	}

	roving, err := scheduler.FindRovingShop(shops)
	if err != nil {
		return nil, err
	}

	scope, err := resolveScope(shops, opts.ShopIDs)
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

	logger.Debug("Resolved generation scope",
		zap.Int("shops_in_scope", len(scope)),
		zap.Int("staff", len(staff)),
		zap.String("roving_shop_id", roving.ID))

	return &generateRun{
		store:    store,
		logger:   logger,
		opts:     opts,
		today:    todayDate,
		now:      opts.Now,
		scope:    scope,
		allShops: activeShops,
		roving:   roving,
		staff:    staff,
	}, nil
}

// resolveScope returns the shops named by shopIDs, or every active non-Roving
// shop when none are named
func resolveScope(shops []model.Shop, shopIDs []string) ([]model.Shop, error) {
	var scope []model.Shop

	if len(shopIDs) == 0 {
		for _, shop := range shops {
			if shop.Active && !shop.IsRoving {
				scope = append(scope, shop)
			}
		}
	} else {
		for _, id := range shopIDs {
			idx := slices.IndexFunc(shops, func(s model.Shop) bool { return s.ID == id })
			if idx < 0 {
				return nil, fmt.Errorf("shop %s: %w", id, db.ErrNotFound)
			}
			if !shops[idx].Active {
				return nil, fmt.Errorf("shop %s is inactive", id)
			}
			scope = append(scope, shops[idx])
		}
	}

	if len(scope) == 0 {
		return nil, scheduler.ErrNoShops
	}
	return scope, nil
}

func (r *generateRun) generateWeek(ctx context.Context, weekStart time.Time) (*WeekResult, error) {
	logger := r.logger.With(zap.String("week_start", weekStart.Format(model.DateLayout)))

	schedule, err := r.store.GetOrCreateSchedule(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	release, err := r.store.AcquireWeekLock(ctx, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to lock week: %w", err)
	}
	defer release()

	existing, err := r.store.GetShifts(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get existing shifts: %w", err)
	}

	scopeIDs := make([]string, len(r.scope))
	for i, shop := range r.scope {
		scopeIDs[i] = shop.ID
	}
	replace := db.ReplaceScope{ShopIDs: scopeIDs, Backups: true}

	state := scheduler.NewAssignmentState(weekStart)
	var kept []model.Shift
	for _, shift := range existing {
		if replace.Matches(shift) {
			continue
		}
		state.Seed(shift)
		kept = append(kept, shift)
	}

	logger.Debug("Loaded existing shifts",
		zap.Int("existing", len(existing)),
		zap.Int("kept", len(kept)))

	history, err := loadHistory(ctx, r.store, weekStart, r.today)
	if err != nil {
		return nil, err
	}

	speculative := scheduler.IsSpeculative(weekStart, r.today)
	if speculative {
		logger.Debug("History includes synthesized attendance")
	}

	outcome := scheduler.AllocateMainSlots(scheduler.MainSlotInput{
		WeekStart: weekStart,
		Shops:     r.scope,
		Staff:     r.staff,
		History:   history,
		State:     state,
		Rand:      r.opts.Rand,
	})

	for _, slot := range outcome.Unfilled {
		logger.Warn("Duty slot left unfilled",
			zap.String("shop_id", slot.ShopID),
			zap.String("date", slot.Date.Format(model.DateLayout)),
			zap.Int("rank", slot.Rank))
	}

	backups := scheduler.AllocateStandby(scheduler.StandbyInput{
		WeekStart:    weekStart,
		Staff:        r.staff,
		History:      history,
		State:        state,
		Rand:         r.opts.Rand,
		RovingShopID: r.roving.ID,
	})

	generated := make([]model.Shift, 0, len(outcome.Shifts)+len(backups))
	generated = append(generated, outcome.Shifts...)
	generated = append(generated, backups...)
	for i := range generated {
		generated[i].ScheduleID = schedule.ID
	}

	var entry *model.ChangeLogEntry
	if schedule.IsPublished {
		entry = &model.ChangeLogEntry{
			ScheduleID: schedule.ID,
			ActorID:    r.opts.Actor,
			Message:    RegeneratedMessage,
			CreatedAt:  r.now.UTC(),
		}
	}

	if err := r.store.ReplaceShifts(ctx, schedule.ID, replace, generated, entry); err != nil {
		return nil, fmt.Errorf("failed to replace shifts: %w", err)
	}

	// Read back so the result carries stored IDs
	stored, err := r.store.GetShifts(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to read back shifts: %w", err)
	}

	logger.Info("Generated week",
		zap.Int("main_shifts", len(outcome.Shifts)),
		zap.Int("backup_shifts", len(backups)),
		zap.Int("unfilled", len(outcome.Unfilled)),
		zap.Bool("regenerated", entry != nil))

	return &WeekResult{
		Schedule:    schedule,
		Shifts:      stored,
		Unfilled:    outcome.Unfilled,
		Speculative: speculative,
		Regenerated: entry != nil,
	}, nil
}

// loadHistory reads the preceding four weeks of attendance and shifts
// concurrently and builds the week's History
func loadHistory(ctx context.Context, store GenerateStore, weekStart, todayDate time.Time) (*scheduler.History, error) {
	prevWeek, priorWeeks := scheduler.HistoryWindows(weekStart)

	var prevAttendance, priorAttendance []model.AttendanceFact
	var shifts []model.Shift

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prevAttendance, err = store.GetAttendance(gctx, prevWeek.From, prevWeek.To)
		if err != nil {
			return fmt.Errorf("failed to load previous week attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		priorAttendance, err = store.GetAttendance(gctx, priorWeeks.From, priorWeeks.To)
		if err != nil {
			return fmt.Errorf("failed to load prior attendance: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		shifts, err = store.GetShiftsBetween(gctx, priorWeeks.From, prevWeek.To)
		if err != nil {
			return fmt.Errorf("failed to load previous shifts: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var prevShifts, priorShifts []model.Shift
	for _, shift := range shifts {
		if prevWeek.Contains(shift.Date) {
			prevShifts = append(prevShifts, shift)
		} else {
			priorShifts = append(priorShifts, shift)
		}
	}

	return scheduler.BuildHistory(scheduler.HistoryInput{
		WeekStart:          weekStart,
		Today:              todayDate,
		PrevWeekAttendance: prevAttendance,
		PriorAttendance:    priorAttendance,
		PrevWeekShifts:     prevShifts,
		PriorShifts:        priorShifts,
	}), nil
}

func logVerification(logger *zap.Logger, report scheduler.Report) {
	for _, v := range report.Violations {
		fields := []zap.Field{
			zap.String("check", v.Check),
			zap.String("week_start", v.WeekStart.Format(model.DateLayout)),
			zap.String("description", v.Description),
		}
		if v.StaffID != "" {
			fields = append(fields, zap.String("staff_id", v.StaffID))
		}
		if v.ShopID != "" {
			fields = append(fields, zap.String("shop_id", v.ShopID))
		}
		logger.Debug("Verifier violation", fields...)
	}
}
