package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

const scheduleColumns = `id, week_start_date, is_published, created_at`

func scanSchedule(row pgx.Row) (model.Schedule, error) {
	var s model.Schedule
	if err := row.Scan(&s.ID, &s.WeekStartDate, &s.IsPublished, &s.CreatedAt); err != nil {
		return model.Schedule{}, err
	}
	s.WeekStartDate = model.Date(s.WeekStartDate)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// GetOrCreateSchedule returns the schedule for weekStart, inserting a draft if
// none exists. Concurrent callers converge on the same row.
func (d *DB) GetOrCreateSchedule(ctx context.Context, weekStart time.Time) (model.Schedule, error) {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO schedule (id, week_start_date)
		VALUES ($1, $2)
		ON CONFLICT (week_start_date) DO NOTHING
	`, uuid.New().String(), model.Date(weekStart))
	if err != nil {
		return model.Schedule{}, fmt.Errorf("failed to insert schedule: %w", err)
	}

	return d.GetScheduleByWeek(ctx, weekStart)
}

// GetScheduleByWeek returns db.ErrNotFound when no schedule exists for weekStart
func (d *DB) GetScheduleByWeek(ctx context.Context, weekStart time.Time) (model.Schedule, error) {
	row := d.pool.QueryRow(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedule
		WHERE week_start_date = $1
	`, model.Date(weekStart))

	schedule, err := scanSchedule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Schedule{}, fmt.Errorf("schedule for week %s: %w", weekStart.Format(model.DateLayout), db.ErrNotFound)
	}
	if err != nil {
		return model.Schedule{}, fmt.Errorf("failed to get schedule: %w", err)
	}
	return schedule, nil
}

// ListSchedules retrieves all schedules ordered by week
func (d *DB) ListSchedules(ctx context.Context) ([]model.Schedule, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+scheduleColumns+`
		FROM schedule
		ORDER BY week_start_date
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating schedules: %w", err)
	}

	return schedules, nil
}

// SetPublished sets the is_published flag of a schedule
func (d *DB) SetPublished(ctx context.Context, scheduleID string, published bool) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE schedule SET is_published = $2 WHERE id = $1
	`, scheduleID, published)
	if err != nil {
		return fmt.Errorf("failed to set schedule published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", scheduleID, db.ErrNotFound)
	}
	return nil
}

// MarkPublished sets is_published and inserts entry in a single transaction
func (d *DB) MarkPublished(ctx context.Context, scheduleID string, entry model.ChangeLogEntry) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE schedule SET is_published = TRUE WHERE id = $1
	`, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to set schedule published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("schedule %s: %w", scheduleID, db.ErrNotFound)
	}

	entry.ScheduleID = scheduleID
	if _, err := tx.Exec(ctx, insertChangeLogSQL, changeLogArgs(entry)...); err != nil {
		return fmt.Errorf("failed to insert change log entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
