package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// GetAttendance retrieves time log facts dated within [from, to]
func (d *DB) GetAttendance(ctx context.Context, from, to time.Time) ([]model.AttendanceFact, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT staff_id, shop_id, date, time_in, time_out
		FROM time_log
		WHERE date BETWEEN $1 AND $2
		ORDER BY date, staff_id
	`, model.Date(from), model.Date(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query time log: %w", err)
	}
	defer rows.Close()

	var facts []model.AttendanceFact
	for rows.Next() {
		var f model.AttendanceFact
		if err := rows.Scan(&f.StaffID, &f.ShopID, &f.Date, &f.TimeIn, &f.TimeOut); err != nil {
			return nil, fmt.Errorf("failed to scan time log: %w", err)
		}
		f.Date = model.Date(f.Date)
		facts = append(facts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating time log: %w", err)
	}

	return facts, nil
}

// InsertAttendance records clock-in facts. The attendance subsystem owns this
// table; the scheduler only writes to it from tests and data imports.
func (d *DB) InsertAttendance(ctx context.Context, facts []model.AttendanceFact) error {
	if len(facts) == 0 {
		return nil
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, f := range facts {
		_, err := tx.Exec(ctx, `
			INSERT INTO time_log (staff_id, shop_id, date, time_in, time_out)
			VALUES ($1, $2, $3, $4, $5)
		`, f.StaffID, f.ShopID, model.Date(f.Date), f.TimeIn, f.TimeOut)
		if err != nil {
			return fmt.Errorf("failed to insert time log: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
