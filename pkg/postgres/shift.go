package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

const shiftColumns = `id, schedule_id, staff_id, shop_id, date, role, standby_rank, score, score_breakdown`

// shiftOrder matches the ordering of db.MemoryDB
const shiftOrder = `ORDER BY date, CASE role WHEN 'main' THEN 0 ELSE 1 END, shop_id, standby_rank`

func scanShifts(rows pgx.Rows) ([]model.Shift, error) {
	defer rows.Close()

	var shifts []model.Shift
	for rows.Next() {
		var s model.Shift
		var role string
		var breakdown []byte
		if err := rows.Scan(&s.ID, &s.ScheduleID, &s.StaffID, &s.ShopID, &s.Date, &role, &s.Rank, &s.Score, &breakdown); err != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", err)
		}
		s.Role = model.Role(role)
		s.Date = model.Date(s.Date)
		if breakdown != nil {
			if err := json.Unmarshal(breakdown, &s.Breakdown); err != nil {
				return nil, fmt.Errorf("failed to decode score breakdown of shift %s: %w", s.ID, err)
			}
		}
		shifts = append(shifts, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shifts: %w", err)
	}

	return shifts, nil
}

// GetShifts retrieves the shifts of one schedule
func (d *DB) GetShifts(ctx context.Context, scheduleID string) ([]model.Shift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE schedule_id = $1
		`+shiftOrder, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	return scanShifts(rows)
}

// GetShiftsBetween retrieves shifts dated within [from, to]
func (d *DB) GetShiftsBetween(ctx context.Context, from, to time.Time) ([]model.Shift, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+shiftColumns+`
		FROM shift
		WHERE date BETWEEN $1 AND $2
		`+shiftOrder, model.Date(from), model.Date(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query shifts: %w", err)
	}
	return scanShifts(rows)
}

// ReplaceShifts deletes the scoped shifts of a schedule and inserts the new
// ones in a single transaction, appending entry to the change log if given
func (d *DB) ReplaceShifts(ctx context.Context, scheduleID string, scope db.ReplaceScope, shifts []model.Shift, entry *model.ChangeLogEntry) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	shopIDs := scope.ShopIDs
	if shopIDs == nil {
		shopIDs = []string{}
	}
	_, err = tx.Exec(ctx, `
		DELETE FROM shift
		WHERE schedule_id = $1
		  AND (shop_id = ANY($2) OR ($3 AND role = 'backup'))
	`, scheduleID, shopIDs, scope.Backups)
	if err != nil {
		return fmt.Errorf("failed to delete shifts: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range shifts {
		id := s.ID
		if id == "" {
			id = uuid.New().String()
		}

		var breakdown []byte
		if s.Breakdown != nil {
			breakdown, err = json.Marshal(s.Breakdown)
			if err != nil {
				return fmt.Errorf("failed to encode score breakdown: %w", err)
			}
		}

		batch.Queue(`
			INSERT INTO shift (id, schedule_id, staff_id, shop_id, date, role, standby_rank, score, score_breakdown)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, id, scheduleID, s.StaffID, s.ShopID, model.Date(s.Date), string(s.Role), s.Rank, s.Score, breakdown)
	}

	if entry != nil {
		batch.Queue(insertChangeLogSQL, changeLogArgs(*entry)...)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert shifts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
