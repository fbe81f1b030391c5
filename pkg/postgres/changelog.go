package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

const insertChangeLogSQL = `
	INSERT INTO change_log (id, schedule_id, actor_id, message, created_at)
	VALUES ($1, $2, $3, $4, $5)
`

func changeLogArgs(entry model.ChangeLogEntry) []any {
	id := entry.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var actorID *string
	if entry.ActorID != "" {
		actorID = &entry.ActorID
	}
	return []any{id, entry.ScheduleID, actorID, entry.Message, createdAt.UTC()}
}

// InsertChangeLog appends an entry to a schedule's audit trail
func (d *DB) InsertChangeLog(ctx context.Context, entry model.ChangeLogEntry) error {
	if _, err := d.pool.Exec(ctx, insertChangeLogSQL, changeLogArgs(entry)...); err != nil {
		return fmt.Errorf("failed to insert change log entry: %w", err)
	}
	return nil
}

// GetChangeLog retrieves a schedule's audit trail, oldest first
func (d *DB) GetChangeLog(ctx context.Context, scheduleID string) ([]model.ChangeLogEntry, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, schedule_id, actor_id, message, created_at
		FROM change_log
		WHERE schedule_id = $1
		ORDER BY created_at, id
	`, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}
	defer rows.Close()

	var entries []model.ChangeLogEntry
	for rows.Next() {
		var e model.ChangeLogEntry
		var actorID *string
		if err := rows.Scan(&e.ID, &e.ScheduleID, &actorID, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan change log entry: %w", err)
		}
		if actorID != nil {
			e.ActorID = *actorID
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating change log: %w", err)
	}

	return entries, nil
}
