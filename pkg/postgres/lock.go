package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

// weekLockNamespace keeps schedule week locks apart from other advisory lock users
const weekLockNamespace int64 = 0x5348 << 32

func weekLockKey(weekStart time.Time) int64 {
	days := model.Date(weekStart).Unix() / 86400
	return weekLockNamespace | (days & 0xffffffff)
}

// AcquireWeekLock takes a session advisory lock keyed by the week start date.
// The lock lives on a dedicated pooled connection until release is called.
func (d *DB) AcquireWeekLock(ctx context.Context, weekStart time.Time) (func(), error) {
	conn, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for week lock: %w", err)
	}

	key := weekLockKey(weekStart)
	var locked bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&locked); err != nil {
		conn.Release()
		return nil, fmt.Errorf("failed to take week lock: %w", err)
	}
	if !locked {
		conn.Release()
		return nil, fmt.Errorf("week %s: %w", weekStart.Format(model.DateLayout), db.ErrScheduleLocked)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Unlock on a fresh context so a cancelled run still frees the week
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, key); err != nil {
			// Closing the connection drops every session lock it holds
			conn.Conn().Close(context.Background())
		}
		conn.Release()
	}, nil
}
