package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/clients/sheetsclient"
	"github.com/jakechorley/shopduty/pkg/core/model"
	"github.com/jakechorley/shopduty/pkg/db"
)

type exportCall struct {
	spreadsheetID string
	week          *sheetsclient.WeekExport
}

type mockExporter struct {
	calls []exportCall
	err   error
}

func (m *mockExporter) PublishWeek(spreadsheetID string, week *sheetsclient.WeekExport) error {
	m.calls = append(m.calls, exportCall{spreadsheetID: spreadsheetID, week: week})
	return m.err
}

// failingPublishStore rejects the publish write
type failingPublishStore struct {
	*db.MemoryDB
	err error
}

func (f *failingPublishStore) MarkPublished(ctx context.Context, scheduleID string, entry model.ChangeLogEntry) error {
	return f.err
}

// draftStore holds an unpublished week with one main and one backup shift
func draftStore() *db.MemoryDB {
	store := db.NewMemoryDB()
	store.AddShop(rovingShop())
	store.AddShop(testShop(highStreet, 1))
	store.AddShop(testShop(market, 1))
	store.AddStaff(testStaff("amara", model.TierRegular, highStreet, market))
	store.AddStaff(testStaff("ben", model.TierRegular, highStreet, market))
	store.AddSchedule(model.Schedule{ID: "sched-1", WeekStartDate: weekOne},
		model.Shift{ID: "s1", StaffID: "amara", ShopID: highStreet, Date: weekOne, Role: model.RoleMain},
		model.Shift{ID: "s2", StaffID: "ben", ShopID: roving, Date: weekOne, Role: model.RoleBackup, Rank: 1},
	)
	return store
}

func TestPublishSchedule_Success(t *testing.T) {
	ctx := context.Background()
	store := draftStore()
	exporter := &mockExporter{}

	cfg := testConfig()
	cfg.PublishSheetID = "sheet-123"

	result, err := PublishSchedule(ctx, store, exporter, cfg, zap.NewNop(), weekOne, "manager-1")
	require.NoError(t, err)

	assert.True(t, result.Schedule.IsPublished)
	assert.Equal(t, 2, result.Shifts)
	assert.True(t, result.Exported)
	assert.Equal(t, "Week of Mon Jan 08 2024", result.TabTitle)

	schedule, err := store.GetScheduleByWeek(ctx, weekOne)
	require.NoError(t, err)
	assert.True(t, schedule.IsPublished)

	entries, err := store.GetChangeLog(ctx, "sched-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, PublishedMessage, entries[0].Message)
	assert.Equal(t, "manager-1", entries[0].ActorID)

	require.Len(t, exporter.calls, 1)
	call := exporter.calls[0]
	assert.Equal(t, "sheet-123", call.spreadsheetID)
	assert.Len(t, call.week.Shifts, 2)
	assert.Len(t, call.week.Staff, 2)

	var columns []string
	for _, shop := range call.week.Shops {
		columns = append(columns, shop.ID)
	}
	assert.Equal(t, []string{highStreet, market, roving}, columns, "roving goes last")
}

func TestPublishSchedule_NoSheetConfigured(t *testing.T) {
	exporter := &mockExporter{}

	result, err := PublishSchedule(context.Background(), draftStore(), exporter, testConfig(), zap.NewNop(), weekOne, "")
	require.NoError(t, err)

	assert.True(t, result.Schedule.IsPublished)
	assert.False(t, result.Exported)
	assert.Empty(t, exporter.calls)
}

func TestPublishSchedule_NilExporter(t *testing.T) {
	cfg := testConfig()
	cfg.PublishSheetID = "sheet-123"

	result, err := PublishSchedule(context.Background(), draftStore(), nil, cfg, zap.NewNop(), weekOne, "")
	require.NoError(t, err)
	assert.False(t, result.Exported)
}

func TestPublishSchedule_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing week", func(t *testing.T) {
		_, err := PublishSchedule(ctx, draftStore(), nil, testConfig(), zap.NewNop(), weekOne.AddDate(0, 0, 7), "")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("empty week", func(t *testing.T) {
		store := draftStore()
		store.AddSchedule(model.Schedule{ID: "sched-2", WeekStartDate: weekOne.AddDate(0, 0, 7)})

		_, err := PublishSchedule(ctx, store, nil, testConfig(), zap.NewNop(), weekOne.AddDate(0, 0, 7), "")
		assert.ErrorContains(t, err, "no shifts")

		schedule, err := store.GetScheduleByWeek(ctx, weekOne.AddDate(0, 0, 7))
		require.NoError(t, err)
		assert.False(t, schedule.IsPublished)
	})

	t.Run("not a monday", func(t *testing.T) {
		_, err := PublishSchedule(ctx, draftStore(), nil, testConfig(), zap.NewNop(), weekOne.AddDate(0, 0, 3), "")
		assert.ErrorContains(t, err, "not a Monday")
	})

	t.Run("publish write fails", func(t *testing.T) {
		store := draftStore()
		exporter := &mockExporter{}
		cfg := testConfig()
		cfg.PublishSheetID = "sheet-123"

		_, err := PublishSchedule(ctx, &failingPublishStore{MemoryDB: store, err: errors.New("connection reset")}, exporter, cfg, zap.NewNop(), weekOne, "manager-1")
		assert.ErrorContains(t, err, "connection reset")

		schedule, err := store.GetScheduleByWeek(ctx, weekOne)
		require.NoError(t, err)
		assert.False(t, schedule.IsPublished)

		entries, err := store.GetChangeLog(ctx, schedule.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Empty(t, exporter.calls)
	})

	t.Run("export failure", func(t *testing.T) {
		cfg := testConfig()
		cfg.PublishSheetID = "sheet-123"
		exporter := &mockExporter{err: errors.New("quota exceeded")}

		_, err := PublishSchedule(ctx, draftStore(), exporter, cfg, zap.NewNop(), weekOne, "")
		assert.ErrorContains(t, err, "quota exceeded")
	})
}
