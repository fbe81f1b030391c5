package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/shopduty/pkg/core/model"
)

// sundayBefore is the Sunday before weekOne
var sundayBefore = time.Date(2024, 1, 7, 18, 0, 0, 0, time.UTC)

func TestIsOccurrence(t *testing.T) {
	tests := []struct {
		name string
		rule string
		date time.Time
		want bool
	}{
		{name: "weekly sunday on sunday", rule: "FREQ=WEEKLY;BYDAY=SU", date: sundayBefore, want: true},
		{name: "weekly sunday on monday", rule: "FREQ=WEEKLY;BYDAY=SU", date: weekOne, want: false},
		{name: "several days", rule: "FREQ=WEEKLY;BYDAY=WE,SU", date: nowBefore, want: true},
		{name: "first of month", rule: "FREQ=MONTHLY;BYMONTHDAY=1", date: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), want: true},
		{name: "not first of month", rule: "FREQ=MONTHLY;BYMONTHDAY=1", date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsOccurrence(tt.rule, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := IsOccurrence("FREQ=SOMETIMES", sundayBefore)
	assert.Error(t, err)
}

func TestAutoGenerate_SkipsOffDays(t *testing.T) {
	store := scenarioStore()

	result, err := AutoGenerate(context.Background(), store, nil, testConfig(), zap.NewNop(), AutoGenerateOptions{
		Now:  nowBefore,
		Rand: seeded(1),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, result.Action)
	assert.Nil(t, result.Generate)

	schedules, err := store.ListSchedules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, schedules)
}

func TestAutoGenerate_GeneratesAndPublishesEmptyWeek(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()
	exporter := &mockExporter{}

	cfg := testConfig()
	cfg.PublishSheetID = "sheet-123"

	result, err := AutoGenerate(ctx, store, exporter, cfg, zap.NewNop(), AutoGenerateOptions{
		Now:  sundayBefore,
		Rand: seeded(1),
	})
	require.NoError(t, err)

	assert.Equal(t, ActionGenerated, result.Action)
	assert.True(t, result.WeekStart.Equal(weekOne))
	require.NotNil(t, result.Generate)
	require.NotNil(t, result.Publish)
	assert.True(t, result.Publish.Exported)
	assert.Len(t, exporter.calls, 1)

	schedule, err := store.GetScheduleByWeek(ctx, weekOne)
	require.NoError(t, err)
	assert.True(t, schedule.IsPublished)

	entries, err := store.GetChangeLog(ctx, schedule.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1, "a fresh draft is not logged as regenerated")
	assert.Equal(t, PublishedMessage, entries[0].Message)
	assert.Empty(t, entries[0].ActorID)
}

func TestAutoGenerate_PublishesExistingDraft(t *testing.T) {
	ctx := context.Background()
	store := draftStore()

	result, err := AutoGenerate(ctx, store, nil, testConfig(), zap.NewNop(), AutoGenerateOptions{
		Now:  sundayBefore,
		Rand: seeded(1),
	})
	require.NoError(t, err)

	assert.Equal(t, ActionPublished, result.Action)
	assert.Nil(t, result.Generate, "the draft is kept as it is")

	shifts, err := store.GetShifts(ctx, "sched-1")
	require.NoError(t, err)
	assert.Len(t, shifts, 2)
}

func TestAutoGenerate_LeavesPublishedWeekAlone(t *testing.T) {
	ctx := context.Background()
	store := draftStore()
	require.NoError(t, store.SetPublished(ctx, "sched-1", true))

	result, err := AutoGenerate(ctx, store, nil, testConfig(), zap.NewNop(), AutoGenerateOptions{
		Now:  sundayBefore,
		Rand: seeded(1),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionUpToDate, result.Action)

	entries, err := store.GetChangeLog(ctx, "sched-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAutoGenerate_Force(t *testing.T) {
	ctx := context.Background()
	store := scenarioStore()

	result, err := AutoGenerate(ctx, store, nil, testConfig(), zap.NewNop(), AutoGenerateOptions{
		Now:   nowBefore,
		Force: true,
		Rand:  seeded(1),
	})
	require.NoError(t, err)
	assert.Equal(t, ActionGenerated, result.Action)

	stored, err := store.GetShiftsBetween(ctx, weekOne, weekOne.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Len(t, stored, 21)

	for _, s := range stored {
		assert.True(t, s.Role == model.RoleMain || s.Role == model.RoleBackup)
	}
}
