package activity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memEntry(id, action, severity string, createdAt time.Time) Entry {
	return Entry{
		ID:        id,
		ActorName: "tester",
		Action:    action,
		Severity:  severity,
		Status:    StatusSuccess,
		CreatedAt: createdAt,
	}
}

func TestMemoryStoreTrimsAtCap(t *testing.T) {
	store := NewMemoryStore(10)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 11; i++ {
		err := store.Insert(context.Background(), memEntry(fmt.Sprintf("e%d", i), ActionCreateBug, SeverityMedium, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	// Cap exceeded: trimmed to the most recent half of the cap.
	assert.Equal(t, 5, store.Len())

	logs, total, err := store.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Equal(t, "e10", logs[0].ID, "newest entry kept first")
}

func TestMemoryStoreListFilters(t *testing.T) {
	store := NewMemoryStore(100)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(context.Background(), memEntry("e1", ActionCreateBug, SeverityMedium, base)))
	require.NoError(t, store.Insert(context.Background(), memEntry("e2", ActionDeleteProject, SeverityHigh, base.Add(time.Hour))))

	logs, total, err := store.List(context.Background(), Filters{Severity: SeverityHigh})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "e2", logs[0].ID)

	logs, total, err = store.List(context.Background(), Filters{Search: "delete_project"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "e2", logs[0].ID)

	_, total, err = store.List(context.Background(), Filters{EndDate: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestMemoryStoreDeleteOlderThan(t *testing.T) {
	store := NewMemoryStore(100)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(context.Background(), memEntry("old", ActionCreateBug, SeverityMedium, base)))
	require.NoError(t, store.Insert(context.Background(), memEntry("new", ActionCreateBug, SeverityMedium, base.Add(48*time.Hour))))

	removed, err := store.DeleteOlderThan(context.Background(), base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore(100)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(context.Background(), memEntry("e1", ActionCreateBug, SeverityMedium, base)))
	require.NoError(t, store.Insert(context.Background(), memEntry("e2", ActionCreateBug, SeverityMedium, base)))
	require.NoError(t, store.Insert(context.Background(), memEntry("e3", ActionDeleteProject, SeverityHigh, base)))

	stats, err := store.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(2), stats.ByAction[ActionCreateBug])
	assert.Equal(t, int64(1), stats.BySeverity[SeverityHigh])
}
