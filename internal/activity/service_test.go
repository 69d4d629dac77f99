package activity

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T, n int) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(n + 10)
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, store.Insert(context.Background(), Entry{
			ID:        uuidLike(i),
			ActorName: "tester",
			Action:    ActionCreateBug,
			Severity:  SeverityMedium,
			Status:    StatusSuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			Details:   Details{Method: "POST", Path: "/api/bugs"},
		}))
	}
	return store
}

func uuidLike(i int) string {
	return strings.Repeat("0", 23) + string(rune('a'+i%26))
}

func TestServiceListClampsLimit(t *testing.T) {
	svc := NewService(seedStore(t, 30))

	result, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.Len(t, result.Logs, 20, "default page size")
	assert.Equal(t, 30, result.Pagination.Total)
	assert.Equal(t, 2, result.Pagination.Pages)

	result, err = svc.List(context.Background(), Filters{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Pagination.Limit, "limit capped at 100")
}

func TestServiceListEmptyStoreReturnsEmptySlice(t *testing.T) {
	svc := NewService(NewMemoryStore(10))

	result, err := svc.List(context.Background(), Filters{})
	require.NoError(t, err)
	assert.NotNil(t, result.Logs)
	assert.Empty(t, result.Logs)
}

func TestServiceExportCSV(t *testing.T) {
	svc := NewService(seedStore(t, 3))

	result, err := svc.Export(context.Background(), Filters{}, "csv", 0)
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", result.ContentType)
	assert.Equal(t, "activity-logs.csv", result.Filename)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Exported)

	records, err := csv.NewReader(strings.NewReader(string(result.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus three rows")
	assert.Equal(t, "id", records[0][0])
	assert.Equal(t, ActionCreateBug, records[1][4])
}

func TestServiceExportJSON(t *testing.T) {
	svc := NewService(seedStore(t, 2))

	result, err := svc.Export(context.Background(), Filters{}, "json", 0)
	require.NoError(t, err)
	assert.Equal(t, "application/json", result.ContentType)
	assert.Contains(t, string(result.Data), ActionCreateBug)
}

func TestServiceExportLimitBoundsRows(t *testing.T) {
	svc := NewService(seedStore(t, 10))

	result, err := svc.Export(context.Background(), Filters{}, "csv", 4)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Total)
	assert.Equal(t, 4, result.Exported)
}

func TestServiceCleanupDefaultRetention(t *testing.T) {
	store := NewMemoryStore(10)
	old := time.Now().UTC().AddDate(0, 0, -120)
	recent := time.Now().UTC().AddDate(0, 0, -5)
	require.NoError(t, store.Insert(context.Background(), Entry{ID: "old", Action: ActionCreateBug, CreatedAt: old}))
	require.NoError(t, store.Insert(context.Background(), Entry{ID: "recent", Action: ActionCreateBug, CreatedAt: recent}))

	svc := NewService(store)
	removed, err := svc.Cleanup(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed, "only entries past the 90 day default are removed")
	assert.Equal(t, 1, store.Len())
}

func TestServiceCleanupExplicitWindow(t *testing.T) {
	store := NewMemoryStore(10)
	require.NoError(t, store.Insert(context.Background(), Entry{ID: "old", Action: ActionCreateBug, CreatedAt: time.Now().UTC().AddDate(0, 0, -10)}))

	svc := NewService(store)
	removed, err := svc.Cleanup(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
