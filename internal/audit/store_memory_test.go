package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	row := Log{
		ID:        "audit-job-1",
		TenantID:  "tenant-a",
		JobID:     "job-1",
		Action:    "validation_succeeded",
		CreatedAt: time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC),
		Payload:   map[string]any{"status": "SUCCESS"},
	}
	require.NoError(t, store.Append(ctx, row))
	require.NoError(t, store.Append(ctx, row))

	rows, err := store.List(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestInMemoryStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"audit-1", "audit-2", "audit-3"} {
		require.NoError(t, store.Append(ctx, Log{
			ID:        id,
			TenantID:  "tenant-a",
			JobID:     "job-1",
			Action:    "xml_validation_started",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rows, err := store.List(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "audit-3", rows[0].ID, "newest first")
	assert.Equal(t, "audit-1", rows[2].ID)
}

func TestInMemoryStoreListByJob(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Append(ctx, Log{ID: "a1", TenantID: "tenant-a", JobID: "job-1", Action: "x", CreatedAt: now}))
	require.NoError(t, store.Append(ctx, Log{ID: "a2", TenantID: "tenant-a", JobID: "job-2", Action: "x", CreatedAt: now}))
	require.NoError(t, store.Append(ctx, Log{ID: "a3", TenantID: "tenant-b", JobID: "job-1", Action: "x", CreatedAt: now}))

	rows, err := store.ListByJob(ctx, "tenant-a", "job-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a1", rows[0].ID)
}
