package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)

	j := Job{
		ID:        "job_xml_0a1b2c3d",
		TenantID:  "tenant-a",
		JobType:   "xml_validation",
		Status:    StatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
		Input:     map[string]any{"document_type": "NFSE"},
	}
	require.NoError(t, store.Upsert(ctx, j))

	got, err := store.Get(ctx, "tenant-a", "job_xml_0a1b2c3d")
	require.NoError(t, err)
	assert.Equal(t, j, got)

	_, err = store.Get(ctx, "tenant-b", "job_xml_0a1b2c3d")
	assert.True(t, errors.Is(err, ErrNotFound), "tenants are isolated")
}

func TestInMemoryStoreUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)

	j := Job{ID: "job-1", TenantID: "tenant-a", Status: StatusRunning, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, store.Upsert(ctx, j))

	j.Status = StatusSuccess
	j.UpdatedAt = now.Add(time.Second)
	require.NoError(t, store.Upsert(ctx, j))

	got, err := store.Get(ctx, "tenant-a", "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, got.Status)

	list, err := store.List(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestInMemoryStoreListOrdering(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	base := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"job-a", "job-b", "job-c"} {
		require.NoError(t, store.Upsert(ctx, Job{
			ID:        id,
			TenantID:  "tenant-a",
			Status:    StatusSuccess,
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	list, err := store.List(ctx, "tenant-a")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "job-c", list[0].ID, "most recently updated first")
	assert.Equal(t, "job-a", list[2].ID)
}
