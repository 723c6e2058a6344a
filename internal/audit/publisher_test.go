package audit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitWithoutSinkStoresQuietly(t *testing.T) {
	ctx := context.Background()
	var logged bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logged, nil))
	store := NewInMemoryStore()
	p := NewPublisher(store, logger)

	now := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 300; i++ {
		require.NoError(t, p.Emit(ctx, Log{
			ID:        fmt.Sprintf("audit-%d", i),
			TenantID:  "tenant-a",
			JobID:     "job-1",
			Action:    "xml_validation_started",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := store.List(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, rows, 300)
	assert.Empty(t, logged.String(), "no sink configured, nothing to drop or warn about")
}

func TestEmitForwardsToEnabledSink(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	p := NewPublisher(NewInMemoryStore(), logger)
	feed := p.EnableSink()

	row := Log{
		ID:        "audit-job-1",
		TenantID:  "tenant-a",
		JobID:     "job-1",
		Action:    "validation_succeeded",
		CreatedAt: time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Emit(ctx, row))

	select {
	case got := <-feed:
		assert.Equal(t, "audit-job-1", got.ID)
	default:
		t.Fatal("expected a sink copy on the feed")
	}
}

func TestEmitDropsSinkCopyWhenInboxFull(t *testing.T) {
	ctx := context.Background()
	var logged bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logged, nil))
	store := NewInMemoryStore()
	p := NewPublisher(store, logger)
	p.EnableSink()

	now := time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 257; i++ {
		require.NoError(t, p.Emit(ctx, Log{
			ID:        fmt.Sprintf("audit-%d", i),
			TenantID:  "tenant-a",
			JobID:     "job-1",
			Action:    "xml_validation_started",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	// The store stays complete even when the sink copy is dropped.
	rows, err := store.List(ctx, "tenant-a")
	require.NoError(t, err)
	assert.Len(t, rows, 257)
	assert.Contains(t, logged.String(), "audit inbox full")
}
