package closing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribultz/internal/audit"
	"tribultz/internal/exception"
	"tribultz/internal/job"
	dErrors "tribultz/pkg/domain-errors"
	"tribultz/pkg/requestcontext"
)

type stubJobs struct {
	jobs []job.Job
	err  error
}

func (s stubJobs) List(context.Context, string) ([]job.Job, error) { return s.jobs, s.err }

type stubAudits struct{ logs []audit.Log }

func (s stubAudits) List(context.Context, string) ([]audit.Log, error) { return s.logs, nil }

type stubExceptions struct{ rows []exception.Request }

func (s stubExceptions) List(context.Context, string) ([]exception.Request, error) {
	return s.rows, nil
}

func TestSnapshotAggregatesAllSources(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		stubJobs{jobs: []job.Job{makeJob("job-1", testNow.Add(-time.Hour), 2)}},
		stubAudits{logs: []audit.Log{makeAudit("audit-1", testNow.Add(-2*time.Hour))}},
		stubExceptions{rows: []exception.Request{makeException("exc-1", testNow.Add(-time.Hour), exception.StatusOpen)}},
		nil, 0, logger,
	)

	ctx := requestcontext.WithTime(context.Background(), testNow)
	snapshot, err := svc.Snapshot(ctx, "tenant-a", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, snapshot.Counts.JobsExecuted)
	assert.Equal(t, 2, snapshot.Counts.FatalFindings)
	assert.Equal(t, 1, snapshot.Counts.RecentAudits)
	assert.Equal(t, 1, snapshot.Counts.OpenExceptions)
	assert.Equal(t, testNow, snapshot.Until)
}

func TestSnapshotPropagatesSourceErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(
		stubJobs{err: dErrors.New(dErrors.CodeInternal, "store unavailable")},
		stubAudits{}, stubExceptions{},
		nil, 0, logger,
	)

	ctx := requestcontext.WithTime(context.Background(), testNow)
	_, err := svc.Snapshot(ctx, "tenant-a", 0, 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
}
