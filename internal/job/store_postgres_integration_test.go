//go:build integration

package job_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribultz/internal/audit"
	"tribultz/internal/exception"
	"tribultz/internal/job"
	"tribultz/internal/validation"
	"tribultz/pkg/testutil/containers"
)

func TestPostgresStoresRoundTrip(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 26, 16, 0, 0, 0, time.UTC)

	t.Run("job upsert and lifecycle fields survive", func(t *testing.T) {
		require.NoError(t, pc.Truncate(ctx))
		store := job.NewPostgres(pc.DB)

		readyAt := now.Add(1500 * time.Millisecond)
		pending := &validation.Result{
			Job:   validation.JobRef{ID: "job_xml_0a1b2c3d", CreatedAt: now, TenantID: "tenant-a"},
			Audit: validation.AuditRef{ID: "audit_xml_0a1b2c3d", JobID: "job_xml_0a1b2c3d"},
			Findings: []validation.Finding{
				{ID: "F_CST_LEN", Severity: validation.SeverityFatal, RuleID: "CST_3_DIGITS"},
			},
			Evidences: []validation.Evidence{
				validation.NewXMLEvidence("E_XML_CST_LEN", "Trecho XML — CST", "/NFS-e/infNfse//CST", "<CST>10</CST>"),
			},
		}
		j := job.Job{
			ID:                "job_xml_0a1b2c3d",
			TenantID:          "tenant-a",
			JobType:           "xml_validation",
			Status:            job.StatusRunning,
			CreatedAt:         now,
			UpdatedAt:         now,
			Input:             map[string]any{"document_type": "NFSE", "source": "paste"},
			ReportMarkdown:    "## Resultado\n\nValidação em processamento.",
			Evidence:          pending.Evidences,
			Findings:          pending.Findings,
			ReadyAt:           &readyAt,
			PendingValidation: pending,
		}
		require.NoError(t, store.Upsert(ctx, j))

		got, err := store.Get(ctx, "tenant-a", j.ID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusRunning, got.Status)
		assert.Equal(t, j.Input, got.Input)
		assert.Equal(t, j.Findings, got.Findings)
		require.NotNil(t, got.ReadyAt)
		assert.True(t, got.ReadyAt.Equal(readyAt))
		require.NotNil(t, got.PendingValidation)
		assert.Equal(t, pending.Job.ID, got.PendingValidation.Job.ID)

		_, err = store.Get(ctx, "tenant-b", j.ID)
		assert.True(t, errors.Is(err, job.ErrNotFound))

		// Completion clears the scheduling fields.
		synced, completions := job.CompleteDue([]job.Job{got}, now.Add(2*time.Second))
		require.Len(t, completions, 1)
		require.NoError(t, store.Upsert(ctx, synced[0]))

		done, err := store.Get(ctx, "tenant-a", j.ID)
		require.NoError(t, err)
		assert.Equal(t, job.StatusSuccess, done.Status)
		assert.Nil(t, done.ReadyAt)
		assert.Nil(t, done.PendingValidation)
		assert.Equal(t, job.ContractVersion, done.Output["contract_version"])
	})

	t.Run("audit append is idempotent on id", func(t *testing.T) {
		require.NoError(t, pc.Truncate(ctx))
		store := audit.NewPostgres(pc.DB)

		row := audit.Log{
			ID:        "audit-job-1",
			TenantID:  "tenant-a",
			JobID:     "job-1",
			Action:    "validation_succeeded",
			CreatedAt: now,
			Payload:   map[string]any{"status": "SUCCESS"},
		}
		require.NoError(t, store.Append(ctx, row))
		require.NoError(t, store.Append(ctx, row))

		logs, err := store.ListByJob(ctx, "tenant-a", "job-1")
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, "validation_succeeded", logs[0].Action)
		assert.Equal(t, "SUCCESS", logs[0].Payload["status"])
	})

	t.Run("exception decision transition persists", func(t *testing.T) {
		require.NoError(t, pc.Truncate(ctx))
		store := exception.NewPostgres(pc.DB)

		req := exception.Request{
			ID:            "exc-1",
			TenantID:      "tenant-a",
			JobID:         "job-1",
			FindingID:     "F_CST_LEN",
			RuleID:        "CST_3_DIGITS",
			Justification: "Regime especial",
			Status:        exception.StatusOpen,
			CreatedBy:     "ana@tribultz.dev",
			CreatedAt:     now,
		}
		require.NoError(t, store.Create(ctx, req))

		got, err := store.Get(ctx, "tenant-a", "exc-1")
		require.NoError(t, err)
		require.NoError(t, got.CanDecide())

		got.ApplyDecision(exception.Decision{
			Status:          exception.StatusApproved,
			DecidedBy:       "bruno@tribultz.dev",
			DecisionComment: "Parecer favorável",
		}, now.Add(time.Hour))
		require.NoError(t, store.Update(ctx, got))

		decided, err := store.Get(ctx, "tenant-a", "exc-1")
		require.NoError(t, err)
		assert.Equal(t, exception.StatusApproved, decided.Status)
		assert.Equal(t, "bruno@tribultz.dev", decided.DecidedBy)
		require.NotNil(t, decided.DecidedAt)
		assert.True(t, decided.DecidedAt.Equal(now.Add(time.Hour)))
	})
}
