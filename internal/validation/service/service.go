// Package service runs XML validations and records their job and audit
// side effects. The rule engine itself stays pure; everything stateful
// happens here.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"tribultz/internal/audit"
	"tribultz/internal/job"
	"tribultz/internal/validation"
	"tribultz/internal/validation/metrics"
	"tribultz/pkg/requestcontext"
)

// executionDelay is how long a validation job stays RUNNING before lifecycle
// sync completes it.
const executionDelay = 1500 * time.Millisecond

const processingReport = "## Resultado\n\nValidação em processamento."

// Request is the caller-supplied validation input.
type Request struct {
	DocumentType string `json:"document_type"`
	XML          string `json:"xml"`
	Source       string `json:"source,omitempty"`
}

// Service validates documents and persists the resulting job snapshot.
type Service struct {
	jobs    job.Store
	audits  *audit.Publisher
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(jobs job.Store, audits *audit.Publisher, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{jobs: jobs, audits: audits, logger: logger, metrics: m}
}

// ValidateXML runs the rule engine and persists a RUNNING job carrying the
// pending result. The job id is derived from the document fingerprint, so
// re-validating the same document updates the existing job in place while
// keeping its original CreatedAt.
func (s *Service) ValidateXML(ctx context.Context, tenantID string, req Request) (*validation.Result, error) {
	now := requestcontext.Now(ctx)
	start := time.Now()

	result, err := validation.Run(validation.Input{
		TenantID:     tenantID,
		DocumentType: validation.DocumentType(req.DocumentType),
		XML:          req.XML,
	}, now)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveValidateLatency(time.Since(start))

	source := req.Source
	if source == "" {
		source = "paste"
	}

	createdAt := result.Job.CreatedAt
	if current, err := s.jobs.Get(ctx, tenantID, result.Job.ID); err == nil {
		createdAt = current.CreatedAt
	} else if !errors.Is(err, job.ErrNotFound) {
		return nil, err
	}

	readyAt := now.Add(executionDelay)
	snapshot := job.Job{
		ID:        result.Job.ID,
		TenantID:  tenantID,
		JobType:   "xml_validation",
		Status:    job.StatusRunning,
		CreatedAt: createdAt,
		UpdatedAt: now,
		Input: map[string]any{
			"document_type": req.DocumentType,
			"source":        source,
		},
		ReportMarkdown:    processingReport,
		Evidence:          result.Evidences,
		Findings:          result.Findings,
		ReadyAt:           &readyAt,
		PendingValidation: result,
	}
	if err := s.jobs.Upsert(ctx, snapshot); err != nil {
		return nil, err
	}

	err = s.audits.Emit(ctx, audit.Log{
		ID:       result.Audit.ID + "-started",
		TenantID: tenantID,
		JobID:    result.Job.ID,
		Action:   "xml_validation_started",
		Payload: map[string]any{
			"document_type":  req.DocumentType,
			"findings_total": len(result.Findings),
		},
	})
	if err != nil {
		return nil, err
	}

	fatals := result.FatalCount()
	outcome := "pass"
	if fatals > 0 {
		outcome = "fatal"
	}
	s.metrics.IncrementValidation(req.DocumentType, outcome)
	s.metrics.AddFindings(string(validation.SeverityFatal), fatals)
	s.metrics.AddFindings(string(validation.SeverityAlert), len(result.Findings)-fatals)

	s.logger.InfoContext(ctx, "xml validation started",
		"tenant_id", tenantID,
		"job_id", result.Job.ID,
		"document_type", req.DocumentType,
		"findings_total", len(result.Findings),
		"fatals", fatals,
	)
	return result, nil
}
