package exception

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"tribultz/internal/audit"
	dErrors "tribultz/pkg/domain-errors"
	"tribultz/pkg/requestcontext"
)

// Service runs the exception workflow: open a request against a finding,
// decide it once, and audit every step.
type Service struct {
	store  Store
	audits *audit.Publisher
	logger *slog.Logger
}

func NewService(store Store, audits *audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, audits: audits, logger: logger}
}

// OpenInput is the caller-supplied part of a new exception request.
type OpenInput struct {
	JobID         string `json:"job_id"`
	FindingID     string `json:"finding_id"`
	RuleID        string `json:"rule_id"`
	Justification string `json:"justification"`
}

func (in OpenInput) validate() error {
	if in.JobID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "job_id is required")
	}
	if in.FindingID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "finding_id is required")
	}
	if in.Justification == "" {
		return dErrors.New(dErrors.CodeBadRequest, "justification is required")
	}
	return nil
}

// Open creates a new OPEN request and audits it.
func (s *Service) Open(ctx context.Context, tenantID string, in OpenInput) (Request, error) {
	if err := in.validate(); err != nil {
		return Request{}, err
	}

	req := Request{
		ID:            "exc-" + uuid.NewString(),
		TenantID:      tenantID,
		JobID:         in.JobID,
		FindingID:     in.FindingID,
		RuleID:        in.RuleID,
		Justification: in.Justification,
		Status:        StatusOpen,
		CreatedBy:     requestcontext.Actor(ctx),
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, req); err != nil {
		return Request{}, err
	}

	err := s.audits.Emit(ctx, audit.Log{
		ID:       "evt-" + uuid.NewString(),
		TenantID: tenantID,
		JobID:    req.JobID,
		Action:   "exception_opened",
		Payload: map[string]any{
			"exception_id": req.ID,
			"finding_id":   req.FindingID,
			"rule_id":      req.RuleID,
			"retention":    audit.RetentionContractual,
		},
	})
	if err != nil {
		return Request{}, err
	}

	s.logger.InfoContext(ctx, "exception opened",
		"tenant_id", tenantID,
		"exception_id", req.ID,
		"job_id", req.JobID,
		"finding_id", req.FindingID,
	)
	return req, nil
}

// Decide transitions an OPEN request to APPROVED or REJECTED.
func (s *Service) Decide(ctx context.Context, tenantID, id string, d Decision) (Request, error) {
	if err := d.Validate(); err != nil {
		return Request{}, err
	}

	req, err := s.store.Get(ctx, tenantID, id)
	if err != nil {
		return Request{}, err
	}
	if err := req.CanDecide(); err != nil {
		return Request{}, err
	}
	req.ApplyDecision(d, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, req); err != nil {
		return Request{}, err
	}

	action := "exception_approved"
	if req.Status == StatusRejected {
		action = "exception_rejected"
	}
	err = s.audits.Emit(ctx, audit.Log{
		ID:       "evt-" + uuid.NewString(),
		TenantID: tenantID,
		JobID:    req.JobID,
		Action:   action,
		Payload: map[string]any{
			"exception_id":     req.ID,
			"decision_comment": req.DecisionComment,
			"decided_by":       req.DecidedBy,
			"retention":        audit.RetentionContractual,
		},
	})
	if err != nil {
		return Request{}, err
	}

	s.logger.InfoContext(ctx, "exception decided",
		"tenant_id", tenantID,
		"exception_id", req.ID,
		"status", string(req.Status),
	)
	return req, nil
}

func (s *Service) List(ctx context.Context, tenantID string) ([]Request, error) {
	return s.store.List(ctx, tenantID)
}

// Get returns a single request.
func (s *Service) Get(ctx context.Context, tenantID, id string) (Request, error) {
	return s.store.Get(ctx, tenantID, id)
}
