package exception

import (
	"time"

	dErrors "tribultz/pkg/domain-errors"
)

// Status is the workflow state of an exception request.
type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Request is a human-in-the-loop override for a validation finding.
//
// Invariants:
//   - Status transitions: OPEN → APPROVED or OPEN → REJECTED, one-way, terminal
//   - Decision fields (DecidedBy, DecidedAt, DecisionComment) are set
//     atomically with the transition and never before
//   - CreatedAt and the identifying fields are immutable after creation
type Request struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	JobID           string     `json:"job_id"`
	FindingID       string     `json:"finding_id"`
	RuleID          string     `json:"rule_id"`
	Justification   string     `json:"justification"`
	Status          Status     `json:"status"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedBy       string     `json:"decided_by,omitempty"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	DecisionComment string     `json:"decision_comment,omitempty"`
}

// Decision captures an approval or rejection of an open request.
type Decision struct {
	Status          Status `json:"status"`
	DecidedBy       string `json:"decided_by"`
	DecisionComment string `json:"decision_comment,omitempty"`
}

// Validate checks the decision payload before it is applied.
func (d Decision) Validate() error {
	if d.Status != StatusApproved && d.Status != StatusRejected {
		return dErrors.Newf(dErrors.CodeBadRequest, "decision status must be %s or %s", StatusApproved, StatusRejected)
	}
	if d.DecidedBy == "" {
		return dErrors.New(dErrors.CodeBadRequest, "decided_by is required")
	}
	return nil
}

// CanDecide checks whether the request may still transition.
func (r *Request) CanDecide() error {
	if r.Status != StatusOpen {
		return dErrors.Newf(dErrors.CodeConflict, "exception %s already decided", r.ID)
	}
	return nil
}

// ApplyDecision transitions the request. Call CanDecide first.
func (r *Request) ApplyDecision(d Decision, now time.Time) {
	r.Status = d.Status
	r.DecidedBy = d.DecidedBy
	r.DecidedAt = &now
	r.DecisionComment = d.DecisionComment
}
