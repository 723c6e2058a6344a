package job

import (
	"time"

	"tribultz/internal/validation"
)

// Status is the job lifecycle state.
type Status string

const (
	StatusQueued  Status = "QUEUED"
	StatusRunning Status = "RUNNING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

// Job is a unit of asynchronous validation work as consumed downstream.
//
// The JSON shape is the API contract the evidence bundle serializes; the
// scheduling fields (ReadyAt, PendingValidation) are persistence-only and
// never leave the service.
type Job struct {
	ID             string                `json:"id"`
	TenantID       string                `json:"tenantId"`
	JobType        string                `json:"jobType"`
	Status         Status                `json:"status"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
	Input          map[string]any        `json:"input"`
	Output         map[string]any        `json:"output"`
	ReportMarkdown string                `json:"reportMarkdown,omitempty"`
	Evidence       []validation.Evidence `json:"evidence"`
	Findings       []validation.Finding  `json:"findings,omitempty"`

	ReadyAt           *time.Time         `json:"-"`
	PendingValidation *validation.Result `json:"-"`
}

// FatalFindings counts FATAL findings on the job. A job without a findings
// list contributes zero.
func (j Job) FatalFindings() int {
	n := 0
	for _, f := range j.Findings {
		if f.Severity == validation.SeverityFatal {
			n++
		}
	}
	return n
}
