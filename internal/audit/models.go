package audit

import "time"

// Log is one append-only audit event. Rows are never mutated after creation;
// display ordering is CreatedAt descending.
type Log struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenantId"`
	JobID     string         `json:"jobId,omitempty"`
	Action    string         `json:"action"`
	CreatedAt time.Time      `json:"createdAt"`
	Payload   map[string]any `json:"payload"`
}

// RetentionContractual tags workflow-relevant audit payloads with their
// contractual retention period.
const RetentionContractual = "5y-contractual"
