package validation

import (
	"time"

	dErrors "tribultz/pkg/domain-errors"
)

// DocumentType selects the rule set and the XPath base used for evidence.
type DocumentType string

const (
	DocumentTypeNFSE DocumentType = "NFSE"
	DocumentTypeNFE  DocumentType = "NFE"
)

// ParseDocumentType validates a wire value. Unsupported types fail fast: no
// rule set exists to apply, so there is nothing to degrade to.
func ParseDocumentType(raw string) (DocumentType, error) {
	switch DocumentType(raw) {
	case DocumentTypeNFSE, DocumentTypeNFE:
		return DocumentType(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeBadRequest, "unsupported document type %q", raw)
	}
}

// Severity classifies a finding.
type Severity string

const (
	SeverityFatal Severity = "FATAL"
	SeverityAlert Severity = "ALERT"
)

// EvidenceType discriminates the Evidence variants.
type EvidenceType string

const (
	EvidenceTypeXML   EvidenceType = "xml"
	EvidenceTypeLink  EvidenceType = "link"
	EvidenceTypePrint EvidenceType = "print"
	EvidenceTypeJob   EvidenceType = "job"
	EvidenceTypeAudit EvidenceType = "audit"
	EvidenceTypeFile  EvidenceType = "file"
)

// Evidence is a citable artifact supporting a finding or job provenance.
//
// It is a tagged variant: which optional fields are populated depends on Type.
// Use the constructors below instead of literal structs so invalid
// combinations stay out of the data.
type Evidence struct {
	ID      string       `json:"id,omitempty"`
	Type    EvidenceType `json:"type"`
	Label   string       `json:"label"`
	Href    string       `json:"href,omitempty"`
	XPath   string       `json:"xpath,omitempty"`
	Snippet string       `json:"snippet,omitempty"`
	JobID   string       `json:"job_id,omitempty"`
	AuditID string       `json:"audit_id,omitempty"`
}

// NewXMLEvidence builds an xml-variant evidence carrying the literal matched
// fragment and its inferred XPath.
func NewXMLEvidence(id, label, xpath, snippet string) Evidence {
	return Evidence{ID: id, Type: EvidenceTypeXML, Label: label, XPath: xpath, Snippet: snippet}
}

// NewPrintEvidence builds a print-variant evidence: static checklist text with
// no XML extraction behind it.
func NewPrintEvidence(id, label, snippet string) Evidence {
	return Evidence{ID: id, Type: EvidenceTypePrint, Label: label, Snippet: snippet}
}

// NewJobEvidence builds a job-link evidence row.
func NewJobEvidence(jobID, href, label string) Evidence {
	return Evidence{Type: EvidenceTypeJob, JobID: jobID, Href: href, Label: label}
}

// NewAuditEvidence builds an audit-link evidence row.
func NewAuditEvidence(auditID, href, label string) Evidence {
	return Evidence{Type: EvidenceTypeAudit, AuditID: auditID, Href: href, Label: label}
}

// Where locates a finding inside the source document. All fields optional.
type Where struct {
	Field   string `json:"field,omitempty"`
	XPath   string `json:"xpath,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Finding is a single validation issue. Immutable once produced.
//
// Invariant: every id in EvidenceIDs exists in the evidence set of the same
// result.
type Finding struct {
	ID             string   `json:"id"`
	Severity       Severity `json:"severity"`
	RuleID         string   `json:"rule_id"`
	Title          string   `json:"title"`
	Where          Where    `json:"where"`
	Recommendation string   `json:"recommendation"`
	EvidenceIDs    []string `json:"evidence_ids"`
}

// JobRef is the lightweight job identity attached to a validation result.
// The id is content-addressed (see pkg/fingerprint), never random.
type JobRef struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	TenantID  string    `json:"tenant_id"`
}

// AuditEvent is one immutable event inside an AuditRef.
type AuditEvent struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload"`
}

// AuditRef is the audit trail reference attached to a validation result.
// Invariant: JobID equals the accompanying JobRef.ID.
type AuditRef struct {
	ID     string       `json:"id"`
	JobID  string       `json:"job_id"`
	Events []AuditEvent `json:"events"`
}

// Result is the versioned validation envelope (findings-evidence contract
// v1.1). Serialized, it is the wire shape the validate endpoint returns.
type Result struct {
	Job       JobRef     `json:"job"`
	Audit     AuditRef   `json:"audit"`
	Findings  []Finding  `json:"findings"`
	Evidences []Evidence `json:"evidences"`
}

// FatalCount returns the number of FATAL findings in the result.
func (r *Result) FatalCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == SeverityFatal {
			n++
		}
	}
	return n
}
