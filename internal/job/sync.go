package job

import (
	"time"

	"tribultz/internal/validation"
)

// ContractVersion identifies the findings/evidence output contract installed
// on completed validation jobs.
const ContractVersion = "findings-evidence-v1.1"

// Completion records one job that CompleteDue transitioned, so the caller can
// emit the matching audit row. The audit id is derived from the job id, which
// makes re-derived completions idempotent at the audit store.
type Completion struct {
	JobID    string
	TenantID string
}

// AuditID returns the deterministic id of the completion audit row.
func (c Completion) AuditID() string {
	return "audit-" + c.JobID
}

// CompleteDue transitions RUNNING jobs whose ReadyAt has passed to SUCCESS.
//
// For jobs carrying a pending validation result, completion installs the
// versioned output contract, promotes findings, and appends audit/job link
// evidence rows. Jobs without a pending result get a minimal PASS output.
// Pure function of (jobs, now); input slices are not mutated.
func CompleteDue(jobs []Job, now time.Time) ([]Job, []Completion) {
	out := make([]Job, len(jobs))
	copy(out, jobs)

	var completions []Completion
	for i := range out {
		j := out[i]
		if j.Status != StatusRunning || j.ReadyAt == nil || j.ReadyAt.After(now) {
			continue
		}
		out[i] = complete(j, now)
		completions = append(completions, Completion{JobID: j.ID, TenantID: j.TenantID})
	}
	return out, completions
}

func complete(j Job, now time.Time) Job {
	j.Status = StatusSuccess
	j.UpdatedAt = now
	j.ReadyAt = nil

	pending := j.PendingValidation
	j.PendingValidation = nil

	if pending == nil {
		j.Output = map[string]any{"status": "PASS"}
		j.ReportMarkdown = "## Relatório\n\nProcessamento concluído com sucesso."
		return j
	}

	j.Output = map[string]any{
		"status":           "PASS",
		"contract_version": ContractVersion,
		"findings":         pending.Findings,
		"evidences":        pending.Evidences,
	}
	j.ReportMarkdown = "## Resultado\n\nValidação XML concluída com evidências auditáveis."
	j.Findings = pending.Findings

	evidence := make([]validation.Evidence, 0, len(pending.Evidences)+2)
	evidence = append(evidence, pending.Evidences...)
	evidence = append(evidence,
		validation.NewAuditEvidence("audit-"+j.ID, "/audit?job_id="+j.ID, "Audit log"),
		validation.NewJobEvidence(j.ID, "/jobs/"+j.ID, "Job"),
	)
	j.Evidence = evidence
	return j
}
