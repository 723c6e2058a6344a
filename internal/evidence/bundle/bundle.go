// Package bundle assembles the downloadable evidence artifacts for a job:
// the job snapshot, its audit trail, findings, evidences, and a human-readable
// summary, plus the original XML when the payload still carries it.
package bundle

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"tribultz/internal/audit"
	"tribultz/internal/job"
	"tribultz/internal/validation"
)

// Artifact is one file in the evidence bundle.
type Artifact struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Bundle holds the artifacts in their fixed order and the summary markdown.
type Bundle struct {
	Artifacts       []Artifact
	SummaryMarkdown string
}

// Build assembles the bundle for a job. Artifact order is stable: job.json,
// audit.json, findings.json, evidences.json, summary.md, then xml.xml when
// the payload carries the document.
func Build(j job.Job, audits []audit.Log, generatedAt time.Time) (Bundle, error) {
	findings := j.Findings
	if findings == nil {
		findings = []validation.Finding{}
	}
	evidences := j.Evidence
	if evidences == nil {
		evidences = []validation.Evidence{}
	}
	if audits == nil {
		audits = []audit.Log{}
	}
	xmlContent, xmlIncluded := extractXML(j)

	summary := summaryMarkdown(j, generatedAt, len(findings), len(evidences), len(audits), xmlIncluded)

	artifacts := make([]Artifact, 0, 6)
	for _, a := range []struct {
		name string
		v    any
	}{
		{"job.json", j},
		{"audit.json", audits},
		{"findings.json", findings},
		{"evidences.json", evidences},
	} {
		data, err := json.MarshalIndent(a.v, "", "  ")
		if err != nil {
			return Bundle{}, fmt.Errorf("marshal %s: %w", a.name, err)
		}
		artifacts = append(artifacts, Artifact{Filename: a.name, MIMEType: "application/json", Content: data})
	}
	artifacts = append(artifacts, Artifact{Filename: "summary.md", MIMEType: "text/markdown", Content: []byte(summary)})
	if xmlIncluded {
		artifacts = append(artifacts, Artifact{Filename: "xml.xml", MIMEType: "application/xml", Content: []byte(xmlContent)})
	}

	return Bundle{Artifacts: artifacts, SummaryMarkdown: summary}, nil
}

func summaryMarkdown(j job.Job, generatedAt time.Time, findings, evidences, audits int, xmlIncluded bool) string {
	xmlLabel := "no"
	xmlFile := "- xml.xml (not available in payload)"
	if xmlIncluded {
		xmlLabel = "yes"
		xmlFile = "- xml.xml"
	}
	lines := []string{
		"# Job Evidence Bundle",
		"",
		"- generated_at: " + generatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"- job_id: " + j.ID,
		"- tenant_id: " + j.TenantID,
		"- status: " + string(j.Status),
		fmt.Sprintf("- findings_total: %d", findings),
		fmt.Sprintf("- evidences_total: %d", evidences),
		fmt.Sprintf("- audits_total: %d", audits),
		"- xml_included: " + xmlLabel,
		"",
		"## Files",
		"- job.json",
		"- audit.json",
		"- findings.json",
		"- evidences.json",
		"- summary.md",
		xmlFile,
	}
	return strings.Join(lines, "\n") + "\n"
}

// extractXML searches the job payload for the validated document, preferring
// the input over the output: input.xml, input.payload.xml, output.xml,
// output.payload.xml. Blank strings do not count.
func extractXML(j job.Job) (string, bool) {
	candidates := []any{
		j.Input["xml"],
		nested(j.Input, "payload")["xml"],
		j.Output["xml"],
		nested(j.Output, "payload")["xml"],
	}
	for _, c := range candidates {
		if s, ok := c.(string); ok && strings.TrimSpace(s) != "" {
			return s, true
		}
	}
	return "", false
}

func nested(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	inner, _ := m[key].(map[string]any)
	return inner
}
