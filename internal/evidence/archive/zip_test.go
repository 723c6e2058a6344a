package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribultz/internal/audit"
	"tribultz/internal/evidence/bundle"
	"tribultz/internal/job"
	"tribultz/internal/validation"
)

func makeJob(xml string) job.Job {
	input := map[string]any{"document_type": "NFSE"}
	if xml != "" {
		input["xml"] = xml
	}
	return job.Job{
		ID:        "job:tenant-a/0001",
		TenantID:  "tenant-a",
		JobType:   "xml_validation",
		Status:    job.StatusSuccess,
		CreatedAt: time.Date(2026, 2, 26, 12, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 2, 26, 12, 0, 2, 0, time.UTC),
		Input:     input,
		Output:    map[string]any{"status": "PASS"},
		Evidence: []validation.Evidence{
			{Type: validation.EvidenceTypeJob, JobID: "job:tenant-a/0001", Href: "/jobs/job:tenant-a/0001", Label: "Job"},
		},
	}
}

func makeAudits() []audit.Log {
	return []audit.Log{
		{
			ID:        "audit-job-1",
			TenantID:  "tenant-a",
			JobID:     "job:tenant-a/0001",
			Action:    "validation_succeeded",
			CreatedAt: time.Date(2026, 2, 26, 12, 0, 3, 0, time.UTC),
			Payload:   map[string]any{"status": "SUCCESS"},
		},
	}
}

func unzip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	files := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = content
	}
	return files
}

func TestFilenameSanitizesJobIDAndFormatsTimestamp(t *testing.T) {
	generatedAt := time.Date(2026, 2, 26, 17, 2, 39, 123000000, time.UTC)
	assert.Equal(t, "job_1_20260226T170239Z.zip", Filename("job:1", generatedAt))
	assert.Equal(t, "job_tenant-a_0001_20260226T170239Z.zip", Filename("job:tenant-a/0001", generatedAt))
}

func TestPackRoundTripsAllArtifacts(t *testing.T) {
	generatedAt := time.Date(2026, 2, 26, 16, 0, 0, 0, time.UTC)
	b, err := bundle.Build(makeJob("<root />"), makeAudits(), generatedAt)
	require.NoError(t, err)

	data, err := Pack(b)
	require.NoError(t, err)
	files := unzip(t, data)

	for _, name := range []string{"job.json", "audit.json", "findings.json", "evidences.json", "summary.md", "xml.xml"} {
		require.Contains(t, files, name)
	}

	var decoded struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(files["job.json"], &decoded))
	assert.Equal(t, "job:tenant-a/0001", decoded.ID)
	assert.Contains(t, string(files["summary.md"]), "xml_included: yes")
	assert.Equal(t, "<root />", string(files["xml.xml"]))
}

func TestPackOmitsXMLWhenBundleLacksIt(t *testing.T) {
	generatedAt := time.Date(2026, 2, 26, 16, 0, 0, 0, time.UTC)
	b, err := bundle.Build(makeJob(""), makeAudits(), generatedAt)
	require.NoError(t, err)

	data, err := Pack(b)
	require.NoError(t, err)
	files := unzip(t, data)

	require.Contains(t, files, "job.json")
	require.Contains(t, files, "summary.md")
	assert.NotContains(t, files, "xml.xml")
	assert.Contains(t, string(files["summary.md"]), "xml_included: no")
}
