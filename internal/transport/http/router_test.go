package httptransport

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribultz/internal/audit"
	auditHandler "tribultz/internal/audit/handler"
	"tribultz/internal/closing"
	closingHandler "tribultz/internal/closing/handler"
	"tribultz/internal/exception"
	exceptionHandler "tribultz/internal/exception/handler"
	"tribultz/internal/job"
	jobHandler "tribultz/internal/job/handler"
	"tribultz/internal/platform/middleware"
	validationHandler "tribultz/internal/validation/handler"
	validationService "tribultz/internal/validation/service"
)

const (
	testSigningKey = "router-test-signing-key"
	testXML        = `<NFS-e><infNfse><CST>10</CST><cClassTrib>110101</cClassTrib><CodigoServico>010701</CodigoServico></infNfse></NFS-e>`
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	jobs := job.NewInMemoryStore()
	audits := audit.NewInMemoryStore()
	exceptions := exception.NewInMemoryStore()
	publisher := audit.NewPublisher(audits, logger)

	jobSvc := job.NewService(jobs, publisher, logger)
	validateSvc := validationService.New(jobs, publisher, logger, nil)
	exceptionSvc := exception.NewService(exceptions, publisher, logger)
	closingSvc := closing.NewService(jobSvc, publisher, exceptionSvc, nil, 0, logger)

	return NewRouter(Deps{
		Logger:    logger,
		Metrics:   nil,
		Validator: middleware.NewValidator(testSigningKey),
		Handlers: []Registrar{
			validationHandler.New(validateSvc, logger),
			jobHandler.New(jobSvc, publisher, logger),
			auditHandler.New(publisher, logger),
			exceptionHandler.New(exceptionSvc, logger),
			closingHandler.New(closingSvc, logger),
		},
	})
}

func bearerToken(t *testing.T, tenantID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "ana@tribultz.dev",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterRejectsUnauthenticatedAPIAccess(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/jobs", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterHealthzIsPublic(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestValidateThenInspectJobAndAuditTrail(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "tenant-a")

	rec := doJSON(t, router, http.MethodPost, "/validate/xml", token, map[string]any{
		"document_type": "NFSE",
		"xml":           testXML,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
		Findings []struct {
			ID       string `json:"id"`
			Severity string `json:"severity"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.NotEmpty(t, result.Job.ID)
	assert.True(t, strings.HasPrefix(result.Job.ID, "job_xml_"))
	assert.Equal(t, "F_CST_LEN", result.Findings[0].ID)
	assert.Equal(t, "FATAL", result.Findings[0].Severity)

	rec = doJSON(t, router, http.MethodGet, "/jobs/"+result.Job.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var j struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &j))
	assert.Contains(t, []string{"RUNNING", "SUCCESS"}, j.Status)

	rec = doJSON(t, router, http.MethodGet, "/audit?job_id="+result.Job.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []struct {
		Action string `json:"action"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.NotEmpty(t, logs)

	actions := make([]string, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Contains(t, actions, "xml_validation_started")
}

func TestEvidenceZipDownload(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "tenant-a")

	rec := doJSON(t, router, http.MethodPost, "/validate/xml", token, map[string]any{
		"document_type": "NFSE",
		"xml":           testXML,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	rec = doJSON(t, router, http.MethodGet, "/jobs/"+result.Job.ID+"/evidence.zip", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".zip")

	zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "job.json")
	assert.Contains(t, names, "summary.md")
}

func TestExceptionWorkflowOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "tenant-a")

	rec := doJSON(t, router, http.MethodPost, "/exceptions", token, map[string]any{
		"job_id":        "job_xml_0a1b2c3d",
		"finding_id":    "F_CST_LEN",
		"rule_id":       "CST_3_DIGITS",
		"justification": "Regime especial aprovado pelo fisco",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "OPEN", created.Status)

	rec = doJSON(t, router, http.MethodPost, "/exceptions/"+created.ID+"/decision", token, map[string]any{
		"status":           "APPROVED",
		"decided_by":       "bruno@tribultz.dev",
		"decision_comment": "Parecer favorável",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var decided struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decided))
	assert.Equal(t, "APPROVED", decided.Status)

	// Second decision conflicts.
	rec = doJSON(t, router, http.MethodPost, "/exceptions/"+created.ID+"/decision", token, map[string]any{
		"status":     "REJECTED",
		"decided_by": "bruno@tribultz.dev",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestClosingSnapshotOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := bearerToken(t, "tenant-a")

	rec := doJSON(t, router, http.MethodPost, "/validate/xml", token, map[string]any{
		"document_type": "NFSE",
		"xml":           testXML,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/closing/snapshot", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var snapshot struct {
		Counts struct {
			JobsExecuted  int `json:"jobsExecuted"`
			FatalFindings int `json:"fatalFindings"`
		} `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, 1, snapshot.Counts.JobsExecuted)
	assert.Equal(t, 1, snapshot.Counts.FatalFindings)
}
