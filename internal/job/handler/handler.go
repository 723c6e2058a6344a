package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tribultz/internal/audit"
	"tribultz/internal/evidence/archive"
	"tribultz/internal/evidence/bundle"
	"tribultz/internal/job"
	dErrors "tribultz/pkg/domain-errors"
	"tribultz/pkg/platform/httputil"
	"tribultz/pkg/requestcontext"
)

// Service defines the interface for job read operations.
type Service interface {
	List(ctx context.Context, tenantID string) ([]job.Job, error)
	Get(ctx context.Context, tenantID, jobID string) (job.Job, error)
}

// AuditReader yields the audit trail scoped to one job.
type AuditReader interface {
	ListByJob(ctx context.Context, tenantID, jobID string) ([]audit.Log, error)
}

// Handler wires job endpoints, including the evidence bundle download.
type Handler struct {
	service Service
	audits  AuditReader
	logger  *slog.Logger
}

func New(service Service, audits AuditReader, logger *slog.Logger) *Handler {
	return &Handler{service: service, audits: audits, logger: logger}
}

// Register mounts job endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/jobs", h.HandleList)
	r.Get("/jobs/{jobID}", h.HandleGet)
	r.Get("/jobs/{jobID}/evidence.zip", h.HandleEvidenceZip)
}

// HandleList handles GET /jobs requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := requireTenant(ctx, w)
	if !ok {
		return
	}

	jobs, err := h.service.List(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "job list failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if jobs == nil {
		jobs = []job.Job{}
	}
	httputil.WriteJSON(w, http.StatusOK, jobs)
}

// HandleGet handles GET /jobs/{jobID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := requireTenant(ctx, w)
	if !ok {
		return
	}

	j, err := h.service.Get(ctx, tenantID, chi.URLParam(r, "jobID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, j)
}

// HandleEvidenceZip handles GET /jobs/{jobID}/evidence.zip requests: it
// bundles the job snapshot, its audit trail, findings, evidences, and the
// source XML when available, and streams them as a zip download.
func (h *Handler) HandleEvidenceZip(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := requireTenant(ctx, w)
	if !ok {
		return
	}
	jobID := chi.URLParam(r, "jobID")

	j, err := h.service.Get(ctx, tenantID, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	audits, err := h.audits.ListByJob(ctx, tenantID, jobID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	generatedAt := requestcontext.Now(ctx)
	b, err := bundle.Build(j, audits, generatedAt)
	if err != nil {
		h.logger.ErrorContext(ctx, "evidence bundle build failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"job_id", jobID,
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "build evidence bundle"))
		return
	}
	data, err := archive.Pack(b)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "pack evidence bundle"))
		return
	}

	filename := archive.Filename(jobID, generatedAt)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)

	h.logger.InfoContext(ctx, "evidence bundle exported",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID,
		"job_id", jobID,
		"artifacts", len(b.Artifacts),
		"bytes", len(data),
	)
}

func requireTenant(ctx context.Context, w http.ResponseWriter) (string, bool) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant context required"))
		return "", false
	}
	return tenantID, true
}
