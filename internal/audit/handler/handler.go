package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tribultz/internal/audit"
	dErrors "tribultz/pkg/domain-errors"
	"tribultz/pkg/platform/httputil"
	"tribultz/pkg/requestcontext"
)

// Service defines the interface for audit read operations.
type Service interface {
	List(ctx context.Context, tenantID string) ([]audit.Log, error)
	ListByJob(ctx context.Context, tenantID, jobID string) ([]audit.Log, error)
}

// Handler wires the audit trail endpoint.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts audit endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/audit", h.HandleList)
}

// HandleList handles GET /audit requests. The optional job_id query parameter
// narrows the trail to one job.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)
	if tenantID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant context required"))
		return
	}

	var (
		logs []audit.Log
		err  error
	)
	if jobID := r.URL.Query().Get("job_id"); jobID != "" {
		logs, err = h.service.ListByJob(ctx, tenantID, jobID)
	} else {
		logs, err = h.service.List(ctx, tenantID)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "audit list failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if logs == nil {
		logs = []audit.Log{}
	}
	httputil.WriteJSON(w, http.StatusOK, logs)
}
