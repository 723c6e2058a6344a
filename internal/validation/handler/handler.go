package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tribultz/internal/validation"
	"tribultz/internal/validation/service"
	dErrors "tribultz/pkg/domain-errors"
	"tribultz/pkg/platform/httputil"
	"tribultz/pkg/requestcontext"
)

// Service defines the interface for validation operations.
type Service interface {
	ValidateXML(ctx context.Context, tenantID string, req service.Request) (*validation.Result, error)
}

// Handler wires the validate endpoint to the validation service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts validation endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/validate/xml", h.HandleValidateXML)
}

// HandleValidateXML handles POST /validate/xml requests.
func (h *Handler) HandleValidateXML(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	tenantID := requestcontext.TenantID(ctx)
	if tenantID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant context required"))
		return
	}

	req, err := httputil.Decode[service.Request](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.XML == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "xml is required"))
		return
	}

	result, err := h.service.ValidateXML(ctx, tenantID, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "xml validation failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"document_type", req.DocumentType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "xml validation accepted",
		"request_id", requestcontext.RequestID(ctx),
		"tenant_id", tenantID,
		"job_id", result.Job.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
