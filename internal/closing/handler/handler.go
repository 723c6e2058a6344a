package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"tribultz/internal/closing"
	dErrors "tribultz/pkg/domain-errors"
	"tribultz/pkg/platform/httputil"
	"tribultz/pkg/requestcontext"
)

// Service defines the interface for closing snapshot operations.
type Service interface {
	Snapshot(ctx context.Context, tenantID string, days, listLimit int) (closing.Snapshot, error)
}

// Handler wires the closing endpoint to the closing service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the closing endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/closing/snapshot", h.HandleSnapshot)
}

// HandleSnapshot handles GET /closing/snapshot requests. Optional query
// parameters days and limit tune the window; defaults are 7 and 5.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := requestcontext.TenantID(ctx)
	if tenantID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant context required"))
		return
	}

	days, err := intParam(r, "days")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	snapshot, err := h.service.Snapshot(ctx, tenantID, days, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "closing snapshot failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "%s must be a positive integer", name)
	}
	return n, nil
}
