package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tribultz/internal/exception"
	dErrors "tribultz/pkg/domain-errors"
	"tribultz/pkg/platform/httputil"
	"tribultz/pkg/requestcontext"
)

// Service defines the interface for exception workflow operations.
type Service interface {
	Open(ctx context.Context, tenantID string, in exception.OpenInput) (exception.Request, error)
	Decide(ctx context.Context, tenantID, id string, d exception.Decision) (exception.Request, error)
	Get(ctx context.Context, tenantID, id string) (exception.Request, error)
	List(ctx context.Context, tenantID string) ([]exception.Request, error)
}

// Handler wires exception endpoints to the exception service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts exception endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/exceptions", h.HandleList)
	r.Post("/exceptions", h.HandleOpen)
	r.Get("/exceptions/{exceptionID}", h.HandleGet)
	r.Post("/exceptions/{exceptionID}/decision", h.HandleDecide)
}

// HandleList handles GET /exceptions requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := requireTenant(ctx, w)
	if !ok {
		return
	}

	requests, err := h.service.List(ctx, tenantID)
	if err != nil {
		h.logger.ErrorContext(ctx, "exception list failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	if requests == nil {
		requests = []exception.Request{}
	}
	httputil.WriteJSON(w, http.StatusOK, requests)
}

// HandleOpen handles POST /exceptions requests.
func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := requireTenant(ctx, w)
	if !ok {
		return
	}

	in, err := httputil.Decode[exception.OpenInput](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, err := h.service.Open(ctx, tenantID, in)
	if err != nil {
		h.logger.ErrorContext(ctx, "exception open failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"job_id", in.JobID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, req)
}

// HandleGet handles GET /exceptions/{exceptionID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := requireTenant(ctx, w)
	if !ok {
		return
	}

	req, err := h.service.Get(ctx, tenantID, chi.URLParam(r, "exceptionID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

// HandleDecide handles POST /exceptions/{exceptionID}/decision requests.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID, ok := requireTenant(ctx, w)
	if !ok {
		return
	}
	exceptionID := chi.URLParam(r, "exceptionID")

	d, err := httputil.Decode[exception.Decision](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if d.DecidedBy == "" {
		d.DecidedBy = requestcontext.Actor(ctx)
	}

	req, err := h.service.Decide(ctx, tenantID, exceptionID, d)
	if err != nil {
		h.logger.ErrorContext(ctx, "exception decision failed",
			"request_id", requestcontext.RequestID(ctx),
			"tenant_id", tenantID,
			"exception_id", exceptionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, req)
}

func requireTenant(ctx context.Context, w http.ResponseWriter) (string, bool) {
	tenantID := requestcontext.TenantID(ctx)
	if tenantID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "tenant context required"))
		return "", false
	}
	return tenantID, true
}
