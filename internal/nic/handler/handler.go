package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"nicgate/internal/nic/domain"
	"nicgate/internal/nic/service"
	dErrors "nicgate/pkg/domain-errors"
	"nicgate/pkg/platform/httputil"
	"nicgate/pkg/requestcontext"
)

// Service defines the interface for NIC operations.
type Service interface {
	Validate(ctx context.Context, claim domain.Claim) (*domain.Result, error)
	Decode(ctx context.Context, raw string) (domain.DerivedIdentity, error)
}

// Handler wires NIC endpoints to the NIC service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a NIC handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts NIC endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/nic/validate", h.HandleValidate)
	r.Post("/nic/decode", h.HandleDecode)
}

// HandleValidate handles POST /nic/validate. Valid and invalid outcomes are
// both 200; only malformed requests, locks and failures are errors.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Validate(ctx, req.Claim())
	if err != nil {
		h.logError(ctx, "nic validation failed", requestID, err)
		var locked *service.LockedError
		if errors.As(err, &locked) {
			w.Header().Set("Retry-After", strconv.Itoa(locked.RetryAfterSeconds()))
		}
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "nic validation handled",
		"request_id", requestID,
		"outcome", result.Outcome,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromResult(result))
}

// HandleDecode handles POST /nic/decode.
func (h *Handler) HandleDecode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DecodeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	derived, err := h.service.Decode(ctx, req.NIC)
	if err != nil {
		h.logError(ctx, "nic decode failed", requestID, err)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDerived(derived))
}

// logError logs client-caused errors at warn and the rest at error.
func (h *Handler) logError(ctx context.Context, msg, requestID string, err error) {
	if dErrors.ToHTTPStatus(dErrors.CodeOf(err)) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, "request_id", requestID, "error", err)
		return
	}
	h.logger.ErrorContext(ctx, msg, "request_id", requestID, "error", err)
}
