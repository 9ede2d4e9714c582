package api

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"inbox-live/errors"
	"inbox-live/observability"
	"inbox-live/ratelimit"
	"inbox-live/services"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	log        *slog.Logger
	chat       services.IChatService
	users      services.IAuthService
	monitoring *observability.MonitoringManager
	limiter    *ratelimit.MapLimiter
	metrics    *observability.Metrics
}

func NewHandler(
	log *slog.Logger,
	chat services.IChatService,
	users services.IAuthService,
	monitoring *observability.MonitoringManager,
	limiter *ratelimit.MapLimiter,
	metrics *observability.Metrics,
) *Handler {
	return &Handler{log: log, chat: chat, users: users, monitoring: monitoring, limiter: limiter, metrics: metrics}
}

type errorResponse struct {
	Error string `json:"error"`
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Debug("Failed to write response", "error", err)
	}
}

// Error maps err to its status code. Unexpected errors are logged and hidden from the caller.
func (h *Handler) Error(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "error", err)
		message = http.StatusText(status)
	}
	h.JSON(w, status, errorResponse{Error: message})
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	h.log.DebugContext(r.Context(), "Unauthenticated request", "path", r.URL.Path, "error", err)
	h.JSON(w, http.StatusUnauthorized, errorResponse{Error: errors.ErrUnauthenticated.Error()})
}

func statusFor(err error) int {
	switch {
	case stderrors.Is(err, errors.ErrValidation):
		return http.StatusBadRequest
	case stderrors.Is(err, errors.ErrUnknownRecipient), stderrors.Is(err, errors.ErrUserNotFound):
		return http.StatusNotFound
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		return http.StatusConflict
	case stderrors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests
	case stderrors.Is(err, errors.ErrUnauthenticated), stderrors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.ErrMalformedBody
	}
	return nil
}
