package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"pickup-games/internal/apperrors"
	"pickup-games/internal/http/middleware"
	"pickup-games/internal/http/requestutil"
	"pickup-games/internal/logging"
)

type errorBody struct {
	Error     string            `json:"error"`
	Code      string            `json:"code,omitempty"`
	RequestID string            `json:"requestId,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil && logger != nil {
		logger.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message, code string, logger *slog.Logger) {
	writeJSON(w, status, errorBody{Error: message, Code: code, RequestID: requestID(r)}, logger)
}

// WriteAppError renders err using its kind for the status and its code for the body.
// Internal causes are logged and never leaked to the caller.
func (h *Handler) WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	logger := loggerFromContext(r, h.logger)
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Kind == apperrors.KindInternal {
		logging.Error(logger, "request failed", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:     "internal error",
			Code:      string(apperrors.CodeInternal),
			RequestID: requestID(r),
		}, logger)
		return
	}
	writeJSON(w, appErr.Kind.HTTPStatus(), errorBody{
		Error:     appErr.Message,
		Code:      string(appErr.Code),
		RequestID: requestID(r),
		Details:   appErr.Metadata,
	}, logger)
}

func requestID(r *http.Request) string {
	if r == nil {
		return ""
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return id
	}
	return r.Header.Get(requestutil.RequestIDHeader)
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}
