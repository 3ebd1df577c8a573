package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"reminderd/internal/types"
)

// APIErrorResponse is the JSON envelope for every error reply.
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the machine-readable code and human message.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// writeJSON writes v with the given status. Encoding failures are logged and
// otherwise dropped; headers are already on the wire.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("failed to encode response body", "error", err.Error())
	}
}

// writeError maps err to its HTTP status via the AppError taxonomy. Errors
// that are not AppErrors become opaque 500s so internals never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := types.GetRequestID(r.Context())

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		appErr = types.NewAppError(types.ErrCodeInternalUnexpected, "an unexpected error occurred", err)
	}

	writeJSON(w, appErr.HTTPStatus(), APIErrorResponse{
		Error: ErrorDetail{
			Code:      string(appErr.Code),
			Message:   appErr.Message,
			RequestID: requestID,
		},
	})
}
