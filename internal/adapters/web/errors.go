package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"warehouse-inventory/internal/core"
)

type errorResponse struct {
	Error     string         `json:"error"`
	Code      string         `json:"code"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	writeErrorResponse(w, status, errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// writeAppError maps an application error to its HTTP status. Unexpected
// errors are logged and their cause is not echoed to the client.
func (h *Handler) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ce *core.Error
	if !errors.As(err, &ce) {
		ce = core.UnexpectedError(err, "internal error")
	}
	resp := errorResponse{
		Error:     ce.Message,
		Code:      string(ce.Kind),
		RequestID: requestIDFromContext(r.Context()),
		Details:   ce.Details,
	}
	if ce.Kind == core.KindUnexpected {
		h.logger.Error("request failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		resp.Error = "internal server error"
		resp.Details = nil
	}
	writeErrorResponse(w, core.HTTPStatus(ce.Kind), resp)
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeCreated writes a JSON response with status 201.
func writeCreated(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(v)
}
