package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"tempo/internal/core"
	"tempo/internal/log"
	"tempo/internal/middleware/trace"
)

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the core error taxonomy to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers with the mapped status. Internal failures are logged and
// their details withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := statusFor(err)
	body := errorBody{Error: err.Error(), RequestID: trace.GetRequestID(ctx)}
	if status == http.StatusInternalServerError {
		log.FromContext(ctx).ErrorContext(ctx, "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}
