package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sandevgo/riskmon/pkg/log"
)

type errorResponse struct {
	Status    int    `json:"status"`
	Error     string `json:"error"`
	Detail    any    `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, errText string, detail any) {
	writeJSON(w, r, status, errorResponse{
		Status:    status,
		Error:     errText,
		Detail:    detail,
		RequestID: RequestID(r.Context()),
	})
}

func validationError(w http.ResponseWriter, r *http.Request, detail string) {
	writeError(w, r, http.StatusUnprocessableEntity, "Validation error", detail)
}

// decodeBody reads a single JSON object, bounded by limit bytes.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, dst any) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid json body: %w", err)
	}
	return nil
}
