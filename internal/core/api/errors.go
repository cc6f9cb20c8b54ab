package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Stelujin-Datacraft/topsqill-itsm-12-sub001/internal/types"
)

// Error mapping policy:
//   - malformed JSON and validation failures map to 400
//   - limit violations (condition count, row count) map to 400
//   - unknown forms and missing saved reports map to 404
//   - store/database failures map to 503
// Auth errors are mapped inside the auth middleware.

// errorResponse is the uniform error body of the API.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

// writeStoreError maps a store-layer failure onto the policy above.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrUnknownForm), errors.Is(err, types.ErrReportNotFound):
		writeError(w, http.StatusNotFound, err)
	default:
		writeError(w, http.StatusServiceUnavailable, err)
	}
}
