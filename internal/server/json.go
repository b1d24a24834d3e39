package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BlandineRdl/EquimApp-sub001/internal/models"
)

// errorBody is the wire shape of every failure response.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps a domain error onto its wire code and HTTP status.
func writeError(w http.ResponseWriter, err error) {
	code := models.ErrorCode(err)
	msg := err.Error()
	if code == models.CodeInternal {
		// Do not leak internals to the client.
		slog.Error("Internal error", "error", err)
		msg = "internal error"
	}
	writeErrorCode(w, models.ErrorStatus(err), code, msg)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Code: code, Message: message})
}

// decodeJSON parses the request body into v, mapping malformed payloads to
// a validation error.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body", models.ErrValidation)
	}
	return nil
}
