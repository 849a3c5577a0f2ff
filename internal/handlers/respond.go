package handlers

import (
	"encoding/json"
	"net/http"

	"catgroom/internal/procerr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, perr *procerr.Error) {
	writeJSON(w, statusFor(perr), map[string]any{"error": perr})
}

// statusFor maps the error taxonomy onto HTTP status codes. Clients branch
// on error_id; the status is a coarse hint.
func statusFor(perr *procerr.Error) int {
	switch perr.ID {
	case "SESSION_NOT_FOUND", "CAT_NOT_FOUND", "CHARACTERISTICS_NOT_FOUND":
		return http.StatusNotFound
	}
	switch perr.Type {
	case procerr.TypeValidation:
		return http.StatusBadRequest
	case procerr.TypeNeuralAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
