package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/itsm-tools/intercom-bridge/internal/apperr"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeRawError writes the error message as the raw response body. The
// existing integration echoes exception messages unwrapped; the remote
// platform never parses these bodies.
func writeRawError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(err.Error()))
}

// failRequest surfaces a structural error at the HTTP boundary: 401 for
// signature failures, 400 for everything else.
func failRequest(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	var authErr *apperr.AuthenticationError
	if errors.As(err, &authErr) {
		status = http.StatusUnauthorized
	}
	writeRawError(w, status, err)
}
