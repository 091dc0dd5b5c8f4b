package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every error returned to the browser.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithError sends an error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Failed to encode response: "+err.Error(), http.StatusInternalServerError)
		return err
	}
	return nil
}

// RespondWithRawJSON writes an already encoded JSON body without re-encoding it,
// so upstream bodies reach the caller byte for byte.
func RespondWithRawJSON(w http.ResponseWriter, code int, body []byte) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, err := w.Write(body)
	return err
}
