package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondWithError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		message string
	}{
		{
			name:    "bad request",
			code:    http.StatusBadRequest,
			message: "email is required",
		},
		{
			name:    "unauthorized",
			code:    http.StatusUnauthorized,
			message: "Unauthorized",
		},
		{
			name:    "not found",
			code:    http.StatusNotFound,
			message: "Not found",
		},
		{
			name:    "internal server error",
			code:    http.StatusInternalServerError,
			message: "Failed to fetch datasets",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			RespondWithError(w, tt.code, tt.message)

			if w.Code != tt.code {
				t.Errorf("RespondWithError() status = %d, want %d", w.Code, tt.code)
			}

			contentType := w.Header().Get("Content-Type")
			if contentType != "application/json" {
				t.Errorf("RespondWithError() Content-Type = %s, want application/json", contentType)
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if response.Error != tt.message {
				t.Errorf("RespondWithError() error = %q, want %q", response.Error, tt.message)
			}
		})
	}
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()

	payload := map[string]any{"success": true}
	if err := RespondWithJSON(w, http.StatusCreated, payload); err != nil {
		t.Fatalf("RespondWithJSON() error = %v", err)
	}

	if w.Code != http.StatusCreated {
		t.Errorf("RespondWithJSON() status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Body.String(); got != "{\"success\":true}\n" {
		t.Errorf("RespondWithJSON() body = %q", got)
	}
}

func TestRespondWithRawJSON(t *testing.T) {
	w := httptest.NewRecorder()

	body := []byte(`{"datasets":[{"dataset_id":"sales_ds","table_count":3}]}`)
	if err := RespondWithRawJSON(w, http.StatusOK, body); err != nil {
		t.Fatalf("RespondWithRawJSON() error = %v", err)
	}

	if w.Body.String() != string(body) {
		t.Errorf("RespondWithRawJSON() body = %q, want %q", w.Body.String(), body)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("RespondWithRawJSON() missing content type")
	}
}
