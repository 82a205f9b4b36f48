package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(http.StatusBadRequest, ErrCodeInvalidID, "ID must be a positive integer")

	if resp.Error != "Bad Request" {
		t.Errorf("Expected Error 'Bad Request', got '%s'", resp.Error)
	}
	if resp.Message != "ID must be a positive integer" {
		t.Errorf("Unexpected message '%s'", resp.Message)
	}
	if resp.Code != ErrCodeInvalidID {
		t.Errorf("Expected Code ErrCodeInvalidID, got '%s'", resp.Code)
	}
}

func TestErrorResponse_WithFieldsAndRequestID(t *testing.T) {
	resp := NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, "Validation failed").
		WithFields(map[string]string{"name": "Name is required"}).
		WithRequestID("req-123")

	if resp.Fields["name"] != "Name is required" {
		t.Errorf("Expected field 'name' error, got '%s'", resp.Fields["name"])
	}
	if resp.RequestID != "req-123" {
		t.Errorf("Expected RequestID 'req-123', got '%s'", resp.RequestID)
	}
}

func TestErrorWriters(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w http.ResponseWriter, r *http.Request)
		wantStatus int
		wantCode   ErrorCode
	}{
		{"validation", func(w http.ResponseWriter, r *http.Request) {
			ValidationError(w, r, "Validation failed", map[string]string{"name": "Name is required"})
		}, http.StatusBadRequest, ErrCodeValidation},
		{"bad request", func(w http.ResponseWriter, r *http.Request) {
			BadRequestError(w, r, ErrCodeInvalidJSON, "Invalid JSON")
		}, http.StatusBadRequest, ErrCodeInvalidJSON},
		{"unauthorized", func(w http.ResponseWriter, r *http.Request) {
			UnauthorizedError(w, r, "missing bearer token")
		}, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"forbidden", func(w http.ResponseWriter, r *http.Request) {
			ForbiddenError(w, r, "insufficient permissions")
		}, http.StatusForbidden, ErrCodeForbidden},
		{"internal", func(w http.ResponseWriter, r *http.Request) {
			InternalError(w, r, "Failed to load rule sets")
		}, http.StatusInternalServerError, ErrCodeInternal},
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			NotFoundError(w, r, "Rule set not found")
		}, http.StatusNotFound, ErrCodeNotFound},
		{"too large", func(w http.ResponseWriter, r *http.Request) {
			RequestTooLargeError(w, r, "Request body too large")
		}, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge},
		{"rate limited", RateLimitedError, http.StatusTooManyRequests, ErrCodeRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/v1/rulesets", nil)
			tt.write(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Expected Code %s, got '%s'", tt.wantCode, resp.Code)
			}
			if resp.Error != http.StatusText(tt.wantStatus) {
				t.Errorf("Expected Error '%s', got '%s'", http.StatusText(tt.wantStatus), resp.Error)
			}
		})
	}
}

func TestErrorResponse_CarriesRequestID(t *testing.T) {
	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError(w, r, "Rule set not found")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/rulesets/9", nil))

	var resp ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.RequestID == "" {
		t.Error("Expected request_id to be set")
	}
}
