package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorCode represents machine-readable error codes
type ErrorCode string

const (
	// General error codes
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"

	// Validation error codes
	ErrCodeValidation  ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidJSON ErrorCode = "INVALID_JSON"
	ErrCodeInvalidID   ErrorCode = "INVALID_ID"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error     string            `json:"error"`                // HTTP status text
	Message   string            `json:"message"`              // Human-readable description
	Code      ErrorCode         `json:"code"`                 // Machine-readable error code
	Fields    map[string]string `json:"fields,omitempty"`     // Field-level errors
	RequestID string            `json:"request_id,omitempty"` // Request ID for debugging
}

// NewErrorResponse creates a new error response
func NewErrorResponse(statusCode int, code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
	}
}

// WithFields adds field-level errors to the response
func (e *ErrorResponse) WithFields(fields map[string]string) *ErrorResponse {
	e.Fields = fields
	return e
}

// WithRequestID adds a request ID to the response
func (e *ErrorResponse) WithRequestID(requestID string) *ErrorResponse {
	e.RequestID = requestID
	return e
}

// writeErrorResponse writes a structured error response to the http response writer
func writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errResp *ErrorResponse) {
	// Add request ID from chi middleware if available
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		errResp.RequestID = reqID
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errResp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail writes an error envelope without field details.
func fail(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	writeErrorResponse(w, r, status, NewErrorResponse(status, code, message))
}

// ValidationError writes a 400 listing the offending fields.
func ValidationError(w http.ResponseWriter, r *http.Request, message string, fields map[string]string) {
	writeErrorResponse(w, r, http.StatusBadRequest,
		NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, message).WithFields(fields))
}

func BadRequestError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	fail(w, r, http.StatusBadRequest, code, message)
}

func UnauthorizedError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func ForbiddenError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusForbidden, ErrCodeForbidden, message)
}

func NotFoundError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

func RequestTooLargeError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, message)
}

// InternalError writes a 500. message must not carry internal error text.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}

// RateLimitedError has the httprate limit handler signature.
func RateLimitedError(w http.ResponseWriter, r *http.Request) {
	fail(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "Rate limit exceeded")
}
