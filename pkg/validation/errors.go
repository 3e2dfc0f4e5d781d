package validation

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode constants for machine-readable error identification
const (
	ErrCodeRequired    = "required"
	ErrCodeBlank       = "blank"
	ErrCodePattern     = "pattern"
	ErrCodeLength      = "length"
	ErrCodeFormat      = "format"
	ErrCodeEnum        = "enum"
	ErrCodeSchema      = "schema"
	ErrCodeInvalidJSON = "invalid_json"
	ErrCodeUnknown     = "unknown_field"
)

// ErrorLocation constants
const (
	LocationForm = "form"
	LocationBody = "body"
)

// FieldError represents a detailed validation error for a single field.
type FieldError struct {
	// Field is the wire name of the field that failed validation
	Field string `json:"field"`

	// Location indicates where the field came from: form or body
	Location string `json:"location"`

	// Code is a machine-readable error code
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Received is the value that was rejected
	Received interface{} `json:"received,omitempty"`

	// Hint provides a user-friendly suggestion for fixing the error
	Hint string `json:"hint,omitempty"`
}

// Error implements the error interface
func (e *FieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Result contains the outcome of validation.
type Result struct {
	// Valid is true if validation passed
	Valid bool `json:"valid"`

	// Errors contains validation errors (when Valid is false)
	Errors []*FieldError `json:"errors,omitempty"`
}

// AddError adds a validation error to the result
func (r *Result) AddError(err *FieldError) {
	r.Valid = false
	r.Errors = append(r.Errors, err)
}

// HasErrors returns true if there are any validation errors
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Merge combines another result into this one
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	if !other.Valid {
		r.Valid = false
	}
	r.Errors = append(r.Errors, other.Errors...)
}

// FieldErrors returns the first error recorded for each field.
func (r *Result) FieldErrors() map[string]*FieldError {
	out := make(map[string]*FieldError, len(r.Errors))
	for _, e := range r.Errors {
		if _, ok := out[e.Field]; !ok {
			out[e.Field] = e
		}
	}
	return out
}

// Error joins the field messages so a failed Result can be returned as an error.
func (r *Result) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// ErrorResponse is the HTTP response body for validation failures.
// It follows RFC 7807 Problem Details format.
type ErrorResponse struct {
	// Type identifies the error type
	Type string `json:"type"`

	// Title is a short summary
	Title string `json:"title"`

	// Status is the HTTP status code
	Status int `json:"status"`

	// Detail provides additional context
	Detail string `json:"detail,omitempty"`

	// Errors lists all validation errors
	Errors []*FieldError `json:"errors"`
}

// NewErrorResponse creates an ErrorResponse from a Result
func NewErrorResponse(result *Result, status int) *ErrorResponse {
	if status == 0 {
		status = http.StatusBadRequest
	}

	detail := ""
	if len(result.Errors) == 1 {
		detail = result.Errors[0].Message
	} else if len(result.Errors) > 1 {
		detail = fmt.Sprintf("%d validation errors", len(result.Errors))
	}

	return &ErrorResponse{
		Type:   "validation_error",
		Title:  "Request Validation Failed",
		Status: status,
		Detail: detail,
		Errors: result.Errors,
	}
}

// WriteResponse writes the error response as JSON to the http.ResponseWriter
func (e *ErrorResponse) WriteResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}

// Error implements the error interface
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

// NewRequiredError creates an error for a missing required field
func NewRequiredError(field, location string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeRequired,
		Message:  fmt.Sprintf("%s is required", Label(field)),
		Hint:     fmt.Sprintf("Enter a value for %s", Label(field)),
	}
}

// NewBlankError creates an error for a field holding only whitespace
func NewBlankError(field, location string, received string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeBlank,
		Message:  fmt.Sprintf("%s cannot be blank", Label(field)),
		Received: received,
	}
}

// NewPatternError creates an error for a value with disallowed characters
func NewPatternError(field, location, message string, received interface{}) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodePattern,
		Message:  message,
		Received: received,
	}
}

// NewFormatError creates an error for format validation failure
func NewFormatError(field, location, format string, received interface{}) *FieldError {
	hints := map[string]string{
		"email": "Example: user@example.com",
		"uri":   "Example: https://example.com/avatar.png",
	}
	msg := fmt.Sprintf("must be a valid %s", format)
	if format == "email" {
		msg = "enter a valid email address"
	}
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeFormat,
		Message:  msg,
		Received: received,
		Hint:     hints[format],
	}
}

// NewEnumError creates an error for value not in enum
func NewEnumError(field, location string, allowed []string, received interface{}) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeEnum,
		Message:  fmt.Sprintf("%s must be one of %s", strings.ToLower(Label(field)), strings.Join(allowed, ", ")),
		Received: received,
	}
}

// NewSchemaError creates an error for JSON Schema validation failure
func NewSchemaError(field, location, message string) *FieldError {
	return &FieldError{
		Field:    field,
		Location: location,
		Code:     ErrCodeSchema,
		Message:  message,
		Hint:     "Check your request against the user JSON Schema",
	}
}

// NewInvalidJSONError creates an error for malformed JSON
func NewInvalidJSONError(message string) *FieldError {
	return &FieldError{
		Location: LocationBody,
		Code:     ErrCodeInvalidJSON,
		Message:  fmt.Sprintf("invalid JSON: %s", message),
		Hint:     "Ensure your request body is valid JSON",
	}
}
