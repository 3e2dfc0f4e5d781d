package userclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// APIError is returned when the users resource answers with a non-2xx status.
// Payload holds the raw response body, or nil when the body was empty.
type APIError struct {
	StatusCode int
	Payload    json.RawMessage
}

func (e *APIError) Error() string {
	if msg := e.Message(); msg != "" {
		return fmt.Sprintf("users api: status %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("users api: status %d", e.StatusCode)
}

// Message extracts a human-readable message from the payload. It understands
// {"message": ...}, {"error": ...}, {"detail": ...} and bare JSON strings, and
// falls back to the raw text.
func (e *APIError) Message() string {
	if len(e.Payload) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(e.Payload, &s) == nil {
		return s
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(e.Payload, &body) == nil {
		switch {
		case body.Message != "":
			return body.Message
		case body.Detail != "":
			return body.Detail
		case body.Error != "":
			return body.Error
		}
	}
	return strings.TrimSpace(string(e.Payload))
}

// NotFound reports whether the resource answered 404.
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}
