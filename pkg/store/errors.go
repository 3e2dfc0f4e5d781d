package store

import (
	"encoding/json"
	"errors"

	"github.com/userdesk/userdesk/pkg/userclient"
)

// ErrMissingID is the cause of an update rejected because no identifier was given.
var ErrMissingID = errors.New("missing user identifier")

// Source tells where an ErrorValue's content came from.
type Source string

const (
	// SourceServer means the resource answered with an error payload.
	SourceServer Source = "server"
	// SourceFallback means no payload was available and a canned message is used.
	SourceFallback Source = "fallback"
)

// Fallback messages per operation.
var fallbackMessages = map[Op]string{
	OpFetch:  "Failed to fetch users",
	OpCreate: "Failed to add user",
	OpUpdate: "Failed to update user",
	OpDelete: "Failed to delete user",
}

// FallbackMessage returns the canned failure message for op.
func FallbackMessage(op Op) string {
	return fallbackMessages[op]
}

// ErrorValue is the normalized failure recorded by a rejected transition.
type ErrorValue struct {
	Op     Op     `json:"op"`
	Source Source `json:"source"`

	// Payload is the raw server error body. Set only when Source is SourceServer.
	Payload json.RawMessage `json:"payload,omitempty"`

	// StatusCode is the HTTP status of a server-provided error.
	StatusCode int `json:"statusCode,omitempty"`

	// Message is the human-readable text: the server's message when it has one,
	// otherwise the operation's fallback message.
	Message string `json:"message"`

	cause error
}

func (e *ErrorValue) Error() string {
	return e.Message
}

// Unwrap returns the transport or precondition error behind e.
func (e *ErrorValue) Unwrap() error {
	return e.cause
}

// ServerProvided reports whether e carries a server payload.
func (e *ErrorValue) ServerProvided() bool {
	return e.Source == SourceServer
}

// normalize converts a client error into an ErrorValue for op.
func normalize(op Op, err error) *ErrorValue {
	var apiErr *userclient.APIError
	if errors.As(err, &apiErr) && len(apiErr.Payload) > 0 {
		msg := apiErr.Message()
		if msg == "" {
			msg = FallbackMessage(op)
		}
		return &ErrorValue{
			Op:         op,
			Source:     SourceServer,
			Payload:    apiErr.Payload,
			StatusCode: apiErr.StatusCode,
			Message:    msg,
			cause:      err,
		}
	}
	return &ErrorValue{
		Op:      op,
		Source:  SourceFallback,
		Message: FallbackMessage(op),
		cause:   err,
	}
}

func missingID() *ErrorValue {
	return &ErrorValue{
		Op:      OpUpdate,
		Source:  SourceFallback,
		Message: ErrMissingID.Error(),
		cause:   ErrMissingID,
	}
}
