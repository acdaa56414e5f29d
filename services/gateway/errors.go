package gateway

import (
	"errors"
	"fmt"
)

// ErrServer marks a response the client could not interpret: an empty or
// non-JSON body, or an error status with no usable message. Callers surface
// a generic server-error message for it.
var ErrServer = errors.New("server returned an unreadable response")

// RejectionError is a well-formed error response from the remote service.
// Its message is meant for the user and is surfaced verbatim.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("remote service rejected request (status %d): %s", e.StatusCode, e.Message)
}

// UserMessage extracts the message to show the user for a remote failure:
// the rejection body when present, otherwise the supplied fallback.
func UserMessage(err error, fallback string) string {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej.Message
	}
	return fallback
}
