package remote

import (
	"errors"
	"fmt"
)

// Kind classifies where a remote call failed
type Kind int

const (
	// KindTransport means the request never completed
	KindTransport Kind = iota + 1
	// KindStatus means the server answered with a non-2xx status
	KindStatus
	// KindDecode means a 2xx body could not be parsed
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client method
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the server
func IsNotFound(err error) bool {
	return StatusCode(err) == 404
}

// UserMessage renders the message shown when a user action fails
func UserMessage(verb, entity string) string {
	return fmt.Sprintf("Failed to %s %s. Please try again.", verb, entity)
}
