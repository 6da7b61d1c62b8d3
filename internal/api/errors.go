package api

import (
	"errors"
	"fmt"
)

// ErrorKind discriminates the failure modes a caller must handle after a call
// through the client wrapper.
type ErrorKind int

const (
	// KindTransport means the request never produced a response.
	KindTransport ErrorKind = iota
	// KindUpstream means the service replied with structured JSON at a non-2xx status.
	KindUpstream
	// KindMalformed means the service replied with a body that is not valid JSON.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindUpstream:
		return "upstream"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is the single error type surfaced by the client wrapper. Status is
// zero for transport failures; Raw holds a truncated body prefix for
// malformed responses.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Raw     string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("api: %s error (status %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("api: %s error: %s", e.Kind, e.Message)
}

// IsStatus reports whether err is an *Error carrying the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// KindOf returns the kind of err when it is an *Error, and ok=false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return 0, false
}
