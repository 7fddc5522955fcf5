package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindNetwork covers transport failures and timeouts.
	KindNetwork Kind = iota
	// KindValidation covers 4xx responses other than 401, and success=false envelopes.
	KindValidation
	// KindAuthExpired is a 401 response.
	KindAuthExpired
	// KindServer covers 5xx responses and malformed envelopes.
	KindServer
)

// String returns the display name for a failure kind.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NetworkError"
	case KindValidation:
		return "ValidationError"
	case KindAuthExpired:
		return "AuthExpired"
	case KindServer:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrNetwork     = errors.New("network error")
	ErrValidation  = errors.New("validation error")
	ErrAuthExpired = errors.New("session expired")
	ErrServer      = errors.New("server error")
)

// Error is the normalized failure returned for every unsuccessful request.
type Error struct {
	Err     error
	Message string
	Details string
	Kind    Kind
	// Status is the HTTP status, or 0 when no response was received.
	Status int
}

// Error implements the error interface. It returns the user-facing message.
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Kind, e.Status)
	}
	return e.Kind.String()
}

// Unwrap returns the underlying transport or decode error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrAuthExpired:
		return e.Kind == KindAuthExpired
	case ErrServer:
		return e.Kind == KindServer
	}
	return false
}

// KindOf extracts the failure kind from err.
func KindOf(err error) (Kind, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind, true
	}
	return 0, false
}

// classify maps an HTTP status to a failure kind.
func classify(status int) Kind {
	switch {
	case status == 401:
		return KindAuthExpired
	case status >= 500:
		return KindServer
	case status >= 400:
		return KindValidation
	default:
		return KindServer
	}
}
