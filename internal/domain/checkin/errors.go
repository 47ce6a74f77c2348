package checkin

import (
	"errors"
	"fmt"
)

// Kind classifies an expected business failure of the check-in flow.
type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindAlreadyCheckedIn Kind = "already_checked_in"
	KindTooEarly         Kind = "too_early"
	KindTooLate          Kind = "too_late"
	KindInvalidDate      Kind = "invalid_date"
	KindStoreUnavailable Kind = "store_unavailable"
)

// Error is a typed business rejection. The message carries enough detail
// (scheduled clock time, lateness minutes) for counter staff to resolve
// the situation without reading logs.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds a typed rejection.
func Errorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an error chain. The second return
// is false for unexpected (non-business) errors.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}
