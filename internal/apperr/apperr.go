// Package apperr defines the tagged error returned by the event lifecycle and
// registration operations. Every rejection carries a Kind the HTTP layer can
// switch on and a message safe to show to the caller.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	NotFound                Kind = "NOT_FOUND"
	PermissionDenied        Kind = "PERMISSION_DENIED"
	Unauthenticated         Kind = "UNAUTHENTICATED"
	InvalidInput            Kind = "INVALID_INPUT"
	InvalidTimeRange        Kind = "INVALID_TIME_RANGE"
	InvalidCourtCount       Kind = "INVALID_COURT_COUNT"
	InvalidSkillLevel       Kind = "INVALID_SKILL_LEVEL"
	InvalidPage             Kind = "INVALID_PAGE"
	InvalidStatusTransition Kind = "INVALID_STATUS_TRANSITION"
	InvalidEventStatus      Kind = "INVALID_EVENT_STATUS"
	AlreadyRegistered       Kind = "ALREADY_REGISTERED"
	AlreadyCancelled        Kind = "ALREADY_CANCELLED"
	RegistrationNotFound    Kind = "REGISTRATION_NOT_FOUND"
	Conflict                Kind = "CONFLICT"
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or "" when err
// is an infrastructure failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
