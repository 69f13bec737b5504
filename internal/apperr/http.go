package apperr

import (
	"errors"
	"log"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func Status(kind Kind) int {
	switch kind {
	case NotFound, RegistrationNotFound:
		return http.StatusNotFound
	case PermissionDenied:
		return http.StatusForbidden
	case Unauthenticated:
		return http.StatusUnauthorized
	case AlreadyRegistered, AlreadyCancelled, InvalidEventStatus, Conflict:
		return http.StatusConflict
	case "":
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// HTTPError converts an operation error into a huma error. Tagged errors keep
// their message and expose the kind; anything else is logged and reported as
// an opaque 500.
func HTTPError(err error) error {
	if err == nil {
		return nil
	}
	kind := KindOf(err)
	if kind == "" {
		log.Printf("Internal error: %v", err)
		return huma.Error500InternalServerError("Internal server error")
	}

	var e *Error
	errors.As(err, &e)
	return huma.NewError(Status(kind), e.Message, &huma.ErrorDetail{Location: "kind", Value: kind})
}
