package appointment

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sony/gobreaker/v2"
)

// Kind classifies every error the workflow engine returns.
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindDuplicate    Kind = "DuplicateRequest"
	KindNotFound     Kind = "NotFound"
	KindInvalidState Kind = "InvalidState"
	KindUnavailable  Kind = "Unavailable"
)

// Error is the only error type that crosses the engine boundary. Err holds
// the underlying cause for logging; Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation       = &Error{Kind: KindValidation}
	ErrDuplicateRequest = &Error{Kind: KindDuplicate}
	ErrNotFound         = &Error{Kind: KindNotFound}
	ErrInvalidState     = &Error{Kind: KindInvalidState}
	ErrUnavailable      = &Error{Kind: KindUnavailable}
)

const (
	msgDuplicate   = "You already have a pending request with this doctor"
	msgNotFound    = "Request not found"
	msgUnavailable = "Appointment store is unavailable, please retry"
)

var errRequestNotFound = &Error{Kind: KindNotFound, Message: msgNotFound}

func validationError(problems ...string) error {
	return &Error{Kind: KindValidation, Message: strings.Join(problems, "; ")}
}

func invalidState(msg string) error {
	return &Error{Kind: KindInvalidState, Message: msg}
}

// KindOf returns the kind of err. Errors that are not *Error are reported as
// Unavailable since they can only come from infrastructure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}

// MessageOf returns the caller-facing message for err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return msgUnavailable
}

// HTTPStatus maps an error kind onto the REST status code.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation, KindDuplicate:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidState:
		return http.StatusConflict
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// mapStoreError converts repository and infrastructure failures into *Error.
// Errors that already are *Error pass through unchanged.
func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	switch {
	case errors.Is(err, ErrRecordNotFound):
		return errRequestNotFound
	case errors.Is(err, ErrPendingExists):
		return &Error{Kind: KindDuplicate, Message: msgDuplicate, Err: err}
	case errors.Is(err, ErrResponseExists), errors.Is(err, ErrStaleStatus):
		return &Error{Kind: KindInvalidState, Message: "Request has already been handled", Err: err}
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return &Error{Kind: KindUnavailable, Message: "Appointment store timed out, please retry", Err: err}
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &Error{Kind: KindUnavailable, Message: msgUnavailable, Err: err}
	default:
		return &Error{Kind: KindUnavailable, Message: msgUnavailable, Err: err}
	}
}

// isInfrastructureFailure reports whether err should count against the
// circuit breaker. Domain outcomes such as duplicates never trip it, and
// neither does a caller abandoning its own request.
func isInfrastructureFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return KindOf(mapStoreError(err)) == KindUnavailable
}
