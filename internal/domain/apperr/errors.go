package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so the HTTP edge can pick a status without
// inspecting message text.
type Kind string

const (
	KindValidation Kind = "validation"
	KindExtraction Kind = "extraction"
	KindAnalysis   Kind = "analysis"
	KindInternal   Kind = "internal"
)

// Error is a failure tagged with its Kind.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Message: message}
}

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Extraction(message string, cause error) error {
	return &Error{Kind: KindExtraction, Message: message, Cause: cause}
}

func Analysis(message string, cause error) error {
	return &Error{Kind: KindAnalysis, Message: message, Cause: cause}
}

func Internal(message string, cause error) error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindInternal when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTPStatus maps a kind to the response status used by the handlers.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindExtraction:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
