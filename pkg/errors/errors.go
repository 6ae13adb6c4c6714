// Package errors defines the failure conditions shared by the estimation packages
// and maps them onto HTTP errors at the API boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

var (
	// ErrInvalidEntry is returned when a configuration entry descriptor cannot be parsed
	// or names a field unknown to every schema category.
	ErrInvalidEntry = errors.New("invalid configuration entry")

	// ErrInvalidConfiguration is returned when a matching configuration is structurally unusable.
	ErrInvalidConfiguration = errors.New("invalid matching configuration")

	// ErrInsufficientData is returned when the EM refinement cannot produce defined weights.
	ErrInsufficientData = errors.New("insufficient data for estimation")

	// ErrIO wraps faults raised by the pair stream, counting service or persistence.
	ErrIO = errors.New("i/o failure")

	// ErrNotFound is returned when a configuration does not exist.
	ErrNotFound = errors.New("not found")
)

type wrapped struct {
	kind  error
	cause error
	msg   string
}

func (w *wrapped) Error() string {
	if w.cause == nil {
		return fmt.Sprintf("%s: %s", w.kind, w.msg)
	}
	if w.msg == "" {
		return fmt.Sprintf("%s: %s", w.kind, w.cause)
	}
	return fmt.Sprintf("%s: %s: %s", w.kind, w.msg, w.cause)
}

func (w *wrapped) Unwrap() []error {
	if w.cause == nil {
		return []error{w.kind}
	}
	return []error{w.kind, w.cause}
}

// InvalidEntryf creates an ErrInvalidEntry with a formatted message.
func InvalidEntryf(format string, args ...any) error {
	return &wrapped{kind: ErrInvalidEntry, msg: fmt.Sprintf(format, args...)}
}

// InvalidConfigurationf creates an ErrInvalidConfiguration with a formatted message.
func InvalidConfigurationf(format string, args ...any) error {
	return &wrapped{kind: ErrInvalidConfiguration, msg: fmt.Sprintf(format, args...)}
}

// InsufficientDataf creates an ErrInsufficientData with a formatted message.
func InsufficientDataf(format string, args ...any) error {
	return &wrapped{kind: ErrInsufficientData, msg: fmt.Sprintf(format, args...)}
}

// NotFoundf creates an ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &wrapped{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// WrapIO marks err as an I/O failure. Errors already marked are returned as is.
func WrapIO(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrIO) {
		return err
	}
	return &wrapped{kind: ErrIO, cause: err, msg: msg}
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// ToHTTPError converts a domain error into an HTTP error. Errors that already carry
// an HTTP status are returned unchanged.
func ToHTTPError(err error) error {
	if err == nil {
		return nil
	}
	if httperror.IsHTTPError(err) {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return httperror.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidEntry), errors.Is(err, ErrInvalidConfiguration):
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientData):
		return httperror.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrIO):
		return httperror.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return httperror.WrapError(http.StatusInternalServerError, err)
	}
}
