package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
)

// ErrClassifierDegraded marks a classifier failure that was masked by the
// fallback classification. It is only ever logged.
var ErrClassifierDegraded = errors.New("skill classifier unavailable")

// HTTPConvertible is implemented by domain errors that know their HTTP shape.
type HTTPConvertible interface {
	ToHTTPError() *httperror.HTTPError
}

// ValidationError carries every message produced while validating a profile.
type ValidationError struct {
	Messages []string
}

func NewValidationError(messages []string) *ValidationError {
	return &ValidationError{Messages: messages}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("profile validation failed: %s", strings.Join(e.Messages, "; "))
}

func (e *ValidationError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, "profile validation failed").AddMetaValue("errors", e.Messages)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UnsupportedActionError is returned when a notification variant does not
// support the requested admin action.
type UnsupportedActionError struct {
	Kind   string
	Action string
}

func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("action %s is not supported for %s", e.Action, e.Kind)
}

func (e *UnsupportedActionError) ToHTTPError() *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, e.Error()).AddMetaValue("kind", e.Kind).AddMetaValue("action", e.Action)
}

func IsUnsupportedAction(err error) bool {
	var ue *UnsupportedActionError
	return errors.As(err, &ue)
}

// NotFound returns a 404 HTTP error
func NotFound(format string, args ...any) error {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

// BadRequest returns a 400 HTTP error
func BadRequest(message string) error {
	return httperror.NewHTTPError(http.StatusBadRequest, message)
}

// Conflict returns a 409 HTTP error
func Conflict(message string) error {
	return httperror.NewHTTPError(http.StatusConflict, message)
}

// StatusCode resolves the HTTP status an error maps to. Unknown errors are 500.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var conv HTTPConvertible
	if errors.As(err, &conv) {
		return httperror.GetStatusCode(conv.ToHTTPError())
	}
	if httperror.IsHTTPError(err) {
		return httperror.GetStatusCode(err)
	}
	return http.StatusInternalServerError
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
