// Package apierr maps service errors onto HTTP responses.
package apierr

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/store"
)

// ErrNotFound is wrapped by every "x not found" sentinel.
var ErrNotFound = errors.New("not found")

// ValidationError collects every rejected field of a submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Fields, "; ")
}

// Validator accumulates field errors.
type Validator struct {
	fields []string
}

// Check records msg when ok is false.
func (v *Validator) Check(ok bool, msg string) {
	if !ok {
		v.fields = append(v.fields, msg)
	}
}

// Err returns a *ValidationError when any check failed, nil otherwise.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// HTTP converts err into an *echo.HTTPError with a status matching its kind.
func HTTP(err error) error {
	if err == nil {
		return nil
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var v *ValidationError
	switch {
	case errors.As(err, &v):
		return echo.NewHTTPError(http.StatusBadRequest, v.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrVersionConflict):
		return echo.NewHTTPError(http.StatusConflict, "collection changed since it was read; reload and retry")
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "request timed out")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}
