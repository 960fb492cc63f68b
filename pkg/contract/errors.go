package contract

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/muses-project/progress/pkg/domain/progress"
)

// ErrUnavailable indicates a remote service could not be reached in time.
var ErrUnavailable = errors.New("service unavailable")

// StatusError is a non-2xx answer from a remote service.
type StatusError struct {
	Service string
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Service, e.Op, e.Code)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Service, e.Op, e.Code, e.Message)
}

// IsNotFound reports whether the remote answered 404.
func (e *StatusError) IsNotFound() bool {
	return e.Code == http.StatusNotFound
}

// StatusCode returns the HTTP status carried by err, or 0 if err is not a
// StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// IsUnavailable reports whether err is a transport failure or timeout.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s is required", progress.ErrBadRequest, name)
}
