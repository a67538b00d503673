package translator

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMissingAPIKey is returned by services that require an API key when none is configured.
var ErrMissingAPIKey = errors.New("API key required")

// StatusError is a non-200 response from a translation API.
type StatusError struct {
	Service string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API returned status %d", e.Service, e.Code)
}

// Permanent reports whether err will not go away by repeating the request,
// such as rejected credentials or a malformed request.
func Permanent(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}
