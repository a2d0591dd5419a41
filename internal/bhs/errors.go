package bhs

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError is returned when the service answers with a non-2xx status.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Status     string
	Body       string
	RequestID  string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: %s: %s", e.Method, e.Path, e.Status, e.Body)
}

// NetworkError is returned when the request never produced an HTTP response.
type NetworkError struct {
	Method    string
	Path      string
	RequestID string
	Err       error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 or 403 from the service.
func IsUnauthorized(err error) bool {
	var herr *HTTPError
	if !errors.As(err, &herr) {
		return false
	}
	return herr.StatusCode == http.StatusUnauthorized || herr.StatusCode == http.StatusForbidden
}
