package backend

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/FACorreiaa/mixdesk-admin/internal/app/models"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
	Method  string
	Path    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Unwrap maps HTTP statuses onto the shared sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return models.ErrUnauthenticated
	case e.Status == http.StatusForbidden:
		return models.ErrForbidden
	case e.Status == http.StatusNotFound:
		return models.ErrNotFound
	case e.Status == http.StatusUnprocessableEntity:
		return models.ErrValidation
	case e.Status >= 400 && e.Status < 500:
		return models.ErrBadRequest
	default:
		return nil
	}
}

// IsUnauthorized reports whether err means the session is no longer valid.
func IsUnauthorized(err error) bool {
	return errors.Is(err, models.ErrUnauthenticated)
}

// StatusFor is the status a console response mirrors for a failed backend call: the
// backend's own 4xx, or 502 for everything else.
func StatusFor(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// MessageOf returns the server-provided message of err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// messageFromBody pulls a human message out of the error envelopes the backend uses:
// {"message": ...}, {"error": ...}, {"errors": {"field": ["..."]}}.
func messageFromBody(body []byte) string {
	if !gjson.ValidBytes(body) {
		return strings.TrimSpace(string(body))
	}
	for _, path := range []string{"message", "error.message", "error", "msg"} {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && r.String() != "" {
			return r.String()
		}
	}
	var first string
	gjson.GetBytes(body, "errors").ForEach(func(_, value gjson.Result) bool {
		if value.IsArray() {
			first = value.Get("0").String()
		} else {
			first = value.String()
		}
		return first == ""
	})
	return first
}
