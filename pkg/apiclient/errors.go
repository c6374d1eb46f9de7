package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openkcm/catalog-client/internal/serviceerr"
)

// RequestError is a completed HTTP exchange with a status outside 200-299.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	// Body is the parsed response body, nil if it was empty or not JSON.
	Body json.RawMessage
	// Message is the "message" field of Body, if the API sent one.
	Message string
}

func newRequestError(method, path string, status int, body json.RawMessage) *RequestError {
	return &RequestError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Body:       body,
		Message:    messageFromBody(body),
	}
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}

	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Is lets callers match well known statuses with errors.Is.
func (e *RequestError) Is(target error) bool {
	switch target {
	case serviceerr.ErrNotAuthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case serviceerr.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	default:
		return false
	}
}

// NetworkError means the request could not be completed at all.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	return []error{serviceerr.ErrNetwork, e.Err}
}

// StatusCode returns the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode, true
	}

	return 0, false
}

func messageFromBody(body json.RawMessage) string {
	if body == nil {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	return payload.Message
}
