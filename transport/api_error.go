package transport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// APIError is a non-2xx response from the platform, carrying the
// server-provided message so callers can surface or classify it.
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsAuthFailure reports whether the response was an authorization failure.
func (e *APIError) IsAuthFailure() bool {
	return e.Status == http.StatusUnauthorized
}

// AsAPIError extracts an APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// parseErrorBody decodes a {message} error payload. A body that is not JSON
// falls back to the raw text so nothing is lost.
func parseErrorBody(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = string(body)
	}
	return apiErr
}
