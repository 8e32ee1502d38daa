// ABOUTME: Provider error type carrying the HTTP status and raw response body
// ABOUTME: Lets callers inspect provider phrasing (e.g. "tools not supported") without parsing

package ai

import (
	"errors"
	"fmt"
)

// APIError is returned for any non-success HTTP status.
type APIError struct {
	Api        Api
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Api, e.StatusCode, e.Body)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
