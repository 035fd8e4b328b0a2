package llm

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable indicates the provider could not produce a completion
// after all retry attempts. Role agents absorb this into their fallbacks.
var ErrModelUnavailable = errors.New("model provider unavailable")

// APIError is a non-transient provider rejection (bad request, auth failure).
// It is never retried.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider returned %d: %s", e.StatusCode, e.Message)
}

// retryable reports whether an error is worth another attempt. Network
// failures and throttling/server errors are transient; validation-shaped
// rejections are not.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return true
}
