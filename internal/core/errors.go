package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ProviderErrorKind classifies provider failures for logging and metrics.
type ProviderErrorKind string

const (
	// ProviderErrorTimeout means the call exceeded its hard deadline or the
	// transport timed out waiting for the provider.
	ProviderErrorTimeout ProviderErrorKind = "timeout"
	// ProviderErrorEmptyResult means the gateway returned no result at all.
	ProviderErrorEmptyResult ProviderErrorKind = "empty_result"
	// ProviderErrorSignalled means the gateway reported success=false.
	ProviderErrorSignalled ProviderErrorKind = "signalled_failure"
	// ProviderErrorEmptyResponse means the gateway succeeded with no text.
	ProviderErrorEmptyResponse ProviderErrorKind = "empty_response"
)

// ErrUpstreamTimeout is wrapped by gateways when the transport gave up waiting
// for the provider before the caller's own deadline.
var ErrUpstreamTimeout = errors.New("upstream timeout")

// ProviderError is a retryable failure attributable to one provider call.
type ProviderError struct {
	Provider string
	Model    string
	Kind     ProviderErrorKind
	Message  string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// IsProviderError reports whether err wraps a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// UpstreamErrorClass maps an upstream HTTP status to a short class name used
// in gateway failure messages.
func UpstreamErrorClass(statusCode int) string {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return "rate_limit"
	case statusCode == http.StatusUnauthorized:
		return "auth"
	case statusCode == http.StatusForbidden:
		return "permission"
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusGatewayTimeout:
		return "timeout"
	case statusCode == http.StatusNotFound:
		return "not_found"
	case statusCode >= http.StatusInternalServerError:
		return "provider"
	case statusCode >= http.StatusBadRequest:
		return "validation"
	default:
		return "unknown"
	}
}

// FormatUpstreamError renders the failure message for a non-2xx upstream reply.
func FormatUpstreamError(statusCode int, detail string) string {
	if detail == "" {
		return fmt.Sprintf("API error: %d (%s)", statusCode, UpstreamErrorClass(statusCode))
	}
	return fmt.Sprintf("API error: %d (%s) - %s", statusCode, UpstreamErrorClass(statusCode), detail)
}
