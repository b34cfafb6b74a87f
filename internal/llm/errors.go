package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrorClass is the coarse category of a provider failure.
type ErrorClass string

// Provider failure classes.
const (
	ClassTimeout   ErrorClass = "timeout"
	ClassAuth      ErrorClass = "auth"
	ClassRateLimit ErrorClass = "rate_limit"
	ClassProvider  ErrorClass = "provider"
	ClassCanceled  ErrorClass = "canceled"
)

// StatusError is a non-200 response from a raw HTTP provider.
type StatusError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// Classify maps a Complete error onto an ErrorClass.
func Classify(err error) ErrorClass {
	if errors.Is(err, context.Canceled) {
		return ClassCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ClassTimeout
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode)
	}

	return ClassProvider
}

func classifyStatus(code int) ErrorClass {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ClassAuth
	case http.StatusTooManyRequests:
		return ClassRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ClassTimeout
	default:
		return ClassProvider
	}
}
