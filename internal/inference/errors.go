// Package inference provides the HTTP client for the model inference
// service: a buffered completion call and a chunked streaming variant.
//
// All upstream failures surface as one of three typed errors so handlers can
// translate them into stable HTTP statuses without string matching:
//
//   - ErrUpstreamTimeout: the call exceeded its deadline.
//   - ErrUpstreamUnavailable: the service could not be reached at all.
//   - *ProtocolError: the service answered with a non-success status.
package inference

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrUpstreamTimeout is returned when the inference service does not
	// answer within the configured deadline.
	ErrUpstreamTimeout = errors.New("inference service timeout")

	// ErrUpstreamUnavailable is returned when the inference service cannot
	// be reached (connection refused, DNS failure, reset).
	ErrUpstreamUnavailable = errors.New("cannot connect to inference service")
)

// ProtocolError reports that the inference service was reachable but
// answered with a non-success HTTP status.
type ProtocolError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("inference service error: %d", e.StatusCode)
}

// IsTimeout reports whether err represents an upstream deadline failure.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout)
}

// IsUnavailable reports whether err represents an upstream connectivity
// failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

// AsProtocolError unwraps err into a *ProtocolError when the upstream
// answered with a non-success status.
func AsProtocolError(err error) (*ProtocolError, bool) {
	var pe *ProtocolError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// classify maps a transport error onto the package's typed errors. Deadline
// and net timeouts become ErrUpstreamTimeout; everything else is wrapped in
// ErrUpstreamUnavailable so errors.Is keeps working while the original cause
// stays visible in logs.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUpstreamTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrUpstreamTimeout
	}
	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
