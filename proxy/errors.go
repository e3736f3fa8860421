package proxy

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/icecave/quarry/statuspage"
)

var (
	// ErrMalformedRequest indicates that a request can not be forwarded
	// because it lacks an absolute http URI or a usable Host.
	ErrMalformedRequest = errors.New("malformed request")

	// ErrUpstreamFailure indicates that the destination server could not be
	// reached or did not produce a response.
	ErrUpstreamFailure = errors.New("upstream failure")
)

func malformed(format string, v ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedRequest, fmt.Sprintf(format, v...))
}

// classify converts err into a statuspage.Error carrying the status code to
// send to the client.
func classify(err error) statuspage.Error {
	var e statuspage.Error
	if errors.As(err, &e) {
		return statuspage.Error{Inner: err, StatusCode: e.StatusCode, Message: e.Message}
	}

	switch {
	case errors.Is(err, ErrMalformedRequest):
		return statuspage.Error{
			Inner:      err,
			StatusCode: http.StatusForbidden,
			Message:    "The proxy only forwards plain HTTP requests for absolute http:// URIs.",
		}
	case errors.Is(err, ErrUpstreamFailure):
		if isTimeout(err) {
			return statuspage.Error{Inner: err, StatusCode: http.StatusGatewayTimeout}
		}
		return statuspage.Error{Inner: err, StatusCode: http.StatusBadGateway}
	default:
		return statuspage.Error{Inner: err, StatusCode: http.StatusInternalServerError}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
