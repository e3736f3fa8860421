package proxy

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/icecave/quarry/metrics"
	"github.com/icecave/quarry/name"
)

// DefaultMaxConnsPerHost is the default limit on concurrent connections to
// each destination.
const DefaultMaxConnsPerHost = 4

// Forwarder is a Service that forwards requests to their destination origin
// server.
type Forwarder struct {
	// Transport performs the upstream call. If it is nil, a transport returned
	// by NewTransport(DefaultMaxConnsPerHost, 0) is used.
	Transport http.RoundTripper

	// Timeout is the time allowed for the destination to produce response
	// headers, including any time spent waiting for a connection. Zero means
	// no limit.
	Timeout time.Duration
}

// NewTransport returns a transport suitable for forwarding proxied requests.
//
// It connects directly to each destination, with at most maxConnsPerHost
// connections per destination. If headerTimeout is non-zero, it is the time
// allowed for the destination to produce response headers.
func NewTransport(maxConnsPerHost int, headerTimeout time.Duration) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxConnsPerHost:       maxConnsPerHost,
		MaxIdleConnsPerHost:   maxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: time.Second,
		DisableCompression:    true,
	}
}

var defaultTransport = NewTransport(DefaultMaxConnsPerHost, 0)

// Serve forwards request to the destination named by its Host and returns the
// destination's response.
//
// The request must target an absolute http:// URI. It is sent to the
// destination in origin form.
func (f *Forwarder) Serve(request *http.Request) (*http.Response, error) {
	if request.Method == http.MethodConnect {
		return nil, malformed("tunnelling with CONNECT is not supported")
	}

	addr, err := Destination(request)
	if err != nil {
		return nil, err
	}

	if !request.URL.IsAbs() {
		return nil, malformed("request target '%s' is not an absolute URI", request.URL.RequestURI())
	}

	if request.URL.Scheme != "http" {
		return nil, malformed("unsupported scheme '%s'", request.URL.Scheme)
	}

	if lc := logContextFrom(request.Context()); lc != nil {
		lc.Upstream = addr
	}

	ctx, cancel := context.WithCancelCause(request.Context())
	release := func() { cancel(nil) }

	upstream := request.Clone(ctx)
	upstream.RequestURI = ""
	upstream.URL.Scheme = "http"
	upstream.URL.Host = addr
	upstream.URL.User = nil
	upstream.Host = request.Host
	upstream.Header = buildUpstreamHeaders(request)
	upstream.Close = false

	transport := f.Transport
	if transport == nil {
		transport = defaultTransport
	}

	var timer *time.Timer
	if f.Timeout > 0 {
		timer = time.AfterFunc(f.Timeout, func() {
			cancel(context.DeadlineExceeded)
		})
	}

	start := time.Now()
	response, err := transport.RoundTrip(upstream)
	metrics.UpstreamDuration.Observe(time.Since(start).Seconds())

	if timer != nil && !timer.Stop() {
		// The deadline passed before the headers arrived, and the call has
		// been canceled.
		if err == nil {
			response.Body.Close()
		}
		err = fmt.Errorf("no response within %s: %w", f.Timeout, context.DeadlineExceeded)
	}

	if err != nil {
		release()
		return nil, fmt.Errorf("%w: %s: %w", ErrUpstreamFailure, addr, err)
	}

	response.Body = &releasingBody{
		ReadCloser: response.Body,
		release:    release,
	}

	return response, nil
}

// Destination returns the host:port of the origin server named by the Host
// of request. The port defaults to 80.
func Destination(request *http.Request) (string, error) {
	if request.Host == "" {
		return "", malformed("request has no Host header")
	}

	host, port, err := name.SplitHostPort(request.Host)
	if err != nil {
		return "", malformed("invalid Host header '%s': %s", request.Host, err)
	}

	n, err := name.TryParse(host)
	if err != nil {
		return "", malformed("invalid Host header '%s': %s", request.Host, err)
	}

	if port == "" {
		port = "80"
	} else if p, err := strconv.Atoi(port); err != nil || p < 1 || p > 65535 {
		return "", malformed("invalid port in Host header '%s'", request.Host)
	}

	return net.JoinHostPort(n.Punycode, port), nil
}
