package proxy

import (
	"net"
	"net/http"
	"strings"

	"github.com/golang/gddo/httputil/header"
)

// isHopByHopHeader checks if a given header name is a Hop-by-Hop header, and
// hence should not be forwarded. The name must already be canonicalized with
// http.CanonicalHeaderKey().
func isHopByHopHeader(name string) bool {
	switch name {
	case
		"Connection",
		"Proxy-Connection",
		"Keep-Alive",
		"Proxy-Authenticate",
		"Proxy-Authorization",
		"Te",
		"Trailer",
		"Transfer-Encoding",
		"Upgrade":
		return true
	default:
		return false
	}
}

// connectionHeaders returns the canonical names of the headers listed in the
// Connection header. These are hop-by-hop for this message only.
func connectionHeaders(headers http.Header) map[string]struct{} {
	names := map[string]struct{}{}
	for _, value := range header.ParseList(headers, "Connection") {
		names[http.CanonicalHeaderKey(value)] = struct{}{}
	}

	return names
}

// copyEndToEndHeaders copies every end-to-end header from src to dst.
func copyEndToEndHeaders(dst, src http.Header) {
	listed := connectionHeaders(src)

	for name, values := range src {
		if isHopByHopHeader(name) {
			continue
		}

		if _, ok := listed[name]; ok {
			continue
		}

		dst[name] = append([]string(nil), values...)
	}
}

// buildUpstreamHeaders creates the set of headers that are to be forwarded to
// the origin server for the given request. The client's address is appended to
// the X-Forwarded-For header.
func buildUpstreamHeaders(request *http.Request) http.Header {
	headers := http.Header{}
	copyEndToEndHeaders(headers, request.Header)

	clientIP, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return headers
	}

	if chain, ok := headers["X-Forwarded-For"]; ok && len(chain) != 0 {
		headers.Set("X-Forwarded-For", strings.Join(chain, ", ")+", "+clientIP)
	} else {
		headers.Set("X-Forwarded-For", clientIP)
	}

	return headers
}
