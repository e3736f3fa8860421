package frontend

import "net/http"

// ConditionalHandler is a http.Handler that serves only some requests, such
// as those addressed to the proxy itself rather than to an origin server.
type ConditionalHandler interface {
	http.Handler

	// CanHandle returns true if request can be served by this handler.
	CanHandle(*http.Request) bool
}
