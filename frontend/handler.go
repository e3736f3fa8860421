package frontend

import (
	"net/http"
)

// Handler provides the main http.Handler implementation.
//
// Requests addressed to the proxy itself, such as health-checks, are served
// locally. Everything else is passed to Proxy.
type Handler struct {
	Proxy       http.Handler
	HealthCheck ConditionalHandler
}

func (handler *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if handler.HealthCheck != nil && handler.HealthCheck.CanHandle(request) {
		handler.HealthCheck.ServeHTTP(writer, request)
	} else {
		handler.Proxy.ServeHTTP(writer, request)
	}
}
