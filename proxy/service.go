package proxy

import "net/http"

// Service produces the response to a proxied request.
//
// The caller is responsible for closing the response body.
type Service interface {
	Serve(*http.Request) (*http.Response, error)
}

// ServiceFunc adapts a function to the Service interface.
type ServiceFunc func(*http.Request) (*http.Response, error)

// Serve calls f(request).
func (f ServiceFunc) Serve(request *http.Request) (*http.Response, error) {
	return f(request)
}

// Interceptor wraps a service with additional behavior.
type Interceptor func(next Service) Service

// NewPipeline composes interceptors around terminal. The first interceptor is
// outermost, so it sees each request first and each response last.
func NewPipeline(terminal Service, interceptors ...Interceptor) Service {
	service := terminal
	for i := len(interceptors) - 1; i >= 0; i-- {
		service = interceptors[i](service)
	}

	return service
}
