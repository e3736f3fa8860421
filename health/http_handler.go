package health

import (
	"io"
	"net/http"

	"github.com/icecave/quarry/name"
	"go.uber.org/zap"
)

const (
	requestHost = "localhost"
	requestPath = "/.quarry/health-check"
)

// HTTPHandler is a http.Handler/frontend.ConditionalHandler that returns health
// check information.
type HTTPHandler struct {
	Checker Checker
	Logger  *zap.Logger
}

// CanHandle returns true if request is a health-check request addressed to
// the proxy itself.
func (handler *HTTPHandler) CanHandle(request *http.Request) bool {
	serverName, err := name.FromHTTP(request)
	if err != nil {
		return false
	}

	return serverName.Unicode == requestHost && request.URL.Path == requestPath
}

func (handler *HTTPHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.Header().Set("Cache-Control", "no-store")

	status := Status{
		true,
		"The server is accepting requests, but no health-checker is configured.",
	}

	if handler.Checker != nil {
		status = handler.Checker.Check()
	}

	if status.IsHealthy {
		writer.WriteHeader(http.StatusOK)
	} else {
		if handler.Logger != nil {
			handler.Logger.Warn(status.String())
		}

		writer.WriteHeader(http.StatusServiceUnavailable)
	}

	io.WriteString(writer, status.Message)
}
