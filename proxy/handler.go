package proxy

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/icecave/quarry/metrics"
	"github.com/icecave/quarry/statuspage"
	"go.uber.org/zap"
)

// Handler is an http.Handler that serves requests using a Service.
//
// It is the outermost stage of the proxy. Any error returned by the service,
// and any panic, results in a status page with an appropriate status code.
type Handler struct {
	Service          Service
	StatusPageWriter *statuspage.TemplateWriter
	Logger           *zap.Logger
}

// NewHandler returns the proxy's request handler, which records the search
// queries in each request before forwarding it.
func NewHandler(recorder *Recorder, forwarder *Forwarder, logger *zap.Logger) *Handler {
	return &Handler{
		Service: NewPipeline(
			forwarder,
			recorder.Intercept,
		),
		Logger: logger,
	}
}

func (handler *Handler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	lc := &LogContext{
		Logger:    handler.Logger,
		RequestID: uuid.NewString(),
		Request:   request,
	}
	lc.Metrics.Start()

	request = request.WithContext(withLogContext(request.Context(), lc))
	if request.Body != nil && request.Body != http.NoBody {
		request.Body = &countingReader{request.Body, &lc.Metrics.BytesIn}
	}

	var err error

	defer func() {
		if p := recover(); p != nil {
			if p == http.ErrAbortHandler {
				panic(p)
			}

			err = fmt.Errorf("panic while serving request: %v", p)
			if lc.StatusCode == 0 {
				handler.writeError(writer, request, lc, err)
			}
		}

		metrics.Requests.WithLabelValues(request.Method, strconv.Itoa(lc.StatusCode)).Inc()
		lc.Log(err)
	}()

	err = handler.forward(writer, request, lc)
}

func (handler *Handler) forward(
	writer http.ResponseWriter,
	request *http.Request,
	lc *LogContext,
) error {
	response, err := handler.Service.Serve(request)
	if err != nil {
		handler.writeError(writer, request, lc, err)
		return err
	}

	lc.StatusCode = response.StatusCode
	lc.Metrics.FirstByteSent()

	n, err := writeResponse(writer, response)
	lc.Metrics.BytesOut = n
	lc.Metrics.LastByteSent()

	return err
}

func (handler *Handler) writeError(
	writer http.ResponseWriter,
	request *http.Request,
	lc *LogContext,
	err error,
) {
	pages := handler.StatusPageWriter
	if pages == nil {
		pages = &statuspage.TemplateWriter{}
	}

	writer.Header().Set("X-Request-Id", lc.RequestID)

	lc.Metrics.FirstByteSent()
	lc.StatusCode, lc.Metrics.BytesOut, _ = pages.WriteError(writer, request, classify(err))
	lc.Metrics.LastByteSent()
}
