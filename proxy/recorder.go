package proxy

import (
	"errors"
	"net/http"
	"time"

	"github.com/icecave/quarry/metrics"
	"github.com/icecave/quarry/query"
	"github.com/icecave/quarry/store"
	"go.uber.org/zap"
)

// Recorder is an interceptor that persists the search queries found in
// proxied requests.
//
// The request is always passed on unmodified. Failure to persist a query is
// logged but otherwise ignored.
type Recorder struct {
	Registry query.Registry
	Store    store.Store
	Logger   *zap.Logger

	// Now returns the time to record against each query. If it is nil,
	// time.Now is used.
	Now func() time.Time
}

// Intercept returns a service that records queries before invoking next.
func (r *Recorder) Intercept(next Service) Service {
	return ServiceFunc(func(request *http.Request) (*http.Response, error) {
		if err := r.record(request); err != nil {
			return nil, err
		}

		return next.Serve(request)
	})
}

func (r *Recorder) record(request *http.Request) error {
	uri := absoluteURI(request)

	rec, ok := r.Registry.Match(uri)
	if !ok {
		return nil
	}

	dialect := query.DialectOf(rec)
	if lc := logContextFrom(request.Context()); lc != nil {
		lc.Dialect = dialect
	}

	q, err := rec.Apply(uri)
	if err != nil {
		r.logger().Error(
			"search dialect matched but the query could not be extracted",
			zap.String("dialect", dialect),
			zap.String("uri", uri),
			zap.Error(err),
		)
		return err
	}

	metrics.QueriesRecognized.WithLabelValues(dialect).Inc()

	if r.Store == nil {
		return nil
	}

	if err := r.Store.Insert(request.Context(), q, r.now()); err != nil {
		metrics.StoreFailures.WithLabelValues(failureReason(err)).Inc()
		r.logger().Warn(
			"unable to record search query",
			zap.String("dialect", dialect),
			zap.String("query", q.Text),
			zap.Error(err),
		)
		return nil
	}

	r.logger().Debug(
		"recorded search query",
		zap.String("dialect", dialect),
		zap.String("query", q.Text),
		zap.Strings("keywords", q.Keywords),
	)

	return nil
}

func (r *Recorder) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}

	return r.Now()
}

func (r *Recorder) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}

	return r.Logger
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, store.ErrQueueFull):
		return "queue_full"
	case errors.Is(err, store.ErrClosed):
		return "closed"
	default:
		return "insert"
	}
}

// absoluteURI returns the request target in absolute form, as it was sent by
// the client where possible.
func absoluteURI(request *http.Request) string {
	if request.URL.IsAbs() {
		return request.URL.String()
	}

	return "http://" + request.Host + request.URL.RequestURI()
}
