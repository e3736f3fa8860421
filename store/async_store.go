package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/icecave/quarry/metrics"
	"github.com/icecave/quarry/query"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by AsyncStore.Insert when no more records can
	// be buffered.
	ErrQueueFull = errors.New("query record queue is full")

	// ErrClosed is returned by AsyncStore.Insert after the store is closed.
	ErrClosed = errors.New("query store is closed")
)

// AsyncStore is a Store that buffers records and persists them to another
// store on a fixed number of worker goroutines.
//
// Insert never waits for the underlying store. Failures from the underlying
// store are logged and counted instead of being returned to the caller.
type AsyncStore struct {
	next    Store
	timeout time.Duration
	logger  *zap.Logger

	queue  chan pending
	wg     sync.WaitGroup
	mutex  sync.RWMutex
	closed bool
}

type pending struct {
	Query query.Query
	When  time.Time
}

// NewAsyncStore returns a store that persists records to next using the given
// number of workers. Each write to next is bounded by timeout, if non-zero.
func NewAsyncStore(
	next Store,
	queueSize int,
	workers int,
	timeout time.Duration,
	logger *zap.Logger,
) *AsyncStore {
	if workers < 1 {
		workers = 1
	}

	if queueSize < 0 {
		queueSize = 0
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	s := &AsyncStore{
		next:    next,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan pending, queueSize),
	}

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.work()
	}

	return s
}

// Insert queues q for persistence. The context is not used by the eventual
// write, which outlives the request that produced it.
func (s *AsyncStore) Insert(_ context.Context, q query.Query, when time.Time) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.closed {
		return ErrClosed
	}

	select {
	case s.queue <- pending{q, when}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting records and waits for queued records to be written.
func (s *AsyncStore) Close() error {
	s.mutex.Lock()
	if s.closed {
		s.mutex.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.mutex.Unlock()

	s.wg.Wait()
	return nil
}

func (s *AsyncStore) work() {
	defer s.wg.Done()

	for p := range s.queue {
		s.write(p)
	}
}

func (s *AsyncStore) write(p pending) {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.next.Insert(ctx, p.Query, p.When); err != nil {
		metrics.StoreFailures.WithLabelValues("write").Inc()
		s.logger.Warn(
			"unable to persist query record",
			zap.String("query", p.Query.Text),
			zap.Error(err),
		)
	}
}
