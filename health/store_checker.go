package health

import (
	"context"
	"time"
)

// DefaultCheckTimeout is the time allowed for a StoreChecker ping when no
// timeout is configured.
const DefaultCheckTimeout = 500 * time.Millisecond

// Pinger is a store that can report whether it is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker is a checker that reports the proxy as healthy when the query
// store answers a ping.
type StoreChecker struct {
	Store   Pinger
	Timeout time.Duration
}

// Check pings the store.
func (checker *StoreChecker) Check() Status {
	timeout := checker.Timeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := checker.Store.Ping(ctx); err != nil {
		return Status{false, "The query store is unreachable: " + err.Error()}
	}

	return Status{true, "The server is accepting requests and the query store is reachable."}
}
