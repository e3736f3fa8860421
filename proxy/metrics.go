package proxy

import "time"

// Metrics stores basic measurements for a proxied request.
type Metrics struct {
	// BytesIn is the number of request body bytes read from the client.
	BytesIn int64

	// BytesOut is the number of response body bytes written to the client.
	BytesOut int64

	StartedAt       time.Time
	TimeToFirstByte time.Duration
	TimeToLastByte  time.Duration
}

// Start the timer.
func (metrics *Metrics) Start() {
	metrics.StartedAt = time.Now()
}

// FirstByteSent records the time offset to the first byte.
func (metrics *Metrics) FirstByteSent() {
	metrics.TimeToFirstByte = metrics.elapsed()
}

// IsFirstByteSent returns true if the first byte has been sent.
func (metrics *Metrics) IsFirstByteSent() bool {
	return metrics.TimeToFirstByte > 0
}

// LastByteSent records the time offset to the last byte.
func (metrics *Metrics) LastByteSent() {
	metrics.TimeToLastByte = metrics.elapsed()
}

// IsLastByteSent returns true if the last byte has been sent.
func (metrics *Metrics) IsLastByteSent() bool {
	return metrics.TimeToLastByte > 0
}

// elapsed is never zero, so that a recorded offset can be distinguished from
// an unrecorded one.
func (metrics *Metrics) elapsed() time.Duration {
	if d := time.Since(metrics.StartedAt); d > 0 {
		return d
	}

	return time.Nanosecond
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
