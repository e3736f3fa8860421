package proxyprotocol

import (
	"net"
	"time"
)

// DefaultHeaderTimeout is the time allowed for a client to send its PROXY
// protocol header.
const DefaultHeaderTimeout = 5 * time.Second

// Listener is a net.Listener that accepts connections which may begin with
// a PROXY protocol header.
type Listener struct {
	net.Listener

	// HeaderTimeout is the time allowed to read the header. Zero means
	// DefaultHeaderTimeout.
	HeaderTimeout time.Duration
}

// NewListener returns a listener that wraps each connection accepted by l.
func NewListener(l net.Listener) *Listener {
	return &Listener{Listener: l}
}

// Accept waits for and returns the next connection.
//
// The header is parsed on first use of the connection so that a slow client
// does not block Accept.
func (l *Listener) Accept() (net.Conn, error) {
	nc, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}

	timeout := l.HeaderTimeout
	if timeout == 0 {
		timeout = DefaultHeaderTimeout
	}

	return newConn(nc, timeout), nil
}
