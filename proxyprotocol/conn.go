package proxyprotocol

import (
	"bufio"
	"net"
	"sync"
	"time"

	proxyproto "github.com/pires/go-proxyproto"
)

// Conn is a net.Conn that reads an optional PROXY protocol header from the
// start of the stream.
//
// When a header is present, RemoteAddr and LocalAddr report the addresses of
// the original client connection rather than those of the load balancer.
type Conn struct {
	nc      net.Conn
	rd      *bufio.Reader
	timeout time.Duration

	once   sync.Once
	err    error
	remote net.Addr
	local  net.Addr
}

// NewConn returns a connection that has already parsed the PROXY protocol
// header, if any, from nc.
func NewConn(nc net.Conn) (net.Conn, error) {
	c := newConn(nc, 0)
	c.init()

	if c.err != nil {
		return nil, c.err
	}

	return c, nil
}

func newConn(nc net.Conn, timeout time.Duration) *Conn {
	return &Conn{
		nc:      nc,
		rd:      bufio.NewReader(nc),
		timeout: timeout,
	}
}

// init parses the header the first time it is called.
func (c *Conn) init() {
	c.once.Do(func() {
		if c.timeout > 0 {
			c.nc.SetReadDeadline(time.Now().Add(c.timeout))
			defer c.nc.SetReadDeadline(time.Time{})
		}

		// proxyproto.Read reports read failures as ErrNoProxyProtocol.
		if _, err := c.rd.Peek(1); err != nil {
			c.err = err
			return
		}

		hdr, err := proxyproto.Read(c.rd)

		switch err {
		case nil:
			if hdr.Command == proxyproto.PROXY && !hdr.TransportProtocol.IsUnspec() {
				c.local = NewProxyAddr(hdr.TransportProtocol, hdr.DestinationAddress, hdr.DestinationPort)
				c.remote = NewProxyAddr(hdr.TransportProtocol, hdr.SourceAddress, hdr.SourcePort)
			}
		case proxyproto.ErrNoProxyProtocol, proxyproto.ErrInvalidLength:
			// not a PROXY protocol connection, the stream is read as-is
		default:
			c.err = err
		}
	})
}

// Read reads data from the connection, after any PROXY protocol header.
func (c *Conn) Read(b []byte) (int, error) {
	c.init()
	if c.err != nil {
		return 0, c.err
	}

	return c.rd.Read(b)
}

// Write writes data to the connection.
func (c *Conn) Write(b []byte) (int, error) {
	return c.nc.Write(b)
}

// Close closes the connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	c.init()
	if c.local == nil {
		return c.nc.LocalAddr()
	}

	return c.local
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	c.init()
	if c.remote == nil {
		return c.nc.RemoteAddr()
	}

	return c.remote
}

// SetDeadline sets the read and write deadlines of the connection.
func (c *Conn) SetDeadline(t time.Time) error {
	return c.nc.SetDeadline(t)
}

// SetReadDeadline sets the read deadline of the connection.
func (c *Conn) SetReadDeadline(t time.Time) error {
	return c.nc.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline of the connection.
func (c *Conn) SetWriteDeadline(t time.Time) error {
	return c.nc.SetWriteDeadline(t)
}
