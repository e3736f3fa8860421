package frontend

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/icecave/quarry/proxyprotocol"
	"go.uber.org/zap"
)

// DefaultShutdownTimeout is the time allowed for in-flight requests to
// complete when the server is stopped.
const DefaultShutdownTimeout = 10 * time.Second

// Server listens for connections from clients that use the proxy.
type Server struct {
	Name            string
	BindAddress     string
	Handler         http.Handler
	ProxyProtocol   bool
	ShutdownTimeout time.Duration
	Logger          *zap.Logger

	// Listening, if non-nil, is called with the bound address once the
	// server is accepting connections.
	Listening func(net.Addr)
}

// Run starts the server and blocks until ctx is canceled or the server fails.
//
// When ctx is canceled the server stops accepting connections and waits for
// in-flight requests to complete.
func (svr *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", svr.BindAddress)
	if err != nil {
		return err
	}

	if svr.ProxyProtocol {
		listener = proxyprotocol.NewListener(listener)
	}

	httpServer := &http.Server{
		Handler:           svr.Handler,
		ReadHeaderTimeout: 30 * time.Second,
		ErrorLog:          zap.NewStdLog(svr.logger()),
	}

	svr.logger().Info(
		"listening",
		zap.String("server", svr.Name),
		zap.String("address", listener.Addr().String()),
		zap.Bool("proxy_protocol", svr.ProxyProtocol),
	)

	if svr.Listening != nil {
		svr.Listening(listener.Addr())
	}

	done := make(chan error, 1)
	go func() {
		done <- httpServer.Serve(listener)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	timeout := svr.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	if serveErr := <-done; !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}

	return err
}

func (svr *Server) logger() *zap.Logger {
	if svr.Logger == nil {
		return zap.NewNop()
	}

	return svr.Logger
}
