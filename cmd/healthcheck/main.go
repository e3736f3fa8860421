package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"

	"github.com/icecave/quarry/cmd"
	"github.com/icecave/quarry/health"
	proxyproto "github.com/pires/go-proxyproto"
)

func main() {
	config := cmd.GetConfigFromEnvironment()

	checker := health.HTTPChecker{
		Address: ":" + config.Port,
		Client:  checkerHTTPClient(config),
	}

	status := checker.Check()
	fmt.Println(status.Message)
	if !status.IsHealthy {
		os.Exit(1)
	}
}

func checkerHTTPClient(config *cmd.Config) *http.Client {
	transport := &http.Transport{}

	if config.ProxyProtocol {
		// The listener expects a PROXY header; LOCAL marks the connection as
		// originating from the proxy host itself.
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := (&net.Dialer{}).DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}

			header := proxyproto.Header{
				Command: proxyproto.LOCAL,
				Version: 2,
			}
			if _, err := header.WriteTo(conn); err != nil {
				conn.Close()
				return nil, err
			}

			return conn, nil
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.CheckTimeout,
	}
}
