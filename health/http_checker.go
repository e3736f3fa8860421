package health

import (
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
)

// HTTPChecker is a checker that asks the proxy listening on Address for its
// health-check page.
type HTTPChecker struct {
	Address string
	Client  *http.Client
}

// Check returns information about the health of the proxy server.
func (checker *HTTPChecker) Check() Status {
	host, port, err := net.SplitHostPort(checker.Address)
	if err != nil {
		return Status{false, err.Error()}
	} else if host == "" {
		host = requestHost
	}

	client := checker.Client
	if client == nil {
		client = &http.Client{}
	}

	// The health-check page is requested from the proxy in absolute form, the
	// same way a client would request any other page through it.
	proxyURL := &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(host, port),
	}

	request, err := http.NewRequest(http.MethodGet, "http://"+requestHost+requestPath, nil)
	if err != nil {
		return Status{false, err.Error()}
	}

	transport := http.DefaultTransport
	if client.Transport != nil {
		transport = client.Transport
	}

	if t, ok := transport.(*http.Transport); ok {
		t = t.Clone()
		t.Proxy = http.ProxyURL(proxyURL)
		transport = t
	}

	c := *client
	c.Transport = transport

	response, err := c.Do(request)
	if err != nil {
		return Status{false, err.Error()}
	}
	defer response.Body.Close()

	content, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return Status{false, err.Error()}
	}

	return Status{
		200 <= response.StatusCode && response.StatusCode <= 299,
		string(content),
	}
}
