package proxy_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"time"

	"github.com/icecave/quarry/proxy"
	"github.com/icecave/quarry/query"
	"github.com/icecave/quarry/statuspage"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var _ = Describe("Handler", func() {
	var (
		logs    *observer.ObservedLogs
		subject *proxy.Handler
	)

	BeforeEach(func() {
		core, observed := observer.New(zap.DebugLevel)
		logs = observed
		subject = &proxy.Handler{
			Logger: zap.New(core),
		}
	})

	Describe("when the service succeeds", func() {
		BeforeEach(func() {
			subject.Service = proxy.ServiceFunc(func(*http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusTeapot,
					Header: http.Header{
						"X-Origin":   []string{"yes"},
						"Connection": []string{"close"},
						"Keep-Alive": []string{"timeout=5"},
					},
					Body: ioutil.NopCloser(strings.NewReader("<origin body>")),
				}, nil
			})
		})

		It("writes the response", func() {
			writer := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "http://www.example.com/", nil)
			subject.ServeHTTP(writer, request)

			Expect(writer.Code).To(Equal(http.StatusTeapot))
			Expect(writer.Header().Get("X-Origin")).To(Equal("yes"))
			Expect(writer.Header().Get("Keep-Alive")).To(BeEmpty())
			Expect(writer.Body.String()).To(Equal("<origin body>"))
		})

		It("logs the request", func() {
			writer := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "http://www.example.com/?a=b", nil)
			subject.ServeHTTP(writer, request)

			entries := logs.All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Level).To(Equal(zap.InfoLevel))
			Expect(entries[0].Message).To(HavePrefix(
				`192.0.2.1:1234 www.example.com - - "GET http://www.example.com/?a=b HTTP/1.1" 418 f/`,
			))
			Expect(entries[0].Message).To(HaveSuffix(" i/0 o/13"))
			Expect(entries[0].ContextMap()).To(HaveKeyWithValue("status", int64(http.StatusTeapot)))
			Expect(entries[0].ContextMap()).To(HaveKey("request_id"))
		})

		It("does not log successful favicon requests", func() {
			writer := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "http://www.example.com/favicon.ico", nil)
			subject.ServeHTTP(writer, request)

			Expect(logs.All()).To(BeEmpty())
		})
	})

	DescribeTable(
		"when the service fails",
		func(err error, statusCode int) {
			subject.Service = proxy.ServiceFunc(func(*http.Request) (*http.Response, error) {
				return nil, err
			})

			writer := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, "http://www.example.com/", nil)
			subject.ServeHTTP(writer, request)

			Expect(writer.Code).To(Equal(statusCode))
			Expect(writer.Header().Get("X-Request-Id")).NotTo(BeEmpty())
			Expect(writer.Body.String()).To(ContainSubstring(err.Error()))

			entries := logs.All()
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Level).To(Equal(zap.WarnLevel))
			Expect(entries[0].Message).To(ContainSubstring(fmt.Sprintf(" %d ", statusCode)))
		},
		Entry(
			"malformed request",
			fmt.Errorf("%w: request has no Host header", proxy.ErrMalformedRequest),
			http.StatusForbidden,
		),
		Entry(
			"upstream failure",
			fmt.Errorf("%w: connection refused", proxy.ErrUpstreamFailure),
			http.StatusBadGateway,
		),
		Entry(
			"upstream timeout",
			fmt.Errorf("%w: %w", proxy.ErrUpstreamFailure, timeoutError{}),
			http.StatusGatewayTimeout,
		),
		Entry(
			"upstream deadline",
			fmt.Errorf("%w: %w", proxy.ErrUpstreamFailure, context.DeadlineExceeded),
			http.StatusGatewayTimeout,
		),
		Entry(
			"extraction inconsistency",
			fmt.Errorf("%w: broken", query.ErrExtractionInconsistency),
			http.StatusInternalServerError,
		),
		Entry(
			"status page error",
			statuspage.Error{Inner: errors.New("<inner>"), StatusCode: http.StatusServiceUnavailable},
			http.StatusServiceUnavailable,
		),
		Entry(
			"other error",
			errors.New("<error>"),
			http.StatusInternalServerError,
		),
	)

	It("converts a panic into an internal server error", func() {
		subject.Service = proxy.ServiceFunc(func(*http.Request) (*http.Response, error) {
			panic("<panic>")
		})

		writer := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "http://www.example.com/", nil)

		Expect(func() { subject.ServeHTTP(writer, request) }).NotTo(Panic())
		Expect(writer.Code).To(Equal(http.StatusInternalServerError))
		Expect(writer.Body.String()).To(ContainSubstring("<panic>"))
	})

	It("re-panics with http.ErrAbortHandler", func() {
		subject.Service = proxy.ServiceFunc(func(*http.Request) (*http.Response, error) {
			panic(http.ErrAbortHandler)
		})

		writer := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "http://www.example.com/", nil)

		var recovered interface{}
		func() {
			defer func() { recovered = recover() }()
			subject.ServeHTTP(writer, request)
		}()

		Expect(recovered).To(Equal(http.ErrAbortHandler))
	})
})

var _ = Describe("NewHandler", func() {
	var (
		server  *origin
		db      *fakeStore
		subject *proxy.Handler
	)

	BeforeEach(func() {
		server = newOrigin(helloOrigin)
		db = &fakeStore{}
		subject = proxy.NewHandler(
			&proxy.Recorder{
				Registry: query.DefaultRegistry(),
				Store:    db,
			},
			&proxy.Forwarder{
				Transport: transportTo(server.Addr()),
			},
			nil,
		)
	})

	AfterEach(func() {
		server.Server.Close()
	})

	It("records the query and relays the origin's response", func() {
		writer := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "http://www.google.com/search?q=hello+world", nil)
		subject.ServeHTTP(writer, request)

		Expect(writer.Code).To(Equal(http.StatusTeapot))
		Expect(writer.Body.String()).To(Equal("<origin body>"))

		Expect(server.Requests()).To(HaveLen(1))
		Expect(server.Requests()[0].RequestURI).To(Equal("/search?q=hello+world"))
		Expect(server.Requests()[0].Host).To(Equal("www.google.com"))

		inserts := db.Inserts()
		Expect(inserts).To(HaveLen(1))
		Expect(inserts[0].Query).To(Equal(query.Query{
			Text:     "hello+world",
			Keywords: []string{"hello", "world"},
		}))
		Expect(inserts[0].When).To(BeTemporally("~", time.Now(), time.Minute))
	})

	It("relays the origin's response unchanged when the store fails", func() {
		db.Err = errors.New("<store error>")

		writer := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "http://www.google.com/search?q=hello+world", nil)
		subject.ServeHTTP(writer, request)

		Expect(writer.Code).To(Equal(http.StatusTeapot))
		Expect(writer.Header().Get("X-Origin")).To(Equal("yes"))
		Expect(writer.Body.String()).To(Equal("<origin body>"))
	})

	It("does not record unrecognized requests", func() {
		writer := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "http://www.example.com/search?q=hello", nil)
		subject.ServeHTTP(writer, request)

		Expect(writer.Code).To(Equal(http.StatusTeapot))
		Expect(db.Inserts()).To(BeEmpty())
	})

	It("responds with a client error when the request has no Host", func() {
		writer := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/search?q=hello", nil)
		request.Host = ""
		subject.ServeHTTP(writer, request)

		Expect(writer.Code).To(Equal(http.StatusForbidden))
		Expect(writer.Body.String()).To(ContainSubstring("request has no Host header"))
		Expect(server.Requests()).To(BeEmpty())
	})

	It("serves requests from a real HTTP client configured to use the proxy", func() {
		proxyServer := httptest.NewServer(subject)
		defer proxyServer.Close()

		proxyURL, err := url.Parse(proxyServer.URL)
		Expect(err).NotTo(HaveOccurred())

		client := &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
		defer client.CloseIdleConnections()

		response, err := client.Get("http://search.yahoo.com/search?p=foo%20bar")
		Expect(err).NotTo(HaveOccurred())
		defer response.Body.Close()

		body, _ := ioutil.ReadAll(response.Body)
		Expect(response.StatusCode).To(Equal(http.StatusTeapot))
		Expect(string(body)).To(Equal("<origin body>"))

		Expect(db.Inserts()).To(HaveLen(1))
		Expect(db.Inserts()[0].Query.Keywords).To(Equal([]string{"foo", "bar"}))

		received := server.Requests()
		Expect(received).To(HaveLen(1))
		Expect(received[0].RequestURI).To(Equal("/search?p=foo%20bar"))

		host, _, _ := net.SplitHostPort(received[0].RemoteAddr)
		Expect(received[0].Header.Get("X-Forwarded-For")).To(Equal(host))
	})

	It("relays streamed responses as the origin produces them", func() {
		const event = "event: hello\n\n"

		release := make(chan struct{})
		server.SetHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/event-stream")
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, event)
			w.(http.Flusher).Flush()
			<-release
		})

		proxyServer := httptest.NewServer(subject)
		defer proxyServer.Close()
		defer close(release)

		proxyURL, err := url.Parse(proxyServer.URL)
		Expect(err).NotTo(HaveOccurred())

		client := &http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
		}
		defer client.CloseIdleConnections()

		events := make(chan string, 1)
		go func() {
			defer GinkgoRecover()

			response, err := client.Get("http://www.example.com/events")
			Expect(err).NotTo(HaveOccurred())
			defer response.Body.Close()

			buf := make([]byte, len(event))
			_, err = io.ReadFull(response.Body, buf)
			Expect(err).NotTo(HaveOccurred())
			events <- string(buf)
		}()

		Eventually(events, 2*time.Second).Should(Receive(Equal(event)))
	})
})

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }
