package frontend_test

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/icecave/quarry/frontend"
	"github.com/icecave/quarry/health"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

var _ = Describe("Handler", func() {
	var subject *frontend.Handler

	BeforeEach(func() {
		subject = &frontend.Handler{
			Proxy: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<proxy>")
			}),
			HealthCheck: &health.HTTPHandler{
				Checker: health.CheckerFunc(func() health.Status {
					return health.Status{IsHealthy: true, Message: "<healthy>"}
				}),
			},
		}
	})

	DescribeTable(
		"ServeHTTP",
		func(target string, expected string) {
			writer := httptest.NewRecorder()
			request := httptest.NewRequest(http.MethodGet, target, nil)
			subject.ServeHTTP(writer, request)

			Expect(writer.Body.String()).To(Equal(expected))
		},
		Entry("health-check request", "http://localhost/.quarry/health-check", "<healthy>"),
		Entry("proxied request", "http://www.google.com/search?q=x", "<proxy>"),
		Entry("health-check path on another host", "http://www.example.com/.quarry/health-check", "<proxy>"),
	)

	It("passes everything to the proxy when there is no health-check handler", func() {
		subject.HealthCheck = nil

		writer := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "http://localhost/.quarry/health-check", nil)
		subject.ServeHTTP(writer, request)

		Expect(writer.Body.String()).To(Equal("<proxy>"))
	})
})
