package frontend_test

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/icecave/quarry/frontend"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("NewAdminRouter", func() {
	var subject http.Handler

	BeforeEach(func() {
		subject = frontend.NewAdminRouter(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, "<healthy>")
			}),
		)
	})

	It("serves the health-check", func() {
		writer := httptest.NewRecorder()
		subject.ServeHTTP(writer, httptest.NewRequest(http.MethodGet, "/health", nil))

		Expect(writer.Code).To(Equal(http.StatusOK))
		Expect(writer.Body.String()).To(Equal("<healthy>"))
	})

	It("serves prometheus metrics", func() {
		writer := httptest.NewRecorder()
		subject.ServeHTTP(writer, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		Expect(writer.Code).To(Equal(http.StatusOK))
		Expect(writer.Body.String()).To(ContainSubstring("go_goroutines"))
	})

	It("writes a status page for unknown paths", func() {
		writer := httptest.NewRecorder()
		subject.ServeHTTP(writer, httptest.NewRequest(http.MethodGet, "/elsewhere", nil))

		Expect(writer.Code).To(Equal(http.StatusNotFound))
		Expect(writer.Header().Get("Content-Type")).To(Equal("text/plain; charset=utf-8"))
		Expect(writer.Body.String()).To(HavePrefix("404 Not Found\n"))
	})
})
