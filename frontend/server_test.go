package frontend_test

import (
	"bufio"
	"context"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"time"

	"github.com/icecave/quarry/frontend"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	proxyproto "github.com/pires/go-proxyproto"
)

var _ = Describe("Server", func() {
	var (
		ctx     context.Context
		cancel  context.CancelFunc
		addrs   chan net.Addr
		result  chan error
		remotes chan string
		subject *frontend.Server
	)

	BeforeEach(func() {
		ctx, cancel = context.WithCancel(context.Background())
		addrs = make(chan net.Addr, 1)
		result = make(chan error, 1)
		remotes = make(chan string, 1)

		subject = &frontend.Server{
			BindAddress: "127.0.0.1:0",
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				remotes <- r.RemoteAddr
				io.WriteString(w, "<response>")
			}),
			ShutdownTimeout: time.Second,
			Listening: func(addr net.Addr) {
				addrs <- addr
			},
		}
	})

	AfterEach(func() {
		cancel()
	})

	start := func() net.Addr {
		go func() {
			result <- subject.Run(ctx)
		}()

		var addr net.Addr
		Eventually(addrs).Should(Receive(&addr))
		return addr
	}

	It("serves requests until the context is canceled", func() {
		addr := start()

		response, err := http.Get("http://" + addr.String() + "/")
		Expect(err).NotTo(HaveOccurred())
		body, _ := ioutil.ReadAll(response.Body)
		response.Body.Close()
		Expect(string(body)).To(Equal("<response>"))

		cancel()
		Eventually(result).Should(Receive(BeNil()))
	})

	It("returns an error if it can not listen", func() {
		subject.BindAddress = "127.0.0.1:-1"

		Expect(subject.Run(ctx)).To(HaveOccurred())
	})

	It("uses the client address from the PROXY protocol header when enabled", func() {
		subject.ProxyProtocol = true
		addr := start()

		conn, err := net.Dial("tcp", addr.String())
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		header := &proxyproto.Header{
			Command:            proxyproto.PROXY,
			DestinationAddress: net.ParseIP("127.0.0.1"),
			DestinationPort:    8080,
			SourceAddress:      net.ParseIP("192.0.2.55"),
			SourcePort:         40000,
			TransportProtocol:  proxyproto.TCPv4,
			Version:            2,
		}
		_, err = header.WriteTo(conn)
		Expect(err).NotTo(HaveOccurred())

		io.WriteString(conn, "GET / HTTP/1.1\r\nHost: localhost\r\nConnection: close\r\n\r\n")

		response, err := http.ReadResponse(bufio.NewReader(conn), nil)
		Expect(err).NotTo(HaveOccurred())
		response.Body.Close()

		Expect(remotes).To(Receive(Equal("192.0.2.55:40000")))
	})
})
