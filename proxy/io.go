package proxy

import (
	"errors"
	"io"
	"net/http"
	"sync/atomic"
)

// writeResponseHeaders writes the end-to-end headers and status code from
// response to writer.
func writeResponseHeaders(writer http.ResponseWriter, response *http.Response) {
	copyEndToEndHeaders(writer.Header(), response.Header)
	writer.WriteHeader(response.StatusCode)
}

// writeResponse writes the entirety of response to writer.
//
// The headers and each chunk of the body are flushed to the client as soon as
// they are received from the origin, so that streamed responses are not held
// in the server's buffer.
func writeResponse(writer http.ResponseWriter, response *http.Response) (int64, error) {
	defer response.Body.Close()

	w := &flushingWriter{
		writer:     writer,
		controller: http.NewResponseController(writer),
	}

	writeResponseHeaders(writer, response)
	w.flush()

	return io.Copy(w, response.Body)
}

// flushingWriter flushes the response after every write.
type flushingWriter struct {
	writer     http.ResponseWriter
	controller *http.ResponseController
}

func (w *flushingWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	if err != nil {
		return n, err
	}

	return n, w.flush()
}

func (w *flushingWriter) flush() error {
	if err := w.controller.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
		return err
	}

	return nil
}

// countingReader counts the bytes read from a request body.
type countingReader struct {
	io.ReadCloser
	count *int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	atomic.AddInt64(r.count, int64(n))
	return n, err
}

// releasingBody calls release once the body is closed.
type releasingBody struct {
	io.ReadCloser
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.release()
	return err
}
