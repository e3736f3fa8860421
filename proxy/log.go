package proxy

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	humanize "github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// LogContext holds information about a proxied request used for logging.
type LogContext struct {
	Logger     *zap.Logger
	RequestID  string
	StatusCode int
	Upstream   string
	Dialect    string
	Metrics    Metrics
	Request    *http.Request

	buffer bytes.Buffer
}

// Log writes a log entry for the context to the logger.
//
// The log message consists of the following space separated fields:
//
// - remote address
// - requested host
// - upstream address
// - search dialect
// - request information (method, URI and protocol)
// - http status code
// - time to first byte
// - time to last byte
// - bytes inbound
// - bytes outbound
// - message (optional)
//
// All fields are always present, except for the message which is optional. If a
// field value is unknown or not applicable, a hyphen is used in place. If a
// field value contains spaces or other special characters it is rendered as a
// double-quoted Go string.
func (ctx *LogContext) Log(err error) {
	if ctx.Logger == nil || ctx.isMuted() {
		return
	}

	ctx.write(ctx.Request.RemoteAddr)
	ctx.write(ctx.Request.Host)
	ctx.write(ctx.Upstream)
	ctx.write(ctx.Dialect)

	ctx.write(
		"%s %s %s",
		ctx.Request.Method,
		absoluteURI(ctx.Request),
		ctx.Request.Proto,
	)

	if ctx.StatusCode == 0 {
		ctx.write("")
	} else {
		ctx.write("%d", ctx.StatusCode)
	}

	if ctx.Metrics.IsFirstByteSent() {
		ctx.write(
			"f/%sms",
			humanize.FormatFloat("#,###.##", milliseconds(ctx.Metrics.TimeToFirstByte)),
		)
	} else {
		ctx.write("")
	}

	if ctx.Metrics.IsLastByteSent() {
		ctx.write(
			"l/%sms",
			humanize.FormatFloat("#,###.##", milliseconds(ctx.Metrics.TimeToLastByte)),
		)
		ctx.write(
			"i/%s",
			humanize.FormatFloat("#,###.", float64(atomic.LoadInt64(&ctx.Metrics.BytesIn))),
		)
		ctx.write(
			"o/%s",
			humanize.FormatFloat("#,###.", float64(ctx.Metrics.BytesOut)),
		)
	} else {
		ctx.write("")
		ctx.write("")
		ctx.write("")
	}

	if err != nil {
		ctx.write(err.Error())
	}

	message := ctx.buffer.String()
	ctx.buffer.Reset()

	fields := []zap.Field{
		zap.String("request_id", ctx.RequestID),
		zap.Int("status", ctx.StatusCode),
	}

	if err != nil {
		ctx.Logger.Warn(message, append(fields, zap.Error(err))...)
	} else {
		ctx.Logger.Info(message, fields...)
	}
}

// write is a helper function that writes to a string to a buffer, quoting the
// string if it contains whitespace or special characters.
func (ctx *LogContext) write(str string, v ...interface{}) {
	if ctx.buffer.Len() != 0 {
		ctx.buffer.WriteRune(' ')
	}

	if len(v) != 0 {
		str = fmt.Sprintf(str, v...)
	}

	if str == "" {
		ctx.buffer.WriteRune('-')
		return
	}

	if strings.ContainsAny(str, " \a\b\f\n\r\t\v\"") {
		ctx.buffer.WriteString(strconv.Quote(str))
	} else {
		ctx.buffer.WriteString(str)
	}
}

func (ctx *LogContext) isMuted() bool {
	if ctx.Request.URL.Path != "/favicon.ico" {
		return false
	}

	return 200 <= ctx.StatusCode && ctx.StatusCode < 500
}

type logContextKey struct{}

func withLogContext(parent context.Context, lc *LogContext) context.Context {
	return context.WithValue(parent, logContextKey{}, lc)
}

// logContextFrom returns the log context of the request being served, or nil
// if the request did not pass through a Handler.
func logContextFrom(ctx context.Context) *LogContext {
	lc, _ := ctx.Value(logContextKey{}).(*LogContext)
	return lc
}
