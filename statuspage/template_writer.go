package statuspage

import (
	"bytes"
	"errors"
	htmlTemplate "html/template"
	"net/http"
	textTemplate "text/template"

	"github.com/golang/gddo/httputil/header"
)

// TemplateWriter writes status pages in HTML or plain-text format using a
// template. The zero value uses the built-in templates.
type TemplateWriter struct {
	HTMLTemplate *htmlTemplate.Template
	TextTemplate *textTemplate.Template
}

// TemplateContext holds the data needed to render a status page.
type TemplateContext struct {
	Code    int
	Text    string
	Message string

	// Detail is a summary of the error that produced the page, if any.
	Detail string
}

// Write outputs a status page for statusCode to writer, in response to request.
func (wr *TemplateWriter) Write(
	writer http.ResponseWriter,
	request *http.Request,
	statusCode int,
) (bodySize int64, err error) {
	return wr.render(
		writer,
		request,
		TemplateContext{
			Code:    statusCode,
			Text:    http.StatusText(statusCode),
			Message: StatusMessage(statusCode),
		},
	)
}

// WriteError outputs an appropriate HTTP status page for the given error to
// writer, in response to request. The page includes a summary of the error.
func (wr *TemplateWriter) WriteError(
	writer http.ResponseWriter,
	request *http.Request,
	statusErr error,
) (statusCode int, bodySize int64, err error) {
	statusCode = http.StatusInternalServerError
	message := ""

	var e Error
	if errors.As(statusErr, &e) {
		statusCode = e.StatusCode
		message = e.Message
	}

	if message == "" {
		message = StatusMessage(statusCode)
	}

	bodySize, err = wr.render(
		writer,
		request,
		TemplateContext{
			Code:    statusCode,
			Text:    http.StatusText(statusCode),
			Message: message,
			Detail:  statusErr.Error(),
		},
	)

	return
}

func (wr *TemplateWriter) render(
	writer http.ResponseWriter,
	request *http.Request,
	context TemplateContext,
) (int64, error) {
	var buf bytes.Buffer
	var contentType string

	if useHTML(request) {
		tmpl := wr.HTMLTemplate
		if tmpl == nil {
			tmpl = defaultHTMLTemplate
		}

		if err := tmpl.Execute(&buf, context); err == nil {
			contentType = "text/html"
		}
	}

	if contentType == "" {
		tmpl := wr.TextTemplate
		if tmpl == nil {
			tmpl = defaultTextTemplate
		}
		contentType = "text/plain"
		buf.Reset()
		tmpl.Execute(&buf, context)
	}

	headers := writer.Header()
	headers.Set("Content-Type", contentType+"; charset=utf-8")
	headers.Set("Cache-Control", "no-store")
	writer.WriteHeader(context.Code)
	return buf.WriteTo(writer)
}

const htmlSource = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Code}} {{.Text}}</title>
<style>
body { font-family: sans-serif; margin: 4em auto; max-width: 40em; color: #333; }
h1 { font-weight: normal; }
pre { color: #888; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>{{.Code}} {{.Text}}</h1>
<p>{{.Message}}</p>
{{- if .Detail}}
<pre>{{.Detail}}</pre>
{{- end}}
</body>
</html>
`

const textSource = `{{.Code}} {{.Text}}

{{.Message}}
{{- if .Detail}}

{{.Detail}}
{{- end}}
`

var defaultHTMLTemplate = htmlTemplate.Must(
	htmlTemplate.New("status-page").Parse(htmlSource),
)

var defaultTextTemplate = textTemplate.Must(
	textTemplate.New("status-page").Parse(textSource),
)

func useHTML(request *http.Request) bool {
	htmlQ := -1.0
	textQ := 0.0

	for _, spec := range header.ParseAccept(request.Header, "Accept") {
		if spec.Value == "text/html" || spec.Value == "application/xhtml+xml" {
			if spec.Q > htmlQ {
				htmlQ = spec.Q
			}
		} else if spec.Value == "text/plain" || spec.Value == "*/*" {
			if spec.Q > textQ {
				textQ = spec.Q
			}
		}
	}

	return htmlQ > textQ
}
