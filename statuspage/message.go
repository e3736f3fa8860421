package statuspage

import "net/http"

// StatusMessage returns a short, human-readable description of the given HTTP
// status code, as seen by a client of the proxy.
func StatusMessage(statusCode int) string {
	switch statusCode {
	// 4xx
	case http.StatusBadRequest:
		return "Your browser has sent a malformed request."
	case http.StatusForbidden:
		return "The proxy refused to forward this request."
	case http.StatusNotFound:
		return "The page you've requested could not be found."
	case http.StatusMethodNotAllowed:
		return "The proxy does not support this request method."
	case http.StatusProxyAuthRequired:
		return "You must be authenticated with the proxy server to use this service."
	case http.StatusRequestTimeout:
		return "Your browser did not send a request in a timely manner."
	case http.StatusRequestEntityTooLarge:
		return "Your browser has sent a request that's too large to process."
	case http.StatusRequestURITooLong:
		return "Your browser has sent a request with a URI that's too large to process."
	case http.StatusRequestHeaderFieldsTooLarge:
		return "Your browser has sent a request header that is too large to process."

	// 5xx
	case http.StatusInternalServerError:
		return "The proxy encountered an internal error while handling your request."
	case http.StatusNotImplemented:
		return "The feature you've requested is not supported."
	case http.StatusBadGateway:
		return "The destination server could not be contacted, please try again."
	case http.StatusServiceUnavailable:
		return "The proxy is temporarily unavailable, please try again."
	case http.StatusGatewayTimeout:
		return "The destination server did not respond in a timely manner, please try again."
	case http.StatusHTTPVersionNotSupported:
		return "Your browser's HTTP version is not supported."
	}

	if 400 <= statusCode && statusCode <= 599 {
		return "We're sorry, something went wrong!"
	}

	return "That's all we know."
}
