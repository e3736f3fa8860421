package name

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/net/idna"
)

// ServerName is a normalized host name, as it appears in an HTTP Host header.
type ServerName struct {
	Unicode  string
	Punycode string
}

// TryParse attempts to produce a ServerName value from a string. IPv6
// literals may be enclosed in square brackets.
func TryParse(name string) (ServerName, error) {
	var normalized ServerName
	var err error

	if ip := net.ParseIP(strings.TrimSuffix(strings.TrimPrefix(name, "["), "]")); ip != nil {
		normalized.Unicode = ip.String()
		normalized.Punycode = normalized.Unicode
		return normalized, nil
	}

	lowercase := strings.ToLower(strings.TrimSuffix(name, "."))
	normalized.Punycode, err = idna.ToASCII(lowercase)
	if err != nil {
		return normalized, err
	} else if !isDomainName(normalized.Punycode) {
		return normalized, fmt.Errorf("invalid server name '%s'", name)
	}

	normalized.Unicode, err = idna.ToUnicode(lowercase)

	return normalized, err
}

// FromHTTP attempts to parse a server name from the Host of an HTTP request.
func FromHTTP(request *http.Request) (ServerName, error) {
	host, _, err := SplitHostPort(request.Host)
	if err != nil {
		return ServerName{}, err
	}

	return TryParse(host)
}

// SplitHostPort splits a Host header value into its host and port. The port
// is empty if the value does not include one.
func SplitHostPort(hostport string) (host, port string, err error) {
	if hostport == "" {
		return "", "", fmt.Errorf("empty host")
	}

	host, port, err = net.SplitHostPort(hostport)
	if err == nil {
		if port == "" {
			return "", "", fmt.Errorf("empty port in host '%s'", hostport)
		}
		return host, port, nil
	}

	// A bare IPv6 literal contains colons but no port.
	if strings.HasPrefix(hostport, "[") && strings.HasSuffix(hostport, "]") {
		return hostport[1 : len(hostport)-1], "", nil
	}

	if strings.Contains(hostport, ":") {
		if ip := net.ParseIP(hostport); ip == nil {
			return "", "", err
		}
	}

	return hostport, "", nil
}

// isDomainName checks if the given domain name is valid.
func isDomainName(domainName string) bool {
	if len(domainName) == 0 || len(domainName) > 255 {
		return false
	}

	hasLetter := false
	atomLength := 0
	previousChar := byte('.')

	for index := 0; index < len(domainName); index++ {
		char := domainName[index]

		switch {
		case 'a' <= char && char <= 'z':
			fallthrough
		case 'A' <= char && char <= 'Z':
			fallthrough
		case char == '_':
			hasLetter = true
			fallthrough
		case '0' <= char && char <= '9':
			atomLength++
		case char == '-':
			// Byte before dash cannot be dot.
			if previousChar == '.' {
				return false
			}
			atomLength++
		case char == '.':
			// Byte before dot cannot be dot, dash.
			if previousChar == '.' || previousChar == '-' {
				return false
			} else if atomLength > 63 || atomLength == 0 {
				return false
			}
			atomLength = 0
		default:
			return false
		}

		previousChar = char
	}

	return hasLetter &&
		previousChar != '-' &&
		previousChar != '.' &&
		atomLength < 64
}
