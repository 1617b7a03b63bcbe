package benchmark

import (
	"fmt"
	"net/http"
	"strings"
)

// RequestTemplate is the resolved, reusable description of the request every
// worker replays. It is built once per run and shared read-only across the
// pool.
type RequestTemplate struct {
	Method    string
	URL       string
	Headers   http.Header
	Body      string
	KeepAlive bool

	// BytesOut is the precomputed outbound byte estimate per request:
	// header name+value lengths plus 4 bytes framing overhead each, plus
	// the body length.
	BytesOut int64
}

// BuildRequestTemplate resolves a spec into a RequestTemplate. It rejects a
// malformed method or header as a hard configuration error and strips the
// body for methods that do not carry one.
func BuildRequestTemplate(spec *Spec) (*RequestTemplate, error) {
	snapshot := spec.Target.RequestSnapshot

	method := strings.ToUpper(strings.TrimSpace(snapshot.Method))
	if !isToken(method) {
		return nil, fmt.Errorf("invalid benchmark method %q", snapshot.Method)
	}

	headers, err := buildHeaders(snapshot.Headers)
	if err != nil {
		return nil, err
	}

	body := snapshot.Body
	if !methodAllowsBody(method) {
		body = ""
	}

	return &RequestTemplate{
		Method:    method,
		URL:       snapshot.URL,
		Headers:   headers,
		Body:      body,
		KeepAlive: spec.Transport.KeepAlive,
		BytesOut:  estimateHeaderBytes(headers) + int64(len(body)),
	}, nil
}

// buildHeaders validates and assembles the header set. Empty names are
// skipped; malformed names or values fail the whole template.
func buildHeaders(input map[string]string) (http.Header, error) {
	headers := make(http.Header, len(input))
	for name, value := range input {
		if name == "" {
			continue
		}
		if !isToken(name) {
			return nil, fmt.Errorf("invalid header name %q", name)
		}
		if !isValidHeaderValue(value) {
			return nil, fmt.Errorf("invalid header value for %q", name)
		}
		headers.Set(name, value)
	}
	return headers, nil
}

func methodAllowsBody(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// estimateHeaderBytes sums header name and value lengths plus 4 bytes of
// wire framing per header line.
func estimateHeaderBytes(headers http.Header) int64 {
	var bytes int64
	for name, values := range headers {
		for _, value := range values {
			bytes += int64(len(name)) + int64(len(value)) + 4
		}
	}
	return bytes
}

// isToken reports whether s is a non-empty RFC 7230 token, the charset
// allowed for methods and header field names.
func isToken(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isTokenChar(s[i]) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

// isValidHeaderValue rejects control characters other than horizontal tab.
func isValidHeaderValue(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < 0x20 && c != '\t' || c == 0x7f {
			return false
		}
	}
	return true
}
