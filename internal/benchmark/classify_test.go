package benchmark

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

type fakeTimeoutError struct{}

func (fakeTimeoutError) Error() string   { return "i/o timeout" }
func (fakeTimeoutError) Timeout() bool   { return true }
func (fakeTimeoutError) Temporary() bool { return true }

func TestClassifyTransportError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want metrics.ErrorType
	}{
		{"deadline exceeded", fmt.Errorf("request: %w", context.DeadlineExceeded), metrics.ErrorTimeout},
		{"net timeout", &net.OpError{Op: "read", Err: fakeTimeoutError{}}, metrics.ErrorTimeout},
		{"dns failure", &net.DNSError{Err: "no such host", Name: "nope.invalid"}, metrics.ErrorDNS},
		{"unknown authority", x509.UnknownAuthorityError{}, metrics.ErrorTLS},
		{"tls message fallback", errors.New("remote error: tls: handshake failure"), metrics.ErrorTLS},
		{"dial op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("network unreachable")}, metrics.ErrorConnect},
		{"refused message fallback", errors.New("connect: connection refused"), metrics.ErrorConnect},
		{"everything else", errors.New("unexpected EOF"), metrics.ErrorRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyTransportError(tt.err); got != tt.want {
				t.Errorf("classifyTransportError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

// Timeouts must win even when the error also mentions a dial.
func TestClassifyTransportError_TimeoutWinsOverConnect(t *testing.T) {
	err := &net.OpError{Op: "dial", Net: "tcp", Err: fakeTimeoutError{}}
	if got := classifyTransportError(err); got != metrics.ErrorTimeout {
		t.Errorf("classifyTransportError = %v, want TIMEOUT", got)
	}
}

func testTemplate(url string) *RequestTemplate {
	return &RequestTemplate{
		Method:    http.MethodGet,
		URL:       url,
		Headers:   make(http.Header),
		KeepAlive: true,
	}
}

func TestExecuteSingleRequest_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong")
	}))
	defer server.Close()

	sample := executeSingleRequest(context.Background(), server.Client(), testTemplate(server.URL), SaveBodiesNone, nil)

	if !sample.Success {
		t.Fatalf("sample not successful: %+v", sample)
	}
	if sample.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", sample.StatusCode)
	}
	if sample.ErrorType != "" {
		t.Errorf("ErrorType = %q, want empty", sample.ErrorType)
	}
	if sample.BytesIn <= int64(len("pong")) {
		t.Errorf("BytesIn = %d, want body plus headers", sample.BytesIn)
	}
	if sample.LatencyMs < 0 {
		t.Errorf("LatencyMs = %v, want non-negative", sample.LatencyMs)
	}
}

func TestExecuteSingleRequest_StatusFamilies(t *testing.T) {
	tests := []struct {
		status int
		want   metrics.ErrorType
	}{
		{404, metrics.ErrorHTTP4xx},
		{503, metrics.ErrorHTTP5xx},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
			fmt.Fprint(w, "failure detail")
		}))

		sample := executeSingleRequest(context.Background(), server.Client(), testTemplate(server.URL), SaveBodiesErrors, nil)
		server.Close()

		if sample.Success {
			t.Errorf("status %d classified as success", tt.status)
		}
		if sample.ErrorType != tt.want {
			t.Errorf("status %d: ErrorType = %v, want %v", tt.status, sample.ErrorType, tt.want)
		}
		if sample.ErrorMsg != fmt.Sprintf("HTTP %d", tt.status) {
			t.Errorf("status %d: ErrorMsg = %q", tt.status, sample.ErrorMsg)
		}
		if sample.SampleBody != "failure detail" {
			t.Errorf("status %d: SampleBody = %q, want captured body", tt.status, sample.SampleBody)
		}
	}
}

func TestExecuteSingleRequest_BodyNotSavedWhenDisabled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "secret detail")
	}))
	defer server.Close()

	sample := executeSingleRequest(context.Background(), server.Client(), testTemplate(server.URL), SaveBodiesNone, nil)
	if sample.SampleBody != "" {
		t.Errorf("SampleBody = %q, want empty when saveBodies=none", sample.SampleBody)
	}
}

func TestExecuteSingleRequest_ErrorBodyCapped(t *testing.T) {
	big := strings.Repeat("x", maxErrorBodyBytes*2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, big)
	}))
	defer server.Close()

	sample := executeSingleRequest(context.Background(), server.Client(), testTemplate(server.URL), SaveBodiesErrors, nil)
	if len(sample.SampleBody) != maxErrorBodyBytes {
		t.Errorf("SampleBody length = %d, want %d", len(sample.SampleBody), maxErrorBodyBytes)
	}
	// The full body is still counted as received even though only a prefix
	// is retained.
	if sample.BytesIn < int64(len(big)) {
		t.Errorf("BytesIn = %d, want at least %d", sample.BytesIn, len(big))
	}
}

func TestExecuteSingleRequest_CancelledMidFlight(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	cancelCh := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		close(cancelCh)
		cancel()
	}()

	sample := executeSingleRequest(ctx, server.Client(), testTemplate(server.URL), SaveBodiesNone, cancelCh)
	if !sample.Cancelled {
		t.Fatalf("sample not marked cancelled: %+v", sample)
	}
	if sample.ErrorType != metrics.ErrorCancelled {
		t.Errorf("ErrorType = %v, want CANCELED", sample.ErrorType)
	}
}

func TestExecuteSingleRequest_PostSendsBody(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		r.Body.Read(body)
		received = string(body)
	}))
	defer server.Close()

	template := testTemplate(server.URL)
	template.Method = http.MethodPost
	template.Body = `{"k":"v"}`
	template.Headers.Set("Content-Type", "application/json")

	sample := executeSingleRequest(context.Background(), server.Client(), template, SaveBodiesNone, nil)
	if !sample.Success {
		t.Fatalf("sample not successful: %+v", sample)
	}
	if received != template.Body {
		t.Errorf("server received %q, want %q", received, template.Body)
	}
}
