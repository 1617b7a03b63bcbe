package benchmark

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/surgehttp/surge/internal/benchmark/metrics"
)

// maxErrorBodyBytes caps the response body retained for an error sample.
const maxErrorBodyBytes = 8 * 1024

func nowMs() int64 {
	return time.Now().UnixMilli()
}

// executeSingleRequest issues one request through the shared client and
// classifies the outcome into a sample. ctx is the phase context, cancelled
// when the run's broadcast fires, so an in-flight send or body read is
// abandoned promptly; cancelCh distinguishes that broadcast from other
// context failures.
func executeSingleRequest(ctx context.Context, client *http.Client, template *RequestTemplate, saveBodies SaveBodies, cancelCh <-chan struct{}) metrics.Sample {
	startedAt := time.Now()

	var bodyReader io.Reader
	if template.Body != "" {
		bodyReader = strings.NewReader(template.Body)
	}

	req, err := http.NewRequestWithContext(ctx, template.Method, template.URL, bodyReader)
	if err != nil {
		return metrics.Sample{
			TimestampMs: nowMs(),
			LatencyMs:   msSince(startedAt),
			Success:     false,
			ErrorType:   metrics.ErrorRead,
			ErrorMsg:    err.Error(),
			BytesOut:    template.BytesOut,
		}
	}

	for name, values := range template.Headers {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	if !template.KeepAlive {
		req.Header.Set("Connection", "close")
		req.Close = true
	}

	resp, err := client.Do(req)
	completedAt := nowMs()
	elapsed := msSince(startedAt)

	if err != nil {
		if cancelFired(cancelCh) {
			return cancelledSample(completedAt, elapsed, 0, 0, template.BytesOut)
		}
		return metrics.Sample{
			TimestampMs: completedAt,
			LatencyMs:   elapsed,
			Success:     false,
			ErrorType:   classifyTransportError(err),
			ErrorMsg:    err.Error(),
			BytesOut:    template.BytesOut,
		}
	}

	return handleResponse(resp, elapsed, completedAt, template.BytesOut, saveBodies, cancelCh)
}

// handleResponse reads the body and classifies the HTTP outcome. The status
// family decides success; a body-read failure after a status line was
// received is a read error carrying that status.
func handleResponse(resp *http.Response, elapsedMs float64, completedAt int64, bytesOut int64, saveBodies SaveBodies, cancelCh <-chan struct{}) metrics.Sample {
	defer resp.Body.Close()

	status := resp.StatusCode
	var statusError metrics.ErrorType
	switch {
	case status >= 400 && status < 500:
		statusError = metrics.ErrorHTTP4xx
	case status >= 500:
		statusError = metrics.ErrorHTTP5xx
	}

	headerBytes := estimateHeaderBytes(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if cancelFired(cancelCh) {
			return cancelledSample(completedAt, elapsedMs, status, headerBytes, bytesOut)
		}
		return metrics.Sample{
			TimestampMs: completedAt,
			LatencyMs:   elapsedMs,
			StatusCode:  status,
			Success:     false,
			ErrorType:   metrics.ErrorRead,
			ErrorMsg:    err.Error(),
			BytesIn:     headerBytes,
			BytesOut:    bytesOut,
		}
	}

	var sampleBody string
	if statusError != "" && saveBodies == SaveBodiesErrors {
		capped := body
		if len(capped) > maxErrorBodyBytes {
			capped = capped[:maxErrorBodyBytes]
		}
		sampleBody = strings.ToValidUTF8(string(capped), "�")
	}

	sample := metrics.Sample{
		TimestampMs: completedAt,
		LatencyMs:   elapsedMs,
		StatusCode:  status,
		Success:     status < 400,
		BytesIn:     headerBytes + int64(len(body)),
		BytesOut:    bytesOut,
		SampleBody:  sampleBody,
	}
	if statusError != "" {
		sample.ErrorType = statusError
		sample.ErrorMsg = fmt.Sprintf("HTTP %d", status)
	}
	return sample
}

func cancelledSample(completedAt int64, elapsedMs float64, status int, bytesIn, bytesOut int64) metrics.Sample {
	return metrics.Sample{
		TimestampMs: completedAt,
		LatencyMs:   elapsedMs,
		StatusCode:  status,
		Success:     false,
		ErrorType:   metrics.ErrorCancelled,
		ErrorMsg:    "Benchmark cancelled",
		BytesIn:     bytesIn,
		BytesOut:    bytesOut,
		Cancelled:   true,
	}
}

// classifyTransportError maps a transport-level failure (no usable response)
// onto the error taxonomy. Timeouts win over everything; DNS, TLS and
// connect failures are recognized by their concrete error types with a
// message fallback; the rest is a read error.
func classifyTransportError(err error) metrics.ErrorType {
	if errors.Is(err, context.DeadlineExceeded) {
		return metrics.ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return metrics.ErrorTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return metrics.ErrorDNS
	}

	var certErr *tls.CertificateVerificationError
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var recordErr tls.RecordHeaderError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuthority) ||
		errors.As(err, &hostnameErr) || errors.As(err, &recordErr) {
		return metrics.ErrorTLS
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "tls") || strings.Contains(message, "ssl") ||
		strings.Contains(message, "certificate") {
		return metrics.ErrorTLS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return metrics.ErrorConnect
	}
	if strings.Contains(message, "connection refused") {
		return metrics.ErrorConnect
	}

	return metrics.ErrorRead
}

func msSince(startedAt time.Time) float64 {
	return float64(time.Since(startedAt)) / float64(time.Millisecond)
}

// cancelFired reports whether the broadcast channel has been closed, without
// blocking.
func cancelFired(cancelCh <-chan struct{}) bool {
	if cancelCh == nil {
		return false
	}
	select {
	case <-cancelCh:
		return true
	default:
		return false
	}
}
