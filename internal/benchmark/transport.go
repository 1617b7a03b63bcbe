package benchmark

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const maxRedirects = 10

// BuildClient constructs the HTTP client shared by every worker of a run.
// The per-request timeout, redirect policy, proxy, TLS verification and
// keep-alive behavior all come from the spec and never change mid-run.
func BuildClient(spec *Spec) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		MaxIdleConns:      100,
		DisableKeepAlives: !spec.Transport.KeepAlive,
	}

	if proxy := strings.TrimSpace(spec.Transport.ProxyURL); proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil || proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, fmt.Errorf("invalid proxy URL %q", proxy)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	if !spec.Transport.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   spec.Timeout(),
	}

	if spec.Transport.FollowRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		}
	} else {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}
