// Package client performs outbound fetches of target pages with
// browser-impersonation semantics.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"golang.org/x/net/publicsuffix"

	"webmirror-proxy-go/internal/config"
	"webmirror-proxy-go/internal/metrics"
	"webmirror-proxy-go/internal/model"
)

// browserHeaders are sent with every outbound fetch so targets treat the
// proxy like a regular desktop browser.
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

// FetchClient fetches target URLs. The pooled transport is shared across
// fetches; cookie state is not (each fetch gets its own jar).
type FetchClient struct {
	transport    *http.Transport
	timeout      time.Duration
	maxRedirects int
	maxBodyBytes int64
	userAgent    string
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

// NewFetchClient creates a FetchClient with connection pooling, TLS >= 1.2 and
// certificate verification enabled. The metrics parameter is optional; pass
// nil to disable fetch metrics recording.
func NewFetchClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *FetchClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Fetch.IdleConnections,
		MaxIdleConnsPerHost: cfg.Fetch.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &FetchClient{
		transport:    transport,
		timeout:      time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second,
		maxRedirects: cfg.Fetch.MaxRedirects,
		maxBodyBytes: cfg.Fetch.MaxBodyBytes,
		userAgent:    cfg.Fetch.UserAgent,
		logger:       logger.With("component", "fetch_client"),
		metrics:      m,
	}
}

// Fetch retrieves the target URL, following redirects up to the configured
// cap. Cookies set along the redirect chain are replayed within that chain
// via a jar scoped to this single call; the jar is never shared and is
// released when the call returns.
//
// On transport failure (DNS, connect, TLS, timeout, redirect cap) the
// returned FetchResult carries status 0 and the error describes the failure.
func (c *FetchClient) Fetch(ctx context.Context, target string) (*model.FetchResult, error) {
	hc := &http.Client{
		Transport: c.transport,
		Jar:       c.newJar(),
		Timeout:   c.timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", c.maxRedirects)
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return &model.FetchResult{FinalURL: target}, fmt.Errorf("build fetch request: %w", err)
	}
	c.setBrowserHeaders(req)

	c.logger.Debug("fetching target", "url", target)

	start := time.Now()
	resp, err := hc.Do(req)
	duration := time.Since(start).Seconds()

	if err != nil {
		if c.metrics != nil {
			c.metrics.FetchDuration.WithLabelValues(metrics.StatusClass(0)).Observe(duration)
			c.metrics.FetchResponses.WithLabelValues(metrics.StatusClass(0)).Inc()
		}
		return &model.FetchResult{FinalURL: target}, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.metrics != nil {
		class := metrics.StatusClass(resp.StatusCode)
		c.metrics.FetchDuration.WithLabelValues(class).Observe(duration)
		c.metrics.FetchResponses.WithLabelValues(class).Inc()
	}

	finalURL := target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return &model.FetchResult{FinalURL: finalURL, StatusCode: resp.StatusCode},
			fmt.Errorf("read body of %s: %w", finalURL, err)
	}

	return &model.FetchResult{
		FinalURL:    finalURL,
		Body:        body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// newJar builds the per-fetch cookie jar. Jar construction failure is
// non-fatal: the fetch proceeds without cookie persistence.
func (c *FetchClient) newJar() http.CookieJar {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		c.logger.Warn("cookie jar unavailable; fetching without cookie persistence", "err", err)
		return nil
	}
	return jar
}

// setBrowserHeaders applies the browser identity plus Origin/Referer derived
// from the target's own scheme and host.
func (c *FetchClient) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	if origin := originOf(req.URL); origin != "" {
		req.Header.Set("Origin", origin)
		req.Header.Set("Referer", origin+"/")
	}
	// Accept-Encoding is left to the transport, which negotiates gzip and
	// decodes it transparently.
}

// readBody reads at most maxBodyBytes; larger responses are rejected rather
// than silently truncated.
func (c *FetchClient) readBody(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxBodyBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > c.maxBodyBytes {
		return "", fmt.Errorf("response body exceeds %d bytes", c.maxBodyBytes)
	}
	return string(data), nil
}

func originOf(u *url.URL) string {
	if u == nil || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
