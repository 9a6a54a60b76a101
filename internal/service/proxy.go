// Package service orchestrates the browse pipeline: validate the target URL,
// fetch it, rewrite HTML content, and build the response envelope.
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"webmirror-proxy-go/internal/client"
	"webmirror-proxy-go/internal/config"
	"webmirror-proxy-go/internal/metrics"
	"webmirror-proxy-go/internal/model"
	"webmirror-proxy-go/internal/resolver"
	"webmirror-proxy-go/internal/rewrite"
)

// Origin describes how the proxy itself is reachable for one request. It
// supplies the prefix rewritten references point at and the ambient
// scheme/host the resolver falls back to.
type Origin struct {
	Scheme      string
	Host        string
	ProxyPrefix string
}

// ProxyService runs the fetch-and-rewrite pipeline.
type ProxyService struct {
	client  *client.FetchClient
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewProxyService creates a ProxyService. The metrics parameter is optional;
// pass nil to disable rewrite metrics recording.
func NewProxyService(c *client.FetchClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *ProxyService {
	return &ProxyService{
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "proxy_service"),
		metrics: m,
	}
}

// Browse runs the whole pipeline for one target URL and returns the response
// envelope plus the proxy's own HTTP status. It never returns an error:
// every failure mode is folded into the envelope.
func (s *ProxyService) Browse(ctx context.Context, rawURL string, origin Origin) (*model.Envelope, int) {
	target, err := resolver.NormalizeTarget(rawURL)
	if err != nil {
		return s.validationEnvelope(err)
	}

	result, err := s.client.Fetch(ctx, target)
	if err != nil {
		return s.transportEnvelope(result, err)
	}

	if result.StatusCode >= 200 && result.StatusCode < 400 {
		return s.successEnvelope(result, origin), http.StatusOK
	}
	return s.upstreamErrorEnvelope(result)
}

// validationEnvelope maps validator failures. No fetch was attempted.
func (s *ProxyService) validationEnvelope(err error) (*model.Envelope, int) {
	env := &model.Envelope{Success: false}

	var invalid *resolver.InvalidURLError
	switch {
	case errors.Is(err, resolver.ErrEmptyURL):
		env.Error = "URL cannot be empty."
	case errors.As(err, &invalid):
		env.Error = "Invalid URL format: " + html.EscapeString(invalid.Attempted)
		env.FinalURL = html.EscapeString(invalid.Attempted)
		env.RawFinalURL = invalid.Attempted
	default:
		env.Error = err.Error()
	}

	return env, http.StatusBadRequest
}

// transportEnvelope maps fetch failures that happened before any HTTP
// response was obtained: DNS, connect, TLS handshake, timeout, redirect cap.
// Timeouts map to 503, everything else to 502. Never retried.
func (s *ProxyService) transportEnvelope(result *model.FetchResult, err error) (*model.Envelope, int) {
	s.logger.Error("target fetch failed", "url", result.FinalURL, "err", err)

	env := &model.Envelope{
		Success:     false,
		StatusCode:  result.StatusCode,
		FinalURL:    html.EscapeString(result.FinalURL),
		RawFinalURL: result.FinalURL,
		Error:       "Failed to fetch content. Could not connect to the server, the URL may be invalid, or the target server is not responding.",
	}

	status := http.StatusBadGateway
	if isTimeout(err) {
		status = http.StatusServiceUnavailable
	}
	return env, status
}

// successEnvelope builds the envelope for a 2xx/3xx target response. HTML
// bodies run through the rewrite pipeline; everything else passes through
// unmodified.
func (s *ProxyService) successEnvelope(result *model.FetchResult, origin Origin) *model.Envelope {
	content := result.Body

	if result.IsHTML() {
		rw := rewrite.New(rewrite.Context{
			BaseURL:     result.FinalURL,
			ProxyPrefix: origin.ProxyPrefix,
			Resolver: &resolver.Resolver{
				FallbackScheme: origin.Scheme,
				FallbackHost:   origin.Host,
			},
		})

		start := time.Now()
		content = rw.Rewrite(content)
		if s.metrics != nil {
			s.metrics.RewriteDuration.Observe(time.Since(start).Seconds())
		}
	}

	return &model.Envelope{
		Success:     true,
		Content:     &content,
		StatusCode:  result.StatusCode,
		FinalURL:    html.EscapeString(result.FinalURL),
		RawFinalURL: result.FinalURL,
		ContentType: result.ContentType,
	}
}

// upstreamErrorEnvelope maps target 4xx/5xx responses. The target's error
// body, when present, is still forwarded so the caller may display it. The
// proxy answers 502 for 5xx (and the never-responded 0 case) and mirrors the
// target's status for other 4xx.
func (s *ProxyService) upstreamErrorEnvelope(result *model.FetchResult) (*model.Envelope, int) {
	env := &model.Envelope{
		Success:     false,
		StatusCode:  result.StatusCode,
		FinalURL:    html.EscapeString(result.FinalURL),
		RawFinalURL: result.FinalURL,
		Error:       upstreamErrorMessage(result.StatusCode),
		ContentType: result.ContentType,
	}
	if result.Body != "" {
		body := result.Body
		env.Content = &body
	}

	status := result.StatusCode
	if status == 0 || status >= 500 {
		status = http.StatusBadGateway
	}
	return env, status
}

// upstreamErrorMessage selects the user-facing description by status class.
func upstreamErrorMessage(code int) string {
	if code == 0 {
		return "Failed to fetch content. Could not connect to the server, the URL may be invalid, or the target server is not responding."
	}

	msg := fmt.Sprintf("Failed to fetch content. The remote server responded with status: %d.", code)
	switch {
	case code == http.StatusForbidden:
		msg += " Access Forbidden. The target site may be blocking direct access or proxy attempts."
	case code == http.StatusNotFound:
		msg += " Not Found. The requested resource was not found on the target server."
	case code >= 500:
		msg += " The target server encountered an internal error."
	case code >= 400:
		msg += " There was an issue with the request to the target server (e.g., bad request, unauthorized)."
	}
	return msg
}

// isTimeout reports whether a transport error was a timeout rather than a
// hard connectivity failure.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
