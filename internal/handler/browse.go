package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"webmirror-proxy-go/internal/config"
	"webmirror-proxy-go/internal/model"
	"webmirror-proxy-go/internal/service"
)

// BrowsePath is the collaborator endpoint the client shell re-enters for
// every navigation inside proxied content.
const BrowsePath = "/api/browse"

// BrowseHandler serves the fetch-and-rewrite endpoint.
type BrowseHandler struct {
	service *service.ProxyService
	cfg     *config.Config
	logger  *slog.Logger
}

// NewBrowseHandler creates a BrowseHandler.
func NewBrowseHandler(svc *service.ProxyService, cfg *config.Config, logger *slog.Logger) *BrowseHandler {
	return &BrowseHandler{
		service: svc,
		cfg:     cfg,
		logger:  logger.With("component", "browse_handler"),
	}
}

// Handle runs the browse pipeline for the url query parameter and writes the
// JSON envelope. The envelope carries the target's status; the proxy's own
// status follows the mapping in the service layer.
func (h *BrowseHandler) Handle(c echo.Context) error {
	env, status := h.service.Browse(c.Request().Context(), c.QueryParam("url"), h.origin(c))
	return h.writeEnvelope(c, status, env)
}

// origin derives how this proxy is reachable: from the configured public base
// URL when set, otherwise from the inbound request itself.
func (h *BrowseHandler) origin(c echo.Context) service.Origin {
	scheme := c.Scheme()
	host := c.Request().Host

	if base := h.cfg.Rewrite.PublicBaseURL; base != "" {
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			scheme = u.Scheme
			host = u.Host
		}
	}

	return service.Origin{
		Scheme:      scheme,
		Host:        host,
		ProxyPrefix: scheme + "://" + host + BrowsePath + "?url=",
	}
}

// writeEnvelope serializes the envelope, falling back to a minimal
// guaranteed-valid error envelope if the content cannot be serialized.
// Binary bodies are caught up front: json.Marshal never fails on invalid
// UTF-8, it silently replaces the bytes with U+FFFD, which would corrupt the
// content instead of reporting the failure.
func (h *BrowseHandler) writeEnvelope(c echo.Context, status int, env *model.Envelope) error {
	if env.Content != nil && !utf8.ValidString(*env.Content) {
		h.logger.Error("fetched content is not valid UTF-8",
			"content_type", env.ContentType,
			"final_url", truncate(env.RawFinalURL, 200),
		)
		return h.writeFallback(c)
	}

	body, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("envelope serialization failed",
			"err", err,
			"final_url", env.RawFinalURL,
		)
		return h.writeFallback(c)
	}

	if !env.Success {
		h.logger.Warn("browse failed",
			"status", status,
			"target_status", env.StatusCode,
			"final_url", truncate(env.RawFinalURL, 200),
		)
	}

	return c.JSONBlob(status, body)
}

// writeFallback emits the minimal always-serializable error envelope.
func (h *BrowseHandler) writeFallback(c echo.Context) error {
	fallback := &model.Envelope{
		Success:    false,
		StatusCode: http.StatusInternalServerError,
		Error:      "Failed to serialize the fetched content.",
	}
	body, _ := json.Marshal(fallback)
	return c.JSONBlob(http.StatusInternalServerError, body)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "") + "..."
}
