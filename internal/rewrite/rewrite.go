// Package rewrite transforms fetched HTML so every embedded reference routes
// back through the proxy.
//
// The passes are best-effort text transformations over the raw document, in a
// fixed order: base-tag normalization, security markup stripping,
// service-worker neutralization, attribute URL rewriting, CSS url()
// rewriting, inline-script URL rewriting and ES-module import rewriting.
// They are intentionally conservative: an ambiguous match is left untouched
// rather than risk corrupting the page.
package rewrite

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"webmirror-proxy-go/internal/resolver"
)

// Context carries the per-request inputs every pass needs: the final URL of
// the fetched document (the base for reference resolution) and the proxy's
// own prefix, ending in its URL-query convention (e.g.
// "https://mirror.example.com/api/browse?url=").
type Context struct {
	BaseURL     string
	ProxyPrefix string
	Resolver    *resolver.Resolver
}

// Rewriter applies the rewrite pipeline for one document.
type Rewriter struct {
	base   string
	prefix string
	res    *resolver.Resolver
}

// New creates a Rewriter for one request. A nil Resolver gets a zero-value
// one (no ambient fallback).
func New(rc Context) *Rewriter {
	res := rc.Resolver
	if res == nil {
		res = &resolver.Resolver{}
	}
	return &Rewriter{
		base:   rc.BaseURL,
		prefix: rc.ProxyPrefix,
		res:    res,
	}
}

// Rewrite runs all passes in pipeline order and returns the rewritten
// document. Input and output are plain strings; every pass is pure.
func (rw *Rewriter) Rewrite(doc string) string {
	doc = rw.normalizeBaseTag(doc)
	doc = rw.stripSecurityMarkup(doc)
	doc = rw.neutralizeServiceWorkers(doc)
	doc = rw.rewriteAttributes(doc)
	doc = rw.rewriteSrcset(doc)
	doc = rw.rewriteCSSURLs(doc)
	doc = rw.rewriteScripts(doc)
	return doc
}

// proxied turns an absolute URL into its proxy-routed form.
func (rw *Rewriter) proxied(absURL string) string {
	return rw.prefix + url.QueryEscape(absURL)
}

// skipPrefixes are value prefixes that must never be rewritten.
var skipPrefixes = []string{"data:", "mailto:", "tel:", "javascript:", "about:", "blob:"}

// shouldSkip reports whether an attribute or CSS URL value must be left
// untouched: empty, fragment-only, scheme-relative, already absolute, or one
// of the non-fetchable schemes.
func (rw *Rewriter) shouldSkip(val string) bool {
	v := strings.TrimSpace(val)
	if v == "" || strings.HasPrefix(v, "#") || strings.HasPrefix(v, "//") {
		return true
	}
	lower := strings.ToLower(v)
	for _, p := range skipPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return schemePattern.MatchString(v)
}

// schemePattern matches values that already carry a URL scheme.
var schemePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*:`)

// attrEscape escapes a value for embedding in a quoted HTML attribute.
func attrEscape(s string) string {
	return html.EscapeString(s)
}
