// Package resolver normalizes user-supplied target URLs and resolves
// possibly-relative references against a base URL.
//
// Resolution deliberately implements a simplified subset of RFC 3986:
// scheme-relative, fragment-only, query-only and path-relative references with
// dot-segment normalization. It never fails; malformed input degrades to
// returning the reference unchanged so a bad URL in fetched markup can never
// abort a rewrite.
package resolver

import (
	"net/url"
	"regexp"
	"strings"
)

// Resolver resolves references against base URLs. FallbackScheme and
// FallbackHost are used to reconstruct a usable base when the base itself
// lacks a scheme or host; they are threaded in explicitly from the inbound
// request rather than read from ambient state.
type Resolver struct {
	FallbackScheme string
	FallbackHost   string
}

// absolutePattern matches references that already carry a scheme
// (http:, https:, data:, mailto:, tel:, ...). Such references are returned
// unchanged.
var absolutePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*:`)

// Resolve resolves ref against base into a best-effort absolute URL string.
func (r *Resolver) Resolve(ref, base string) string {
	if ref == "" {
		return base
	}
	if absolutePattern.MatchString(ref) {
		return ref
	}
	if strings.HasPrefix(ref, "#") || strings.HasPrefix(ref, "?") {
		return stripQueryFragment(base) + ref
	}
	if strings.HasPrefix(ref, "//") {
		return r.baseScheme(base) + ":" + ref
	}

	u, err := url.Parse(stripQueryFragment(base))
	if err != nil || u.Scheme == "" || u.Host == "" {
		u = r.reconstructBase(base)
		if u == nil {
			// Explicit fallback: without a usable base the reference is
			// returned unresolved rather than failing.
			return ref
		}
	}

	refPath, refSuffix := splitPathSuffix(ref)

	var p string
	if strings.HasPrefix(refPath, "/") {
		p = refPath
	} else {
		p = baseDir(u.Path) + refPath
	}

	return u.Scheme + "://" + u.Host + normalizePath(p) + refSuffix
}

// baseScheme extracts the scheme of base, falling back to the ambient request
// scheme and finally https.
func (r *Resolver) baseScheme(base string) string {
	if i := strings.Index(base, "://"); i > 0 {
		return base[:i]
	}
	if r.FallbackScheme != "" {
		return r.FallbackScheme
	}
	return "https"
}

// reconstructBase rebuilds a scheme-and-host base URL from the ambient request
// context when base alone is unusable. Returns nil when reconstruction is
// impossible.
func (r *Resolver) reconstructBase(base string) *url.URL {
	if r.FallbackScheme == "" || r.FallbackHost == "" {
		return nil
	}
	path := stripQueryFragment(base)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(r.FallbackScheme + "://" + r.FallbackHost + path)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}

// stripQueryFragment cuts base at its first '?' or '#'.
func stripQueryFragment(base string) string {
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		return base[:i]
	}
	return base
}

// splitPathSuffix splits a reference into its path part and its own
// query/fragment suffix, which is re-appended verbatim after path
// normalization.
func splitPathSuffix(ref string) (path, suffix string) {
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		return ref[:i], ref[i:]
	}
	return ref, ""
}

// baseDir computes the directory segment of a base path: the path itself when
// it ends in '/', otherwise its parent directory. The result always has
// leading and trailing slashes.
func baseDir(path string) string {
	if path == "" || path == "/" {
		return "/"
	}
	if !strings.HasSuffix(path, "/") {
		if i := strings.LastIndex(path, "/"); i >= 0 {
			path = path[:i+1]
		} else {
			path = "/"
		}
	}
	switch path {
	case "", ".", "\\":
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path
}

// normalizePath collapses '.' segments, redundant empty segments and resolves
// '..' segments. Extra '..' at the root is a no-op, never an error.
func normalizePath(p string) string {
	trailingSlash := strings.HasSuffix(p, "/") ||
		strings.HasSuffix(p, "/.") || strings.HasSuffix(p, "/..") ||
		p == "." || p == ".."

	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			// drop
		case "..":
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		default:
			out = append(out, seg)
		}
	}

	normalized := "/" + strings.Join(out, "/")
	if trailingSlash && normalized != "/" {
		normalized += "/"
	}
	return normalized
}
