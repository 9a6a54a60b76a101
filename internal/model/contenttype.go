package model

import (
	"mime"
	"strings"
)

// htmlMediaTypes are the media types the rewrite pipeline understands.
// Everything else is passed through untouched.
var htmlMediaTypes = map[string]bool{
	"text/html":             true,
	"application/xhtml+xml": true,
}

// isHTMLContentType reports whether a Content-Type header value names an HTML
// document. Parameters (charset etc.) are ignored; a malformed header falls
// back to a prefix check so real-world sloppy servers still get rewritten.
func isHTMLContentType(ct string) bool {
	if ct == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}
	return htmlMediaTypes[mediaType]
}
