// Package model defines shared types for the mirror proxy.
package model

// FetchResult is the outcome of one outbound fetch, including the redirect
// chain's final URL. StatusCode is 0 when the transport never produced a
// response.
type FetchResult struct {
	FinalURL    string
	Body        string
	StatusCode  int
	ContentType string
}

// IsHTML reports whether the fetched content type indicates an HTML document
// that should go through the rewrite pipeline.
func (f *FetchResult) IsHTML() bool {
	return isHTMLContentType(f.ContentType)
}

// Envelope is the JSON response contract returned for every browse request.
// StatusCode is the target server's status, distinct from the proxy's own
// transport status. FinalURL is HTML-escaped for display; RawFinalURL is the
// unescaped form for programmatic reuse by the client shell.
type Envelope struct {
	Success     bool    `json:"success"`
	Content     *string `json:"content"`
	StatusCode  int     `json:"statusCode"`
	FinalURL    string  `json:"finalUrl"`
	RawFinalURL string  `json:"rawFinalUrl"`
	Error       string  `json:"error,omitempty"`
	ContentType string  `json:"contentType,omitempty"`
}
