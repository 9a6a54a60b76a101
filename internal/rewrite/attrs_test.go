package rewrite

import (
	"net/url"
	"strings"
	"testing"

	"webmirror-proxy-go/internal/resolver"
)

const testPrefix = "https://mirror.test/api/browse?url="

func proxiedURL(abs string) string {
	return testPrefix + url.QueryEscape(abs)
}

func TestRewriteAttributes(t *testing.T) {
	rw := newTestRewriter()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "root-relative href",
			in:   `<a href="/x">l</a>`,
			want: `<a href="` + proxiedURL("https://ex.com/x") + `">l</a>`,
		},
		{
			name: "path-relative src",
			in:   `<img src="pics/cat.png">`,
			want: `<img src="` + proxiedURL("https://ex.com/pics/cat.png") + `">`,
		},
		{
			name: "single-quoted value keeps quote style",
			in:   `<img src='/i.png'>`,
			want: `<img src='` + proxiedURL("https://ex.com/i.png") + `'>`,
		},
		{
			name: "form action",
			in:   `<form action="/search" method="get">`,
			want: `<form action="` + proxiedURL("https://ex.com/search") + `" method="get">`,
		},
		{
			name: "data-src lazy image",
			in:   `<img data-src="/lazy.jpg">`,
			want: `<img data-src="` + proxiedURL("https://ex.com/lazy.jpg") + `">`,
		},
		{
			name: "video poster",
			in:   `<video poster="/frame.jpg">`,
			want: `<video poster="` + proxiedURL("https://ex.com/frame.jpg") + `">`,
		},
		{
			name: "absolute URL untouched",
			in:   `<a href="https://other.com/page">x</a>`,
			want: `<a href="https://other.com/page">x</a>`,
		},
		{
			name: "scheme-relative untouched",
			in:   `<script src="//cdn.com/lib.js"></script>`,
			want: `<script src="//cdn.com/lib.js"></script>`,
		},
		{
			name: "data URI untouched",
			in:   `<img src="data:image/gif;base64,R0lGOD">`,
			want: `<img src="data:image/gif;base64,R0lGOD">`,
		},
		{
			name: "mailto untouched",
			in:   `<a href="mailto:a@b.com">m</a>`,
			want: `<a href="mailto:a@b.com">m</a>`,
		},
		{
			name: "tel untouched",
			in:   `<a href="tel:+123">t</a>`,
			want: `<a href="tel:+123">t</a>`,
		},
		{
			name: "fragment-only untouched",
			in:   `<a href="#section">s</a>`,
			want: `<a href="#section">s</a>`,
		},
		{
			name: "javascript untouched",
			in:   `<a href="javascript:void(0)">j</a>`,
			want: `<a href="javascript:void(0)">j</a>`,
		},
		{
			name: "empty value untouched",
			in:   `<a href="">e</a>`,
			want: `<a href="">e</a>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rw.rewriteAttributes(tt.in)
			if got != tt.want {
				t.Errorf("rewriteAttributes(%q)\n got: %s\nwant: %s", tt.in, got, tt.want)
			}
		})
	}
}

// Every rewritten value, decoded and stripped of the prefix, must equal the
// absolute URL computed directly by the resolver.
func TestRewriteAttributes_RoundTrip(t *testing.T) {
	rw := newTestRewriter()
	res := &resolver.Resolver{}

	refs := []string{"/x", "a/b.html", "../up.css", "img.png?v=2"}
	for _, ref := range refs {
		t.Run(ref, func(t *testing.T) {
			got := rw.rewriteAttributes(`<a href="` + ref + `">l</a>`)

			start := strings.Index(got, `href="`) + len(`href="`)
			end := strings.Index(got[start:], `"`) + start
			val := got[start:end]

			if !strings.HasPrefix(val, testPrefix) {
				t.Fatalf("rewritten value %q lacks proxy prefix", val)
			}
			decoded, err := url.QueryUnescape(strings.TrimPrefix(val, testPrefix))
			if err != nil {
				t.Fatalf("QueryUnescape: %v", err)
			}
			if want := res.Resolve(ref, "https://ex.com/p"); decoded != want {
				t.Errorf("round-trip = %q, want %q", decoded, want)
			}
		})
	}
}

func TestRewriteSrcset(t *testing.T) {
	rw := newTestRewriter()

	in := `<img srcset="/small.jpg 480w, /big.jpg 2x, https://cdn.com/x.jpg 800w">`
	got := rw.rewriteSrcset(in)

	wantSmall := proxiedURL("https://ex.com/small.jpg") + " 480w"
	wantBig := proxiedURL("https://ex.com/big.jpg") + " 2x"

	if !strings.Contains(got, wantSmall) {
		t.Errorf("small candidate not rewritten with descriptor:\n%s", got)
	}
	if !strings.Contains(got, wantBig) {
		t.Errorf("big candidate not rewritten with descriptor:\n%s", got)
	}
	if !strings.Contains(got, "https://cdn.com/x.jpg 800w") {
		t.Errorf("absolute candidate should be untouched:\n%s", got)
	}
	if !strings.Contains(got, ", ") {
		t.Errorf("candidates not rejoined with comma-space:\n%s", got)
	}
}

func TestRewriteCSSURLs(t *testing.T) {
	rw := newTestRewriter()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare form",
			in:   `body { background: url(/bg.png); }`,
			want: `body { background: url(` + proxiedURL("https://ex.com/bg.png") + `); }`,
		},
		{
			name: "double-quoted form",
			in:   `div { background-image: url("img/tile.gif"); }`,
			want: `div { background-image: url(` + proxiedURL("https://ex.com/img/tile.gif") + `); }`,
		},
		{
			name: "single-quoted form",
			in:   `div { background: url('/a.png'); }`,
			want: `div { background: url(` + proxiedURL("https://ex.com/a.png") + `); }`,
		},
		{
			name: "inline style attribute",
			in:   `<div style="background:url(/i.png)">`,
			want: `<div style="background:url(` + proxiedURL("https://ex.com/i.png") + `)">`,
		},
		{
			name: "data URI untouched",
			in:   `url(data:image/png;base64,AAAA)`,
			want: `url(data:image/png;base64,AAAA)`,
		},
		{
			name: "absolute untouched",
			in:   `url(https://cdn.com/f.woff2)`,
			want: `url(https://cdn.com/f.woff2)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rw.rewriteCSSURLs(tt.in)
			if got != tt.want {
				t.Errorf("rewriteCSSURLs(%q)\n got: %s\nwant: %s", tt.in, got, tt.want)
			}
		})
	}
}
