package resolver

import (
	"errors"
	"strings"
	"testing"
)

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"schemeless gets https", "example.com", "https://example.com"},
		{"schemeless with path", "example.com/page", "https://example.com/page"},
		{"http preserved", "http://example.com", "http://example.com"},
		{"https preserved", "https://example.com/a?q=1", "https://example.com/a?q=1"},
		{"ftp preserved", "ftp://example.com/file", "ftp://example.com/file"},
		{"ftps preserved", "ftps://example.com/file", "ftps://example.com/file"},
		{"case-insensitive scheme detection", "HTTPS://example.com", "HTTPS://example.com"},
		{"surrounding whitespace trimmed", "  example.com  ", "https://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTarget(tt.in)
			if err != nil {
				t.Fatalf("NormalizeTarget(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTarget_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n"} {
		if _, err := NormalizeTarget(in); !errors.Is(err, ErrEmptyURL) {
			t.Errorf("NormalizeTarget(%q) error = %v, want ErrEmptyURL", in, err)
		}
	}
}

func TestNormalizeTarget_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"embedded space", "exa mple.com"},
		{"no host", "https:///path"},
		{"bare scheme", "https://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeTarget(tt.in)
			var invalid *InvalidURLError
			if !errors.As(err, &invalid) {
				t.Fatalf("NormalizeTarget(%q) error = %v, want *InvalidURLError", tt.in, err)
			}
			if !strings.Contains(err.Error(), "invalid URL format") {
				t.Errorf("error message %q should mention invalid URL format", err.Error())
			}
		})
	}
}
