package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestIsHTML(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{"text/html", true},
		{"text/html; charset=utf-8", true},
		{"TEXT/HTML", true},
		{"application/xhtml+xml", true},
		{"text/html;charset", true}, // malformed parameters, prefix fallback
		{"application/json", false},
		{"image/png", false},
		{"text/plain; charset=utf-8", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			f := &FetchResult{ContentType: tt.contentType}
			if got := f.IsHTML(); got != tt.want {
				t.Errorf("IsHTML(%q) = %v, want %v", tt.contentType, got, tt.want)
			}
		})
	}
}

func TestEnvelopeJSON(t *testing.T) {
	content := "<html></html>"
	env := &Envelope{
		Success:     true,
		Content:     &content,
		StatusCode:  200,
		FinalURL:    "https://ex.com/",
		RawFinalURL: "https://ex.com/",
		ContentType: "text/html",
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)

	for _, want := range []string{
		`"success":true`,
		`"content":"\u003chtml\u003e\u003c/html\u003e"`,
		`"statusCode":200`,
		`"finalUrl":"https://ex.com/"`,
		`"rawFinalUrl":"https://ex.com/"`,
		`"contentType":"text/html"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("envelope JSON missing %s:\n%s", want, s)
		}
	}
	if strings.Contains(s, `"error"`) {
		t.Errorf("empty error must be omitted:\n%s", s)
	}
}

// A failed fetch has no content; the field must serialize as an explicit null
// so clients can distinguish "no content" from an empty page.
func TestEnvelopeJSON_NullContent(t *testing.T) {
	env := &Envelope{
		Success:    false,
		StatusCode: 0,
		Error:      "boom",
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"content":null`) {
		t.Errorf("nil content must serialize as null:\n%s", data)
	}
	if !strings.Contains(string(data), `"error":"boom"`) {
		t.Errorf("error missing:\n%s", data)
	}
}
