package metrics

import "testing"

func TestNormalizeMethod(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GET", "GET"},
		{"POST", "POST"},
		{"PROPFIND", "other"},
		{"", "other"},
	}
	for _, tt := range tests {
		if got := NormalizeMethod(tt.in); got != tt.want {
			t.Errorf("NormalizeMethod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/browse", "/api/browse"},
		{"/api/browse/extra", "/api/browse"},
		{"/healthz", "/healthz"},
		{"/proxy/status", "/proxy/status"},
		{"/metrics", "/metrics"},
		{"/admin", "other"},
		{"/", "other"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0xx"},
		{101, "1xx"},
		{200, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		if got := StatusClass(tt.in); got != tt.want {
			t.Errorf("StatusClass(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew_RegistersCollectors(t *testing.T) {
	m := New()
	if m.Registry == nil {
		t.Fatal("Registry is nil")
	}

	// Touch each collector once; a registration conflict would have panicked
	// in New already.
	m.RequestsTotal.WithLabelValues("GET", "200", "/api/browse").Inc()
	m.ResponseBytes.WithLabelValues("/api/browse").Observe(4096)
	m.FetchResponses.WithLabelValues("2xx").Inc()
	m.RewriteDuration.Observe(0.01)

	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"webmirror_proxy_http_requests_total",
		"webmirror_proxy_http_response_size_bytes",
		"webmirror_proxy_fetch_responses_total",
		"webmirror_proxy_rewrite_duration_seconds",
	} {
		if !names[want] {
			t.Errorf("metric family %q not gathered", want)
		}
	}
}
