package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func clientIPOf(t *testing.T, proxies []string, remote string, headers map[string]string) string {
	t.Helper()
	mw, err := TrustedProxies(proxies)
	if err != nil {
		t.Fatalf("TrustedProxies: %v", err)
	}
	var got string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = RealIP(r)
	}))
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = remote
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	h.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestTrustedProxies(t *testing.T) {
	tests := []struct {
		name    string
		proxies []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:   "no proxies ignores headers",
			remote: "198.51.100.7:5000",
			headers: map[string]string{
				"X-Forwarded-For":  "203.0.113.9",
				"CF-Connecting-IP": "203.0.113.10",
			},
			want: "198.51.100.7",
		},
		{
			name:    "untrusted peer ignores headers",
			proxies: []string{"10.0.0.0/8"},
			remote:  "198.51.100.7:5000",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.9"},
			want:    "198.51.100.7",
		},
		{
			name:    "trusted peer uses rightmost untrusted hop",
			proxies: []string{"10.0.0.0/8"},
			remote:  "10.0.0.2:5000",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.9, 10.0.0.5"},
			want:    "203.0.113.9",
		},
		{
			name:    "trusted peer with cloudflare header",
			proxies: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"CF-Connecting-IP": "203.0.113.10"},
			want:    "203.0.113.10",
		},
		{
			name:    "trusted peer without headers",
			proxies: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			want:    "127.0.0.1",
		},
		{
			name:    "garbage hop keeps peer",
			proxies: []string{"127.0.0.1"},
			remote:  "127.0.0.1:5000",
			headers: map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:    "127.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clientIPOf(t, tt.proxies, tt.remote, tt.headers); got != tt.want {
				t.Errorf("client ip = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrustedProxiesRejectsBadEntry(t *testing.T) {
	if _, err := TrustedProxies([]string{"10.0.0.0/99"}); err == nil {
		t.Error("expected error for invalid prefix")
	}
	if _, err := TrustedProxies([]string{"proxy.local"}); err == nil {
		t.Error("expected error for hostname")
	}
}
