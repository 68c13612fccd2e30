package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequestIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded single", "203.0.113.9", "", "10.0.0.1:1234", "203.0.113.9"},
		{"forwarded list", "203.0.113.9, 10.0.0.2", "", "10.0.0.1:1234", "203.0.113.9"},
		{"real ip", "", "198.51.100.7", "10.0.0.1:1234", "198.51.100.7"},
		{"remote addr", "", "", "10.0.0.1:1234", "10.0.0.1"},
		{"remote addr no port", "", "", "10.0.0.1", "10.0.0.1"},
		{"nothing", "", "", "", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-Ip", tt.realIP)
			}
			if got := RequestIP(r); got != tt.want {
				t.Errorf("RequestIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP_Context(t *testing.T) {
	ctx := context.Background()
	if got := ClientIP(ctx); got != "unknown" {
		t.Errorf("ClientIP(empty) = %q", got)
	}
	ctx = WithClientIP(ctx, "203.0.113.9")
	if got := ClientIP(ctx); got != "203.0.113.9" {
		t.Errorf("ClientIP = %q", got)
	}
}

func TestCaptureClientIP(t *testing.T) {
	var seen string
	h := CaptureClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "203.0.113.9" {
		t.Errorf("handler saw ip %q", seen)
	}
}

func TestRequestLog_EmitsPortalAndStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/hub/auth/login", nil))
	out := buf.String()
	for _, want := range []string{"portal=hub", "action=login", "status=418"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
}
