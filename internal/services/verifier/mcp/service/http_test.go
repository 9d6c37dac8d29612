package service

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTTPHandlerRejectsForeignHost(t *testing.T) {
	handler := NewHTTPHandler(newTestServer(t), HTTPOptions{})

	tests := []struct {
		name   string
		host   string
		origin string
	}{
		{name: "remote host", host: "evil.example:8080"},
		{name: "remote origin", host: "localhost:8080", origin: "http://evil.example"},
		{name: "empty host", host: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
			req.Host = tc.host
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusForbidden {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
			}
		})
	}
}

func TestHTTPHandlerAllowsConfiguredHost(t *testing.T) {
	handler := NewHTTPHandler(newTestServer(t), HTTPOptions{AllowedHosts: []string{" Verifier.Example "}})
	if !handler.isAllowedHostHeader("verifier.example:443") {
		t.Fatal("expected configured host to be allowed")
	}
	if !handler.isAllowedHostHeader("[::1]:8080") {
		t.Fatal("expected loopback to be allowed")
	}
	if handler.isAllowedHostHeader("other.example") {
		t.Fatal("expected unknown host to be rejected")
	}
}

func TestHTTPHandlerBearerToken(t *testing.T) {
	handler := NewHTTPHandler(newTestServer(t), HTTPOptions{Token: "s3cret"})

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing"},
		{name: "wrong scheme", header: "Basic s3cret"},
		{name: "wrong token", header: "Bearer nope"},
		{name: "empty token", header: "Bearer  "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader("{}"))
			req.Host = "localhost:8080"
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
			if rec.Header().Get("WWW-Authenticate") == "" {
				t.Fatal("expected WWW-Authenticate header")
			}
		})
	}

	t.Run("valid token passes the guard", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
		req.Host = "localhost:8080"
		req.Header.Set("Authorization", "Bearer s3cret")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusUnauthorized || rec.Code == http.StatusForbidden {
			t.Fatalf("status = %d, want request to reach the transport", rec.Code)
		}
	})
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "localhost:8080", want: "localhost", ok: true},
		{in: "[::1]:80", want: "::1", ok: true},
		{in: "[::1]", want: "::1", ok: true},
		{in: "::1", want: "::1", ok: true},
		{in: "example.com", want: "example.com", ok: true},
		{in: "  ", ok: false},
		{in: "[::1", ok: false},
	}
	for _, tc := range tests {
		got, ok := normalizeHost(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("normalizeHost(%q) = %q, %v, want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
