package rtorrent

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func captureHeaders(t *testing.T, tr *Transport) http.Header {
	t.Helper()

	var got http.Header
	tr.Base = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Clone()
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader("")), Request: r}, nil
	})

	req, err := http.NewRequest(http.MethodPost, "http://rtorrent.local/RPC2", strings.NewReader("<methodCall/>"))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer stale")

	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	_ = resp.Body.Close()

	if req.Header.Get("Authorization") != "Bearer stale" {
		t.Fatal("original request headers were mutated")
	}
	return got
}

func TestTransportWithoutCredentialsOmitsAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"none", "", ""},
		{"username only", "admin", ""},
		{"password only", "", "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := captureHeaders(t, NewTransport(nil, tt.username, tt.password))
			if _, ok := h["Authorization"]; ok {
				t.Fatalf("expected no Authorization header, got %q", h.Get("Authorization"))
			}
			if h.Get("User-Agent") != UserAgent || h.Get("Content-Type") != ContentType {
				t.Fatalf("unexpected fixed headers: %v", h)
			}
		})
	}
}

func TestTransportWithCredentialsSetsBasicAuth(t *testing.T) {
	t.Parallel()

	h := captureHeaders(t, NewTransport(nil, "admin", "s3cr:et"))
	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:s3cr:et"))
	if got := h.Get("Authorization"); got != want {
		t.Fatalf("Authorization = %q, want %q", got, want)
	}
	if h.Get("Content-Type") != "text/xml" {
		t.Fatalf("unexpected content type %q", h.Get("Content-Type"))
	}
}
