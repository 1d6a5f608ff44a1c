package rtorrent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestPayloadFetcherSkipsCertificateVerification(t *testing.T) {
	t.Parallel()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("torrent-bytes"))
	}))
	defer srv.Close()

	data, err := NewPayloadFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "torrent-bytes" {
		t.Fatalf("unexpected payload %q", data)
	}
}

func TestPayloadFetcherFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"not found", http.StatusNotFound, "nope"},
		{"server error", http.StatusInternalServerError, ""},
		{"empty body", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := payloadServer(t, tt.status, []byte(tt.body))
			_, err := NewPayloadFetcherWithClient(srv.Client()).Fetch(context.Background(), srv.URL)
			if !errors.Is(err, ErrUpstreamFetch) {
				t.Fatalf("expected upstream fetch error, got %v", err)
			}
		})
	}
}

func TestPayloadFetcherBadURL(t *testing.T) {
	t.Parallel()

	_, err := NewPayloadFetcher(time.Second).Fetch(context.Background(), "://broken")
	if !errors.Is(err, ErrUpstreamFetch) {
		t.Fatalf("expected upstream fetch error, got %v", err)
	}
}
