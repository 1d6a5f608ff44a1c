package rtorrent

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxPayloadBytes bounds how much of a payload URL is read.
const MaxPayloadBytes = 32 << 20

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// HTTPDoer describes the HTTP client used to retrieve payloads.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// PayloadFetcher downloads payloads with certificate verification disabled,
// matching the trust boundary of the daemon's owner. No retries.
type PayloadFetcher struct {
	client HTTPDoer
}

func NewPayloadFetcher(timeout time.Duration) *PayloadFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	return &PayloadFetcher{
		client: &http.Client{Timeout: timeout, Transport: base},
	}
}

func NewPayloadFetcherWithClient(client HTTPDoer) *PayloadFetcher {
	return &PayloadFetcher{client: client}
}

func (f *PayloadFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &UpstreamFetchError{URL: rawURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &UpstreamFetchError{URL: rawURL, Err: err}
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamFetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadBytes+1))
	if err != nil {
		return nil, &UpstreamFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}
	if len(data) > MaxPayloadBytes {
		return nil, &UpstreamFetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: fmt.Errorf("payload exceeds %d bytes", MaxPayloadBytes)}
	}
	if len(data) == 0 {
		return nil, &UpstreamFetchError{URL: rawURL}
	}

	return data, nil
}
