package rtorrent

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kolo/xmlrpc"
)

const DefaultTimeout = 30 * time.Second

// Remote procedure names. The trailing "=" on field getters passed to
// d.multicall2 is part of the daemon's wire dialect and must be kept.
const (
	MethodMulticall    = "d.multicall2"
	MethodVersion      = "system.client_version"
	MethodLoadRaw      = "load.raw"
	MethodLoadRawStart = "load.raw_start"
	MethodStart        = "d.start"
	MethodStop         = "d.stop"
	MethodClose        = "d.close"
	MethodErase        = "d.erase"
	MethodSetPriority  = "d.priority.set"
	MethodSetDirectory = "d.directory.set"
	MethodSetLabel     = "d.custom1.set"
	MethodDownRate     = "d.down.rate"
)

// Config describes one daemon endpoint.
type Config struct {
	URL         string
	Username    string
	Password    string
	Timeout     time.Duration
	InsecureTLS bool
}

// Invoker is the single call primitive every higher layer is built on.
type Invoker interface {
	Invoke(ctx context.Context, method string, args ...any) (any, error)
}

// Session owns the Transport and address of one daemon. It holds no state
// between calls and never retries.
type Session struct {
	url    string
	client *http.Client
}

func NewSession(cfg Config) (*Session, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rtorrent url is required")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid rtorrent url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported rtorrent url scheme %q", u.Scheme)
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.InsecureTLS {
		base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Session{
		url: u.String(),
		client: &http.Client{
			Timeout:   timeout,
			Transport: NewTransport(base, cfg.Username, cfg.Password),
		},
	}, nil
}

func (s *Session) URL() string {
	return s.url
}

// Invoke sends one XML-RPC call and returns the decoded result untouched.
func (s *Session) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	body, err := xmlrpc.EncodeMethodCall(method, args...)
	if err != nil {
		return nil, &RemoteCallError{Method: method, Kind: ErrProtocolFault, Err: fmt.Errorf("failed to encode call: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, &RemoteCallError{Method: method, Kind: ErrTransport, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &RemoteCallError{Method: method, Kind: ErrTransport, Err: err}
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &RemoteCallError{Method: method, Kind: ErrTransport, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteCallError{Method: method, Kind: ErrTransport, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	r := xmlrpc.Response(data)
	if err := r.Err(); err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return nil, &RemoteCallError{Method: method, Kind: ErrProtocolFault, Err: &Fault{Code: fault.Code, Message: fault.String}}
		}
		return nil, &RemoteCallError{Method: method, Kind: ErrProtocolFault, Err: err}
	}

	var result any
	if err := r.Unmarshal(&result); err != nil {
		return nil, &RemoteCallError{Method: method, Kind: ErrProtocolFault, Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return result, nil
}
