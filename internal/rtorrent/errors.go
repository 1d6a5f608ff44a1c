package rtorrent

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport covers connection, authentication and HTTP-level failures.
	ErrTransport = errors.New("transport failure")
	// ErrProtocolFault means the daemon answered, but with a fault or a response we could not decode.
	ErrProtocolFault = errors.New("protocol fault")
	// ErrUpstreamFetch is returned when a payload URL does not yield a usable body.
	ErrUpstreamFetch = errors.New("upstream fetch failed")
	// ErrNotFound means the identifier is absent from the current listing.
	ErrNotFound = errors.New("job not found")
)

// RemoteCallError is the single failure shape produced by Session.Invoke.
type RemoteCallError struct {
	Method string
	Kind   error
	Err    error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Method, e.Kind, e.Err)
}

func (e *RemoteCallError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Fault is a well-formed fault response from the daemon.
type Fault struct {
	Code    int
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault %d: %s", f.Code, f.Message)
}

type UpstreamFetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("failed to fetch %s: status %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("failed to fetch %s: empty body", e.URL)
	}
}

func (e *UpstreamFetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamFetch}
	}
	return []error{ErrUpstreamFetch, e.Err}
}
