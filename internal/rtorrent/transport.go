package rtorrent

import "net/http"

const (
	UserAgent   = "rtgrab-xmlrpc"
	ContentType = "text/xml"
)

// Transport decorates every outbound request with the daemon's fixed headers
// and, when both username and password are set, Basic authentication.
type Transport struct {
	Base     http.RoundTripper
	Username string
	Password string
}

func NewTransport(base http.RoundTripper, username, password string) *Transport {
	return &Transport{
		Base:     base,
		Username: username,
		Password: password,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())

	if t.Username != "" && t.Password != "" {
		out.SetBasicAuth(t.Username, t.Password)
	} else {
		out.Header.Del("Authorization")
	}
	out.Header.Set("User-Agent", UserAgent)
	out.Header.Set("Content-Type", ContentType)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(out)
}
