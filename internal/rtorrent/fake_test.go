package rtorrent

import (
	"context"
	"sync"
)

type call struct {
	method string
	args   []any
}

// fakeDaemon answers Invoke from an in-memory job table keyed by getter name.
type fakeDaemon struct {
	mu      sync.Mutex
	calls   []call
	jobs    []map[string]any
	fail    map[string]error
	version string
	onLoad  func(d *fakeDaemon, args []any)
}

func newFakeDaemon(jobs ...map[string]any) *fakeDaemon {
	return &fakeDaemon{
		jobs:    jobs,
		fail:    make(map[string]error),
		version: "0.9.8",
	}
}

func (d *fakeDaemon) Invoke(_ context.Context, method string, args ...any) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls = append(d.calls, call{method: method, args: args})

	if err, ok := d.fail[method]; ok {
		return nil, &RemoteCallError{Method: method, Kind: ErrProtocolFault, Err: err}
	}

	switch method {
	case MethodMulticall:
		rows := make([]any, 0, len(d.jobs))
		for _, job := range d.jobs {
			row := make([]any, 0, len(args)-2)
			for _, g := range args[2:] {
				row = append(row, job[g.(string)])
			}
			rows = append(rows, row)
		}
		return rows, nil

	case MethodVersion:
		return d.version, nil

	case MethodLoadRaw, MethodLoadRawStart:
		if d.onLoad != nil {
			d.onLoad(d, args)
		}
		return int64(0), nil

	case MethodDownRate:
		for _, job := range d.jobs {
			if job["d.hash="] == args[0] {
				return job["d.down.rate="], nil
			}
		}
		return nil, &RemoteCallError{Method: method, Kind: ErrProtocolFault, Err: &Fault{Code: -501, Message: "Could not find info-hash."}}

	default:
		return int64(0), nil
	}
}

func (d *fakeDaemon) methods() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]string, len(d.calls))
	for i, c := range d.calls {
		out[i] = c.method
	}
	return out
}

func (d *fakeDaemon) callsTo(method string) []call {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []call
	for _, c := range d.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

func jobRow(hash, name string) map[string]any {
	return map[string]any{
		"d.hash=":             hash,
		"d.name=":             name,
		"d.size_bytes=":       int64(1000),
		"d.complete=":         int64(0),
		"d.completed_bytes=":  int64(250),
		"d.directory=":        "/downloads/" + name,
		"d.ratio=":            int64(1500),
		"d.is_active=":        int64(1),
		"d.is_open=":          int64(1),
		"d.is_hash_checking=": int64(0),
		"d.custom1=":          "books",
		"d.down.rate=":        int64(2048),
		"d.up.rate=":          int64(512),
		"d.peers_accounted=":  int64(4),
		"d.priority=":         int64(2),
	}
}

type invokerFunc func(ctx context.Context, method string, args ...any) (any, error)

func (f invokerFunc) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	return f(ctx, method, args...)
}
