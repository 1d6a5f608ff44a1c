package daemon

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"rtgrab/internal/model"
	"rtgrab/internal/repository"
	"rtgrab/internal/rtorrent"
)

type fakeJobs struct {
	jobs    []rtorrent.Job
	version string
	err     error
}

func (f *fakeJobs) ListJobs(context.Context) ([]rtorrent.Job, error) {
	if f.err != nil {
		return []rtorrent.Job{}, f.err
	}
	return f.jobs, nil
}

func (f *fakeJobs) GetJob(_ context.Context, hash string) (rtorrent.Job, bool, error) {
	for _, j := range f.jobs {
		if j.Hash == hash {
			return j, true, nil
		}
	}
	return rtorrent.Job{}, false, f.err
}

func (f *fakeJobs) GetVersion(context.Context) (string, error) {
	return f.version, f.err
}

type fakeControl struct {
	mu       sync.Mutex
	calls    []string
	payload  []byte
	opts     rtorrent.AddOptions
	priority rtorrent.Priority
	err      error
}

func (f *fakeControl) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeControl) AddFromURL(_ context.Context, rawURL string) (string, error) {
	f.record("url " + rawURL)
	return "H1", f.err
}

func (f *fakeControl) AddFromPayload(_ context.Context, data []byte, opts rtorrent.AddOptions) (string, error) {
	f.record("payload")
	f.payload = data
	f.opts = opts
	return "H2", f.err
}

func (f *fakeControl) Remove(_ context.Context, hash string, eraseData bool) error {
	f.record(fmt.Sprintf("remove %s %v", hash, eraseData))
	return f.err
}

func (f *fakeControl) Pause(_ context.Context, hash string) error {
	f.record("pause " + hash)
	return f.err
}

func (f *fakeControl) Resume(_ context.Context, hash string) error {
	f.record("resume " + hash)
	return f.err
}

func (f *fakeControl) SetPriority(_ context.Context, hash string, level rtorrent.Priority) error {
	f.record("priority " + hash)
	f.priority = level
	return f.err
}

func (f *fakeControl) GetDownloadRate(context.Context, string) (int64, error) {
	return 2048, f.err
}

type fakeHistory struct{}

func (fakeHistory) GetRecent(int) ([]model.Action, error) {
	return []model.Action{{Operation: "PAUSE", Target: "H1", Status: model.StatusSuccess}}, nil
}

func (fakeHistory) GetStats() (repository.Stats, error) {
	return repository.Stats{Total: 1, Success: 1}, nil
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListAndGetJobs(t *testing.T) {
	jobs := &fakeJobs{jobs: []rtorrent.Job{{Hash: "H1", Name: "one", Active: true, Open: true}}}
	s := NewServer(jobs, &fakeControl{}, fakeHistory{}, 0)

	rec := do(t, s, http.MethodGet, "/jobs", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list struct {
		Jobs []rtorrent.Job `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list.Jobs) != 1 || list.Jobs[0].Name != "one" {
		t.Fatalf("jobs = %+v", list.Jobs)
	}

	rec = do(t, s, http.MethodGet, "/jobs/H1", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"state":"ACTIVE"`) {
		t.Fatalf("get = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodGet, "/jobs/MISSING", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d", rec.Code)
	}
}

func TestRemoteFailureMapsToBadGateway(t *testing.T) {
	err := &rtorrent.RemoteCallError{Method: "system.client_version", Kind: rtorrent.ErrTransport, Err: fmt.Errorf("refused")}
	s := NewServer(&fakeJobs{err: err}, &fakeControl{}, nil, 0)

	rec := do(t, s, http.MethodGet, "/version", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAddRequestsAreValidated(t *testing.T) {
	ctl := &fakeControl{}
	s := NewServer(&fakeJobs{}, ctl, nil, 0)

	if rec := do(t, s, http.MethodPost, "/jobs", `{"url":""}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty url status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/jobs/raw", `{"payload":"not base64!"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad payload status = %d", rec.Code)
	}
	if len(ctl.calls) != 0 {
		t.Fatalf("control reached on invalid input: %v", ctl.calls)
	}

	rec := do(t, s, http.MethodPost, "/jobs", `{"url":"http://example.com/a.torrent"}`)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), `"H1"`) {
		t.Fatalf("add url = %d %s", rec.Code, rec.Body.String())
	}

	b64 := base64.StdEncoding.EncodeToString([]byte("d4:infoe"))
	rec = do(t, s, http.MethodPost, "/jobs/raw", `{"payload":"`+b64+`","directory":"/data","label":"books"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add payload = %d %s", rec.Code, rec.Body.String())
	}
	if string(ctl.payload) != "d4:infoe" || ctl.opts.Directory != "/data" || ctl.opts.Label != "books" {
		t.Fatalf("payload forwarded as %q %+v", ctl.payload, ctl.opts)
	}
}

func TestPriorityBounds(t *testing.T) {
	ctl := &fakeControl{}
	s := NewServer(&fakeJobs{}, ctl, nil, 0)

	for _, body := range []string{`{}`, `{"priority":4}`, `{"priority":-1}`} {
		if rec := do(t, s, http.MethodPut, "/jobs/H1/priority", body); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s status = %d", body, rec.Code)
		}
	}

	rec := do(t, s, http.MethodPut, "/jobs/H1/priority", `{"priority":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("priority 0 status = %d %s", rec.Code, rec.Body.String())
	}
	if ctl.priority != rtorrent.PriorityOff {
		t.Fatalf("priority = %v", ctl.priority)
	}
}

func TestJobActions(t *testing.T) {
	ctl := &fakeControl{}
	s := NewServer(&fakeJobs{}, ctl, nil, 0)

	if rec := do(t, s, http.MethodDelete, "/jobs/H1?erase=true", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/jobs/H1?erase=maybe", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad erase status = %d", rec.Code)
	}
	do(t, s, http.MethodPost, "/jobs/H1/pause", "")
	do(t, s, http.MethodPost, "/jobs/H1/resume", "")

	want := []string{"remove H1 true", "pause H1", "resume H1"}
	if strings.Join(ctl.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls = %v, want %v", ctl.calls, want)
	}

	rec := do(t, s, http.MethodGet, "/jobs/H1/rate", "")
	if !strings.Contains(rec.Body.String(), `"down_rate":2048`) {
		t.Fatalf("rate body = %s", rec.Body.String())
	}
}

func TestHistoryAndStop(t *testing.T) {
	s := NewServer(&fakeJobs{}, &fakeControl{}, fakeHistory{}, 0)

	rec := do(t, s, http.MethodGet, "/history?n=5", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"PAUSE"`) {
		t.Fatalf("history = %d %s", rec.Code, rec.Body.String())
	}

	do(t, s, http.MethodPost, "/stop", "")
	select {
	case <-s.StopCh():
	default:
		t.Fatal("stop signal not delivered")
	}
}
