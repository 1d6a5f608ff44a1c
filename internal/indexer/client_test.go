package indexer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"testing"
	"time"
)

func newProwlarr(t *testing.T, seen chan<- *url.URL) *httptest.Server {
	t.Helper()

	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if seen != nil {
			seen <- r.URL
		}
		switch r.URL.Path {
		case searchPath:
			_, _ = w.Write([]byte(`[
				{"guid":"1","title":"LOTR low","seeders":2,"downloadUrl":"http://dl/1","indexerId":4,"size":100},
				{"guid":"2","title":"LOTR high","seeders":50,"downloadUrl":"http://dl/2","indexerId":4,"size":200}
			]`))
		case indexerPath:
			_, _ = w.Write([]byte(`[{"id":4,"name":"MyAnonamouse","enable":true},{"id":9,"name":"Other","enable":false}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSearchBuildsQueryAndRanks(t *testing.T) {
	t.Parallel()

	seen := make(chan *url.URL, 1)
	srv := newProwlarr(t, seen)

	releases, err := NewClient(srv.URL, "key", 5*time.Second).Search(context.Background(), "Lord of the Rings", []int{4}, nil)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	u := <-seen
	q := u.Query()
	if q.Get("query") != "Lord of the Rings" || q.Get("type") != "search" {
		t.Fatalf("unexpected query: %s", u.RawQuery)
	}
	if !reflect.DeepEqual(q["indexerIds"], []string{"4"}) || !reflect.DeepEqual(q["categories"], []string{"7000"}) {
		t.Fatalf("unexpected filters: %s", u.RawQuery)
	}

	if len(releases) != 2 || releases[0].Title != "LOTR high" || releases[1].Seeders != 2 {
		t.Fatalf("unexpected ranking: %+v", releases)
	}
}

func TestSearchDefaultsToAllIndexers(t *testing.T) {
	t.Parallel()

	seen := make(chan *url.URL, 1)
	srv := newProwlarr(t, seen)

	if _, err := NewClient(srv.URL+"/", "key", 5*time.Second).Search(context.Background(), "dune", nil, []int{7020}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	q := (<-seen).Query()
	if q.Get("indexerIds") != "-2" || q.Get("categories") != "7020" {
		t.Fatalf("unexpected query: %v", q)
	}
}

func TestIndexerIDs(t *testing.T) {
	t.Parallel()

	srv := newProwlarr(t, nil)
	ids, err := NewClient(srv.URL, "key", 5*time.Second).IndexerIDs(context.Background())
	if err != nil {
		t.Fatalf("IndexerIDs: %v", err)
	}
	if ids["MyAnonamouse"] != 4 || ids["Other"] != 9 {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	srv := newProwlarr(t, nil)
	if _, err := NewClient(srv.URL, "wrong", time.Second).Indexers(context.Background()); err == nil {
		t.Fatal("expected unauthorized error")
	}
	if _, err := NewClient("", "key", time.Second).Indexers(context.Background()); err == nil {
		t.Fatal("expected missing url error")
	}
	if _, err := NewClient(srv.URL, "key", time.Second).Search(context.Background(), "", nil, nil); err == nil {
		t.Fatal("expected missing term error")
	}
}
