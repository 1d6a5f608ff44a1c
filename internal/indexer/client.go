// Package indexer searches a Prowlarr instance for release candidates.
package indexer

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	searchPath  = "/api/v1/search"
	indexerPath = "/api/v1/indexer"

	// AllIndexers asks Prowlarr to search every enabled indexer.
	AllIndexers = -2
	// CategoryBooks is the Newznab category for books.
	CategoryBooks = 7000
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Release struct {
	GUID        string    `json:"guid"`
	Title       string    `json:"title"`
	Size        int64     `json:"size"`
	Indexer     string    `json:"indexer"`
	IndexerID   int       `json:"indexerId"`
	DownloadURL string    `json:"downloadUrl"`
	MagnetURL   string    `json:"magnetUrl"`
	InfoURL     string    `json:"infoUrl"`
	Seeders     int       `json:"seeders"`
	Leechers    int       `json:"leechers"`
	PublishDate time.Time `json:"publishDate"`
}

type Indexer struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Enable   bool   `json:"enable"`
}

type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient skips certificate verification; Prowlarr instances are commonly
// served with self-signed certificates.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	return NewClientWithHTTP(baseURL, apiKey, &http.Client{Timeout: timeout, Transport: base})
}

func NewClientWithHTTP(baseURL, apiKey string, client HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

// Search returns releases matching term, most seeded first. An empty
// indexers list searches all indexers; empty categories means books.
func (c *Client) Search(ctx context.Context, term string, indexers, categories []int) ([]Release, error) {
	if strings.TrimSpace(term) == "" {
		return nil, errors.New("search term is required")
	}

	q := url.Values{}
	q.Set("query", term)
	if len(indexers) == 0 {
		indexers = []int{AllIndexers}
	}
	for _, id := range indexers {
		q.Add("indexerIds", strconv.Itoa(id))
	}
	if len(categories) == 0 {
		categories = []int{CategoryBooks}
	}
	for _, cat := range categories {
		q.Add("categories", strconv.Itoa(cat))
	}
	q.Set("type", "search")

	var releases []Release
	if err := c.get(ctx, searchPath+"?"+q.Encode(), &releases); err != nil {
		return nil, err
	}

	sort.SliceStable(releases, func(i, j int) bool {
		return releases[i].Seeders > releases[j].Seeders
	})

	return releases, nil
}

func (c *Client) Indexers(ctx context.Context) ([]Indexer, error) {
	var indexers []Indexer
	if err := c.get(ctx, indexerPath, &indexers); err != nil {
		return nil, err
	}
	return indexers, nil
}

// IndexerIDs maps indexer names to ids.
func (c *Client) IndexerIDs(ctx context.Context) (map[string]int, error) {
	indexers, err := c.Indexers(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int, len(indexers))
	for _, ix := range indexers {
		ids[ix.Name] = ix.ID
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.baseURL == "" {
		return errors.New("prowlarr url is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build indexer request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach prowlarr: %w", err)
	}

	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prowlarr returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode prowlarr response: %w", err)
	}
	return nil
}
