// Package catalog searches the Hardcover book catalog over GraphQL.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"
)

const searchLimit = 10

const queryWithAuthor = `query SearchBooks($title: String!, $author: String!) {
  books(
    order_by: {users_read_count: desc}
    where: {title: {_ilike: $title}, contributions: {author: {name: {_ilike: $author}}}}
    limit: 10
  ) {
    users_read_count
    title
    contributions { author { name id } }
    image { url }
  }
}`

const queryWithoutAuthor = `query SearchBooks($title: String!) {
  books(
    order_by: {users_read_count: desc}
    where: {title: {_ilike: $title}}
    limit: 10
  ) {
    users_read_count
    title
    contributions { author { name id } }
    image { url }
  }
}`

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Book struct {
	Title          string   `json:"title"`
	UsersReadCount int      `json:"users_read_count"`
	Authors        []Author `json:"authors"`
	ImageURL       string   `json:"image_url,omitempty"`
}

type Client struct {
	url    string
	apiKey string
	gql    *graphql.Client
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	return NewClientWithHTTP(url, apiKey, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(url, apiKey string, client *http.Client) *Client {
	url = strings.TrimSpace(url)
	return &Client{
		url:    url,
		apiKey: strings.TrimSpace(apiKey),
		gql:    graphql.NewClient(url, graphql.WithHTTPClient(client)),
	}
}

type searchResponse struct {
	Books []struct {
		UsersReadCount int    `json:"users_read_count"`
		Title          string `json:"title"`
		Contributions  []struct {
			Author Author `json:"author"`
		} `json:"contributions"`
		Image *struct {
			URL string `json:"url"`
		} `json:"image"`
	} `json:"books"`
}

// Search returns up to ten books whose title contains title, ranked by
// readers. author narrows the match when non-empty.
func (c *Client) Search(ctx context.Context, title, author string) ([]Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, errors.New("title is required")
	}
	if c.url == "" {
		return nil, errors.New("hardcover url is not configured")
	}

	req := graphql.NewRequest(queryWithoutAuthor)
	if author != "" {
		req = graphql.NewRequest(queryWithAuthor)
		req.Var("author", "%"+author+"%")
	}
	req.Var("title", "%"+title+"%")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	var resp searchResponse
	if err := c.gql.Run(ctx, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}

	books := make([]Book, 0, min(len(resp.Books), searchLimit))
	for _, b := range resp.Books {
		book := Book{Title: b.Title, UsersReadCount: b.UsersReadCount}
		for _, contrib := range b.Contributions {
			book.Authors = append(book.Authors, contrib.Author)
		}
		if b.Image != nil {
			book.ImageURL = b.Image.URL
		}
		books = append(books, book)
	}

	return books, nil
}

func (b Book) AuthorNames() string {
	names := make([]string, 0, len(b.Authors))
	for _, a := range b.Authors {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}
