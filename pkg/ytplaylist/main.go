package ytplaylist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

const DefaultAPIURL = "https://www.googleapis.com/youtube/v3/playlistItems"

var (
	ErrNoAPIKey         = errors.New("youtube api key is not configured")
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrForbidden        = errors.New("playlist is private or quota exceeded")
)

type Item struct {
	VideoId string
	Title   string
}

type Client struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
}

type Option func(*Client)

func WithAPIURL(apiURL string) Option {
	return func(c *Client) {
		if apiURL != "" {
			c.apiURL = apiURL
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		apiURL:     DefaultAPIURL,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetItems returns every item of the playlist in playlist order, following
// page tokens until the last page.
func (c *Client) GetItems(ctx context.Context, playlistId string) ([]Item, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	var (
		items     []Item
		pageToken string
	)
	for {
		page, err := c.getPage(ctx, playlistId, pageToken)
		if err != nil {
			return nil, fmt.Errorf("failed to get playlist page: %w", err)
		}

		for _, it := range page.Items {
			items = append(items, Item{
				VideoId: it.ContentDetails.VideoId,
				Title:   it.Snippet.Title,
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}

	if items == nil {
		items = []Item{}
	}

	return items, nil
}
