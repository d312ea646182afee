package ytplaylist

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

const maxResults = "50"

type playlistItemsPage struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			Title string `json:"title"`
		} `json:"snippet"`
		ContentDetails struct {
			VideoId string `json:"videoId"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (c *Client) getPage(ctx context.Context, playlistId, pageToken string) (*playlistItemsPage, error) {
	u, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	q.Set("part", "snippet,contentDetails")
	q.Set("maxResults", maxResults)
	q.Set("playlistId", playlistId)
	q.Set("key", c.apiKey)
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, ErrPlaylistNotFound
		case http.StatusForbidden:
			return nil, ErrForbidden
		default:
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
	}

	var page playlistItemsPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &page, nil
}
