package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPFixtureFeed reads a JSON array of fixtures from a URL.
type HTTPFixtureFeed struct {
	url    string
	client *http.Client
}

func NewHTTPFixtureFeed(url string) *HTTPFixtureFeed {
	return &HTTPFixtureFeed{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (slf *HTTPFixtureFeed) Fetch(ctx context.Context) ([]Fixture, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, slf.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := slf.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch fixtures: status %d: %s", resp.StatusCode, body)
	}

	var fixtures []Fixture
	if err = json.NewDecoder(resp.Body).Decode(&fixtures); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return fixtures, nil
}
