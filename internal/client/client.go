// Package client is a Go client for the meme finder HTTP API plus the
// browsing session state machine used by the command line finder.
package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memefinder/internal/domain"
)

// APIError is a non-2xx response from the server. Message holds the
// server's "error" field when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

type errorBody struct {
	Error string `json:"error"`
}

// Client talks to a meme finder server.
type Client struct {
	http *resty.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string, timeout time.Duration) *Client {
	c := resty.New()
	c.SetBaseURL(strings.TrimSuffix(baseURL, "/"))
	c.SetHeader("Accept", "application/json")
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &Client{http: c}
}

// Search fetches one page of memes. An empty subreddit list searches the
// server's catalog and an empty after starts from the newest posts.
func (c *Client) Search(ctx context.Context, query string, subreddits []string, after string) (*domain.MemePage, error) {
	params := map[string]string{
		"query":      query,
		"subreddits": strings.Join(subreddits, ","),
	}
	if after != "" {
		params["after"] = after
	}

	var page domain.MemePage
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&page).
		SetError(&apiErr).
		Get("/api/memes")
	if err != nil {
		return nil, fmt.Errorf("failed to search memes: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
	}
	if page.Memes == nil {
		page.Memes = []domain.Meme{}
	}
	return &page, nil
}

// RankSubreddits fetches the ranked subreddit list.
func (c *Client) RankSubreddits(ctx context.Context) ([]domain.SubredditSummary, error) {
	var ranked []domain.SubredditSummary
	var apiErr errorBody
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&ranked).
		SetError(&apiErr).
		Post("/api/memes")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subreddits: %w", err)
	}
	if resp.IsError() {
		return nil, &APIError{Status: resp.StatusCode(), Message: apiErr.Error}
	}
	return ranked, nil
}

// Download fetches a meme's image bytes through the server's download proxy.
func (c *Client) Download(ctx context.Context, meme domain.Meme) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "*/*").
		SetQueryParams(map[string]string{
			"url":   meme.URL,
			"title": meme.Title,
		}).
		Get("/api/memes/download")
	if err != nil {
		return nil, fmt.Errorf("failed to download meme: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode()}
	}
	return resp.Body(), nil
}
