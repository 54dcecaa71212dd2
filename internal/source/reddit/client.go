package reddit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/memefinder/internal/domain"
	"github.com/timmy/memefinder/internal/source"
)

const (
	defaultAuthURL   = "https://www.reddit.com"
	defaultAPIURL    = "https://oauth.reddit.com"
	defaultUserAgent = "MemeFinderApp/1.0.0"

	// tokenSkew renews the token slightly before Reddit expires it.
	tokenSkew = 60 * time.Second
)

// Config holds the credentials of a Reddit "script" application.
type Config struct {
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	UserAgent    string
	AuthURL      string // token endpoint host
	APIURL       string // OAuth API host
	Timeout      time.Duration
}

// Client implements source.PostSource over the Reddit OAuth API.
type Client struct {
	http     *resty.Client
	cfg      Config
	tokenURL string
	now      func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

var _ source.PostSource = (*Client)(nil)

// NewClient creates a new Reddit client. Authentication happens lazily on
// the first request.
// Parameters:
//   - cfg: application credentials and endpoints; empty endpoints use Reddit's.
//
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *Config) *Client {
	c := *cfg
	if c.AuthURL == "" {
		c.AuthURL = defaultAuthURL
	}
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}

	client := resty.New()
	client.SetBaseURL(c.APIURL)
	client.SetHeader("User-Agent", c.UserAgent)
	client.SetHeader("Accept", "application/json")
	if c.Timeout > 0 {
		client.SetTimeout(c.Timeout)
	}

	return &Client{
		http:     client,
		cfg:      c,
		tokenURL: c.AuthURL + "/api/v1/access_token",
		now:      time.Now,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error,omitempty"`
}

// Listing structures, trimmed to the fields the finder reads.
type listingResponse struct {
	Kind string `json:"kind"`
	Data struct {
		After    *string `json:"after"`
		Children []struct {
			Kind string   `json:"kind"`
			Data postData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type postData struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Title                 string `json:"title"`
	Selftext              string `json:"selftext"`
	URL                   string `json:"url"`
	SubredditNamePrefixed string `json:"subreddit_name_prefixed"`
}

type aboutResponse struct {
	Kind string `json:"kind"`
	Data struct {
		DisplayName string `json:"display_name"`
		Subscribers int    `json:"subscribers"`
	} `json:"data"`
}

// accessToken returns a cached bearer token, requesting a new one with the
// password grant when the cached one is missing or about to expire.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiresAt) {
		return c.token, nil
	}

	var resp tokenResponse
	httpResp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret).
		SetFormData(map[string]string{
			"grant_type": "password",
			"username":   c.cfg.Username,
			"password":   c.cfg.Password,
		}).
		SetResult(&resp).
		Post(c.tokenURL)
	if err != nil {
		return "", fmt.Errorf("failed to call Reddit token endpoint: %w", err)
	}

	if httpResp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("Reddit token endpoint error: status %d", httpResp.StatusCode())
	}
	// Reddit reports bad credentials as 200 with an error field
	if resp.Error != "" {
		return "", fmt.Errorf("Reddit token endpoint error: %s", resp.Error)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("Reddit token endpoint returned no access token")
	}

	ttl := time.Duration(resp.ExpiresIn) * time.Second
	if ttl > tokenSkew {
		ttl -= tokenSkew
	}
	c.token = resp.AccessToken
	c.expiresAt = c.now().Add(ttl)

	return c.token, nil
}

// invalidateToken drops the cached token so the next request re-authenticates.
func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// get issues an authenticated GET against the OAuth API.
func (c *Client) get(ctx context.Context, path, subreddit string, query map[string]string, result interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	httpResp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("subreddit", subreddit).
		SetQueryParams(query).
		SetResult(result).
		Get(path)
	if err != nil {
		return fmt.Errorf("failed to call Reddit API: %w", err)
	}

	switch status := httpResp.StatusCode(); {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized:
		c.invalidateToken()
		return fmt.Errorf("Reddit API rejected token for r/%s", subreddit)
	case status == http.StatusNotFound || status == http.StatusForbidden:
		return fmt.Errorf("r/%s: %w (status %d)", subreddit, source.ErrSubredditNotFound, status)
	default:
		return fmt.Errorf("Reddit API error for r/%s: status %d", subreddit, status)
	}
}

// FetchNewPosts fetches the newest posts of a subreddit.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - subreddit: subreddit name without prefix.
//   - limit: page size; Reddit caps it at 100.
//   - after: fullname cursor or empty.
//
// Returns:
//   - []domain.Post: posts in listing order.
//   - error: non-nil if authentication or the listing request fails.
func (c *Client) FetchNewPosts(ctx context.Context, subreddit string, limit int, after string) ([]domain.Post, error) {
	query := map[string]string{
		"limit":    strconv.Itoa(limit),
		"raw_json": "1",
	}
	if after != "" {
		query["after"] = after
	}

	var listing listingResponse
	if err := c.get(ctx, "/r/{subreddit}/new", subreddit, query, &listing); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		if child.Kind != "" && child.Kind != "t3" {
			continue
		}
		d := child.Data
		posts = append(posts, domain.Post{
			ID:                d.ID,
			Fullname:          d.Name,
			Title:             d.Title,
			Selftext:          d.Selftext,
			URL:               d.URL,
			SubredditPrefixed: d.SubredditNamePrefixed,
		})
	}

	return posts, nil
}

// FetchSubscriberCount fetches the subscriber count from the subreddit's
// about page.
func (c *Client) FetchSubscriberCount(ctx context.Context, subreddit string) (int, error) {
	var about aboutResponse
	if err := c.get(ctx, "/r/{subreddit}/about", subreddit, nil, &about); err != nil {
		return 0, err
	}
	// Unknown names come back as a search listing rather than a t5 thing
	if about.Kind != "t5" {
		return 0, fmt.Errorf("r/%s: %w", subreddit, source.ErrSubredditNotFound)
	}
	return about.Data.Subscribers, nil
}
