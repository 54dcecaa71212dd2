package source

import (
	"context"
	"errors"

	"github.com/timmy/memefinder/internal/domain"
)

// ErrSubredditNotFound is returned when a subreddit is banned, private or
// does not exist.
var ErrSubredditNotFound = errors.New("subreddit not found")

// PostSource defines the interface for subreddit post backends.
type PostSource interface {
	// FetchNewPosts returns up to limit of the newest posts in subreddit,
	// starting after the post whose fullname is after (empty for newest).
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - subreddit: subreddit name without the "r/" prefix.
	//   - limit: maximum number of posts to return.
	//   - after: pagination cursor or empty for the newest page.
	// Returns:
	//   - []domain.Post: posts in listing order.
	//   - error: non-nil if the listing cannot be fetched.
	FetchNewPosts(ctx context.Context, subreddit string, limit int, after string) ([]domain.Post, error)

	// FetchSubscriberCount returns the subscriber count of subreddit.
	FetchSubscriberCount(ctx context.Context, subreddit string) (int, error)
}
