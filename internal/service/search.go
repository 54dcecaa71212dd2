package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/memefinder/internal/domain"
	"github.com/timmy/memefinder/internal/logger"
	"github.com/timmy/memefinder/internal/metrics"
	"github.com/timmy/memefinder/internal/source"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoSource is returned when the service has no post source.
	ErrNoSource = errors.New("post source is not configured")
	// ErrNoScorer is returned when the service has no relevance scorer.
	ErrNoScorer = errors.New("relevance scorer is not configured")
)

// Reddit rejects listing pages larger than this.
const maxFetchLimit = 100

// SearchConfig holds configuration for the search service.
type SearchConfig struct {
	PageSize       int     // maximum memes per page
	FetchLimit     int     // posts fetched per subreddit per page
	ScoreThreshold float64 // memes must score strictly above this
	MinSubscribers int     // ranking drops subreddits below this
	MaxConcurrency int     // bound per fan-out; 0 means unbounded
	Catalog        []string
}

// DefaultSearchConfig returns the limits the finder ships with.
func DefaultSearchConfig() *SearchConfig {
	return &SearchConfig{
		PageSize:       25,
		FetchLimit:     100,
		ScoreThreshold: 0.5,
		MinSubscribers: 10000,
	}
}

// SearchService finds relevant image posts across subreddits.
type SearchService struct {
	source  source.PostSource
	scorer  RelevanceScorer
	metrics *metrics.Collector
	logger  *logger.Logger
	cfg     SearchConfig
}

// NewSearchService creates a new search service.
// Parameters:
//   - src: post source the subreddits are read from.
//   - scorer: relevance scorer applied to every image post.
//   - collector: metrics collector; nil disables metrics.
//   - log: logger used when the request context carries none.
//   - cfg: search limits and catalog; nil uses DefaultSearchConfig.
//
// Returns:
//   - *SearchService: initialized search service.
func NewSearchService(
	src source.PostSource,
	scorer RelevanceScorer,
	collector *metrics.Collector,
	log *logger.Logger,
	cfg *SearchConfig,
) *SearchService {
	if cfg == nil {
		cfg = DefaultSearchConfig()
	}
	resolved := *cfg
	if resolved.PageSize <= 0 {
		resolved.PageSize = 25
	}
	if resolved.FetchLimit <= 0 || resolved.FetchLimit > maxFetchLimit {
		resolved.FetchLimit = maxFetchLimit
	}
	resolved.Catalog = append([]string(nil), cfg.Catalog...)
	if log == nil {
		log = logger.GetDefault()
	}

	return &SearchService{
		source:  src,
		scorer:  scorer,
		metrics: collector,
		logger:  log,
		cfg:     resolved,
	}
}

// Catalog returns a copy of the default subreddit list.
func (s *SearchService) Catalog() []string {
	return append([]string(nil), s.cfg.Catalog...)
}

// SearchRequest represents one page request.
type SearchRequest struct {
	Query      string
	Subreddits []string // empty means the catalog
	After      string   // empty means the newest posts
}

// Search fetches new posts from every requested subreddit, scores the image
// posts against the query and returns the best page plus the next cursor.
//
// Per-subreddit and per-post failures degrade to zero posts and a zero
// score. An error is returned only when the operation as a whole cannot
// run or its context ends before the fan-outs complete.
//
// The returned cursor is the fullname of the last post of the combined
// fetch batch, before filtering, so a follow-up page may repeat posts that
// were fetched but not shown.
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) (*domain.MemePage, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}
	if s.scorer == nil {
		return nil, ErrNoScorer
	}

	ctx = s.logger.EnsureContext(ctx)
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "search",
		logger.FieldSearchID:  uuid.New().String(),
	})
	start := time.Now()

	subreddits := req.Subreddits
	if len(subreddits) == 0 {
		subreddits = s.cfg.Catalog
	}

	logger.CtxInfo(ctx, "Performing meme search: query=%q, subreddits=%d, after=%q",
		req.Query, len(subreddits), req.After)

	posts, err := s.fetchPosts(ctx, subreddits, req.After)
	if err != nil {
		return nil, fmt.Errorf("search failed while fetching posts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search aborted while fetching posts: %w", err)
	}

	candidates := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if p.IsImage() {
			candidates = append(candidates, p)
		}
	}

	scores, err := s.scorePosts(ctx, candidates, req.Query)
	if err != nil {
		return nil, fmt.Errorf("search failed while scoring posts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("search aborted while scoring posts: %w", err)
	}

	page := &domain.MemePage{
		Memes: rankMemes(candidates, scores, s.cfg.ScoreThreshold, s.cfg.PageSize),
		After: nextCursor(posts),
	}
	s.metrics.ObserveSearchResults(len(page.Memes))

	logger.With(logger.Fields{
		"fetched":    len(posts),
		"candidates": len(candidates),
	}).WithCount(len(page.Memes)).WithDuration(start).Info(ctx, "Meme search completed: query=%q", req.Query)

	return page, nil
}

// RankSubreddits returns the catalog subreddits with at least
// MinSubscribers subscribers, most subscribed first. A failed lookup counts
// as zero subscribers.
func (s *SearchService) RankSubreddits(ctx context.Context) ([]domain.SubredditSummary, error) {
	if s.source == nil {
		return nil, ErrNoSource
	}

	ctx = logger.SetComponent(s.logger.EnsureContext(ctx), "rank")
	start := time.Now()

	summaries := make([]domain.SubredditSummary, len(s.cfg.Catalog))
	g := s.newGroup()
	for i, name := range s.cfg.Catalog {
		goSafe(g, func() {
			subCtx := logger.SetSubreddit(ctx, name)
			count, err := s.source.FetchSubscriberCount(subCtx, name)
			s.metrics.ObserveSourceCall(metrics.OperationAbout, err)
			if err != nil {
				logger.CtxWarn(subCtx, "Failed to fetch subscriber count: error=%v", err)
				count = 0
			}
			summaries[i] = domain.SubredditSummary{Name: name, Subscribers: count}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("subreddit ranking failed: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("subreddit ranking aborted: %w", err)
	}

	ranked := make([]domain.SubredditSummary, 0, len(summaries))
	for _, sum := range summaries {
		if sum.Subscribers >= s.cfg.MinSubscribers {
			ranked = append(ranked, sum)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Subscribers > ranked[j].Subscribers
	})

	logger.With(logger.Fields{"catalog": len(s.cfg.Catalog)}).
		WithCount(len(ranked)).WithDuration(start).Info(ctx, "Subreddit ranking completed")

	return ranked, nil
}

// fetchPosts fans out one listing request per subreddit and concatenates
// the batches in completion order.
func (s *SearchService) fetchPosts(ctx context.Context, subreddits []string, after string) ([]domain.Post, error) {
	var (
		mu    sync.Mutex
		posts []domain.Post
	)

	g := s.newGroup()
	for _, name := range subreddits {
		goSafe(g, func() {
			subCtx := logger.SetSubreddit(ctx, name)
			batch, err := s.source.FetchNewPosts(subCtx, name, s.cfg.FetchLimit, after)
			s.metrics.ObserveSourceCall(metrics.OperationPosts, err)
			if err != nil {
				logger.CtxWarn(subCtx, "Failed to fetch posts: error=%v", err)
				return
			}
			mu.Lock()
			posts = append(posts, batch...)
			mu.Unlock()
		})
	}
	err := g.Wait()

	return posts, err
}

// scorePosts scores every post concurrently. scores[i] belongs to posts[i].
func (s *SearchService) scorePosts(ctx context.Context, posts []domain.Post, query string) ([]float64, error) {
	scores := make([]float64, len(posts))

	g := s.newGroup()
	for i, p := range posts {
		goSafe(g, func() {
			raw, err := s.scorer.ScorePost(ctx, p.ScoringText(), query)
			score := normalizeScore(raw, err)
			s.metrics.ObserveScore(err, err == nil && score != raw)
			if err != nil {
				logger.FromContext(ctx).WithFields(logger.Fields{
					logger.FieldPostID: p.ID,
				}).WithError(err).Warn("Failed to score post")
			}
			scores[i] = score
		})
	}
	err := g.Wait()

	return scores, err
}

// goSafe runs fn on g. Tasks degrade instead of failing, so the only error
// a group can report is a recovered panic.
func goSafe(g *errgroup.Group, fn func()) {
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("recovered panic: %v", r)
			}
		}()
		fn()
		return nil
	})
}

func (s *SearchService) newGroup() *errgroup.Group {
	g := &errgroup.Group{}
	if s.cfg.MaxConcurrency > 0 {
		g.SetLimit(s.cfg.MaxConcurrency)
	}
	return g
}

// rankMemes keeps posts scoring above threshold, best first, at most limit.
// Equal scores keep their fetch order.
func rankMemes(posts []domain.Post, scores []float64, threshold float64, limit int) []domain.Meme {
	memes := make([]domain.Meme, 0, len(posts))
	for i, p := range posts {
		if scores[i] > threshold {
			memes = append(memes, p.ToMeme(scores[i]))
		}
	}

	sort.SliceStable(memes, func(i, j int) bool {
		return memes[i].Sentiment > memes[j].Sentiment
	})

	if limit > 0 && len(memes) > limit {
		memes = memes[:limit]
	}
	return memes
}

// nextCursor returns the fullname of the last fetched post, or nil.
func nextCursor(posts []domain.Post) *string {
	if len(posts) == 0 {
		return nil
	}
	after := posts[len(posts)-1].Fullname
	if after == "" {
		return nil
	}
	return &after
}

// ParseSubredditList splits a comma-separated subreddit parameter, dropping
// blanks. An empty result means "use the catalog".
func ParseSubredditList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, name := range strings.Split(raw, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
