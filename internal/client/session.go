package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/timmy/memefinder/internal/domain"
	"github.com/timmy/memefinder/internal/service"
)

// Banner messages shown when the server gives no error text of its own.
const (
	FallbackMemesError      = "Failed to fetch memes. Please try again."
	FallbackSubredditsError = "Failed to fetch subreddits. Please try again."
	DownloadError           = "Failed to download meme. Please try again."
)

var (
	// ErrBusy is returned when a search or continuation is already in flight.
	ErrBusy = errors.New("a search is already in progress")
	// ErrNoMore is returned by Continue when there is no cursor.
	ErrNoMore = errors.New("no more memes to load")
)

// Status is the session's request state.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "idle"
	}
}

// API is the server surface a session needs. *Client implements it.
type API interface {
	Search(ctx context.Context, query string, subreddits []string, after string) (*domain.MemePage, error)
	RankSubreddits(ctx context.Context) ([]domain.SubredditSummary, error)
	Download(ctx context.Context, meme domain.Meme) ([]byte, error)
}

// State is a point-in-time copy of a session.
type State struct {
	Status     Status
	Query      string
	Subreddits []domain.SubredditSummary
	Selected   []string
	Memes      []domain.Meme
	After      *string
	Error      string
}

// Session holds one user's browsing state. At most one search or
// continuation runs at a time; extra requests are rejected with ErrBusy.
type Session struct {
	api API

	mu         sync.Mutex
	status     Status
	query      string
	subreddits []domain.SubredditSummary
	selected   []string
	memes      []domain.Meme
	after      *string
	errMsg     string
}

// NewSession creates an idle session.
func NewSession(api API) *Session {
	return &Session{api: api}
}

// Init loads the ranked subreddit list. The selection starts empty, which
// the server treats as its whole catalog.
func (s *Session) Init(ctx context.Context) error {
	ranked, err := s.api.RankSubreddits(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.errMsg = bannerFor(err, FallbackSubredditsError)
		return err
	}
	s.subreddits = ranked
	return nil
}

// SetQuery replaces the search text used by the next explicit search.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
}

// Toggle adds name to the selection, or removes it if already selected.
func (s *Session) Toggle(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sel := range s.selected {
		if sel == name {
			s.selected = append(s.selected[:i:i], s.selected[i+1:]...)
			return
		}
	}
	s.selected = append(s.selected, name)
}

// Search starts a fresh search: results and cursor are cleared first.
func (s *Session) Search(ctx context.Context) error {
	return s.fetch(ctx, true)
}

// Continue loads the next page after the stored cursor and appends it.
func (s *Session) Continue(ctx context.Context) error {
	return s.fetch(ctx, false)
}

func (s *Session) fetch(ctx context.Context, fresh bool) error {
	s.mu.Lock()
	if s.status == StatusLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	if fresh {
		s.memes = nil
		s.after = nil
	} else if s.after == nil {
		s.mu.Unlock()
		return ErrNoMore
	}
	s.status = StatusLoading
	s.errMsg = ""
	query := s.query
	selected := append([]string(nil), s.selected...)
	after := ""
	if s.after != nil {
		after = *s.after
	}
	s.mu.Unlock()

	page, err := s.api.Search(ctx, query, selected, after)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status = StatusError
		s.errMsg = bannerFor(err, FallbackMemesError)
		return err
	}
	s.memes = append(s.memes, page.Memes...)
	s.after = page.After
	s.status = StatusSuccess
	return nil
}

// DownloadTo saves meme into dir as "<title>.jpg" and returns the path.
func (s *Session) DownloadTo(ctx context.Context, meme domain.Meme, dir string) (string, error) {
	data, err := s.api.Download(ctx, meme)
	if err == nil {
		path := filepath.Join(dir, service.AttachmentFilename(meme.Title))
		if err = os.WriteFile(path, data, 0o644); err == nil {
			return path, nil
		}
		err = fmt.Errorf("failed to save meme: %w", err)
	}

	s.mu.Lock()
	s.errMsg = DownloadError
	s.mu.Unlock()
	return "", err
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Status:     s.status,
		Query:      s.query,
		Subreddits: append([]domain.SubredditSummary(nil), s.subreddits...),
		Selected:   append([]string(nil), s.selected...),
		Memes:      append([]domain.Meme(nil), s.memes...),
		Error:      s.errMsg,
	}
	if s.after != nil {
		after := *s.after
		st.After = &after
	}
	return st
}

// bannerFor picks the server's error text when it sent one.
func bannerFor(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
