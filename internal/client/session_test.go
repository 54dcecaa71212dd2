package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/timmy/memefinder/internal/domain"
)

type searchCall struct {
	query      string
	subreddits []string
	after      string
}

type fakeAPI struct {
	pages    []*domain.MemePage
	errs     []error
	calls    []searchCall
	block    chan struct{}
	started  chan struct{}
	ranked   []domain.SubredditSummary
	rankErr  error
	image    []byte
	imageErr error
}

func (f *fakeAPI) Search(ctx context.Context, query string, subreddits []string, after string) (*domain.MemePage, error) {
	i := len(f.calls)
	f.calls = append(f.calls, searchCall{query: query, subreddits: subreddits, after: after})
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	if err != nil {
		return nil, err
	}
	return f.pages[i], nil
}

func (f *fakeAPI) RankSubreddits(ctx context.Context) ([]domain.SubredditSummary, error) {
	return f.ranked, f.rankErr
}

func (f *fakeAPI) Download(ctx context.Context, meme domain.Meme) ([]byte, error) {
	return f.image, f.imageErr
}

func strPtr(s string) *string { return &s }

func page(after *string, ids ...string) *domain.MemePage {
	p := &domain.MemePage{Memes: []domain.Meme{}, After: after}
	for _, id := range ids {
		p.Memes = append(p.Memes, domain.Meme{ID: id, Title: id})
	}
	return p
}

func ids(memes []domain.Meme) []string {
	out := make([]string, len(memes))
	for i, m := range memes {
		out[i] = m.ID
	}
	return out
}

func TestSession_SearchThenContinue(t *testing.T) {
	api := &fakeAPI{pages: []*domain.MemePage{
		page(strPtr("t3_b"), "a", "b"),
		page(nil, "c"),
	}}
	s := NewSession(api)
	s.SetQuery("cat")
	s.Toggle("funny")
	s.Toggle("pics")
	s.Toggle("funny")

	if err := s.Search(context.Background()); err != nil {
		t.Fatalf("search: %v", err)
	}
	st := s.Snapshot()
	if st.Status != StatusSuccess || st.After == nil || *st.After != "t3_b" {
		t.Fatalf("unexpected state after search: %+v", st)
	}

	if err := s.Continue(context.Background()); err != nil {
		t.Fatalf("continue: %v", err)
	}
	st = s.Snapshot()
	if got := ids(st.Memes); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("memes = %v", got)
	}
	if st.After != nil {
		t.Errorf("expected cursor to be cleared, got %q", *st.After)
	}

	want := []searchCall{
		{query: "cat", subreddits: []string{"pics"}, after: ""},
		{query: "cat", subreddits: []string{"pics"}, after: "t3_b"},
	}
	if !reflect.DeepEqual(api.calls, want) {
		t.Errorf("calls = %+v, want %+v", api.calls, want)
	}

	if err := s.Continue(context.Background()); !errors.Is(err, ErrNoMore) {
		t.Errorf("expected ErrNoMore without a cursor, got %v", err)
	}
	if len(api.calls) != 2 {
		t.Errorf("expected no request without a cursor, got %d calls", len(api.calls))
	}
}

func TestSession_NewSearchResetsResults(t *testing.T) {
	api := &fakeAPI{pages: []*domain.MemePage{
		page(strPtr("t3_a"), "a"),
		page(strPtr("t3_z"), "z"),
	}}
	s := NewSession(api)

	_ = s.Search(context.Background())
	if err := s.Search(context.Background()); err != nil {
		t.Fatalf("search: %v", err)
	}

	st := s.Snapshot()
	if got := ids(st.Memes); !reflect.DeepEqual(got, []string{"z"}) {
		t.Errorf("memes = %v", got)
	}
	if api.calls[1].after != "" {
		t.Errorf("fresh search sent cursor %q", api.calls[1].after)
	}
}

func TestSession_SuppressesConcurrentRequests(t *testing.T) {
	api := &fakeAPI{
		pages:   []*domain.MemePage{page(strPtr("t3_a"), "a")},
		block:   make(chan struct{}),
		started: make(chan struct{}),
	}
	s := NewSession(api)

	done := make(chan error, 1)
	go func() { done <- s.Search(context.Background()) }()
	<-api.started

	if st := s.Snapshot(); st.Status != StatusLoading {
		t.Errorf("status = %s, want loading", st.Status)
	}
	if err := s.Search(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	if err := s.Continue(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(api.calls) != 1 {
		t.Errorf("expected exactly one request, got %d", len(api.calls))
	}
}

func TestSession_ErrorBanner(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "server message", err: &APIError{Status: 500, Message: "Failed to fetch memes"}, want: "Failed to fetch memes"},
		{name: "no body", err: &APIError{Status: 502}, want: FallbackMemesError},
		{name: "transport", err: errors.New("connection refused"), want: FallbackMemesError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{
				pages: []*domain.MemePage{page(strPtr("t3_a"), "a"), nil, page(nil, "b")},
				errs:  []error{nil, tt.err, nil},
			}
			s := NewSession(api)
			s.Toggle("funny")

			if err := s.Search(context.Background()); err != nil {
				t.Fatalf("search: %v", err)
			}
			if err := s.Continue(context.Background()); err == nil {
				t.Fatal("expected continuation error")
			}

			st := s.Snapshot()
			if st.Status != StatusError || st.Error != tt.want {
				t.Errorf("status=%s error=%q, want error %q", st.Status, st.Error, tt.want)
			}
			// Results, cursor and selection survive the failure
			if got := ids(st.Memes); !reflect.DeepEqual(got, []string{"a"}) {
				t.Errorf("memes = %v", got)
			}
			if st.After == nil || *st.After != "t3_a" {
				t.Errorf("after = %v", st.After)
			}
			if !reflect.DeepEqual(st.Selected, []string{"funny"}) {
				t.Errorf("selected = %v", st.Selected)
			}

			// The next request clears the banner
			if err := s.Continue(context.Background()); err != nil {
				t.Fatalf("retry: %v", err)
			}
			if st := s.Snapshot(); st.Error != "" || st.Status != StatusSuccess {
				t.Errorf("expected banner cleared, got %+v", st)
			}
		})
	}
}

func TestSession_Init(t *testing.T) {
	ranked := []domain.SubredditSummary{{Name: "funny", Subscribers: 60000000}}
	s := NewSession(&fakeAPI{ranked: ranked})
	if err := s.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	st := s.Snapshot()
	if !reflect.DeepEqual(st.Subreddits, ranked) || len(st.Selected) != 0 {
		t.Errorf("unexpected state: %+v", st)
	}

	failing := NewSession(&fakeAPI{rankErr: &APIError{Status: 500, Message: "Failed to fetch subreddit info"}})
	if err := failing.Init(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := failing.Snapshot().Error; got != "Failed to fetch subreddit info" {
		t.Errorf("banner = %q", got)
	}
}

func TestSession_DownloadTo(t *testing.T) {
	dir := t.TempDir()
	s := NewSession(&fakeAPI{image: []byte("PNGDATA")})

	path, err := s.DownloadTo(context.Background(), domain.Meme{Title: "Grumpy cat", URL: "https://i.redd.it/a.png"}, dir)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if path != filepath.Join(dir, "Grumpy cat.jpg") {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "PNGDATA" {
		t.Errorf("saved %q, %v", data, err)
	}

	failing := NewSession(&fakeAPI{imageErr: &APIError{Status: 502}})
	if _, err := failing.DownloadTo(context.Background(), domain.Meme{Title: "x"}, dir); err == nil {
		t.Fatal("expected error")
	}
	if got := failing.Snapshot().Error; got != DownloadError {
		t.Errorf("banner = %q", got)
	}
}
