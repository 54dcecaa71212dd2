package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/timmy/memefinder/internal/client"
	"github.com/timmy/memefinder/internal/logger"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "warn",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "memefind",
	})
	logger.SetDefaultLogger(appLogger)

	server := flag.String("server", "http://localhost:8080", "Meme finder server URL")
	query := flag.String("query", "", "Search query")
	subreddits := flag.String("subreddits", "", "Comma-separated subreddits (default: server catalog)")
	pages := flag.Int("pages", 1, "Number of result pages to load")
	downloadDir := flag.String("download", "", "Directory to save the found memes into")
	list := flag.Bool("list", false, "List ranked subreddits and exit")
	timeout := flag.Duration("timeout", 5*time.Minute, "Per-request timeout")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	session := client.NewSession(client.New(*server, *timeout))

	if *list {
		if err := session.Init(ctx); err != nil {
			fail(session, err)
		}
		for _, sub := range session.Snapshot().Subreddits {
			fmt.Printf("%-24s %12d\n", sub.Name, sub.Subscribers)
		}
		return
	}

	session.SetQuery(*query)
	for _, name := range strings.Split(*subreddits, ",") {
		if name = strings.TrimSpace(name); name != "" {
			session.Toggle(name)
		}
	}

	if err := session.Search(ctx); err != nil {
		fail(session, err)
	}
	for i := 1; i < *pages; i++ {
		err := session.Continue(ctx)
		if errors.Is(err, client.ErrNoMore) {
			break
		}
		if err != nil {
			fail(session, err)
		}
	}

	state := session.Snapshot()
	for _, meme := range state.Memes {
		fmt.Printf("%.2f  %-16s %s\n      %s\n", meme.Sentiment, meme.Subreddit, meme.Title, meme.URL)
	}
	if state.After != nil {
		fmt.Printf("next cursor: %s\n", *state.After)
	}

	if *downloadDir == "" {
		return
	}
	if err := os.MkdirAll(*downloadDir, 0o755); err != nil {
		appLogger.WithError(err).Fatal("Failed to create download directory")
	}
	for _, meme := range state.Memes {
		path, err := session.DownloadTo(ctx, meme, *downloadDir)
		if err != nil {
			appLogger.WithError(err).WithField("url", meme.URL).Warn(session.Snapshot().Error)
			continue
		}
		fmt.Printf("saved %s\n", path)
	}
}

// fail prints the session's banner and exits.
func fail(session *client.Session, err error) {
	msg := session.Snapshot().Error
	if msg == "" {
		msg = err.Error()
	}
	fmt.Fprintln(os.Stderr, msg)
	logger.GetDefault().WithError(err).Debug("Request failed")
	os.Exit(1)
}
