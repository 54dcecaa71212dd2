package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/memefinder/internal/api"
	"github.com/timmy/memefinder/internal/config"
	"github.com/timmy/memefinder/internal/logger"
	"github.com/timmy/memefinder/internal/metrics"
	"github.com/timmy/memefinder/internal/service"
	"github.com/timmy/memefinder/internal/source/reddit"
	"github.com/timmy/memefinder/internal/storage"
)

func main() {
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH points at the config file in deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	ctx := context.Background()

	redditClient := reddit.NewClient(&reddit.Config{
		ClientID:     cfg.Reddit.ClientID,
		ClientSecret: cfg.Reddit.ClientSecret,
		Username:     cfg.Reddit.Username,
		Password:     cfg.Reddit.Password,
		UserAgent:    cfg.Reddit.UserAgent,
		AuthURL:      cfg.Reddit.AuthURL,
		APIURL:       cfg.Reddit.APIURL,
		Timeout:      cfg.Reddit.Timeout,
	})

	scorer := service.NewOpenAIScorer(&service.ScorerConfig{
		Model:       cfg.Scorer.Model,
		APIKey:      cfg.Scorer.APIKey,
		BaseURL:     cfg.Scorer.BaseURL,
		MaxTokens:   cfg.Scorer.MaxTokens,
		Temperature: cfg.Scorer.Temperature,
		Timeout:     cfg.Scorer.Timeout,
	})

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector("memefinder")
	}

	searchService := service.NewSearchService(redditClient, scorer, collector, appLogger, &service.SearchConfig{
		PageSize:       cfg.Search.PageSize,
		FetchLimit:     cfg.Search.FetchLimit,
		ScoreThreshold: cfg.Search.ScoreThreshold,
		MinSubscribers: cfg.Search.MinSubscribers,
		MaxConcurrency: cfg.Search.MaxConcurrency,
		Catalog:        cfg.Catalog.Subreddits,
	})

	// The archive is optional; downloads work without it
	var archive storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			appLogger.WithError(err).Warn("Meme archive disabled: bucket unavailable")
		} else {
			archive = s3Storage
		}
	}

	downloadService := service.NewDownloadService(&service.DownloadConfig{
		Timeout:   cfg.Reddit.Timeout,
		UserAgent: cfg.Reddit.UserAgent,
	}, archive)

	router := api.SetupRouter(&api.Dependencies{
		Finder:      searchService,
		Downloader:  downloadService,
		Metrics:     collector,
		Logger:      appLogger,
		CatalogSize: len(cfg.Catalog.Subreddits),
	}, &cfg.Server)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":    cfg.Server.Port,
			"mode":    cfg.Server.Mode,
			"catalog": len(cfg.Catalog.Subreddits),
			"archive": archive != nil,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Searches fan out to many upstream calls, so allow in-flight ones to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
