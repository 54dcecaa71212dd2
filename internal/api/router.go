package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/memefinder/internal/api/handler"
	"github.com/timmy/memefinder/internal/api/middleware"
	"github.com/timmy/memefinder/internal/config"
	"github.com/timmy/memefinder/internal/logger"
	"github.com/timmy/memefinder/internal/metrics"
)

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Finder      handler.MemeFinder
	Downloader  handler.ImageFetcher
	Metrics     *metrics.Collector // nil disables /metrics
	Logger      *logger.Logger
	CatalogSize int
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps *Dependencies, server *config.ServerConfig) *gin.Engine {
	switch server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	log := deps.Logger
	if log == nil {
		log = logger.GetDefault()
	}

	r := gin.New()

	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  server.CORS.AllowedOrigins,
		AllowAllOrigins: server.CORS.AllowAllOrigins,
	}))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	healthHandler := handler.NewHealthHandler(deps.CatalogSize)
	memeHandler := handler.NewMemeHandler(deps.Finder)
	downloadHandler := handler.NewDownloadHandler(deps.Downloader)

	r.GET("/", handler.Index)
	r.GET("/health", healthHandler.Health)

	memes := r.Group("/api/memes")
	{
		memes.GET("", memeHandler.SearchMemes)
		memes.POST("", memeHandler.RankSubreddits)
		memes.GET("/download", downloadHandler.Download)
	}

	return r
}
