package cmd

import (
	"fmt"

	"jukebox/config"
	"jukebox/handlers"
	"jukebox/logger"
	"jukebox/metrics"
	"jukebox/middleware"
	"jukebox/services"
	"jukebox/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StartWebServer loads or builds the catalog and serves it until the
// listener fails
func StartWebServer(cfg *config.Config) error {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	fileService := services.NewFileService()

	store, err := services.OpenCatalog(cfg.CatalogFile, cfg.MusicDir, fileService)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	metrics.SetCatalogSize(store.Len())

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	r := NewRouter(cfg, store, fileService, hub)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("jukebox server starting",
		logger.String("addr", addr),
		logger.String("music_dir", cfg.MusicDir),
		logger.String("catalog_file", cfg.CatalogFile),
		logger.Int("songs", store.Len()))
	logger.Info(fmt.Sprintf("server running at http://localhost:%d", cfg.Port))

	if err := r.Run(addr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// NewRouter wires middleware and routes around an opened catalog
func NewRouter(cfg *config.Config, store services.CatalogStore, fileService services.FileService, hub websocket.Hub) *gin.Engine {
	songHandler := handlers.NewSongHandler(store, hub)
	streamHandler := handlers.NewStreamHandler(store, fileService, cfg.MusicDir)
	healthHandler := handlers.NewHealthHandler(store, cfg.MusicDir)
	playFeedHandler := handlers.NewPlayFeedHandler(hub)

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.CORSOrigins))

	setupRoutes(r, songHandler, streamHandler, healthHandler, playFeedHandler)
	return r
}

// setupRoutes configures all the HTTP routes
func setupRoutes(r *gin.Engine, songHandler *handlers.SongHandler, streamHandler *handlers.StreamHandler, healthHandler *handlers.HealthHandler, playFeedHandler *handlers.PlayFeedHandler) {
	r.GET("/health", healthHandler.HealthCheck)
	r.GET("/api/status", healthHandler.APIStatus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Catalog
	r.GET("/songs", songHandler.ListSongs)
	r.GET("/songs/:id", songHandler.GetSong)
	r.GET("/songs/:id/stream", streamHandler.StreamSong)
	r.GET("/search", songHandler.Search)
	r.POST("/play/:id", songHandler.Play)

	// Live play feed
	r.GET("/ws/plays", playFeedHandler.HandleWebSocketConnection)
}
