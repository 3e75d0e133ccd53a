package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/rallyscope/internal/api/handlers"
	"github.com/your-org/rallyscope/internal/api/ws"
	"github.com/your-org/rallyscope/internal/auth"
	"github.com/your-org/rallyscope/internal/orchestrator"
	"github.com/your-org/rallyscope/internal/queue"
	"github.com/your-org/rallyscope/internal/storage"
)

type RouterConfig struct {
	APIKey       string
	RateLimit    int
	RateWindow   time.Duration
	MaxUploadMB  int64
	DB           *storage.PostgresStore
	Videos       *storage.VideoStore
	Producer     *queue.Producer
	Orchestrator *orchestrator.Orchestrator
	Hub          *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Videos, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))
	v1.Use(RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Matches
	matchH := handlers.NewMatchHandler(cfg.Orchestrator, cfg.Videos, cfg.MaxUploadMB)
	v1.POST("/matches", matchH.Upload)
	v1.GET("/matches", matchH.List)
	v1.GET("/matches/status", matchH.StatusBatch)
	v1.GET("/matches/:id", matchH.Get)
	v1.GET("/matches/:id/status", matchH.Status)
	v1.GET("/matches/:id/statistics", matchH.Statistics)
	v1.GET("/matches/:id/events", matchH.Events)
	v1.GET("/matches/:id/highlights", matchH.Highlights)
	v1.GET("/matches/:id/video", matchH.Video)
	v1.DELETE("/matches/:id", matchH.Delete)

	return r
}
