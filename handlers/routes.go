package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v71/github"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"feedback-triage/services"
)

// RouterConfig はルーティングに必要な依存
type RouterConfig struct {
	Store               services.FeedbackStore
	Analyzer            *services.Analyzer
	GitHubClient        *github.Client
	GitHubWebhookSecret string
	Clock               clockwork.Clock
	AnalyzeBatchSize    int
	IngestRatePerSecond float64
	IngestBurst         int
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), RequestLogger(cfg.Clock))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/webhook/github", HandleGitHubWebhook(cfg.Store, cfg.GitHubWebhookSecret))

	api := r.Group("/api")
	{
		api.GET("/feedback", HandleListFeedback(cfg.Store))
		api.GET("/feedback/priority", HandleHighPriority(cfg.Store))
		api.GET("/feedback/:id", HandleGetFeedback(cfg.Store))
		api.POST("/feedback", RateLimit(cfg.IngestRatePerSecond, cfg.IngestBurst, cfg.Clock), HandleCreateFeedback(cfg.Store))
		api.POST("/analyze", HandleAnalyze(cfg.Analyzer, cfg.AnalyzeBatchSize))

		if cfg.GitHubClient != nil {
			githubHandler := NewGitHubHandler(cfg.Store, cfg.GitHubClient)
			api.POST("/import/github", githubHandler.HandleImport)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || c.Request.URL.Path == "/api" {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		c.String(http.StatusNotFound, "404 page not found")
	})

	return r
}

// NewHTTPHandler は CORS を付けたハンドラーを返す
func NewHTTPHandler(router http.Handler, allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(router)
}
