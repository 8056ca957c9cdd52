package server

import (
	"gemini-proxy/config"
	"gemini-proxy/handlers"
	"gemini-proxy/middleware"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	EndPointLiveness = "/"
	EndPointGemini   = "/api/gemini"
	EndPointVersion  = "/version"
	EndPointMetrics  = "/metrics"
)

// NewRouter wires middleware and routes. It does not start listening.
func NewRouter(cfg *config.Config, h *handlers.Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.AccessLog())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.GzipEnabled {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{EndPointMetrics})))
	}

	router.GET(EndPointLiveness, h.Liveness)
	router.GET(EndPointVersion, h.Version)
	router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))

	router.POST(EndPointGemini, middleware.BodyLimit(cfg.MaxBodyBytes), h.Generate)

	return router
}
