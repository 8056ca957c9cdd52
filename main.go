package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gemini-proxy/config"
	"gemini-proxy/gemini"
	"gemini-proxy/handlers"
	"gemini-proxy/metrics"
	"gemini-proxy/server"
	"gemini-proxy/service"
	"gemini-proxy/version"

	"github.com/apex/log"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)
	if os.Getenv(gin.EnvGinMode) == "" && cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Infof("Starting %s", version.Get())
	if !cfg.HasAPIKey() {
		log.Warn("GEMINI_API_KEY is not set, /api/gemini will answer 500 until it is configured")
	}

	metrics.Register()

	client := gemini.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTimeout)
	relay := service.NewService(cfg, client)
	router := server.NewRouter(cfg, handlers.NewHandlers(relay))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Leaves room for a full upstream round trip.
		WriteTimeout: cfg.GeminiTimeout + 10*time.Second,
		IdleTimeout:  90 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"model":   client.Model(),
			"timeout": cfg.GeminiTimeout.String(),
		}).Infof("Gemini proxy in ascolto su http://localhost:%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetHandler(json.New(os.Stderr))
	default:
		log.SetHandler(text.New(os.Stderr))
	}

	level, err := log.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		log.Warnf("Unknown LOG_LEVEL %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
