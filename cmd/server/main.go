package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rtlscribe/internal/api"
	"rtlscribe/internal/app"
	"rtlscribe/internal/config"
	"rtlscribe/internal/logging"
	"rtlscribe/internal/metrics"
)

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	envErr := godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}
	if err := logging.Init(cfg.LoggingConfig()); err != nil {
		log.Fatal("failed to configure logging", "err", err)
	}
	logger := logging.For("server")
	if envErr != nil {
		logger.Debug("no .env file found, using environment variables")
	}

	// Set Gin mode (default to release mode)
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(reg)

	a, err := app.Build(cfg, m)
	if err != nil {
		logger.Fatal("failed to build pipeline", "err", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(), api.CORS())

	handler := api.NewHandler(a.Pipeline, a.PDF, api.Options{
		Provider:        a.Rotator.ProviderName(),
		Credentials:     len(a.Rotator.Credentials()),
		Language:        cfg.Language,
		Prompt:          cfg.Prompt,
		RefineByDefault: cfg.Refine.Enabled,
		MaxAudioBytes:   cfg.MaxAudioBytes(),
		Metrics:         m,
	})
	handler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("rtlscribe running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
