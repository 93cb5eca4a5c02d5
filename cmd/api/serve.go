package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"product-search/config"
	deliveryhttp "product-search/internal/delivery/http"
	"product-search/internal/delivery/http/middleware"
	v1 "product-search/internal/delivery/http/v1"
	"product-search/internal/delivery/http/web"
	"product-search/internal/infrastructure/cache"
	"product-search/internal/infrastructure/catalog"
	"product-search/internal/usecase"
	"product-search/pkg/logger"

	"github.com/NYTimes/gziphandler"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const serviceName = "product-search"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)

	// Catalog Module
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout)
	searchUC := usecase.NewSearchUsecase(catalogClient, cfg.CatalogTimeout, cfg.SearchPageSize, cfg.SearchMaxPageSize, cfg.SearchSuggestions)

	// Session store (In-Memory), janitor runs at half the TTL
	memCache := cache.NewMemoryCache(cfg.SessionTTL, cfg.SessionTTL/2)
	sessions := usecase.NewSessionManager(searchUC, memCache, usecase.SessionOptions{
		Debounce:    cfg.SearchDebounce,
		PageSize:    cfg.SearchPageSize,
		Suggestions: cfg.SearchSuggestions,
	}, cfg.SessionTTL)

	// Page Module
	tmpl, err := web.ParseTemplates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	imageHosts := append([]string{cfg.CatalogHost()}, cfg.ImageAllowedHosts...)

	mux := deliveryhttp.NewRouter(deliveryhttp.Handlers{
		Search:   v1.NewSearchHandler(searchUC),
		Sessions: v1.NewSessionHandler(sessions),
		Page:     web.NewPageHandler(searchUC, tmpl, cfg.SearchDebounce, cfg.SearchSuggestions),
		Images:   web.NewImageHandler(&http.Client{Timeout: cfg.CatalogTimeout}, imageHosts, cfg.ImageMaxWidth, cfg.ImageQuality),
	})

	// Rate limiter: cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		rate.Limit(cfg.RateLimitRPS),
		cfg.RateLimitBurst,
		time.Minute,
		3*time.Minute,
		"/health", "/api/v1/health",
	)

	// Apply CORS, Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg.AllowedOrigin)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.ServiceStart(serviceName, version, cfg.Port)
	logger.Info().Str("catalog", cfg.CatalogBaseURL).Msg("Catalog upstream configured")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		logger.Error().Err(err).Msg("Server failed to start")
		rateLimiter.Shutdown()
		sessions.Shutdown()
		return err
	}

	logger.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("Server forced to shutdown")
	}
	sessions.Shutdown()

	logger.ServiceStop(serviceName)
	return nil
}
