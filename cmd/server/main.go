package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"desa-portal/internal"
	"desa-portal/internal/config"
	"desa-portal/internal/handlers"
	"desa-portal/internal/metrics"
	"desa-portal/internal/middleware"
	"desa-portal/internal/services"
	"desa-portal/internal/storage"
	"desa-portal/internal/store"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := internal.InitDB(cfg, log); err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	db := store.NewGorm(internal.DB)

	// Initialize storage client based on configuration
	ctx := context.Background()
	var storageClient storage.StorageClient
	var localStorageClient *storage.LocalStorageClient

	switch cfg.Storage.Type {
	case "local":
		client, err := storage.NewLocalStorageClient(cfg.Storage.LocalPath, cfg.Storage.LocalURL, cfg.Storage.SecretKey)
		if err != nil {
			log.Error("failed to initialize local storage", "error", err)
			os.Exit(1)
		}
		storageClient = client
		localStorageClient = client
		log.Info("local storage initialized", "path", cfg.Storage.LocalPath, "base_url", cfg.Storage.LocalURL)
	default:
		client, err := storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.CredentialsPath)
		if err != nil {
			log.Error("failed to initialize GCS client", "error", err)
			os.Exit(1)
		}
		storageClient = client
		log.Info("GCS storage initialized", "bucket", cfg.GCS.BucketName)
	}
	defer storageClient.Close()

	// PDF generation is optional; letters still render without it
	var converter services.PDFConverter
	pdfService, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout)
	if err != nil {
		log.Warn("PDF service unavailable", "error", err)
	} else {
		converter = pdfService
		log.Info("PDF service initialized", "url", cfg.Gotenberg.URL, "timeout", cfg.Gotenberg.Timeout)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	defaults := services.LetterDefaults{
		Location:           cfg.Letter.Location(),
		SignerPosition:     cfg.Letter.SignerPosition,
		DefaultSignerName:  cfg.Letter.DefaultSignerName,
		DefaultSignerTitle: cfg.Letter.DefaultSignerTitle,
		DefaultLogoURL:     cfg.Letter.DefaultLogoURL,
	}

	statisticsService := services.NewStatisticsService(db, log)
	templateService := services.NewLetterTemplateService(db, defaults, m, log)
	requestService := services.NewLetterRequestService(db, defaults, statisticsService, converter, storageClient, m, log)
	requestService.SetPDFURLExpiry(cfg.Letter.PDFURLExpiry)
	verificationService := services.NewVerificationService(db, defaults, statisticsService, m, log)
	activityLogService := services.NewActivityLogService(db, log)

	if created, err := templateService.InitializeDefaultTemplates(ctx); err != nil {
		log.Warn("failed to initialize default letter templates", "error", err)
	} else if created > 0 {
		log.Info("default letter templates created", "count", created)
	}

	tokens := middleware.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	routes := &handlers.Routes{
		Templates:    handlers.NewLetterTemplateHandler(templateService, log),
		Requests:     handlers.NewLetterRequestHandler(requestService, log),
		Verification: handlers.NewVerificationHandler(verificationService, log),
		Statistics:   handlers.NewStatisticsHandler(statisticsService, log),
		Logs:         handlers.NewLogsHandler(activityLogService, log),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	corsConfig := cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	r.Use(cors.New(corsConfig))
	r.Use(activityLogService.LoggingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"storage":   cfg.Storage.Type,
			"database":  cfg.Database.Driver,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	// Signed links only resolve when local storage has a public base URL
	if localStorageClient != nil && cfg.Storage.LocalURL != "" && cfg.Storage.LocalURL != "internal://storage" {
		r.GET("/files/*filepath", handlers.ServeSignedFile(localStorageClient, log))
		log.Info("local file server enabled at /files")
	}

	routes.Register(r, tokens)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 150 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	// Pending activity log writes finish before the database closes
	activityLogService.Wait()

	if err := internal.CloseDB(); err != nil {
		log.Error("error closing database", "error", err)
	}

	log.Info("server exited")
}
