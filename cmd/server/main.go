package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tracklite/tracklite/internal/config"
	"github.com/tracklite/tracklite/internal/database"
	"github.com/tracklite/tracklite/internal/handlers"
	"github.com/tracklite/tracklite/internal/logger"
	"github.com/tracklite/tracklite/internal/middleware"
	"github.com/tracklite/tracklite/internal/services"
	"github.com/tracklite/tracklite/internal/store"
)

func main() {
	dev := flag.Bool("dev", false, "Run with the in-memory store instead of Postgres")
	flag.Parse()

	cfg := config.Default()
	if err := config.Load("TRACKLITE_", &cfg); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	// Pick the store backend.
	var st store.Store
	if *dev {
		logger.Warn("running with the in-memory store; data will not survive a restart")
		st = store.NewMemory()
	} else {
		db, err := database.NewDB(cfg.Database)
		if err != nil {
			logger.Error("failed to initialize database", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		st = store.NewPostgres(db.Pool)
	}

	// Initialize services
	entryService := services.NewTimeEntryService(st)
	timerService := services.NewTimerService(st)
	reportingService := services.NewReportingService(st)
	exportService := services.NewExportService(st)

	// Initialize handlers
	entryHandler := handlers.NewTimeEntryHandler(entryService)
	timerHandler := handlers.NewTimerHandler(timerService)
	reportHandler := handlers.NewReportHandler(reportingService)
	exportHandler := handlers.NewExportHandler(exportService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigin))
	router.Use(middleware.MetricsMiddleware())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", middleware.MetricsHandler())

	// App API surface (quick create rules).
	api := router.Group("/api/workspaces/:slug")
	api.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))

	issues := api.Group("/projects/:projectID/issues/:issueID")
	issues.GET("/time-entries", entryHandler.List)
	issues.POST("/time-entries", entryHandler.Create)
	issues.PATCH("/time-entries/:entryID", entryHandler.Update)
	issues.DELETE("/time-entries/:entryID", entryHandler.Delete)
	issues.POST("/timer", timerHandler.Start)
	issues.DELETE("/timer", timerHandler.Stop)
	issues.GET("/timer/active", timerHandler.Active)
	issues.GET("/summary", reportHandler.Summary)

	tracking := api.Group("/time-tracking")
	tracking.GET("/reports", reportHandler.Report)
	tracking.GET("/export", middleware.ExportRateLimitMiddleware(), exportHandler.Download)

	// Public API surface (strict create rules).
	public := router.Group("/api/v1/workspaces/:slug")
	public.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret))
	public.POST("/projects/:projectID/issues/:issueID/time-entries", entryHandler.CreateStrict)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr, "dev", *dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err.Error())
	}
	logger.Info("server stopped")
}
