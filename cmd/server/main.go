package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/OpenDocFlow/docflow/internal/auth"
	"github.com/OpenDocFlow/docflow/internal/config"
	"github.com/OpenDocFlow/docflow/internal/database"
	"github.com/OpenDocFlow/docflow/internal/directory"
	"github.com/OpenDocFlow/docflow/internal/middleware"
	"github.com/OpenDocFlow/docflow/internal/notify"
	"github.com/OpenDocFlow/docflow/internal/scheduler"
	"github.com/OpenDocFlow/docflow/internal/workflow/router"
	"github.com/OpenDocFlow/docflow/internal/workflow/service"
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	slog.Info("configuration loaded successfully",
		"db_host", cfg.Database.Host,
		"db_port", cfg.Database.Port,
		"db_name", cfg.Database.Name,
		"db_sslmode", cfg.Database.SSLMode,
	)

	slog.Info("server configuration",
		"port", cfg.Server.Port,
		"scheduler_enabled", cfg.Scheduler.Enabled,
	)

	// Initialize database connection
	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Error("failed to close database", "error", err)
		}
	}()

	// Perform health check
	if err := database.HealthCheck(db); err != nil {
		log.Fatalf("database health check failed: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Directory and auth
	dirSvc := directory.NewService(db)
	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authSvc := auth.NewService(dirSvc, issuer)
	authRouter := auth.NewRouter(authSvc)

	// Side-effect collaborators
	notifySvc := notify.NewService(db)
	notifyRouter := notify.NewRouter(notifySvc)
	broadcaster := notify.NewBroadcaster()

	// Workflow core
	txr := service.NewGormTxRunner(db)
	workflowRepo := service.NewGormWorkflowRepository(db)
	actionRepo := service.NewGormActionRepository(db)
	goalRepo := service.NewGormGoalRepository(db)
	approvalRepo := service.NewGormApprovalRequestRepository(db)
	engine := service.NewRoutingEngine(dirSvc)

	workflowSvc := service.NewWorkflowService(txr, workflowRepo, goalRepo, approvalRepo, actionRepo, engine, dirSvc, notifySvc, notifySvc, broadcaster)
	actionSvc := service.NewActionService(txr, workflowRepo, actionRepo, approvalRepo, engine, dirSvc, notifySvc, notifySvc, broadcaster)
	goalSvc := service.NewGoalService(workflowRepo, goalRepo, dirSvc, notifySvc, notifySvc, broadcaster)

	// Goal reminder scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(goalRepo, dirSvc, notifySvc, cfg.Scheduler.SweepTimeout)
		if err := sched.Start(cfg.Scheduler.GoalReminderCron); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
	}

	// HTTP routes
	engineRouter := gin.New()
	engineRouter.Use(gin.Recovery())
	engineRouter.Use(middleware.CORS(&cfg.CORS))

	engineRouter.GET("/healthz", func(c *gin.Context) {
		if err := database.HealthCheck(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engineRouter.Group("/api/v1")
	api.POST("/auth/login", authRouter.HandleLogin)

	authed := api.Group("")
	authed.Use(auth.RequireAuth(authSvc))
	authed.GET("/auth/me", authRouter.HandleMe)
	authed.GET("/notifications", notifyRouter.HandleList)
	authed.POST("/notifications/:id/read", notifyRouter.HandleMarkRead)
	router.Register(authed,
		router.NewWorkflowRouter(workflowSvc),
		router.NewActionRouter(actionSvc),
		router.NewGoalRouter(goalSvc),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: engineRouter,
	}

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to start server", "error", err)
			quit <- syscall.SIGTERM
		}
	}()

	// Wait for interrupt signal
	<-quit
	slog.Info("shutting down server...")

	// Create a context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Attempt graceful shutdown of HTTP server
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	} else {
		slog.Info("server gracefully stopped")
	}

	if sched != nil {
		sched.Stop()
	}

	slog.Info("server stopped")
}
