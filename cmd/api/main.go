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

	"tripbudget/internal/app"
	"tripbudget/internal/config"
	"tripbudget/internal/database"
	"tripbudget/internal/handlers"
	"tripbudget/internal/logger"
	"tripbudget/internal/observability"
	"tripbudget/internal/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// @title           Trip Budget API
// @version         1.0
// @description     Budget ledger for trips: allocations, expenses, spending analytics and exports.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if appConfig.LogLevel != "" {
		if err := logger.SetLevel(appConfig.LogLevel); err != nil {
			return fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	shutdownTracer, err := observability.InitTracer(appConfig.OTLPEndpoint, appConfig.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			log.Warnw("tracer shutdown error", "error", err)
		}
	}()

	a, err := app.New(appConfig, dbConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	validator.Register()
	router := handlers.NewRouter(handlers.Services{
		Ledger:         a.Ledger,
		Analytics:      a.Analytics,
		Audit:          a.Audit,
		Metrics:        a.Metrics,
		AllowedOrigins: appConfig.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infow("Starting trip budget server", "port", appConfig.Port, "storage", dbConfig.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		log.Info("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
