package app

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

	"memwatch/internal/config"
	"memwatch/internal/database"
	"memwatch/internal/handler"
	"memwatch/internal/middleware"
	"memwatch/internal/repository"
	"memwatch/internal/router"
	"memwatch/internal/sampler"
	"memwatch/internal/scheduler"
	"memwatch/internal/service"
	"memwatch/internal/token"
)

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	sampleRepo := repository.NewSampleRepository(pool)
	slog.Info("database ready")

	codec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}

	authService := service.NewAuthService(userRepo, codec, cfg.TokenTTL)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		User:   handler.NewUserHandler(authService),
		Memory: handler.NewMemoryHandler(sampleRepo),
	})

	sched := scheduler.Start(sampler.New(cfg.ProbeTimeout), sampleRepo, cfg.SampleInterval)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			// The scheduler stops before the pool closes so an in-flight
			// insert is not cut off mid-write.
			sched.Stop,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
