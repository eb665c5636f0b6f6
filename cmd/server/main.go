package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	authhandler "users-api/backend/internal/auth/handler"
	"users-api/backend/internal/auth/service"
	"users-api/backend/internal/config"
	credentialrepo "users-api/backend/internal/credential/repository"
	"users-api/backend/internal/db"
	healthhandler "users-api/backend/internal/health/handler"
	"users-api/backend/internal/security"
	"users-api/backend/internal/server"
	"users-api/backend/internal/server/middleware"
	sessionrepo "users-api/backend/internal/session/repository"
	userhandler "users-api/backend/internal/user/handler"
	userrepo "users-api/backend/internal/user/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config", "error", err)
		os.Exit(1)
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Error("database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	hasher := security.NewHasher(cfg.BcryptCost)
	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTAccessSecret),
		[]byte(cfg.JWTRefreshSecret),
		cfg.JWTIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)

	users := userrepo.NewPostgresRepository(database)
	creds := credentialrepo.NewPostgresRepository(database)
	sessions := sessionrepo.NewPostgresRepository(database)
	authSvc := service.NewAuthService(users, creds, sessions, hasher, tokens)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := server.NewRouter(server.Deps{
		Auth:         authhandler.New(authSvc, logger, cfg.IsProduction()),
		Users:        userhandler.New(users, authSvc, logger),
		Health:       healthhandler.New(database),
		Tokens:       tokens,
		Logger:       logger,
		LoginLimiter: middleware.NewRateLimiter(cfg.LoginRateMax, cfg.LoginWindow()),
		Registry:     registry,
	})

	srv := server.NewHTTPServer(cfg.HTTPAddr, router)

	go func() {
		logger.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("serve", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("http server stopped")
}
