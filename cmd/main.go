package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AtoyanMikhail/accounts/internal/auth"
	"github.com/AtoyanMikhail/accounts/internal/cache"
	"github.com/AtoyanMikhail/accounts/internal/config"
	"github.com/AtoyanMikhail/accounts/internal/handlers"
	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/AtoyanMikhail/accounts/internal/token"
	"github.com/AtoyanMikhail/accounts/internal/users"
)

func main() {
	logger.Initialize(os.Stdout)
	l := logger.Global()
	defer l.Sync()

	cfg, err := config.GetConfig()
	if err != nil {
		l.Fatal("Failed to load config", logger.Error(err))
	}

	userRepo, err := users.NewRepository(cfg.Database, l)
	if err != nil {
		l.Fatal("Failed to connect to database", logger.Error(err))
	}
	defer userRepo.Close()

	if err := userRepo.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		l.Fatal("Failed to run migrations", logger.Error(err))
	}

	redisCache, err := cache.NewRedisCache(cfg.Redis, l)
	if err != nil {
		l.Fatal("Failed to connect to Redis", logger.Error(err))
	}
	defer redisCache.Close()

	codec, err := token.NewCodec(cfg.JWT)
	if err != nil {
		l.Fatal("Failed to create token codec", logger.Error(err))
	}

	tokenStore := cache.NewTokenStore(redisCache, l)
	userService := users.NewService(userRepo, l)
	authService := auth.NewService(codec, tokenStore, userService, cfg.JWT, l)

	authHandler := handlers.NewAuthHandler(authService, userService, handlers.LogNotifier{L: l}, l, cfg.Server.DebugMode)
	userHandler := handlers.NewUserHandler(userService, authService, l)
	healthHandler := handlers.NewHealthHandler(redisCache)

	router := handlers.NewRouter(authHandler, userHandler, healthHandler, authService, l, cfg.Server.DebugMode)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go func() {
		l.Info("HTTP server listening", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("HTTP server failed", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		l.Error("Forced shutdown", logger.Error(err))
	}
}
