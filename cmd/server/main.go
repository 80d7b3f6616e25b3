package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/worker-allocator-go/pkg/auth"
	"github.com/arnavshah/worker-allocator-go/pkg/config"
	"github.com/arnavshah/worker-allocator-go/pkg/database"
	"github.com/arnavshah/worker-allocator-go/pkg/handlers"
	"github.com/arnavshah/worker-allocator-go/pkg/logging"
)

func main() {
	// Load .env if it exists
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("could not load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logging.Setup("worker-allocator", cfg.Debug)

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(cfg.GinMode)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		slog.Error("could not open database", slog.Any("error", err))
		os.Exit(1)
	}

	store := database.NewStore(db)
	authenticator := auth.New(cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	if err := authenticator.EnsureManagerExists(context.Background(), store, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		slog.Error("could not seed manager", slog.Any("error", err))
	}

	r := handlers.NewRouter(handlers.New(store, authenticator))

	slog.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		slog.Error("could not run server", slog.Any("error", err))
		os.Exit(1)
	}
}
