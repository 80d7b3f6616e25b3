package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/worker-allocator-go/pkg/auth"
	"github.com/arnavshah/worker-allocator-go/pkg/config"
	"github.com/arnavshah/worker-allocator-go/pkg/database"
	"github.com/arnavshah/worker-allocator-go/pkg/handlers"
	"github.com/arnavshah/worker-allocator-go/pkg/logging"
)

var r http.Handler

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logging.Setup("worker-allocator", cfg.Debug)
	gin.SetMode(gin.ReleaseMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		panic(err)
	}
	store := database.NewStore(db)
	authenticator := auth.New(cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	if err := authenticator.EnsureManagerExists(context.Background(), store, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		slog.Error("could not seed manager", slog.Any("error", err))
	}

	r = handlers.NewRouter(handlers.New(store, authenticator))
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
