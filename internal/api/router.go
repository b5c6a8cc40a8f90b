package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/replaybrowser/replaybrowser/internal/api/handler"
	apimiddleware "github.com/replaybrowser/replaybrowser/internal/api/middleware"
	"github.com/replaybrowser/replaybrowser/internal/dependencies/clock"
	"github.com/replaybrowser/replaybrowser/internal/middleware"
	"github.com/replaybrowser/replaybrowser/internal/services/account"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
	"github.com/replaybrowser/replaybrowser/internal/services/export"
	"github.com/replaybrowser/replaybrowser/internal/services/replay"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Clock          clock.Clock
	AuthService    *auth.Service
	AccountService *account.Service
	ReplayService  *replay.Service
	ExportService  *export.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.AccountService)
	accountHandler := handler.NewAccountHandler(cfg.AccountService, cfg.ReplayService, cfg.ExportService, cfg.AuthService, cfg.Clock)
	adminHandler := handler.NewAdminHandler(cfg.AccountService, cfg.ExportService, cfg.AuthService, cfg.Clock)
	replayHandler := handler.NewReplayHandler(cfg.ReplayService)

	// Create middleware
	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Auth routes (login itself needs no session)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)

	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(authMiddleware)
	authProtected.HandleFunc("/logout", authHandler.Logout).Methods(http.MethodPost)

	// Account routes (all require auth)
	acct := api.PathPrefix("/account").Subrouter()
	acct.Use(authMiddleware)
	acct.HandleFunc("", accountHandler.Get).Methods(http.MethodGet)
	acct.HandleFunc("", accountHandler.Delete).Methods(http.MethodDelete)
	acct.HandleFunc("/export", accountHandler.Export).Methods(http.MethodGet)
	acct.HandleFunc("/favorites", accountHandler.ListFavorites).Methods(http.MethodGet)
	acct.HandleFunc("/favorites", accountHandler.AddFavorite).Methods(http.MethodPost)
	acct.HandleFunc("/favorites/{replay_id}", accountHandler.RemoveFavorite).Methods(http.MethodDelete)

	// Admin routes (auth required; admin status checked per handler)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authMiddleware)
	admin.HandleFunc("/accounts/{identifier}", adminHandler.DeleteAccount).Methods(http.MethodDelete)
	admin.HandleFunc("/accounts/{identifier}/export", adminHandler.ExportAccount).Methods(http.MethodGet)

	// Replay browsing (public)
	api.HandleFunc("/replays", replayHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/replays/search", replayHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/replays/{id}", replayHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
