package http

import (
	"log/slog"
	"net/http"
)

type RouterConfig struct {
	Auth      *AuthHandler
	Dashboard *DashboardHandler
	API       *APIHandler
	// Gate guards every route except login, health and metrics.
	Gate       Gate
	Health     http.Handler
	Metrics    http.Handler
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := func(h http.HandlerFunc) http.Handler {
		return h
	}
	if cfg.Gate != nil {
		requireAdmin := RequireAdmin(cfg.Gate, cfg.Logger)
		protect = func(h http.HandlerFunc) http.Handler {
			return requireAdmin(h)
		}
	}

	if cfg.Auth != nil {
		mux.HandleFunc("GET /login", cfg.Auth.ShowLogin)
		mux.HandleFunc("POST /login", cfg.Auth.Login)
		mux.HandleFunc("POST /logout", cfg.Auth.Logout)
		mux.HandleFunc("POST /api/session", cfg.Auth.CreateSession)
		mux.HandleFunc("DELETE /api/session", cfg.Auth.DeleteSession)
	}

	if cfg.Dashboard != nil {
		mux.Handle("GET /{$}", protect(cfg.Dashboard.Show))
		mux.Handle("POST /developers", protect(cfg.Dashboard.SubmitForm))
	}

	if cfg.API != nil {
		mux.Handle("GET /api/session", protect(cfg.API.Session))
		mux.Handle("GET /api/developers", protect(cfg.API.ListDevelopers))
		mux.Handle("POST /api/developers", protect(cfg.API.CreateDeveloper))
		mux.Handle("GET /api/skills", protect(cfg.API.ListSkills))
	}

	if cfg.Health != nil {
		mux.Handle("GET /healthz", cfg.Health)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
		}
	}

	return handler
}
