package main

import (
	"net/http"

	"go.uber.org/zap"

	httphandlers "finlink/internal/interfaces/http"
	"finlink/internal/shared/config"
	"finlink/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", httphandlers.HandleHealth)

	// Public auth routes
	mux.HandleFunc("POST /auth/register", deps.AuthHandler.HandleRegister)
	mux.HandleFunc("POST /auth/login", deps.AuthHandler.HandleLogin)
	mux.HandleFunc("POST /auth/refresh", deps.AuthHandler.HandleRefresh)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT, logger)

	mux.Handle("GET /auth/me", authMiddleware(http.HandlerFunc(deps.AuthHandler.HandleMe)))
	mux.Handle("GET /belvo/banks", authMiddleware(http.HandlerFunc(deps.BelvoHandler.HandleBanks)))
	mux.Handle("GET /belvo/balance", authMiddleware(http.HandlerFunc(deps.BelvoHandler.HandleBalance)))
	mux.Handle("POST /belvo/links", authMiddleware(http.HandlerFunc(deps.BelvoHandler.HandleCreateLink)))
	mux.Handle("GET /belvo/access-token", authMiddleware(http.HandlerFunc(deps.BelvoHandler.HandleAccessToken)))

	// Tracing reads the matched pattern, so it wraps the mux directly.
	var handler http.Handler = middleware.Tracing(mux)
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(handler)
	}

	// Apply global middleware
	handler = middleware.Logging(logger)(middleware.CORS(cfg.Server.AllowedHosts)(handler))

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		logger.Info("TLS security middleware enabled (HSTS)")
	}

	return handler
}
