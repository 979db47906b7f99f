/*
Package handler provides the HTTP handlers and routing setup for the Inkwell Collab Server.

This file defines the main Router, applying middleware (logging, CORS, IP rate
limiting) before delegating to the health and WebSocket handlers. The whole
HTTP surface of this service is the handshake endpoint plus a health check;
document CRUD lives in other services.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"inkwell/internal/pkg/limiter"
	"inkwell/internal/pkg/logx"
	"inkwell/internal/pkg/resp"
)

const (
	// HandshakeRate and HandshakeBurst bound per-IP WebSocket handshakes.
	HandshakeRate  = 0.2
	HandshakeBurst = 5
)

// Router sets up the HTTP routing table (chi.Router) for the application.
// It configures CORS against the allowed origins, applies global middleware,
// and mounts the health and WebSocket endpoints.
func Router(deps *AppDeps) http.Handler {
	handshakeLimiter := limiter.NewIPRateLimiter(rate.Limit(HandshakeRate), HandshakeBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		rooms, connections := deps.Hub.Stats()

		data := map[string]any{
			"status":      "ok",
			"service":     "Inkwell Collab Server",
			"rooms":       rooms,
			"connections": connections,
		}
		resp.RespondSuccess(w, r, data)
	})

	r.Get("/ws", handshakeLimiter.Middleware(HandleWebSocket(deps, wsUpgrader)).ServeHTTP)

	return r
}
