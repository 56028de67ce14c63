package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spicepos/terminal/internal/backend"
	"github.com/spicepos/terminal/internal/catalog"
	"github.com/spicepos/terminal/internal/config"
	"github.com/spicepos/terminal/internal/handler"
	mw "github.com/spicepos/terminal/internal/middleware"
	"github.com/spicepos/terminal/internal/service"
	"github.com/spicepos/terminal/internal/ws"
)

// New creates a Chi router with all terminal routes wired up. Everything but
// login, health and the websocket upgrade sits behind the session token.
func New(cfg *config.Config, client *backend.Client, cat *catalog.Catalog, orders *service.OrderService, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.UIOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(client, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		handler.NewCatalogHandler(cat).RegisterRoutes(r)
		handler.NewCartHandler(orders).RegisterRoutes(r)
		handler.NewHeldOrderHandler(orders).RegisterRoutes(r)
		handler.NewConfigHandler(client).RegisterRoutes(r)
	})

	return r
}
