package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the router with middleware applied. allowedOrigins is the
// CORS allow list.
func (app *Application) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog)
	r.Use(Recoverer)
	r.Use(SecurityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", app.Index)
	r.Get("/health", app.Health)
	r.Get("/history", app.RecentHistory)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/recommend", app.Recommend)
	r.Post("/recommend-legacy", app.RecommendLegacy)
	r.Post("/refresh", app.Refresh)
	r.Post("/analyze-prompt", app.AnalyzePrompt)
	r.Post("/clear-cache", app.ClearCache)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", app.Login)
		r.Get("/callback", app.OAuthCallback)
	})
	return r
}
