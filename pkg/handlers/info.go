package handlers

import (
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
)

const serviceName = "TheCrate Sample Discovery API"

// Index handles GET / with a description of the API.
func (app *Application) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"message":     "TheCrate - AI-Powered Sample Discovery",
		"description": "Sample finder built on prompt analysis and the Spotify catalog",
		"endpoints": map[string]string{
			"/auth/login":       "GET - Start Spotify OAuth flow",
			"/auth/callback":    "GET - Spotify OAuth callback",
			"/recommend":        "POST - Sample recommendations, optional refresh_seed",
			"/recommend-legacy": "POST - Recommendations from numbered suggestions only",
			"/refresh":          "POST - Recommendations with a fresh seed",
			"/analyze-prompt":   "POST - Analyze a search prompt",
			"/clear-cache":      "POST - Clear the recommendation cache",
			"/history":          "GET - Recently served requests",
			"/health":           "GET - Health check",
			"/metrics":          "GET - Prometheus metrics",
		},
		"status":             "running",
		"ai_enabled":         app.AIEnabled,
		"spotify_configured": app.SpotifyConfigured,
		"frontend_url":       app.FrontendURL,
	})
}

// Health handles GET /health with a static capability descriptor.
func (app *Application) Health(w http.ResponseWriter, r *http.Request) {
	aiStatus := "disabled - keyword fallback"
	if app.AIEnabled {
		aiStatus = "enabled"
	}
	spotifyAuth := "missing"
	if app.SpotifyConfigured {
		spotifyAuth = "configured"
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"service":      serviceName,
		"ai_status":    aiStatus,
		"spotify_auth": spotifyAuth,
		"features": []string{
			"basic-recommendations",
			"refresh-functionality",
			"cache-management",
			"legacy-fallback",
		},
	})
}

// RecentHistory handles GET /history?limit=N.
func (app *Application) RecentHistory(w http.ResponseWriter, r *http.Request) {
	if app.History == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "History not available")
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			respondJSONError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	entries, err := app.History.RecentHistory(r.Context(), limit)
	if err != nil {
		log.WithError(err).Error("history query failed")
		respondJSONError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"history": entries})
}

// NotFound is the JSON 404 handler.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondJSONError(w, http.StatusNotFound, "Endpoint not found")
}

// MethodNotAllowed is the JSON 405 handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
