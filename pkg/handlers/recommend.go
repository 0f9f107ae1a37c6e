package handlers

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"Crate-Go/pkg/db"
	"Crate-Go/pkg/pipeline"
)

type recommendRequest struct {
	Prompt      string `json:"prompt"`
	Era         string `json:"era"`
	RefreshSeed *int64 `json:"refresh_seed"`
}

// readRecommendRequest decodes the body and enforces a non-blank prompt,
// writing the error response itself when it returns false.
func readRecommendRequest(w http.ResponseWriter, r *http.Request) (pipeline.Request, bool) {
	var body recommendRequest
	if err := decodeJSON(w, r, &body); err != nil && !errors.Is(err, errEmptyBody) {
		respondJSONError(w, http.StatusBadRequest, "Invalid JSON body")
		return pipeline.Request{}, false
	}
	if strings.TrimSpace(body.Prompt) == "" {
		respondJSONError(w, http.StatusBadRequest, "Prompt required")
		return pipeline.Request{}, false
	}
	return pipeline.Request{Prompt: body.Prompt, Era: body.Era, RefreshSeed: body.RefreshSeed}, true
}

// Recommend handles POST /recommend.
func (app *Application) Recommend(w http.ResponseWriter, r *http.Request) {
	req, ok := readRecommendRequest(w, r)
	if !ok {
		return
	}
	app.serveRecommendation(w, r, req, false)
}

// Refresh handles POST /refresh: a recommendation with a fresh seed taken
// from the current time in milliseconds.
func (app *Application) Refresh(w http.ResponseWriter, r *http.Request) {
	req, ok := readRecommendRequest(w, r)
	if !ok {
		return
	}
	seed := app.now().UnixMilli()
	req.RefreshSeed = &seed
	app.serveRecommendation(w, r, req, false)
}

// RecommendLegacy handles POST /recommend-legacy.
func (app *Application) RecommendLegacy(w http.ResponseWriter, r *http.Request) {
	req, ok := readRecommendRequest(w, r)
	if !ok {
		return
	}
	req.RefreshSeed = nil
	app.serveRecommendation(w, r, req, true)
}

func (app *Application) serveRecommendation(w http.ResponseWriter, r *http.Request, req pipeline.Request, legacy bool) {
	var (
		res pipeline.Result
		err error
	)
	if legacy {
		res, err = app.Pipeline.RecommendLegacy(r.Context(), req)
	} else {
		res, err = app.Pipeline.Recommend(r.Context(), req)
	}
	if errors.Is(err, pipeline.ErrEmptyPrompt) {
		respondJSONError(w, http.StatusBadRequest, "Prompt required")
		return
	}
	if err != nil {
		log.WithFields(log.Fields{"prompt": req.Prompt, "request_id": RequestIDFrom(r.Context())}).WithError(err).Error("recommendation failed")
		respondJSONErrorDetails(w, http.StatusInternalServerError, "Search failed. Please try again.", err.Error())
		return
	}
	app.recordHistory(r, req, res)
	respondJSON(w, http.StatusOK, res)
}

func (app *Application) recordHistory(r *http.Request, req pipeline.Request, res pipeline.Result) {
	if app.History == nil || res.Cached {
		return
	}
	entry := db.HistoryEntry{
		Prompt:      strings.TrimSpace(req.Prompt),
		Era:         res.Era,
		Mode:        res.Mode,
		TrackCount:  len(res.Tracks),
		Degraded:    res.Degraded,
		RefreshSeed: res.RefreshSeed,
		CreatedAt:   app.now(),
	}
	if err := app.History.AddHistory(r.Context(), entry); err != nil {
		log.WithError(err).Warn("failed to record history")
	}
}

// AnalyzePrompt handles POST /analyze-prompt and returns the analysis alone.
func (app *Application) AnalyzePrompt(w http.ResponseWriter, r *http.Request) {
	req, ok := readRecommendRequest(w, r)
	if !ok {
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	a := app.Analyzer.Analyze(r.Context(), prompt, req.RefreshSeed)
	respondJSON(w, http.StatusOK, map[string]any{
		"analysis":   a.PromptAnalysis,
		"prompt":     prompt,
		"degraded":   a.Degraded,
		"ai_version": "Enhanced Sample Discovery v3.0",
	})
}

// ClearCache handles POST /clear-cache.
func (app *Application) ClearCache(w http.ResponseWriter, r *http.Request) {
	if app.Cache != nil {
		if err := app.Cache.Clear(r.Context()); err != nil {
			log.WithError(err).Error("cache clear failed")
			respondJSONErrorDetails(w, http.StatusInternalServerError, "Failed to clear cache", err.Error())
			return
		}
	}
	log.Info("recommendation cache cleared")
	respondJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared successfully"})
}
