// Package handlers contains the HTTP surface of the sample discovery API:
// recommendation endpoints, operational endpoints and the Spotify login flow.
// Every response body is JSON.
package handlers

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"Crate-Go/pkg/analyzer"
	"Crate-Go/pkg/cache"
	"Crate-Go/pkg/db"
	"Crate-Go/pkg/pipeline"
)

// Recommender produces recommendations; *pipeline.Pipeline satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
	RecommendLegacy(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// PromptAnalyzer backs /analyze-prompt.
type PromptAnalyzer interface {
	Analyze(ctx context.Context, prompt string, seed *int64) analyzer.Analysis
}

// HistoryStore records served requests.
type HistoryStore interface {
	AddHistory(ctx context.Context, e db.HistoryEntry) error
	RecentHistory(ctx context.Context, limit int) ([]db.HistoryEntry, error)
}

// Authenticator is the authorization-code half of an oauth2.Config.
type Authenticator interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// Application bundles the dependencies used by the HTTP handlers. History
// and OAuth are optional.
type Application struct {
	Pipeline Recommender
	Analyzer PromptAnalyzer
	Cache    cache.Cache
	History  HistoryStore
	OAuth    Authenticator
	SignKey  []byte

	FrontendURL       string
	AIEnabled         bool
	SpotifyConfigured bool

	// Now is overridable in tests; refresh seeds are derived from it.
	Now func() time.Time
}

func (app *Application) now() time.Time {
	if app.Now != nil {
		return app.Now()
	}
	return time.Now()
}
