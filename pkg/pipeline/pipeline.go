// Package pipeline orchestrates a recommendation: analyse the prompt, derive
// search queries, collect catalog results and rank them. Each stage reports an
// Outcome and the fallback from the enhanced path to the legacy suggestion
// path is decided here, in one place.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"Crate-Go/pkg/analyzer"
	"Crate-Go/pkg/cache"
	"Crate-Go/pkg/catalog"
	"Crate-Go/pkg/metrics"
	"Crate-Go/pkg/queries"
	"Crate-Go/pkg/ranker"
)

const (
	maxSearches     = 8
	searchLimit     = 10
	enoughTracks    = 20
	enoughRefreshed = 30
)

// ErrEmptyPrompt is returned when the request carries no prompt.
var ErrEmptyPrompt = errors.New("pipeline: prompt required")

// Analyzer is the part of analyzer.Analyzer the pipeline depends on.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, seed *int64) analyzer.Analysis
	Suggest(ctx context.Context, prompt string) analyzer.Suggestions
}

// Pipeline wires the stages together. It holds no per-request state and is
// safe for concurrent use.
type Pipeline struct {
	analyzer Analyzer
	catalog  catalog.Searcher
	cache    cache.Cache
	ttl      time.Duration
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithCache enables result caching for requests without a refresh seed.
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.cache = c
			p.ttl = ttl
		}
	}
}

// New returns a pipeline over a and s. Without WithCache results are not
// cached.
func New(a Analyzer, s catalog.Searcher, opts ...Option) *Pipeline {
	p := &Pipeline{analyzer: a, catalog: s, cache: cache.Nop{}, ttl: time.Hour}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache returns the cache the pipeline reads and writes.
func (p *Pipeline) Cache() cache.Cache { return p.cache }

// FullPrompt is the prompt as sent downstream: "{prompt} in a {era} style".
func FullPrompt(prompt, era string) string {
	return fmt.Sprintf("%s in a %s style", strings.TrimSpace(prompt), era)
}

func normalize(req Request) (Request, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return req, ErrEmptyPrompt
	}
	req.Era = strings.TrimSpace(req.Era)
	if req.Era == "" {
		req.Era = DefaultEra
	}
	return req, nil
}

// Recommend runs the enhanced pipeline and falls back to the legacy one when
// it fails. Only a failure of the legacy pipeline is returned as an error.
func (p *Pipeline) Recommend(ctx context.Context, req Request) (Result, error) {
	req, err := normalize(req)
	if err != nil {
		return Result{}, err
	}

	key := CacheKey(req.Prompt, req.Era)
	if req.RefreshSeed == nil {
		if res, ok := p.lookup(ctx, key); ok {
			return res, nil
		}
	}

	start := time.Now()
	out := guard("enhanced", func() Outcome { return p.enhanced(ctx, req) })
	metrics.PipelineDuration.WithLabelValues(ModeEnhanced).Observe(time.Since(start).Seconds())

	switch out.Status {
	case Success:
		if req.RefreshSeed == nil {
			p.store(ctx, key, out.Result)
		}
		return out.Result, nil
	case Degraded:
		return out.Result, nil
	}

	metrics.Fallbacks.WithLabelValues("legacy").Inc()
	log.WithFields(log.Fields{"prompt": req.Prompt, "reason": out.Reason}).WithError(out.Err).Warn("enhanced pipeline failed, using legacy suggestions")
	res, err := p.legacyResult(ctx, req)
	if err != nil {
		return Result{}, err
	}
	res.Degraded = true
	res.Reason = out.Reason
	return res, nil
}

// RecommendLegacy skips the enhanced pipeline entirely.
func (p *Pipeline) RecommendLegacy(ctx context.Context, req Request) (Result, error) {
	req, err := normalize(req)
	if err != nil {
		return Result{}, err
	}
	return p.legacyResult(ctx, req)
}

func (p *Pipeline) legacyResult(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	out := guard("legacy", func() Outcome { return p.legacy(ctx, req) })
	metrics.PipelineDuration.WithLabelValues(ModeLegacy).Observe(time.Since(start).Seconds())
	if out.Status == Failed {
		metrics.Fallbacks.WithLabelValues("legacy_failed").Inc()
		return Result{}, out.Err
	}
	return out.Result, nil
}

// enhanced is analysis, query generation, catalog search and ranking. It
// fails when no track at all was found.
func (p *Pipeline) enhanced(ctx context.Context, req Request) Outcome {
	full := FullPrompt(req.Prompt, req.Era)
	an := p.analyzer.Analyze(ctx, full, req.RefreshSeed)
	qs := queries.Generate(full, an.PromptAnalysis, req.RefreshSeed)

	threshold := enoughTracks
	if req.RefreshSeed != nil {
		threshold = enoughRefreshed
	}

	var found []catalog.Track
	used := []string{}
	for i, q := range qs {
		if i == maxSearches || len(found) >= threshold {
			break
		}
		if err := ctx.Err(); err != nil {
			return Outcome{Status: Failed, Reason: "request cancelled", Err: err}
		}
		used = append(used, q)
		found = append(found, p.catalog.SearchEnhanced(ctx, q, searchLimit)...)
	}

	log.WithFields(log.Fields{"tracks": len(found), "searches": len(used), "degraded": an.Degraded}).Debug("catalog search complete")
	if len(found) == 0 {
		return Outcome{Status: Failed, Reason: "no tracks found", Err: errors.New("pipeline: catalog returned no tracks")}
	}

	res := Result{
		Tracks:      ranker.Rank(found, an.PromptAnalysis, req.RefreshSeed),
		TotalFound:  len(found),
		QueriesUsed: used,
		RefreshSeed: req.RefreshSeed,
		Analysis:    summarize(an),
		IsRefresh:   req.RefreshSeed != nil,
		Era:         req.Era,
		Mode:        ModeEnhanced,
		Degraded:    an.Degraded,
		Reason:      an.Reason,
	}
	if an.Degraded {
		return Outcome{Status: Degraded, Result: res, Reason: an.Reason}
	}
	return Outcome{Status: Success, Result: res}
}

// legacy resolves numbered "Title" by Artist suggestions one by one.
func (p *Pipeline) legacy(ctx context.Context, req Request) Outcome {
	full := FullPrompt(req.Prompt, req.Era)
	sg := p.analyzer.Suggest(ctx, full)
	suggestions := analyzer.ParseSuggestions(sg.Text)

	tracks := []catalog.Track{}
	for _, s := range suggestions {
		if err := ctx.Err(); err != nil {
			return Outcome{Status: Failed, Reason: "request cancelled", Err: fmt.Errorf("pipeline: legacy: %w", err)}
		}
		if t, ok := p.catalog.LookupTrack(ctx, s.Title, s.Artist); ok {
			tracks = append(tracks, t)
		}
	}
	return Outcome{Status: Success, Result: Result{
		Tracks:      tracks,
		TotalFound:  len(tracks),
		QueriesUsed: []string{},
		Era:         req.Era,
		Mode:        ModeLegacy,
		Degraded:    sg.Degraded,
		Reason:      sg.Reason,
	}}
}

// guard turns a panic inside a stage into a Failed outcome.
func guard(stage string, fn func() Outcome) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"stage": stage, "panic": r}).Error("pipeline stage panicked")
			out = Outcome{Status: Failed, Reason: stage + " stage error", Err: fmt.Errorf("pipeline: %s stage panicked: %v", stage, r)}
		}
	}()
	return fn()
}

// CacheKey derives the cache key from the normalised prompt and era.
func CacheKey(prompt, era string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(prompt), " ")) + "\x00" + strings.ToLower(strings.TrimSpace(era))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

func (p *Pipeline) lookup(ctx context.Context, key string) (Result, bool) {
	b, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.WithError(err).Warn("cache lookup failed")
		return Result{}, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return Result{}, false
	}
	var res Result
	if err := json.Unmarshal(b, &res); err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		log.WithError(err).Warn("discarding undecodable cache entry")
		return Result{}, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	res.Cached = true
	return res, true
}

func (p *Pipeline) store(ctx context.Context, key string, res Result) {
	b, err := json.Marshal(res)
	if err != nil {
		log.WithError(err).Warn("cannot encode result for cache")
		return
	}
	if err := p.cache.Put(ctx, key, b, p.ttl); err != nil {
		log.WithError(err).Warn("cache write failed")
	}
}
