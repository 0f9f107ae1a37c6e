// Package analyzer turns a free-text sound description into a structured
// PromptAnalysis. A completion model is asked first; anything that goes wrong
// on that path (transport, empty answer, malformed or incomplete JSON) falls
// back to a keyword table so callers always receive a usable analysis.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"Crate-Go/pkg/completion"
	"Crate-Go/pkg/metrics"
)

const (
	analysisMaxTokens  = 600
	seededTemperature  = 0.7
	defaultTemperature = 0.3
)

const jsonOnly = " You MUST respond with ONLY valid JSON, no additional text or markdown."

const schemaTemplate = `Analyze this request and respond with a JSON object using exactly this structure:
{
  "style_description": "short description of the sound",
  "pioneer_artists": ["artist", "artist", "artist"],
  "contemporary_artists": ["artist", "artist"],
  "classic_tracks": ["track by artist"],
  "key_albums": ["album by artist"],
  "related_styles": ["style", "style"],
  "instruments": ["instrument"],
  "era": "decade or period, e.g. 90s",
  "mood_keywords": ["keyword"],
  "avoid_terms": ["term"],
  "analysis_approach": "one sentence describing your angle"
}`

// Analyzer produces prompt analyses. A nil completer is allowed and always
// yields the keyword fallback.
type Analyzer struct {
	completer completion.Completer
}

// New returns an Analyzer backed by c.
func New(c completion.Completer) *Analyzer {
	return &Analyzer{completer: c}
}

// Analyze never fails. When the completion path cannot produce a valid
// analysis the result is marked Degraded and Reason says why.
func (a *Analyzer) Analyze(ctx context.Context, prompt string, seed *int64) Analysis {
	persona := PersonaFor(seed)
	pa, err := a.complete(ctx, prompt, persona, seed)
	if err != nil {
		metrics.Fallbacks.WithLabelValues("analysis").Inc()
		log.WithFields(log.Fields{"prompt": prompt}).WithError(err).Warn("prompt analysis fell back to keyword table")
		return Analysis{PromptAnalysis: Fallback(prompt, PersonaLabel(persona)), Degraded: true, Reason: err.Error()}
	}
	if pa.AnalysisApproach == "" {
		pa.AnalysisApproach = PersonaLabel(persona)
	}
	return Analysis{PromptAnalysis: pa}
}

func (a *Analyzer) complete(ctx context.Context, prompt, persona string, seed *int64) (PromptAnalysis, error) {
	if a == nil || a.completer == nil {
		return PromptAnalysis{}, completion.ErrNotConfigured
	}
	text, err := a.completer.Complete(ctx, BuildRequest(prompt, persona, seed))
	if err != nil {
		return PromptAnalysis{}, err
	}
	return Parse(text)
}

// BuildRequest assembles the completion request for prompt under persona.
func BuildRequest(prompt, persona string, seed *int64) completion.Request {
	temp := defaultTemperature
	if seed != nil {
		temp = seededTemperature
	}
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\nUser Request: \"")
	b.WriteString(prompt)
	b.WriteString("\"\n\n")
	b.WriteString(schemaTemplate)
	return completion.Request{
		System:      persona + jsonOnly,
		User:        b.String(),
		MaxTokens:   analysisMaxTokens,
		Temperature: temp,
	}
}

// wireAnalysis mirrors the schema with pointers on the required fields so a
// missing key can be told apart from an empty one.
type wireAnalysis struct {
	StyleDescription    *string   `json:"style_description"`
	PioneerArtists      *[]string `json:"pioneer_artists"`
	ContemporaryArtists []string  `json:"contemporary_artists"`
	ClassicTracks       []string  `json:"classic_tracks"`
	KeyAlbums           []string  `json:"key_albums"`
	RelatedStyles       []string  `json:"related_styles"`
	Instruments         []string  `json:"instruments"`
	Era                 *string   `json:"era"`
	MoodKeywords        []string  `json:"mood_keywords"`
	AvoidTerms          []string  `json:"avoid_terms"`
	AnalysisApproach    string    `json:"analysis_approach"`
}

var (
	ErrNoJSON        = errors.New("analyzer: no JSON object in completion")
	ErrMissingFields = errors.New("analyzer: required field missing")
)

// Parse extracts and validates the analysis contained in a completion text.
func Parse(text string) (PromptAnalysis, error) {
	raw, ok := extractObject(stripFences(text))
	if !ok {
		return PromptAnalysis{}, ErrNoJSON
	}
	var w wireAnalysis
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return PromptAnalysis{}, fmt.Errorf("analyzer: decode: %w", err)
	}
	switch {
	case w.StyleDescription == nil || strings.TrimSpace(*w.StyleDescription) == "":
		return PromptAnalysis{}, fmt.Errorf("%w: style_description", ErrMissingFields)
	case w.PioneerArtists == nil:
		return PromptAnalysis{}, fmt.Errorf("%w: pioneer_artists", ErrMissingFields)
	case w.Era == nil || strings.TrimSpace(*w.Era) == "":
		return PromptAnalysis{}, fmt.Errorf("%w: era", ErrMissingFields)
	}
	return PromptAnalysis{
		StyleDescription:    strings.TrimSpace(*w.StyleDescription),
		PioneerArtists:      clean(*w.PioneerArtists),
		ContemporaryArtists: clean(w.ContemporaryArtists),
		ClassicTracks:       clean(w.ClassicTracks),
		KeyAlbums:           clean(w.KeyAlbums),
		RelatedStyles:       clean(w.RelatedStyles),
		Instruments:         clean(w.Instruments),
		Era:                 strings.TrimSpace(*w.Era),
		MoodKeywords:        clean(w.MoodKeywords),
		AvoidTerms:          clean(w.AvoidTerms),
		AnalysisApproach:    strings.TrimSpace(w.AnalysisApproach),
	}, nil
}

// clean trims entries, drops blanks and guarantees a non-nil slice.
func clean(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// extractObject returns the first balanced top-level {...} span. Braces inside
// string literals are ignored.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}
