package analyzer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"Crate-Go/pkg/completion"
	"Crate-Go/pkg/metrics"
)

const suggestionSystem = "You are a crate-digging record producer who knows which records have been sampled and which are waiting to be."

const suggestionTemplate = `Suggest 10 real, released tracks with strong sample potential for this request: "%s".
Respond with one track per line and nothing else, formatted exactly as:
1. "Track Title" by Artist Name`

// Suggestion is one parsed "Title" by Artist line.
type Suggestion struct {
	Title  string
	Artist string
}

var suggestionLine = regexp.MustCompile(`^\d+\.\s*["“”](.+?)["“”]\s+by\s+(.+)$`)

// Suggestions is the raw numbered text handed to the legacy pipeline.
// Degraded is set when the lines were built from the keyword table.
type Suggestions struct {
	Text     string
	Degraded bool
	Reason   string
}

// Suggest asks the completion model for numbered track suggestions. When the
// model is unavailable or answers with nothing parseable, lines are built
// from the keyword fallback so the caller always has something to resolve.
func (a *Analyzer) Suggest(ctx context.Context, prompt string) Suggestions {
	err := completion.ErrNotConfigured
	if a != nil && a.completer != nil {
		var text string
		text, err = a.completer.Complete(ctx, completion.Request{
			System:      suggestionSystem,
			User:        fmt.Sprintf(suggestionTemplate, prompt),
			MaxTokens:   400,
			Temperature: seededTemperature,
		})
		if err == nil && len(ParseSuggestions(text)) > 0 {
			return Suggestions{Text: text}
		}
		if err == nil {
			err = ErrNoSuggestions
		}
	}
	metrics.Fallbacks.WithLabelValues("suggestions").Inc()
	log.WithFields(log.Fields{"prompt": prompt}).WithError(err).Warn("suggestions fell back to keyword table")
	return Suggestions{Text: fallbackSuggestions(prompt), Degraded: true, Reason: err.Error()}
}

// ErrNoSuggestions is logged when a completion contained no parseable line.
var ErrNoSuggestions = errors.New("analyzer: no suggestion lines in completion")

func fallbackSuggestions(prompt string) string {
	pa := Fallback(prompt, "")
	lines := make([]string, 0, len(pa.PioneerArtists))
	for i, artist := range pa.PioneerArtists {
		lines = append(lines, fmt.Sprintf(`%d. "Sample Track %d" by %s`, i+1, i+1, artist))
	}
	return strings.Join(lines, "\n")
}

// ParseSuggestions extracts every well-formed suggestion line from text.
// Lines that do not match the numbered format are skipped.
func ParseSuggestions(text string) []Suggestion {
	var out []Suggestion
	for _, line := range strings.Split(text, "\n") {
		m := suggestionLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		out = append(out, Suggestion{Title: strings.TrimSpace(m[1]), Artist: strings.TrimSpace(m[2])})
	}
	return out
}
