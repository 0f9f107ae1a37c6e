package analyzer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"Crate-Go/pkg/completion"
)

type fakeCompleter struct {
	text string
	err  error
	reqs []completion.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req completion.Request) (string, error) {
	f.reqs = append(f.reqs, req)
	return f.text, f.err
}

const validCompletion = "```json\n" + `{
  "style_description": "dusty {sampled} breaks",
  "pioneer_artists": ["DJ Premier", " ", "Pete Rock"],
  "contemporary_artists": ["Madlib"],
  "era": "90s",
  "mood_keywords": ["gritty"]
}` + "\n```\nHope this helps!"

func TestAnalyzeUsesCompletion(t *testing.T) {
	fc := &fakeCompleter{text: validCompletion}
	got := New(fc).Analyze(context.Background(), "dusty drums", nil)
	if got.Degraded {
		t.Fatalf("unexpected degraded analysis: %s", got.Reason)
	}
	if got.StyleDescription != "dusty {sampled} breaks" || got.Era != "90s" {
		t.Errorf("unexpected analysis %+v", got)
	}
	if !reflect.DeepEqual(got.PioneerArtists, []string{"DJ Premier", "Pete Rock"}) {
		t.Errorf("pioneers not cleaned: %v", got.PioneerArtists)
	}
	if got.KeyAlbums == nil || got.AvoidTerms == nil {
		t.Errorf("optional lists should be empty, not nil")
	}
	if got.AnalysisApproach != PersonaLabel(personas[0]) {
		t.Errorf("approach should default to persona label, got %q", got.AnalysisApproach)
	}
	req := fc.reqs[0]
	if req.MaxTokens != 600 || req.Temperature != 0.3 {
		t.Errorf("unexpected request settings %+v", req)
	}
	if !strings.Contains(req.User, `User Request: "dusty drums"`) || !strings.HasSuffix(req.System, jsonOnly) {
		t.Errorf("request missing prompt or JSON instruction")
	}
}

func TestAnalyzeSeededTemperature(t *testing.T) {
	fc := &fakeCompleter{text: validCompletion}
	seed := int64(7)
	New(fc).Analyze(context.Background(), "x", &seed)
	if fc.reqs[0].Temperature != 0.7 {
		t.Errorf("seeded requests should use 0.7, got %v", fc.reqs[0].Temperature)
	}
}

func TestAnalyzeFallsBack(t *testing.T) {
	tests := []struct {
		name string
		c    completion.Completer
	}{
		{"Nil completer", nil},
		{"Transport error", &fakeCompleter{err: errors.New("connection refused")}},
		{"Not JSON", &fakeCompleter{text: "I cannot help with that"}},
		{"Missing era", &fakeCompleter{text: `{"style_description":"x","pioneer_artists":[]}`}},
		{"Wrong type", &fakeCompleter{text: `{"style_description":"x","pioneer_artists":"DJ Premier","era":"90s"}`}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.c).Analyze(context.Background(), "90s boom bap drums", nil)
			if !got.Degraded || got.Reason == "" {
				t.Fatalf("expected degraded analysis, got %+v", got)
			}
			if got.Era != "90s" {
				t.Errorf("era %q", got.Era)
			}
			want := []string{"DJ Premier", "Pete Rock", "Large Professor"}
			if !reflect.DeepEqual(got.PioneerArtists, want) {
				t.Errorf("pioneers %v want %v", got.PioneerArtists, want)
			}
			if got.AnalysisApproach != "You are a music historian focusing on the PIONEERS and FOUNDERS of this sound" {
				t.Errorf("fallback should keep the persona label, got %q", got.AnalysisApproach)
			}
		})
	}
}

func TestFallbackShape(t *testing.T) {
	pa := Fallback("ambient textures for meditation", "")
	if pa.Era != VariousEra || !reflect.DeepEqual(pa.PioneerArtists, []string{VariousArtists}) {
		t.Errorf("unexpected generic fallback %+v", pa)
	}
	if pa.StyleDescription != "various style music from the various era" {
		t.Errorf("style %q", pa.StyleDescription)
	}
	if !reflect.DeepEqual(pa.AvoidTerms, []string{"ambient"}) {
		t.Errorf("avoid %v", pa.AvoidTerms)
	}
	if !reflect.DeepEqual(pa.ContemporaryArtists, []string{ModernArtist1, ModernArtist2}) {
		t.Errorf("contemporary %v", pa.ContemporaryArtists)
	}

	// Table order decides ties: "soul" precedes "funk".
	if got := Fallback("funky SOUL", ""); got.Era != "60s-70s" {
		t.Errorf("expected soul entry, got %+v", got)
	}
	if got := Fallback("", ""); len(got.AvoidTerms) != 0 || got.AvoidTerms == nil {
		t.Errorf("empty prompt should give empty avoid terms")
	}
}

func TestPersonasAreSingleSentences(t *testing.T) {
	if len(personas) != 5 {
		t.Fatalf("expected 5 personas, got %d", len(personas))
	}
	for _, p := range personas {
		if strings.Count(p, ".") != 1 || !strings.HasSuffix(p, ".") {
			t.Errorf("persona %q should be one sentence", p)
		}
		if PersonaLabel(p)+"." != p {
			t.Errorf("label of %q should be the whole sentence", p)
		}
	}
}

func TestFallbackKeepsApproach(t *testing.T) {
	seed := int64(3)
	persona := PersonaFor(&seed)
	got := New(nil).Analyze(context.Background(), "lo-fi", &seed)
	if got.AnalysisApproach != PersonaLabel(persona) {
		t.Errorf("approach %q want %q", got.AnalysisApproach, PersonaLabel(persona))
	}
}

func TestPersonaFor(t *testing.T) {
	if PersonaFor(nil) != personas[0] {
		t.Fatal("unseeded persona must be the first one")
	}
	seed := int64(42)
	if PersonaFor(&seed) != PersonaFor(&seed) {
		t.Fatal("persona selection must be deterministic for a seed")
	}
	seen := map[string]bool{}
	for i := int64(0); i < 50; i++ {
		s := i
		seen[PersonaFor(&s)] = true
	}
	if len(seen) < 2 {
		t.Errorf("seeds should spread across personas, saw %d", len(seen))
	}
	if got := PersonaLabel(personas[2]); got != "You are an underground music expert focused on OBSCURE and LESSER-KNOWN artists" {
		t.Errorf("label %q", got)
	}
}

func TestExtractObject(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`prefix {"a":{"b":1}} suffix {"c":2}`, `{"a":{"b":1}}`, true},
		{`{"s":"brace } in \"string\""}`, `{"s":"brace } in \"string\""}`, true},
		{`{"unterminated":`, "", false},
		{`no object`, "", false},
	}
	for _, tt := range tests {
		got, ok := extractObject(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("extractObject(%q) = %q, %v", tt.in, got, ok)
		}
	}
}

func TestSuggestAndParse(t *testing.T) {
	text := "Here you go:\n1. \"Impeach the President\" by The Honey Drippers\n2. “Apache” by Incredible Bongo Band\nnot a line"
	fc := &fakeCompleter{text: text}
	out := New(fc).Suggest(context.Background(), "breaks")
	if out.Degraded || out.Reason != "" {
		t.Errorf("completion suggestions should not be degraded: %+v", out)
	}
	got := ParseSuggestions(out.Text)
	want := []Suggestion{
		{Title: "Impeach the President", Artist: "The Honey Drippers"},
		{Title: "Apache", Artist: "Incredible Bongo Band"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v want %+v", got, want)
	}
}

func TestSuggestFallback(t *testing.T) {
	for _, c := range []completion.Completer{nil, &fakeCompleter{err: errors.New("boom")}, &fakeCompleter{text: "nothing useful"}} {
		out := New(c).Suggest(context.Background(), "jazz piano")
		if !out.Degraded || out.Reason == "" {
			t.Errorf("fallback suggestions should be flagged: %+v", out)
		}
		got := ParseSuggestions(out.Text)
		if len(got) != 3 || got[0].Title != "Sample Track 1" || got[2].Artist != "Bill Evans" {
			t.Errorf("unexpected fallback suggestions %+v", got)
		}
	}
}
