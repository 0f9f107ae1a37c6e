package analyzer

import "strings"

// PromptAnalysis is the structured reading of a user's sound description.
// Slice fields are never nil so the value can be serialised directly.
type PromptAnalysis struct {
	StyleDescription    string   `json:"style_description"`
	PioneerArtists      []string `json:"pioneer_artists"`
	ContemporaryArtists []string `json:"contemporary_artists"`
	ClassicTracks       []string `json:"classic_tracks"`
	KeyAlbums           []string `json:"key_albums"`
	RelatedStyles       []string `json:"related_styles"`
	Instruments         []string `json:"instruments"`
	Era                 string   `json:"era"`
	MoodKeywords        []string `json:"mood_keywords"`
	AvoidTerms          []string `json:"avoid_terms"`
	AnalysisApproach    string   `json:"analysis_approach"`
}

// Analysis wraps a PromptAnalysis with how it was produced. Degraded is set
// when the keyword table was used instead of a completion.
type Analysis struct {
	PromptAnalysis
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// Placeholder names emitted by the keyword fallback.
const (
	VariousArtists = "Various Artists"
	ModernArtist1  = "Modern Artist 1"
	ModernArtist2  = "Modern Artist 2"
	VariousEra     = "various"
)

type genreEntry struct {
	keyword  string
	genre    string
	era      string
	pioneers []string
}

// genreTable is matched in order; the first keyword contained in the prompt wins.
var genreTable = []genreEntry{
	{"boom bap", "hip hop", "90s", []string{"DJ Premier", "Pete Rock", "Large Professor"}},
	{"jazz", "jazz", "50s-70s", []string{"Miles Davis", "John Coltrane", "Bill Evans"}},
	{"lo-fi", "lo-fi", "2010s", []string{"Nujabes", "J Dilla", "Madlib"}},
	{"trap", "trap", "2010s", []string{"Metro Boomin", "Southside", "Lex Luger"}},
	{"house", "house", "80s-90s", []string{"Frankie Knuckles", "Larry Heard", "Marshall Jefferson"}},
	{"soul", "soul", "60s-70s", []string{"James Brown", "Marvin Gaye", "Aretha Franklin"}},
	{"funk", "funk", "70s", []string{"James Brown", "Parliament-Funkadelic", "Sly Stone"}},
}

// Fallback builds an analysis from the keyword table alone. It never fails.
// approach is carried into AnalysisApproach unchanged.
func Fallback(prompt, approach string) PromptAnalysis {
	lower := strings.ToLower(prompt)
	genre, era := "various", VariousEra
	pioneers := []string{VariousArtists}
	for _, e := range genreTable {
		if strings.Contains(lower, e.keyword) {
			genre, era = e.genre, e.era
			pioneers = append([]string(nil), e.pioneers...)
			break
		}
	}

	avoid := []string{}
	if fields := strings.Fields(prompt); len(fields) > 0 {
		avoid = append(avoid, fields[0])
	}

	return PromptAnalysis{
		StyleDescription:    genre + " style music from the " + era + " era",
		PioneerArtists:      pioneers,
		ContemporaryArtists: []string{ModernArtist1, ModernArtist2},
		ClassicTracks:       []string{"Classic " + genre + " track"},
		KeyAlbums:           []string{"Essential " + genre + " album"},
		RelatedStyles:       []string{genre},
		Instruments:         []string{"drums", "bass", "samples"},
		Era:                 era,
		MoodKeywords:        []string{"rhythmic", "groovy"},
		AvoidTerms:          avoid,
		AnalysisApproach:    approach,
	}
}

// IsPlaceholder reports whether name is one of the fallback stand-ins that
// should never be searched for.
func IsPlaceholder(name string) bool {
	switch name {
	case VariousArtists, ModernArtist1, ModernArtist2:
		return true
	}
	return false
}
