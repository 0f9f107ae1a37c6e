// Package catalog defines the normalized track record returned to clients and
// the contract every music-catalog search client implements. Keeping the
// record independent from the Spotify library lets the ranking and pipeline
// packages stay agnostic about where tracks come from.
//
// The sample heuristics (score, grade and era bucket) are pure functions of
// the track's own fields so the same record always derives the same values.
package catalog

import (
	"context"
	"strconv"
)

// Track is a single catalog entry in the shape the front end expects.
type Track struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Artist       string            `json:"artist"`
	Album        string            `json:"album"`
	AlbumCover   string            `json:"album_cover"`
	Image        string            `json:"image"`
	SpotifyURL   string            `json:"spotify_url"`
	SpotifyURI   string            `json:"spotify_uri"`
	ExternalURLs map[string]string `json:"external_urls"`
	PreviewURL   string            `json:"preview_url"`
	DurationMS   int               `json:"duration_ms"`
	Popularity   int               `json:"popularity"`
	Explicit     bool              `json:"explicit"`
	ReleaseDate  string            `json:"release_date"`
	Genres       []string          `json:"genres"`

	// Derived by Enrich.
	SamplePotential int    `json:"sample_potential"`
	Era             string `json:"era"`
	SampleGrade     string `json:"sample_grade"`
}

// Searcher is implemented by catalog clients. None of the methods return
// errors: transport and authentication failures are logged by the
// implementation and surface as empty results.
type Searcher interface {
	// Search runs query against the catalog and returns at most limit tracks.
	Search(ctx context.Context, query string, limit int) []Track

	// SearchEnhanced behaves like Search but additionally re-queries the bare
	// name when the query carries an artist: or genre: scope, merging the
	// results by track key.
	SearchEnhanced(ctx context.Context, query string, limit int) []Track

	// LookupTrack resolves a single track from its title and artist. The
	// boolean is false when nothing matched.
	LookupTrack(ctx context.Context, title, artist string) (Track, bool)
}

// Key identifies a track for de-duplication. Records without a catalog ID
// fall back to title and artist.
func (t Track) Key() string {
	if t.ID != "" {
		return t.ID
	}
	return t.Title + "-" + t.Artist
}

// Enrich fills the derived sample fields and guarantees the slice and map
// fields encode as JSON arrays and objects rather than null.
func (t *Track) Enrich() {
	t.SamplePotential = SampleScore(t.Popularity, t.ReleaseDate, t.Explicit)
	t.SampleGrade = SampleGrade(t.SamplePotential)
	t.Era = EraOf(t.ReleaseDate)
	if t.Genres == nil {
		t.Genres = []string{}
	}
	if t.ExternalURLs == nil {
		t.ExternalURLs = map[string]string{}
	}
}

// ReleaseYear parses the leading four digit year of an ISO-like date such as
// "1975", "1975-03" or "1975-03-01".
func ReleaseYear(releaseDate string) (int, bool) {
	if len(releaseDate) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(releaseDate[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}

// SampleScore rates how promising a track is as sample material on a 0-100
// scale. Obscure, older and explicit tracks score higher.
func SampleScore(popularity int, releaseDate string, explicit bool) int {
	score := 0
	switch {
	case popularity < 30:
		score += 30
	case popularity < 60:
		score += 15
	}
	if year, ok := ReleaseYear(releaseDate); ok {
		switch {
		case year < 1980:
			score += 25
		case year < 1990:
			score += 20
		case year < 2000:
			score += 15
		}
	}
	if explicit {
		score += 10
	}
	if score > 100 {
		score = 100
	}
	return score
}

// SampleGrade maps a sample score onto a letter grade.
func SampleGrade(score int) string {
	switch {
	case score >= 60:
		return "A"
	case score >= 40:
		return "B"
	case score >= 25:
		return "C"
	default:
		return "D"
	}
}

// EraOf buckets a release date into a decade label.
func EraOf(releaseDate string) string {
	year, ok := ReleaseYear(releaseDate)
	if !ok {
		return "Unknown"
	}
	switch {
	case year < 1970:
		return "60s"
	case year < 1980:
		return "70s"
	case year < 1990:
		return "80s"
	case year < 2000:
		return "90s"
	case year < 2010:
		return "2000s"
	case year < 2020:
		return "2010s"
	default:
		return "2020s"
	}
}
