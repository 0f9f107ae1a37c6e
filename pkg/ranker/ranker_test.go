package ranker

import (
	"fmt"
	"reflect"
	"testing"

	"Crate-Go/pkg/analyzer"
	"Crate-Go/pkg/catalog"
)

func TestScoreEraBonus(t *testing.T) {
	pa := analyzer.PromptAnalysis{Era: "90s"}
	tests := []struct {
		date string
		want int
	}{
		{"1990-01-01", 25},
		{"1999-12-31", 25},
		{"2000-01-01", 0},
		{"1989-12-31", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Score(catalog.Track{ID: "x", ReleaseDate: tt.date}, pa, nil); got != tt.want {
			t.Errorf("%q: got %d want %d", tt.date, got, tt.want)
		}
	}
	// Only the first era label found is considered.
	if got := Score(catalog.Track{ReleaseDate: "1985"}, analyzer.PromptAnalysis{Era: "80s-90s"}, nil); got != 0 {
		t.Errorf("80s-90s should use the 90s rule, got %d", got)
	}
}

func TestScoreArtistAndMood(t *testing.T) {
	pa := analyzer.PromptAnalysis{
		PioneerArtists:      []string{"DJ Premier"},
		ContemporaryArtists: []string{"Gang Starr", ""},
		MoodKeywords:        []string{"Dark", "night", " "},
	}
	tests := []struct {
		name string
		tr   catalog.Track
		want int
	}{
		{"Pioneer wins over contemporary", catalog.Track{Artist: "Gang Starr, DJ Premier"}, 50},
		{"Contemporary", catalog.Track{Artist: "gang starr"}, 30},
		{"Moods", catalog.Track{Artist: "Nobody", Title: "Dark Night"}, 20},
		{"Nothing", catalog.Track{Artist: "Nobody", Title: "Sunny"}, 0},
	}
	for _, tt := range tests {
		if got := Score(tt.tr, pa, nil); got != tt.want {
			t.Errorf("%s: got %d want %d", tt.name, got, tt.want)
		}
	}
}

func TestJitterRangeAndDeterminism(t *testing.T) {
	seed := int64(42)
	distinct := map[int]bool{}
	for i := 0; i < 100; i++ {
		tr := catalog.Track{ID: fmt.Sprintf("id-%d", i)}
		a, b := Score(tr, analyzer.PromptAnalysis{}, &seed), Score(tr, analyzer.PromptAnalysis{}, &seed)
		if a != b {
			t.Fatalf("jitter not reproducible for %s: %d vs %d", tr.ID, a, b)
		}
		if a < 0 || a > 20 {
			t.Fatalf("jitter out of range: %d", a)
		}
		distinct[a] = true
	}
	if len(distinct) < 2 {
		t.Errorf("jitter should differ between tracks")
	}
}

func TestRankDedupes(t *testing.T) {
	tracks := []catalog.Track{
		{ID: "1", Title: "A", Artist: "X"},
		{ID: "1", Title: "A (dup)", Artist: "X"},
		{Title: "B", Artist: "Y"},
		{Title: "B", Artist: "Y"},
	}
	got := Rank(tracks, analyzer.PromptAnalysis{}, nil)
	if len(got) != 2 || got[0].Title != "A" || got[1].Title != "B" {
		t.Errorf("unexpected ranking %+v", got)
	}
}

func TestRankOrderAndLimit(t *testing.T) {
	pa := analyzer.PromptAnalysis{PioneerArtists: []string{"Pete Rock"}, Era: "90s"}
	var tracks []catalog.Track
	for i := 0; i < 30; i++ {
		tracks = append(tracks, catalog.Track{ID: fmt.Sprintf("t%02d", i), Artist: "Someone", ReleaseDate: "2005"})
	}
	tracks = append(tracks, catalog.Track{ID: "star", Artist: "Pete Rock", ReleaseDate: "1992"})

	got := Rank(tracks, pa, nil)
	if len(got) != Limit {
		t.Fatalf("expected %d tracks got %d", Limit, len(got))
	}
	if got[0].ID != "star" {
		t.Errorf("best match should rank first, got %s", got[0].ID)
	}
	// Ties keep input order.
	if got[1].ID != "t00" || got[2].ID != "t01" {
		t.Errorf("stable order violated: %s %s", got[1].ID, got[2].ID)
	}
}

func TestRankDeterministicWithSeed(t *testing.T) {
	var tracks []catalog.Track
	for i := 0; i < 25; i++ {
		tracks = append(tracks, catalog.Track{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Song %d", i)})
	}
	seed := int64(42)
	a := Rank(tracks, analyzer.PromptAnalysis{}, &seed)
	b := Rank(tracks, analyzer.PromptAnalysis{}, &seed)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed should yield identical ordering")
	}
}

func TestRankEmpty(t *testing.T) {
	if got := Rank(nil, analyzer.PromptAnalysis{}, nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice got %#v", got)
	}
}
