package catalog

import "testing"

// TestSampleScoreVintageExplicit covers an obscure, explicit 1975 release.
func TestSampleScoreVintageExplicit(t *testing.T) {
	tr := Track{ID: "x", Popularity: 15, ReleaseDate: "1975-03-01", Explicit: true}
	tr.Enrich()
	if tr.SamplePotential != 65 {
		t.Fatalf("expected score 65 got %d", tr.SamplePotential)
	}
	if tr.SampleGrade != "A" {
		t.Errorf("expected grade A got %s", tr.SampleGrade)
	}
	if tr.Era != "70s" {
		t.Errorf("expected era 70s got %s", tr.Era)
	}
}

func TestSampleScoreBuckets(t *testing.T) {
	tests := []struct {
		name       string
		popularity int
		date       string
		explicit   bool
		want       int
	}{
		{"popular modern", 80, "2015-01-01", false, 0},
		{"mid popularity 80s", 45, "1985", false, 35},
		{"obscure 90s", 10, "1996-07", false, 45},
		{"unparsable date", 10, "19xx", true, 40},
		{"empty date", 59, "", false, 15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleScore(tt.popularity, tt.date, tt.explicit); got != tt.want {
				t.Errorf("SampleScore() = %d want %d", got, tt.want)
			}
		})
	}
}

func TestSampleGrade(t *testing.T) {
	cases := map[int]string{100: "A", 60: "A", 59: "B", 40: "B", 39: "C", 25: "C", 24: "D", 0: "D"}
	for score, want := range cases {
		if got := SampleGrade(score); got != want {
			t.Errorf("SampleGrade(%d) = %s want %s", score, got, want)
		}
	}
}

func TestEraOf(t *testing.T) {
	cases := map[string]string{
		"":           "Unknown",
		"abc":        "Unknown",
		"1965-01-01": "60s",
		"1979":       "70s",
		"1980-02":    "80s",
		"1999-12-31": "90s",
		"2004":       "2000s",
		"2019-06-01": "2010s",
		"2023-01-01": "2020s",
	}
	for date, want := range cases {
		if got := EraOf(date); got != want {
			t.Errorf("EraOf(%q) = %s want %s", date, got, want)
		}
	}
}

// TestEnrichNonNil ensures slices and maps encode as empty JSON values.
func TestEnrichNonNil(t *testing.T) {
	var tr Track
	tr.Enrich()
	if tr.Genres == nil || tr.ExternalURLs == nil {
		t.Fatalf("expected non-nil genres and external urls")
	}
}

func TestKeyFallsBackToTitleArtist(t *testing.T) {
	if k := (Track{ID: "abc", Title: "T", Artist: "A"}).Key(); k != "abc" {
		t.Errorf("unexpected key %s", k)
	}
	if k := (Track{Title: "T", Artist: "A"}).Key(); k != "T-A" {
		t.Errorf("unexpected key %s", k)
	}
}

// TestMergeUnique verifies that overlapping lists are merged, order is kept
// and the limit applied.
func TestMergeUnique(t *testing.T) {
	a := []Track{{ID: "1"}, {ID: "2"}}
	b := []Track{{ID: "2"}, {ID: "3"}, {Title: "x", Artist: "y"}, {Title: "x", Artist: "y"}}
	got := MergeUnique(0, a, b)
	if len(got) != 4 {
		t.Fatalf("expected 4 tracks got %d", len(got))
	}
	if got[0].ID != "1" || got[2].ID != "3" || got[3].Key() != "x-y" {
		t.Errorf("unexpected order: %+v", got)
	}
	if got := MergeUnique(2, a, b); len(got) != 2 {
		t.Errorf("expected limit 2 got %d", len(got))
	}
}
