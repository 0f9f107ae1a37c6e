package spotify

import (
	"context"
	"errors"
	"strings"
	"testing"

	libspotify "github.com/zmb3/spotify"
)

type fakeSearcher struct {
	queries []string
	limits  []int
	markets []string
	results map[string]*libspotify.SearchResult
	err     error
}

func (f *fakeSearcher) SearchOpt(query string, t libspotify.SearchType, opt *libspotify.Options) (*libspotify.SearchResult, error) {
	f.queries = append(f.queries, query)
	if opt != nil && opt.Limit != nil {
		f.limits = append(f.limits, *opt.Limit)
	}
	if opt != nil && opt.Country != nil {
		f.markets = append(f.markets, *opt.Country)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func page(tracks ...libspotify.FullTrack) *libspotify.SearchResult {
	return &libspotify.SearchResult{Tracks: &libspotify.FullTrackPage{Tracks: tracks}}
}

func fullTrack(id, name string, artists ...string) libspotify.FullTrack {
	ft := libspotify.FullTrack{SimpleTrack: libspotify.SimpleTrack{ID: libspotify.ID(id), Name: name}}
	for _, a := range artists {
		ft.Artists = append(ft.Artists, libspotify.SimpleArtist{Name: a})
	}
	return ft
}

func TestSearchNormalizesTracks(t *testing.T) {
	ft := fullTrack("1", "Song", "A", "B")
	ft.URI = "spotify:track:1"
	ft.ExternalURLs = map[string]string{"spotify": "https://open.spotify.com/track/1"}
	ft.PreviewURL = "https://p.scdn.co/1"
	ft.Duration = 180000
	ft.Popularity = 15
	ft.Explicit = true
	ft.Album.Name = "Album"
	ft.Album.ReleaseDate = "1975-03-01"
	ft.Album.Images = []libspotify.Image{{URL: "big.jpg"}, {URL: "small.jpg"}}
	fs := &fakeSearcher{results: map[string]*libspotify.SearchResult{"q": page(ft)}}
	sc := newWithSearcher(fs, WithMarket("DE"))

	got := sc.Search(context.Background(), "q", 10)
	if len(got) != 1 {
		t.Fatalf("expected 1 track got %d", len(got))
	}
	tr := got[0]
	if tr.Artist != "A, B" || tr.Album != "Album" || tr.AlbumCover != "big.jpg" || tr.Image != "big.jpg" {
		t.Errorf("unexpected track: %+v", tr)
	}
	if tr.SpotifyURL != "https://open.spotify.com/track/1" || tr.SpotifyURI != "spotify:track:1" {
		t.Errorf("urls not mapped: %+v", tr)
	}
	if tr.SamplePotential != 65 || tr.SampleGrade != "A" || tr.Era != "70s" {
		t.Errorf("derived fields wrong: %d %s %s", tr.SamplePotential, tr.SampleGrade, tr.Era)
	}
	if fs.limits[0] != 10 || fs.markets[0] != "DE" {
		t.Errorf("options not forwarded: %v %v", fs.limits, fs.markets)
	}
}

func TestSearchSwallowsErrors(t *testing.T) {
	sc := newWithSearcher(&fakeSearcher{err: errors.New("401 unauthorized")})
	if got := sc.Search(context.Background(), "q", 5); len(got) != 0 {
		t.Fatalf("expected empty result got %+v", got)
	}
}

func TestSearchHonoursCancelledContext(t *testing.T) {
	fs := &fakeSearcher{}
	sc := newWithSearcher(fs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := sc.Search(ctx, "q", 5); len(got) != 0 {
		t.Fatalf("expected no results")
	}
	if len(fs.queries) != 0 {
		t.Errorf("search should not be issued after cancellation")
	}
}

func TestSearchClampsLimit(t *testing.T) {
	fs := &fakeSearcher{}
	sc := newWithSearcher(fs)
	sc.Search(context.Background(), "a", 0)
	sc.Search(context.Background(), "b", 500)
	if fs.limits[0] != 1 || fs.limits[1] != maxSearchLimit {
		t.Errorf("unexpected limits %v", fs.limits)
	}
}

// TestSearchEnhancedRequeriesScopedName verifies the bare artist name is
// searched as well and duplicates are merged by ID.
func TestSearchEnhancedRequeriesScopedName(t *testing.T) {
	fs := &fakeSearcher{results: map[string]*libspotify.SearchResult{
		`artist:"DJ Premier"`: page(fullTrack("1", "Mass Appeal", "Gang Starr"), fullTrack("2", "Code", "Gang Starr")),
		"DJ Premier":          page(fullTrack("2", "Code", "Gang Starr"), fullTrack("3", "Nas Is Like", "Nas")),
	}}
	sc := newWithSearcher(fs)
	got := sc.SearchEnhanced(context.Background(), `artist:"DJ Premier"`, 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 unique tracks got %d", len(got))
	}
	if len(fs.queries) != 2 || fs.queries[1] != "DJ Premier" || fs.limits[1] != 5 {
		t.Errorf("unexpected follow-up search: %v %v", fs.queries, fs.limits)
	}
}

func TestSearchEnhancedPlainQuery(t *testing.T) {
	fs := &fakeSearcher{results: map[string]*libspotify.SearchResult{"soul": page(fullTrack("1", "S", "X"))}}
	sc := newWithSearcher(fs)
	if got := sc.SearchEnhanced(context.Background(), "soul", 10); len(got) != 1 {
		t.Fatalf("expected 1 result got %d", len(got))
	}
	if len(fs.queries) != 1 {
		t.Errorf("plain queries should be issued once, got %v", fs.queries)
	}
}

func TestLookupTrack(t *testing.T) {
	q := `track:"Impeach the President" artist:"The Honey Drippers"`
	fs := &fakeSearcher{results: map[string]*libspotify.SearchResult{q: page(fullTrack("9", "Impeach the President", "The Honey Drippers"))}}
	sc := newWithSearcher(fs)
	tr, ok := sc.LookupTrack(context.Background(), "Impeach the President", "The Honey Drippers")
	if !ok || tr.ID != "9" {
		t.Fatalf("lookup failed: %v %+v", ok, tr)
	}
	if fs.limits[0] != 1 {
		t.Errorf("lookup should request a single track")
	}
	if _, ok := sc.LookupTrack(context.Background(), "", ""); ok {
		t.Errorf("empty lookup should not match")
	}
	sc.LookupTrack(context.Background(), "", "Nas")
	if last := fs.queries[len(fs.queries)-1]; !strings.HasPrefix(last, "artist:") {
		t.Errorf("artist-only lookup should be scoped, got %s", last)
	}
}

func TestScopedNames(t *testing.T) {
	got := scopedNames(`genre:"boom bap"`)
	if len(got) != 1 || got[0] != "boom bap" {
		t.Errorf("unexpected names %v", got)
	}
	if got := scopedNames("90s music"); len(got) != 0 {
		t.Errorf("expected none got %v", got)
	}
}
