// Package spotify wraps the official Spotify client library and implements
// the catalog.Searcher contract used by the recommendation pipeline. It
// authenticates with the client credentials flow; the token source refreshes
// the short-lived application token transparently.
//
// The wrapped library does not provide context support so cancellation is
// checked explicitly before each call. Every failure is logged and turned into
// an empty result: callers never see catalog errors.
package spotify

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/zmb3/spotify"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"Crate-Go/pkg/catalog"
	"Crate-Go/pkg/metrics"
)

const maxSearchLimit = 50

// searcher defines the subset of the spotify.Client used by this package.
// It allows the concrete client to be replaced in tests.
type searcher interface {
	SearchOpt(query string, t spotify.SearchType, opt *spotify.Options) (*spotify.SearchResult, error)
}

// SpotifyClient searches the Spotify catalog and normalizes the results.
type SpotifyClient struct {
	client  searcher
	market  string
	limiter *rate.Limiter
}

// Compile-time interface check ensuring SpotifyClient satisfies the
// catalog.Searcher interface used by the pipeline.
var _ catalog.Searcher = (*SpotifyClient)(nil)

// Option customises a SpotifyClient.
type Option func(*SpotifyClient)

// WithMarket sets the market (ISO country code) searches are scoped to.
func WithMarket(market string) Option {
	return func(sc *SpotifyClient) {
		if market != "" {
			sc.market = market
		}
	}
}

// WithRateLimit caps outbound searches to perSecond requests. Zero or a
// negative value disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(sc *SpotifyClient) {
		if perSecond > 0 {
			sc.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewSpotifyClient returns a client authenticated with the client credentials
// flow. No network call is made until the first search; missing or invalid
// credentials therefore show up as empty search results.
func NewSpotifyClient(clientID, clientSecret string, timeout time.Duration, opts ...Option) *SpotifyClient {
	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotify.TokenURL,
	}
	httpClient := config.Client(context.Background())
	if timeout > 0 {
		httpClient.Timeout = timeout
	}
	c := spotify.NewClient(httpClient)
	return newWithSearcher(&c, opts...)
}

func newWithSearcher(s searcher, opts ...Option) *SpotifyClient {
	sc := &SpotifyClient{client: s, market: "US"}
	for _, opt := range opts {
		opt(sc)
	}
	return sc
}

// Search implements catalog.Searcher.
func (sc *SpotifyClient) Search(ctx context.Context, query string, limit int) []catalog.Track {
	tracks, err := sc.searchTracks(ctx, query, limit)
	if err != nil {
		metrics.CatalogSearches.WithLabelValues("error").Inc()
		log.WithFields(log.Fields{"query": query}).WithError(err).Warn("catalog search failed")
		return nil
	}
	if len(tracks) == 0 {
		metrics.CatalogSearches.WithLabelValues("empty").Inc()
		return nil
	}
	metrics.CatalogSearches.WithLabelValues("ok").Inc()
	return tracks
}

// SearchEnhanced implements catalog.Searcher. Queries scoped with artist: or
// genre: are re-issued with the bare name so loosely tagged catalog entries
// are found as well.
func (sc *SpotifyClient) SearchEnhanced(ctx context.Context, query string, limit int) []catalog.Track {
	lists := [][]catalog.Track{sc.Search(ctx, query, limit)}
	for _, name := range scopedNames(query) {
		lists = append(lists, sc.Search(ctx, name, limit/2))
	}
	return catalog.MergeUnique(limit, lists...)
}

// LookupTrack implements catalog.Searcher using a precise track/artist query
// and returning the first hit.
func (sc *SpotifyClient) LookupTrack(ctx context.Context, title, artist string) (catalog.Track, bool) {
	title = strings.TrimSpace(title)
	artist = strings.TrimSpace(artist)
	var query string
	switch {
	case title != "" && artist != "":
		query = fmt.Sprintf(`track:"%s" artist:"%s"`, title, artist)
	case artist != "":
		query = fmt.Sprintf(`artist:"%s"`, artist)
	case title != "":
		query = fmt.Sprintf(`track:"%s"`, title)
	default:
		return catalog.Track{}, false
	}
	tracks := sc.Search(ctx, query, 1)
	if len(tracks) == 0 {
		return catalog.Track{}, false
	}
	return tracks[0], true
}

func (sc *SpotifyClient) searchTracks(ctx context.Context, query string, limit int) ([]catalog.Track, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("spotify: empty query")
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	if sc.limiter != nil {
		if err := sc.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("spotify: rate limiter: %w", err)
		}
	}
	// The underlying client does not accept a context, but we honour the
	// provided one by checking for cancellation before the call.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	market := sc.market
	opt := &spotify.Options{Limit: &limit, Country: &market}
	results, err := sc.client.SearchOpt(query, spotify.SearchTypeTrack, opt)
	if err != nil {
		return nil, fmt.Errorf("spotify: search %q: %w", query, err)
	}
	if results == nil || results.Tracks == nil {
		return nil, nil
	}
	tracks := make([]catalog.Track, 0, len(results.Tracks.Tracks))
	for _, ft := range results.Tracks.Tracks {
		tracks = append(tracks, normalize(ft))
	}
	return tracks, nil
}

// normalize converts a Spotify track into the catalog record, joining every
// credited artist and picking the largest (first) album image.
func normalize(ft spotify.FullTrack) catalog.Track {
	names := make([]string, 0, len(ft.Artists))
	for _, a := range ft.Artists {
		names = append(names, a.Name)
	}
	cover := ""
	if len(ft.Album.Images) > 0 {
		cover = ft.Album.Images[0].URL
	}
	urls := make(map[string]string, len(ft.ExternalURLs))
	for k, v := range ft.ExternalURLs {
		urls[k] = v
	}
	t := catalog.Track{
		ID:           string(ft.ID),
		Title:        ft.Name,
		Artist:       strings.Join(names, ", "),
		Album:        ft.Album.Name,
		AlbumCover:   cover,
		Image:        cover,
		SpotifyURL:   ft.ExternalURLs["spotify"],
		SpotifyURI:   string(ft.URI),
		ExternalURLs: urls,
		PreviewURL:   ft.PreviewURL,
		DurationMS:   ft.Duration,
		Popularity:   ft.Popularity,
		Explicit:     ft.Explicit,
		ReleaseDate:  ft.Album.ReleaseDate,
	}
	t.Enrich()
	return t
}

// scopedNames extracts the bare names following artist: and genre: markers,
// stripped of surrounding quotes.
func scopedNames(query string) []string {
	lower := strings.ToLower(query)
	var names []string
	for _, marker := range []string{"artist:", "genre:"} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		name := strings.Trim(strings.TrimSpace(query[idx+len(marker):]), `"`)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

