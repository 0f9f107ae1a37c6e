// Package ranker orders candidate tracks by how well they fit an analysis.
package ranker

import (
	"hash/fnv"
	"math/rand/v2"
	"sort"
	"strings"

	"Crate-Go/pkg/analyzer"
	"Crate-Go/pkg/catalog"
)

// Limit is the maximum number of tracks Rank returns.
const Limit = 20

const (
	pioneerBonus      = 50
	contemporaryBonus = 30
	moodBonus         = 10
	eraBonus          = 25
	maxJitter         = 20
)

// eraRules are checked in order; only the first label found in the era
// string is considered.
var eraRules = []struct {
	label    string
	from, to int
}{
	{"90s", 1990, 1999},
	{"80s", 1980, 1989},
	{"70s", 1970, 1979},
}

// Dedupe keeps the first occurrence of each track key.
func Dedupe(tracks []catalog.Track) []catalog.Track {
	return catalog.MergeUnique(0, tracks)
}

// Score rates a single track against pa. With a seed a per-track jitter in
// [0, 20] is added; it depends only on the seed and the track's identity.
func Score(t catalog.Track, pa analyzer.PromptAnalysis, seed *int64) int {
	score := 0
	artist := strings.ToLower(t.Artist)
	switch {
	case matchesAny(artist, pa.PioneerArtists):
		score += pioneerBonus
	case matchesAny(artist, pa.ContemporaryArtists):
		score += contemporaryBonus
	}

	title := strings.ToLower(t.Title)
	for _, mood := range pa.MoodKeywords {
		if mood = strings.ToLower(strings.TrimSpace(mood)); mood != "" && strings.Contains(title, mood) {
			score += moodBonus
		}
	}

	if year, ok := catalog.ReleaseYear(t.ReleaseDate); ok {
		era := strings.ToLower(pa.Era)
		for _, r := range eraRules {
			if strings.Contains(era, r.label) {
				if year >= r.from && year <= r.to {
					score += eraBonus
				}
				break
			}
		}
	}

	if seed != nil {
		score += jitter(*seed, t)
	}
	return score
}

// Rank de-duplicates, scores and sorts tracks, returning at most Limit.
// Equal scores keep their input order.
func Rank(tracks []catalog.Track, pa analyzer.PromptAnalysis, seed *int64) []catalog.Track {
	unique := Dedupe(tracks)
	if len(unique) == 0 {
		return []catalog.Track{}
	}
	scores := make([]int, len(unique))
	idx := make([]int, len(unique))
	for i, t := range unique {
		scores[i] = Score(t, pa, seed)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })

	n := len(idx)
	if n > Limit {
		n = Limit
	}
	out := make([]catalog.Track, 0, n)
	for _, i := range idx[:n] {
		out = append(out, unique[i])
	}
	return out
}

func matchesAny(artist string, names []string) bool {
	for _, n := range names {
		if n = strings.ToLower(strings.TrimSpace(n)); n != "" && strings.Contains(artist, n) {
			return true
		}
	}
	return false
}

func jitter(seed int64, t catalog.Track) int {
	id := t.ID
	if id == "" {
		id = t.Title
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	r := rand.New(rand.NewPCG(uint64(seed)+h.Sum64(), 0))
	return r.IntN(maxJitter + 1)
}
