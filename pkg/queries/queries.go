// Package queries derives catalog search strings from a prompt analysis.
package queries

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"Crate-Go/pkg/analyzer"
)

// Caps on the main and discovery query lists.
const (
	MaxMain      = 10
	MaxDiscovery = 5
)

// Main builds up to MaxMain distinct, non-blank queries. Earlier groups win
// when the list is truncated: pioneers, contemporaries, related styles, era,
// then the prompt and its drum variants.
func Main(prompt string, pa analyzer.PromptAnalysis) []string {
	var qs []string

	for _, a := range firstN(pa.PioneerArtists, 3) {
		if searchable(a) {
			qs = append(qs, artistQuery(a))
		}
	}
	for _, a := range firstN(pa.ContemporaryArtists, 2) {
		if searchable(a) {
			qs = append(qs, artistQuery(a))
		}
	}

	era := strings.TrimSpace(pa.Era)
	for _, s := range firstN(pa.RelatedStyles, 2) {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		qs = append(qs, s)
		if era != "" {
			qs = append(qs, era+" "+s)
		}
	}
	if hasEra(era) {
		qs = append(qs, era+" music", era+" instrumental")
	}

	qs = append(qs, prompt)
	if strings.Contains(strings.ToLower(prompt), "drums") {
		qs = append(qs,
			strings.ReplaceAll(prompt, "drums", "beats"),
			strings.ReplaceAll(prompt, "drums", "percussion"),
		)
	}

	return uniqueNonBlank(qs, MaxMain)
}

// Discovery builds up to MaxDiscovery broader queries aimed at instrumental
// and sample-friendly material.
func Discovery(pa analyzer.PromptAnalysis) []string {
	var qs []string
	for _, s := range firstN(pa.RelatedStyles, 2) {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		qs = append(qs, s+" instrumental", s+" samples")
	}
	if era := strings.TrimSpace(pa.Era); hasEra(era) {
		qs = append(qs, "vintage "+era, era+" classics")
	}
	return uniqueNonBlank(qs, MaxDiscovery)
}

// Generate concatenates Main and Discovery. With a seed the combined list is
// shuffled by a source private to this call, so the same seed always yields
// the same order.
func Generate(prompt string, pa analyzer.PromptAnalysis, seed *int64) []string {
	qs := append(Main(prompt, pa), Discovery(pa)...)
	if seed != nil {
		r := rand.New(rand.NewPCG(uint64(*seed), uint64(len(qs))))
		r.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	}
	return qs
}

func searchable(artist string) bool {
	return strings.TrimSpace(artist) != "" && !analyzer.IsPlaceholder(artist)
}

func artistQuery(name string) string {
	return fmt.Sprintf(`artist:"%s"`, strings.TrimSpace(name))
}

func hasEra(era string) bool {
	return era != "" && !strings.EqualFold(era, analyzer.VariousEra)
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func uniqueNonBlank(in []string, limit int) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, limit)
	for _, q := range in {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		if _, ok := seen[q]; ok {
			continue
		}
		seen[q] = struct{}{}
		out = append(out, q)
		if len(out) == limit {
			break
		}
	}
	return out
}
