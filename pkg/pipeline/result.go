package pipeline

import (
	"Crate-Go/pkg/analyzer"
	"Crate-Go/pkg/catalog"
)

// Response modes.
const (
	ModeEnhanced = "enhanced"
	ModeLegacy   = "legacy"
)

// DefaultEra is used when a request does not name one.
const DefaultEra = "vintage"

// Request is a single recommendation request. A nil RefreshSeed means a
// normal, cacheable request.
type Request struct {
	Prompt      string
	Era         string
	RefreshSeed *int64
}

// AnalysisSummary is the slice of the analysis shown to clients.
type AnalysisSummary struct {
	StyleDescription    string   `json:"style_description"`
	Approach            string   `json:"approach"`
	PioneerArtists      []string `json:"pioneer_artists"`
	ContemporaryArtists []string `json:"contemporary_artists"`
	Degraded            bool     `json:"degraded"`
}

func summarize(a analyzer.Analysis) *AnalysisSummary {
	return &AnalysisSummary{
		StyleDescription:    a.StyleDescription,
		Approach:            a.AnalysisApproach,
		PioneerArtists:      head(a.PioneerArtists, 3),
		ContemporaryArtists: head(a.ContemporaryArtists, 3),
		Degraded:            a.Degraded,
	}
}

func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	return append([]string{}, s...)
}

// Result is what the HTTP layer returns for a recommendation.
type Result struct {
	Tracks      []catalog.Track  `json:"tracks"`
	TotalFound  int              `json:"total_found"`
	QueriesUsed []string         `json:"queries_used"`
	RefreshSeed *int64           `json:"refresh_seed"`
	Analysis    *AnalysisSummary `json:"analysis,omitempty"`
	IsRefresh   bool             `json:"is_refresh"`
	Era         string           `json:"era"`
	Mode        string           `json:"mode"`
	Degraded    bool             `json:"degraded"`
	Reason      string           `json:"reason,omitempty"`
	Cached      bool             `json:"cached"`
}

// Status classifies how a stage finished.
type Status int

const (
	Success Status = iota
	Degraded
	Failed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Degraded:
		return "degraded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is returned by every stage. Result is only meaningful when Status
// is not Failed; Err is only set when it is.
type Outcome struct {
	Status Status
	Result Result
	Reason string
	Err    error
}
