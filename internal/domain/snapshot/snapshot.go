// Package snapshot defines the metrics record exchanged between producers and the dashboard.
package snapshot

import (
	"math"
	"time"
)

// TimeLayout is the on-disk format of LastCheck (UTC, second precision).
const TimeLayout = "2006-01-02T15:04:05"

// Snapshot is the latest simulated operational state. Every field is optional on
// read; missing keys decode to their zero value, or nil for the pointer fields.
type Snapshot struct {
	Iteration        int     `json:"iteration"`
	Accuracy         float64 `json:"accuracy"`
	DriftActive      bool    `json:"drift_active"`
	TotalPredictions int     `json:"total_predictions"`
	LastCheck        *string `json:"last_check"`

	OverallLevel    *int               `json:"overall_level,omitempty"`
	OverallAvgScore *float64           `json:"overall_avg_score,omitempty"`
	DimensionScores map[string]float64 `json:"dimension_scores,omitempty"`
}

// Default returns the zero snapshot served when the store cannot be read.
func Default() Snapshot {
	return Snapshot{}
}

// Stamp sets LastCheck to t in TimeLayout.
func (s *Snapshot) Stamp(t time.Time) {
	v := FormatTime(t)
	s.LastCheck = &v
}

// FormatTime renders t the way LastCheck stores it.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// View is the dashboard representation: optional scalars are always present, null when unset.
type View struct {
	Iteration        int                `json:"iteration"`
	Accuracy         float64            `json:"accuracy"`
	DriftActive      bool               `json:"drift_active"`
	TotalPredictions int                `json:"total_predictions"`
	LastCheck        *string            `json:"last_check"`
	OverallLevel     *int               `json:"overall_level"`
	OverallAvgScore  *float64           `json:"overall_avg_score"`
	DimensionScores  map[string]float64 `json:"dimension_scores,omitempty"`
}

// View converts the snapshot for the polling endpoint.
func (s Snapshot) View() View {
	return View{
		Iteration:        s.Iteration,
		Accuracy:         s.Accuracy,
		DriftActive:      s.DriftActive,
		TotalPredictions: s.TotalPredictions,
		LastCheck:        s.LastCheck,
		OverallLevel:     s.OverallLevel,
		OverallAvgScore:  s.OverallAvgScore,
		DimensionScores:  s.DimensionScores,
	}
}

// Round rounds v to the given number of decimals, half away from zero.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// Ptr returns a pointer to v; used to fill the optional fields.
func Ptr[T any](v T) *T {
	return &v
}
