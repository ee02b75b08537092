// Package simulate produces the scripted accuracy and maturity values the demo
// producers write. Nothing here measures a real model.
package simulate

import (
	"math/rand/v2"
	"time"

	"github.com/okian/compass/internal/domain/snapshot"
)

// Accuracy ranges drawn by the monitor.
const (
	HealthyAccuracyMin = 0.92
	HealthyAccuracyMax = 0.98
	DriftAccuracyMin   = 0.75
	DriftAccuracyMax   = 0.85
)

// Updater seed values used when no metrics file can be read.
const (
	SeedIteration        = 0
	SeedTotalPredictions = 6
)

// Dimensions are the maturity dimensions the updater reports on.
var Dimensions = []string{
	"Data & Experimentation Management",
	"Model Deployment & Integration",
	"Monitoring & Governance",
}

// DriftActive reports whether the given monitor iteration runs with drift.
func DriftActive(iteration, driftAfter int) bool {
	return iteration > driftAfter
}

// MonitorAccuracy draws a simulated accuracy from the healthy or drifted range.
func MonitorAccuracy(rng *rand.Rand, drift bool) float64 {
	lo, hi := HealthyAccuracyMin, HealthyAccuracyMax
	if drift {
		lo, hi = DriftAccuracyMin, DriftAccuracyMax
	}
	return lo + (hi-lo)*rng.Float64()
}

// UpdaterCycle builds the snapshot for one updater iteration. The level cycles
// 1..4 with the iteration and the dimension scores jitter around it.
func UpdaterCycle(rng *rand.Rand, iteration, totalPredictions int, now time.Time) snapshot.Snapshot {
	level := iteration%4 + 1
	scores := make(map[string]float64, len(Dimensions))
	for _, d := range Dimensions {
		scores[d] = float64(clamp(level+rng.IntN(3)-1, 1, 4))
	}
	s := snapshot.Snapshot{
		Iteration:        iteration,
		Accuracy:         snapshot.Round(0.70+0.29*rng.Float64(), 4),
		DriftActive:      level <= 2,
		TotalPredictions: totalPredictions,
		OverallLevel:     snapshot.Ptr(level),
		OverallAvgScore:  snapshot.Ptr(snapshot.Round(2.0+float64(level-1)*0.35+0.1*rng.Float64(), 2)),
		DimensionScores:  scores,
	}
	s.Stamp(now)
	return s
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
