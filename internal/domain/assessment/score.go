package assessment

import (
	"math"
	"time"

	"github.com/okian/compass/internal/domain/snapshot"
)

// MaxScorePerQuestion scales the overall average onto the 0-4 range.
const MaxScorePerQuestion = 4

// Maturity levels.
const (
	LevelAdHoc = iota + 1
	LevelRepeatable
	LevelManaged
	LevelOptimized
)

var levelNames = map[int]string{
	LevelAdHoc:      "Ad-Hoc/Manual",
	LevelRepeatable: "Repeatable/Automated",
	LevelManaged:    "Managed/Standardized",
	LevelOptimized:  "Optimized/Autonomous",
}

// LevelName returns the label of a maturity level.
func LevelName(level int) string {
	if n, ok := levelNames[level]; ok {
		return n
	}
	return "Unknown"
}

// LevelFor maps an average score to a level: round half to even, clamped to [1,4].
func LevelFor(avg float64) int {
	l := int(math.RoundToEven(avg))
	return max(LevelAdHoc, min(LevelOptimized, l))
}

// DimensionSummary is the aggregate for one dimension.
type DimensionSummary struct {
	Name    string
	Average float64
	Level   int
}

// Summary is the scored assessment.
type Summary struct {
	Dimensions   []DimensionSummary
	OverallAvg   float64
	OverallLevel int
	Questions    int
	TotalScore   int
	MaxScore     int
}

// Summarize computes per-dimension and overall averages.
func Summarize(a Answers) Summary {
	s := Summary{Dimensions: make([]DimensionSummary, 0, len(a.Dimensions))}
	for _, d := range a.Dimensions {
		sum := 0
		for _, v := range d.Scores {
			sum += v
		}
		var avg float64
		if len(d.Scores) > 0 {
			avg = float64(sum) / float64(len(d.Scores))
		}
		s.Dimensions = append(s.Dimensions, DimensionSummary{Name: d.Name, Average: avg, Level: LevelFor(avg)})
		s.TotalScore += sum
		s.MaxScore += len(d.Scores) * MaxScorePerQuestion
		s.Questions += len(d.Scores)
	}
	if s.MaxScore > 0 {
		s.OverallAvg = float64(s.TotalScore) / float64(s.MaxScore) * MaxScorePerQuestion
	}
	s.OverallLevel = LevelFor(s.OverallAvg)
	return s
}

// Recommendations returns the advice printed for an overall level.
func Recommendations(level int) []string {
	switch {
	case level <= LevelRepeatable:
		return []string{
			"Focus on standardizing basic processes and implementing foundational tools for data versioning and experiment tracking.",
			"Automate manual deployment steps to improve reproducibility.",
		}
	case level == LevelManaged:
		return []string{
			"Consider integrating advanced monitoring for model drift and exploring automated retraining pipelines.",
			"Strengthen governance and compliance frameworks with model registries.",
		}
	default:
		return []string{
			"Maintain continuous optimization, explore advanced AI ethics, explainability, and autonomous MLOps capabilities.",
			"Share best practices across teams and mentor others on advanced MLOps strategies.",
		}
	}
}

// Snapshot converts the summary into the dashboard metrics record. prevIteration is
// the iteration found in the existing metrics file, or 0 when there is none.
func (s Summary) Snapshot(prevIteration int, now time.Time) snapshot.Snapshot {
	dims := make(map[string]float64, len(s.Dimensions))
	for _, d := range s.Dimensions {
		dims[d.Name] = d.Average
	}
	var accuracy float64
	if s.OverallAvg != 0 {
		accuracy = snapshot.Round(s.OverallAvg/MaxScorePerQuestion, 4)
	}
	snap := snapshot.Snapshot{
		Iteration:        prevIteration + 1,
		Accuracy:         accuracy,
		DriftActive:      false,
		TotalPredictions: s.Questions,
		OverallLevel:     snapshot.Ptr(s.OverallLevel),
		OverallAvgScore:  snapshot.Ptr(snapshot.Round(s.OverallAvg, 2)),
		DimensionScores:  dims,
	}
	snap.Stamp(now)
	return snap
}
