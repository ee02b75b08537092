package snapshot

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
)

// Decode overlays the fields of the JSON object raw onto base. Each key is
// decoded on its own: a key with an unusable value, such as a fractional
// iteration, keeps the base value and is reported in invalid while the other
// keys still apply. A null value also keeps the base value. Only a document
// that is not a JSON object is an error.
func Decode(raw []byte, base Snapshot) (snap Snapshot, invalid []string, err error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return base, nil, err
	}
	if fields == nil {
		return base, nil, errors.New("metrics document is not an object")
	}

	snap = base
	for key, value := range fields {
		if string(value) == "null" {
			continue
		}
		if !decodeField(&snap, key, value) {
			invalid = append(invalid, key)
		}
	}
	sort.Strings(invalid)
	return snap, invalid, nil
}

// decodeField reports false when a known key holds an unusable value. Unknown
// keys are ignored.
func decodeField(s *Snapshot, key string, value json.RawMessage) bool {
	switch key {
	case "iteration":
		n, ok := decodeInt(value)
		if ok {
			s.Iteration = n
		}
		return ok
	case "total_predictions":
		n, ok := decodeInt(value)
		if ok {
			s.TotalPredictions = n
		}
		return ok
	case "accuracy":
		return json.Unmarshal(value, &s.Accuracy) == nil
	case "drift_active":
		return json.Unmarshal(value, &s.DriftActive) == nil
	case "last_check":
		var v string
		if json.Unmarshal(value, &v) != nil {
			return false
		}
		s.LastCheck = &v
	case "overall_level":
		n, ok := decodeInt(value)
		if ok {
			s.OverallLevel = &n
		}
		return ok
	case "overall_avg_score":
		var v float64
		if json.Unmarshal(value, &v) != nil {
			return false
		}
		s.OverallAvgScore = &v
	case "dimension_scores":
		var v map[string]float64
		if json.Unmarshal(value, &v) != nil {
			return false
		}
		s.DimensionScores = v
	}
	return true
}

// decodeInt accepts any JSON number with no fractional part, so 3 and 3.0 both
// decode while 3.5 does not.
func decodeInt(value json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(value, &f); err != nil {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, false
	}
	return int(f), true
}
