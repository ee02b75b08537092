package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/okian/compass/pkg/errkind"
)

// parseFeatures turns the raw "features" value into rows. A flat array is one
// sample. Empty or falsy values are ErrNoFeatures; anything else that is not a
// 1-D or 2-D numeric array is ErrInference.
func parseFeatures(raw json.RawMessage) ([][]float64, error) {
	const op = "api.parse_features"
	trimmed := bytes.TrimSpace(raw)
	if isEmptyValue(trimmed) {
		return nil, errkind.New(op, ErrNoFeatures)
	}

	var rows [][]float64
	if err := json.Unmarshal(trimmed, &rows); err == nil {
		return rows, nil
	}
	var row []float64
	if err := json.Unmarshal(trimmed, &row); err == nil {
		return [][]float64{row}, nil
	}
	return nil, errkind.Wrap(op, ErrInference, fmt.Errorf("features must be a 1-D or 2-D numeric array"))
}

func isEmptyValue(v []byte) bool {
	switch string(v) {
	case "", "null", "[]", "{}", `""`, "false", "0":
		return true
	}
	var arr []json.RawMessage
	if json.Unmarshal(v, &arr) == nil && len(arr) == 0 {
		return true
	}
	var f float64
	return json.Unmarshal(v, &f) == nil && f == 0
}
