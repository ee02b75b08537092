// Package classifier implements the multinomial logistic regression served by the
// prediction API. The model is stored as a JSON document.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/okian/compass/pkg/errkind"
)

// Model is a softmax classifier with one coefficient row per class.
type Model struct {
	Classes   []int       `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// Load reads and validates a model file.
func Load(path string) (*Model, error) {
	const op = "classifier.load"
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errkind.Wrap(op, ErrInvalidModel, err)
	}
	var m Model
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, errkind.Wrap(op, ErrInvalidModel, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the model as indented JSON.
func (m *Model) Save(path string) error {
	const op = "classifier.save"
	if err := m.Validate(); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errkind.Wrap(op, ErrInvalidModel, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Validate checks the model shape.
func (m *Model) Validate() error {
	const op = "classifier.validate"
	switch {
	case len(m.Classes) < 2:
		return errkind.Wrap(op, ErrInvalidModel, fmt.Errorf("need at least 2 classes, got %d", len(m.Classes)))
	case len(m.Coef) != len(m.Classes):
		return errkind.Wrap(op, ErrInvalidModel, fmt.Errorf("coef has %d rows for %d classes", len(m.Coef), len(m.Classes)))
	case len(m.Intercept) != len(m.Classes):
		return errkind.Wrap(op, ErrInvalidModel, fmt.Errorf("intercept has %d values for %d classes", len(m.Intercept), len(m.Classes)))
	}
	n := len(m.Coef[0])
	if n == 0 {
		return errkind.Wrap(op, ErrInvalidModel, fmt.Errorf("coef rows are empty"))
	}
	for i, row := range m.Coef {
		if len(row) != n {
			return errkind.Wrap(op, ErrInvalidModel, fmt.Errorf("coef row %d has %d values, want %d", i, len(row), n))
		}
	}
	return nil
}

// NumFeatures returns the expected row width.
func (m *Model) NumFeatures() int {
	if len(m.Coef) == 0 {
		return 0
	}
	return len(m.Coef[0])
}

// PredictProba returns one probability distribution over Classes per row of X.
func (m *Model) PredictProba(X [][]float64) ([][]float64, error) {
	const op = "classifier.predict_proba"
	if len(X) == 0 {
		return nil, errkind.Wrap(op, ErrInvalidInput, fmt.Errorf("no samples"))
	}
	want := m.NumFeatures()
	out := make([][]float64, len(X))
	for i, row := range X {
		if len(row) != want {
			return nil, errkind.Wrap(op, ErrFeatureCount,
				fmt.Errorf("X has %d features in row %d, but the model expects %d", len(row), i, want))
		}
		p := m.softmax(row)
		if !finite(p) {
			return nil, errkind.Wrap(op, ErrNonFinite, fmt.Errorf("probability for row %d is not finite", i))
		}
		out[i] = p
	}
	return out, nil
}

// Predict returns the most probable class label per row.
func (m *Model) Predict(X [][]float64) ([]int, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(proba))
	for i, p := range proba {
		labels[i] = m.Classes[argmax(p)]
	}
	return labels, nil
}

func (m *Model) softmax(row []float64) []float64 {
	z := make([]float64, len(m.Classes))
	maxZ := math.Inf(-1)
	for k := range m.Classes {
		s := m.Intercept[k]
		for j, x := range row {
			s += m.Coef[k][j] * x
		}
		z[k] = s
		if s > maxZ {
			maxZ = s
		}
	}
	var sum float64
	for k := range z {
		z[k] = math.Exp(z[k] - maxZ)
		sum += z[k]
	}
	for k := range z {
		z[k] /= sum
	}
	return z
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

// MaxProba returns the largest value of each distribution.
func MaxProba(proba [][]float64) []float64 {
	out := make([]float64, len(proba))
	for i, p := range proba {
		out[i] = p[argmax(p)]
	}
	return out
}
