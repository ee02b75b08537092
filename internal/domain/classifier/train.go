package classifier

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/compass/pkg/errkind"
)

// TrainOptions configures batch gradient descent.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	// L2 is the ridge penalty applied to coefficients, not intercepts.
	L2 float64
}

// DefaultTrainOptions returns settings that converge on the synthetic datasets.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{Epochs: 500, LearningRate: 0.5, L2: 1e-3}
}

// Train fits a softmax model on X with integer labels y.
func Train(X [][]float64, y []int, opts TrainOptions) (*Model, error) {
	const op = "classifier.train"
	if len(X) == 0 || len(X) != len(y) {
		return nil, errkind.Wrap(op, ErrTrainingFailed, fmt.Errorf("got %d samples and %d labels", len(X), len(y)))
	}
	nf := len(X[0])
	if nf == 0 {
		return nil, errkind.Wrap(op, ErrTrainingFailed, fmt.Errorf("samples have no features"))
	}
	for i, row := range X {
		if len(row) != nf {
			return nil, errkind.Wrap(op, ErrTrainingFailed, fmt.Errorf("row %d has %d features, want %d", i, len(row), nf))
		}
	}
	if opts.Epochs <= 0 || opts.LearningRate <= 0 {
		return nil, errkind.Wrap(op, ErrTrainingFailed, fmt.Errorf("epochs and learning rate must be positive"))
	}

	classes := slices.Clone(y)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	if len(classes) < 2 {
		return nil, errkind.Wrap(op, ErrTrainingFailed, fmt.Errorf("need at least 2 classes, got %d", len(classes)))
	}
	index := make(map[int]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	m := &Model{
		Classes:   classes,
		Coef:      make([][]float64, len(classes)),
		Intercept: make([]float64, len(classes)),
	}
	for k := range m.Coef {
		m.Coef[k] = make([]float64, nf)
	}

	n := float64(len(X))
	gradW := make([][]float64, len(classes))
	for k := range gradW {
		gradW[k] = make([]float64, nf)
	}
	gradB := make([]float64, len(classes))

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for k := range gradW {
			clear(gradW[k])
		}
		clear(gradB)

		for i, row := range X {
			p := m.softmax(row)
			target := index[y[i]]
			for k := range p {
				diff := p[k]
				if k == target {
					diff -= 1
				}
				gradB[k] += diff
				for j, x := range row {
					gradW[k][j] += diff * x
				}
			}
		}

		for k := range m.Coef {
			m.Intercept[k] -= opts.LearningRate * gradB[k] / n
			for j := range m.Coef[k] {
				g := gradW[k][j]/n + opts.L2*m.Coef[k][j]
				m.Coef[k][j] -= opts.LearningRate * g
			}
		}
	}

	if !finite(m.Intercept) {
		return nil, errkind.Wrap(op, ErrNonFinite, fmt.Errorf("training diverged"))
	}
	for _, row := range m.Coef {
		if !finite(row) {
			return nil, errkind.Wrap(op, ErrNonFinite, fmt.Errorf("training diverged"))
		}
	}
	return m, nil
}

// Accuracy returns the fraction of rows whose prediction matches y.
func (m *Model) Accuracy(X [][]float64, y []int) (float64, error) {
	pred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	if len(pred) != len(y) {
		return 0, errkind.Wrap("classifier.accuracy", ErrInvalidInput, fmt.Errorf("got %d predictions for %d labels", len(pred), len(y)))
	}
	hits := 0
	for i := range pred {
		if pred[i] == y[i] {
			hits++
		}
	}
	return float64(hits) / float64(len(y)), nil
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
