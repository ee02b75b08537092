// Package dataset generates the synthetic two-class data used for training and monitoring.
package dataset

import (
	"math/rand/v2"
)

// Options shapes a generated batch.
type Options struct {
	Samples  int
	Features int
	// ClassSep is half the side of the hypercube whose vertices hold the cluster centroids.
	ClassSep float64
	// ClustersPerClass assigns that many vertices to each class.
	ClustersPerClass int
}

// DefaultOptions matches the monitor's batch shape.
func DefaultOptions() Options {
	return Options{Samples: 50, Features: 2, ClassSep: 1.0, ClustersPerClass: 2}
}

// Generate draws a balanced, shuffled two-class batch. Each sample is a standard normal
// offset around one of its class's hypercube vertices.
func Generate(rng *rand.Rand, opts Options) ([][]float64, []int) {
	opts = normalize(opts)
	const classes = 2
	clusters := classes * opts.ClustersPerClass
	centroids := vertices(opts.Features, clusters, opts.ClassSep)

	X := make([][]float64, opts.Samples)
	y := make([]int, opts.Samples)
	for i := range X {
		c := i % clusters
		row := make([]float64, opts.Features)
		for j := range row {
			row[j] = centroids[c][j] + rng.NormFloat64()
		}
		X[i] = row
		y[i] = c / opts.ClustersPerClass
	}

	rng.Shuffle(len(X), func(i, j int) {
		X[i], X[j] = X[j], X[i]
		y[i], y[j] = y[j], y[i]
	})
	return X, y
}

// Shift adds delta to one feature column in place.
func Shift(X [][]float64, feature int, delta float64) {
	for _, row := range X {
		if feature >= 0 && feature < len(row) {
			row[feature] += delta
		}
	}
}

// vertices returns n distinct corners of the [-sep, sep]^dims hypercube, cycling
// through the corners when n exceeds 2^dims.
func vertices(dims, n int, sep float64) [][]float64 {
	corners := 1 << min(dims, 30)
	out := make([][]float64, n)
	for i := range out {
		bits := i % corners
		v := make([]float64, dims)
		for j := range v {
			// Highest bit drives feature 0 so classes separate along it first.
			shift := dims - 1 - j
			if shift < 30 && bits&(1<<shift) != 0 {
				v[j] = sep
			} else {
				v[j] = -sep
			}
		}
		out[i] = v
	}
	return out
}

func normalize(opts Options) Options {
	def := DefaultOptions()
	if opts.Samples <= 0 {
		opts.Samples = def.Samples
	}
	if opts.Features <= 0 {
		opts.Features = def.Features
	}
	if opts.ClassSep <= 0 {
		opts.ClassSep = def.ClassSep
	}
	if opts.ClustersPerClass <= 0 {
		opts.ClustersPerClass = def.ClustersPerClass
	}
	return opts
}
