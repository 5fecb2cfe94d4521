package ml

import (
	"math"
	"sort"
)

const (
	kmeansMaxIterations = 10
	kmeansTolerance     = 1e-6
)

// kmeans1D clusters a one-dimensional series. Initialization is
// deterministic: centers start at the means of k equal slices of the sorted
// data, so identical input always yields identical clusters.
func kmeans1D(values []float64, k int) (centers []float64, sizes []int, iterations int) {
	if k < 1 || len(values) < k {
		return nil, nil, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	// Sorted-split initialization
	centers = make([]float64, k)
	per := len(sorted) / k
	for c := 0; c < k; c++ {
		start := c * per
		end := start + per
		if c == k-1 {
			end = len(sorted)
		}
		sum := 0.0
		for _, v := range sorted[start:end] {
			sum += v
		}
		centers[c] = sum / float64(end-start)
	}

	assignments := make([]int, len(values))
	for iterations = 1; iterations <= kmeansMaxIterations; iterations++ {
		for i, v := range values {
			best := 0
			bestDist := math.Abs(v - centers[0])
			for c := 1; c < k; c++ {
				if d := math.Abs(v - centers[c]); d < bestDist {
					bestDist = d
					best = c
				}
			}
			assignments[i] = best
		}

		maxShift := 0.0
		sizes = make([]int, k)
		sums := make([]float64, k)
		for i, v := range values {
			sums[assignments[i]] += v
			sizes[assignments[i]]++
		}
		for c := 0; c < k; c++ {
			if sizes[c] == 0 {
				continue
			}
			updated := sums[c] / float64(sizes[c])
			if shift := math.Abs(updated - centers[c]); shift > maxShift {
				maxShift = shift
			}
			centers[c] = updated
		}
		if maxShift < kmeansTolerance {
			break
		}
	}
	return centers, sizes, iterations
}
