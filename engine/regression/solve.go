package regression

import (
	"math"

	"datalens/domain/core"
	"datalens/engine/descriptive"
)

// gaussianSolve solves A*x = b in place using Gaussian elimination with
// partial pivoting. A singular (or numerically singular) system is an error.
func gaussianSolve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	// Augment
	m := make([][]float64, n)
	for i := range a {
		m[i] = make([]float64, n+1)
		copy(m[i], a[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		// Partial pivot: largest absolute value in this column
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return nil, core.ErrSingularMatrix
		}
		m[col], m[pivot] = m[pivot], m[col]

		for row := col + 1; row < n; row++ {
			factor := m[row][col] / m[col][col]
			for k := col; k <= n; k++ {
				m[row][k] -= factor * m[col][k]
			}
		}
	}

	// Back substitution
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := m[i][n]
		for j := i + 1; j < n; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x, nil
}

// polynomialDesign expands one predictor into [x, x^2, ..., x^degree]
func polynomialDesign(x []float64, degree int) [][]float64 {
	features := make([][]float64, degree)
	for d := 1; d <= degree; d++ {
		col := make([]float64, len(x))
		for i, v := range x {
			col[i] = math.Pow(v, float64(d))
		}
		features[d-1] = col
	}
	return features
}

// standardized holds z-scored features plus the transforms needed to map
// coefficients back to original units.
type standardized struct {
	features [][]float64
	means    []float64
	stdDevs  []float64
}

// standardize z-scores each feature column. Zero-variance features are an
// explicit error; they cannot be scaled.
func standardize(features [][]float64) (*standardized, error) {
	out := &standardized{
		features: make([][]float64, len(features)),
		means:    make([]float64, len(features)),
		stdDevs:  make([]float64, len(features)),
	}
	for j, col := range features {
		mean := descriptive.Mean(col)
		sd := descriptive.SampleStdDev(col)
		if sd == 0 {
			return nil, core.ErrZeroVariance
		}
		scaled := make([]float64, len(col))
		for i, v := range col {
			scaled[i] = (v - mean) / sd
		}
		out.features[j] = scaled
		out.means[j] = mean
		out.stdDevs[j] = sd
	}
	return out, nil
}

// normalEquations builds X'X and X'y for centered targets
func normalEquations(features [][]float64, y []float64) ([][]float64, []float64) {
	p := len(features)
	xtx := make([][]float64, p)
	xty := make([]float64, p)
	for i := 0; i < p; i++ {
		xtx[i] = make([]float64, p)
		for j := 0; j < p; j++ {
			sum := 0.0
			for k := range y {
				sum += features[i][k] * features[j][k]
			}
			xtx[i][j] = sum
		}
		sum := 0.0
		for k := range y {
			sum += features[i][k] * y[k]
		}
		xty[i] = sum
	}
	return xtx, xty
}

const (
	lassoMaxIterations = 1000
	lassoTolerance     = 1e-4
)

// softThreshold shrinks toward zero, the Lasso proximal operator
func softThreshold(value, threshold float64) float64 {
	switch {
	case value > threshold:
		return value - threshold
	case value < -threshold:
		return value + threshold
	default:
		return 0
	}
}

// lassoCoordinateDescent fits Lasso coefficients on standardized features and
// a centered target. Runs until the max coefficient change drops below
// tolerance or the fixed iteration cap is reached; the capped fit is accepted
// as-is provided it stayed finite.
func lassoCoordinateDescent(features [][]float64, y []float64, alpha float64) ([]float64, error) {
	p := len(features)
	n := len(y)
	beta := make([]float64, p)

	// Residuals start at the centered target
	residual := make([]float64, n)
	copy(residual, y)

	// Per-feature squared norms
	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			norms[j] += features[j][i] * features[j][i]
		}
		if norms[j] == 0 {
			return nil, core.ErrZeroVariance
		}
	}

	threshold := alpha * float64(n)
	for iter := 0; iter < lassoMaxIterations; iter++ {
		maxChange := 0.0
		for j := 0; j < p; j++ {
			// rho includes the current coefficient's own contribution
			rho := 0.0
			for i := 0; i < n; i++ {
				rho += features[j][i] * (residual[i] + features[j][i]*beta[j])
			}
			updated := softThreshold(rho, threshold) / norms[j]
			if updated != beta[j] {
				delta := updated - beta[j]
				for i := 0; i < n; i++ {
					residual[i] -= delta * features[j][i]
				}
				if math.Abs(delta) > maxChange {
					maxChange = math.Abs(delta)
				}
				beta[j] = updated
			}
		}
		if maxChange < lassoTolerance {
			break
		}
	}

	for _, b := range beta {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return nil, core.ErrNoConvergence
		}
	}
	return beta, nil
}
