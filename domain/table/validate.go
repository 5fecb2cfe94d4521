package table

import (
	"fmt"
	"math"

	"datalens/domain/core"
)

// CheckFinite fails when values contain NaN or Infinity. Upstream cleaning is
// expected to have removed these; finding one here is an input defect.
func CheckFinite(name string, values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s[%d]", core.ErrNonFiniteValue, name, i)
		}
	}
	return nil
}

// EqualLength fails unless every column has the same number of values
func EqualLength(columns ...Column) error {
	if len(columns) == 0 {
		return nil
	}
	n := columns[0].Len()
	for _, col := range columns[1:] {
		if col.Len() != n {
			return fmt.Errorf("%w: %s has %d values, %s has %d",
				core.ErrLengthMismatch, columns[0].Name, n, col.Name, col.Len())
		}
	}
	return nil
}

// NumericPair extracts two equal-length numeric series for pairwise analysis
func NumericPair(x, y Column) ([]float64, []float64, error) {
	if err := EqualLength(x, y); err != nil {
		return nil, nil, err
	}
	xs, err := x.Numeric()
	if err != nil {
		return nil, nil, err
	}
	ys, err := y.Numeric()
	if err != nil {
		return nil, nil, err
	}
	return xs, ys, nil
}
