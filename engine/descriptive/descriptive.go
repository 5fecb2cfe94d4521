// Package descriptive is the leaf statistics engine. Every other engine
// depends on it for descriptive summaries, Pearson correlation, and the
// shared sequence primitives (moving average, autocorrelation), so the same
// computation is never reimplemented twice.
package descriptive

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
)

// Engine computes descriptive statistics and pairwise correlations.
// It is stateless; construct one per call or share freely.
type Engine struct{}

// New creates a descriptive statistics engine
func New() *Engine {
	return &Engine{}
}

// Describe computes the statistical summary for one numeric column
func (e *Engine) Describe(col table.Column) (*analysis.StatisticalSummary, error) {
	data, err := col.Numeric()
	if err != nil {
		return nil, err
	}

	mean, _ := stats.Mean(data)
	median, _ := stats.Median(data)
	min, _ := stats.Min(data)
	max, _ := stats.Max(data)

	variance := 0.0
	stdDev := 0.0
	if len(data) > 1 {
		variance, _ = stats.SampleVariance(data)
		stdDev = math.Sqrt(variance)
	}

	return &analysis.StatisticalSummary{
		Column:   col.Name,
		Count:    len(data),
		Mean:     mean,
		Median:   median,
		StdDev:   stdDev,
		Variance: variance,
		Min:      min,
		Max:      max,
		Skewness: Skewness(data, mean, stdDev),
		Kurtosis: Kurtosis(data, mean, stdDev),
	}, nil
}

// DescribeAll summarizes every numeric column in the table
func (e *Engine) DescribeAll(t *table.Table) ([]analysis.StatisticalSummary, error) {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return nil, core.NewValidationError("table", "no numeric columns")
	}
	out := make([]analysis.StatisticalSummary, 0, len(numeric))
	for _, col := range numeric {
		summary, err := e.Describe(col)
		if err != nil {
			return nil, err
		}
		out = append(out, *summary)
	}
	return out, nil
}

// Correlate computes the Pearson correlation between two columns together
// with its approximate p-value and strength tier.
func (e *Engine) Correlate(x, y table.Column) (*analysis.CorrelationPair, error) {
	xs, ys, err := table.NumericPair(x, y)
	if err != nil {
		return nil, err
	}

	r, err := Pearson(xs, ys)
	if err != nil {
		return nil, err
	}

	return &analysis.CorrelationPair{
		ColumnX:    x.Name,
		ColumnY:    y.Name,
		R:          r,
		PValue:     CorrelationPValue(r, len(xs)),
		Strength:   analysis.ClassifyStrength(math.Abs(r)),
		SampleSize: len(xs),
	}, nil
}

// CorrelationMatrix computes every pairwise correlation over the numeric
// columns and surfaces the strong subset (|r| > 0.7) sorted by descending |r|.
func (e *Engine) CorrelationMatrix(t *table.Table) (*analysis.CorrelationMatrix, error) {
	numeric := t.NumericColumns()
	if len(numeric) < 2 {
		return nil, core.NewValidationError("table", "correlation matrix needs at least 2 numeric columns")
	}

	names := make([]string, len(numeric))
	for i, col := range numeric {
		names[i] = col.Name
	}

	pairs := make([]analysis.CorrelationPair, 0, len(numeric)*(len(numeric)-1)/2)
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			pair, err := e.Correlate(numeric[i], numeric[j])
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, *pair)
		}
	}

	strong := make([]analysis.CorrelationPair, 0)
	for _, p := range pairs {
		if math.Abs(p.R) > 0.7 {
			strong = append(strong, p)
		}
	}
	sort.SliceStable(strong, func(i, j int) bool {
		return math.Abs(strong[i].R) > math.Abs(strong[j].R)
	})

	return &analysis.CorrelationMatrix{
		Columns: names,
		Pairs:   pairs,
		Strong:  strong,
	}, nil
}

// Pearson computes r = cov(x,y) / (sigma_x * sigma_y). A zero-variance input
// is an explicit error, never a silent 0 or NaN.
func Pearson(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, core.ErrLengthMismatch
	}
	if len(x) < 2 {
		return 0, core.ErrInsufficientData
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var cov, varX, varY float64
	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return 0, core.ErrZeroVariance
	}
	return cov / math.Sqrt(varX*varY), nil
}

// CorrelationPValue approximates the two-sided p-value for a correlation via
// a normal approximation on t = r*sqrt((n-2)/(1-r^2)). This is a simplified
// approximation, not an exact t-distribution p-value.
func CorrelationPValue(r float64, n int) float64 {
	if n < 3 {
		return 1.0
	}
	if math.Abs(r) >= 1 {
		return 0.0
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	normal := distuv.Normal{Mu: 0, Sigma: 1}
	p := 2 * (1 - normal.CDF(math.Abs(t)))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
