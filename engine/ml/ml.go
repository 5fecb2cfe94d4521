// Package ml runs the heuristic prediction ensemble: correlation-based
// feature selection, three deterministic smoothing "models" averaged into one
// prediction, pattern detection, and directional-accuracy metrics. Nothing
// here is a trained model; there is no loss minimization anywhere.
package ml

import (
	"fmt"
	"math"
	"sort"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/engine/descriptive"
)

const (
	// featureCorrelationFloor is the minimum |r| for a column to be selected
	featureCorrelationFloor = 0.3
	// maxFeatures caps how many columns feed the ensemble
	maxFeatures = 3
	// outlierSigma is the pattern-detection outlier cutoff
	outlierSigma = 2.5
)

// Engine runs the heuristic ML analysis. Stateless.
type Engine struct{}

// New creates an ML analysis engine
func New() *Engine {
	return &Engine{}
}

type feature struct {
	name        string
	values      []float64
	correlation float64
	mean        float64
}

// Analyze runs the ensemble for one numeric target column
func (e *Engine) Analyze(t *table.Table, target string) (*analysis.MLResult, error) {
	return e.analyze(t, target, nil)
}

// AnalyzeWithMatrix is Analyze with feature selection read from a
// precomputed correlation matrix, so the full-analysis fan-out does not
// recompute every pairwise correlation.
func (e *Engine) AnalyzeWithMatrix(t *table.Table, target string, matrix *analysis.CorrelationMatrix) (*analysis.MLResult, error) {
	return e.analyze(t, target, matrix)
}

func (e *Engine) analyze(t *table.Table, target string, matrix *analysis.CorrelationMatrix) (*analysis.MLResult, error) {
	col, err := t.Column(target)
	if err != nil {
		return nil, err
	}
	values, err := col.Numeric()
	if err != nil {
		return nil, err
	}
	if len(values) < 4 {
		return nil, fmt.Errorf("%w: ml analysis needs at least 4 points", core.ErrInsufficientData)
	}

	features, err := e.selectFeatures(t, target, values, matrix)
	if err != nil {
		return nil, err
	}

	predictions := e.ensemble(values, features)

	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.name
	}

	return &analysis.MLResult{
		Field:       target,
		Predictions: predictions,
		Confidence:  confidence(values, predictions),
		Features:    names,
		Patterns:    e.detectPatterns(values),
		Metrics:     directionalMetrics(values, predictions),
	}, nil
}

// AnalyzeAll runs the ensemble for every numeric column as target
func (e *Engine) AnalyzeAll(t *table.Table) ([]analysis.MLResult, error) {
	return e.AnalyzeAllWithMatrix(t, nil)
}

// AnalyzeAllWithMatrix is AnalyzeAll reusing a precomputed correlation matrix
func (e *Engine) AnalyzeAllWithMatrix(t *table.Table, matrix *analysis.CorrelationMatrix) ([]analysis.MLResult, error) {
	numeric := t.NumericColumns()
	if len(numeric) == 0 {
		return nil, core.NewValidationError("table", "no numeric columns")
	}
	out := make([]analysis.MLResult, 0, len(numeric))
	for _, col := range numeric {
		res, err := e.analyze(t, col.Name, matrix)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, nil
}

// pairCorrelation reads a pairwise correlation from the matrix when present
func pairCorrelation(matrix *analysis.CorrelationMatrix, x, y string) (float64, bool) {
	if matrix == nil {
		return 0, false
	}
	pair, ok := matrix.Pair(x, y)
	if !ok {
		return 0, false
	}
	return pair.R, true
}

// selectFeatures picks up to maxFeatures other numeric columns whose absolute
// correlation with the target exceeds the floor, sorted by descending |r|.
// Columns whose correlation is undefined (zero variance) are skipped.
func (e *Engine) selectFeatures(t *table.Table, target string, targetValues []float64, matrix *analysis.CorrelationMatrix) ([]feature, error) {
	candidates := []feature{}
	for _, col := range t.NumericColumns() {
		if col.Name == target {
			continue
		}
		if col.Len() != len(targetValues) {
			return nil, fmt.Errorf("%w: %s vs %s", core.ErrLengthMismatch, target, col.Name)
		}
		values, err := col.Numeric()
		if err != nil {
			return nil, err
		}
		r, ok := pairCorrelation(matrix, target, col.Name)
		if !ok {
			var perr error
			r, perr = descriptive.Pearson(targetValues, values)
			if perr != nil {
				continue
			}
		}
		if math.Abs(r) > featureCorrelationFloor {
			candidates = append(candidates, feature{
				name:        col.Name,
				values:      values,
				correlation: r,
				mean:        descriptive.Mean(values),
			})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ai, aj := math.Abs(candidates[i].correlation), math.Abs(candidates[j].correlation)
		if ai != aj {
			return ai > aj
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > maxFeatures {
		candidates = candidates[:maxFeatures]
	}
	return candidates, nil
}

// ensemble averages the per-index outputs of the three deterministic models.
// Models 1 and 3 need selected features; with none, the moving average model
// stands alone.
func (e *Engine) ensemble(target []float64, features []feature) []float64 {
	n := len(target)
	targetMean := descriptive.Mean(target)

	window := n / 4
	if window > 5 {
		window = 5
	}
	if window < 1 {
		window = 1
	}
	movingAvg := descriptive.MovingAverage(target, window)

	weightTotal := 0.0
	for _, f := range features {
		weightTotal += math.Abs(f.correlation)
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := movingAvg[i]
		count := 1.0

		if len(features) > 0 {
			// Model 1: correlation-weighted combination around feature means
			linear := targetMean
			for _, f := range features {
				linear += f.correlation * (f.values[i] - f.mean)
			}
			sum += linear
			count++

			// Model 3: correlation-weight-normalized feature average
			if weightTotal > 0 {
				weighted := 0.0
				for _, f := range features {
					weighted += math.Abs(f.correlation) * f.values[i]
				}
				sum += weighted / weightTotal
				count++
			}
		}
		out[i] = sum / count
	}
	return out
}

// confidence is max(0, 1 - mean(|error|/|actual|)). Indices where the actual
// value is zero have no defined relative error and are skipped.
func confidence(actual, predicted []float64) float64 {
	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs(predicted[i]-actual[i]) / math.Abs(actual[i])
		count++
	}
	if count == 0 {
		return 0
	}
	c := 1 - sum/float64(count)
	if c < 0 {
		return 0
	}
	return c
}

// detectPatterns scans for trend, seasonality, outliers and clusters
func (e *Engine) detectPatterns(values []float64) []analysis.Pattern {
	patterns := []analysis.Pattern{}

	if p, ok := trendPattern(values); ok {
		patterns = append(patterns, p)
	}
	if period, strength, detected := descriptive.DetectSeasonalPeriod(values); detected {
		patterns = append(patterns, analysis.Pattern{
			Type:        analysis.PatternSeasonality,
			Description: fmt.Sprintf("Repeating cycle every %d periods", period),
			Confidence:  strength,
		})
	}
	if p, ok := outlierPattern(values); ok {
		patterns = append(patterns, p)
	}
	if p, ok := clusterPattern(values); ok {
		patterns = append(patterns, p)
	}
	return patterns
}

// trendPattern compares first and second half means and variances and
// thresholds the mean-normalized slope.
func trendPattern(values []float64) (analysis.Pattern, bool) {
	half := len(values) / 2
	if half < 2 {
		return analysis.Pattern{}, false
	}
	firstMean := descriptive.Mean(values[:half])
	secondMean := descriptive.Mean(values[half:])

	overallMean := descriptive.Mean(values)
	scale := math.Abs(overallMean)
	if scale == 0 {
		scale = 1
	}
	normalizedShift := (secondMean - firstMean) / scale
	if math.Abs(normalizedShift) <= 0.05 {
		return analysis.Pattern{}, false
	}

	direction := "upward"
	if normalizedShift < 0 {
		direction = "downward"
	}
	conf := math.Min(1, math.Abs(normalizedShift))
	return analysis.Pattern{
		Type:        analysis.PatternTrend,
		Description: fmt.Sprintf("Sustained %s shift between series halves (%.1f%%)", direction, 100*normalizedShift),
		Confidence:  conf,
	}, true
}

func outlierPattern(values []float64) (analysis.Pattern, bool) {
	mean := descriptive.Mean(values)
	sd := descriptive.SampleStdDev(values)
	if sd == 0 {
		return analysis.Pattern{}, false
	}
	count := 0
	for _, v := range values {
		if math.Abs(v-mean) > outlierSigma*sd {
			count++
		}
	}
	if count == 0 {
		return analysis.Pattern{}, false
	}
	return analysis.Pattern{
		Type:        analysis.PatternOutlier,
		Description: fmt.Sprintf("%d points beyond %.1f standard deviations", count, outlierSigma),
		Confidence:  math.Min(1, float64(count)/float64(len(values))*10),
	}, true
}

// clusterPattern runs deterministic k-means with k = min(3, sqrt(n)) and
// reports grouping when every cluster is non-trivial.
func clusterPattern(values []float64) (analysis.Pattern, bool) {
	k := int(math.Sqrt(float64(len(values))))
	if k > 3 {
		k = 3
	}
	if k < 2 {
		return analysis.Pattern{}, false
	}

	centers, sizes, _ := kmeans1D(values, k)
	if centers == nil {
		return analysis.Pattern{}, false
	}
	for _, size := range sizes {
		if size == 0 {
			return analysis.Pattern{}, false
		}
	}

	spread := descriptive.SampleStdDev(values)
	if spread == 0 {
		return analysis.Pattern{}, false
	}
	separation := math.Abs(centers[len(centers)-1]-centers[0]) / spread
	if separation < 1 {
		return analysis.Pattern{}, false
	}

	return analysis.Pattern{
		Type:        analysis.PatternCluster,
		Description: fmt.Sprintf("Values group into %d distinct levels", k),
		Confidence:  math.Min(1, separation/3),
	}, true
}

// directionalMetrics scores sign agreement of period-over-period direction
// between prediction and actual. "Up" plays the positive class: these are
// directional-agreement scores wearing classification names, not true
// precision/recall against labeled ground truth.
func directionalMetrics(actual, predicted []float64) analysis.MLMetrics {
	var agree, total float64
	var tp, fp, fn float64
	for i := 1; i < len(actual); i++ {
		actualUp := actual[i] > actual[i-1]
		predictedUp := predicted[i] > predicted[i-1]
		total++
		if actualUp == predictedUp {
			agree++
		}
		switch {
		case predictedUp && actualUp:
			tp++
		case predictedUp && !actualUp:
			fp++
		case !predictedUp && actualUp:
			fn++
		}
	}
	if total == 0 {
		return analysis.MLMetrics{}
	}

	metrics := analysis.MLMetrics{Accuracy: agree / total}
	if tp+fp > 0 {
		metrics.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		metrics.Recall = tp / (tp + fn)
	}
	if metrics.Precision+metrics.Recall > 0 {
		metrics.F1Score = 2 * metrics.Precision * metrics.Recall / (metrics.Precision + metrics.Recall)
	}
	return metrics
}
