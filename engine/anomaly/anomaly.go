// Package anomaly flags outlying points with z-score, IQR or moving-average
// detection. It is deliberately lenient: below the minimum sample count it
// returns an empty summary, because "no anomalies found" is a valid answer
// for a best-effort detector.
package anomaly

import (
	"math"

	"github.com/montanaflynn/stats"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/engine/descriptive"
)

// minSamples is the point count below which detection returns empty
const minSamples = 3

// zThresholds maps detection confidence to a z cutoff
var zThresholds = map[float64]float64{
	0.90: 1.645,
	0.95: 1.96,
	0.99: 2.576,
}

// iqrMultipliers maps detection confidence to the IQR fence multiplier
var iqrMultipliers = map[float64]float64{
	0.90: 1.5,
	0.95: 2.0,
	0.99: 3.0,
}

// Engine detects anomalies. Stateless.
type Engine struct{}

// New creates an anomaly detection engine
func New() *Engine {
	return &Engine{}
}

// Detect runs the requested method at the given confidence level. An
// unrecognized confidence falls back to the 0.95 thresholds.
func (e *Engine) Detect(col table.Column, method analysis.AnomalyMethod, confidence float64) (*analysis.AnomalySummary, error) {
	values, err := col.Numeric()
	if err != nil {
		return nil, err
	}

	if len(values) < minSamples {
		return emptySummary(col.Name, method, thresholdFor(method, confidence)), nil
	}

	switch method {
	case analysis.MethodZScore:
		return e.detectZScore(col.Name, values, confidence), nil
	case analysis.MethodIQR:
		return e.detectIQR(col.Name, values, confidence)
	case analysis.MethodMovingAverage:
		return e.detectMovingAverage(col.Name, values, confidence), nil
	default:
		return nil, core.NewValidationError("method", "unknown anomaly method "+string(method))
	}
}

func zThreshold(confidence float64) float64 {
	if t, ok := zThresholds[confidence]; ok {
		return t
	}
	return zThresholds[0.95]
}

func iqrMultiplier(confidence float64) float64 {
	if k, ok := iqrMultipliers[confidence]; ok {
		return k
	}
	return iqrMultipliers[0.95]
}

func thresholdFor(method analysis.AnomalyMethod, confidence float64) float64 {
	if method == analysis.MethodIQR {
		return iqrMultiplier(confidence)
	}
	return zThreshold(confidence)
}

func (e *Engine) detectZScore(column string, values []float64, confidence float64) *analysis.AnomalySummary {
	threshold := zThreshold(confidence)
	mean := descriptive.Mean(values)
	sd := descriptive.PopulationStdDev(values)

	anomalies := []analysis.Anomaly{}
	if sd > 0 {
		for i, v := range values {
			z := math.Abs(v-mean) / sd
			if z > threshold {
				anomalies = append(anomalies, analysis.Anomaly{
					Index:  i,
					Value:  v,
					Method: analysis.MethodZScore,
					ZScore: z,
				})
			}
		}
	}
	return summarize(column, analysis.MethodZScore, threshold, len(values), anomalies)
}

func (e *Engine) detectIQR(column string, values []float64, confidence float64) (*analysis.AnomalySummary, error) {
	k := iqrMultiplier(confidence)

	q1, err := stats.Percentile(values, 25)
	if err != nil {
		return nil, core.NewValidationError(column, "could not compute quartiles: "+err.Error())
	}
	q3, err := stats.Percentile(values, 75)
	if err != nil {
		return nil, core.NewValidationError(column, "could not compute quartiles: "+err.Error())
	}

	iqr := q3 - q1
	lower := q1 - k*iqr
	upper := q3 + k*iqr

	anomalies := []analysis.Anomaly{}
	for i, v := range values {
		if v < lower || v > upper {
			anomalies = append(anomalies, analysis.Anomaly{
				Index:      i,
				Value:      v,
				Method:     analysis.MethodIQR,
				LowerBound: lower,
				UpperBound: upper,
			})
		}
	}
	return summarize(column, analysis.MethodIQR, k, len(values), anomalies), nil
}

// detectMovingAverage flags points that sit further than threshold window
// standard deviations from the trailing windowed mean. Too-small windows
// fall back to the global z-score method.
func (e *Engine) detectMovingAverage(column string, values []float64, confidence float64) *analysis.AnomalySummary {
	window := len(values) / 2
	if window > 5 {
		window = 5
	}
	if window < 2 {
		return e.detectZScore(column, values, confidence)
	}

	threshold := zThreshold(confidence)
	means := descriptive.MovingAverage(values, window)

	anomalies := []analysis.Anomaly{}
	for i, v := range values {
		start := i - window + 1
		if start < 0 {
			start = 0
		}
		sd := descriptive.PopulationStdDev(values[start : i+1])
		if sd == 0 {
			continue
		}
		deviation := math.Abs(v - means[i])
		if deviation > sd*threshold {
			anomalies = append(anomalies, analysis.Anomaly{
				Index:      i,
				Value:      v,
				Method:     analysis.MethodMovingAverage,
				ZScore:     deviation / sd,
				WindowMean: means[i],
			})
		}
	}
	return summarize(column, analysis.MethodMovingAverage, threshold, len(values), anomalies)
}

func summarize(column string, method analysis.AnomalyMethod, threshold float64, total int, anomalies []analysis.Anomaly) *analysis.AnomalySummary {
	return &analysis.AnomalySummary{
		Column:     column,
		Total:      total,
		Count:      len(anomalies),
		Percentage: 100 * float64(len(anomalies)) / float64(total),
		Method:     method,
		Threshold:  threshold,
		Anomalies:  anomalies,
	}
}

func emptySummary(column string, method analysis.AnomalyMethod, threshold float64) *analysis.AnomalySummary {
	return &analysis.AnomalySummary{
		Column:    column,
		Method:    method,
		Threshold: threshold,
		Anomalies: []analysis.Anomaly{},
	}
}
