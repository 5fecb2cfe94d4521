// Package timeseries analyzes one numeric column as a sequence over an
// implicit integer time index: trend, seasonality, decomposition, ensemble
// forecasting, volatility and a stationarity heuristic.
package timeseries

import (
	"fmt"
	"math"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/engine/descriptive"
)

const (
	// DefaultHorizon is the forecast length used when a caller passes <= 0
	DefaultHorizon = 5
	// smoothingAlpha is the fixed exponential smoothing weight
	smoothingAlpha = 0.3
	// tradingPeriods annualizes per-period volatility
	tradingPeriods = 252
)

// Engine analyzes time series. Stateless.
type Engine struct{}

// New creates a time series engine
func New() *Engine {
	return &Engine{}
}

// Analyze runs the full time-series analysis on one numeric column
func (e *Engine) Analyze(col table.Column, horizon int) (*analysis.TimeSeriesResult, error) {
	values, err := col.Numeric()
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("%w: time series needs at least 2 points", core.ErrInsufficientData)
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	slope, intercept := indexTrend(values)
	trend := classifyTrend(slope, intercept)
	decomposition := decompose(values, slope, intercept)

	period, strength, detected := descriptive.DetectSeasonalPeriod(values)
	seasonality := analysis.SeasonalityInfo{Detected: detected, Period: period, Strength: strength}

	return &analysis.TimeSeriesResult{
		Column:        col.Name,
		Trend:         trend,
		Seasonality:   seasonality,
		Decomposition: decomposition,
		Forecast:      forecast(values, slope, intercept, horizon),
		Volatility:    volatility(values),
		Stationarity:  stationarity(values),
	}, nil
}

// indexTrend fits OLS of value against its integer index
func indexTrend(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	meanX := (n - 1) / 2
	meanY := descriptive.Mean(values)

	var sxx, sxy float64
	for i, v := range values {
		dx := float64(i) - meanX
		sxx += dx * dx
		sxy += dx * (v - meanY)
	}
	if sxx == 0 {
		return 0, meanY
	}
	slope = sxy / sxx
	return slope, meanY - slope*meanX
}

func classifyTrend(slope, intercept float64) analysis.TrendInfo {
	direction := "flat"
	if slope > 0 {
		direction = "increasing"
	} else if slope < 0 {
		direction = "decreasing"
	}

	strength := "weak"
	switch abs := math.Abs(slope); {
	case abs > 0.1:
		strength = "strong"
	case abs > 0.01:
		strength = "moderate"
	}

	return analysis.TrendInfo{
		Slope:     slope,
		Intercept: intercept,
		Direction: direction,
		Strength:  strength,
	}
}

// decompose splits the series into its trend line and the detrended
// remainder. No separate seasonal component is extracted, so the residual
// equals the detrended series.
func decompose(values []float64, slope, intercept float64) analysis.Decomposition {
	n := len(values)
	trend := make([]float64, n)
	detrended := make([]float64, n)
	for i, v := range values {
		trend[i] = slope*float64(i) + intercept
		detrended[i] = v - trend[i]
	}
	residual := make([]float64, n)
	copy(residual, detrended)
	return analysis.Decomposition{Trend: trend, Detrended: detrended, Residual: residual}
}

// forecast builds the three-method ensemble. The ensemble value per step is
// the arithmetic mean of whichever methods produced an output; the 95% band
// is ensemble +/- 1.96 * stddev(ensemble forecast).
func forecast(values []float64, slope, intercept float64, horizon int) analysis.ForecastInfo {
	n := len(values)

	linear := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		linear[h] = slope*float64(n+h) + intercept
	}

	poly := polynomialExtrapolation(values, horizon)
	smooth := exponentialSmoothing(values, horizon)

	ensemble := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		sum := linear[h] + smooth[h]
		count := 2.0
		if poly != nil {
			sum += poly[h]
			count++
		}
		ensemble[h] = sum / count
	}

	sd := descriptive.SampleStdDev(ensemble)
	intervals := make([]analysis.ConfidenceInterval, horizon)
	for h := 0; h < horizon; h++ {
		intervals[h] = analysis.ConfidenceInterval{
			Lower: ensemble[h] - 1.96*sd,
			Upper: ensemble[h] + 1.96*sd,
			Level: 0.95,
		}
	}

	return analysis.ForecastInfo{
		Horizon:           horizon,
		Linear:            linear,
		Polynomial:        poly,
		ExponentialSmooth: smooth,
		Ensemble:          ensemble,
		ConfidenceIntervals: intervals,
	}
}

// polynomialExtrapolation fits a degree-2 curve on the index and extends it.
// Returns nil when the series is too short or the fit is singular; the
// ensemble then averages the remaining methods.
func polynomialExtrapolation(values []float64, horizon int) []float64 {
	n := len(values)
	if n < 5 {
		return nil
	}

	// Normal equations for [1, i, i^2]
	var s0, s1, s2, s3, s4, t0, t1, t2 float64
	for i, v := range values {
		x := float64(i)
		x2 := x * x
		s0++
		s1 += x
		s2 += x2
		s3 += x2 * x
		s4 += x2 * x2
		t0 += v
		t1 += x * v
		t2 += x2 * v
	}

	coeffs, err := solve3(
		[3][3]float64{{s0, s1, s2}, {s1, s2, s3}, {s2, s3, s4}},
		[3]float64{t0, t1, t2},
	)
	if err != nil {
		return nil
	}

	out := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		x := float64(n + h)
		out[h] = coeffs[0] + coeffs[1]*x + coeffs[2]*x*x
	}
	return out
}

// solve3 solves a 3x3 system with partial pivoting
func solve3(a [3][3]float64, b [3]float64) ([3]float64, error) {
	var x [3]float64
	m := [3][4]float64{}
	for i := 0; i < 3; i++ {
		copy(m[i][:3], a[i][:])
		m[i][3] = b[i]
	}
	for col := 0; col < 3; col++ {
		pivot := col
		for row := col + 1; row < 3; row++ {
			if math.Abs(m[row][col]) > math.Abs(m[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return x, core.ErrSingularMatrix
		}
		m[col], m[pivot] = m[pivot], m[col]
		for row := col + 1; row < 3; row++ {
			f := m[row][col] / m[col][col]
			for k := col; k < 4; k++ {
				m[row][k] -= f * m[col][k]
			}
		}
	}
	for i := 2; i >= 0; i-- {
		sum := m[i][3]
		for j := i + 1; j < 3; j++ {
			sum -= m[i][j] * x[j]
		}
		x[i] = sum / m[i][i]
	}
	return x, nil
}

// exponentialSmoothing smooths the series with fixed alpha and projects the
// final level flat across the horizon.
func exponentialSmoothing(values []float64, horizon int) []float64 {
	level := values[0]
	for _, v := range values[1:] {
		level = smoothingAlpha*v + (1-smoothingAlpha)*level
	}
	out := make([]float64, horizon)
	for h := range out {
		out[h] = level
	}
	return out
}

// volatility measures dispersion of period-over-period percentage changes.
// Steps starting from a zero value have no defined percentage change and are
// skipped rather than propagating infinity.
func volatility(values []float64) analysis.VolatilityInfo {
	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		returns = append(returns, (values[i]-values[i-1])/values[i-1])
	}

	sd := descriptive.SampleStdDev(returns)
	return analysis.VolatilityInfo{
		StdDev:      sd,
		Annualized:  sd * math.Sqrt(tradingPeriods),
		MaxDrawdown: maxDrawdown(values),
	}
}

// maxDrawdown is the largest peak-to-trough relative decline
func maxDrawdown(values []float64) float64 {
	peak := values[0]
	maxDD := 0.0
	for _, v := range values[1:] {
		if v > peak {
			peak = v
			continue
		}
		if peak > 0 {
			dd := (peak - v) / peak
			if dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// stationarity compares the two halves of the series. Stationary when both
// the means and the variances differ by less than 10% of the larger value.
// This is a split-half heuristic, not a formal unit-root test.
func stationarity(values []float64) analysis.StationarityInfo {
	half := len(values) / 2
	first := values[:half]
	second := values[half:]

	meanDiff := math.Abs(descriptive.Mean(first) - descriptive.Mean(second))
	varDiff := math.Abs(descriptive.SampleVariance(first) - descriptive.SampleVariance(second))

	meanOK := withinTenPercent(meanDiff, descriptive.Mean(first), descriptive.Mean(second))
	varOK := withinTenPercent(varDiff, descriptive.SampleVariance(first), descriptive.SampleVariance(second))

	return analysis.StationarityInfo{
		IsStationary: meanOK && varOK,
		MeanDiff:     meanDiff,
		VarianceDiff: varDiff,
	}
}

func withinTenPercent(diff, a, b float64) bool {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return diff == 0
	}
	return diff < 0.1*larger
}
