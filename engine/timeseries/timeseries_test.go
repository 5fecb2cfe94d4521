package timeseries

import (
	"errors"
	"math"
	"testing"

	"datalens/domain/core"
	"datalens/domain/table"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestAnalyze_LinearSeries(t *testing.T) {
	// value = 3*index + 10, perfectly linear
	values := make([]float64, 20)
	for i := range values {
		values[i] = 3*float64(i) + 10
	}
	col := table.NewNumberColumn("growth", values)

	result, err := New().Analyze(col, 4)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Column != "growth" {
		t.Errorf("column = %q, want growth", result.Column)
	}
	if !almostEqual(result.Trend.Slope, 3.0, 1e-9) {
		t.Errorf("slope = %f, want 3", result.Trend.Slope)
	}
	if !almostEqual(result.Trend.Intercept, 10.0, 1e-9) {
		t.Errorf("intercept = %f, want 10", result.Trend.Intercept)
	}
	if result.Trend.Direction != "increasing" {
		t.Errorf("direction = %q, want increasing", result.Trend.Direction)
	}
	if result.Trend.Strength != "strong" {
		t.Errorf("strength = %q, want strong", result.Trend.Strength)
	}

	// the linear method extends the exact line
	if len(result.Forecast.Linear) != 4 {
		t.Fatalf("linear forecast length = %d, want 4", len(result.Forecast.Linear))
	}
	for h, v := range result.Forecast.Linear {
		want := 3*float64(20+h) + 10
		if !almostEqual(v, want, 1e-6) {
			t.Errorf("linear forecast %d = %f, want %f", h, v, want)
		}
	}
	if len(result.Forecast.Ensemble) != 4 {
		t.Errorf("ensemble length = %d, want 4", len(result.Forecast.Ensemble))
	}
	if len(result.Forecast.ConfidenceIntervals) != 4 {
		t.Errorf("confidence interval count = %d, want 4", len(result.Forecast.ConfidenceIntervals))
	}
	for i, ci := range result.Forecast.ConfidenceIntervals {
		if ci.Lower > result.Forecast.Ensemble[i] || ci.Upper < result.Forecast.Ensemble[i] {
			t.Errorf("interval %d [%f, %f] does not bracket ensemble %f", i, ci.Lower, ci.Upper, result.Forecast.Ensemble[i])
		}
	}
}

func TestAnalyze_DecompositionResidualMatchesDetrended(t *testing.T) {
	values := []float64{5, 9, 6, 12, 8, 15, 10, 18}
	col := table.NewNumberColumn("sales", values)

	result, err := New().Analyze(col, 0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	d := result.Decomposition
	if len(d.Trend) != len(values) || len(d.Detrended) != len(values) || len(d.Residual) != len(values) {
		t.Fatal("decomposition components must match the series length")
	}
	for i := range values {
		if !almostEqual(d.Trend[i]+d.Detrended[i], values[i], 1e-9) {
			t.Errorf("trend+detrended at %d = %f, want %f", i, d.Trend[i]+d.Detrended[i], values[i])
		}
		if d.Residual[i] != d.Detrended[i] {
			t.Errorf("residual %d = %f, want detrended %f", i, d.Residual[i], d.Detrended[i])
		}
	}
}

func TestAnalyze_DefaultHorizon(t *testing.T) {
	col := table.NewNumberColumn("x", []float64{1, 2, 3, 4, 5, 6})
	result, err := New().Analyze(col, 0)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Forecast.Horizon != DefaultHorizon {
		t.Errorf("horizon = %d, want %d", result.Forecast.Horizon, DefaultHorizon)
	}
}

func TestAnalyze_TooFewPoints(t *testing.T) {
	col := table.NewNumberColumn("x", []float64{42})
	if _, err := New().Analyze(col, 5); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAnalyze_FlatSeries(t *testing.T) {
	col := table.NewNumberColumn("flat", []float64{7, 7, 7, 7, 7, 7})
	result, err := New().Analyze(col, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Trend.Direction != "flat" {
		t.Errorf("direction = %q, want flat", result.Trend.Direction)
	}
	if result.Volatility.StdDev != 0 {
		t.Errorf("volatility = %f, want 0 for a constant series", result.Volatility.StdDev)
	}
	if result.Volatility.MaxDrawdown != 0 {
		t.Errorf("max drawdown = %f, want 0", result.Volatility.MaxDrawdown)
	}
	if !result.Stationarity.IsStationary {
		t.Error("constant series should be stationary")
	}
}

func TestAnalyze_TrendingSeriesIsNonStationary(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = float64(i) * 10
	}
	col := table.NewNumberColumn("ramp", values)

	result, err := New().Analyze(col, 3)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Stationarity.IsStationary {
		t.Error("steep ramp should not be stationary")
	}
	if result.Stationarity.MeanDiff <= 0 {
		t.Errorf("mean diff = %f, want positive", result.Stationarity.MeanDiff)
	}
}

func TestMaxDrawdown_KnownSeries(t *testing.T) {
	// peak 100, trough 60: drawdown 40%
	values := []float64{50, 100, 80, 60, 90}
	if dd := maxDrawdown(values); !almostEqual(dd, 0.4, 1e-9) {
		t.Errorf("max drawdown = %f, want 0.4", dd)
	}

	// monotone rise never draws down
	if dd := maxDrawdown([]float64{1, 2, 3, 4}); dd != 0 {
		t.Errorf("max drawdown of rising series = %f, want 0", dd)
	}
}

func TestVolatility_AnnualizationFactor(t *testing.T) {
	values := []float64{100, 110, 99, 105, 95, 102, 108}
	v := volatility(values)

	if v.StdDev <= 0 {
		t.Fatalf("stddev = %f, want positive", v.StdDev)
	}
	want := v.StdDev * math.Sqrt(252)
	if !almostEqual(v.Annualized, want, 1e-9) {
		t.Errorf("annualized = %f, want %f", v.Annualized, want)
	}
}

func TestExponentialSmoothing_FlatForecast(t *testing.T) {
	values := []float64{10, 12, 11, 13, 12}
	got := exponentialSmoothing(values, 3)

	if len(got) != 3 {
		t.Fatalf("forecast length = %d, want 3", len(got))
	}
	// the smoothed level is frozen across the horizon
	if got[0] != got[1] || got[1] != got[2] {
		t.Errorf("exponential smoothing forecast should be flat, got %v", got)
	}
}
