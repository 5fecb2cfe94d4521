package descriptive

import (
	"math"
	"testing"
)

func TestMovingAverage_TrailingWindow(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	got := MovingAverage(data, 3)

	// the first window-1 points average over the available prefix
	want := []float64{1, 1.5, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if !almostEqual(got[i], want[i], tolerance) {
			t.Errorf("index %d = %f, want %f", i, got[i], want[i])
		}
	}
}

func TestAutocorrelation_PeriodicSeries(t *testing.T) {
	// period-4 sawtooth repeats exactly, so lag 4 correlates perfectly
	data := make([]float64, 40)
	for i := range data {
		data[i] = float64(i % 4)
	}

	// the numerator loses the last lag pairs, so a perfect repeat scores (n-lag)/n
	if r := Autocorrelation(data, 4); !almostEqual(r, 0.9, 1e-9) {
		t.Errorf("autocorrelation at lag 4 = %f, want 0.9", r)
	}
	if r := Autocorrelation(data, 2); r > 0 {
		t.Errorf("autocorrelation at lag 2 = %f, want <= 0", r)
	}
}

func TestAutocorrelation_DegenerateInputs(t *testing.T) {
	if r := Autocorrelation([]float64{1, 2, 3}, 3); r != 0 {
		t.Errorf("lag >= n should yield 0, got %f", r)
	}
	if r := Autocorrelation([]float64{5, 5, 5, 5}, 1); r != 0 {
		t.Errorf("constant series should yield 0, got %f", r)
	}
}

func TestDetectSeasonalPeriod_FindsFirstQualifyingLag(t *testing.T) {
	data := make([]float64, 60)
	for i := range data {
		data[i] = math.Sin(2 * math.Pi * float64(i) / 6)
	}

	period, strength, detected := DetectSeasonalPeriod(data)
	if !detected {
		t.Fatal("expected seasonality to be detected")
	}
	if period != 6 {
		t.Errorf("period = %d, want 6", period)
	}
	if strength <= 0.7 {
		t.Errorf("strength = %f, want > 0.7", strength)
	}
}

func TestDetectSeasonalPeriod_NoSeasonality(t *testing.T) {
	// lag-2 autocorrelation of this series is -0.3, below the 0.7 threshold
	data := []float64{1, 2, 3, 4}
	if _, _, detected := DetectSeasonalPeriod(data); detected {
		t.Error("series without repetition should not report seasonality")
	}

	// too short to scan any lag at all
	if _, _, detected := DetectSeasonalPeriod([]float64{1, 2, 3}); detected {
		t.Error("3-point series should not report seasonality")
	}
}

func TestSkewness_SymmetricData(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5}
	m := Mean(data)
	sd := SampleStdDev(data)
	if s := Skewness(data, m, sd); !almostEqual(s, 0, 1e-9) {
		t.Errorf("skewness of symmetric data = %f, want 0", s)
	}
}

func TestKurtosis_Guards(t *testing.T) {
	// too few points and zero spread both fall back to the normal reference of 3
	if k := Kurtosis([]float64{1, 2, 3}, 2, 1); k != 3.0 {
		t.Errorf("kurtosis of 3 points = %f, want 3", k)
	}
	if k := Kurtosis([]float64{5, 5, 5, 5}, 5, 0); k != 3.0 {
		t.Errorf("kurtosis of constant series = %f, want 3", k)
	}

	data := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	k := Kurtosis(data, Mean(data), SampleStdDev(data))
	if math.IsNaN(k) || math.IsInf(k, 0) {
		t.Errorf("kurtosis = %f, want finite", k)
	}
}
