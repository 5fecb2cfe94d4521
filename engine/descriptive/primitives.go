package descriptive

import (
	"math"
)

// Shared sequence primitives. Trend, anomaly, network and ML analysis all
// consume these instead of carrying private copies.

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

// SampleVariance returns the n-1 variance, 0 below two samples
func SampleVariance(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	mean := Mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return sumSq / float64(len(data)-1)
}

// SampleStdDev returns the sample standard deviation
func SampleStdDev(data []float64) float64 {
	return math.Sqrt(SampleVariance(data))
}

// PopulationStdDev returns the n-denominator standard deviation. Anomaly
// detection scores points against it rather than the sample estimator.
func PopulationStdDev(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	mean := Mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)))
}

// Skewness returns the adjusted Fisher-Pearson sample skewness
func Skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}
	n := float64(len(data))
	sumCubed := 0.0
	for _, v := range data {
		d := (v - mean) / stdDev
		sumCubed += d * d * d
	}
	return (sumCubed / n) * math.Sqrt(n*(n-1)) / (n - 2)
}

// Kurtosis returns the bias-corrected sample kurtosis (total, not excess)
func Kurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 3.0
	}
	n := float64(len(data))
	sumFourth := 0.0
	for _, v := range data {
		d := (v - mean) / stdDev
		sumFourth += d * d * d * d
	}
	kurtosis := sumFourth / n
	correction := (n - 1) / ((n - 2) * (n - 3))
	return kurtosis*correction + 6/(n+1) + 3
}

// MovingAverage returns the trailing mean over a window. The first window-1
// positions average whatever prefix is available.
func MovingAverage(data []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(data))
	sum := 0.0
	for i, v := range data {
		sum += v
		if i >= window {
			sum -= data[i-window]
			out[i] = sum / float64(window)
		} else {
			out[i] = sum / float64(i+1)
		}
	}
	return out
}

// Autocorrelation returns the lag-k autocorrelation of the series, 0 when the
// series has no variance or the lag leaves fewer than two pairs.
func Autocorrelation(data []float64, lag int) float64 {
	n := len(data)
	if lag <= 0 || n-lag < 2 {
		return 0
	}
	mean := Mean(data)
	var num, den float64
	for i := 0; i < n; i++ {
		d := data[i] - mean
		den += d * d
	}
	if den == 0 {
		return 0
	}
	for i := 0; i < n-lag; i++ {
		num += (data[i] - mean) * (data[i+lag] - mean)
	}
	return num / den
}

// DetectSeasonalPeriod scans lags 2..min(20, n/2) and reports the FIRST lag
// whose autocorrelation exceeds 0.7. First-match is the documented tie-break:
// a shorter period wins over a stronger longer one.
func DetectSeasonalPeriod(data []float64) (period int, strength float64, detected bool) {
	maxLag := len(data) / 2
	if maxLag > 20 {
		maxLag = 20
	}
	for lag := 2; lag <= maxLag; lag++ {
		ac := Autocorrelation(data, lag)
		if ac > 0.7 {
			return lag, ac, true
		}
	}
	return 0, 0, false
}
