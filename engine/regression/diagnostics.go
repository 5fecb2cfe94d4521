package regression

import (
	"math"

	"datalens/domain/analysis"
	"datalens/engine/descriptive"
)

// Residual diagnostics. All three scores are heuristic approximations, not
// exact statistical tests: they rank models against each other and flag
// obviously broken fits, nothing more.

// residualNormality scores how normal the residuals look from their sample
// skewness and excess kurtosis. 1 is perfectly normal-shaped moments.
func residualNormality(residuals []float64) float64 {
	if len(residuals) < 4 {
		return 0
	}
	mean := descriptive.Mean(residuals)
	sd := descriptive.SampleStdDev(residuals)
	if sd == 0 {
		return 1
	}
	skew := math.Abs(descriptive.Skewness(residuals, mean, sd))
	excess := math.Abs(descriptive.Kurtosis(residuals, mean, sd) - 3)

	score := 1 - (skew/3 + excess/6)
	if score < 0 {
		return 0
	}
	return score
}

// heteroscedasticityScore regresses squared residuals on predictions and
// returns the R-squared of that fit. High values mean residual spread tracks
// the predicted level.
func heteroscedasticityScore(predictions, residuals []float64) float64 {
	if len(predictions) < 3 {
		return 0
	}
	squared := make([]float64, len(residuals))
	for i, r := range residuals {
		squared[i] = r * r
	}

	r, err := descriptive.Pearson(predictions, squared)
	if err != nil {
		// Constant predictions or constant squared residuals: no detectable
		// relationship between spread and level.
		return 0
	}
	return r * r
}

// multicollinearityScore is the variance of the normalized feature-importance
// scores. One dominant feature among several inflates it.
func multicollinearityScore(importance map[string]float64) float64 {
	if len(importance) < 2 {
		return 0
	}
	scores := make([]float64, 0, len(importance))
	for _, v := range importance {
		scores = append(scores, v)
	}
	return descriptive.SampleVariance(scores)
}

// residualOutliers flags indices whose standardized residual exceeds 2.5
func residualOutliers(residuals []float64) []int {
	sd := descriptive.SampleStdDev(residuals)
	if sd == 0 {
		return []int{}
	}
	mean := descriptive.Mean(residuals)
	out := []int{}
	for i, r := range residuals {
		if math.Abs(r-mean)/sd > 2.5 {
			out = append(out, i)
		}
	}
	return out
}

func buildDiagnostics(predictions, residuals []float64, importance map[string]float64) analysis.RegressionDiagnostics {
	return analysis.RegressionDiagnostics{
		ResidualNormality:  residualNormality(residuals),
		Heteroscedasticity: heteroscedasticityScore(predictions, residuals),
		Multicollinearity:  multicollinearityScore(importance),
		OutlierIndices:     residualOutliers(residuals),
	}
}
