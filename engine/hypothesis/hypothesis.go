// Package hypothesis runs the four supported hypothesis tests. It is a pure
// dispatcher: every call is independent and carries its own alpha.
package hypothesis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/engine/descriptive"
)

// DefaultAlpha is the significance level used when a caller passes alpha <= 0
const DefaultAlpha = 0.05

// Engine runs hypothesis tests. Stateless.
type Engine struct{}

// New creates a hypothesis testing engine
func New() *Engine {
	return &Engine{}
}

func normalizeAlpha(alpha float64) float64 {
	if alpha <= 0 || alpha >= 1 {
		return DefaultAlpha
	}
	return alpha
}

// OneSampleTTest tests whether the sample mean differs from mu0
func (e *Engine) OneSampleTTest(sample []float64, mu0, alpha float64) (*analysis.HypothesisTestResult, error) {
	alpha = normalizeAlpha(alpha)
	if len(sample) < 2 {
		return nil, fmt.Errorf("%w: one-sample t-test needs at least 2 values", core.ErrInsufficientData)
	}

	n := float64(len(sample))
	mean := descriptive.Mean(sample)
	sd := descriptive.SampleStdDev(sample)
	se := sd / math.Sqrt(n)
	df := n - 1

	stat, pValue, err := tStatistic(mean-mu0, se, df)
	if err != nil {
		return nil, err
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	critical := dist.Quantile(1 - alpha/2)
	ci := &analysis.ConfidenceInterval{
		Lower: mean - critical*se,
		Upper: mean + critical*se,
		Level: 1 - alpha,
	}

	return buildResult(analysis.TestTTest, stat, pValue, critical, &df, ci, alpha,
		fmt.Sprintf("The sample mean equals %.4g", mu0),
		fmt.Sprintf("The sample mean differs from %.4g", mu0)), nil
}

// TwoSampleTTest tests whether two sample means differ. Paired samples are
// reduced to a one-sample test on the differences; independent samples use
// the pooled-variance statistic with df = n1+n2-2.
func (e *Engine) TwoSampleTTest(a, b []float64, paired bool, alpha float64) (*analysis.HypothesisTestResult, error) {
	alpha = normalizeAlpha(alpha)
	if paired {
		if len(a) != len(b) {
			return nil, fmt.Errorf("%w: paired samples must have equal length", core.ErrLengthMismatch)
		}
		diffs := make([]float64, len(a))
		for i := range a {
			diffs[i] = a[i] - b[i]
		}
		res, err := e.OneSampleTTest(diffs, 0, alpha)
		if err != nil {
			return nil, err
		}
		res.NullHypothesis = "The mean paired difference is zero"
		res.AlternativeHypothesis = "The mean paired difference is not zero"
		res.Conclusion = conclusion(res.IsSignificant, res.PValue, alpha)
		return res, nil
	}

	if len(a) < 2 || len(b) < 2 {
		return nil, fmt.Errorf("%w: two-sample t-test needs at least 2 values per sample", core.ErrInsufficientData)
	}

	n1 := float64(len(a))
	n2 := float64(len(b))
	mean1 := descriptive.Mean(a)
	mean2 := descriptive.Mean(b)
	var1 := descriptive.SampleVariance(a)
	var2 := descriptive.SampleVariance(b)

	df := n1 + n2 - 2
	pooled := ((n1-1)*var1 + (n2-1)*var2) / df
	se := math.Sqrt(pooled * (1/n1 + 1/n2))

	stat, pValue, err := tStatistic(mean1-mean2, se, df)
	if err != nil {
		return nil, err
	}

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	critical := dist.Quantile(1 - alpha/2)
	diff := mean1 - mean2
	ci := &analysis.ConfidenceInterval{
		Lower: diff - critical*se,
		Upper: diff + critical*se,
		Level: 1 - alpha,
	}

	return buildResult(analysis.TestTTest, stat, pValue, critical, &df, ci, alpha,
		"The two population means are equal",
		"The two population means differ"), nil
}

// ZTest tests a sample mean against a known population mean and stddev
func (e *Engine) ZTest(sample []float64, popMean, popStdDev, alpha float64) (*analysis.HypothesisTestResult, error) {
	alpha = normalizeAlpha(alpha)
	if len(sample) < 1 {
		return nil, fmt.Errorf("%w: z-test needs at least 1 value", core.ErrInsufficientData)
	}
	if popStdDev <= 0 {
		return nil, core.NewValidationError("population_std_dev", "must be positive")
	}

	n := float64(len(sample))
	mean := descriptive.Mean(sample)
	se := popStdDev / math.Sqrt(n)
	stat := (mean - popMean) / se

	normal := distuv.Normal{Mu: 0, Sigma: 1}
	pValue := 2 * (1 - normal.CDF(math.Abs(stat)))
	critical := normal.Quantile(1 - alpha/2)
	ci := &analysis.ConfidenceInterval{
		Lower: mean - critical*se,
		Upper: mean + critical*se,
		Level: 1 - alpha,
	}

	return buildResult(analysis.TestZTest, stat, pValue, critical, nil, ci, alpha,
		fmt.Sprintf("The population mean equals %.4g", popMean),
		fmt.Sprintf("The population mean differs from %.4g", popMean)), nil
}

// ANOVA performs a one-way analysis of variance across two or more groups
func (e *Engine) ANOVA(groups [][]float64, alpha float64) (*analysis.HypothesisTestResult, error) {
	alpha = normalizeAlpha(alpha)
	if len(groups) < 2 {
		return nil, core.NewValidationError("groups", "ANOVA needs at least 2 groups")
	}

	total := 0
	grandSum := 0.0
	for i, g := range groups {
		if len(g) < 2 {
			return nil, fmt.Errorf("%w: ANOVA group %d needs at least 2 values", core.ErrInsufficientData, i)
		}
		total += len(g)
		for _, v := range g {
			grandSum += v
		}
	}
	grandMean := grandSum / float64(total)

	var ssBetween, ssWithin float64
	for _, g := range groups {
		groupMean := descriptive.Mean(g)
		d := groupMean - grandMean
		ssBetween += float64(len(g)) * d * d
		for _, v := range g {
			dv := v - groupMean
			ssWithin += dv * dv
		}
	}

	dfBetween := float64(len(groups) - 1)
	dfWithin := float64(total - len(groups))
	if ssWithin == 0 {
		if ssBetween == 0 {
			// All groups identical and constant: no evidence of difference.
			df := dfBetween
			critical := distuv.F{D1: dfBetween, D2: dfWithin}.Quantile(1 - alpha)
			return buildResult(analysis.TestANOVA, 0, 1, critical, &df, nil, alpha,
				"All group means are equal", "At least one group mean differs"), nil
		}
		return nil, fmt.Errorf("%w: within-group variance is zero", core.ErrZeroVariance)
	}

	fStat := (ssBetween / dfBetween) / (ssWithin / dfWithin)
	fDist := distuv.F{D1: dfBetween, D2: dfWithin}
	pValue := 1 - fDist.CDF(fStat)
	critical := fDist.Quantile(1 - alpha)

	return buildResult(analysis.TestANOVA, fStat, pValue, critical, &dfBetween, nil, alpha,
		"All group means are equal",
		"At least one group mean differs"), nil
}

// ChiSquare performs a goodness-of-fit test of observed against expected counts
func (e *Engine) ChiSquare(observed, expected []float64, alpha float64) (*analysis.HypothesisTestResult, error) {
	alpha = normalizeAlpha(alpha)
	if len(observed) != len(expected) {
		return nil, fmt.Errorf("%w: observed has %d categories, expected has %d",
			core.ErrLengthMismatch, len(observed), len(expected))
	}
	if len(observed) < 2 {
		return nil, fmt.Errorf("%w: chi-square needs at least 2 categories", core.ErrInsufficientData)
	}

	stat := 0.0
	for i := range observed {
		if expected[i] <= 0 {
			return nil, core.NewValidationError("expected", "counts must be positive")
		}
		d := observed[i] - expected[i]
		stat += d * d / expected[i]
	}

	df := float64(len(observed) - 1)
	chiDist := distuv.ChiSquared{K: df}
	pValue := 1 - chiDist.CDF(stat)
	critical := chiDist.Quantile(1 - alpha)

	return buildResult(analysis.TestChiSquare, stat, pValue, critical, &df, nil, alpha,
		"Observed frequencies match the expected distribution",
		"Observed frequencies differ from the expected distribution"), nil
}

// tStatistic computes a t statistic and its two-sided p-value. A zero
// standard error with a zero difference is the identical-samples case and
// yields t=0, p=1 rather than NaN.
func tStatistic(diff, se, df float64) (stat, pValue float64, err error) {
	if se == 0 {
		if diff == 0 {
			return 0, 1, nil
		}
		return 0, 0, core.ErrZeroVariance
	}
	stat = diff / se
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	pValue = 2 * (1 - dist.CDF(math.Abs(stat)))
	if pValue > 1 {
		pValue = 1
	}
	return stat, pValue, nil
}

func conclusion(significant bool, pValue, alpha float64) string {
	if significant {
		return fmt.Sprintf("Reject the null hypothesis (p=%.4g <= alpha=%.2g)", pValue, alpha)
	}
	return fmt.Sprintf("Fail to reject the null hypothesis (p=%.4g > alpha=%.2g)", pValue, alpha)
}

func buildResult(testType analysis.TestType, stat, pValue, critical float64, df *float64,
	ci *analysis.ConfidenceInterval, alpha float64, null, alternative string) *analysis.HypothesisTestResult {

	significant := pValue <= alpha
	return &analysis.HypothesisTestResult{
		TestType:              testType,
		Statistic:             stat,
		PValue:                pValue,
		CriticalValue:         critical,
		DegreesOfFreedom:      df,
		ConfidenceInterval:    ci,
		Alpha:                 alpha,
		IsSignificant:         significant,
		NullHypothesis:        null,
		AlternativeHypothesis: alternative,
		Conclusion:            conclusion(significant, pValue, alpha),
	}
}
