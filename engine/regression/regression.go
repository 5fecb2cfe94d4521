// Package regression fits linear, polynomial, ridge and lasso models on
// table columns and evaluates them with shared metrics and heuristic
// residual diagnostics.
package regression

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/engine/descriptive"
)

// Options selects the model and its hyperparameters
type Options struct {
	Model analysis.ModelKind
	// Degree is the polynomial degree, required >= 2 for ModelPolynomial.
	Degree int
	// Alpha is the regularization strength, required > 0 for ridge and lasso.
	Alpha float64
}

// Engine fits regression models. Stateless.
type Engine struct{}

// New creates a regression engine
func New() *Engine {
	return &Engine{}
}

// Fit fits the requested model of y on the predictor columns. Linear and
// polynomial models take exactly one predictor; ridge and lasso take one or
// more. Sample count must be at least parameter count + 2.
func (e *Engine) Fit(predictors []table.Column, target table.Column, opts Options) (*analysis.RegressionResult, error) {
	if len(predictors) == 0 {
		return nil, core.NewValidationError("predictors", "at least one predictor column required")
	}
	cols := append(append([]table.Column{}, predictors...), target)
	if err := table.EqualLength(cols...); err != nil {
		return nil, err
	}

	y, err := target.Numeric()
	if err != nil {
		return nil, err
	}
	xs := make([][]float64, len(predictors))
	names := make([]string, len(predictors))
	for i, col := range predictors {
		v, err := col.Numeric()
		if err != nil {
			return nil, err
		}
		xs[i] = v
		names[i] = col.Name
	}

	switch opts.Model {
	case analysis.ModelLinear:
		if len(predictors) != 1 {
			return nil, core.NewValidationError("predictors", "linear model takes exactly one predictor")
		}
		return e.fitLinear(names[0], xs[0], y, target.Name)
	case analysis.ModelPolynomial:
		if len(predictors) != 1 {
			return nil, core.NewValidationError("predictors", "polynomial model takes exactly one predictor")
		}
		if opts.Degree < 2 {
			return nil, core.NewValidationError("degree", "polynomial degree must be >= 2")
		}
		return e.fitPolynomial(names[0], xs[0], y, target.Name, opts.Degree)
	case analysis.ModelRidge:
		if opts.Alpha <= 0 {
			return nil, core.NewValidationError("alpha", "ridge alpha must be > 0")
		}
		return e.fitRegularized(analysis.ModelRidge, names, xs, y, target.Name, opts.Alpha)
	case analysis.ModelLasso:
		if opts.Alpha <= 0 {
			return nil, core.NewValidationError("alpha", "lasso alpha must be > 0")
		}
		return e.fitRegularized(analysis.ModelLasso, names, xs, y, target.Name, opts.Alpha)
	default:
		return nil, core.NewValidationError("model", fmt.Sprintf("unknown model kind %q", opts.Model))
	}
}

func checkSampleSize(n, paramCount int) error {
	if n < paramCount+2 {
		return fmt.Errorf("%w: %d samples for %d parameters (need at least %d)",
			core.ErrInsufficientData, n, paramCount, paramCount+2)
	}
	return nil
}

func (e *Engine) fitLinear(xName string, x, y []float64, yName string) (*analysis.RegressionResult, error) {
	n := len(x)
	if err := checkSampleSize(n, 2); err != nil {
		return nil, err
	}

	meanX := descriptive.Mean(x)
	meanY := descriptive.Mean(y)
	var sxx, sxy float64
	for i := range x {
		dx := x[i] - meanX
		sxx += dx * dx
		sxy += dx * (y[i] - meanY)
	}
	if sxx == 0 {
		return nil, core.NewColumnError(core.ErrZeroVariance, xName)
	}

	slope := sxy / sxx
	intercept := meanY - slope*meanX

	predictions := make([]float64, n)
	for i, v := range x {
		predictions[i] = slope*v + intercept
	}
	residuals := computeResiduals(y, predictions)

	metrics, err := buildMetrics(y, predictions, residuals, 2)
	if err != nil {
		return nil, err
	}

	importance := map[string]float64{xName: 1}
	result := &analysis.RegressionResult{
		Model:        analysis.ModelLinear,
		Equation:     fmt.Sprintf("%s = %.4f*%s + %.4f", yName, slope, xName, intercept),
		Coefficients: []float64{slope},
		Intercept:    intercept,
		Predictions:  predictions,
		Residuals:    residuals,
		Metrics:      metrics,
		Diagnostics:  buildDiagnostics(predictions, residuals, importance),
		Importance:   importance,
	}

	// t-distribution confidence intervals for both parameters at 95%
	df := float64(n - 2)
	ssRes := 0.0
	for _, r := range residuals {
		ssRes += r * r
	}
	s := math.Sqrt(ssRes / df)
	seSlope := s / math.Sqrt(sxx)
	seIntercept := s * math.Sqrt(1/float64(n)+meanX*meanX/sxx)
	tCrit := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(0.975)

	result.SlopeCI = &analysis.ConfidenceInterval{
		Lower: slope - tCrit*seSlope,
		Upper: slope + tCrit*seSlope,
		Level: 0.95,
	}
	result.InterceptCI = &analysis.ConfidenceInterval{
		Lower: intercept - tCrit*seIntercept,
		Upper: intercept + tCrit*seIntercept,
		Level: 0.95,
	}
	return result, nil
}

func (e *Engine) fitPolynomial(xName string, x, y []float64, yName string, degree int) (*analysis.RegressionResult, error) {
	n := len(x)
	paramCount := degree + 1
	if err := checkSampleSize(n, paramCount); err != nil {
		return nil, err
	}

	// Design matrix [1, x, x^2, ..., x^degree], solved via normal equations
	features := polynomialDesign(x, degree)
	design := append([][]float64{ones(n)}, features...)
	xtx, xty := normalEquations(design, y)
	coeffs, err := gaussianSolve(xtx, xty)
	if err != nil {
		return nil, err
	}

	predictions := make([]float64, n)
	for i := range x {
		pred := coeffs[0]
		for d := 1; d <= degree; d++ {
			pred += coeffs[d] * features[d-1][i]
		}
		predictions[i] = pred
	}
	residuals := computeResiduals(y, predictions)

	metrics, err := buildMetrics(y, predictions, residuals, paramCount)
	if err != nil {
		return nil, err
	}

	featureNames := make([]string, degree)
	for d := 1; d <= degree; d++ {
		if d == 1 {
			featureNames[d-1] = xName
		} else {
			featureNames[d-1] = fmt.Sprintf("%s^%d", xName, d)
		}
	}
	importance := normalizeImportance(featureNames, coeffs[1:])

	return &analysis.RegressionResult{
		Model:        analysis.ModelPolynomial,
		Equation:     polynomialEquation(yName, xName, coeffs),
		Coefficients: coeffs[1:],
		Intercept:    coeffs[0],
		Predictions:  predictions,
		Residuals:    residuals,
		Metrics:      metrics,
		Diagnostics:  buildDiagnostics(predictions, residuals, importance),
		Importance:   importance,
	}, nil
}

func (e *Engine) fitRegularized(model analysis.ModelKind, names []string, xs [][]float64, y []float64, yName string, alpha float64) (*analysis.RegressionResult, error) {
	n := len(y)
	p := len(xs)
	if err := checkSampleSize(n, p+1); err != nil {
		return nil, err
	}

	std, err := standardize(xs)
	if err != nil {
		return nil, err
	}

	meanY := descriptive.Mean(y)
	centered := make([]float64, n)
	for i, v := range y {
		centered[i] = v - meanY
	}

	var beta []float64
	switch model {
	case analysis.ModelRidge:
		// (X'X + alpha*I) beta = X'y on standardized features
		xtx, xty := normalEquations(std.features, centered)
		for j := 0; j < p; j++ {
			xtx[j][j] += alpha
		}
		beta, err = gaussianSolve(xtx, xty)
		if err != nil {
			return nil, err
		}
	case analysis.ModelLasso:
		beta, err = lassoCoordinateDescent(std.features, centered, alpha)
		if err != nil {
			return nil, err
		}
	}

	// Map standardized coefficients back to original units
	coeffs := make([]float64, p)
	intercept := meanY
	for j := 0; j < p; j++ {
		coeffs[j] = beta[j] / std.stdDevs[j]
		intercept -= coeffs[j] * std.means[j]
	}

	predictions := make([]float64, n)
	for i := 0; i < n; i++ {
		pred := intercept
		for j := 0; j < p; j++ {
			pred += coeffs[j] * xs[j][i]
		}
		predictions[i] = pred
	}
	residuals := computeResiduals(y, predictions)

	metrics, err := buildMetrics(y, predictions, residuals, p+1)
	if err != nil {
		return nil, err
	}
	importance := normalizeImportance(names, coeffs)

	return &analysis.RegressionResult{
		Model:        model,
		Equation:     multiEquation(yName, names, coeffs, intercept),
		Coefficients: coeffs,
		Intercept:    intercept,
		Predictions:  predictions,
		Residuals:    residuals,
		Metrics:      metrics,
		Diagnostics:  buildDiagnostics(predictions, residuals, importance),
		Importance:   importance,
	}, nil
}

// buildMetrics computes goodness-of-fit measures shared by all model kinds.
// paramCount includes the intercept.
func buildMetrics(y, predictions, residuals []float64, paramCount int) (analysis.RegressionMetrics, error) {
	n := len(y)
	meanY := descriptive.Mean(y)

	var ssRes, ssTot, sumAbs float64
	for i := range y {
		ssRes += residuals[i] * residuals[i]
		d := y[i] - meanY
		ssTot += d * d
		sumAbs += math.Abs(residuals[i])
	}
	if ssTot == 0 {
		return analysis.RegressionMetrics{}, fmt.Errorf("%w: target has zero variance", core.ErrZeroVariance)
	}

	r2 := 1 - ssRes/ssTot
	adjusted := r2
	if n-paramCount-1 > 0 {
		adjusted = 1 - (1-r2)*float64(n-1)/float64(n-paramCount-1)
	}

	mse := ssRes / float64(n)
	// Floor keeps AIC/BIC finite on an exact fit; the ranking is unaffected.
	logMSE := math.Log(math.Max(mse, 1e-15))
	k := float64(paramCount)

	return analysis.RegressionMetrics{
		R2:         r2,
		AdjustedR2: adjusted,
		MSE:        mse,
		RMSE:       math.Sqrt(mse),
		MAE:        sumAbs / float64(n),
		AIC:        float64(n)*logMSE + 2*k,
		BIC:        float64(n)*logMSE + k*math.Log(float64(n)),
	}, nil
}

// normalizeImportance maps |coefficient| to a 0-1 share per feature
func normalizeImportance(names []string, coeffs []float64) map[string]float64 {
	total := 0.0
	for _, c := range coeffs {
		total += math.Abs(c)
	}
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if total == 0 {
			out[name] = 0
			continue
		}
		out[name] = math.Abs(coeffs[i]) / total
	}
	return out
}

func polynomialEquation(yName, xName string, coeffs []float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = %.4f", yName, coeffs[0])
	for d := 1; d < len(coeffs); d++ {
		if d == 1 {
			fmt.Fprintf(&b, " + %.4f*%s", coeffs[d], xName)
		} else {
			fmt.Fprintf(&b, " + %.4f*%s^%d", coeffs[d], xName, d)
		}
	}
	return b.String()
}

func multiEquation(yName string, names []string, coeffs []float64, intercept float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s = %.4f", yName, intercept)
	for i, name := range names {
		fmt.Fprintf(&b, " + %.4f*%s", coeffs[i], name)
	}
	return b.String()
}

func computeResiduals(y, predictions []float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] - predictions[i]
	}
	return out
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}
