// Package engine dispatches analysis operations over a table to the seven
// computation engines. The dispatcher holds no state and no cache; every call
// is a pure function of its inputs.
package engine

import (
	"context"
	"fmt"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/engine/anomaly"
	"datalens/engine/descriptive"
	"datalens/engine/hypothesis"
	"datalens/engine/ml"
	"datalens/engine/network"
	"datalens/engine/regression"
	"datalens/engine/timeseries"
)

// Operation selects which analysis to run
type Operation string

const (
	OpDescriptiveStats Operation = "descriptive_stats"
	OpCorrelation      Operation = "correlation_matrix"
	OpRegression       Operation = "regression"
	OpHypothesisTest   Operation = "hypothesis_test"
	OpTimeSeries       Operation = "time_series"
	OpAnomalyDetection Operation = "anomaly_detection"
	OpNetworkAnalysis  Operation = "network_analysis"
	OpMLAnalysis       Operation = "ml_analysis"
	OpFull             Operation = "full"
)

// ParseOperation validates an operation selector string
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	switch op {
	case OpDescriptiveStats, OpCorrelation, OpRegression, OpHypothesisTest,
		OpTimeSeries, OpAnomalyDetection, OpNetworkAnalysis, OpMLAnalysis, OpFull:
		return op, nil
	default:
		return "", core.NewValidationError("operation", fmt.Sprintf("unknown operation %q", s))
	}
}

// Params carries operation-specific parameters. Unused fields are ignored by
// operations that do not read them.
type Params struct {
	// Columns restricts the operation to named columns; empty means all
	// numeric columns (or, for regression/hypothesis tests, is required).
	Columns []string `json:"columns,omitempty"`
	// Target names the dependent column for regression and ML analysis.
	Target string `json:"target,omitempty"`

	// Regression
	Model  analysis.ModelKind `json:"model,omitempty"`
	Degree int                `json:"degree,omitempty"`
	Alpha  float64            `json:"alpha,omitempty"` // regularization strength

	// Hypothesis testing
	TestType          analysis.TestType `json:"test_type,omitempty"`
	Paired            bool              `json:"paired,omitempty"`
	HypothesizedMean  float64           `json:"hypothesized_mean,omitempty"`
	PopulationMean    float64           `json:"population_mean,omitempty"`
	PopulationStdDev  float64           `json:"population_std_dev,omitempty"`
	Expected          []float64         `json:"expected,omitempty"`
	SignificanceLevel float64           `json:"significance_level,omitempty"`

	// Anomaly detection
	Method     analysis.AnomalyMethod `json:"method,omitempty"`
	Confidence float64                `json:"confidence,omitempty"`

	// Time series
	Horizon int `json:"horizon,omitempty"`
}

// Result is the union of every operation's output; only the fields for the
// requested operation(s) are populated.
type Result struct {
	Operation   Operation                      `json:"operation"`
	Summaries   []analysis.StatisticalSummary  `json:"summaries,omitempty"`
	Correlation *analysis.CorrelationMatrix    `json:"correlation,omitempty"`
	Regression  *analysis.RegressionResult     `json:"regression,omitempty"`
	Hypothesis  *analysis.HypothesisTestResult `json:"hypothesis,omitempty"`
	TimeSeries  []analysis.TimeSeriesResult    `json:"time_series,omitempty"`
	Anomalies   []analysis.AnomalySummary      `json:"anomalies,omitempty"`
	Network     *analysis.NetworkGraph         `json:"network,omitempty"`
	ML          []analysis.MLResult            `json:"ml,omitempty"`
}

// Engine wires the seven computation engines behind one dispatch surface
type Engine struct {
	stats      *descriptive.Engine
	regression *regression.Engine
	hypothesis *hypothesis.Engine
	timeseries *timeseries.Engine
	anomaly    *anomaly.Engine
	network    *network.Engine
	ml         *ml.Engine
}

// New creates a dispatcher over fresh engine instances
func New() *Engine {
	return &Engine{
		stats:      descriptive.New(),
		regression: regression.New(),
		hypothesis: hypothesis.New(),
		timeseries: timeseries.New(),
		anomaly:    anomaly.New(),
		network:    network.New(),
		ml:         ml.New(),
	}
}

// Stats exposes the descriptive engine for callers that share its outputs
func (e *Engine) Stats() *descriptive.Engine { return e.stats }

// Network exposes the network engine for matrix-reusing callers
func (e *Engine) Network() *network.Engine { return e.network }

// ML exposes the ML engine for matrix-reusing callers
func (e *Engine) ML() *ml.Engine { return e.ml }

// Run executes one operation. OpFull is handled by the service layer, which
// fans the single operations out in parallel.
func (e *Engine) Run(ctx context.Context, t *table.Table, op Operation, p Params) (*Result, error) {
	result := &Result{Operation: op}

	switch op {
	case OpDescriptiveStats:
		cols, err := selectNumeric(t, p.Columns)
		if err != nil {
			return nil, err
		}
		for _, col := range cols {
			summary, err := e.stats.Describe(col)
			if err != nil {
				return nil, err
			}
			result.Summaries = append(result.Summaries, *summary)
		}

	case OpCorrelation:
		matrix, err := e.stats.CorrelationMatrix(t)
		if err != nil {
			return nil, err
		}
		result.Correlation = matrix

	case OpRegression:
		predictors, target, err := regressionInputs(t, p)
		if err != nil {
			return nil, err
		}
		model := p.Model
		if model == "" {
			model = analysis.ModelLinear
		}
		fit, err := e.regression.Fit(predictors, target, regression.Options{
			Model:  model,
			Degree: p.Degree,
			Alpha:  p.Alpha,
		})
		if err != nil {
			return nil, err
		}
		result.Regression = fit

	case OpHypothesisTest:
		res, err := e.runHypothesisTest(t, p)
		if err != nil {
			return nil, err
		}
		result.Hypothesis = res

	case OpTimeSeries:
		cols, err := selectNumeric(t, p.Columns)
		if err != nil {
			return nil, err
		}
		for _, col := range cols {
			ts, err := e.timeseries.Analyze(col, p.Horizon)
			if err != nil {
				return nil, err
			}
			result.TimeSeries = append(result.TimeSeries, *ts)
		}

	case OpAnomalyDetection:
		cols, err := selectNumeric(t, p.Columns)
		if err != nil {
			return nil, err
		}
		method := p.Method
		if method == "" {
			method = analysis.MethodZScore
		}
		for _, col := range cols {
			summary, err := e.anomaly.Detect(col, method, p.Confidence)
			if err != nil {
				return nil, err
			}
			result.Anomalies = append(result.Anomalies, *summary)
		}

	case OpNetworkAnalysis:
		graph, err := e.network.Build(t)
		if err != nil {
			return nil, err
		}
		result.Network = graph

	case OpMLAnalysis:
		if p.Target != "" {
			res, err := e.ml.Analyze(t, p.Target)
			if err != nil {
				return nil, err
			}
			result.ML = []analysis.MLResult{*res}
		} else {
			all, err := e.ml.AnalyzeAll(t)
			if err != nil {
				return nil, err
			}
			result.ML = all
		}

	default:
		return nil, core.NewValidationError("operation", fmt.Sprintf("operation %q is not runnable here", op))
	}

	return result, nil
}

func (e *Engine) runHypothesisTest(t *table.Table, p Params) (*analysis.HypothesisTestResult, error) {
	alpha := p.SignificanceLevel
	switch p.TestType {
	case analysis.TestTTest:
		switch len(p.Columns) {
		case 1:
			sample, err := numericColumn(t, p.Columns[0])
			if err != nil {
				return nil, err
			}
			return e.hypothesis.OneSampleTTest(sample, p.HypothesizedMean, alpha)
		case 2:
			a, err := numericColumn(t, p.Columns[0])
			if err != nil {
				return nil, err
			}
			b, err := numericColumn(t, p.Columns[1])
			if err != nil {
				return nil, err
			}
			return e.hypothesis.TwoSampleTTest(a, b, p.Paired, alpha)
		default:
			return nil, core.NewValidationError("columns", "t-test takes one or two columns")
		}

	case analysis.TestZTest:
		if len(p.Columns) != 1 {
			return nil, core.NewValidationError("columns", "z-test takes exactly one column")
		}
		sample, err := numericColumn(t, p.Columns[0])
		if err != nil {
			return nil, err
		}
		return e.hypothesis.ZTest(sample, p.PopulationMean, p.PopulationStdDev, alpha)

	case analysis.TestANOVA:
		if len(p.Columns) < 2 {
			return nil, core.NewValidationError("columns", "ANOVA takes two or more columns")
		}
		groups := make([][]float64, len(p.Columns))
		for i, name := range p.Columns {
			g, err := numericColumn(t, name)
			if err != nil {
				return nil, err
			}
			groups[i] = g
		}
		return e.hypothesis.ANOVA(groups, alpha)

	case analysis.TestChiSquare:
		if len(p.Columns) < 1 {
			return nil, core.NewValidationError("columns", "chi-square takes an observed column")
		}
		observed, err := numericColumn(t, p.Columns[0])
		if err != nil {
			return nil, err
		}
		expected := p.Expected
		if expected == nil && len(p.Columns) == 2 {
			expected, err = numericColumn(t, p.Columns[1])
			if err != nil {
				return nil, err
			}
		}
		if expected == nil {
			return nil, core.NewValidationError("expected", "chi-square needs expected counts")
		}
		return e.hypothesis.ChiSquare(observed, expected, alpha)

	default:
		return nil, core.NewValidationError("test_type", fmt.Sprintf("unknown test type %q", p.TestType))
	}
}

// selectNumeric resolves the requested column names, or every numeric column
// when the list is empty.
func selectNumeric(t *table.Table, names []string) ([]table.Column, error) {
	if len(names) == 0 {
		numeric := t.NumericColumns()
		if len(numeric) == 0 {
			return nil, core.NewValidationError("table", "no numeric columns")
		}
		return numeric, nil
	}
	out := make([]table.Column, 0, len(names))
	for _, name := range names {
		col, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, nil
}

func numericColumn(t *table.Table, name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	return col.Numeric()
}

func regressionInputs(t *table.Table, p Params) ([]table.Column, table.Column, error) {
	if p.Target == "" {
		return nil, table.Column{}, core.NewValidationError("target", "regression requires a target column")
	}
	target, err := t.Column(p.Target)
	if err != nil {
		return nil, table.Column{}, err
	}
	if len(p.Columns) == 0 {
		return nil, table.Column{}, core.NewValidationError("columns", "regression requires predictor columns")
	}
	predictors := make([]table.Column, 0, len(p.Columns))
	for _, name := range p.Columns {
		col, err := t.Column(name)
		if err != nil {
			return nil, table.Column{}, err
		}
		predictors = append(predictors, col)
	}
	return predictors, target, nil
}
