package analysis

// Result records for every engine. All records are transient: created inside
// one analysis call, never mutated after return, no identity beyond the call.

// ============================================================================
// KIND ENUMS (closed dispatch, no string soup at call sites)
// ============================================================================

// ModelKind defines the regression model fitted
type ModelKind string

const (
	ModelLinear     ModelKind = "linear"
	ModelPolynomial ModelKind = "polynomial"
	ModelRidge      ModelKind = "ridge"
	ModelLasso      ModelKind = "lasso"
)

// TestType defines the hypothesis test performed
type TestType string

const (
	TestTTest     TestType = "ttest"
	TestZTest     TestType = "ztest"
	TestANOVA     TestType = "anova"
	TestChiSquare TestType = "chisquare"
)

// AnomalyMethod defines the outlier detection method
type AnomalyMethod string

const (
	MethodZScore        AnomalyMethod = "zscore"
	MethodIQR           AnomalyMethod = "iqr"
	MethodMovingAverage AnomalyMethod = "moving_average"
)

// PatternType classifies detected data patterns
type PatternType string

const (
	PatternTrend       PatternType = "trend"
	PatternSeasonality PatternType = "seasonality"
	PatternOutlier     PatternType = "outlier"
	PatternCluster     PatternType = "cluster"
)

// Strength classifies correlation magnitude
type Strength string

const (
	StrengthVeryStrong Strength = "very_strong" // |r| > 0.9
	StrengthStrong     Strength = "strong"      // |r| > 0.8
	StrengthModerate   Strength = "moderate"    // |r| > 0.7
	StrengthWeak       Strength = "weak"
)

// ClassifyStrength maps an absolute correlation to its tier
func ClassifyStrength(absR float64) Strength {
	switch {
	case absR > 0.9:
		return StrengthVeryStrong
	case absR > 0.8:
		return StrengthStrong
	case absR > 0.7:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// ============================================================================
// DESCRIPTIVE STATISTICS
// ============================================================================

// StatisticalSummary holds per-column descriptive statistics
type StatisticalSummary struct {
	Column   string  `json:"column"`
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"std_dev"`
	Variance float64 `json:"variance"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

// CorrelationPair holds one pairwise Pearson correlation.
// PValue is a two-sided normal approximation on t = r*sqrt((n-2)/(1-r^2)),
// not an exact t-distribution p-value.
type CorrelationPair struct {
	ColumnX    string   `json:"column_x"`
	ColumnY    string   `json:"column_y"`
	R          float64  `json:"r"`
	PValue     float64  `json:"p_value"`
	Strength   Strength `json:"strength"`
	SampleSize int      `json:"sample_size"`
}

// CorrelationMatrix holds every pairwise correlation plus the strong subset
type CorrelationMatrix struct {
	Columns []string          `json:"columns"`
	Pairs   []CorrelationPair `json:"pairs"`
	// Strong lists pairs with |r| > 0.7, sorted by descending |r|.
	Strong []CorrelationPair `json:"strong"`
}

// Pair looks up the correlation for an unordered column pair
func (m *CorrelationMatrix) Pair(x, y string) (CorrelationPair, bool) {
	for _, p := range m.Pairs {
		if (p.ColumnX == x && p.ColumnY == y) || (p.ColumnX == y && p.ColumnY == x) {
			return p, true
		}
	}
	return CorrelationPair{}, false
}

// ============================================================================
// REGRESSION
// ============================================================================

// RegressionMetrics holds goodness-of-fit measures
type RegressionMetrics struct {
	R2         float64 `json:"r2"`
	AdjustedR2 float64 `json:"adjusted_r2"`
	MSE        float64 `json:"mse"`
	RMSE       float64 `json:"rmse"`
	MAE        float64 `json:"mae"`
	AIC        float64 `json:"aic"`
	BIC        float64 `json:"bic"`
}

// RegressionDiagnostics holds heuristic residual checks. These are scored
// approximations, not exact statistical tests: ResidualNormality is a
// moment-based score, Heteroscedasticity regresses squared residuals on
// predictions, Multicollinearity is the variance of feature-importance scores.
type RegressionDiagnostics struct {
	ResidualNormality  float64 `json:"residual_normality"`
	Heteroscedasticity float64 `json:"heteroscedasticity"`
	Multicollinearity  float64 `json:"multicollinearity"`
	OutlierIndices     []int   `json:"outlier_indices"`
}

// ConfidenceInterval is a two-sided interval at a fixed confidence level
type ConfidenceInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"`
}

// RegressionResult holds a fitted model and its evaluation
type RegressionResult struct {
	Model        ModelKind             `json:"model"`
	Equation     string                `json:"equation"`
	Coefficients []float64             `json:"coefficients"`
	Intercept    float64               `json:"intercept"`
	Predictions  []float64             `json:"predictions"`
	Residuals    []float64             `json:"residuals"`
	Metrics      RegressionMetrics     `json:"metrics"`
	Diagnostics  RegressionDiagnostics `json:"diagnostics"`
	// Importance maps feature name to normalized |coefficient|.
	Importance map[string]float64 `json:"importance,omitempty"`
	// SlopeCI and InterceptCI are present for the linear model only.
	SlopeCI     *ConfidenceInterval `json:"slope_ci,omitempty"`
	InterceptCI *ConfidenceInterval `json:"intercept_ci,omitempty"`
}

// ============================================================================
// HYPOTHESIS TESTING
// ============================================================================

// HypothesisTestResult holds one test outcome with its decision at alpha
type HypothesisTestResult struct {
	TestType              TestType            `json:"test_type"`
	Statistic             float64             `json:"statistic"`
	PValue                float64             `json:"p_value"`
	CriticalValue         float64             `json:"critical_value"`
	DegreesOfFreedom      *float64            `json:"degrees_of_freedom,omitempty"`
	ConfidenceInterval    *ConfidenceInterval `json:"confidence_interval,omitempty"`
	Alpha                 float64             `json:"alpha"`
	IsSignificant         bool                `json:"is_significant"`
	NullHypothesis        string              `json:"null_hypothesis"`
	AlternativeHypothesis string              `json:"alternative_hypothesis"`
	Conclusion            string              `json:"conclusion"`
}

// ============================================================================
// TIME SERIES
// ============================================================================

// TrendInfo holds the OLS trend of value versus integer index
type TrendInfo struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
	Direction string  `json:"direction"` // "increasing", "decreasing", "flat"
	Strength  string  `json:"strength"`  // "strong", "moderate", "weak"
}

// SeasonalityInfo reports the first autocorrelation lag above threshold.
// Detection is first-match over lags 2..min(20, n/2), not best-match.
type SeasonalityInfo struct {
	Detected bool    `json:"detected"`
	Period   int     `json:"period,omitempty"`
	Strength float64 `json:"strength,omitempty"`
}

// Decomposition splits the series into trend line and detrended residual
type Decomposition struct {
	Trend     []float64 `json:"trend"`
	Detrended []float64 `json:"detrended"`
	Residual  []float64 `json:"residual"`
}

// ForecastInfo holds per-method and ensemble forecasts with a 95% band
type ForecastInfo struct {
	Horizon             int                  `json:"horizon"`
	Linear              []float64            `json:"linear"`
	Polynomial          []float64            `json:"polynomial"`
	ExponentialSmooth   []float64            `json:"exponential_smoothing"`
	Ensemble            []float64            `json:"ensemble"`
	ConfidenceIntervals []ConfidenceInterval `json:"confidence_intervals"`
}

// VolatilityInfo holds dispersion of period-over-period returns
type VolatilityInfo struct {
	StdDev      float64 `json:"std_dev"`
	Annualized  float64 `json:"annualized"` // std dev scaled by sqrt(252)
	MaxDrawdown float64 `json:"max_drawdown"`
}

// StationarityInfo is a split-half heuristic, not a formal unit-root test
type StationarityInfo struct {
	IsStationary bool    `json:"is_stationary"`
	MeanDiff     float64 `json:"mean_diff"`
	VarianceDiff float64 `json:"variance_diff"`
}

// TimeSeriesResult bundles every time-series analysis for one column
type TimeSeriesResult struct {
	Column        string           `json:"column"`
	Trend         TrendInfo        `json:"trend"`
	Seasonality   SeasonalityInfo  `json:"seasonality"`
	Decomposition Decomposition    `json:"decomposition"`
	Forecast      ForecastInfo     `json:"forecast"`
	Volatility    VolatilityInfo   `json:"volatility"`
	Stationarity  StationarityInfo `json:"stationarity"`
}

// ============================================================================
// ANOMALY DETECTION
// ============================================================================

// Anomaly flags one data point with method-specific diagnostics
type Anomaly struct {
	Index  int           `json:"index"`
	Value  float64       `json:"value"`
	Method AnomalyMethod `json:"method"`
	// ZScore is set for the zscore and moving_average methods.
	ZScore float64 `json:"z_score,omitempty"`
	// LowerBound/UpperBound are set for the iqr method.
	LowerBound float64 `json:"lower_bound,omitempty"`
	UpperBound float64 `json:"upper_bound,omitempty"`
	// WindowMean is set for the moving_average method.
	WindowMean float64 `json:"window_mean,omitempty"`
}

// AnomalySummary aggregates one detection run
type AnomalySummary struct {
	Column     string        `json:"column"`
	Total      int           `json:"total"`
	Count      int           `json:"count"`
	Percentage float64       `json:"percentage"`
	Method     AnomalyMethod `json:"method"`
	Threshold  float64       `json:"threshold"`
	Anomalies  []Anomaly     `json:"anomalies"`
}

// ============================================================================
// NETWORK ANALYSIS
// ============================================================================

// NetworkNode is one numeric column in the correlation graph
type NetworkNode struct {
	ID          string  `json:"id"`
	Connections int     `json:"connections"`
	Centrality  float64 `json:"centrality"`
	Category    string  `json:"category"` // "hub", "connector", "peripheral"
}

// NetworkEdge is an undirected edge weighted by |correlation|
type NetworkEdge struct {
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Weight      float64  `json:"weight"`
	Correlation float64  `json:"correlation"`
	Type        Strength `json:"type"`
}

// NetworkMetrics summarizes graph shape
type NetworkMetrics struct {
	Density             float64      `json:"density"`
	AverageConnections  float64      `json:"average_connections"`
	StrongestConnection *NetworkEdge `json:"strongest_connection,omitempty"`
	CentralNodes        []string     `json:"central_nodes"`
	ClusterCount        int          `json:"cluster_count"`
}

// NetworkGraph is the full correlation graph over numeric columns
type NetworkGraph struct {
	Nodes   []NetworkNode  `json:"nodes"`
	Edges   []NetworkEdge  `json:"edges"`
	Metrics NetworkMetrics `json:"metrics"`
}

// ============================================================================
// ML ANALYSIS
// ============================================================================

// Pattern is one detected structure in a target column
type Pattern struct {
	Type        PatternType `json:"type"`
	Description string      `json:"description"`
	Confidence  float64     `json:"confidence"`
}

// MLMetrics holds directional-agreement scores. Accuracy/precision/recall/F1
// are computed from sign agreement of period-over-period direction between
// prediction and actual; they are not classification metrics against labeled
// ground truth and should be read as directional-accuracy heuristics.
type MLMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// MLResult holds the heuristic ensemble prediction for one target column
type MLResult struct {
	Field       string    `json:"field"`
	Predictions []float64 `json:"predictions"`
	Confidence  float64   `json:"confidence"`
	Features    []string  `json:"features"`
	Patterns    []Pattern `json:"patterns"`
	Metrics     MLMetrics `json:"metrics"`
}
