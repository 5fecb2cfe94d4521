package ml

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
)

func buildTable(t *testing.T, cols ...table.Column) *table.Table {
	t.Helper()
	tbl, err := table.NewTable(cols)
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	return tbl
}

func TestAnalyze_SelectsCorrelatedFeatures(t *testing.T) {
	target := []float64{10, 20, 30, 40, 50, 60, 70, 80}
	strong := []float64{1, 2, 3, 4, 5, 6, 7, 8}           // r = 1 with target
	weak := []float64{5, 3, 6, 2, 7, 4, 5, 6}             // near-zero correlation
	tbl := buildTable(t,
		table.NewNumberColumn("revenue", target),
		table.NewNumberColumn("ad_spend", strong),
		table.NewNumberColumn("noise", weak),
	)

	result, err := New().Analyze(tbl, "revenue")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Field != "revenue" {
		t.Errorf("field = %q, want revenue", result.Field)
	}
	found := false
	for _, f := range result.Features {
		if f == "ad_spend" {
			found = true
		}
		if f == "revenue" {
			t.Error("target must not appear among its own features")
		}
	}
	if !found {
		t.Errorf("ad_spend should be selected, features = %v", result.Features)
	}
	if len(result.Predictions) != len(target) {
		t.Errorf("predictions length = %d, want %d", len(result.Predictions), len(target))
	}
	if result.Confidence < 0 {
		t.Errorf("confidence = %f, want >= 0", result.Confidence)
	}
}

func TestAnalyze_CapsFeaturesAtThree(t *testing.T) {
	base := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cols := []table.Column{table.NewNumberColumn("target", base)}
	// five perfectly correlated candidates
	for _, name := range []string{"f1", "f2", "f3", "f4", "f5"} {
		scaled := make([]float64, len(base))
		for i, v := range base {
			scaled[i] = v * 2
		}
		cols = append(cols, table.NewNumberColumn(name, scaled))
	}

	result, err := New().Analyze(buildTable(t, cols...), "target")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Features) != 3 {
		t.Errorf("features = %v, want exactly 3", result.Features)
	}
	// equal |r| ties resolve by name
	if !reflect.DeepEqual(result.Features, []string{"f1", "f2", "f3"}) {
		t.Errorf("features = %v, want [f1 f2 f3]", result.Features)
	}
}

func TestAnalyze_TooFewPoints(t *testing.T) {
	tbl := buildTable(t, table.NewNumberColumn("x", []float64{1, 2, 3}))
	if _, err := New().Analyze(tbl, "x"); !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestAnalyze_MissingTarget(t *testing.T) {
	tbl := buildTable(t, table.NewNumberColumn("x", []float64{1, 2, 3, 4}))
	if _, err := New().Analyze(tbl, "absent"); !errors.Is(err, core.ErrColumnNotFound) {
		t.Errorf("expected ErrColumnNotFound, got %v", err)
	}
}

func TestAnalyze_Deterministic(t *testing.T) {
	tbl := buildTable(t,
		table.NewNumberColumn("a", []float64{3, 1, 4, 1, 5, 9, 2, 6}),
		table.NewNumberColumn("b", []float64{2, 7, 1, 8, 2, 8, 1, 8}),
		table.NewNumberColumn("c", []float64{1, 2, 3, 4, 5, 6, 7, 8}),
	)

	engine := New()
	first, err := engine.AnalyzeAll(tbl)
	if err != nil {
		t.Fatalf("AnalyzeAll failed: %v", err)
	}
	second, err := engine.AnalyzeAll(tbl)
	if err != nil {
		t.Fatalf("AnalyzeAll failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("repeated analysis over identical input must be identical")
	}
}

func TestAnalyzeAll_CoversEveryNumericColumn(t *testing.T) {
	tbl := buildTable(t,
		table.NewNumberColumn("a", []float64{1, 2, 3, 4, 5}),
		table.NewNumberColumn("b", []float64{5, 4, 3, 2, 1}),
		table.NewTextColumn("label", []string{"p", "q", "r", "s", "t"}),
	)

	results, err := New().AnalyzeAll(tbl)
	if err != nil {
		t.Fatalf("AnalyzeAll failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2 (text column skipped)", len(results))
	}
	if results[0].Field != "a" || results[1].Field != "b" {
		t.Errorf("fields = %s, %s; want a, b in declaration order", results[0].Field, results[1].Field)
	}
}

func TestAnalyzeWithMatrix_MatchesDirectAnalysis(t *testing.T) {
	tbl := buildTable(t,
		table.NewNumberColumn("x", []float64{1, 2, 3, 4, 5, 6}),
		table.NewNumberColumn("y", []float64{2, 4, 5, 8, 10, 12}),
	)

	engine := New()
	direct, err := engine.Analyze(tbl, "y")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	// hand-built matrix carrying the same correlation
	r := direct2Correlation(t, tbl)
	matrix := &analysis.CorrelationMatrix{
		Columns: []string{"x", "y"},
		Pairs: []analysis.CorrelationPair{
			{ColumnX: "x", ColumnY: "y", R: r, SampleSize: 6},
		},
	}
	viaMatrix, err := engine.AnalyzeWithMatrix(tbl, "y", matrix)
	if err != nil {
		t.Fatalf("AnalyzeWithMatrix failed: %v", err)
	}

	if !reflect.DeepEqual(direct, viaMatrix) {
		t.Error("matrix-driven analysis should match direct analysis")
	}
}

func direct2Correlation(t *testing.T, tbl *table.Table) float64 {
	t.Helper()
	xCol, err := tbl.Column("x")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	yCol, err := tbl.Column("y")
	if err != nil {
		t.Fatalf("Column failed: %v", err)
	}
	x, _ := xCol.Numeric()
	y, _ := yCol.Numeric()
	var mx, my float64
	for i := range x {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(len(x))
	my /= float64(len(y))
	var sxy, sxx, syy float64
	for i := range x {
		sxy += (x[i] - mx) * (y[i] - my)
		sxx += (x[i] - mx) * (x[i] - mx)
		syy += (y[i] - my) * (y[i] - my)
	}
	return sxy / math.Sqrt(sxx*syy)
}

func TestDetectPatterns_TrendAndOutlier(t *testing.T) {
	// strongly rising series with one spike
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}
	tbl := buildTable(t, table.NewNumberColumn("series", values))

	result, err := New().Analyze(tbl, "series")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	types := map[analysis.PatternType]bool{}
	for _, p := range result.Patterns {
		types[p.Type] = true
		if p.Confidence < 0 || p.Confidence > 1 {
			t.Errorf("pattern %s confidence = %f, want within [0,1]", p.Type, p.Confidence)
		}
		if p.Description == "" {
			t.Errorf("pattern %s has no description", p.Type)
		}
	}
	if !types[analysis.PatternTrend] {
		t.Errorf("rising series should report a trend pattern, got %+v", result.Patterns)
	}
	if !types[analysis.PatternOutlier] {
		t.Errorf("spiked series should report an outlier pattern, got %+v", result.Patterns)
	}
}

func TestDirectionalMetrics_PerfectAgreement(t *testing.T) {
	actual := []float64{1, 2, 1, 3, 2, 4}
	m := directionalMetrics(actual, actual)

	if m.Accuracy != 1 {
		t.Errorf("accuracy = %f, want 1 for identical series", m.Accuracy)
	}
	if m.F1Score != 1 {
		t.Errorf("F1 = %f, want 1", m.F1Score)
	}
}

func TestKmeans1D_Deterministic(t *testing.T) {
	values := []float64{1, 1.1, 0.9, 10, 10.2, 9.8, 20, 19.9, 20.1}

	centers1, sizes1, _ := kmeans1D(values, 3)
	centers2, sizes2, _ := kmeans1D(values, 3)

	if !reflect.DeepEqual(centers1, centers2) || !reflect.DeepEqual(sizes1, sizes2) {
		t.Error("k-means must be deterministic for identical input")
	}
	if len(centers1) != 3 {
		t.Fatalf("centers = %d, want 3", len(centers1))
	}
	total := 0
	for _, s := range sizes1 {
		total += s
	}
	if total != len(values) {
		t.Errorf("cluster sizes sum to %d, want %d", total, len(values))
	}

	// three well-separated groups land near their group means
	want := []float64{1, 10, 20}
	for i, c := range centers1 {
		if math.Abs(c-want[i]) > 0.5 {
			t.Errorf("center %d = %f, want near %f", i, c, want[i])
		}
	}
}
