package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"datalens/app"
	"datalens/domain/table"
	"datalens/engine"
	"datalens/internal"
)

func fullResponse(t *testing.T) *app.Response {
	t.Helper()
	tbl, err := table.NewTable([]table.Column{
		table.NewNumberColumn("spend", []float64{10, 20, 30, 40, 50, 60, 70, 80}),
		table.NewNumberColumn("revenue", []float64{25, 44, 63, 81, 104, 122, 140, 163}),
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	svc := app.NewAnalysisService(internal.NewLogger(internal.LogLevelError))
	resp, err := svc.Run(context.Background(), tbl, engine.OpFull, engine.Params{})
	if err != nil {
		t.Fatalf("full analysis: %v", err)
	}
	return resp
}

func TestMarkdown_FullReportSections(t *testing.T) {
	g := NewGenerator()
	g.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	md := g.Markdown(fullResponse(t))

	for _, want := range []string{
		"# Analysis Report",
		"2026-03-01T12:00:00Z",
		"## Descriptive Statistics",
		"## Correlations",
		"## Time Series",
		"## Anomalies",
		"## Correlation Network",
		"## Predictive Analysis",
		"| spend |",
		"| revenue |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdown_NilResult(t *testing.T) {
	md := NewGenerator().Markdown(&app.Response{Operation: engine.OpDescriptiveStats})
	if !strings.Contains(md, "No results.") {
		t.Errorf("nil result not reported: %q", md)
	}
}

func TestMarkdown_SingleOperationOmitsOtherSections(t *testing.T) {
	tbl, err := table.NewTable([]table.Column{
		table.NewNumberColumn("v", []float64{2, 4, 4, 4, 5, 5, 7, 9}),
	})
	if err != nil {
		t.Fatalf("build table: %v", err)
	}
	svc := app.NewAnalysisService(internal.NewLogger(internal.LogLevelError))
	resp, err := svc.Run(context.Background(), tbl, engine.OpDescriptiveStats, engine.Params{})
	if err != nil {
		t.Fatalf("descriptive stats: %v", err)
	}

	md := NewGenerator().Markdown(resp)
	if !strings.Contains(md, "## Descriptive Statistics") {
		t.Error("summary section missing")
	}
	for _, absent := range []string{"## Regression", "## Time Series", "## Anomalies"} {
		if strings.Contains(md, absent) {
			t.Errorf("unexpected section %q in single-operation report", absent)
		}
	}
}

func TestHTML_RendersMarkdown(t *testing.T) {
	out := string(NewGenerator().HTML(fullResponse(t)))

	for _, want := range []string{"<h1", "Analysis Report", "<table>", "<h2"} {
		if !strings.Contains(out, want) {
			t.Errorf("html missing %q", want)
		}
	}
}
