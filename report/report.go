// Package report renders analysis responses as markdown and HTML documents.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"datalens/app"
	"datalens/domain/analysis"
)

// Generator produces human-readable reports from analysis responses
type Generator struct {
	now func() time.Time
}

// NewGenerator creates a report generator
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Markdown renders the response as a markdown document
func (g *Generator) Markdown(resp *app.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Analysis Report\n\n")
	fmt.Fprintf(&b, "- **Analysis ID:** %s\n", resp.AnalysisID)
	fmt.Fprintf(&b, "- **Operation:** %s\n", resp.Operation)
	fmt.Fprintf(&b, "- **Generated:** %s\n\n", g.now().UTC().Format(time.RFC3339))

	if resp.Result == nil {
		b.WriteString("No results.\n")
		return b.String()
	}

	r := resp.Result
	if len(r.Summaries) > 0 {
		writeSummaries(&b, r.Summaries)
	}
	if r.Correlation != nil {
		writeCorrelation(&b, r.Correlation)
	}
	if r.Regression != nil {
		writeRegression(&b, r.Regression)
	}
	if r.Hypothesis != nil {
		writeHypothesis(&b, r.Hypothesis)
	}
	if len(r.TimeSeries) > 0 {
		writeTimeSeries(&b, r.TimeSeries)
	}
	if len(r.Anomalies) > 0 {
		writeAnomalies(&b, r.Anomalies)
	}
	if r.Network != nil {
		writeNetwork(&b, r.Network)
	}
	if len(r.ML) > 0 {
		writeML(&b, r.ML)
	}
	return b.String()
}

// HTML renders the markdown report to an HTML fragment
func (g *Generator) HTML(resp *app.Response) []byte {
	md := []byte(g.Markdown(resp))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(md)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func writeSummaries(b *strings.Builder, summaries []analysis.StatisticalSummary) {
	b.WriteString("## Descriptive Statistics\n\n")
	b.WriteString("| Column | Count | Mean | Median | Std Dev | Min | Max | Skewness | Kurtosis |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|\n")
	for _, s := range summaries {
		fmt.Fprintf(b, "| %s | %d | %s | %s | %s | %s | %s | %s | %s |\n",
			s.Column, s.Count, num(s.Mean), num(s.Median), num(s.StdDev),
			num(s.Min), num(s.Max), num(s.Skewness), num(s.Kurtosis))
	}
	b.WriteString("\n")
}

func writeCorrelation(b *strings.Builder, m *analysis.CorrelationMatrix) {
	b.WriteString("## Correlations\n\n")
	if len(m.Strong) == 0 {
		b.WriteString("No strong correlations (|r| > 0.7) found.\n\n")
		return
	}
	b.WriteString("| X | Y | r | p-value | Strength |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, p := range m.Strong {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s |\n",
			p.ColumnX, p.ColumnY, num(p.R), num(p.PValue), p.Strength)
	}
	b.WriteString("\n")
}

func writeRegression(b *strings.Builder, r *analysis.RegressionResult) {
	b.WriteString("## Regression\n\n")
	fmt.Fprintf(b, "- **Model:** %s\n", r.Model)
	fmt.Fprintf(b, "- **Equation:** `%s`\n", r.Equation)
	fmt.Fprintf(b, "- **R²:** %s (adjusted %s)\n", num(r.Metrics.R2), num(r.Metrics.AdjustedR2))
	fmt.Fprintf(b, "- **RMSE:** %s, **MAE:** %s\n", num(r.Metrics.RMSE), num(r.Metrics.MAE))
	if r.SlopeCI != nil {
		fmt.Fprintf(b, "- **Slope 95%% CI:** [%s, %s]\n", num(r.SlopeCI.Lower), num(r.SlopeCI.Upper))
	}
	if len(r.Diagnostics.OutlierIndices) > 0 {
		fmt.Fprintf(b, "- **Residual outliers:** %d point(s)\n", len(r.Diagnostics.OutlierIndices))
	}
	b.WriteString("\n")
}

func writeHypothesis(b *strings.Builder, h *analysis.HypothesisTestResult) {
	b.WriteString("## Hypothesis Test\n\n")
	fmt.Fprintf(b, "- **Test:** %s\n", h.TestType)
	fmt.Fprintf(b, "- **Statistic:** %s, **p-value:** %s (alpha %s)\n", num(h.Statistic), num(h.PValue), num(h.Alpha))
	if h.DegreesOfFreedom != nil {
		fmt.Fprintf(b, "- **Degrees of freedom:** %s\n", num(*h.DegreesOfFreedom))
	}
	fmt.Fprintf(b, "- **Conclusion:** %s\n\n", h.Conclusion)
}

func writeTimeSeries(b *strings.Builder, results []analysis.TimeSeriesResult) {
	b.WriteString("## Time Series\n\n")
	for _, ts := range results {
		fmt.Fprintf(b, "### %s\n\n", ts.Column)
		fmt.Fprintf(b, "- **Trend:** %s (%s), slope %s\n", ts.Trend.Direction, ts.Trend.Strength, num(ts.Trend.Slope))
		if ts.Seasonality.Detected {
			fmt.Fprintf(b, "- **Seasonality:** period %d (autocorrelation %s)\n", ts.Seasonality.Period, num(ts.Seasonality.Strength))
		} else {
			b.WriteString("- **Seasonality:** none detected\n")
		}
		fmt.Fprintf(b, "- **Volatility:** %s (annualized %s), max drawdown %s\n",
			num(ts.Volatility.StdDev), num(ts.Volatility.Annualized), num(ts.Volatility.MaxDrawdown))
		fmt.Fprintf(b, "- **Stationary:** %t\n", ts.Stationarity.IsStationary)
		if len(ts.Forecast.Ensemble) > 0 {
			fmt.Fprintf(b, "- **Forecast (%d ahead):** %s\n", ts.Forecast.Horizon, numList(ts.Forecast.Ensemble))
		}
		b.WriteString("\n")
	}
}

func writeAnomalies(b *strings.Builder, summaries []analysis.AnomalySummary) {
	b.WriteString("## Anomalies\n\n")
	for _, s := range summaries {
		fmt.Fprintf(b, "### %s\n\n", s.Column)
		fmt.Fprintf(b, "- **Method:** %s (threshold %s)\n", s.Method, num(s.Threshold))
		fmt.Fprintf(b, "- **Flagged:** %d of %d (%.1f%%)\n", s.Count, s.Total, s.Percentage)
		for _, a := range s.Anomalies {
			fmt.Fprintf(b, "  - index %d, value %s\n", a.Index, num(a.Value))
		}
		b.WriteString("\n")
	}
}

func writeNetwork(b *strings.Builder, g *analysis.NetworkGraph) {
	b.WriteString("## Correlation Network\n\n")
	fmt.Fprintf(b, "- **Nodes:** %d, **Edges:** %d\n", len(g.Nodes), len(g.Edges))
	fmt.Fprintf(b, "- **Density:** %s, **Clusters:** %d\n", num(g.Metrics.Density), g.Metrics.ClusterCount)
	if g.Metrics.StrongestConnection != nil {
		e := g.Metrics.StrongestConnection
		fmt.Fprintf(b, "- **Strongest link:** %s and %s (r=%s)\n", e.Source, e.Target, num(e.Correlation))
	}
	if len(g.Metrics.CentralNodes) > 0 {
		fmt.Fprintf(b, "- **Central nodes:** %s\n", strings.Join(g.Metrics.CentralNodes, ", "))
	}
	b.WriteString("\n")
}

func writeML(b *strings.Builder, results []analysis.MLResult) {
	b.WriteString("## Predictive Analysis\n\n")
	for _, m := range results {
		fmt.Fprintf(b, "### %s\n\n", m.Field)
		fmt.Fprintf(b, "- **Features:** %s\n", strings.Join(m.Features, ", "))
		fmt.Fprintf(b, "- **Confidence:** %s\n", num(m.Confidence))
		fmt.Fprintf(b, "- **Directional accuracy:** %s (F1 %s)\n", num(m.Metrics.Accuracy), num(m.Metrics.F1Score))
		for _, p := range m.Patterns {
			fmt.Fprintf(b, "- **Pattern:** %s: %s\n", p.Type, p.Description)
		}
		b.WriteString("\n")
	}
}

func num(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func numList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = num(v)
	}
	return strings.Join(parts, ", ")
}
