package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"datalens/adapters/tabular"
	"datalens/app"
	"datalens/domain/analysis"
	"datalens/engine"
	"datalens/internal"
	"datalens/report"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "datalens",
		Short: "Statistical and predictive analysis over tabular data",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newReportCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		operation string
		columns   []string
		target    string
		model     string
		degree    int
		alpha     float64
		testType  string
		method    string
		horizon   int
	)

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run one analysis over an Excel or CSV file and print JSON",
		Long: `Run one analysis operation over a data file.

Example: datalens analyze sales.xlsx --operation regression --columns ad_spend --target revenue`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := runAnalysis(cmd.Context(), args[0], operation, buildParams(columns, target, model, degree, alpha, testType, method, horizon))
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	addAnalysisFlags(cmd, &operation, &columns, &target, &model, &degree, &alpha, &testType, &method, &horizon)
	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		operation string
		columns   []string
		target    string
		model     string
		degree    int
		alpha     float64
		testType  string
		method    string
		horizon   int
		asHTML    bool
	)

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Run an analysis and print a markdown or HTML report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := runAnalysis(cmd.Context(), args[0], operation, buildParams(columns, target, model, degree, alpha, testType, method, horizon))
			if err != nil {
				return err
			}
			gen := report.NewGenerator()
			if asHTML {
				os.Stdout.Write(gen.HTML(resp))
				return nil
			}
			fmt.Print(gen.Markdown(resp))
			return nil
		},
	}

	addAnalysisFlags(cmd, &operation, &columns, &target, &model, &degree, &alpha, &testType, &method, &horizon)
	cmd.Flags().BoolVar(&asHTML, "html", false, "render the report as HTML")
	return cmd
}

func addAnalysisFlags(cmd *cobra.Command, operation *string, columns *[]string, target, model *string, degree *int, alpha *float64, testType, method *string, horizon *int) {
	cmd.Flags().StringVarP(operation, "operation", "o", string(engine.OpFull), "analysis operation to run")
	cmd.Flags().StringSliceVarP(columns, "columns", "c", nil, "columns to analyze (default: all numeric)")
	cmd.Flags().StringVarP(target, "target", "t", "", "target column for regression and ML analysis")
	cmd.Flags().StringVar(model, "model", "", "regression model: linear, polynomial, ridge, lasso")
	cmd.Flags().IntVar(degree, "degree", 0, "polynomial degree")
	cmd.Flags().Float64Var(alpha, "alpha", 0, "regularization strength")
	cmd.Flags().StringVar(testType, "test", "", "hypothesis test: ttest, ztest, anova, chisquare")
	cmd.Flags().StringVar(method, "method", "", "anomaly method: zscore, iqr, moving_average")
	cmd.Flags().IntVar(horizon, "horizon", 0, "forecast horizon")
}

func buildParams(columns []string, target, model string, degree int, alpha float64, testType, method string, horizon int) engine.Params {
	return engine.Params{
		Columns:  columns,
		Target:   target,
		Model:    analysis.ModelKind(strings.ToLower(model)),
		Degree:   degree,
		Alpha:    alpha,
		TestType: analysis.TestType(strings.ToLower(testType)),
		Method:   analysis.AnomalyMethod(strings.ToLower(method)),
		Horizon:  horizon,
	}
}

func runAnalysis(ctx context.Context, path, operation string, params engine.Params) (*app.Response, error) {
	op, err := engine.ParseOperation(operation)
	if err != nil {
		return nil, err
	}

	t, err := tabular.NewDataReader(path).ReadTable()
	if err != nil {
		return nil, err
	}

	service := app.NewAnalysisService(internal.DefaultLogger)
	return service.Run(ctx, t, op, params)
}
