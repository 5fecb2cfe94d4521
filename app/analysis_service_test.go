package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datalens/domain/table"
	"datalens/engine"
	"datalens/internal"
	apperrors "datalens/internal/errors"
)

func serviceTable(t *testing.T) *table.Table {
	t.Helper()
	tbl, err := table.NewTable([]table.Column{
		table.NewNumberColumn("spend", []float64{10, 20, 30, 40, 50, 60, 70, 80}),
		table.NewNumberColumn("revenue", []float64{25, 45, 62, 85, 103, 125, 141, 166}),
		table.NewTextColumn("channel", []string{"a", "b", "a", "b", "a", "b", "a", "b"}),
	})
	require.NoError(t, err)
	return tbl
}

func newTestService() *AnalysisService {
	return NewAnalysisService(internal.NewLogger(internal.LogLevelError))
}

func TestRun_SingleOperation(t *testing.T) {
	service := newTestService()

	resp, err := service.Run(context.Background(), serviceTable(t), engine.OpDescriptiveStats, engine.Params{})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AnalysisID)
	assert.Equal(t, engine.OpDescriptiveStats, resp.Operation)
	require.NotNil(t, resp.Result)
	assert.Len(t, resp.Result.Summaries, 2)
	assert.False(t, resp.ComputedAt.Time().IsZero())
}

func TestRun_FullAnalysisPopulatesEverySection(t *testing.T) {
	service := newTestService()

	resp, err := service.Run(context.Background(), serviceTable(t), engine.OpFull, engine.Params{})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)

	r := resp.Result
	assert.Equal(t, engine.OpFull, r.Operation)
	assert.Len(t, r.Summaries, 2, "both numeric columns described")
	assert.NotNil(t, r.Correlation)
	assert.Len(t, r.TimeSeries, 2)
	assert.Len(t, r.Anomalies, 2)
	require.NotNil(t, r.Network)
	assert.Len(t, r.Network.Nodes, 2)
	assert.Len(t, r.ML, 2, "every numeric column analyzed as target")

	// the shared matrix and the network edges agree on the correlation
	pair, ok := r.Correlation.Pair("spend", "revenue")
	require.True(t, ok)
	require.Len(t, r.Network.Edges, 1)
	assert.Equal(t, pair.R, r.Network.Edges[0].Correlation)
}

func TestRun_FullWithTargetRestrictsML(t *testing.T) {
	service := newTestService()

	resp, err := service.Run(context.Background(), serviceTable(t), engine.OpFull, engine.Params{Target: "revenue"})
	require.NoError(t, err)

	require.Len(t, resp.Result.ML, 1)
	assert.Equal(t, "revenue", resp.Result.ML[0].Field)
}

func TestRun_ErrorsCarryTaxonomyCodes(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	// unknown column: validation
	_, err := service.Run(ctx, serviceTable(t), engine.OpDescriptiveStats, engine.Params{Columns: []string{"missing"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))

	// too few samples for the model: insufficient data
	small, terr := table.NewTable([]table.Column{
		table.NewNumberColumn("x", []float64{1, 2, 3}),
		table.NewNumberColumn("y", []float64{2, 4, 6}),
	})
	require.NoError(t, terr)
	_, err = service.Run(ctx, small, engine.OpRegression, engine.Params{Columns: []string{"x"}, Target: "y"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInsufficientData, apperrors.GetCode(err))

	// zero-variance column in a correlation: below the usable-sample floor
	constant, terr := table.NewTable([]table.Column{
		table.NewNumberColumn("x", []float64{1, 2, 3, 4}),
		table.NewNumberColumn("c", []float64{5, 5, 5, 5}),
	})
	require.NoError(t, terr)
	_, err = service.Run(ctx, constant, engine.OpCorrelation, engine.Params{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeInsufficientData, apperrors.GetCode(err))

	// missing required parameter: validation, never the catch-all
	_, err = service.Run(ctx, serviceTable(t), engine.OpRegression, engine.Params{Columns: []string{"spend"}})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidationError, apperrors.GetCode(err))
}

func TestRun_FullSkipsNetworkAndMLForSingleNumericColumn(t *testing.T) {
	service := newTestService()
	single, err := table.NewTable([]table.Column{
		table.NewNumberColumn("spend", []float64{10, 20, 30, 40, 50, 60, 70, 80}),
		table.NewTextColumn("channel", []string{"a", "b", "a", "b", "a", "b", "a", "b"}),
	})
	require.NoError(t, err)

	resp, err := service.Run(context.Background(), single, engine.OpFull, engine.Params{})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)

	r := resp.Result
	assert.Len(t, r.Summaries, 1)
	assert.Len(t, r.TimeSeries, 1)
	assert.Len(t, r.Anomalies, 1)
	assert.Nil(t, r.Correlation, "no pairs to correlate")
	assert.Nil(t, r.Network)
	assert.Empty(t, r.ML)
}

func TestRun_Deterministic(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	first, err := service.Run(ctx, serviceTable(t), engine.OpFull, engine.Params{})
	require.NoError(t, err)
	second, err := service.Run(ctx, serviceTable(t), engine.OpFull, engine.Params{})
	require.NoError(t, err)

	// everything except the call metadata is identical between runs
	assert.NotEqual(t, first.AnalysisID, second.AnalysisID)
	assert.Equal(t, first.Result.Summaries, second.Result.Summaries)
	assert.Equal(t, first.Result.Correlation, second.Result.Correlation)
	assert.Equal(t, first.Result.TimeSeries, second.Result.TimeSeries)
	assert.Equal(t, first.Result.Anomalies, second.Result.Anomalies)
	assert.Equal(t, first.Result.Network, second.Result.Network)
	assert.Equal(t, first.Result.ML, second.Result.ML)
}
