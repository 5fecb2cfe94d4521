// Package app orchestrates engine calls for the delivery layers. The service
// owns the fan-out for full analysis and the mapping from engine errors to
// the coded error taxonomy; nothing here touches storage or transport.
package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/engine"
	"datalens/internal"
	apperrors "datalens/internal/errors"
)

// Response wraps one engine result with call metadata
type Response struct {
	AnalysisID core.AnalysisID  `json:"analysis_id"`
	Operation  engine.Operation `json:"operation"`
	Result     *engine.Result   `json:"result"`
	ComputedAt core.Timestamp   `json:"computed_at"`
}

// AnalysisService runs analysis operations over tables
type AnalysisService struct {
	engine *engine.Engine
	log    *internal.Logger
}

// NewAnalysisService creates the service over a fresh engine
func NewAnalysisService(logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &AnalysisService{
		engine: engine.New(),
		log:    logger.Named("analysis"),
	}
}

// Run executes one operation, or the full parallel fan-out for OpFull.
// Every error leaving here carries a taxonomy code.
func (s *AnalysisService) Run(ctx context.Context, t *table.Table, op engine.Operation, p engine.Params) (*Response, error) {
	id := core.AnalysisID(core.NewID())
	s.log.Debug("running %s (analysis %s, %d columns)", op, id, t.ColumnCount())

	var result *engine.Result
	var err error
	if op == engine.OpFull {
		result, err = s.runFull(ctx, t, p)
	} else {
		result, err = s.engine.Run(ctx, t, op, p)
	}
	if err != nil {
		coded := CodeError(err)
		s.log.Warn("%s failed: %v", op, coded)
		return nil, coded
	}

	return &Response{
		AnalysisID: id,
		Operation:  op,
		Result:     result,
		ComputedAt: core.Now(),
	}, nil
}

// runFull fans the parameterless engines out in parallel. Each engine only
// reads its input columns and writes a fresh result, so no locking is needed;
// the correlation matrix is computed once and shared with the network and ML
// engines instead of being recomputed.
func (s *AnalysisService) runFull(ctx context.Context, t *table.Table, p engine.Params) (*engine.Result, error) {
	result := &engine.Result{Operation: engine.OpFull}

	matrix, err := s.engine.Stats().CorrelationMatrix(t)
	if err != nil && !core.IsValidationError(err) {
		// A single numeric column is a valid table; only computation
		// failures abort the fan-out.
		return nil, err
	}
	result.Correlation = matrix

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sub, err := s.engine.Run(ctx, t, engine.OpDescriptiveStats, p)
		if err != nil {
			return err
		}
		result.Summaries = sub.Summaries
		return nil
	})
	g.Go(func() error {
		sub, err := s.engine.Run(ctx, t, engine.OpTimeSeries, p)
		if err != nil {
			return err
		}
		result.TimeSeries = sub.TimeSeries
		return nil
	})
	g.Go(func() error {
		sub, err := s.engine.Run(ctx, t, engine.OpAnomalyDetection, p)
		if err != nil {
			return err
		}
		result.Anomalies = sub.Anomalies
		return nil
	})
	if matrix != nil {
		g.Go(func() error {
			graph, err := s.engine.Network().BuildFromMatrix(matrix)
			if err != nil {
				return err
			}
			result.Network = graph
			return nil
		})
		g.Go(func() error {
			if p.Target != "" {
				res, err := s.engine.ML().AnalyzeWithMatrix(t, p.Target, matrix)
				if err != nil {
					return err
				}
				result.ML = []analysis.MLResult{*res}
				return nil
			}
			ml, err := s.engine.ML().AnalyzeAllWithMatrix(t, matrix)
			if err != nil {
				return err
			}
			result.ML = ml
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

// CodeError maps engine errors onto the coded taxonomy. Unknown errors become
// ANALYSIS_ERROR, the catch-all at the dispatch boundary.
func CodeError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*apperrors.AppError); ok {
		return err
	}
	switch {
	case core.IsValidationError(err):
		return apperrors.WithCode(apperrors.CodeValidationError, err)
	case core.IsInsufficientData(err):
		return apperrors.WithCode(apperrors.CodeInsufficientData, err)
	case core.IsComputationError(err):
		return apperrors.WithCode(apperrors.CodeComputationError, err)
	default:
		return apperrors.AnalysisError("analysis failed", err)
	}
}
