// Package network builds an undirected correlation graph over the numeric
// columns of a table and reports centrality and density metrics over it.
package network

import (
	"math"
	"sort"

	"datalens/domain/analysis"
	"datalens/domain/core"
	"datalens/domain/table"
	"datalens/engine/descriptive"
)

// maxCentralNodes caps the central-node list
const maxCentralNodes = 3

// Engine builds correlation networks. Stateless.
type Engine struct {
	stats *descriptive.Engine
}

// New creates a network analysis engine
func New() *Engine {
	return &Engine{stats: descriptive.New()}
}

// Build computes the correlation matrix for the table and assembles the graph
func (e *Engine) Build(t *table.Table) (*analysis.NetworkGraph, error) {
	numeric := t.NumericColumns()
	if len(numeric) < 2 {
		return nil, core.NewValidationError("table", "network analysis needs at least 2 numeric columns")
	}
	matrix, err := e.stats.CorrelationMatrix(t)
	if err != nil {
		return nil, err
	}
	return e.BuildFromMatrix(matrix)
}

// BuildFromMatrix assembles the graph from a precomputed correlation matrix.
// Callers that already hold the matrix (the full-analysis fan-out) use this
// to avoid recomputing every pairwise correlation.
func (e *Engine) BuildFromMatrix(matrix *analysis.CorrelationMatrix) (*analysis.NetworkGraph, error) {
	if len(matrix.Columns) < 2 {
		return nil, core.NewValidationError("matrix", "network analysis needs at least 2 columns")
	}

	n := len(matrix.Columns)
	edges := make([]analysis.NetworkEdge, 0, len(matrix.Pairs))
	weightSum := make(map[string]float64, n)
	degree := make(map[string]int, n)

	// Every computed pair becomes an edge; weak correlations stay in the
	// graph typed as weak rather than being dropped.
	for _, pair := range matrix.Pairs {
		weight := math.Abs(pair.R)
		edges = append(edges, analysis.NetworkEdge{
			Source:      pair.ColumnX,
			Target:      pair.ColumnY,
			Weight:      weight,
			Correlation: pair.R,
			Type:        analysis.ClassifyStrength(weight),
		})
		weightSum[pair.ColumnX] += weight
		weightSum[pair.ColumnY] += weight
		degree[pair.ColumnX]++
		degree[pair.ColumnY]++
	}

	// Centrality: incident weight normalized by the maximum possible (every
	// other node connected at weight 1).
	nodes := make([]analysis.NetworkNode, n)
	for i, name := range matrix.Columns {
		centrality := weightSum[name] / float64(n-1)
		nodes[i] = analysis.NetworkNode{
			ID:          name,
			Connections: degree[name],
			Centrality:  centrality,
			Category:    categorize(centrality),
		}
	}

	return &analysis.NetworkGraph{
		Nodes:   nodes,
		Edges:   edges,
		Metrics: buildMetrics(nodes, edges, n),
	}, nil
}

func categorize(centrality float64) string {
	switch {
	case centrality > 0.6:
		return "hub"
	case centrality > 0.3:
		return "connector"
	default:
		return "peripheral"
	}
}

func buildMetrics(nodes []analysis.NetworkNode, edges []analysis.NetworkEdge, n int) analysis.NetworkMetrics {
	possible := float64(n*(n-1)) / 2

	totalDegree := 0
	for _, node := range nodes {
		totalDegree += node.Connections
	}

	var strongest *analysis.NetworkEdge
	for i := range edges {
		if strongest == nil || edges[i].Weight > strongest.Weight {
			strongest = &edges[i]
		}
	}

	// Top centrality nodes, name tie-break for determinism
	ranked := make([]analysis.NetworkNode, len(nodes))
	copy(ranked, nodes)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Centrality != ranked[j].Centrality {
			return ranked[i].Centrality > ranked[j].Centrality
		}
		return ranked[i].ID < ranked[j].ID
	})
	k := maxCentralNodes
	if k > len(ranked) {
		k = len(ranked)
	}
	central := make([]string, k)
	for i := 0; i < k; i++ {
		central[i] = ranked[i].ID
	}

	return analysis.NetworkMetrics{
		Density:             float64(len(edges)) / possible,
		AverageConnections:  float64(totalDegree) / float64(n),
		StrongestConnection: strongest,
		CentralNodes:        central,
		ClusterCount:        clusterCount(ranked),
	}
}

// clusterCount groups nodes by centrality: a gap larger than 0.25 between
// consecutive ranked centralities starts a new group. A coarse structural
// heuristic, not graph community detection.
func clusterCount(ranked []analysis.NetworkNode) int {
	if len(ranked) == 0 {
		return 0
	}
	count := 1
	for i := 1; i < len(ranked); i++ {
		if ranked[i-1].Centrality-ranked[i].Centrality > 0.25 {
			count++
		}
	}
	return count
}
