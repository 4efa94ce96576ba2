package capacity_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinor/neqnet/capacity"
	"github.com/equinor/neqnet/core"
)

type capEdge struct {
	id, from, to string
	cap          float64
}

func buildGraph(t *testing.T, edges []capEdge) *core.Graph {
	t.Helper()
	g := core.NewGraph()
	for _, e := range edges {
		require.NoError(t, g.AddVertex(e.from))
		require.NoError(t, g.AddVertex(e.to))
		require.NoError(t, g.AddEdge(e.id, e.from, e.to, core.WithCapacity(e.cap)))
	}

	return g
}

// continuity returns net outflow minus injection at every vertex.
func continuity(g *core.Graph, flows, balance map[string]float64) map[string]float64 {
	net := make(map[string]float64)
	for _, e := range g.Edges() {
		net[e.From] += flows[e.ID]
		net[e.To] -= flows[e.ID]
	}
	for v, b := range balance {
		net[v] -= b
	}

	return net
}

func clrs(t *testing.T) *core.Graph {
	return buildGraph(t, []capEdge{
		{"a", "s", "v1", 16}, {"b", "s", "v2", 13}, {"c", "v2", "v1", 4},
		{"d", "v1", "v3", 12}, {"e", "v3", "v2", 9}, {"f", "v2", "v4", 14},
		{"g", "v4", "v3", 7}, {"h", "v3", "t", 20}, {"i", "v4", "t", 4},
	})
}

func TestDinic_Classic(t *testing.T) {
	g := clrs(t)
	res, err := capacity.Dinic(g, "s", "t", capacity.FlowOptions{})
	require.NoError(t, err)
	assert.InDelta(t, 23.0, res.MaxFlow, 1e-9)

	for _, e := range g.Edges() {
		f := res.EdgeFlows[e.ID]
		assert.GreaterOrEqual(t, f, -1e-9, e.ID)
		assert.LessOrEqual(t, f, e.Capacity+1e-9, e.ID)
	}
	net := continuity(g, res.EdgeFlows, map[string]float64{"s": 23, "t": -23})
	for v, x := range net {
		assert.InDelta(t, 0, x, 1e-9, v)
	}

	var cut float64
	for _, id := range res.Saturated {
		e, err := g.Edge(id)
		require.NoError(t, err)
		cut += e.Capacity
	}
	assert.InDelta(t, 23.0, cut, 1e-9, "min cut equals max flow")
}

func TestDinic_LevelRebuildIntervalSameAnswer(t *testing.T) {
	res, err := capacity.Dinic(clrs(t), "s", "t", capacity.FlowOptions{LevelRebuildInterval: 1})
	require.NoError(t, err)
	assert.InDelta(t, 23.0, res.MaxFlow, 1e-9)
}

func TestDinic_Errors(t *testing.T) {
	g := clrs(t)
	_, err := capacity.Dinic(g, "x", "t", capacity.FlowOptions{})
	assert.ErrorIs(t, err, capacity.ErrSourceNotFound)
	_, err = capacity.Dinic(g, "s", "x", capacity.FlowOptions{})
	assert.ErrorIs(t, err, capacity.ErrSinkNotFound)

	neg := buildGraph(t, []capEdge{{"n", "s", "t", -1}})
	_, err = capacity.Dinic(neg, "s", "t", capacity.FlowOptions{})
	var edgeErr capacity.EdgeError
	require.ErrorAs(t, err, &edgeErr)
	assert.Equal(t, "n", edgeErr.EdgeID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = capacity.Dinic(g, "s", "t", capacity.FlowOptions{Ctx: ctx})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDinic_Unbounded(t *testing.T) {
	g := buildGraph(t, []capEdge{{"a", "s", "m", 0}, {"b", "m", "t", 0}})
	res, err := capacity.Dinic(g, "s", "t", capacity.FlowOptions{})
	require.NoError(t, err)
	assert.True(t, math.IsInf(res.MaxFlow, 1))
}

func TestDinic_UndirectedUsesReverseEdges(t *testing.T) {
	// t can only be reached through b against its nominal direction.
	g := buildGraph(t, []capEdge{{"a", "s", "m", 5}, {"b", "t", "m", 3}})
	directed, err := capacity.Dinic(g, "s", "t", capacity.FlowOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0.0, directed.MaxFlow)

	res, err := capacity.Dinic(g, "s", "t", capacity.FlowOptions{Undirected: true})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, res.MaxFlow, 1e-12)
	assert.InDelta(t, -3.0, res.EdgeFlows["b"], 1e-12)
}

func TestSeed_RingContinuity(t *testing.T) {
	g := buildGraph(t, []capEdge{
		{"p1", "S", "A", 0}, {"p2", "A", "B", 0}, {"p3", "B", "C", 0},
		{"p4", "A", "C", 0}, {"p5", "D", "C", 0},
	})
	balance := map[string]float64{"S": 10, "B": -4, "C": -1, "D": -5}
	flows, err := capacity.Seed(g, balance, capacity.FlowOptions{})
	require.NoError(t, err)
	for v, x := range continuity(g, flows, balance) {
		assert.InDelta(t, 0, x, 1e-9, v)
	}
	assert.InDelta(t, 10.0, flows["p1"], 1e-9)
	assert.InDelta(t, -5.0, flows["p5"], 1e-9, "D is fed against p5's nominal direction")
}

func TestSeed_Errors(t *testing.T) {
	g := buildGraph(t, []capEdge{{"p1", "S", "A", 0}})
	require.NoError(t, g.AddVertex("island"))

	_, err := capacity.Seed(g, map[string]float64{"S": 10, "A": -4}, capacity.FlowOptions{})
	assert.ErrorIs(t, err, capacity.ErrImbalanced)

	_, err = capacity.Seed(g, map[string]float64{"S": 10, "island": -10}, capacity.FlowOptions{})
	assert.ErrorIs(t, err, capacity.ErrInfeasible)

	_, err = capacity.Seed(g, map[string]float64{"ghost": 1}, capacity.FlowOptions{})
	assert.ErrorIs(t, err, core.ErrVertexNotFound)
}

func TestThroughput_Bottleneck(t *testing.T) {
	g := buildGraph(t, []capEdge{
		{"in1", "W1", "M", 8}, {"in2", "W2", "M", 8}, {"export", "M", "T", 10},
	})
	res, err := capacity.Throughput(g, []string{"W1", "W2"}, []string{"T"}, capacity.DefaultOptions())
	require.NoError(t, err)
	assert.InDelta(t, 10.0, res.MaxFlow, 1e-12)
	assert.Equal(t, []string{"export"}, res.Saturated)

	_, err = capacity.Throughput(g, []string{"nope"}, []string{"T"}, capacity.FlowOptions{})
	assert.ErrorIs(t, err, capacity.ErrSourceNotFound)
}
