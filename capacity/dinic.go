package capacity

import (
	"fmt"
	"math"

	"github.com/equinor/neqnet/core"
)

// Dinic computes the maximum flow from source to sink over g, using each
// edge's Capacity (zero = unbounded). With opts.Undirected every edge may
// carry flow against its nominal direction.
//
// Steps:
//  1. Normalize options; validate source and sink.
//  2. Index vertices and build the residual arcs.
//  3. Run level-graph / blocking-flow phases until the sink is unreachable.
//  4. Report per-edge flows and the saturated cut edges.
//
// An unbounded source-to-sink path yields MaxFlow = +Inf with no edge flows.
func Dinic(g *core.Graph, source, sink string, opts FlowOptions) (*Result, error) {
	// 1) options and endpoints
	opts.normalize()
	if !g.HasVertex(source) {
		return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, source)
	}
	if !g.HasVertex(sink) {
		return nil, fmt.Errorf("%w: %q", ErrSinkNotFound, sink)
	}

	// 2) residual arcs
	r, index, err := build(g, 0, opts.Undirected)
	if err != nil {
		return nil, err
	}

	// 3) phases
	s, t := index[source], index[sink]
	total, err := r.dinic(s, t, opts)
	if err != nil {
		return nil, err
	}

	// 4) report
	res := &Result{MaxFlow: total}
	if !math.IsInf(total, 1) {
		res.EdgeFlows = r.edgeFlows()
		res.Saturated = r.saturated(s, opts.Epsilon)
	}

	return res, nil
}

// Seed returns edge flows that satisfy continuity for the given net
// injections: balance[v] > 0 is supplied at v, balance[v] < 0 is withdrawn.
// Edges are two-way regardless of opts.Undirected and capacity-bounded only
// where Capacity is set.
//
// Returns ErrImbalanced when injections do not sum to zero within
// tolerance, and ErrInfeasible when some demand cannot be reached.
func Seed(g *core.Graph, balance map[string]float64, opts FlowOptions) (map[string]float64, error) {
	opts.normalize()
	var supply, demand float64
	for v, b := range balance {
		if !g.HasVertex(v) {
			return nil, fmt.Errorf("capacity: seed: %w: %q", core.ErrVertexNotFound, v)
		}
		if b > 0 {
			supply += b
		} else {
			demand -= b
		}
	}
	tol := opts.Epsilon * math.Max(1, supply)
	if math.Abs(supply-demand) > 1e3*tol {
		return nil, fmt.Errorf("%w: supply %g, demand %g", ErrImbalanced, supply, demand)
	}

	r, index, err := build(g, 2, true)
	if err != nil {
		return nil, err
	}
	s, t := len(index), len(index)+1
	for _, v := range g.Vertices() {
		switch b := balance[v]; {
		case b > 0:
			r.addEdge(s, index[v], b, false, "")
		case b < 0:
			r.addEdge(index[v], t, -b, false, "")
		}
	}
	total, err := r.dinic(s, t, opts)
	if err != nil {
		return nil, err
	}
	if total < supply-1e3*tol {
		return nil, fmt.Errorf("%w: routed %g of %g", ErrInfeasible, total, supply)
	}

	return r.edgeFlows(), nil
}

// Throughput reports the maximum flow from any of sources to any of sinks.
func Throughput(g *core.Graph, sources, sinks []string, opts FlowOptions) (*Result, error) {
	opts.normalize()
	r, index, err := build(g, 2, opts.Undirected)
	if err != nil {
		return nil, err
	}
	s, t := len(index), len(index)+1
	for _, v := range sources {
		i, ok := index[v]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSourceNotFound, v)
		}
		r.addEdge(s, i, math.Inf(1), false, "")
	}
	for _, v := range sinks {
		i, ok := index[v]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrSinkNotFound, v)
		}
		r.addEdge(i, t, math.Inf(1), false, "")
	}
	total, err := r.dinic(s, t, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{MaxFlow: total}
	if !math.IsInf(total, 1) {
		res.EdgeFlows = r.edgeFlows()
		res.Saturated = r.saturated(s, opts.Epsilon)
	}

	return res, nil
}

// build indexes the vertices of g in creation order and adds one residual
// edge per graph edge, reserving extra auxiliary vertex slots. Self-loops
// carry no flow and are skipped.
func build(g *core.Graph, extra int, twoWay bool) (*residual, map[string]int, error) {
	verts := g.Vertices()
	index := make(map[string]int, len(verts))
	for i, v := range verts {
		index[v] = i
	}
	r := newResidual(len(verts) + extra)
	for _, e := range g.Edges() {
		if e.Capacity < 0 {
			return nil, nil, EdgeError{EdgeID: e.ID, Cap: e.Capacity}
		}
		if e.From == e.To {
			continue
		}
		r.addEdge(index[e.From], index[e.To], unbounded(e.Capacity), twoWay, e.ID)
	}

	return r, index, nil
}
