package topology

import (
	"fmt"

	"github.com/equinor/neqnet/core"
)

// ExecutionOrder returns the vertices of g in an order where every vertex
// comes after all of its upstream vertices when that is possible.
//
// Steps:
//  1. Count distinct upstream vertices per vertex.
//  2. Seed the worklist with in-degree-zero vertices in creation order.
//  3. Pop, emit, and release downstream vertices whose count drops to zero.
//  4. Append vertices never released (cycles) in creation order.
func ExecutionOrder(g *core.Graph, opts ...Option) ([]string, error) {
	order, _, err := kahn(g, opts)

	return order, err
}

// TopologicalSort is ExecutionOrder that rejects directed cycles.
func TopologicalSort(g *core.Graph, opts ...Option) ([]string, error) {
	order, complete, err := kahn(g, opts)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, ErrCycleDetected
	}

	return order, nil
}

// Sources returns vertices without upstream vertices, in creation order.
func Sources(g *core.Graph) ([]string, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	var out []string
	for _, v := range g.Vertices() {
		in, _, err := g.Degree(v)
		if err != nil {
			return nil, err
		}
		if in == 0 {
			out = append(out, v)
		}
	}

	return out, nil
}

func kahn(g *core.Graph, options []Option) ([]string, bool, error) {
	if g == nil {
		return nil, false, ErrGraphNil
	}
	o := defaultOptions()
	for _, opt := range options {
		opt(&o)
	}

	// 1) distinct-predecessor counts
	verts := g.Vertices()
	pending := make(map[string]int, len(verts))
	succ := make(map[string][]string, len(verts))
	for _, v := range verts {
		next, err := g.Successors(v)
		if err != nil {
			return nil, false, fmt.Errorf("topology: successors of %q: %w", v, err)
		}
		for _, w := range next {
			if w == v {
				continue
			}
			pending[w]++
		}
		succ[v] = next
	}

	// 2) seed
	queue := make([]string, 0, len(verts))
	for _, v := range verts {
		if pending[v] == 0 {
			queue = append(queue, v)
		}
	}

	// 3) drain
	emitted := make(map[string]bool, len(verts))
	order := make([]string, 0, len(verts))
	for len(queue) > 0 {
		select {
		case <-o.ctx.Done():
			return nil, false, o.ctx.Err()
		default:
		}
		v := queue[0]
		queue = queue[1:]
		emitted[v] = true
		order = append(order, v)
		for _, w := range succ[v] {
			if w == v {
				continue
			}
			pending[w]--
			if pending[w] == 0 {
				queue = append(queue, w)
			}
		}
	}

	// 4) leftovers
	complete := len(order) == len(verts)
	for _, v := range verts {
		if !emitted[v] {
			order = append(order, v)
		}
	}

	return order, complete, nil
}
