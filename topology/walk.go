package topology

import (
	"fmt"

	"github.com/equinor/neqnet/core"
)

// incidence is an undirected adjacency entry.
type incidence struct {
	edge    core.Edge
	other   string
	forward bool
}

// undirected builds v → incident edges, out-edges before in-edges, each in
// creation order. Self-loops are skipped.
func undirected(g *core.Graph) (map[string][]incidence, error) {
	adj := make(map[string][]incidence, g.VertexCount())
	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		adj[e.From] = append(adj[e.From], incidence{edge: e, other: e.To, forward: true})
		adj[e.To] = append(adj[e.To], incidence{edge: e, other: e.From, forward: false})
	}

	return adj, nil
}

// Walk visits the undirected view of g breadth-first from starts (all seeded
// at depth zero) and calls fn once per tree edge in discovery order.
// Returning an error from fn aborts the walk with that error.
func Walk(g *core.Graph, starts []string, fn func(Step) error, opts ...Option) error {
	if g == nil {
		return ErrGraphNil
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	adj, err := undirected(g)
	if err != nil {
		return err
	}

	visited := make(map[string]bool, g.VertexCount())
	queue := make([]string, 0, g.VertexCount())
	for _, s := range starts {
		if !g.HasVertex(s) {
			return fmt.Errorf("%w: %q", ErrStartVertexNotFound, s)
		}
		if !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		select {
		case <-o.ctx.Done():
			return o.ctx.Err()
		default:
		}
		v := queue[0]
		queue = queue[1:]
		for _, inc := range adj[v] {
			if visited[inc.other] {
				continue
			}
			visited[inc.other] = true
			if err = fn(Step{From: v, To: inc.other, EdgeID: inc.edge.ID, Forward: inc.forward}); err != nil {
				return err
			}
			queue = append(queue, inc.other)
		}
	}

	return nil
}
