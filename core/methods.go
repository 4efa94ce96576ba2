package core

import (
	"fmt"
	"slices"
)

// AddVertex inserts a vertex. Re-adding an existing ID is a no-op unless the
// Graph was built WithStrictVertices.
// Complexity: O(1) amortized.
func (g *Graph) AddVertex(id string, opts ...VertexOption) error {
	if id == "" {
		return ErrEmptyVertexID
	}
	g.muVert.Lock()
	defer g.muVert.Unlock()

	if _, ok := g.vertices[id]; ok {
		if g.strictVertices {
			return fmt.Errorf("%w: %q", ErrDuplicateVertex, id)
		}
		return nil
	}
	v := &Vertex{ID: id}
	for _, opt := range opts {
		opt(v)
	}
	g.vertices[id] = v
	g.vertexOrder = append(g.vertexOrder, id)

	return nil
}

// HasVertex reports whether a vertex with the given ID exists.
// Complexity: O(1).
func (g *Graph) HasVertex(id string) bool {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	_, ok := g.vertices[id]

	return ok
}

// Vertex returns a copy of the vertex with the given ID.
func (g *Graph) Vertex(id string) (Vertex, error) {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	v, ok := g.vertices[id]
	if !ok {
		return Vertex{}, fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}

	return *v, nil
}

// Vertices returns vertex IDs in insertion order.
// Complexity: O(V).
func (g *Graph) Vertices() []string {
	g.muVert.RLock()
	defer g.muVert.RUnlock()

	return slices.Clone(g.vertexOrder)
}

// VertexCount returns |V|.
func (g *Graph) VertexCount() int {
	g.muVert.RLock()
	defer g.muVert.RUnlock()

	return len(g.vertexOrder)
}

// AddEdge inserts a directed edge id from→to. Both vertices must already
// exist so a typo fails fast instead of growing the graph.
//
// Steps:
//  1. Validate IDs and the loop policy.
//  2. Check both endpoints under muVert.
//  3. Reject duplicate edge IDs, then link adjacency under muEdgeAdj.
//
// Complexity: O(1) amortized.
func (g *Graph) AddEdge(id, from, to string, opts ...EdgeOption) error {
	// 1) Input validation
	if id == "" {
		return ErrEmptyEdgeID
	}
	if from == "" || to == "" {
		return ErrEmptyVertexID
	}
	if from == to && !g.allowLoops {
		return fmt.Errorf("%w: %q at %q", ErrLoopNotAllowed, id, from)
	}

	// 2) Endpoints
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	for _, v := range [...]string{from, to} {
		if _, ok := g.vertices[v]; !ok {
			return fmt.Errorf("%w: %q (edge %q)", ErrVertexNotFound, v, id)
		}
	}

	// 3) Insert
	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()
	if _, ok := g.edges[id]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateEdge, id)
	}
	e := &Edge{ID: id, From: from, To: to}
	for _, opt := range opts {
		opt(e)
	}
	g.edges[id] = e
	g.edgeOrder = append(g.edgeOrder, id)
	g.out[from] = append(g.out[from], id)
	g.in[to] = append(g.in[to], id)

	return nil
}

// RemoveEdge deletes the edge with the given ID.
// Complexity: O(deg) for the adjacency slices plus O(E) for the order slice.
func (g *Graph) RemoveEdge(id string) error {
	g.muEdgeAdj.Lock()
	defer g.muEdgeAdj.Unlock()
	e, ok := g.edges[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrEdgeNotFound, id)
	}
	delete(g.edges, id)
	g.edgeOrder = remove(g.edgeOrder, id)
	g.out[e.From] = remove(g.out[e.From], id)
	g.in[e.To] = remove(g.in[e.To], id)

	return nil
}

// HasEdge reports whether an edge with the given ID exists.
func (g *Graph) HasEdge(id string) bool {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	_, ok := g.edges[id]

	return ok
}

// Edge returns a copy of the edge with the given ID.
func (g *Graph) Edge(id string) (Edge, error) {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	e, ok := g.edges[id]
	if !ok {
		return Edge{}, fmt.Errorf("%w: %q", ErrEdgeNotFound, id)
	}

	return *e, nil
}

// Edges returns copies of all edges in insertion order.
// Complexity: O(E).
func (g *Graph) Edges() []Edge {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		out = append(out, *g.edges[id])
	}

	return out
}

// EdgeCount returns |E|.
func (g *Graph) EdgeCount() int {
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	return len(g.edgeOrder)
}

// OutEdges returns the edges leaving v in insertion order.
func (g *Graph) OutEdges(v string) ([]Edge, error) {
	return g.adjacent(v, true)
}

// InEdges returns the edges entering v in insertion order.
func (g *Graph) InEdges(v string) ([]Edge, error) {
	return g.adjacent(v, false)
}

// Degree returns the in- and out-degree of v.
func (g *Graph) Degree(v string) (in, out int, err error) {
	if !g.HasVertex(v) {
		return 0, 0, fmt.Errorf("%w: %q", ErrVertexNotFound, v)
	}
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	return len(g.in[v]), len(g.out[v]), nil
}

// Successors returns the distinct downstream vertices of v, first-seen order.
func (g *Graph) Successors(v string) ([]string, error) {
	edges, err := g.OutEdges(v)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(edges))
	var out []string
	for _, e := range edges {
		if _, ok := seen[e.To]; ok {
			continue
		}
		seen[e.To] = struct{}{}
		out = append(out, e.To)
	}

	return out, nil
}

// Clone returns a deep copy with the same options.
// Complexity: O(V+E).
func (g *Graph) Clone() *Graph {
	g.muVert.RLock()
	defer g.muVert.RUnlock()
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()

	c := NewGraph()
	c.allowLoops, c.strictVertices = g.allowLoops, g.strictVertices
	for _, id := range g.vertexOrder {
		v := *g.vertices[id]
		c.vertices[id] = &v
	}
	c.vertexOrder = slices.Clone(g.vertexOrder)
	for _, id := range g.edgeOrder {
		e := *g.edges[id]
		c.edges[id] = &e
	}
	c.edgeOrder = slices.Clone(g.edgeOrder)
	for v, ids := range g.out {
		c.out[v] = slices.Clone(ids)
	}
	for v, ids := range g.in {
		c.in[v] = slices.Clone(ids)
	}

	return c
}

func (g *Graph) adjacent(v string, outgoing bool) ([]Edge, error) {
	if !g.HasVertex(v) {
		return nil, fmt.Errorf("%w: %q", ErrVertexNotFound, v)
	}
	g.muEdgeAdj.RLock()
	defer g.muEdgeAdj.RUnlock()
	ids := g.in[v]
	if outgoing {
		ids = g.out[v]
	}
	res := make([]Edge, 0, len(ids))
	for _, id := range ids {
		res = append(res, *g.edges[id])
	}

	return res, nil
}

func remove(ids []string, id string) []string {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}

	return ids
}
