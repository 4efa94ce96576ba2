// Package core provides the thread-safe directed multigraph that carries the
// topology of a flow network.
//
// Vertices are junctions (manifolds, nodes); edges are flow elements (pipes,
// chokes, wells) and are identified by the element name, so two elements may
// join the same pair of junctions. Edge direction is the nominal flow
// direction; algorithms that need an undirected view (loop detection) treat
// each edge as traversable both ways with a sign.
//
// Determinism:
//
//	Vertices(), Edges(), OutEdges() and InEdges() return insertion order.
//	Creation order is meaningful for network execution, so nothing is sorted.
//
// Concurrency:
//
//	muVert guards vertices; muEdgeAdj guards edges and adjacency. Readers may
//	query a Graph from several goroutines while a single writer mutates it.
//
// Errors:
//
//	ErrEmptyVertexID    - zero-length vertex ID.
//	ErrEmptyEdgeID      - zero-length edge ID.
//	ErrVertexNotFound   - missing vertex.
//	ErrEdgeNotFound     - missing edge.
//	ErrDuplicateVertex  - AddVertex with an existing ID when strict.
//	ErrDuplicateEdge    - AddEdge with an existing ID.
//	ErrLoopNotAllowed   - self-loop when loops are disabled.
package core
