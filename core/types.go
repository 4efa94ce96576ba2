package core

import (
	"errors"
	"sync"
)

// Sentinel errors for graph operations.
var (
	// ErrEmptyVertexID indicates that the provided vertex ID is empty.
	ErrEmptyVertexID = errors.New("core: vertex ID is empty")

	// ErrEmptyEdgeID indicates that the provided edge ID is empty.
	ErrEmptyEdgeID = errors.New("core: edge ID is empty")

	// ErrVertexNotFound indicates an operation referenced a non-existent vertex.
	ErrVertexNotFound = errors.New("core: vertex not found")

	// ErrEdgeNotFound indicates an operation referenced a non-existent edge.
	ErrEdgeNotFound = errors.New("core: edge not found")

	// ErrDuplicateVertex indicates a vertex ID is already taken (strict mode).
	ErrDuplicateVertex = errors.New("core: duplicate vertex")

	// ErrDuplicateEdge indicates an edge ID is already taken.
	ErrDuplicateEdge = errors.New("core: duplicate edge")

	// ErrLoopNotAllowed indicates a self-loop was attempted when loops are disabled.
	ErrLoopNotAllowed = errors.New("core: self-loop not allowed")
)

// Vertex is a junction of the network.
type Vertex struct {
	// ID is the unique identifier for this Vertex.
	ID string

	// Kind is a free-form role label ("source", "sink", "junction", "manifold").
	Kind string
}

// Edge is a flow element connecting two junctions in its nominal direction.
type Edge struct {
	// ID is the element name, unique within the Graph.
	ID string

	// From is the upstream vertex ID.
	From string

	// To is the downstream vertex ID.
	To string

	// Kind is a free-form role label ("pipe", "inlet", "branch").
	Kind string

	// Capacity is an optional upper bound on |flow| used by max-flow routines.
	// Zero means unbounded.
	Capacity float64
}

// GraphOption configures a Graph before creation.
type GraphOption func(g *Graph)

// WithLoops permits self-loops (edges from a vertex to itself).
func WithLoops() GraphOption {
	return func(g *Graph) { g.allowLoops = true }
}

// WithStrictVertices makes AddVertex reject an existing ID with ErrDuplicateVertex.
func WithStrictVertices() GraphOption {
	return func(g *Graph) { g.strictVertices = true }
}

// EdgeOption configures an individual edge when added.
type EdgeOption func(*Edge)

// WithEdgeKind labels the edge.
func WithEdgeKind(kind string) EdgeOption {
	return func(e *Edge) { e.Kind = kind }
}

// WithCapacity bounds the edge for max-flow routines.
func WithCapacity(c float64) EdgeOption {
	return func(e *Edge) { e.Capacity = c }
}

// VertexOption configures an individual vertex when added.
type VertexOption func(*Vertex)

// WithVertexKind labels the vertex.
func WithVertexKind(kind string) VertexOption {
	return func(v *Vertex) { v.Kind = kind }
}

// Graph is a directed multigraph keyed by caller-supplied edge IDs.
//
// muVert protects vertices and vertexOrder; muEdgeAdj protects edges,
// edgeOrder, out and in. Lock order is always muVert then muEdgeAdj.
type Graph struct {
	muVert    sync.RWMutex
	muEdgeAdj sync.RWMutex

	allowLoops     bool
	strictVertices bool

	vertices    map[string]*Vertex
	vertexOrder []string

	edges     map[string]*Edge
	edgeOrder []string

	// out[v] and in[v] hold edge IDs in insertion order.
	out map[string][]string
	in  map[string][]string
}

// NewGraph creates an empty Graph. By default loops are rejected and
// AddVertex is idempotent.
// Complexity: O(1).
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		vertices: make(map[string]*Vertex),
		edges:    make(map[string]*Edge),
		out:      make(map[string][]string),
		in:       make(map[string][]string),
	}
	for _, opt := range opts {
		opt(g)
	}

	return g
}
