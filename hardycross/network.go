package hardycross

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/capacity"
	"github.com/equinor/neqnet/core"
	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/topology"
	"github.com/equinor/neqnet/units"
)

// Configuration errors of LoopedNetwork.
var (
	ErrDuplicateNode  = errors.New("hardycross: duplicate node")
	ErrUnknownNode    = errors.New("hardycross: unknown node")
	ErrDuplicatePipe  = errors.New("hardycross: duplicate pipe")
	ErrUnknownPipe    = errors.New("hardycross: unknown pipe")
	ErrNoPressureNode = errors.New("hardycross: no source with fixed pressure")
	ErrInvalidPipe    = errors.New("hardycross: invalid pipe geometry")
	ErrFlowImbalance  = errors.New("hardycross: supplies and demands do not balance")
	ErrInvalidFlow    = errors.New("hardycross: invalid node flow")
)

// NodeType is the role of a network node.
type NodeType int

const (
	Junction NodeType = iota
	Source
	Sink
)

// String implements fmt.Stringer.
func (t NodeType) String() string {
	switch t {
	case Source:
		return "source"
	case Sink:
		return "sink"
	default:
		return "junction"
	}
}

// SolverType selects how LoopedNetwork resolves flows.
type SolverType int

const (
	// HardyCross balances every detected loop.
	HardyCross SolverType = iota
	// Sequential keeps the continuity seed unbalanced; exact on trees.
	Sequential
)

// String implements fmt.Stringer.
func (s SolverType) String() string {
	if s == Sequential {
		return "sequential"
	}

	return "hardy-cross"
}

// Default looped-network parameters.
const (
	DefaultPipeRoughness = 4.6e-5 // m, commercial steel
	DefaultDensity       = 50.0   // kg/m³
	DefaultViscosity     = 1.2e-5 // Pa·s
)

// Node is a junction, source or sink. Flow is the external injection in
// kg/s: positive for supply, negative for demand.
type Node struct {
	Name     string
	Type     NodeType
	Pressure float64 // bara; fixed for sources with HasPressure
	Flow     float64 // kg/s

	HasPressure bool
}

// NetworkPipe is a pipe of a LoopedNetwork.
type NetworkPipe struct {
	Name      string
	From      string
	To        string
	Length    float64 // m
	Diameter  float64 // m
	Roughness float64 // m

	Flow     float64 // kg/s along From→To
	HeadLoss float64 // Pa, signed with Flow
}

// Summary is a snapshot of the last Run.
type Summary struct {
	Name        string
	Solver      SolverType
	Nodes       int
	Pipes       int
	Loops       int
	Iterations  int
	MaxResidual float64 // Pa
	Converged   bool
}

// LoopedNetwork is a pipe network with sources, sinks and junctions solved
// for flows and pressures. Single-writer: callers serialise access.
type LoopedNetwork struct {
	name      string
	graph     *core.Graph
	nodes     map[string]*Node
	pipes     map[string]*NetworkPipe
	density   float64
	viscosity float64

	solver        SolverType
	tolerance     float64
	maxIterations int
	relaxation    float64
	logger        *slog.Logger

	loops      []*NetworkLoop
	loopsDirty bool

	iterations  int
	maxResidual float64
	converged   bool
	lastID      uuid.UUID
}

// NewLoopedNetwork creates an empty network.
func NewLoopedNetwork(name string) *LoopedNetwork {
	return &LoopedNetwork{
		name:          name,
		graph:         core.NewGraph(core.WithStrictVertices()),
		nodes:         make(map[string]*Node),
		pipes:         make(map[string]*NetworkPipe),
		density:       DefaultDensity,
		viscosity:     DefaultViscosity,
		tolerance:     DefaultTolerance,
		maxIterations: DefaultMaxIterations,
		relaxation:    DefaultRelaxation,
		logger:        slog.Default(),
		loopsDirty:    true,
	}
}

// Name returns the network name.
func (n *LoopedNetwork) Name() string { return n.name }

// SetLogger routes solver logs to l.
func (n *LoopedNetwork) SetLogger(l *slog.Logger) {
	if l != nil {
		n.logger = l
	}
}

func (n *LoopedNetwork) addNode(node *Node) error {
	if err := n.graph.AddVertex(node.Name, core.WithVertexKind(node.Type.String())); err != nil {
		if errors.Is(err, core.ErrDuplicateVertex) {
			return fmt.Errorf("%w: %q", ErrDuplicateNode, node.Name)
		}
		return err
	}
	n.nodes[node.Name] = node
	n.loopsDirty = true

	return nil
}

// AddSourceNode adds a supply node held at pressureBara. A non-positive
// pressure leaves the node pressure free.
func (n *LoopedNetwork) AddSourceNode(name string, pressureBara, supplyKgPerHour float64) error {
	return n.AddSource(name, pressureBara, supplyKgPerHour, "kg/hr")
}

// AddSource is AddSourceNode with the supply in any mass-rate unit.
func (n *LoopedNetwork) AddSource(name string, pressureBara, supply float64, unit string) error {
	q, err := nodeFlow(name, supply, unit)
	if err != nil {
		return err
	}

	return n.addNode(&Node{Name: name, Type: Source, Pressure: pressureBara, Flow: q, HasPressure: pressureBara > 0})
}

// AddSinkNode adds a demand node withdrawing demandKgPerHour.
func (n *LoopedNetwork) AddSinkNode(name string, demandKgPerHour float64) error {
	return n.AddSink(name, demandKgPerHour, "kg/hr")
}

// AddSink is AddSinkNode with the demand in any mass-rate unit.
func (n *LoopedNetwork) AddSink(name string, demand float64, unit string) error {
	q, err := nodeFlow(name, demand, unit)
	if err != nil {
		return err
	}

	return n.addNode(&Node{Name: name, Type: Sink, Flow: -q})
}

// nodeFlow converts an external node rate to kg/s. Rates must be finite
// and non-negative; the node type carries the sign.
func nodeFlow(name string, rate float64, unit string) (float64, error) {
	q, err := units.ToKgPerSec(rate, unit)
	if err != nil {
		return 0, fmt.Errorf("hardycross: node %q: %w", name, err)
	}
	if !(q >= 0) || math.IsInf(q, 0) {
		return 0, fmt.Errorf("%w: %q %g %s", ErrInvalidFlow, name, rate, unit)
	}

	return q, nil
}

// AddJunctionNode adds a node with no external flow.
func (n *LoopedNetwork) AddJunctionNode(name string) error {
	return n.addNode(&Node{Name: name, Type: Junction})
}

// AddPipe connects from→to. Unknown nodes and duplicate names fail without
// mutating the network.
func (n *LoopedNetwork) AddPipe(from, to, name string, lengthM, diameterM float64) (*NetworkPipe, error) {
	if lengthM <= 0 || diameterM <= 0 {
		return nil, fmt.Errorf("%w: %q length=%g diameter=%g", ErrInvalidPipe, name, lengthM, diameterM)
	}
	if _, ok := n.pipes[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePipe, name)
	}
	for _, v := range [...]string{from, to} {
		if _, ok := n.nodes[v]; !ok {
			return nil, fmt.Errorf("%w: %q (pipe %q)", ErrUnknownNode, v, name)
		}
	}
	if err := n.graph.AddEdge(name, from, to, core.WithEdgeKind("pipe")); err != nil {
		return nil, fmt.Errorf("hardycross: add pipe %q: %w", name, err)
	}
	p := &NetworkPipe{Name: name, From: from, To: to, Length: lengthM, Diameter: diameterM, Roughness: DefaultPipeRoughness}
	n.pipes[name] = p
	n.loopsDirty = true

	return p, nil
}

// Pipe returns the named pipe.
func (n *LoopedNetwork) Pipe(name string) (*NetworkPipe, error) {
	p, ok := n.pipes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipe, name)
	}

	return p, nil
}

// Node returns a copy of the named node.
func (n *LoopedNetwork) Node(name string) (Node, error) {
	node, ok := n.nodes[name]
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownNode, name)
	}

	return *node, nil
}

// Graph exposes the topology. Callers must not mutate it.
func (n *LoopedNetwork) Graph() *core.Graph { return n.graph }

// SetFluid sets the density (kg/m³) and viscosity (Pa·s) used by every pipe.
func (n *LoopedNetwork) SetFluid(density, viscosity float64) {
	n.density, n.viscosity = density, viscosity
}

// SetSolverType selects Hardy-Cross or sequential resolution.
func (n *LoopedNetwork) SetSolverType(s SolverType) { n.solver = s }

// SetTolerance sets the loop tolerance in Pa.
func (n *LoopedNetwork) SetTolerance(pa float64) {
	if pa > 0 {
		n.tolerance = pa
		for _, l := range n.loops {
			l.SetTolerance(pa)
		}
	}
}

// SetMaxIterations caps the Hardy-Cross sweeps.
func (n *LoopedNetwork) SetMaxIterations(it int) {
	if it > 0 {
		n.maxIterations = it
	}
}

// SetRelaxationFactor scales corrections; r must be in (0, 1.5].
func (n *LoopedNetwork) SetRelaxationFactor(r float64) error {
	if err := ValidateRelaxation(r); err != nil {
		return err
	}
	n.relaxation = r

	return nil
}

// Loops returns the detected loops, detecting them if topology changed.
func (n *LoopedNetwork) Loops() ([]*NetworkLoop, error) {
	if n.loopsDirty {
		loops, err := LoopsFromTopology(n.graph, n.tolerance)
		if err != nil {
			return nil, err
		}
		n.loops = loops
		n.loopsDirty = false
	}

	return n.loops, nil
}

// HeadLoss returns the signed Darcy-Weisbach head loss (Pa) of pipe p at q.
func (n *LoopedNetwork) HeadLoss(p *NetworkPipe, q float64) float64 {
	return element.DarcyPressureDrop(q, n.density, n.viscosity, p.Length, p.Diameter, p.Roughness)
}

// Run solves flows and pressures.
//
// Steps:
//  1. Check a fixed-pressure source exists; detect loops if needed.
//  2. Seed flows that satisfy continuity at every node.
//  3. Balance loops (HardyCross) or keep the seed (Sequential).
//  4. Propagate pressures breadth-first from fixed-pressure sources.
func (n *LoopedNetwork) Run(id uuid.UUID) error {
	// 1) preconditions
	var starts []string
	balance := make(map[string]float64, len(n.nodes))
	for _, v := range n.graph.Vertices() {
		node := n.nodes[v]
		if node.Type == Source && node.HasPressure {
			starts = append(starts, v)
		}
		if node.Flow != 0 {
			balance[v] = node.Flow
		}
	}
	if len(starts) == 0 {
		return ErrNoPressureNode
	}
	loops, err := n.Loops()
	if err != nil {
		return err
	}

	// 2) continuity seed
	seed, err := capacity.Seed(n.graph, balance, capacity.FlowOptions{Logger: n.logger})
	if err != nil {
		if errors.Is(err, capacity.ErrImbalanced) || errors.Is(err, capacity.ErrInfeasible) {
			return fmt.Errorf("%w: %w", ErrFlowImbalance, err)
		}
		return err
	}
	flows := FlowState(seed)

	// 3) loops
	n.iterations, n.maxResidual, n.converged = 0, 0, true
	if n.solver == HardyCross && len(loops) > 0 {
		b, err := NewBalancer(
			WithMaxIterations(n.maxIterations),
			WithRelaxation(n.relaxation),
			WithLogger(n.logger),
		)
		if err != nil {
			return err
		}
		res, err := b.Balance(loops, flows, func(eid string, q float64) float64 {
			return n.HeadLoss(n.pipes[eid], q)
		})
		if err != nil {
			return err
		}
		n.iterations, n.maxResidual, n.converged = res.Iterations, res.MaxResidual, res.Converged
	} else if len(loops) > 0 {
		for _, l := range loops {
			var sum float64
			for _, m := range l.members {
				sum += float64(m.Direction) * n.HeadLoss(n.pipes[m.ElementID], flows[m.ElementID])
			}
			l.lastImbalance = sum
			n.maxResidual = math.Max(n.maxResidual, math.Abs(sum))
		}
		n.converged = n.maxResidual < n.tolerance
	}
	for name, p := range n.pipes {
		p.Flow = flows[name]
		p.HeadLoss = n.HeadLoss(p, p.Flow)
	}

	// 4) pressures
	err = topology.Walk(n.graph, starts, func(s topology.Step) error {
		p := n.pipes[s.EdgeID]
		drop := p.HeadLoss / 1e5
		if !s.Forward {
			drop = -drop
		}
		n.nodes[s.To].Pressure = n.nodes[s.From].Pressure - drop
		return nil
	})
	if err != nil {
		return err
	}
	n.lastID = id
	n.logger.Info("looped network solved",
		"network", n.name, "solver", n.solver.String(), "loops", len(loops),
		"iterations", n.iterations, "max_residual_pa", n.maxResidual, "converged", n.converged)

	return nil
}

// PipeFlowRate returns the pipe flow in a mass-rate unit.
func (n *LoopedNetwork) PipeFlowRate(name, unit string) (float64, error) {
	p, err := n.Pipe(name)
	if err != nil {
		return 0, err
	}

	return units.FromKgPerSec(p.Flow, unit)
}

// NodePressure returns the node pressure in a pressure unit.
func (n *LoopedNetwork) NodePressure(name, unit string) (float64, error) {
	node, err := n.Node(name)
	if err != nil {
		return 0, err
	}

	return units.FromBara(node.Pressure, unit)
}

// IterationCount returns the sweeps of the last Run.
func (n *LoopedNetwork) IterationCount() int { return n.iterations }

// MaxResidual returns the largest loop imbalance (Pa) of the last Run.
func (n *LoopedNetwork) MaxResidual() float64 { return n.maxResidual }

// Converged reports whether the last Run balanced every loop.
func (n *LoopedNetwork) Converged() bool { return n.converged }

// CalculationIdentifier returns the id of the last Run.
func (n *LoopedNetwork) CalculationIdentifier() uuid.UUID { return n.lastID }

// Summary returns a snapshot of the last Run.
func (n *LoopedNetwork) Summary() Summary {
	return Summary{
		Name:        n.name,
		Solver:      n.solver,
		Nodes:       len(n.nodes),
		Pipes:       len(n.pipes),
		Loops:       len(n.loops),
		Iterations:  n.iterations,
		MaxResidual: n.maxResidual,
		Converged:   n.converged,
	}
}

// Throughput reports the maximum mass flow (kg/s) the pipes can carry from
// the sources to the sinks when no pipe exceeds maxVelocity (m/s).
func (n *LoopedNetwork) Throughput(maxVelocity float64) (*capacity.Result, error) {
	g := core.NewGraph()
	for _, v := range n.graph.Vertices() {
		_ = g.AddVertex(v)
	}
	var sources, sinks []string
	for _, v := range n.graph.Vertices() {
		switch n.nodes[v].Type {
		case Source:
			sources = append(sources, v)
		case Sink:
			sinks = append(sinks, v)
		}
	}
	for _, e := range n.graph.Edges() {
		p := n.pipes[e.ID]
		area := math.Pi * p.Diameter * p.Diameter / 4
		if err := g.AddEdge(e.ID, e.From, e.To, core.WithCapacity(n.density*area*maxVelocity)); err != nil {
			return nil, err
		}
	}

	return capacity.Throughput(g, sources, sinks, capacity.FlowOptions{Undirected: true, Logger: n.logger})
}
