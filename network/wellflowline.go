package network

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/core"
	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/topology"
	"github.com/equinor/neqnet/units"
	"github.com/equinor/neqnet/well"
)

// Endpoint iteration defaults.
const (
	DefaultIterationTolerance = 1e-4 // bar
	DefaultMaxIterations      = 20
	minEndpointGuess          = 0.1 // bara
)

// WellFlowlineNetwork gathers wells through flowlines into manifolds and on
// to an arrival manifold, optionally followed by a facility pipeline.
//
// The network starts with one manifold named "<name> arrival manifold".
// Branches added without a manifold go to the tail manifold (the last one
// created), which is also the terminal manifold.
type WellFlowlineNetwork struct {
	name   string
	logger *slog.Logger

	graph     *core.Graph
	manifolds []*ManifoldNode
	facility  element.FlowElement

	propagateToWells bool
	forceFlowSolve   bool
	target           float64 // bara
	hasTarget        bool
	tolerance        float64
	maxIterations    int

	terminalPressure    float64
	hasTerminalPressure bool
	residual            float64
	iterations          int
	simTime             float64
	lastID              uuid.UUID
}

// NewWellFlowlineNetwork creates a network holding only its arrival manifold.
func NewWellFlowlineNetwork(name string, opts ...Option) *WellFlowlineNetwork {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	n := &WellFlowlineNetwork{
		name:             name,
		logger:           s.logger,
		graph:            core.NewGraph(),
		propagateToWells: true,
		forceFlowSolve:   true,
		tolerance:        DefaultIterationTolerance,
		maxIterations:    DefaultMaxIterations,
		residual:         math.NaN(),
	}
	// a fresh graph accepts any non-empty name
	_, _ = n.CreateManifold(name + " arrival manifold")

	return n
}

// Name returns the network name.
func (n *WellFlowlineNetwork) Name() string { return n.name }

// CreateManifold appends an unconnected manifold. It becomes the tail.
func (n *WellFlowlineNetwork) CreateManifold(name string) (*ManifoldNode, error) {
	if n.graph.HasVertex(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateManifold, name)
	}
	if err := n.graph.AddVertex(name, core.WithVertexKind(manifoldVertexKind)); err != nil {
		return nil, fmt.Errorf("network: manifold %q: %w", name, err)
	}
	m := newManifold(name)
	n.manifolds = append(n.manifolds, m)

	return m, nil
}

// AddBranch attaches well -> [choke] -> pipeline to manifold. A nil manifold
// selects the tail manifold; a nil choke means no choke.
func (n *WellFlowlineNetwork) AddBranch(name string, w well.Inflow, pipeline element.FlowElement, choke *element.Choke, manifold *ManifoldNode) (*Branch, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: well of branch %q", ErrNilElement, name)
	}
	if pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline of branch %q", ErrNilElement, name)
	}
	if manifold == nil {
		manifold = n.Tail()
	} else if !n.owns(manifold) {
		return nil, fmt.Errorf("%w: %q", ErrManifoldNotFound, manifold.Name())
	}
	b := newBranch(name, w, pipeline, choke)
	manifold.branches = append(manifold.branches, b)
	manifold.mixer.AddStream(pipeline.OutletStream())

	return b, nil
}

// AddManifold appends a manifold fed from the current tail through connection.
func (n *WellFlowlineNetwork) AddManifold(name string, connection element.FlowElement) (*ManifoldNode, error) {
	if connection == nil {
		return nil, fmt.Errorf("%w: connection pipeline of %q", ErrNilElement, name)
	}
	prev := n.Tail()
	if prev.outbound != nil {
		return nil, fmt.Errorf("%w: %q", ErrOutboundExists, prev.Name())
	}
	if n.graph.HasEdge(connection.Name()) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePipeline, connection.Name())
	}
	m, err := n.CreateManifold(name)
	if err != nil {
		return nil, err
	}
	// both ends exist and the edge id was checked above
	_ = n.link(prev, m, connection)

	return m, nil
}

// ConnectManifolds joins up to down through connection.
func (n *WellFlowlineNetwork) ConnectManifolds(up, down *ManifoldNode, connection element.FlowElement) error {
	if up == nil || down == nil || connection == nil {
		return fmt.Errorf("%w: connect manifolds", ErrNilElement)
	}
	if !n.owns(up) {
		return fmt.Errorf("%w: %q", ErrManifoldNotFound, up.Name())
	}
	if !n.owns(down) {
		return fmt.Errorf("%w: %q", ErrManifoldNotFound, down.Name())
	}
	if up.outbound != nil {
		return fmt.Errorf("%w: %q", ErrOutboundExists, up.Name())
	}
	if n.graph.HasEdge(connection.Name()) {
		return fmt.Errorf("%w: %q", ErrDuplicatePipeline, connection.Name())
	}

	return n.link(up, down, connection)
}

func (n *WellFlowlineNetwork) link(up, down *ManifoldNode, connection element.FlowElement) error {
	if err := n.graph.AddEdge(connection.Name(), up.Name(), down.Name(), core.WithEdgeKind(manifoldEdgeKind)); err != nil {
		return fmt.Errorf("network: pipeline %q: %w", connection.Name(), err)
	}
	connection.SetInletStream(up.OutletStream())
	up.outbound = connection
	up.downstream = down.Name()
	down.upstream = append(down.upstream, connection)
	down.mixer.AddStream(connection.OutletStream())

	return nil
}

// SetFacilityPipeline sets (or with nil clears) the pipeline after the arrival manifold.
func (n *WellFlowlineNetwork) SetFacilityPipeline(p element.FlowElement) {
	n.facility = p
	if p != nil {
		p.SetInletStream(n.Tail().OutletStream())
	}
}

// FacilityPipeline returns the facility pipeline or nil.
func (n *WellFlowlineNetwork) FacilityPipeline() element.FlowElement { return n.facility }

// SetPropagateArrivalPressureToWells controls whether manifold pressures
// become the next wellhead pressure of flow-from-pressure wells.
func (n *WellFlowlineNetwork) SetPropagateArrivalPressureToWells(on bool) { n.propagateToWells = on }

// SetForceFlowFromPressureSolve switches calc-outlet wells to flow-from-pressure before each run.
func (n *WellFlowlineNetwork) SetForceFlowFromPressureSolve(on bool) { n.forceFlowSolve = on }

// SetTargetEndpointPressure enables endpoint matching at the facility outlet,
// or at the arrival manifold without a facility pipeline.
func (n *WellFlowlineNetwork) SetTargetEndpointPressure(p float64, unit string) error {
	bara, err := units.ToBara(p, unit)
	if err != nil {
		return err
	}
	n.target = bara
	n.hasTarget = true

	return nil
}

// ClearTargetEndpointPressure disables endpoint matching.
func (n *WellFlowlineNetwork) ClearTargetEndpointPressure() { n.hasTarget = false }

// SetIterationTolerance sets the endpoint tolerance in bar. Non-positive values are ignored.
func (n *WellFlowlineNetwork) SetIterationTolerance(tol float64) {
	if tol > 0 {
		n.tolerance = tol
	}
}

// SetMaxIterations sets the endpoint iteration cap. Negative values are ignored.
func (n *WellFlowlineNetwork) SetMaxIterations(iters int) {
	if iters >= 0 {
		n.maxIterations = iters
	}
}

// Manifolds returns the manifolds in creation order.
func (n *WellFlowlineNetwork) Manifolds() []*ManifoldNode {
	return append([]*ManifoldNode(nil), n.manifolds...)
}

// Tail returns the last created manifold, which is the terminal manifold.
func (n *WellFlowlineNetwork) Tail() *ManifoldNode { return n.manifolds[len(n.manifolds)-1] }

// Branches returns every branch, grouped by manifold in creation order.
func (n *WellFlowlineNetwork) Branches() []*Branch {
	var out []*Branch
	for _, m := range n.manifolds {
		out = append(out, m.branches...)
	}

	return out
}

// ArrivalMixer returns the tail manifold mixer.
func (n *WellFlowlineNetwork) ArrivalMixer() *stream.Mixer { return n.Tail().Mixer() }

// ArrivalStream returns the arrival mixer outlet, or nil when nothing delivers to it.
func (n *WellFlowlineNetwork) ArrivalStream() *stream.Stream {
	mx := n.Tail().Mixer()
	if mx.NumberOfInputStreams() == 0 {
		return nil
	}

	return mx.Outlet()
}

// ExecutionOrder returns manifold names in the order Run visits them.
func (n *WellFlowlineNetwork) ExecutionOrder() ([]string, error) {
	return topology.ExecutionOrder(n.graph)
}

// TerminalManifoldPressure returns the terminal pressure used by the last
// endpoint-matching run. ok is false if no such run happened.
func (n *WellFlowlineNetwork) TerminalManifoldPressure(unit string) (p float64, ok bool, err error) {
	if !n.hasTerminalPressure {
		return 0, false, nil
	}
	p, err = units.FromBara(n.terminalPressure, unit)
	if err != nil {
		return 0, false, err
	}

	return p, true, nil
}

// EndpointResidual returns achieved minus target endpoint pressure (bar)
// after the last endpoint-matching run. It is NaN before any such run and
// after one that failed before its first solve.
func (n *WellFlowlineNetwork) EndpointResidual() float64 { return n.residual }

// EndpointIterations returns the correction steps taken by the last endpoint-matching run.
func (n *WellFlowlineNetwork) EndpointIterations() int { return n.iterations }

// EndpointConverged reports whether the last endpoint-matching run met the tolerance.
func (n *WellFlowlineNetwork) EndpointConverged() bool {
	return n.hasTerminalPressure && math.Abs(n.residual) <= n.tolerance
}

// SimulationTime returns the accumulated transient time in seconds.
func (n *WellFlowlineNetwork) SimulationTime() float64 { return n.simTime }

// ResetSimulationTime zeroes the transient clock.
func (n *WellFlowlineNetwork) ResetSimulationTime() { n.simTime = 0 }

// CalculationIdentifier returns the id of the last run.
func (n *WellFlowlineNetwork) CalculationIdentifier() uuid.UUID { return n.lastID }

// Run solves the network once. Without branches it does nothing.
func (n *WellFlowlineNetwork) Run(id uuid.UUID) error {
	if len(n.Branches()) == 0 {
		return nil
	}
	n.lastID = id
	if n.hasTarget {
		return n.iterateEndpoint(id)
	}
	if err := n.runManifolds(id, false, 0); err != nil {
		return err
	}
	if err := n.runFacility(id); err != nil {
		return err
	}

	return n.enforcePressures(id)
}

// RunTransient advances every branch and connection by dt seconds.
//
// With an endpoint target set the step is quasi-steady: the clock advances
// by dt but the endpoint problem is re-solved with steady-state Run calls, so
// pipe holdup and lag state do not evolve during the step.
func (n *WellFlowlineNetwork) RunTransient(dt float64, id uuid.UUID) error {
	if len(n.Branches()) == 0 {
		return nil
	}
	n.lastID = id
	n.simTime += dt
	if n.hasTarget {
		return n.iterateEndpoint(id)
	}
	order, err := n.ExecutionOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		m := n.manifold(name)
		for _, b := range m.branches {
			if err = b.RunTransient(dt, id); err != nil {
				return err
			}
		}
		m.mix()
		if m.outbound != nil {
			m.outbound.SetInletStream(m.OutletStream())
			if err = m.outbound.RunTransient(dt, id); err != nil {
				return fmt.Errorf("network: manifold %q: %w", name, err)
			}
		}
	}
	if n.facility != nil {
		n.facility.SetInletStream(n.Tail().OutletStream())
		if err = n.facility.RunTransient(dt, id); err != nil {
			return fmt.Errorf("network: facility pipeline: %w", err)
		}
	}

	return n.enforcePressures(id)
}

// iterateEndpoint corrects the terminal pressure guess by the endpoint error
// until it is within tolerance, then harmonises once more.
//
// A failed run leaves the network not converged: the residual is NaN until
// the first run succeeds and then tracks the last successful run.
func (n *WellFlowlineNetwork) iterateEndpoint(id uuid.UUID) error {
	n.iterations, n.residual = 0, math.NaN()
	guess := n.target
	achieved, err := n.runAtTerminal(guess, id)
	if err != nil {
		return err
	}
	n.residual = achieved - n.target
	for i := 0; i < n.maxIterations && math.Abs(n.residual) > n.tolerance; i++ {
		guess = math.Max(minEndpointGuess, guess-n.residual)
		if achieved, err = n.runAtTerminal(guess, id); err != nil {
			return err
		}
		n.iterations++
		n.residual = achieved - n.target
		n.logger.Debug("endpoint iteration",
			slog.String("network", n.name),
			slog.Int("iter", n.iterations),
			slog.Float64("guess_bara", guess),
			slog.Float64("achieved_bara", achieved))
	}
	if math.Abs(n.residual) > n.tolerance {
		n.logger.Warn("endpoint pressure not matched",
			slog.String("network", n.name),
			slog.Int("iterations", n.iterations),
			slog.Float64("residual_bar", n.residual))
	}

	return n.enforcePressures(id)
}

// runAtTerminal runs the network with the terminal manifold held at p and
// returns the endpoint pressure.
func (n *WellFlowlineNetwork) runAtTerminal(p float64, id uuid.UUID) (float64, error) {
	n.terminalPressure = p
	n.hasTerminalPressure = true
	if err := n.runManifolds(id, true, p); err != nil {
		return 0, err
	}
	if n.facility != nil {
		if err := n.runFacility(id); err != nil {
			return 0, err
		}

		return n.facility.OutletPressure(), nil
	}

	return n.Tail().Pressure(), nil
}

func (n *WellFlowlineNetwork) runManifolds(id uuid.UUID, force bool, p float64) error {
	order, err := n.ExecutionOrder()
	if err != nil {
		return err
	}
	tail := n.Tail()
	for _, name := range order {
		m := n.manifold(name)
		if err = n.runManifold(m, id, force && m == tail, p); err != nil {
			return err
		}
	}

	return nil
}

// runManifold solves one manifold.
//
// Steps:
//  1. Run branches, forcing the delivery pressure when override is set.
//  2. Mix branch and upstream connection outlets.
//  3. Write the manifold pressure onto every inbound outlet, re-mix.
//  4. Run the outbound connection.
func (n *WellFlowlineNetwork) runManifold(m *ManifoldNode, id uuid.UUID, override bool, forced float64) error {
	// 1) branches
	for _, b := range m.branches {
		if n.forceFlowSolve && b.well.IsCalculatingOutletPressure() {
			b.well.SolveFlowFromOutletPressure(true)
		}
		if override {
			if err := b.force(forced); err != nil {
				return fmt.Errorf("network: branch %q: %w", b.name, err)
			}
		}
		if err := b.Run(id); err != nil {
			return err
		}
	}

	// 2) mix
	m.mix()

	// 3) harmonise
	p := m.Pressure()
	if override {
		p = forced
		_ = m.OutletStream().SetPressure(p, "bara")
	}
	if err := m.harmonise(p, n.propagateToWells); err != nil {
		return err
	}
	m.mix()

	// 4) outbound
	if m.outbound != nil {
		m.outbound.SetInletStream(m.OutletStream())
		if err := m.outbound.Run(id); err != nil {
			return fmt.Errorf("network: manifold %q: %w", m.name, err)
		}
	}

	return nil
}

func (n *WellFlowlineNetwork) runFacility(id uuid.UUID) error {
	if n.facility == nil {
		return nil
	}
	n.facility.SetInletStream(n.Tail().OutletStream())
	if err := n.facility.Run(id); err != nil {
		return fmt.Errorf("network: facility pipeline: %w", err)
	}

	return nil
}

// enforcePressures writes each manifold pressure back onto its inbound
// outlets, re-mixes, and re-runs the facility pipeline.
func (n *WellFlowlineNetwork) enforcePressures(id uuid.UUID) error {
	for _, m := range n.manifolds {
		if m.mixer.NumberOfInputStreams() == 0 {
			continue
		}
		p := m.Pressure()
		if err := m.harmonise(p, n.propagateToWells); err != nil {
			return err
		}
		m.mix()
	}

	return n.runFacility(id)
}

func (n *WellFlowlineNetwork) manifold(name string) *ManifoldNode {
	for _, m := range n.manifolds {
		if m.name == name {
			return m
		}
	}

	return nil
}

func (n *WellFlowlineNetwork) owns(m *ManifoldNode) bool {
	return n.manifold(m.name) == m
}
