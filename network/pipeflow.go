package network

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/core"
	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/topology"
)

// Pipe defaults applied to pipelines created by a PipeFlowNetwork.
const (
	DefaultWallRoughness     = element.DefaultRoughness
	DefaultOuterTemperature  = 278.0 // K
	DefaultOuterHeatTransfer = 5.0   // W/m²K, pipe to surroundings
	DefaultWallHeatTransfer  = 15.0  // W/m²K, through the wall

	manifoldEdgeKind   = "pipeline"
	manifoldVertexKind = "manifold"
)

// Segment is a pipeline registered in a PipeFlowNetwork. From is empty for
// inlet pipelines fed by a boundary feed.
type Segment struct {
	Name string
	Pipe *element.Pipe
	From string
	To   string
}

// IsInlet reports whether the segment starts at a feed.
func (s Segment) IsInlet() bool { return s.From == "" }

// PipeFlowNetwork routes feeds through pipelines and manifolds to a terminal
// manifold. The last manifold created is the terminal one.
type PipeFlowNetwork struct {
	name   string
	logger *slog.Logger

	graph     *core.Graph
	manifolds map[string]*ManifoldNode
	segments  []Segment
	feeds     []*element.Feed
	terminal  string

	roughness float64
	ambient   float64
	uValue    float64

	simTime     float64
	initialized bool
	lastID      uuid.UUID
}

// NewPipeFlowNetwork creates an empty network.
func NewPipeFlowNetwork(name string, opts ...Option) *PipeFlowNetwork {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	return &PipeFlowNetwork{
		name:      name,
		logger:    s.logger,
		graph:     core.NewGraph(),
		manifolds: make(map[string]*ManifoldNode),
		roughness: DefaultWallRoughness,
		ambient:   DefaultOuterTemperature,
		uValue:    seriesU(DefaultOuterHeatTransfer, DefaultWallHeatTransfer),
	}
}

// Name returns the network name.
func (n *PipeFlowNetwork) Name() string { return n.name }

// SetDefaultWallRoughness sets the roughness (m) of pipelines created afterwards.
func (n *PipeFlowNetwork) SetDefaultWallRoughness(r float64) { n.roughness = r }

// SetDefaultOuterTemperature sets the ambient temperature (K) of pipelines created afterwards.
func (n *PipeFlowNetwork) SetDefaultOuterTemperature(k float64) { n.ambient = k }

// SetDefaultHeatTransferCoefficient sets the overall U-value (W/m²K) of
// pipelines created afterwards. Zero makes them adiabatic.
func (n *PipeFlowNetwork) SetDefaultHeatTransferCoefficient(u float64) { n.uValue = u }

// SetDefaultHeatTransferCoefficients combines an outer film and a wall
// coefficient in series into the overall U-value.
func (n *PipeFlowNetwork) SetDefaultHeatTransferCoefficients(outer, wall float64) {
	n.uValue = seriesU(outer, wall)
}

// CreateManifold adds a manifold. It becomes the terminal manifold.
func (n *PipeFlowNetwork) CreateManifold(name string) error {
	if _, ok := n.manifolds[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateManifold, name)
	}
	if err := n.graph.AddVertex(name, core.WithVertexKind(manifoldVertexKind)); err != nil {
		return fmt.Errorf("network: manifold %q: %w", name, err)
	}
	n.manifolds[name] = newManifold(name)
	n.terminal = name

	return nil
}

// AddInletPipeline creates a pipeline from feed into manifold to.
func (n *PipeFlowNetwork) AddInletPipeline(name string, feed *element.Feed, to string, length, diameter float64, segments int) (Segment, error) {
	if feed == nil {
		return Segment{}, fmt.Errorf("%w: feed for pipeline %q", ErrNilElement, name)
	}
	m, ok := n.manifolds[to]
	if !ok {
		return Segment{}, fmt.Errorf("%w: %q", ErrManifoldNotFound, to)
	}
	if n.hasSegment(name) {
		return Segment{}, fmt.Errorf("%w: %q", ErrDuplicatePipeline, name)
	}
	pipe, err := n.newPipe(name, feed.OutletStream(), length, diameter, segments)
	if err != nil {
		return Segment{}, err
	}

	seg := Segment{Name: name, Pipe: pipe, To: to}
	n.feeds = append(n.feeds, feed)
	m.inlets = append(m.inlets, pipe)
	m.mixer.AddStream(pipe.OutletStream())
	n.segments = append(n.segments, seg)

	return seg, nil
}

// ConnectManifolds creates a pipeline from manifold from into manifold to.
// A manifold has at most one outbound pipeline.
//
// Steps:
//  1. Validate both manifolds, the outbound slot and the name.
//  2. Build the pipe on the upstream mixer outlet.
//  3. Register the graph edge, then the manifold links.
func (n *PipeFlowNetwork) ConnectManifolds(from, to, name string, length, diameter float64, segments int) (Segment, error) {
	// 1) validate
	up, ok := n.manifolds[from]
	if !ok {
		return Segment{}, fmt.Errorf("%w: source %q", ErrManifoldNotFound, from)
	}
	down, ok := n.manifolds[to]
	if !ok {
		return Segment{}, fmt.Errorf("%w: target %q", ErrManifoldNotFound, to)
	}
	if up.outbound != nil {
		return Segment{}, fmt.Errorf("%w: %q", ErrOutboundExists, from)
	}
	if n.hasSegment(name) {
		return Segment{}, fmt.Errorf("%w: %q", ErrDuplicatePipeline, name)
	}

	// 2) pipe
	pipe, err := n.newPipe(name, up.OutletStream(), length, diameter, segments)
	if err != nil {
		return Segment{}, err
	}

	// 3) link
	if err = n.graph.AddEdge(name, from, to, core.WithEdgeKind(manifoldEdgeKind)); err != nil {
		return Segment{}, fmt.Errorf("network: pipeline %q: %w", name, err)
	}
	up.outbound = pipe
	up.downstream = to
	down.upstream = append(down.upstream, pipe)
	down.mixer.AddStream(pipe.OutletStream())
	seg := Segment{Name: name, Pipe: pipe, From: from, To: to}
	n.segments = append(n.segments, seg)

	return seg, nil
}

// Pipelines returns all segments in creation order.
func (n *PipeFlowNetwork) Pipelines() []Segment {
	return append([]Segment(nil), n.segments...)
}

// Manifolds returns the manifolds in creation order.
func (n *PipeFlowNetwork) Manifolds() []*ManifoldNode {
	names := n.graph.Vertices()
	out := make([]*ManifoldNode, len(names))
	for i, v := range names {
		out[i] = n.manifolds[v]
	}

	return out
}

// Manifold returns the named manifold.
func (n *PipeFlowNetwork) Manifold(name string) (*ManifoldNode, bool) {
	m, ok := n.manifolds[name]

	return m, ok
}

// TerminalManifold returns the last created manifold, or nil.
func (n *PipeFlowNetwork) TerminalManifold() *ManifoldNode { return n.manifolds[n.terminal] }

// OutletStream returns the terminal mixer outlet, or nil without manifolds.
func (n *PipeFlowNetwork) OutletStream() *stream.Stream {
	t := n.TerminalManifold()
	if t == nil {
		return nil
	}

	return t.OutletStream()
}

// ExecutionOrder returns manifold names in the order Run visits them.
func (n *PipeFlowNetwork) ExecutionOrder() ([]string, error) {
	return topology.ExecutionOrder(n.graph)
}

// Graph exposes the manifold graph: manifolds as vertices, connection
// pipelines as edges.
func (n *PipeFlowNetwork) Graph() *core.Graph { return n.graph }

// SimulationTime returns the accumulated transient time in seconds.
func (n *PipeFlowNetwork) SimulationTime() float64 { return n.simTime }

// ResetSimulationTime zeroes the network clock and every pipeline clock.
func (n *PipeFlowNetwork) ResetSimulationTime() {
	n.simTime = 0
	for _, s := range n.segments {
		s.Pipe.ResetSimulationTime()
	}
}

// CalculationIdentifier returns the id of the last run.
func (n *PipeFlowNetwork) CalculationIdentifier() uuid.UUID { return n.lastID }

// Run solves the steady state. A network without pipelines is a no-op.
// Run resets the transient clock.
func (n *PipeFlowNetwork) Run(id uuid.UUID) error {
	if len(n.segments) == 0 {
		return nil
	}
	if err := n.sweep(func(el element.FlowElement) error { return el.Run(id) }, id); err != nil {
		return err
	}
	n.initialized = true
	n.simTime = 0
	n.lastID = id
	n.logger.Debug("pipe network solved",
		slog.String("network", n.name),
		slog.Float64("outlet_bara", n.OutletStream().Pressure()),
		slog.Float64("outlet_kg_s", n.OutletStream().MassFlow()))

	return nil
}

// RunTransient advances every pipeline by dt seconds. The first call on an
// unsolved network runs the steady state first.
func (n *PipeFlowNetwork) RunTransient(dt float64, id uuid.UUID) error {
	if len(n.segments) == 0 {
		return nil
	}
	if !n.initialized {
		if err := n.Run(id); err != nil {
			return err
		}
	}
	if err := n.sweep(func(el element.FlowElement) error { return el.RunTransient(dt, id) }, id); err != nil {
		return err
	}
	n.simTime += dt
	n.lastID = id

	return nil
}

// PressureProfile returns the node pressures of pipeline name in unit.
func (n *PipeFlowNetwork) PressureProfile(name, unit string) ([]float64, error) {
	s, err := n.segment(name)
	if err != nil {
		return nil, err
	}

	return s.Pipe.PressureProfile(unit)
}

// TemperatureProfile returns the node temperatures of pipeline name in "K" or "C".
func (n *PipeFlowNetwork) TemperatureProfile(name, unit string) ([]float64, error) {
	s, err := n.segment(name)
	if err != nil {
		return nil, err
	}

	return s.Pipe.TemperatureProfile(unit)
}

// VelocityProfile returns the node velocities (m/s) of pipeline name.
func (n *PipeFlowNetwork) VelocityProfile(name string) ([]float64, error) {
	s, err := n.segment(name)
	if err != nil {
		return nil, err
	}

	return s.Pipe.VelocityProfile(), nil
}

// TotalPressureDrop sums inlet-minus-outlet pressure over every pipeline.
func (n *PipeFlowNetwork) TotalPressureDrop(unit string) (float64, error) {
	var total float64
	for _, s := range n.segments {
		prof, err := s.Pipe.PressureProfile(unit)
		if err != nil {
			return 0, err
		}
		if len(prof) >= 2 {
			total += prof[0] - prof[len(prof)-1]
		}
	}

	return total, nil
}

// sweep visits manifolds in execution order applying step to inbound and
// outbound elements.
//
// Steps per manifold:
//  1. Step the inlet pipelines.
//  2. Mix, write the mixed pressure onto inbound outlets, re-mix.
//  3. Step the outbound pipeline.
func (n *PipeFlowNetwork) sweep(step func(element.FlowElement) error, id uuid.UUID) error {
	for _, f := range n.feeds {
		if err := f.Run(id); err != nil {
			return err
		}
	}
	order, err := n.ExecutionOrder()
	if err != nil {
		return err
	}
	for _, name := range order {
		m := n.manifolds[name]
		// 1) inlets
		for _, el := range m.inlets {
			if err = step(el); err != nil {
				return fmt.Errorf("network: manifold %q: %w", name, err)
			}
		}
		// 2) junction pressure
		m.mix()
		if m.mixer.NumberOfInputStreams() > 0 {
			if err = m.harmonise(m.Pressure(), false); err != nil {
				return err
			}
			m.mix()
		}
		// 3) outbound
		if m.outbound != nil {
			m.outbound.SetInletStream(m.OutletStream())
			if err = step(m.outbound); err != nil {
				return fmt.Errorf("network: manifold %q: %w", name, err)
			}
		}
	}

	return nil
}

func (n *PipeFlowNetwork) newPipe(name string, inlet *stream.Stream, length, diameter float64, segments int) (*element.Pipe, error) {
	opts := []element.PipeOption{element.WithRoughness(n.roughness)}
	if segments > 0 {
		opts = append(opts, element.WithSegments(segments))
	}
	if n.uValue > 0 {
		opts = append(opts, element.WithHeatTransfer(n.ambient, n.uValue))
	}

	return element.NewPipe(name, inlet, length, diameter, opts...)
}

func (n *PipeFlowNetwork) hasSegment(name string) bool {
	_, err := n.segment(name)

	return err == nil
}

func (n *PipeFlowNetwork) segment(name string) (Segment, error) {
	for _, s := range n.segments {
		if s.Name == name {
			return s, nil
		}
	}

	return Segment{}, fmt.Errorf("%w: %q", ErrPipelineNotFound, name)
}

// seriesU combines two heat-transfer resistances in series.
func seriesU(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}

	return 1 / (1/a + 1/b)
}
