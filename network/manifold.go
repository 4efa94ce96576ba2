package network

import (
	"fmt"

	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/stream"
)

// ManifoldNode is a junction: a mixer over every inbound outlet plus at most
// one outbound pipeline. A manifold without an outbound pipeline is terminal.
type ManifoldNode struct {
	name  string
	mixer *stream.Mixer

	inlets   []element.FlowElement // run at this manifold
	branches []*Branch             // run at this manifold
	upstream []element.FlowElement // run by the upstream manifold

	outbound   element.FlowElement
	downstream string
}

func newManifold(name string) *ManifoldNode {
	return &ManifoldNode{name: name, mixer: stream.NewMixer(name + " mixer")}
}

// Name returns the manifold name.
func (m *ManifoldNode) Name() string { return m.name }

// Mixer returns the manifold mixer.
func (m *ManifoldNode) Mixer() *stream.Mixer { return m.mixer }

// OutletStream returns the mixed stream.
func (m *ManifoldNode) OutletStream() *stream.Stream { return m.mixer.Outlet() }

// Pressure returns the mixed pressure in bara.
func (m *ManifoldNode) Pressure() float64 { return m.mixer.Outlet().Pressure() }

// Branches returns a copy of the well branches delivering here.
func (m *ManifoldNode) Branches() []*Branch {
	return append([]*Branch(nil), m.branches...)
}

// InboundPipelines returns the non-branch elements delivering here, inlet
// pipelines first, then connection pipelines from upstream manifolds.
func (m *ManifoldNode) InboundPipelines() []element.FlowElement {
	out := make([]element.FlowElement, 0, len(m.inlets)+len(m.upstream))
	out = append(out, m.inlets...)

	return append(out, m.upstream...)
}

// Outbound returns the outbound pipeline or nil for a terminal manifold.
func (m *ManifoldNode) Outbound() element.FlowElement { return m.outbound }

// Downstream returns the name of the manifold fed by Outbound, or "".
func (m *ManifoldNode) Downstream() string { return m.downstream }

// IsTerminal reports whether the manifold has no outbound pipeline.
func (m *ManifoldNode) IsTerminal() bool { return m.outbound == nil }

// mix re-runs the mixer if anything delivers to it.
func (m *ManifoldNode) mix() {
	if m.mixer.NumberOfInputStreams() > 0 {
		m.mixer.Run()
	}
}

// harmonise writes p (bara) onto every inbound outlet. Branch wells in
// flow-from-pressure mode also take p as their next wellhead pressure when
// toWells is set.
func (m *ManifoldNode) harmonise(p float64, toWells bool) error {
	for _, b := range m.branches {
		if err := b.settle(p, toWells); err != nil {
			return err
		}
	}
	for _, el := range m.InboundPipelines() {
		if err := el.SetOutletPressure(p, "bara"); err != nil {
			return fmt.Errorf("network: manifold %q element %q: %w", m.name, el.Name(), err)
		}
	}

	return nil
}
