package config

import (
	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/network"
)

// PipeFlow describes a network.PipeFlowNetwork. Manifolds are created in
// list order; the last one is the terminal.
type PipeFlow struct {
	Name         string       `yaml:"name"`
	Fluid        *Fluid       `yaml:"fluid,omitempty"`
	Roughness    float64      `yaml:"roughness_m,omitempty"`
	Ambient      float64      `yaml:"ambient_temperature,omitempty"` // K
	HeatTransfer *float64     `yaml:"heat_transfer,omitempty"`       // W/(m²·K), 0 is adiabatic
	Manifolds    []string     `yaml:"manifolds"`
	Inlets       []Inlet      `yaml:"inlets"`
	Connections  []Connection `yaml:"connections"`
}

// Inlet is a feed on a pipeline into a manifold.
type Inlet struct {
	Name         string  `yaml:"name"`
	To           string  `yaml:"to"`
	PressureBara float64 `yaml:"pressure_bara"`
	FlowKgPerSec float64 `yaml:"flow_kg_per_sec"`
	LengthM      float64 `yaml:"length_m"`
	DiameterM    float64 `yaml:"diameter_m"`
	Segments     int     `yaml:"segments,omitempty"`
}

// Connection is a pipeline between two manifolds.
type Connection struct {
	Name      string  `yaml:"name"`
	From      string  `yaml:"from"`
	To        string  `yaml:"to"`
	LengthM   float64 `yaml:"length_m"`
	DiameterM float64 `yaml:"diameter_m"`
	Segments  int     `yaml:"segments,omitempty"`
}

// Build creates the network in declaration order.
func (p *PipeFlow) Build(opts ...network.Option) (*network.PipeFlowNetwork, error) {
	n := network.NewPipeFlowNetwork(p.Name, opts...)
	if p.Roughness > 0 {
		n.SetDefaultWallRoughness(p.Roughness)
	}
	if p.Ambient > 0 {
		n.SetDefaultOuterTemperature(p.Ambient)
	}
	if p.HeatTransfer != nil {
		n.SetDefaultHeatTransferCoefficient(*p.HeatTransfer)
	}
	for _, m := range p.Manifolds {
		if err := n.CreateManifold(m); err != nil {
			return nil, err
		}
	}
	fluid := p.Fluid.Stream()
	for _, in := range p.Inlets {
		feed := element.NewFeed(in.Name+" feed", fluid, in.PressureBara, in.FlowKgPerSec)
		if _, err := n.AddInletPipeline(in.Name, feed, in.To, in.LengthM, in.DiameterM, in.Segments); err != nil {
			return nil, err
		}
	}
	for _, c := range p.Connections {
		if _, err := n.ConnectManifolds(c.From, c.To, c.Name, c.LengthM, c.DiameterM, c.Segments); err != nil {
			return nil, err
		}
	}

	return n, nil
}
