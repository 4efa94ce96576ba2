package config

import (
	"log/slog"
	"strings"

	"github.com/equinor/neqnet/hardycross"
)

// Looped describes a hardycross.LoopedNetwork.
type Looped struct {
	Name          string       `yaml:"name"`
	Solver        string       `yaml:"solver,omitempty"` // hardy-cross | sequential
	Fluid         LoopedFluid  `yaml:"fluid,omitempty"`
	Tolerance     float64      `yaml:"tolerance,omitempty"` // Pa
	MaxIterations int          `yaml:"max_iterations,omitempty"`
	Relaxation    float64      `yaml:"relaxation,omitempty"`
	Nodes         []LoopedNode `yaml:"nodes"`
	Pipes         []LoopedPipe `yaml:"pipes"`
}

// LoopedFluid is the single-phase fluid of a looped network.
type LoopedFluid struct {
	Density   float64 `yaml:"density,omitempty"`   // kg/m³
	Viscosity float64 `yaml:"viscosity,omitempty"` // Pa·s
}

// LoopedNode is a source, sink or junction.
type LoopedNode struct {
	Name          string  `yaml:"name"`
	Type          string  `yaml:"type"`
	PressureBara  float64 `yaml:"pressure_bara,omitempty"`
	FlowKgPerHour float64 `yaml:"flow_kg_per_hour,omitempty"`
}

// LoopedPipe joins two nodes.
type LoopedPipe struct {
	Name       string  `yaml:"name"`
	From       string  `yaml:"from"`
	To         string  `yaml:"to"`
	LengthM    float64 `yaml:"length_m"`
	DiameterM  float64 `yaml:"diameter_m"`
	RoughnessM float64 `yaml:"roughness_m,omitempty"`
}

// ParseSolverType maps "hardy-cross" (also "hardy_cross", "hardycross" or
// empty) and "sequential" to a solver type.
func ParseSolverType(s string) (hardycross.SolverType, error) {
	switch strings.ReplaceAll(strings.ToLower(s), "_", "-") {
	case "", "hardy-cross", "hardycross":
		return hardycross.HardyCross, nil
	case "sequential":
		return hardycross.Sequential, nil
	}

	return 0, invalid("looped", s, "unknown solver")
}

// Build creates the network. Nodes are added before pipes so pipes may
// reference nodes declared later in the list.
func (l *Looped) Build(logger *slog.Logger) (*hardycross.LoopedNetwork, error) {
	n := hardycross.NewLoopedNetwork(l.Name)
	n.SetLogger(logger)

	solver, err := ParseSolverType(l.Solver)
	if err != nil {
		return nil, err
	}
	n.SetSolverType(solver)
	density, viscosity := hardycross.DefaultDensity, hardycross.DefaultViscosity
	if l.Fluid.Density > 0 {
		density = l.Fluid.Density
	}
	if l.Fluid.Viscosity > 0 {
		viscosity = l.Fluid.Viscosity
	}
	n.SetFluid(density, viscosity)
	n.SetTolerance(l.Tolerance)
	n.SetMaxIterations(l.MaxIterations)
	if l.Relaxation != 0 {
		if err := n.SetRelaxationFactor(l.Relaxation); err != nil {
			return nil, err
		}
	}

	for _, nc := range l.Nodes {
		var err error
		switch strings.ToLower(nc.Type) {
		case "source":
			err = n.AddSourceNode(nc.Name, nc.PressureBara, nc.FlowKgPerHour)
		case "sink":
			err = n.AddSinkNode(nc.Name, nc.FlowKgPerHour)
		case "junction", "":
			err = n.AddJunctionNode(nc.Name)
		default:
			err = invalid("node", nc.Name, "unknown type %q", nc.Type)
		}
		if err != nil {
			return nil, err
		}
	}
	for _, pc := range l.Pipes {
		p, err := n.AddPipe(pc.From, pc.To, pc.Name, pc.LengthM, pc.DiameterM)
		if err != nil {
			return nil, err
		}
		if pc.RoughnessM > 0 {
			p.Roughness = pc.RoughnessM
		}
	}

	return n, nil
}
