package config

import (
	"strings"

	"github.com/equinor/neqnet/gathering"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/well"
)

// Gathering describes a gathering.NetworkSolver.
type Gathering struct {
	Name             string        `yaml:"name"`
	Mode             string        `yaml:"mode,omitempty"`
	ManifoldPressure *Quantity     `yaml:"manifold_pressure,omitempty"`
	MaxTotalRate     *Quantity     `yaml:"max_total_rate,omitempty"`
	TargetTotalRate  *Quantity     `yaml:"target_total_rate,omitempty"`
	Solver           *SolverParams `yaml:"solver,omitempty"`
	FlowlineModel    string        `yaml:"flowline_model,omitempty"` // simple | darcy
	Fluid            *Fluid        `yaml:"fluid,omitempty"`
	Wells            []Well        `yaml:"wells"`
}

// SolverParams are the iteration controls. Zero fields keep the defaults.
type SolverParams struct {
	Tolerance     float64 `yaml:"tolerance,omitempty"`
	MaxIterations int     `yaml:"max_iterations,omitempty"`
	Relaxation    float64 `yaml:"relaxation,omitempty"`
}

// Well describes one producer and its flowline.
type Well struct {
	Name              string   `yaml:"name"`
	ReservoirPressure float64  `yaml:"reservoir_pressure"` // bara
	Temperature       float64  `yaml:"temperature,omitempty"`
	IPR               IPR      `yaml:"ipr"`
	Tubing            *Tubing  `yaml:"tubing,omitempty"`
	Flowline          Flowline `yaml:"flowline"`
	Enabled           *bool    `yaml:"enabled,omitempty"`
	ChokeOpening      *float64 `yaml:"choke_opening,omitempty"`
}

// IPR selects an inflow model by name (well.IPRModel String form) and holds
// the parameters of every model; only those of Model are read.
type IPR struct {
	Model string    `yaml:"model"`
	PI    float64   `yaml:"pi,omitempty"`   // Sm3/day/bar²
	QMax  float64   `yaml:"qmax,omitempty"` // Sm3/day
	C     float64   `yaml:"c,omitempty"`
	N     float64   `yaml:"n,omitempty"`
	A     float64   `yaml:"a,omitempty"`
	B     float64   `yaml:"b,omitempty"`
	PWF   []float64 `yaml:"pwf,omitempty,flow"`
	Rate  []float64 `yaml:"rate,omitempty,flow"`
}

// Tubing geometry. Zero fields keep the well defaults.
type Tubing struct {
	LengthM        float64 `yaml:"length_m,omitempty"`
	DiameterM      float64 `yaml:"diameter_m,omitempty"`
	InclinationDeg float64 `yaml:"inclination_deg,omitempty"`
	RoughnessM     float64 `yaml:"roughness_m,omitempty"`
}

// Flowline geometry. Zero diameter and roughness keep the solver defaults.
type Flowline struct {
	LengthKm   float64 `yaml:"length_km"`
	DiameterM  float64 `yaml:"diameter_m,omitempty"`
	RoughnessM float64 `yaml:"roughness_m,omitempty"`
}

func (ipr IPR) option() (well.Option, error) {
	m, err := well.ParseIPRModel(strings.ToLower(ipr.Model))
	if err != nil {
		return nil, err
	}
	switch m {
	case well.Vogel:
		return well.WithVogel(ipr.QMax), nil
	case well.Fetkovich:
		return well.WithFetkovich(ipr.C, ipr.N), nil
	case well.Backpressure:
		return well.WithBackpressure(ipr.A, ipr.B), nil
	case well.Table:
		return well.WithTable(ipr.PWF, ipr.Rate), nil
	default:
		return well.WithProductivityIndex(ipr.PI), nil
	}
}

// Build assembles the well objects and a solver configured as described.
// Setter errors surface from the solver's Solve; structural problems
// (bad IPR, unknown mode or flowline model) are returned here.
func (g *Gathering) Build(opts ...gathering.Option) (*gathering.NetworkSolver, error) {
	fluid := g.Fluid.Stream()
	switch strings.ToLower(g.FlowlineModel) {
	case "", "simple":
	case "darcy":
		opts = append(opts, gathering.WithModel(gathering.DarcyFlowline{Fluid: fluid}))
	default:
		return nil, invalid("gathering", g.Name, "unknown flowline model %q", g.FlowlineModel)
	}

	s := gathering.NewNetworkSolver(g.Name, opts...).SetReferenceFluid(fluid)
	if q := g.ManifoldPressure; q != nil {
		s.SetManifoldPressure(q.Value, q.Unit)
	}
	if q := g.MaxTotalRate; q != nil {
		s.SetMaxTotalRate(q.Value, q.Unit)
	}
	if q := g.TargetTotalRate; q != nil {
		s.SetTargetTotalRate(q.Value, q.Unit)
	}
	// an explicit mode wins over the switch made by a target rate
	if g.Mode != "" {
		m, err := gathering.ParseMode(g.Mode)
		if err != nil {
			return nil, err
		}
		s.SetSolutionMode(m)
	}
	if p := g.Solver; p != nil {
		tol, iters, relax := gathering.DefaultTolerance, gathering.DefaultMaxIterations, gathering.DefaultRelaxation
		if p.Tolerance != 0 {
			tol = p.Tolerance
		}
		if p.MaxIterations != 0 {
			iters = p.MaxIterations
		}
		if p.Relaxation != 0 {
			relax = p.Relaxation
		}
		s.SetSolverParameters(tol, iters, relax)
	}

	for _, wc := range g.Wells {
		w, err := wc.build(fluid)
		if err != nil {
			return nil, err
		}
		var lineOpts []gathering.WellOption
		if wc.Flowline.DiameterM != 0 {
			lineOpts = append(lineOpts, gathering.WithFlowlineDiameter(wc.Flowline.DiameterM))
		}
		if wc.Flowline.RoughnessM != 0 {
			lineOpts = append(lineOpts, gathering.WithFlowlineRoughness(wc.Flowline.RoughnessM))
		}
		s.AddWell(w, wc.Flowline.LengthKm, lineOpts...)
		if wc.Enabled != nil {
			s.SetWellEnabled(wc.Name, *wc.Enabled)
		}
		if wc.ChokeOpening != nil {
			s.SetChokeOpening(wc.Name, *wc.ChokeOpening)
		}
	}

	return s, nil
}

func (wc Well) build(fluid stream.Fluid) (*well.Well, error) {
	if wc.Name == "" {
		return nil, invalid("well", wc.Name, "missing name")
	}
	ipr, err := wc.IPR.option()
	if err != nil {
		return nil, invalid("well", wc.Name, "%v", err)
	}
	opts := []well.Option{ipr}
	if t := wc.Tubing; t != nil {
		length, diameter, incl := well.DefaultTubingLength, well.DefaultTubingDiameter, well.DefaultTubingInclination
		if t.LengthM != 0 {
			length = t.LengthM
		}
		if t.DiameterM != 0 {
			diameter = t.DiameterM
		}
		if t.InclinationDeg != 0 {
			incl = t.InclinationDeg
		}
		opts = append(opts, well.WithTubing(length, diameter, incl))
		if t.RoughnessM != 0 {
			opts = append(opts, well.WithTubingRoughness(t.RoughnessM))
		}
	}
	if wc.Temperature > 0 {
		opts = append(opts, well.WithTemperature(wc.Temperature))
	}

	return well.New(wc.Name, fluid, wc.ReservoirPressure, opts...)
}
