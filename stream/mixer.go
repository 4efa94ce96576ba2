package stream

import "math"

// Mixer combines any number of inlet streams into a single outlet.
//
// The outlet takes the lowest inlet pressure, the mass-weighted temperature and
// the summed mass flow. Fluid properties are blended on a molar basis.
// A Mixer with no inlets leaves its outlet untouched.
type Mixer struct {
	name   string
	inlets []*Stream
	outlet *Stream
}

// NewMixer creates an empty mixer whose outlet is named "<name> outlet".
func NewMixer(name string) *Mixer {
	return &Mixer{
		name:   name,
		outlet: New(name+" outlet", DefaultGas(), StandardPressure),
	}
}

// Name returns the mixer label.
func (m *Mixer) Name() string { return m.name }

// SetName relabels the mixer.
func (m *Mixer) SetName(name string) { m.name = name }

// AddStream registers s as an inlet. Adding the same pointer twice is a no-op.
func (m *Mixer) AddStream(s *Stream) {
	if s == nil || m.HasStream(s) {
		return
	}
	m.inlets = append(m.inlets, s)
}

// HasStream reports whether s is already an inlet.
func (m *Mixer) HasStream(s *Stream) bool {
	for _, in := range m.inlets {
		if in == s {
			return true
		}
	}

	return false
}

// NumberOfInputStreams returns the inlet count.
func (m *Mixer) NumberOfInputStreams() int { return len(m.inlets) }

// Stream returns inlet i.
func (m *Mixer) Stream(i int) *Stream { return m.inlets[i] }

// Outlet returns the combined stream. The pointer is stable for the mixer's lifetime.
func (m *Mixer) Outlet() *Stream { return m.outlet }

// Run recomputes the outlet from the current inlet states.
func (m *Mixer) Run() {
	if len(m.inlets) == 0 {
		return
	}

	var (
		mass, moles, heat float64
		zSum, muSum       float64
		liqVolume         float64
		allLiquid         = true
		pMin              = math.Inf(1)
		comp              = make(map[string]float64)
	)
	for _, in := range m.inlets {
		f := in.fluid
		q := in.massFlow
		if in.pressure < pMin {
			pMin = in.pressure
		}
		mass += q
		heat += q * in.temperature
		zSum += q * f.Z
		muSum += q * f.Viscosity
		if f.IsLiquid() {
			liqVolume += q / f.LiquidDensity
		} else {
			allLiquid = false
		}
		if f.MolarMass > 0 {
			n := q / f.MolarMass
			moles += n
			for c, x := range f.Composition {
				comp[c] += n * x
			}
		}
	}

	out := m.inlets[0].fluid.clone()
	if mass > 0 {
		if moles > 0 {
			out.MolarMass = mass / moles
			for c := range comp {
				comp[c] /= moles
			}
			out.Composition = comp
		}
		out.Z = zSum / mass
		out.Viscosity = muSum / mass
		if allLiquid && liqVolume > 0 {
			out.LiquidDensity = mass / liqVolume
		} else {
			out.LiquidDensity = 0
		}
		m.outlet.temperature = heat / mass
	} else {
		m.outlet.temperature = m.inlets[0].temperature
	}
	m.outlet.fluid = out
	m.outlet.pressure = pMin
	m.outlet.massFlow = mass
}
