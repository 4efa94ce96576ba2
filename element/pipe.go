package element

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/units"
)

// Default pipe parameters.
const (
	DefaultRoughness    = 1e-5   // m
	DefaultSegments     = 10     // computational segments per pipe
	gasHeatCapacity     = 2200.0 // J/(kg·K)
	liquidHeatCapacity  = 4180.0 // J/(kg·K)
	minTransientTimeCst = 1e-6   // s
)

// PipeOption configures a Pipe at construction.
type PipeOption func(*Pipe)

// WithRoughness sets the absolute wall roughness in metres.
func WithRoughness(r float64) PipeOption {
	return func(p *Pipe) { p.roughness = r }
}

// WithElevation sets the outlet-minus-inlet elevation change in metres.
func WithElevation(dz float64) PipeOption {
	return func(p *Pipe) { p.elevation = dz }
}

// WithSegments sets the number of computational segments.
func WithSegments(n int) PipeOption {
	return func(p *Pipe) { p.segments = n }
}

// WithHeatTransfer enables heat exchange with surroundings at ambient
// temperature (K) through an overall coefficient u (W/m²K).
func WithHeatTransfer(ambient, u float64) PipeOption {
	return func(p *Pipe) {
		p.ambient = ambient
		p.uValue = u
	}
}

// Pipe is a single-leg pipeline segment with Darcy-Weisbach friction,
// hydrostatic head and optional heat loss, integrated over segments.
//
// In transient mode the outlet mass flow lags the inlet flow with a time
// constant equal to the line-pack residence time.
type Pipe struct {
	base

	length    float64 // m
	diameter  float64 // m
	roughness float64 // m
	elevation float64 // m
	segments  int
	ambient   float64 // K
	uValue    float64 // W/m²K

	pressures    []float64 // bara, segments+1
	temperatures []float64 // K, segments+1
	velocities   []float64 // m/s, segments+1
	linePack     float64   // kg

	initialized bool
	simTime     float64
}

// NewPipe creates a pipe reading from inlet (may be nil and wired later).
func NewPipe(name string, inlet *stream.Stream, length, diameter float64, opts ...PipeOption) (*Pipe, error) {
	p := &Pipe{
		base:      newBase(name, inlet),
		length:    length,
		diameter:  diameter,
		roughness: DefaultRoughness,
		segments:  DefaultSegments,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.length <= 0 || p.diameter <= 0 || p.segments < 1 || p.roughness < 0 {
		return nil, fmt.Errorf("%w: pipe %q length=%g diameter=%g segments=%d",
			ErrInvalidGeometry, name, p.length, p.diameter, p.segments)
	}

	return p, nil
}

// Length returns the pipe length in metres.
func (p *Pipe) Length() float64 { return p.length }

// Diameter returns the inner diameter in metres.
func (p *Pipe) Diameter() float64 { return p.diameter }

// Roughness returns the wall roughness in metres.
func (p *Pipe) Roughness() float64 { return p.roughness }

// SetRoughness changes the wall roughness.
func (p *Pipe) SetRoughness(r float64) { p.roughness = r }

// SetHeatTransfer changes the ambient temperature (K) and U-value (W/m²K).
func (p *Pipe) SetHeatTransfer(ambient, u float64) {
	p.ambient = ambient
	p.uValue = u
}

// Area returns the flow area in m².
func (p *Pipe) Area() float64 { return math.Pi * p.diameter * p.diameter / 4.0 }

// Run integrates the steady-state profile for the current inlet flow.
func (p *Pipe) Run(id uuid.UUID) error {
	if p.inlet == nil {
		return fmt.Errorf("%w: pipe %q", ErrNilInlet, p.name)
	}
	if err := p.integrate(p.inlet.MassFlow()); err != nil {
		return err
	}
	p.writeOutlet(p.inlet.MassFlow())
	p.initialized = true
	p.setCalculationIdentifier(id)

	return nil
}

// RunTransient advances the outlet flow towards the inlet flow by dt seconds.
func (p *Pipe) RunTransient(dt float64, id uuid.UUID) error {
	if !p.initialized {
		if err := p.Run(id); err != nil {
			return err
		}
	}
	if p.inlet == nil {
		return fmt.Errorf("%w: pipe %q", ErrNilInlet, p.name)
	}
	qIn := p.inlet.MassFlow()
	qOut := p.outlet.MassFlow()
	if err := p.integrate(0.5 * (qIn + qOut)); err != nil {
		return err
	}
	tau := minTransientTimeCst
	if q := math.Abs(qIn); q > 0 {
		tau = math.Max(p.linePack/q, minTransientTimeCst)
	}
	qOut += (qIn - qOut) * math.Min(1.0, dt/tau)
	p.writeOutlet(qOut)
	p.simTime += dt
	p.setCalculationIdentifier(id)

	return nil
}

// SimulationTime returns the accumulated transient time in seconds.
func (p *Pipe) SimulationTime() float64 { return p.simTime }

// ResetSimulationTime zeroes the transient clock.
func (p *Pipe) ResetSimulationTime() { p.simTime = 0 }

// PressureDrop returns inlet minus outlet pressure in bara from the last run.
func (p *Pipe) PressureDrop() float64 {
	if len(p.pressures) < 2 {
		return 0
	}

	return p.pressures[0] - p.pressures[len(p.pressures)-1]
}

// PressureProfile returns node pressures in unit from inlet to outlet.
func (p *Pipe) PressureProfile(unit string) ([]float64, error) {
	out := make([]float64, len(p.pressures))
	for i, v := range p.pressures {
		c, err := units.FromBara(v, unit)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}

	return out, nil
}

// TemperatureProfile returns node temperatures in "K" or "C".
func (p *Pipe) TemperatureProfile(unit string) ([]float64, error) {
	var shift float64
	switch unit {
	case "K":
	case "C":
		shift = -273.15
	default:
		return nil, fmt.Errorf("%w: temperature %q", units.ErrUnknownUnit, unit)
	}
	out := make([]float64, len(p.temperatures))
	for i, v := range p.temperatures {
		out[i] = v + shift
	}

	return out, nil
}

// VelocityProfile returns node velocities in m/s.
func (p *Pipe) VelocityProfile() []float64 {
	return append([]float64(nil), p.velocities...)
}

// integrate marches the segments for mass flow q, filling the profiles.
func (p *Pipe) integrate(q float64) error {
	n := p.segments
	dx := p.length / float64(n)
	dz := p.elevation / float64(n)
	area := p.Area()
	fluid := p.inlet.Fluid()
	cp := gasHeatCapacity
	if fluid.IsLiquid() {
		cp = liquidHeatCapacity
	}

	p.pressures = make([]float64, n+1)
	p.temperatures = make([]float64, n+1)
	p.velocities = make([]float64, n+1)
	p.linePack = 0

	pr := p.inlet.Pressure()
	t := p.inlet.Temperature()
	rho := fluid.Density(pr, t)
	p.pressures[0], p.temperatures[0] = pr, t
	p.velocities[0] = velocity(q, rho, area)

	for i := 1; i <= n; i++ {
		// 1) Friction and head at upstream-node density
		dpf := DarcyPressureDrop(q, rho, fluid.Viscosity, dx, p.diameter, p.roughness) / 1e5
		dph := rho * Gravity * dz / 1e5
		pr -= dpf + dph
		if pr <= 0 {
			return fmt.Errorf("%w: pipe %q at segment %d", ErrPressureUnderflow, p.name, i)
		}
		// 2) Heat exchange towards ambient
		if p.uValue > 0 && q != 0 {
			decay := math.Exp(-p.uValue * math.Pi * p.diameter * dx / (math.Abs(q) * cp))
			t = p.ambient + (t-p.ambient)*decay
		}
		rhoNext := fluid.Density(pr, t)
		p.linePack += 0.5 * (rho + rhoNext) * area * dx
		rho = rhoNext

		p.pressures[i], p.temperatures[i] = pr, t
		p.velocities[i] = velocity(q, rho, area)
	}

	return nil
}

func (p *Pipe) writeOutlet(q float64) {
	last := len(p.pressures) - 1
	p.outlet.CopyStateFrom(p.inlet)
	// pressures come from integrate, which already rejected non-positive values
	_ = p.outlet.SetPressure(p.pressures[last], "bara")
	p.outlet.SetTemperature(p.temperatures[last])
	_ = p.outlet.SetMassFlow(q, "kg/s")
}

func velocity(q, rho, area float64) float64 {
	if rho <= 0 || area <= 0 {
		return 0
	}

	return q / (rho * area)
}
