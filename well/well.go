// Package well models producing wells as flow elements: reservoir inflow
// (IPR) coupled to a simplified tubing lift curve (VLP).
//
// A Well runs in one of two modes. In flow-from-pressure mode (the default)
// the wellhead pressure is imposed and Run finds the rate where inflow and
// lift curves cross. In calculating-outlet-pressure mode the mass flow of the
// inlet stream is imposed and Run returns the wellhead pressure that delivers
// it.
//
// Rates are standard gas volumes (Sm3/day); pressures are bara.
package well

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/units"
)

var (
	// ErrInvalidIPR indicates missing or non-physical inflow parameters.
	ErrInvalidIPR = errors.New("well: invalid inflow model")

	// ErrInvalidTubing indicates non-positive tubing dimensions.
	ErrInvalidTubing = errors.New("well: invalid tubing")

	// ErrRateAbovePotential is returned when an imposed rate exceeds the absolute open flow.
	ErrRateAbovePotential = errors.New("well: rate exceeds absolute open flow")

	// ErrCannotLift is returned when the tubing cannot deliver the imposed rate to surface.
	ErrCannotLift = errors.New("well: rate cannot be lifted to surface")
)

// Tubing defaults.
const (
	DefaultTubingLength      = 2500.0 // m
	DefaultTubingDiameter    = 0.15   // m
	DefaultTubingInclination = 90.0   // degrees from horizontal
	DefaultTubingRoughness   = 1.5e-5 // m
	DefaultWellheadPressure  = 50.0   // bara

	// bisectionSteps halves a bracket down to ~1e-18 of its width.
	bisectionSteps = 60
	vlpSteps       = 48
	// maxBHPFactor bounds the lift-curve bottom-hole pressure relative to Pr.
	maxBHPFactor = 1.5
)

// Inflow is the contract a gathering solver needs from a producing well.
type Inflow interface {
	element.FlowElement

	// SetWellheadPressure imposes the wellhead (outlet) pressure.
	SetWellheadPressure(value float64, unit string) error

	// OperatingFlowRate returns the rate found by the last Run in a std volume unit.
	OperatingFlowRate(unit string) (float64, error)

	// IsCalculatingOutletPressure reports whether Run derives WHP from an imposed rate.
	IsCalculatingOutletPressure() bool

	// SolveFlowFromOutletPressure selects flow-from-pressure mode when true.
	SolveFlowFromOutletPressure(on bool)

	// ShutIn zeroes the rate without solving, as behind a closed choke.
	ShutIn(id uuid.UUID)
}

// Option configures a Well.
type Option func(*Well)

// WithProductivityIndex selects the squared-pressure PI model (Sm3/day/bar²).
func WithProductivityIndex(pi float64) Option {
	return func(w *Well) { w.ipr = inflow{model: ProductionIndex, pi: pi} }
}

// WithVogel selects Vogel's curve with absolute open flow qmax (Sm3/day).
func WithVogel(qmax float64) Option {
	return func(w *Well) { w.ipr = inflow{model: Vogel, qmax: qmax} }
}

// WithFetkovich selects q = C·(Pr²-Pwf²)^n.
func WithFetkovich(c, n float64) Option {
	return func(w *Well) { w.ipr = inflow{model: Fetkovich, c: c, n: n} }
}

// WithBackpressure selects Pr²-Pwf² = a·q + b·q².
func WithBackpressure(a, b float64) Option {
	return func(w *Well) { w.ipr = inflow{model: Backpressure, a: a, b: b} }
}

// WithTable selects linear interpolation over measured points.
// pwf (bara) and rate (Sm3/day) are paired by index; order is irrelevant.
func WithTable(pwf, rate []float64) Option {
	return func(w *Well) {
		idx := make([]int, len(pwf))
		for i := range idx {
			idx[i] = i
		}
		sort.Slice(idx, func(a, b int) bool { return pwf[idx[a]] < pwf[idx[b]] })
		in := inflow{model: Table}
		for _, i := range idx {
			in.pwf = append(in.pwf, pwf[i])
			if i < len(rate) {
				in.rate = append(in.rate, rate[i])
			}
		}
		w.ipr = in
	}
}

// WithTubing sets tubing length (m), inner diameter (m) and inclination
// (degrees from horizontal; 90 is vertical).
func WithTubing(length, diameter, inclination float64) Option {
	return func(w *Well) {
		w.tubingLength = length
		w.tubingDiameter = diameter
		w.inclination = inclination
	}
}

// WithTubingRoughness sets the tubing wall roughness in metres.
func WithTubingRoughness(r float64) Option {
	return func(w *Well) { w.roughness = r }
}

// WithTemperature sets the flowing temperature in K.
func WithTemperature(k float64) Option {
	return func(w *Well) { w.inlet.SetTemperature(k) }
}

// Well couples an IPR to a tubing lift curve.
type Well struct {
	name   string
	inlet  *stream.Stream // reservoir conditions; mass flow imposes rate in calc-outlet mode
	outlet *stream.Stream

	reservoirPressure float64
	ipr               inflow

	tubingLength   float64
	tubingDiameter float64
	inclination    float64
	roughness      float64

	whp             float64
	bhp             float64
	rate            float64 // Sm3/day
	solveFromOutlet bool
	lastID          uuid.UUID
}

// New creates a well producing fluid from a reservoir at reservoirPressure (bara).
// Exactly one IPR option should be given; the last one wins.
func New(name string, fluid stream.Fluid, reservoirPressure float64, opts ...Option) (*Well, error) {
	w := &Well{
		name:              name,
		inlet:             stream.New(name+" reservoir", fluid, reservoirPressure),
		reservoirPressure: reservoirPressure,
		ipr:               inflow{model: -1},
		tubingLength:      DefaultTubingLength,
		tubingDiameter:    DefaultTubingDiameter,
		inclination:       DefaultTubingInclination,
		roughness:         DefaultTubingRoughness,
		whp:               DefaultWellheadPressure,
		solveFromOutlet:   true,
	}
	for _, opt := range opts {
		opt(w)
	}
	if reservoirPressure <= 0 {
		return nil, fmt.Errorf("%w: well %q reservoir pressure %g", ErrInvalidIPR, name, reservoirPressure)
	}
	if err := w.ipr.validate(); err != nil {
		return nil, fmt.Errorf("well %q: %w", name, err)
	}
	if w.tubingLength <= 0 || w.tubingDiameter <= 0 || w.roughness < 0 {
		return nil, fmt.Errorf("%w: well %q length=%g diameter=%g",
			ErrInvalidTubing, name, w.tubingLength, w.tubingDiameter)
	}
	w.outlet = w.inlet.Clone(name + " wellhead")
	_ = w.outlet.SetPressure(w.whp, "bara")

	return w, nil
}

// Name returns the well name.
func (w *Well) Name() string { return w.name }

// InletStream returns the reservoir stream.
func (w *Well) InletStream() *stream.Stream { return w.inlet }

// SetInletStream replaces the reservoir stream. Its pressure becomes Pr.
func (w *Well) SetInletStream(s *stream.Stream) {
	if s == nil {
		return
	}
	w.inlet = s
	w.reservoirPressure = s.Pressure()
}

// OutletStream returns the wellhead stream.
func (w *Well) OutletStream() *stream.Stream { return w.outlet }

// OutletPressure returns the wellhead pressure in bara.
func (w *Well) OutletPressure() float64 { return w.outlet.Pressure() }

// OutletFlowRate returns the wellhead mass flow in kg/s.
func (w *Well) OutletFlowRate() float64 { return w.outlet.MassFlow() }

// SetOutletPressure imposes the wellhead pressure.
func (w *Well) SetOutletPressure(value float64, unit string) error {
	return w.SetWellheadPressure(value, unit)
}

// SetWellheadPressure imposes the wellhead pressure used in flow-from-pressure mode.
func (w *Well) SetWellheadPressure(value float64, unit string) error {
	p, err := units.ToBara(value, unit)
	if err != nil {
		return err
	}
	if err = w.outlet.SetPressure(p, "bara"); err != nil {
		return err
	}
	w.whp = p

	return nil
}

// WellheadPressure returns the current wellhead pressure in bara.
func (w *Well) WellheadPressure() float64 { return w.whp }

// BottomHolePressure returns the flowing bottom-hole pressure from the last Run.
func (w *Well) BottomHolePressure() float64 { return w.bhp }

// ReservoirPressure returns Pr in bara.
func (w *Well) ReservoirPressure() float64 { return w.reservoirPressure }

// SetReservoirPressure changes Pr (depletion studies).
func (w *Well) SetReservoirPressure(p float64) {
	w.reservoirPressure = p
	_ = w.inlet.SetPressure(p, "bara")
}

// IPRModel returns the configured inflow model.
func (w *Well) IPRModel() IPRModel { return w.ipr.model }

// IsCalculatingOutletPressure reports calc-outlet mode.
func (w *Well) IsCalculatingOutletPressure() bool { return !w.solveFromOutlet }

// SolveFlowFromOutletPressure selects flow-from-pressure mode when on.
func (w *Well) SolveFlowFromOutletPressure(on bool) { w.solveFromOutlet = on }

// OperatingFlowRate returns the last computed rate in a std volume unit.
func (w *Well) OperatingFlowRate(unit string) (float64, error) {
	return units.FromSm3PerDay(w.rate, unit)
}

// AbsoluteOpenFlow returns the IPR rate at zero bottom-hole pressure (Sm3/day).
func (w *Well) AbsoluteOpenFlow() float64 {
	return w.ipr.rateAt(w.reservoirPressure, 0)
}

// InflowRate returns the IPR rate (Sm3/day) at bottom-hole pressure pwf (bara).
func (w *Well) InflowRate(pwf float64) float64 {
	return w.ipr.rateAt(w.reservoirPressure, pwf)
}

// Run solves the well in its current mode.
func (w *Well) Run(id uuid.UUID) error {
	var err error
	if w.solveFromOutlet {
		w.solveRate()
	} else {
		err = w.solveWellhead()
	}
	if err != nil {
		return err
	}
	w.outlet.SetFluid(w.inlet.Fluid())
	w.outlet.SetTemperature(w.inlet.Temperature())
	_ = w.outlet.SetPressure(w.whp, "bara")
	_ = w.outlet.SetStdVolumeFlow(w.rate, "Sm3/day")
	w.lastID = id

	return nil
}

// ShutIn stops production: the rate is zero, the bottom-hole pressure rises
// to reservoir pressure and the outlet carries no flow at the current WHP.
func (w *Well) ShutIn(id uuid.UUID) {
	w.rate, w.bhp = 0, w.reservoirPressure
	w.outlet.SetFluid(w.inlet.Fluid())
	w.outlet.SetTemperature(w.inlet.Temperature())
	_ = w.outlet.SetPressure(w.whp, "bara")
	_ = w.outlet.SetStdVolumeFlow(0, "Sm3/day")
	w.lastID = id
}

// RunTransient has no well dynamics; it re-solves the steady state.
func (w *Well) RunTransient(_ float64, id uuid.UUID) error { return w.Run(id) }

// CalculationIdentifier returns the id passed to the last Run.
func (w *Well) CalculationIdentifier() uuid.UUID { return w.lastID }

// solveRate finds the IPR/VLP intersection at the imposed WHP by bisection
// on bottom-hole pressure: g(pwf) = VLP(q(pwf)) - pwf changes sign once.
func (w *Well) solveRate() {
	pr := w.reservoirPressure
	if w.liftBHP(0, w.whp) >= pr {
		w.rate, w.bhp = 0, pr
		return
	}
	lo, hi := 0.0, pr
	for range bisectionSteps {
		mid := 0.5 * (lo + hi)
		if w.liftBHP(w.InflowRate(mid), w.whp) > mid {
			lo = mid
		} else {
			hi = mid
		}
	}
	w.bhp = 0.5 * (lo + hi)
	w.rate = w.InflowRate(w.bhp)
}

// solveWellhead imposes the inlet-stream rate and finds the WHP that
// delivers it: bisection on WHP against the required bottom-hole pressure.
func (w *Well) solveWellhead() error {
	q, err := w.inlet.StdVolumeFlow("Sm3/day")
	if err != nil {
		return err
	}
	bhp, ok := w.ipr.bhpAt(w.reservoirPressure, q)
	if !ok {
		return fmt.Errorf("%w: well %q q=%g Sm3/day", ErrRateAbovePotential, w.name, q)
	}
	if w.liftBHP(q, 0) > bhp {
		return fmt.Errorf("%w: well %q q=%g Sm3/day", ErrCannotLift, w.name, q)
	}
	lo, hi := 0.0, bhp
	for range bisectionSteps {
		mid := 0.5 * (lo + hi)
		if w.liftBHP(q, mid) > bhp {
			hi = mid
		} else {
			lo = mid
		}
	}
	w.whp = 0.5 * (lo + hi)
	w.bhp = bhp
	w.rate = q

	return nil
}

// liftBHP is the simplified VLP: bottom-hole pressure needed to deliver q
// (Sm3/day) at wellhead pressure whp, from hydrostatic head plus Darcy
// friction at the average column density. The residual
//
//	r(bhp) = whp + (head + friction)(ρ((whp+bhp)/2)) - bhp
//
// is strictly decreasing in bhp, so it is bracketed on [whp, 1.5·Pr] and
// bisected. Rates that need more than 1.5·Pr return the bound.
func (w *Well) liftBHP(q, whp float64) float64 {
	fluid := w.inlet.Fluid()
	t := w.inlet.Temperature()
	m := q * fluid.StandardDensity() / units.SecondsPerDay()
	sinTheta := math.Sin(w.inclination * math.Pi / 180)

	required := func(bhp float64) float64 {
		rho := fluid.Density(0.5*(whp+bhp), t)
		head := rho * element.Gravity * w.tubingLength * sinTheta
		fric := element.DarcyPressureDrop(m, rho, fluid.Viscosity, w.tubingLength, w.tubingDiameter, w.roughness)

		return whp + (head+fric)/1e5
	}

	hi := maxBHPFactor * w.reservoirPressure
	if hi <= whp || required(hi) >= hi {
		return math.Max(whp, hi)
	}
	lo := whp
	for range vlpSteps {
		mid := 0.5 * (lo + hi)
		if required(mid) > mid {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0.5 * (lo + hi)
}

// IPRPoint is one point of an inflow curve.
type IPRPoint struct {
	BHP  float64 // bara
	Rate float64 // Sm3/day
}

// IPRCurve samples the inflow curve from Pr down to zero in points steps.
func (w *Well) IPRCurve(points int) []IPRPoint {
	if points < 2 {
		points = 2
	}
	out := make([]IPRPoint, points)
	pr := w.reservoirPressure
	for i := range out {
		pwf := pr * (1 - float64(i)/float64(points-1))
		out[i] = IPRPoint{BHP: pwf, Rate: w.InflowRate(pwf)}
	}

	return out
}
