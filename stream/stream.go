// Package stream holds the process-stream state passed between flow elements:
// pressure, temperature, mass flow and a lightweight fluid description.
//
// A Stream is a mutable value shared by pointer between the element that
// produces it (its outlet) and the elements that consume it (their inlet).
// The fluid model is deliberately small: a real-gas density from molar mass
// and a compressibility factor, or a constant liquid density. Anything richer
// belongs to an external thermodynamics package.
package stream

import (
	"errors"
	"fmt"
	"maps"

	"github.com/equinor/neqnet/units"
)

// ErrNegativePressure is returned when a stream pressure would become negative.
var ErrNegativePressure = errors.New("stream: negative pressure")

// Standard reference conditions for Sm3.
const (
	StandardPressure    = 1.01325 // bara
	StandardTemperature = 288.15  // K
	gasConstant         = 8314.46 // J/(kmol·K)
)

// Fluid describes the bulk properties used by the hydraulic correlations.
//
// MolarMass is in kg/kmol, Viscosity in Pa·s. When LiquidDensity is positive
// the fluid is treated as incompressible with that density (kg/m3); otherwise
// it is a real gas with compressibility factor Z.
type Fluid struct {
	MolarMass     float64
	Z             float64
	Viscosity     float64
	LiquidDensity float64

	// Composition holds mole fractions by component name. Informational only.
	Composition map[string]float64
}

// DefaultGas returns a lean natural-gas description (≈ 0.6 specific gravity).
func DefaultGas() Fluid {
	return Fluid{
		MolarMass:   17.4,
		Z:           0.9,
		Viscosity:   1.2e-5,
		Composition: map[string]float64{"methane": 0.9, "ethane": 0.07, "propane": 0.03},
	}
}

// IsLiquid reports whether the fluid is modelled as incompressible.
func (f Fluid) IsLiquid() bool { return f.LiquidDensity > 0 }

// Density returns the density in kg/m3 at pressure p (bara) and temperature t (K).
func (f Fluid) Density(p, t float64) float64 {
	if f.IsLiquid() {
		return f.LiquidDensity
	}
	z := f.Z
	if z <= 0 {
		z = 1
	}
	if t <= 0 {
		t = StandardTemperature
	}

	return p * 1e5 * f.MolarMass / (z * gasConstant * t)
}

// StandardDensity returns the density at standard conditions (kg/Sm3).
// Gas is taken as ideal at standard conditions.
func (f Fluid) StandardDensity() float64 {
	if f.IsLiquid() {
		return f.LiquidDensity
	}

	return StandardPressure * 1e5 * f.MolarMass / (gasConstant * StandardTemperature)
}

func (f Fluid) clone() Fluid {
	out := f
	if f.Composition != nil {
		out.Composition = maps.Clone(f.Composition)
	}

	return out
}

// Stream is the state of a fluid at one point of the network.
type Stream struct {
	name        string
	fluid       Fluid
	pressure    float64 // bara
	temperature float64 // K
	massFlow    float64 // kg/s
}

// New creates a stream at standard temperature, zero flow and the given pressure (bara).
func New(name string, fluid Fluid, pressure float64) *Stream {
	return &Stream{
		name:        name,
		fluid:       fluid.clone(),
		pressure:    pressure,
		temperature: StandardTemperature,
	}
}

// Name returns the stream label.
func (s *Stream) Name() string { return s.name }

// Fluid returns a copy of the fluid description.
func (s *Stream) Fluid() Fluid { return s.fluid.clone() }

// SetFluid replaces the fluid description.
func (s *Stream) SetFluid(f Fluid) { s.fluid = f.clone() }

// Pressure returns the pressure in bara.
func (s *Stream) Pressure() float64 { return s.pressure }

// PressureIn returns the pressure converted to unit.
func (s *Stream) PressureIn(unit string) (float64, error) {
	return units.FromBara(s.pressure, unit)
}

// SetPressure sets the pressure given in unit.
func (s *Stream) SetPressure(value float64, unit string) error {
	p, err := units.ToBara(value, unit)
	if err != nil {
		return err
	}
	if p < 0 {
		return fmt.Errorf("%w: %s=%g bara", ErrNegativePressure, s.name, p)
	}
	s.pressure = p

	return nil
}

// Temperature returns the temperature in K.
func (s *Stream) Temperature() float64 { return s.temperature }

// SetTemperature sets the temperature in K.
func (s *Stream) SetTemperature(k float64) { s.temperature = k }

// MassFlow returns the mass flow rate in kg/s.
func (s *Stream) MassFlow() float64 { return s.massFlow }

// MassFlowIn returns the mass flow rate converted to unit.
func (s *Stream) MassFlowIn(unit string) (float64, error) {
	return units.FromKgPerSec(s.massFlow, unit)
}

// SetMassFlow sets the mass flow rate given in unit.
func (s *Stream) SetMassFlow(value float64, unit string) error {
	q, err := units.ToKgPerSec(value, unit)
	if err != nil {
		return err
	}
	s.massFlow = q

	return nil
}

// StdVolumeFlow returns the standard volume rate in unit (e.g. "MSm3/day").
func (s *Stream) StdVolumeFlow(unit string) (float64, error) {
	rho := s.fluid.StandardDensity()
	if rho <= 0 {
		return 0, nil
	}

	return units.FromSm3PerDay(s.massFlow/rho*units.SecondsPerDay(), unit)
}

// SetStdVolumeFlow sets the flow from a standard volume rate given in unit.
func (s *Stream) SetStdVolumeFlow(value float64, unit string) error {
	sm3d, err := units.ToSm3PerDay(value, unit)
	if err != nil {
		return err
	}
	s.massFlow = sm3d * s.fluid.StandardDensity() / units.SecondsPerDay()

	return nil
}

// Density returns the density in kg/m3 at the stream conditions.
func (s *Stream) Density() float64 { return s.fluid.Density(s.pressure, s.temperature) }

// Viscosity returns the dynamic viscosity in Pa·s.
func (s *Stream) Viscosity() float64 { return s.fluid.Viscosity }

// VolumeFlow returns the actual volumetric flow rate in m3/s.
func (s *Stream) VolumeFlow() float64 {
	rho := s.Density()
	if rho <= 0 {
		return 0
	}

	return s.massFlow / rho
}

// Clone returns an independent copy with a new name.
func (s *Stream) Clone(name string) *Stream {
	return &Stream{
		name:        name,
		fluid:       s.fluid.clone(),
		pressure:    s.pressure,
		temperature: s.temperature,
		massFlow:    s.massFlow,
	}
}

// CopyStateFrom overwrites fluid, pressure, temperature and flow with those of src.
func (s *Stream) CopyStateFrom(src *Stream) {
	s.fluid = src.fluid.clone()
	s.pressure = src.pressure
	s.temperature = src.temperature
	s.massFlow = src.massFlow
}

// String implements fmt.Stringer.
func (s *Stream) String() string {
	return fmt.Sprintf("%s{p=%.4g bara, T=%.2f K, m=%.5g kg/s}", s.name, s.pressure, s.temperature, s.massFlow)
}
