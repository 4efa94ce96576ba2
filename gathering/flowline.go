package gathering

import (
	"math"

	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/units"
)

// Flowline is the geometry of a well-to-manifold line.
type Flowline struct {
	LengthKm  float64
	Diameter  float64 // m
	Roughness float64 // m
}

// FlowlineModel estimates the flowline pressure drop in bar for a standard
// rate (Sm3/day) delivered at outletPressure (bara).
type FlowlineModel interface {
	PressureDrop(line Flowline, rate, outletPressure float64) float64
}

// FlowlineModelFunc adapts a function to FlowlineModel.
type FlowlineModelFunc func(line Flowline, rate, outletPressure float64) float64

// PressureDrop calls f.
func (f FlowlineModelFunc) PressureDrop(line Flowline, rate, outletPressure float64) float64 {
	return f(line, rate, outletPressure)
}

// SimpleCorrelation is the closed-form gradient used for screening studies:
//
//	dP = (0.3 + 0.5 · q / (D² · 1000)) · L
//
// with q in MSm3/day, D in m and L in km, giving bar. Zero rate gives zero drop.
type SimpleCorrelation struct{}

// PressureDrop implements FlowlineModel.
func (SimpleCorrelation) PressureDrop(line Flowline, rate, _ float64) float64 {
	if rate <= 0 {
		return 0
	}
	velocityFactor := (rate / 1e6) / (line.Diameter * line.Diameter * 1000)

	return (0.3 + 0.5*velocityFactor) * line.LengthKm
}

const gasConstant = 8314.46 // J/(kmol·K)

// DarcyFlowline integrates Darcy-Weisbach friction for isothermal flow of
// Fluid at Temperature (K, zero means standard temperature). For a gas
//
//	p1² - p2² = 16·f·L·Z·R·T·m² / (π²·D⁵·M)
//
// and for a liquid the incompressible drop is used.
type DarcyFlowline struct {
	Fluid       stream.Fluid
	Temperature float64
}

// PressureDrop implements FlowlineModel.
func (d DarcyFlowline) PressureDrop(line Flowline, rate, outletPressure float64) float64 {
	if rate <= 0 || line.Diameter <= 0 || line.LengthKm <= 0 {
		return 0
	}
	m := rate * d.Fluid.StandardDensity() / units.SecondsPerDay()
	length := line.LengthKm * 1000
	if d.Fluid.IsLiquid() {
		return element.DarcyPressureDrop(m, d.Fluid.LiquidDensity, d.Fluid.Viscosity,
			length, line.Diameter, line.Roughness) / 1e5
	}

	t := d.Temperature
	if t <= 0 {
		t = stream.StandardTemperature
	}
	z := d.Fluid.Z
	if z <= 0 {
		z = 1
	}
	// Re = 4m/(πDμ) does not depend on pressure
	re := math.Inf(1)
	if d.Fluid.Viscosity > 0 {
		re = 4 * m / (math.Pi * line.Diameter * d.Fluid.Viscosity)
	}
	f := element.FrictionFactor(re, line.Roughness, line.Diameter)
	k := 16 * f * length * z * gasConstant * t * m * m /
		(math.Pi * math.Pi * math.Pow(line.Diameter, 5) * d.Fluid.MolarMass)
	p2 := outletPressure * 1e5
	p1 := math.Sqrt(p2*p2 + k)

	return (p1 - p2) / 1e5
}
