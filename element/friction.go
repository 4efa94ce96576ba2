package element

import "math"

// LaminarReynolds is the transition Reynolds number below which 64/Re is used.
const LaminarReynolds = 2300.0

// Gravity in m/s².
const Gravity = 9.81

// Reynolds returns ρ·v·D/μ. A non-positive viscosity yields +Inf.
func Reynolds(density, velocity, diameter, viscosity float64) float64 {
	if viscosity <= 0 {
		return math.Inf(1)
	}

	return density * math.Abs(velocity) * diameter / viscosity
}

// FrictionFactor returns the Darcy friction factor: 64/Re for laminar flow and
// the Swamee-Jain explicit Colebrook approximation otherwise. Zero Re gives 0.
func FrictionFactor(re, roughness, diameter float64) float64 {
	switch {
	case re <= 0:
		return 0
	case re < LaminarReynolds:
		return 64.0 / re
	}
	rel := roughness / diameter
	term := math.Log10(rel/3.7 + 5.74/math.Pow(re, 0.9))

	return 0.25 / (term * term)
}

// DarcyPressureDrop returns the frictional pressure drop in Pa for mass flow
// q (kg/s) through a pipe. The sign follows q.
func DarcyPressureDrop(q, density, viscosity, length, diameter, roughness float64) float64 {
	if q == 0 || density <= 0 || diameter <= 0 {
		return 0
	}
	area := math.Pi * diameter * diameter / 4.0
	v := math.Abs(q) / (density * area)
	f := FrictionFactor(Reynolds(density, v, diameter, viscosity), roughness, diameter)
	dp := f * (length / diameter) * density * v * v / 2.0

	return math.Copysign(dp, q)
}
