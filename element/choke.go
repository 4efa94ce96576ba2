package element

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/stream"
)

// DefaultChokeCv is the flow coefficient of a fully open choke, in
// kg/s per sqrt(kg/m³·Pa).
const DefaultChokeCv = 0.05

// Choke is a restriction with a quadratic pressure drop
//
//	dp = (m / (Cv·opening))² / ρ
//
// A closed choke (opening 0) passes no flow.
type Choke struct {
	base

	cv      float64
	opening float64
}

// NewChoke creates a fully open choke. A non-positive cv selects DefaultChokeCv.
func NewChoke(name string, inlet *stream.Stream, cv float64) *Choke {
	if cv <= 0 {
		cv = DefaultChokeCv
	}

	return &Choke{base: newBase(name, inlet), cv: cv, opening: 1}
}

// Opening returns the fractional opening in [0, 1].
func (c *Choke) Opening() float64 { return c.opening }

// SetOpening sets the fractional opening. Values outside [0, 1] are rejected.
func (c *Choke) SetOpening(f float64) error {
	if f < 0 || f > 1 || math.IsNaN(f) {
		return fmt.Errorf("%w: choke %q opening=%g", ErrInvalidOpening, c.name, f)
	}
	c.opening = f

	return nil
}

// Cv returns the full-open flow coefficient.
func (c *Choke) Cv() float64 { return c.cv }

// PressureDrop returns the drop in bar for mass flow q (kg/s) at density rho.
func (c *Choke) PressureDrop(q, rho float64) float64 {
	if q == 0 {
		return 0
	}
	if c.opening == 0 || rho <= 0 {
		return math.Inf(1)
	}
	k := q / (c.cv * c.opening)

	return k * k / rho / 1e5
}

// Run computes the outlet state from the inlet.
func (c *Choke) Run(id uuid.UUID) error {
	if c.inlet == nil {
		return fmt.Errorf("%w: choke %q", ErrNilInlet, c.name)
	}
	c.outlet.CopyStateFrom(c.inlet)
	if c.opening == 0 {
		_ = c.outlet.SetMassFlow(0, "kg/s")
		c.setCalculationIdentifier(id)

		return nil
	}
	dp := c.PressureDrop(c.inlet.MassFlow(), c.inlet.Density())
	pOut := c.inlet.Pressure() - dp
	if pOut <= 0 {
		return fmt.Errorf("%w: choke %q dp=%g bar", ErrPressureUnderflow, c.name, dp)
	}
	_ = c.outlet.SetPressure(pOut, "bara")
	c.setCalculationIdentifier(id)

	return nil
}

// RunTransient has no internal dynamics.
func (c *Choke) RunTransient(_ float64, id uuid.UUID) error { return c.Run(id) }
