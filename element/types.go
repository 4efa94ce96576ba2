// Package element defines the FlowElement contract consumed by the network
// solvers, together with a few reference elements (Feed, Pipe, Choke).
//
// A FlowElement reads its inlet stream, recomputes its outlet stream on Run and
// exposes the outlet pressure and flow. How it computes the outlet is its own
// business: the network executors only sequence calls and reconcile junction
// pressures.
//
// Errors:
//
//	ErrNilInlet            - Run called before an inlet stream was attached.
//	ErrPressureUnderflow   - the pressure drop exceeds the available inlet pressure.
//	ErrInvalidGeometry     - non-positive length, diameter or segment count.
//	ErrInvalidOpening      - choke opening outside [0, 1].
package element

import (
	"errors"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/stream"
)

var (
	// ErrNilInlet indicates the element has no inlet stream.
	ErrNilInlet = errors.New("element: inlet stream is nil")

	// ErrPressureUnderflow indicates the computed outlet pressure would be non-positive.
	ErrPressureUnderflow = errors.New("element: outlet pressure below zero")

	// ErrInvalidGeometry indicates bad pipe dimensions.
	ErrInvalidGeometry = errors.New("element: invalid geometry")

	// ErrInvalidOpening indicates a choke opening outside [0, 1].
	ErrInvalidOpening = errors.New("element: choke opening out of range")
)

// FlowElement is any unit that turns an inlet state into an outlet state.
//
// Pressures are in bara and flows in kg/s unless a unit is passed explicitly.
// Implementations are not safe for concurrent use.
type FlowElement interface {
	// Name returns the element identifier, unique within a network.
	Name() string

	// InletStream returns the current inlet (may be nil before wiring).
	InletStream() *stream.Stream

	// SetInletStream rewires the inlet.
	SetInletStream(s *stream.Stream)

	// OutletStream returns the outlet. The pointer is stable for the element's lifetime.
	OutletStream() *stream.Stream

	// Run recomputes the steady-state outlet from the inlet.
	Run(id uuid.UUID) error

	// RunTransient advances the element's internal state by dt seconds.
	RunTransient(dt float64, id uuid.UUID) error

	// OutletPressure returns the outlet pressure in bara.
	OutletPressure() float64

	// OutletFlowRate returns the outlet mass flow in kg/s.
	OutletFlowRate() float64

	// SetOutletPressure overrides the outlet pressure (junction harmonisation).
	SetOutletPressure(value float64, unit string) error
}

// base carries the bookkeeping shared by the reference elements.
type base struct {
	name   string
	inlet  *stream.Stream
	outlet *stream.Stream
	lastID uuid.UUID
}

func newBase(name string, inlet *stream.Stream) base {
	b := base{name: name, inlet: inlet}
	if inlet != nil {
		b.outlet = inlet.Clone(name + " outlet")
	} else {
		b.outlet = stream.New(name+" outlet", stream.DefaultGas(), stream.StandardPressure)
	}

	return b
}

func (b *base) Name() string { return b.name }
func (b *base) InletStream() *stream.Stream { return b.inlet }
func (b *base) SetInletStream(s *stream.Stream) { b.inlet = s }
func (b *base) OutletStream() *stream.Stream { return b.outlet }
func (b *base) OutletPressure() float64 { return b.outlet.Pressure() }
func (b *base) OutletFlowRate() float64 { return b.outlet.MassFlow() }
func (b *base) CalculationIdentifier() uuid.UUID { return b.lastID }
func (b *base) setCalculationIdentifier(id uuid.UUID) { b.lastID = id }

func (b *base) SetOutletPressure(value float64, unit string) error {
	return b.outlet.SetPressure(value, unit)
}
