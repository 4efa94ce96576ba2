package element

import (
	"github.com/google/uuid"

	"github.com/equinor/neqnet/stream"
)

// Feed is a boundary source. Its outlet is a configured stream whose state
// is held fixed between runs; it has no inlet.
type Feed struct {
	base
}

// NewFeed creates a feed producing fluid at pressure (bara) and massFlow (kg/s).
func NewFeed(name string, fluid stream.Fluid, pressure, massFlow float64) *Feed {
	f := &Feed{base: newBase(name, nil)}
	f.outlet = stream.New(name, fluid, pressure)
	_ = f.outlet.SetMassFlow(massFlow, "kg/s")

	return f
}

// FeedFromStream wraps an existing stream as a feed. The stream is shared.
func FeedFromStream(s *stream.Stream) *Feed {
	f := &Feed{base: newBase(s.Name(), nil)}
	f.outlet = s

	return f
}

// SetInletStream is a no-op: a feed has no inlet.
func (f *Feed) SetInletStream(*stream.Stream) {}

// SetFlowRate changes the delivered mass flow.
func (f *Feed) SetFlowRate(value float64, unit string) error {
	return f.outlet.SetMassFlow(value, unit)
}

// Run only stamps the calculation identifier.
func (f *Feed) Run(id uuid.UUID) error {
	f.setCalculationIdentifier(id)

	return nil
}

// RunTransient behaves like Run.
func (f *Feed) RunTransient(_ float64, id uuid.UUID) error { return f.Run(id) }
