package network

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/well"
)

// Branch is a well delivering through an optional choke and a flowline into
// a manifold: well -> [choke] -> pipeline.
type Branch struct {
	name     string
	well     well.Inflow
	pipeline element.FlowElement
	choke    *element.Choke
}

func newBranch(name string, w well.Inflow, pipeline element.FlowElement, choke *element.Choke) *Branch {
	b := &Branch{name: name, well: w, pipeline: pipeline, choke: choke}
	b.wire()

	return b
}

// wire connects well outlet -> choke -> pipeline inlet.
func (b *Branch) wire() {
	if b.choke != nil {
		b.choke.SetInletStream(b.well.OutletStream())
		b.pipeline.SetInletStream(b.choke.OutletStream())

		return
	}
	b.pipeline.SetInletStream(b.well.OutletStream())
}

// Name returns the branch name.
func (b *Branch) Name() string { return b.name }

// Well returns the producing well.
func (b *Branch) Well() well.Inflow { return b.well }

// Pipeline returns the flowline.
func (b *Branch) Pipeline() element.FlowElement { return b.pipeline }

// Choke returns the choke or nil.
func (b *Branch) Choke() *element.Choke { return b.choke }

// SetChoke inserts, replaces or (with nil) removes the choke and rewires the branch.
func (b *Branch) SetChoke(c *element.Choke) {
	b.choke = c
	b.wire()
}

// Shut reports whether a closed choke isolates the well.
func (b *Branch) Shut() bool { return b.choke != nil && b.choke.Opening() == 0 }

// Run solves well, choke and pipeline in sequence. Behind a closed choke the
// well is shut in so its rate matches the zero flow it delivers.
func (b *Branch) Run(id uuid.UUID) error {
	if b.Shut() {
		b.well.ShutIn(id)
	} else if err := b.well.Run(id); err != nil {
		return fmt.Errorf("network: branch %q: %w", b.name, err)
	}
	if b.choke != nil {
		if err := b.choke.Run(id); err != nil {
			return fmt.Errorf("network: branch %q: %w", b.name, err)
		}
	}
	if err := b.pipeline.Run(id); err != nil {
		return fmt.Errorf("network: branch %q: %w", b.name, err)
	}

	return nil
}

// RunTransient advances well, choke and pipeline by dt seconds.
func (b *Branch) RunTransient(dt float64, id uuid.UUID) error {
	if b.Shut() {
		b.well.ShutIn(id)
	} else if err := b.well.RunTransient(dt, id); err != nil {
		return fmt.Errorf("network: branch %q: %w", b.name, err)
	}
	if b.choke != nil {
		if err := b.choke.RunTransient(dt, id); err != nil {
			return fmt.Errorf("network: branch %q: %w", b.name, err)
		}
	}
	if err := b.pipeline.RunTransient(dt, id); err != nil {
		return fmt.Errorf("network: branch %q: %w", b.name, err)
	}

	return nil
}

// force imposes p (bara) as the delivery pressure of the branch.
func (b *Branch) force(p float64) error {
	if b.choke != nil {
		if err := b.choke.SetOutletPressure(p, "bara"); err != nil {
			return err
		}
	}

	return b.well.SetOutletPressure(p, "bara")
}

// settle writes the manifold pressure p onto the branch outlets.
func (b *Branch) settle(p float64, toWell bool) error {
	if err := b.pipeline.SetOutletPressure(p, "bara"); err != nil {
		return fmt.Errorf("network: branch %q: %w", b.name, err)
	}
	if b.choke != nil {
		if err := b.choke.SetOutletPressure(p, "bara"); err != nil {
			return fmt.Errorf("network: branch %q: %w", b.name, err)
		}
	}
	if toWell && !b.well.IsCalculatingOutletPressure() {
		if err := b.well.SetWellheadPressure(p, "bara"); err != nil {
			return fmt.Errorf("network: branch %q: %w", b.name, err)
		}
	}

	return nil
}
