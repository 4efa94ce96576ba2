package capacity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

var (
	// ErrSourceNotFound is returned when the source vertex is missing.
	ErrSourceNotFound = errors.New("capacity: source vertex not found")

	// ErrSinkNotFound is returned when the sink vertex is missing.
	ErrSinkNotFound = errors.New("capacity: sink vertex not found")

	// ErrImbalanced is returned by Seed when supplies and demands do not cancel.
	ErrImbalanced = errors.New("capacity: supply and demand do not balance")

	// ErrInfeasible is returned by Seed when demand cannot be routed to every sink.
	ErrInfeasible = errors.New("capacity: demand cannot be routed")
)

// EdgeError is returned when an edge has a negative capacity.
type EdgeError struct {
	EdgeID string
	Cap    float64
}

func (e EdgeError) Error() string {
	return fmt.Sprintf("capacity: negative capacity on edge %q: %g", e.EdgeID, e.Cap)
}

// FlowOptions configures the max-flow routines.
//   - Epsilon: residual capacities ≤ Epsilon count as zero (default 1e-9).
//   - LevelRebuildInterval: rebuild the level graph every N augmentations (0 = never early).
//   - Undirected: every graph edge may carry flow both ways.
//   - Ctx: cancellation (default Background).
//   - Logger: receives one Debug record per augmentation (default slog.Default()).
type FlowOptions struct {
	Epsilon              float64
	LevelRebuildInterval int
	Undirected           bool
	Ctx                  context.Context
	Logger               *slog.Logger
}

// DefaultOptions returns FlowOptions with defaults applied.
func DefaultOptions() FlowOptions {
	o := FlowOptions{}
	o.normalize()

	return o
}

func (o *FlowOptions) normalize() {
	if o.Epsilon <= 0 {
		o.Epsilon = 1e-9
	}
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Result is the outcome of a max-flow computation.
type Result struct {
	// MaxFlow is the total flow from source to sink.
	MaxFlow float64

	// EdgeFlows maps edge ID to flow along the edge's nominal direction;
	// negative values run against it (two-way edges only).
	EdgeFlows map[string]float64

	// Saturated lists, in creation order, the edges crossing the minimum cut.
	Saturated []string
}

// unbounded converts the "zero means unbounded" edge convention.
func unbounded(c float64) float64 {
	if c == 0 {
		return math.Inf(1)
	}

	return c
}
