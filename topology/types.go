package topology

import (
	"context"
	"errors"
)

var (
	// ErrGraphNil is returned when a nil *core.Graph is passed.
	ErrGraphNil = errors.New("topology: graph is nil")

	// ErrCycleDetected indicates the strict sort met a directed cycle.
	ErrCycleDetected = errors.New("topology: cycle detected")

	// ErrStartVertexNotFound indicates a walk start is not in the graph.
	ErrStartVertexNotFound = errors.New("topology: start vertex not found")
)

// Option configures the traversals.
type Option func(*options)

type options struct {
	ctx context.Context
}

func defaultOptions() options {
	return options{ctx: context.Background()}
}

// WithCancelContext sets the cancellation context. A nil context has no effect.
func WithCancelContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// Member is one edge of a loop with its traversal sign: +1 when the loop runs
// along the edge's nominal direction, -1 against it.
type Member struct {
	EdgeID string
	Sign   int
}

// Loop is an ordered closed walk of edges.
type Loop struct {
	ID      string
	Members []Member
}

// Step is one tree edge discovered by Walk. Forward is true when the walk
// moved along the edge's nominal direction (From to To).
type Step struct {
	From    string
	To      string
	EdgeID  string
	Forward bool
}
