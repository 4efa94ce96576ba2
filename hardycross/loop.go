// Package hardycross balances looped pipe networks with the Hardy-Cross
// method.
//
// A NetworkLoop is an ordered, signed list of flow elements forming a closed
// path. Around a balanced loop the signed head losses sum to zero; the
// Balancer drives every loop there by applying the classic correction
//
//	ΔQ = -ΣH / (2·Σ|H/Q|)
//
// to each member along its direction, sweeping the loops in order until all
// imbalances are inside tolerance or the iteration cap is reached.
// Non-convergence is reported in the BalanceResult, never as an error.
//
// LoopedNetwork wraps the balancer in a complete source/sink/junction model:
// loops come from topology.DetectLoops, initial flows from capacity.Seed and
// node pressures from a breadth-first sweep out of the fixed-pressure
// sources.
package hardycross

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// DefaultTolerance is the loop head-loss tolerance in Pa.
const DefaultTolerance = 100.0

// Direction is the sign of a loop member relative to the loop orientation.
type Direction int

const (
	// Forward members are traversed along their nominal flow direction.
	Forward Direction = 1
	// Reverse members are traversed against it.
	Reverse Direction = -1
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	}

	return fmt.Sprintf("Direction(%d)", int(d))
}

// LoopMember is one element of a loop.
type LoopMember struct {
	ElementID string
	Direction Direction
}

// NetworkLoop is an ordered closed path of elements plus the state of its
// last balancing step.
type NetworkLoop struct {
	id        string
	members   []LoopMember
	tolerance float64

	lastImbalance  float64 // Pa
	lastCorrection float64 // kg/s
}

// NewNetworkLoop creates an empty loop with DefaultTolerance.
func NewNetworkLoop(id string) *NetworkLoop {
	return &NetworkLoop{id: id, tolerance: DefaultTolerance}
}

// ID returns the loop identifier.
func (l *NetworkLoop) ID() string { return l.id }

// AddMember appends an element. Any positive d counts as Forward, any
// other value as Reverse.
func (l *NetworkLoop) AddMember(elementID string, d Direction) {
	if d > 0 {
		d = Forward
	} else {
		d = Reverse
	}
	l.members = append(l.members, LoopMember{ElementID: elementID, Direction: d})
}

// Members returns a copy of the members in loop order.
func (l *NetworkLoop) Members() []LoopMember { return slices.Clone(l.members) }

// Size returns the member count.
func (l *NetworkLoop) Size() int { return len(l.members) }

// Tolerance returns the balance tolerance in Pa.
func (l *NetworkLoop) Tolerance() float64 { return l.tolerance }

// SetTolerance changes the balance tolerance. Non-positive values are ignored.
func (l *NetworkLoop) SetTolerance(pa float64) {
	if pa > 0 {
		l.tolerance = pa
	}
}

// LastHeadLossImbalance returns the signed head-loss sum (Pa) from the last
// balancing check.
func (l *NetworkLoop) LastHeadLossImbalance() float64 { return l.lastImbalance }

// LastFlowCorrection returns the last applied ΔQ in kg/s.
func (l *NetworkLoop) LastFlowCorrection() float64 { return l.lastCorrection }

// IsBalanced reports |imbalance| < Tolerance.
func (l *NetworkLoop) IsBalanced(imbalance float64) bool {
	return math.Abs(imbalance) < l.tolerance
}

// String implements fmt.Stringer.
func (l *NetworkLoop) String() string {
	var b strings.Builder
	b.WriteString(l.id)
	b.WriteString(" [")
	for i, m := range l.members {
		if i > 0 {
			b.WriteByte(' ')
		}
		if m.Direction == Forward {
			b.WriteByte('+')
		} else {
			b.WriteByte('-')
		}
		b.WriteString(m.ElementID)
	}
	b.WriteByte(']')

	return b.String()
}
