package gathering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/units"
)

// wellNode is the configuration of one well. It is not touched by Solve.
type wellNode struct {
	name    string
	well    Producer
	line    Flowline
	enabled bool
	choke   float64 // fractional opening
}

// wellState is the per-solve mutable state of one well, indexed like wells.
type wellState struct {
	rate float64 // allocated, Sm3/day
	whp  float64 // bara
	drop float64 // bar
}

// NetworkSolver finds the operating point of wells gathered into one manifold.
type NetworkSolver struct {
	name   string
	logger *slog.Logger
	model  FlowlineModel

	mode             Mode
	manifoldPressure float64 // bara
	maxTotalRate     float64 // Sm3/day
	targetTotalRate  float64 // Sm3/day

	tolerance     float64
	maxIterations int
	relaxation    float64

	wells    []wellNode
	fluid    *stream.Fluid
	deferred []error

	last *NetworkResult
}

// NewNetworkSolver creates a solver in FixedManifoldPressure mode at 50 bara
// with no facility cap.
func NewNetworkSolver(name string, opts ...Option) *NetworkSolver {
	s := &NetworkSolver{
		name:             name,
		logger:           slog.Default(),
		model:            SimpleCorrelation{},
		mode:             FixedManifoldPressure,
		manifoldPressure: DefaultManifoldPressure,
		maxTotalRate:     math.Inf(1),
		tolerance:        DefaultTolerance,
		maxIterations:    DefaultMaxIterations,
		relaxation:       DefaultRelaxation,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the solver name.
func (s *NetworkSolver) Name() string { return s.name }

// AddWell registers w behind a flowline of lengthKm. Well names must be
// unique; a repeated name is reported by Solve as ErrDuplicateWell.
func (s *NetworkSolver) AddWell(w Producer, lengthKm float64, opts ...WellOption) *NetworkSolver {
	if w == nil {
		s.deferred = append(s.deferred, ErrNilWell)
		return s
	}
	n := wellNode{
		name:    w.Name(),
		well:    w,
		line:    Flowline{LengthKm: lengthKm, Diameter: DefaultFlowlineDiameter, Roughness: DefaultFlowlineRoughness},
		enabled: true,
		choke:   1,
	}
	for _, opt := range opts {
		opt(&n)
	}
	for _, other := range s.wells {
		if other.name == n.name {
			s.deferred = append(s.deferred, fmt.Errorf("%w: %q", ErrDuplicateWell, n.name))
			return s
		}
	}
	if n.line.LengthKm < 0 || n.line.Diameter <= 0 || n.line.Roughness < 0 {
		s.deferred = append(s.deferred, fmt.Errorf("%w: flowline of %q length=%g km diameter=%g m",
			ErrInvalidParameter, n.name, n.line.LengthKm, n.line.Diameter))
		return s
	}
	s.wells = append(s.wells, n)

	return s
}

// SetSolutionMode selects the mode used by the next Solve.
func (s *NetworkSolver) SetSolutionMode(m Mode) *NetworkSolver {
	if m < FixedManifoldPressure || m > OptimizeAllocation {
		s.deferred = append(s.deferred, fmt.Errorf("%w: %d", ErrUnknownMode, int(m)))
		return s
	}
	s.mode = m

	return s
}

// SetManifoldPressure sets the manifold pressure for FixedManifoldPressure
// and OptimizeAllocation.
func (s *NetworkSolver) SetManifoldPressure(p float64, unit string) *NetworkSolver {
	bara, err := units.ToBara(p, unit)
	if err != nil {
		s.deferred = append(s.deferred, err)
		return s
	}
	s.manifoldPressure = bara

	return s
}

// SetMaxTotalRate sets the facility capacity.
func (s *NetworkSolver) SetMaxTotalRate(rate float64, unit string) *NetworkSolver {
	q, err := units.ToSm3PerDay(rate, unit)
	if err != nil {
		s.deferred = append(s.deferred, err)
		return s
	}
	s.maxTotalRate = q

	return s
}

// SetTargetTotalRate sets the target and switches to FixedTotalRate.
func (s *NetworkSolver) SetTargetTotalRate(rate float64, unit string) *NetworkSolver {
	q, err := units.ToSm3PerDay(rate, unit)
	if err != nil {
		s.deferred = append(s.deferred, err)
		return s
	}
	s.targetTotalRate = q
	s.mode = FixedTotalRate

	return s
}

// SetWellEnabled includes or excludes a well.
func (s *NetworkSolver) SetWellEnabled(name string, enabled bool) *NetworkSolver {
	if n := s.node(name); n != nil {
		n.enabled = enabled
	}

	return s
}

// SetChokeOpening scales a well's rate by fraction, clamped to [0, 1].
func (s *NetworkSolver) SetChokeOpening(name string, fraction float64) *NetworkSolver {
	if n := s.node(name); n != nil {
		n.choke = math.Max(0, math.Min(1, fraction))
	}

	return s
}

// SetSolverParameters sets the relative tolerance, the iteration cap and the
// under-relaxation factor in (0, 1].
func (s *NetworkSolver) SetSolverParameters(tolerance float64, maxIter int, relaxation float64) *NetworkSolver {
	if tolerance <= 0 || maxIter < 1 || relaxation <= 0 || relaxation > 1 {
		s.deferred = append(s.deferred, fmt.Errorf("%w: tolerance=%g maxIter=%d relaxation=%g",
			ErrInvalidParameter, tolerance, maxIter, relaxation))
		return s
	}
	s.tolerance, s.maxIterations, s.relaxation = tolerance, maxIter, relaxation

	return s
}

// SetFlowlineModel replaces the flowline pressure-drop model. Nil is ignored.
func (s *NetworkSolver) SetFlowlineModel(m FlowlineModel) *NetworkSolver {
	if m != nil {
		s.model = m
	}

	return s
}

// SetReferenceFluid sets the fluid used by CombinedStream.
func (s *NetworkSolver) SetReferenceFluid(f stream.Fluid) *NetworkSolver {
	s.fluid = &f

	return s
}

// WellCount returns the number of registered wells.
func (s *NetworkSolver) WellCount() int { return len(s.wells) }

// EnabledWellCount returns the number of enabled wells.
func (s *NetworkSolver) EnabledWellCount() int {
	c := 0
	for _, n := range s.wells {
		if n.enabled {
			c++
		}
	}

	return c
}

// Solved reports whether the last Solve completed.
func (s *NetworkSolver) Solved() bool { return s.last != nil }

// LastResult returns the result of the last successful Solve, or nil.
func (s *NetworkSolver) LastResult() *NetworkResult { return s.last }

// CombinedStream returns the commingled stream at manifold pressure with the
// total rate of the last Solve (zero before any Solve).
func (s *NetworkSolver) CombinedStream() (*stream.Stream, error) {
	if s.fluid == nil {
		return nil, ErrNoReferenceFluid
	}
	pm, total := s.manifoldPressure, 0.0
	if s.last != nil {
		pm, total = s.last.manifoldPressure, s.last.totalRate
	}
	out := stream.New(s.name+" combined", *s.fluid, pm)
	if err := out.SetStdVolumeFlow(total, "Sm3/day"); err != nil {
		return nil, err
	}

	return out, nil
}

// Solve runs the configured mode and returns a snapshot of the operating point.
//
// Steps:
//  1. Return collected configuration errors, then ErrNoWells.
//  2. Allocate a fresh state arena, one entry per well.
//  3. Run the mode.
//  4. Build the result; log convergence.
func (s *NetworkSolver) Solve(ctx context.Context) (*NetworkResult, error) {
	// 1) configuration
	if err := errors.Join(s.deferred...); err != nil {
		return nil, err
	}
	if len(s.wells) == 0 {
		return nil, ErrNoWells
	}
	if s.mode == FixedTotalRate && s.targetTotalRate <= 0 {
		return nil, fmt.Errorf("%w: target total rate %g Sm3/day", ErrInvalidParameter, s.targetTotalRate)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// 2) arena
	r := &run{
		s:      s,
		ctx:    ctx,
		id:     uuid.New(),
		states: make([]wellState, len(s.wells)),
		pm:     s.manifoldPressure,
	}

	// 3) mode
	var err error
	switch s.mode {
	case FixedManifoldPressure:
		err = r.fixedManifoldPressure()
	case FixedTotalRate:
		err = r.fixedTotalRate()
	case OptimizeAllocation:
		err = r.optimizeAllocation()
	}
	if err != nil {
		return nil, err
	}

	// 4) result
	res := r.result()
	s.last = res
	attrs := []any{
		slog.String("solver", s.name),
		slog.String("mode", s.mode.String()),
		slog.Int("iterations", res.iterations),
		slog.Float64("residual", res.residual),
		slog.Float64("total_sm3_day", res.totalRate),
	}
	if res.converged {
		s.logger.Info("gathering network solved", attrs...)
	} else {
		s.logger.Warn("gathering network not converged", attrs...)
	}

	return res, nil
}

func (s *NetworkSolver) node(name string) *wellNode {
	for i := range s.wells {
		if s.wells[i].name == name {
			return &s.wells[i]
		}
	}
	s.deferred = append(s.deferred, fmt.Errorf("%w: %q", ErrWellNotFound, name))

	return nil
}

// run is the scope of one Solve.
type run struct {
	s      *NetworkSolver
	ctx    context.Context
	id     uuid.UUID
	states []wellState
	pm     float64

	iterations int
	residual   float64
}

// deliver solves well i at wellhead pressure whp and returns its rate in Sm3/day.
func (r *run) deliver(i int, whp float64) (float64, error) {
	n := &r.s.wells[i]
	if err := n.well.SetWellheadPressure(whp, "bara"); err != nil {
		return 0, fmt.Errorf("gathering: well %q: %w", n.name, err)
	}
	if err := n.well.Run(r.id); err != nil {
		return 0, fmt.Errorf("gathering: well %q: %w", n.name, err)
	}
	q, err := n.well.OperatingFlowRate("Sm3/day")
	if err != nil {
		return 0, fmt.Errorf("gathering: well %q: %w", n.name, err)
	}

	return q, nil
}

func (r *run) drop(i int) float64 {
	return r.s.model.PressureDrop(r.s.wells[i].line, r.states[i].rate, r.pm)
}

func (r *run) total() float64 {
	var t float64
	for i, n := range r.s.wells {
		if n.enabled {
			t += r.states[i].rate
		}
	}

	return t
}

// fixedManifoldPressure iterates whp = pm + dP(rate), rate = q(whp)·choke
// with under-relaxation, then curtails to the facility cap.
func (r *run) fixedManifoldPressure() error {
	s := r.s
	for iter := 0; iter < s.maxIterations; iter++ {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		maxChange := 0.0
		for i, n := range s.wells {
			st := &r.states[i]
			if !n.enabled {
				*st = wellState{}
				continue
			}
			whp := r.pm + r.drop(i)
			q, err := r.deliver(i, whp)
			if err != nil {
				return err
			}
			q *= n.choke
			maxChange = math.Max(maxChange, math.Abs(q-st.rate)/math.Max(q, relativeChangeFloor))
			st.rate = st.rate*(1-s.relaxation) + q*s.relaxation
			st.whp = whp
			st.drop = r.drop(i)
		}
		r.iterations = iter + 1
		r.residual = maxChange
		s.logger.Debug("gathering iteration",
			slog.String("solver", s.name),
			slog.Int("iter", r.iterations),
			slog.Float64("manifold_bara", r.pm),
			slog.Float64("max_change", maxChange))
		if maxChange < s.tolerance {
			break
		}
	}

	if total := r.total(); total > s.maxTotalRate {
		scale := s.maxTotalRate / total
		for i := range r.states {
			r.states[i].rate *= scale
		}
	}

	return nil
}

// fixedTotalRate bisects the manifold pressure: rate falls as pressure rises.
func (r *run) fixedTotalRate() error {
	s := r.s
	lo, hi := totalRatePressureLow, totalRatePressureHigh
	iterations, residual := 0, math.Inf(1)
	for iter := 0; iter < s.maxIterations; iter++ {
		r.pm = 0.5 * (lo + hi)
		if err := r.fixedManifoldPressure(); err != nil {
			return err
		}
		total := r.total()
		e := (total - s.targetTotalRate) / s.targetTotalRate
		iterations, residual = iter+1, math.Abs(e)
		if residual < s.tolerance {
			break
		}
		if total > s.targetTotalRate {
			lo = r.pm
		} else {
			hi = r.pm
		}
	}
	r.iterations, r.residual = iterations, residual

	return nil
}

// optimizeAllocation shares min(total potential, cap) by potential and
// back-solves each wellhead pressure.
func (r *run) optimizeAllocation() error {
	s := r.s
	potentials := make([]float64, len(s.wells))
	var totalPotential float64
	for i, n := range s.wells {
		if !n.enabled {
			continue
		}
		q, err := r.deliver(i, r.pm+potentialMargin)
		if err != nil {
			return err
		}
		potentials[i] = q
		totalPotential += q
	}

	target := math.Min(totalPotential, s.maxTotalRate)
	for i, n := range s.wells {
		st := &r.states[i]
		*st = wellState{}
		if !n.enabled || totalPotential <= 0 {
			continue
		}
		st.rate = potentials[i] / totalPotential * target
		if st.rate <= 0 {
			continue
		}
		whp, err := r.wellheadFor(i, st.rate)
		if err != nil {
			return err
		}
		st.whp = whp
		st.drop = r.drop(i)
	}
	r.iterations, r.residual = 1, 0

	return nil
}

// wellheadFor bisects the wellhead pressure in [pm+5, 200] bara until well i
// delivers target within 1%.
func (r *run) wellheadFor(i int, target float64) (float64, error) {
	lo, hi := r.pm+allocationWHPMargin, allocationWHPHigh
	for range allocationWHPIterations {
		mid := 0.5 * (lo + hi)
		q, err := r.deliver(i, mid)
		if err != nil {
			return 0, err
		}
		if math.Abs(q-target)/target < allocationRateTolerance {
			return mid, nil
		}
		if q > target {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0.5 * (lo + hi), nil
}

func (r *run) result() *NetworkResult {
	s := r.s
	res := &NetworkResult{
		name:             s.name,
		mode:             s.mode,
		manifoldPressure: r.pm,
		iterations:       r.iterations,
		residual:         r.residual,
		converged:        r.residual < s.tolerance,
		order:            make([]string, len(s.wells)),
		wellRates:        make(map[string]float64, len(s.wells)),
		wellheads:        make(map[string]float64, len(s.wells)),
		drops:            make(map[string]float64, len(s.wells)),
		enabled:          make(map[string]bool, len(s.wells)),
	}
	for i, n := range s.wells {
		st := r.states[i]
		res.order[i] = n.name
		res.wellRates[n.name] = st.rate
		res.wellheads[n.name] = st.whp
		res.drops[n.name] = st.drop
		res.enabled[n.name] = n.enabled
	}
	res.totalRate = r.total()

	return res
}
