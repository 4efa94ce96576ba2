package gathering_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinor/neqnet/gathering"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/units"
	"github.com/equinor/neqnet/well"
)

// backpressureWell delivers q = c·(pr² - whp²) Sm3/day, zero above pr.
type backpressureWell struct {
	name string
	c    float64
	pr   float64
	whp  float64
	rate float64
	runs int
}

func (w *backpressureWell) Name() string { return w.name }

func (w *backpressureWell) SetWellheadPressure(v float64, unit string) error {
	p, err := units.ToBara(v, unit)
	if err != nil {
		return err
	}
	w.whp = p

	return nil
}

func (w *backpressureWell) Run(uuid.UUID) error {
	w.runs++
	w.rate = math.Max(0, w.c*(w.pr*w.pr-w.whp*w.whp))

	return nil
}

func (w *backpressureWell) OperatingFlowRate(unit string) (float64, error) {
	return units.FromSm3PerDay(w.rate, unit)
}

// twoWells: 3 km and 8 km flowlines, about 10 MSm3/day at 80 bara wellhead.
func twoWells() (*gathering.NetworkSolver, *backpressureWell, *backpressureWell) {
	w1 := &backpressureWell{name: "well1", c: 72, pr: 300}
	w2 := &backpressureWell{name: "well2", c: 48, pr: 300}
	s := gathering.NewNetworkSolver("field").
		AddWell(w1, 3).
		AddWell(w2, 8)

	return s, w1, w2
}

func TestSolve_NoWells(t *testing.T) {
	s := gathering.NewNetworkSolver("empty")
	res, err := s.Solve(context.Background())
	assert.ErrorIs(t, err, gathering.ErrNoWells)
	assert.Nil(t, res)
	assert.False(t, s.Solved())
}

func TestSolve_TwoWellScenario(t *testing.T) {
	w1, err := well.New("well1", stream.DefaultGas(), 250, well.WithProductivityIndex(20))
	require.NoError(t, err)
	w2, err := well.New("well2", stream.DefaultGas(), 250, well.WithProductivityIndex(20))
	require.NoError(t, err)

	s := gathering.NewNetworkSolver("subsea").
		AddWell(w1, 3).
		AddWell(w2, 8).
		SetManifoldPressure(50, "bara")
	res, err := s.Solve(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Converged(), "residual %g", res.Residual())
	assert.LessOrEqual(t, res.Iterations(), gathering.DefaultMaxIterations)
	assert.Less(t, res.Residual(), gathering.DefaultTolerance)

	rates := res.WellRates()
	total, err := res.TotalRate("Sm3/day")
	require.NoError(t, err)
	assert.InDelta(t, rates["well1"]+rates["well2"], total, 1e-6*total)
	assert.Greater(t, rates["well1"], rates["well2"], "shorter flowline, less backpressure")
	assert.Equal(t, 2, res.ProducingWellCount())

	whp := res.WellheadPressures()
	drops := res.FlowlinePressureDrops()
	for _, name := range []string{"well1", "well2"} {
		assert.Greater(t, drops[name], 0.0)
		assert.InDelta(t, 50+drops[name], whp[name], 0.05, name)
	}
	assert.True(t, s.Solved())
	assert.Same(t, res, s.LastResult())
}

func TestSolve_RatesFallWithManifoldPressure(t *testing.T) {
	prev := map[string]float64{"well1": math.Inf(1), "well2": math.Inf(1)}
	for _, pm := range []float64{20, 40, 60, 80, 100, 120} {
		s, _, _ := twoWells()
		res, err := s.SetManifoldPressure(pm, "bara").Solve(context.Background())
		require.NoError(t, err)
		for name, q := range res.WellRates() {
			assert.LessOrEqual(t, q, prev[name], "%s at %g bara", name, pm)
			prev[name] = q
		}
	}
}

func TestSolve_ProportionalCurtailment(t *testing.T) {
	free, _, _ := twoWells()
	unconstrained, err := free.Solve(context.Background())
	require.NoError(t, err)
	total, err := unconstrained.TotalRate("MSm3/day")
	require.NoError(t, err)

	capped, _, _ := twoWells()
	res, err := capped.SetMaxTotalRate(total/2, "MSm3/day").Solve(context.Background())
	require.NoError(t, err)

	got, err := res.TotalRate("MSm3/day")
	require.NoError(t, err)
	assert.InDelta(t, total/2, got, 1e-9)
	before := unconstrained.WellRates()
	for name, q := range res.WellRates() {
		assert.InDelta(t, 0.5, q/before[name], 1e-12, name)
	}
}

func TestSolve_DisabledWell(t *testing.T) {
	s, _, w2 := twoWells()
	res, err := s.SetWellEnabled("well2", false).Solve(context.Background())
	require.NoError(t, err)

	assert.Zero(t, res.WellRates()["well2"])
	assert.False(t, res.WellEnabled()["well2"])
	assert.Equal(t, 1, res.ProducingWellCount())
	assert.Zero(t, w2.runs, "disabled wells are never evaluated")
	assert.Equal(t, 2, s.WellCount())
	assert.Equal(t, 1, s.EnabledWellCount())

	total, err := res.TotalRate("Sm3/day")
	require.NoError(t, err)
	assert.Equal(t, res.WellRates()["well1"], total)
}

func TestSolve_ChokeOpening(t *testing.T) {
	s, _, _ := twoWells()
	res, err := s.SetChokeOpening("well1", 1.7).SetChokeOpening("well2", -3).Solve(context.Background())
	require.NoError(t, err)
	assert.Greater(t, res.WellRates()["well1"], 0.0, "opening clamps to 1")
	assert.Zero(t, res.WellRates()["well2"], "opening clamps to 0")
	assert.Equal(t, 1, res.ProducingWellCount())
}

func TestSolve_FixedTotalRate(t *testing.T) {
	s, _, _ := twoWells()
	s.SetSolverParameters(1e-4, 200, 0.5).SetTargetTotalRate(10, "MSm3/day")
	res, err := s.Solve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, gathering.FixedTotalRate, res.Mode())
	require.True(t, res.Converged(), "residual %g", res.Residual())

	total, err := res.TotalRate("MSm3/day")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, total, 10*1e-3)

	pm, err := res.ManifoldPressure("bara")
	require.NoError(t, err)
	assert.Greater(t, pm, 10.0)
	assert.Less(t, pm, 150.0)

	check, _, _ := twoWells()
	back, err := check.SetSolverParameters(1e-4, 200, 0.5).
		SetManifoldPressure(pm, "bara").
		Solve(context.Background())
	require.NoError(t, err)
	again, err := back.TotalRate("MSm3/day")
	require.NoError(t, err)
	assert.InDelta(t, 10.0, again, 10*1e-3, "manifold pressure reproduces the target")
}

func TestSolve_OptimizeAllocation(t *testing.T) {
	s, w1, w2 := twoWells()
	res, err := s.SetSolutionMode(gathering.OptimizeAllocation).
		SetMaxTotalRate(8, "MSm3/day").
		Solve(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Converged())
	assert.Equal(t, 1, res.Iterations())

	total, err := res.TotalRate("MSm3/day")
	require.NoError(t, err)
	assert.InDelta(t, 8.0, total, 1e-9)

	// potentials at 60 bara: 72 and 48 times (300² - 60²)
	rates := res.WellRates()
	assert.InDelta(t, 72.0/48.0, rates["well1"]/rates["well2"], 1e-9)

	for name, whp := range res.WellheadPressures() {
		assert.GreaterOrEqual(t, whp, 55.0, name)
		assert.LessOrEqual(t, whp, 200.0, name)
	}
	for _, w := range []*backpressureWell{w1, w2} {
		require.NoError(t, w.SetWellheadPressure(res.WellheadPressures()[w.name], "bara"))
		require.NoError(t, w.Run(uuid.Nil))
		assert.InEpsilon(t, rates[w.name], w.rate, 0.011, w.name)
	}
}

func TestSolve_OptimizeAllocationWithoutEnabledWells(t *testing.T) {
	s, _, _ := twoWells()
	res, err := s.SetSolutionMode(gathering.OptimizeAllocation).
		SetWellEnabled("well1", false).
		SetWellEnabled("well2", false).
		Solve(context.Background())
	require.NoError(t, err)
	total, err := res.TotalRate("Sm3/day")
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, res.ProducingWellCount())
}

func TestSolve_DeferredConfigurationErrors(t *testing.T) {
	cases := []struct {
		name  string
		apply func(*gathering.NetworkSolver)
		want  error
	}{
		{"pressure unit", func(s *gathering.NetworkSolver) { s.SetManifoldPressure(50, "furlongs") }, units.ErrUnknownUnit},
		{"rate unit", func(s *gathering.NetworkSolver) { s.SetMaxTotalRate(5, "gallons") }, units.ErrUnknownUnit},
		{"unknown well", func(s *gathering.NetworkSolver) { s.SetWellEnabled("ghost", true) }, gathering.ErrWellNotFound},
		{"solver params", func(s *gathering.NetworkSolver) { s.SetSolverParameters(0, 10, 0.5) }, gathering.ErrInvalidParameter},
		{"relaxation", func(s *gathering.NetworkSolver) { s.SetSolverParameters(1e-3, 10, 1.5) }, gathering.ErrInvalidParameter},
		{"nil well", func(s *gathering.NetworkSolver) { s.AddWell(nil, 1) }, gathering.ErrNilWell},
		{"flowline", func(s *gathering.NetworkSolver) {
			s.AddWell(&backpressureWell{name: "x"}, 1, gathering.WithFlowlineDiameter(0))
		}, gathering.ErrInvalidParameter},
		{"mode", func(s *gathering.NetworkSolver) { s.SetSolutionMode(gathering.Mode(9)) }, gathering.ErrUnknownMode},
		{"duplicate well", func(s *gathering.NetworkSolver) {
			s.AddWell(&backpressureWell{name: "well1", c: 10, pr: 300}, 2)
		}, gathering.ErrDuplicateWell},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, w1, w2 := twoWells()
			tc.apply(s)
			_, err := s.Solve(context.Background())
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, w1.runs+w2.runs, "nothing runs on a misconfigured solver")
		})
	}
}

func TestAddWell_DuplicateNameIsNotRegistered(t *testing.T) {
	s, _, _ := twoWells()
	s.AddWell(&backpressureWell{name: "well2", c: 99, pr: 300}, 1)
	assert.Equal(t, 2, s.WellCount())

	_, err := s.Solve(context.Background())
	assert.ErrorIs(t, err, gathering.ErrDuplicateWell)
	assert.ErrorContains(t, err, `"well2"`)
	assert.False(t, s.Solved())
}

func TestSolve_ZeroTargetRate(t *testing.T) {
	s, _, _ := twoWells()
	_, err := s.SetSolutionMode(gathering.FixedTotalRate).Solve(context.Background())
	assert.ErrorIs(t, err, gathering.ErrInvalidParameter)
}

func TestSolve_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, _, _ := twoWells()
	_, err := s.Solve(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSolve_NonConvergenceIsReported(t *testing.T) {
	s, _, _ := twoWells()
	res, err := s.SetSolverParameters(1e-12, 2, 0.5).Solve(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Converged())
	assert.Equal(t, 2, res.Iterations())
	assert.Greater(t, res.WellRates()["well1"], 0.0, "best effort rates are still populated")
}

func TestSolve_DarcyFlowline(t *testing.T) {
	s, _, _ := twoWells()
	res, err := s.SetFlowlineModel(gathering.DarcyFlowline{Fluid: stream.DefaultGas()}).
		Solve(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Converged())
	drops := res.FlowlinePressureDrops()
	assert.Greater(t, drops["well2"], 0.0)
}

func TestCombinedStream(t *testing.T) {
	s, _, _ := twoWells()
	_, err := s.CombinedStream()
	assert.ErrorIs(t, err, gathering.ErrNoReferenceFluid)

	s.SetReferenceFluid(stream.DefaultGas()).SetManifoldPressure(60, "bara")
	res, err := s.Solve(context.Background())
	require.NoError(t, err)

	cs, err := s.CombinedStream()
	require.NoError(t, err)
	assert.Equal(t, 60.0, cs.Pressure())
	q, err := cs.StdVolumeFlow("Sm3/day")
	require.NoError(t, err)
	total, err := res.TotalRate("Sm3/day")
	require.NoError(t, err)
	assert.InDelta(t, total, q, 1e-6*total)
}

func TestParseMode(t *testing.T) {
	for _, m := range []gathering.Mode{gathering.FixedManifoldPressure, gathering.FixedTotalRate, gathering.OptimizeAllocation} {
		got, err := gathering.ParseMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := gathering.ParseMode("Fixed-Total-Rate")
	require.NoError(t, err)
	assert.Equal(t, gathering.FixedTotalRate, got)

	_, err = gathering.ParseMode("random")
	assert.ErrorIs(t, err, gathering.ErrUnknownMode)
	assert.Equal(t, "Mode(7)", gathering.Mode(7).String())
}
