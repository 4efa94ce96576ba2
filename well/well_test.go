package well_test

import (
	"fmt"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/well"
)

func newPIWell(t *testing.T) *well.Well {
	t.Helper()
	w, err := well.New("w1", stream.DefaultGas(), 250, well.WithProductivityIndex(100))
	require.NoError(t, err)

	return w
}

func TestNew_Validation(t *testing.T) {
	_, err := well.New("none", stream.DefaultGas(), 250)
	assert.ErrorIs(t, err, well.ErrInvalidIPR)

	_, err = well.New("neg", stream.DefaultGas(), 250, well.WithProductivityIndex(-1))
	assert.ErrorIs(t, err, well.ErrInvalidIPR)

	_, err = well.New("pr", stream.DefaultGas(), 0, well.WithProductivityIndex(1))
	assert.ErrorIs(t, err, well.ErrInvalidIPR)

	_, err = well.New("tub", stream.DefaultGas(), 250, well.WithProductivityIndex(1), well.WithTubing(0, 0.1, 90))
	assert.ErrorIs(t, err, well.ErrInvalidTubing)
}

func TestInflowModels(t *testing.T) {
	gas := stream.DefaultGas()
	cases := []struct {
		name string
		opt  well.Option
		pwf  float64
		want float64
	}{
		{"pi", well.WithProductivityIndex(100), 150, 100 * (250*250 - 150*150)},
		{"vogel", well.WithVogel(1e6), 125, 1e6 * (1 - 0.1 - 0.2)},
		{"fetkovich", well.WithFetkovich(2, 0.5), 150, 2 * math.Sqrt(250*250-150*150)},
		{"backpressure quadratic", well.WithBackpressure(0, 1e-6), 150, math.Sqrt((250*250 - 150*150) / 1e-6)},
		{"backpressure linear", well.WithBackpressure(0.01, 0), 150, (250*250 - 150*150) / 0.01},
		{"table", well.WithTable([]float64{250, 0, 100}, []float64{0, 3e6, 2e6}), 175, 1e6},
		{"no backflow", well.WithProductivityIndex(100), 300, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, err := well.New(tc.name, gas, 250, tc.opt)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, w.InflowRate(tc.pwf), 1e-6*math.Max(1, tc.want))
		})
	}
}

func TestParseIPRModel(t *testing.T) {
	for _, m := range []well.IPRModel{well.ProductionIndex, well.Vogel, well.Fetkovich, well.Backpressure, well.Table} {
		got, err := well.ParseIPRModel(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	_, err := well.ParseIPRModel("darcy")
	assert.ErrorIs(t, err, well.ErrInvalidIPR)
}

func TestWell_RateFallsWithWellheadPressure(t *testing.T) {
	w := newPIWell(t)
	prev := math.Inf(1)
	for _, whp := range []float64{20, 50, 80, 120, 160} {
		require.NoError(t, w.SetWellheadPressure(whp, "bara"))
		require.NoError(t, w.Run(uuid.New()))
		q, err := w.OperatingFlowRate("Sm3/day")
		require.NoError(t, err)
		assert.LessOrEqual(t, q, prev, "whp=%g", whp)
		assert.Greater(t, w.BottomHolePressure(), whp)
		prev = q
	}
	assert.Greater(t, prev, 0.0)
}

func TestWell_NoFlowAboveStaticColumn(t *testing.T) {
	w := newPIWell(t)
	require.NoError(t, w.SetWellheadPressure(245, "bara"))
	require.NoError(t, w.Run(uuid.Nil))
	q, err := w.OperatingFlowRate("MSm3/day")
	require.NoError(t, err)
	assert.Equal(t, 0.0, q)
	assert.Equal(t, 0.0, w.OutletFlowRate())
}

func TestWell_CalculateOutletPressureRoundTrip(t *testing.T) {
	w := newPIWell(t)
	require.NoError(t, w.SetWellheadPressure(60, "bara"))
	require.NoError(t, w.Run(uuid.Nil))
	q, err := w.OperatingFlowRate("Sm3/day")
	require.NoError(t, err)
	require.Greater(t, q, 0.0)

	require.NoError(t, w.InletStream().SetStdVolumeFlow(q, "Sm3/day"))
	w.SolveFlowFromOutletPressure(false)
	assert.True(t, w.IsCalculatingOutletPressure())
	require.NoError(t, w.Run(uuid.Nil))
	assert.InDelta(t, 60.0, w.OutletPressure(), 0.05)
}

func TestWell_CalculateOutletPressureErrors(t *testing.T) {
	w := newPIWell(t)
	w.SolveFlowFromOutletPressure(false)

	require.NoError(t, w.InletStream().SetStdVolumeFlow(2*w.AbsoluteOpenFlow(), "Sm3/day"))
	assert.ErrorIs(t, w.Run(uuid.Nil), well.ErrRateAbovePotential)

	require.NoError(t, w.InletStream().SetStdVolumeFlow(0.999*w.AbsoluteOpenFlow(), "Sm3/day"))
	assert.ErrorIs(t, w.Run(uuid.Nil), well.ErrCannotLift)
}

func TestWell_IPRCurve(t *testing.T) {
	w := newPIWell(t)
	curve := w.IPRCurve(11)
	require.Len(t, curve, 11)
	assert.Equal(t, 250.0, curve[0].BHP)
	assert.Equal(t, 0.0, curve[0].Rate)
	assert.InDelta(t, w.AbsoluteOpenFlow(), curve[10].Rate, 1e-6)
	for i := 1; i < len(curve); i++ {
		assert.Greater(t, curve[i].Rate, curve[i-1].Rate)
	}
}

func TestWell_ShutIn(t *testing.T) {
	w := newPIWell(t)
	require.NoError(t, w.Run(uuid.Nil))
	require.Greater(t, w.OutletFlowRate(), 0.0)

	id := uuid.New()
	w.ShutIn(id)
	q, err := w.OperatingFlowRate("Sm3/day")
	require.NoError(t, err)
	assert.Zero(t, q)
	assert.Zero(t, w.OutletFlowRate())
	assert.Equal(t, w.ReservoirPressure(), w.BottomHolePressure())
	assert.Equal(t, w.WellheadPressure(), w.OutletPressure())
	assert.Equal(t, id, w.CalculationIdentifier())

	require.NoError(t, w.Run(uuid.Nil))
	assert.Greater(t, w.OutletFlowRate(), 0.0, "a later Run produces again")
}

func TestWell_ImplementsInflow(t *testing.T) {
	var _ well.Inflow = newPIWell(t)
	var _ element.FlowElement = newPIWell(t)
}

func ExampleWell_IPRCurve() {
	w, _ := well.New("demo", stream.DefaultGas(), 200, well.WithProductivityIndex(50))
	for _, p := range w.IPRCurve(3) {
		fmt.Printf("%.0f bara -> %.2f MSm3/day\n", p.BHP, p.Rate/1e6)
	}
	// Output:
	// 200 bara -> 0.00 MSm3/day
	// 100 bara -> 1.50 MSm3/day
	// 0 bara -> 2.00 MSm3/day
}
