package element_test

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/stream"
)

func gasStream(t *testing.T, p, q float64) *stream.Stream {
	t.Helper()
	s := stream.New("in", stream.DefaultGas(), p)
	require.NoError(t, s.SetMassFlow(q, "kg/s"))

	return s
}

func TestFrictionFactor_Regimes(t *testing.T) {
	assert.Equal(t, 0.0, element.FrictionFactor(0, 1e-5, 0.1))
	assert.InDelta(t, 64.0/1000.0, element.FrictionFactor(1000, 1e-5, 0.1), 1e-12)

	// Smooth pipe at Re=1e5 sits close to the Blasius value 0.316/Re^0.25.
	blasius := 0.316 / math.Pow(1e5, 0.25)
	assert.InDelta(t, blasius, element.FrictionFactor(1e5, 0, 0.1), 0.002)
}

func TestDarcyPressureDrop_SignFollowsFlow(t *testing.T) {
	fwd := element.DarcyPressureDrop(2, 50, 1.2e-5, 1000, 0.2, 1e-5)
	rev := element.DarcyPressureDrop(-2, 50, 1.2e-5, 1000, 0.2, 1e-5)
	assert.Greater(t, fwd, 0.0)
	assert.InDelta(t, -fwd, rev, 1e-9)
	assert.Equal(t, 0.0, element.DarcyPressureDrop(0, 50, 1.2e-5, 1000, 0.2, 1e-5))
}

func TestNewPipe_InvalidGeometry(t *testing.T) {
	_, err := element.NewPipe("p", nil, 0, 0.2)
	assert.ErrorIs(t, err, element.ErrInvalidGeometry)
	_, err = element.NewPipe("p", nil, 100, 0.2, element.WithSegments(0))
	assert.ErrorIs(t, err, element.ErrInvalidGeometry)
}

func TestPipe_RunSteadyState(t *testing.T) {
	in := gasStream(t, 50, 5)
	p, err := element.NewPipe("line", in, 5000, 0.3, element.WithSegments(20))
	require.NoError(t, err)
	require.NoError(t, p.Run(uuid.New()))

	assert.Less(t, p.OutletPressure(), 50.0)
	assert.Greater(t, p.PressureDrop(), 0.0)
	assert.Equal(t, 5.0, p.OutletFlowRate())

	prof, err := p.PressureProfile("bara")
	require.NoError(t, err)
	require.Len(t, prof, 21)
	for i := 1; i < len(prof); i++ {
		assert.Less(t, prof[i], prof[i-1], "pressure must fall along a horizontal pipe")
	}
	vel := p.VelocityProfile()
	assert.Greater(t, vel[len(vel)-1], vel[0], "gas accelerates as it expands")
}

func TestPipe_ElevationAddsHead(t *testing.T) {
	water := stream.Fluid{LiquidDensity: 1000, Viscosity: 1e-3}
	in := stream.New("w", water, 20)
	require.NoError(t, in.SetMassFlow(0, "kg/s"))

	p, err := element.NewPipe("riser", in, 100, 0.1, element.WithElevation(50))
	require.NoError(t, err)
	require.NoError(t, p.Run(uuid.Nil))
	assert.InDelta(t, 20-1000*element.Gravity*50/1e5, p.OutletPressure(), 1e-9)
}

func TestPipe_PressureUnderflow(t *testing.T) {
	water := stream.Fluid{LiquidDensity: 1000, Viscosity: 1e-3}
	in := stream.New("w", water, 10)
	require.NoError(t, in.SetMassFlow(100, "kg/s"))

	p, err := element.NewPipe("thin", in, 1000, 0.02)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Run(uuid.Nil), element.ErrPressureUnderflow)
}

func TestPipe_HeatLossApproachesAmbient(t *testing.T) {
	in := gasStream(t, 80, 2)
	in.SetTemperature(350)
	p, err := element.NewPipe("cooled", in, 20000, 0.2, element.WithHeatTransfer(280, 0.5))
	require.NoError(t, err)
	require.NoError(t, p.Run(uuid.Nil))

	temps, err := p.TemperatureProfile("K")
	require.NoError(t, err)
	last := temps[len(temps)-1]
	assert.Less(t, last, 350.0)
	assert.Greater(t, last, 280.0)

	_, err = p.TemperatureProfile("F")
	assert.Error(t, err)
}

func TestPipe_RunTransientLagsInlet(t *testing.T) {
	in := gasStream(t, 60, 4)
	p, err := element.NewPipe("lag", in, 10000, 0.3)
	require.NoError(t, err)
	require.NoError(t, p.Run(uuid.Nil))

	require.NoError(t, in.SetMassFlow(8, "kg/s"))
	require.NoError(t, p.RunTransient(1, uuid.Nil))
	first := p.OutletFlowRate()
	assert.Greater(t, first, 4.0)
	assert.Less(t, first, 8.0)

	for range 2000 {
		require.NoError(t, p.RunTransient(100, uuid.Nil))
	}
	assert.InDelta(t, 8.0, p.OutletFlowRate(), 1e-6)
	assert.InDelta(t, 200001.0, p.SimulationTime(), 1e-6)

	p.ResetSimulationTime()
	assert.Equal(t, 0.0, p.SimulationTime())
}

func TestPipe_NilInlet(t *testing.T) {
	p, err := element.NewPipe("dangling", nil, 100, 0.1)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Run(uuid.Nil), element.ErrNilInlet)
}

func TestChoke_Opening(t *testing.T) {
	in := gasStream(t, 50, 1)
	c := element.NewChoke("ch", in, 0)
	assert.Equal(t, element.DefaultChokeCv, c.Cv())
	assert.ErrorIs(t, c.SetOpening(1.5), element.ErrInvalidOpening)
	assert.Equal(t, 1.0, c.Opening())

	require.NoError(t, c.Run(uuid.Nil))
	want := 50 - c.PressureDrop(1, in.Density())
	assert.InDelta(t, want, c.OutletPressure(), 1e-12)
	assert.Equal(t, 1.0, c.OutletFlowRate())

	require.NoError(t, c.SetOpening(0.5))
	require.NoError(t, c.Run(uuid.Nil))
	assert.Less(t, c.OutletPressure(), want, "half-open choke drops more pressure")

	require.NoError(t, c.SetOpening(0))
	require.NoError(t, c.Run(uuid.Nil))
	assert.Equal(t, 0.0, c.OutletFlowRate())
}

func TestFeed_HoldsState(t *testing.T) {
	f := element.NewFeed("src", stream.DefaultGas(), 70, 3)
	require.NoError(t, f.Run(uuid.Nil))
	assert.Equal(t, 70.0, f.OutletPressure())
	assert.Equal(t, 3.0, f.OutletFlowRate())
	assert.Nil(t, f.InletStream())

	require.NoError(t, f.SetFlowRate(3600, "kg/hr"))
	assert.InDelta(t, 1.0, f.OutletFlowRate(), 1e-12)
	require.NoError(t, f.SetOutletPressure(7, "MPa"))
	assert.Equal(t, 70.0, f.OutletPressure())

	var _ element.FlowElement = f
	var _ element.FlowElement = (*element.Pipe)(nil)
	var _ element.FlowElement = (*element.Choke)(nil)
}
