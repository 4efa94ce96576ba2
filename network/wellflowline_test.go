package network_test

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/equinor/neqnet/element"
	"github.com/equinor/neqnet/network"
	"github.com/equinor/neqnet/stream"
	"github.com/equinor/neqnet/well"
)

func newGasWell(t *testing.T, name string, pi float64) *well.Well {
	t.Helper()
	w, err := well.New(name, stream.DefaultGas(), 250, well.WithProductivityIndex(pi))
	require.NoError(t, err)

	return w
}

func newFlowline(t *testing.T, name string, length, diameter float64) *element.Pipe {
	t.Helper()
	p, err := element.NewPipe(name, nil, length, diameter)
	require.NoError(t, err)

	return p
}

// twoWellField: two wells on 3 km and 8 km flowlines into the arrival manifold.
func twoWellField(t *testing.T) (*network.WellFlowlineNetwork, []*network.Branch) {
	t.Helper()
	n := network.NewWellFlowlineNetwork("field")
	b1, err := n.AddBranch("w1", newGasWell(t, "w1", 20), newFlowline(t, "fl1", 3000, 0.2), nil, nil)
	require.NoError(t, err)
	b2, err := n.AddBranch("w2", newGasWell(t, "w2", 15), newFlowline(t, "fl2", 8000, 0.2), nil, nil)
	require.NoError(t, err)

	return n, []*network.Branch{b1, b2}
}

func TestWellFlowlineNetwork_ArrivalManifold(t *testing.T) {
	n := network.NewWellFlowlineNetwork("field")
	ms := n.Manifolds()
	require.Len(t, ms, 1)
	assert.Equal(t, "field arrival manifold", ms[0].Name())
	assert.Same(t, ms[0], n.Tail())

	assert.Nil(t, n.ArrivalStream())
	require.NoError(t, n.Run(uuid.New()), "no branches is a no-op")
	_, ok, err := n.TerminalManifoldPressure("bara")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWellFlowlineNetwork_RunHarmonisesArrival(t *testing.T) {
	n, branches := twoWellField(t)
	require.NoError(t, n.Run(uuid.New()))

	arrival := n.ArrivalStream()
	require.NotNil(t, arrival)
	var total float64
	for _, b := range branches {
		assert.Equal(t, arrival.Pressure(), b.Pipeline().OutletPressure(), b.Name())
		assert.Equal(t, arrival.Pressure(), b.Well().OutletPressure(), "wellhead takes the arrival pressure")
		assert.Greater(t, b.Pipeline().OutletFlowRate(), 0.0)
		total += b.Pipeline().OutletFlowRate()
	}
	assert.InDelta(t, total, arrival.MassFlow(), 1e-9)
	assert.Less(t, arrival.Pressure(), well.DefaultWellheadPressure)

	// wells now produce against the lower arrival pressure
	first := arrival.MassFlow()
	require.NoError(t, n.Run(uuid.New()))
	assert.Greater(t, n.ArrivalStream().MassFlow(), first)
}

func TestWellFlowlineNetwork_NoPropagation(t *testing.T) {
	n, branches := twoWellField(t)
	n.SetPropagateArrivalPressureToWells(false)
	require.NoError(t, n.Run(uuid.New()))

	for _, b := range branches {
		assert.Equal(t, well.DefaultWellheadPressure, b.Well().OutletPressure())
	}
}

func TestWellFlowlineNetwork_EndpointWithoutFacility(t *testing.T) {
	n, branches := twoWellField(t)
	require.NoError(t, n.SetTargetEndpointPressure(40, "bara"))
	require.NoError(t, n.Run(uuid.New()))

	p, ok, err := n.TerminalManifoldPressure("bara")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 40.0, p, 1e-12)
	assert.InDelta(t, 40.0, n.ArrivalStream().Pressure(), 1e-12)
	assert.Zero(t, n.EndpointIterations())
	assert.True(t, n.EndpointConverged())
	for _, b := range branches {
		assert.InDelta(t, 40.0, b.Well().OutletPressure(), 1e-12)
	}
}

func TestWellFlowlineNetwork_EndpointWithFacility(t *testing.T) {
	n, _ := twoWellField(t)
	n.SetFacilityPipeline(newFlowline(t, "export", 10000, 0.3))
	require.NoError(t, n.SetTargetEndpointPressure(30, "bara"))
	n.SetIterationTolerance(1e-3)
	require.NoError(t, n.Run(uuid.New()))

	require.True(t, n.EndpointConverged(), "residual %g", n.EndpointResidual())
	assert.InDelta(t, 30.0, n.FacilityPipeline().OutletPressure(), 1e-3)
	assert.Greater(t, n.EndpointIterations(), 0)

	p, ok, err := n.TerminalManifoldPressure("bara")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Greater(t, p, 30.0, "arrival sits above the facility outlet")
	assert.InDelta(t, p, n.ArrivalStream().Pressure(), 1e-9)

	barg, _, err := n.TerminalManifoldPressure("barg")
	require.NoError(t, err)
	assert.InDelta(t, p-1.01325, barg, 1e-9)
}

func TestWellFlowlineNetwork_EndpointIterationCap(t *testing.T) {
	n, _ := twoWellField(t)
	n.SetFacilityPipeline(newFlowline(t, "export", 10000, 0.3))
	require.NoError(t, n.SetTargetEndpointPressure(30, "bara"))
	n.SetMaxIterations(0)
	require.NoError(t, n.Run(uuid.New()))

	assert.False(t, n.EndpointConverged())
	assert.Less(t, n.EndpointResidual(), 0.0, "facility drop puts the endpoint below target")
	assert.Zero(t, n.EndpointIterations())
}

// breakableLine is a flowline whose Run fails once broken is set.
type breakableLine struct {
	*element.Pipe
	broken bool
}

func (l *breakableLine) Run(id uuid.UUID) error {
	if l.broken {
		return element.ErrPressureUnderflow
	}

	return l.Pipe.Run(id)
}

func TestWellFlowlineNetwork_EndpointFailureIsNotConverged(t *testing.T) {
	n, _ := twoWellField(t)
	assert.False(t, n.EndpointConverged())
	assert.True(t, math.IsNaN(n.EndpointResidual()))

	export := &breakableLine{Pipe: newFlowline(t, "export", 10000, 0.3)}
	n.SetFacilityPipeline(export)
	require.NoError(t, n.SetTargetEndpointPressure(30, "bara"))
	n.SetIterationTolerance(1e-3)
	require.NoError(t, n.Run(uuid.New()))
	require.True(t, n.EndpointConverged())

	export.broken = true
	err := n.Run(uuid.New())
	assert.ErrorIs(t, err, element.ErrPressureUnderflow)
	assert.False(t, n.EndpointConverged(), "a failed run must not keep the previous convergence")
	assert.True(t, math.IsNaN(n.EndpointResidual()))
	assert.Zero(t, n.EndpointIterations())
}

func TestWellFlowlineNetwork_TransientWithEndpointTarget(t *testing.T) {
	n, _ := twoWellField(t)
	n.SetFacilityPipeline(newFlowline(t, "export", 10000, 0.3))
	require.NoError(t, n.SetTargetEndpointPressure(30, "bara"))
	n.SetIterationTolerance(1e-3)

	require.NoError(t, n.Run(uuid.New()))
	steady := n.ArrivalStream().MassFlow()
	require.NoError(t, n.RunTransient(60, uuid.New()))

	assert.InDelta(t, 60.0, n.SimulationTime(), 1e-12)
	assert.True(t, n.EndpointConverged())
	assert.InDelta(t, steady, n.ArrivalStream().MassFlow(), 1e-3*steady, "quasi-steady step")
}

func TestWellFlowlineNetwork_ChokedBranch(t *testing.T) {
	n := network.NewWellFlowlineNetwork("field")
	w := newGasWell(t, "w1", 20)
	fl := newFlowline(t, "fl1", 3000, 0.2)
	ck := element.NewChoke("ck1", nil, 0)
	b, err := n.AddBranch("w1", w, fl, ck, nil)
	require.NoError(t, err)
	assert.Same(t, ck.OutletStream(), fl.InletStream())
	assert.Same(t, w.OutletStream(), ck.InletStream())

	require.NoError(t, n.Run(uuid.New()))
	assert.Equal(t, n.ArrivalStream().Pressure(), ck.OutletPressure())
	assert.Greater(t, fl.OutletFlowRate(), 0.0)

	require.NoError(t, ck.SetOpening(0))
	require.NoError(t, n.Run(uuid.New()))
	assert.True(t, b.Shut())
	assert.Zero(t, n.ArrivalStream().MassFlow())
	q, err := w.OperatingFlowRate("Sm3/day")
	require.NoError(t, err)
	assert.Zero(t, q, "well behind a closed choke is shut in")
	assert.Equal(t, w.OutletFlowRate(), fl.OutletFlowRate())

	require.NoError(t, n.RunTransient(30, uuid.New()))
	assert.Zero(t, w.OutletFlowRate())

	require.NoError(t, ck.SetOpening(0.5))
	require.NoError(t, n.Run(uuid.New()))
	assert.False(t, b.Shut())
	assert.Greater(t, w.OutletFlowRate(), 0.0)
	assert.InDelta(t, w.OutletFlowRate(), fl.OutletFlowRate(), 1e-9)

	b.SetChoke(nil)
	assert.Same(t, w.OutletStream(), fl.InletStream())
	assert.Nil(t, b.Choke())
}

func TestWellFlowlineNetwork_CalcOutletWellsForcedToFlowMode(t *testing.T) {
	n, branches := twoWellField(t)
	branches[0].Well().SolveFlowFromOutletPressure(false)
	require.True(t, branches[0].Well().IsCalculatingOutletPressure())
	require.NoError(t, n.Run(uuid.New()))
	assert.False(t, branches[0].Well().IsCalculatingOutletPressure())
}

func TestWellFlowlineNetwork_ManifoldChain(t *testing.T) {
	n := network.NewWellFlowlineNetwork("field")
	subsea := n.Tail()
	riser := newFlowline(t, "riser", 2000, 0.3)
	platform, err := n.AddManifold("platform", riser)
	require.NoError(t, err)
	assert.Same(t, platform, n.Tail())
	assert.Equal(t, "platform", subsea.Downstream())

	_, err = n.AddBranch("w1", newGasWell(t, "w1", 20), newFlowline(t, "fl1", 3000, 0.2), nil, subsea)
	require.NoError(t, err)
	_, err = n.AddBranch("w2", newGasWell(t, "w2", 10), newFlowline(t, "fl2", 1000, 0.2), nil, nil)
	require.NoError(t, err)
	require.Len(t, n.Branches(), 2)

	order, err := n.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{subsea.Name(), "platform"}, order)

	require.NoError(t, n.Run(uuid.New()))
	var wells float64
	for _, b := range n.Branches() {
		wells += b.Pipeline().OutletFlowRate()
	}
	assert.InDelta(t, wells, n.ArrivalStream().MassFlow(), 1e-9)
	assert.InDelta(t, subsea.OutletStream().MassFlow(), riser.OutletFlowRate(), 1e-9)
	assert.Equal(t, platform.Pressure(), riser.OutletPressure())
	assert.Greater(t, subsea.Pressure(), platform.Pressure())
}

func TestWellFlowlineNetwork_ConfigurationErrors(t *testing.T) {
	n := network.NewWellFlowlineNetwork("field")
	other := network.NewWellFlowlineNetwork("other")

	_, err := n.AddBranch("x", nil, newFlowline(t, "fl", 100, 0.1), nil, nil)
	assert.ErrorIs(t, err, network.ErrNilElement)
	_, err = n.AddBranch("x", newGasWell(t, "x", 1), nil, nil, nil)
	assert.ErrorIs(t, err, network.ErrNilElement)
	_, err = n.AddBranch("x", newGasWell(t, "x", 1), newFlowline(t, "fl", 100, 0.1), nil, other.Tail())
	assert.ErrorIs(t, err, network.ErrManifoldNotFound)

	_, err = n.AddManifold("m", nil)
	assert.ErrorIs(t, err, network.ErrNilElement)
	_, err = n.CreateManifold("field arrival manifold")
	assert.ErrorIs(t, err, network.ErrDuplicateManifold)

	a, err := n.CreateManifold("a")
	require.NoError(t, err)
	require.NoError(t, n.ConnectManifolds(n.Manifolds()[0], a, newFlowline(t, "c1", 100, 0.1)))
	err = n.ConnectManifolds(n.Manifolds()[0], a, newFlowline(t, "c2", 100, 0.1))
	assert.ErrorIs(t, err, network.ErrOutboundExists)
	err = n.ConnectManifolds(other.Tail(), a, newFlowline(t, "c3", 100, 0.1))
	assert.ErrorIs(t, err, network.ErrManifoldNotFound)
	b, err := n.CreateManifold("b")
	require.NoError(t, err)
	err = n.ConnectManifolds(a, b, newFlowline(t, "c1", 100, 0.1))
	assert.ErrorIs(t, err, network.ErrDuplicatePipeline)
	assert.Nil(t, a.Outbound(), "failed connect must not mutate")

	assert.Error(t, n.SetTargetEndpointPressure(10, "furlongs"))
	assert.Empty(t, n.Branches())
}

func TestWellFlowlineNetwork_Transient(t *testing.T) {
	n, _ := twoWellField(t)
	require.NoError(t, n.RunTransient(60, uuid.New()))
	require.NoError(t, n.RunTransient(60, uuid.New()))
	assert.InDelta(t, 120.0, n.SimulationTime(), 1e-12)
	assert.Greater(t, n.ArrivalStream().MassFlow(), 0.0)

	n.ResetSimulationTime()
	assert.Zero(t, n.SimulationTime())
}
