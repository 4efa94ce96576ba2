package gathering

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNoWells is returned by Solve on a solver without wells.
	ErrNoWells = errors.New("gathering: no wells in network")

	// ErrWellNotFound indicates a setter named an unknown well.
	ErrWellNotFound = errors.New("gathering: well not found")

	// ErrDuplicateWell indicates AddWell received a name already registered.
	ErrDuplicateWell = errors.New("gathering: duplicate well")

	// ErrNilWell indicates AddWell received a nil well.
	ErrNilWell = errors.New("gathering: nil well")

	// ErrInvalidParameter indicates a non-physical solver or flowline parameter.
	ErrInvalidParameter = errors.New("gathering: invalid parameter")

	// ErrUnknownMode indicates an unrecognised solution mode.
	ErrUnknownMode = errors.New("gathering: unknown solution mode")

	// ErrNoReferenceFluid is returned by CombinedStream before SetReferenceFluid.
	ErrNoReferenceFluid = errors.New("gathering: reference fluid not set")
)

// Producer is what the solver needs from a well: impose a wellhead pressure,
// solve, read the rate. *well.Well satisfies it.
type Producer interface {
	Name() string
	SetWellheadPressure(value float64, unit string) error
	Run(id uuid.UUID) error
	OperatingFlowRate(unit string) (float64, error)
}

// Mode selects the solution strategy.
type Mode int

const (
	FixedManifoldPressure Mode = iota
	FixedTotalRate
	OptimizeAllocation
)

var modeNames = [...]string{"fixed_manifold_pressure", "fixed_total_rate", "optimize_allocation"}

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("Mode(%d)", int(m))
	}

	return modeNames[m]
}

// ParseMode accepts the String form, case-insensitively, with '-' or '_'.
func ParseMode(s string) (Mode, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, name := range modeNames {
		if key == name {
			return Mode(i), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Solver defaults.
const (
	DefaultManifoldPressure  = 50.0  // bara
	DefaultTolerance         = 0.001 // relative
	DefaultMaxIterations     = 100
	DefaultRelaxation        = 0.5
	DefaultFlowlineDiameter  = 0.15    // m
	DefaultFlowlineRoughness = 0.00005 // m

	totalRatePressureLow    = 10.0  // bara
	totalRatePressureHigh   = 150.0 // bara
	potentialMargin         = 10.0  // bar above manifold
	allocationWHPMargin     = 5.0   // bar above manifold
	allocationWHPHigh       = 200.0 // bara
	allocationWHPIterations = 20
	allocationRateTolerance = 0.01
	relativeChangeFloor     = 1.0 // Sm3/day
)

// Option configures a NetworkSolver at construction.
type Option func(*NetworkSolver)

// WithLogger routes solver diagnostics to l. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(s *NetworkSolver) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithModel selects the flowline model at construction.
func WithModel(m FlowlineModel) Option {
	return func(s *NetworkSolver) {
		if m != nil {
			s.model = m
		}
	}
}

// WellOption configures a well's flowline in AddWell.
type WellOption func(*wellNode)

// WithFlowlineDiameter sets the flowline inner diameter in metres.
func WithFlowlineDiameter(d float64) WellOption {
	return func(n *wellNode) { n.line.Diameter = d }
}

// WithFlowlineRoughness sets the flowline wall roughness in metres.
func WithFlowlineRoughness(r float64) WellOption {
	return func(n *wellNode) { n.line.Roughness = r }
}
