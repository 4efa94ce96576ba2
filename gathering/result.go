package gathering

import (
	"fmt"
	"maps"
	"strings"

	"github.com/equinor/neqnet/units"
)

// NetworkResult is a snapshot of one Solve. Accessors return copies.
type NetworkResult struct {
	name             string
	mode             Mode
	manifoldPressure float64 // bara
	totalRate        float64 // Sm3/day
	iterations       int
	residual         float64
	converged        bool

	order     []string
	wellRates map[string]float64 // Sm3/day
	wellheads map[string]float64 // bara
	drops     map[string]float64 // bar
	enabled   map[string]bool
}

// Name returns the solver name.
func (r *NetworkResult) Name() string { return r.name }

// Mode returns the solution mode used.
func (r *NetworkResult) Mode() Mode { return r.mode }

// ManifoldPressure returns the manifold pressure in unit. In FixedTotalRate
// mode it is the pressure found by the bisection.
func (r *NetworkResult) ManifoldPressure(unit string) (float64, error) {
	return units.FromBara(r.manifoldPressure, unit)
}

// TotalRate returns the summed rate of enabled wells in a std volume unit.
func (r *NetworkResult) TotalRate(unit string) (float64, error) {
	return units.FromSm3PerDay(r.totalRate, unit)
}

// WellRate returns one well's allocated rate in unit.
func (r *NetworkResult) WellRate(name, unit string) (float64, error) {
	q, ok := r.wellRates[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrWellNotFound, name)
	}

	return units.FromSm3PerDay(q, unit)
}

// WellRates returns allocated rates in Sm3/day by well name.
func (r *NetworkResult) WellRates() map[string]float64 { return maps.Clone(r.wellRates) }

// WellheadPressures returns wellhead pressures in bara by well name.
func (r *NetworkResult) WellheadPressures() map[string]float64 { return maps.Clone(r.wellheads) }

// FlowlinePressureDrops returns flowline drops in bar by well name.
func (r *NetworkResult) FlowlinePressureDrops() map[string]float64 { return maps.Clone(r.drops) }

// WellEnabled returns the enabled flag by well name.
func (r *NetworkResult) WellEnabled() map[string]bool { return maps.Clone(r.enabled) }

// WellNames returns well names in registration order.
func (r *NetworkResult) WellNames() []string { return append([]string(nil), r.order...) }

// ProducingWellCount counts enabled wells with a positive rate.
func (r *NetworkResult) ProducingWellCount() int {
	c := 0
	for name, q := range r.wellRates {
		if r.enabled[name] && q > 0 {
			c++
		}
	}

	return c
}

// Converged reports whether the final residual is below tolerance.
func (r *NetworkResult) Converged() bool { return r.converged }

// Iterations returns the iteration count of the outermost loop.
func (r *NetworkResult) Iterations() int { return r.iterations }

// Residual returns the final relative residual.
func (r *NetworkResult) Residual() float64 { return r.residual }

// MarkdownTable renders the per-well results as a markdown table followed by
// a total row.
func (r *NetworkResult) MarkdownTable() string {
	var b strings.Builder
	b.WriteString("| Well | Enabled | Rate (MSm3/day) | WHP (bara) | Flowline dP (bar) |\n")
	b.WriteString("|------|---------|-----------------|------------|-------------------|\n")
	for _, name := range r.order {
		on := "no"
		if r.enabled[name] {
			on = "yes"
		}
		fmt.Fprintf(&b, "| %s | %s | %.3f | %.2f | %.2f |\n",
			name, on, r.wellRates[name]/1e6, r.wellheads[name], r.drops[name])
	}
	fmt.Fprintf(&b, "| **Total** | | %.3f | | |\n", r.totalRate/1e6)

	return b.String()
}

// String implements fmt.Stringer.
func (r *NetworkResult) String() string {
	return fmt.Sprintf("%s [%s]: manifold %.2f bara, total %.3f MSm3/day, %d/%d producing, converged=%t (iter=%d, residual=%.2e)",
		r.name, r.mode, r.manifoldPressure, r.totalRate/1e6,
		r.ProducingWellCount(), len(r.order), r.converged, r.iterations, r.residual)
}
