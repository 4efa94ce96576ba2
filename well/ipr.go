package well

import (
	"fmt"
	"math"
	"sort"
)

// IPRModel selects the inflow-performance relationship.
type IPRModel int

const (
	// ProductionIndex is the squared-pressure gas deliverability q = PI·(Pr²-Pwf²).
	ProductionIndex IPRModel = iota
	// Vogel is the solution-gas-drive curve q/qmax = 1 - 0.2x - 0.8x², x = Pwf/Pr.
	Vogel
	// Fetkovich is q = C·(Pr²-Pwf²)^n.
	Fetkovich
	// Backpressure is the Forchheimer form Pr²-Pwf² = a·q + b·q².
	Backpressure
	// Table interpolates measured (Pwf, q) points.
	Table
)

var iprNames = map[IPRModel]string{
	ProductionIndex: "production_index",
	Vogel:           "vogel",
	Fetkovich:       "fetkovich",
	Backpressure:    "backpressure",
	Table:           "table",
}

// String implements fmt.Stringer.
func (m IPRModel) String() string {
	if s, ok := iprNames[m]; ok {
		return s
	}

	return fmt.Sprintf("IPRModel(%d)", int(m))
}

// ParseIPRModel maps a model name (as produced by String) to its value.
func ParseIPRModel(s string) (IPRModel, error) {
	for m, name := range iprNames {
		if name == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown model %q", ErrInvalidIPR, s)
}

// inflow holds the parameters of every model; only those of model are used.
type inflow struct {
	model IPRModel
	pi    float64 // Sm3/day/bar²
	qmax  float64 // Sm3/day
	c, n  float64
	a, b  float64
	pwf   []float64 // bara, ascending
	rate  []float64 // Sm3/day, matching pwf
}

func (in *inflow) validate() error {
	bad := false
	switch in.model {
	case ProductionIndex:
		bad = in.pi <= 0
	case Vogel:
		bad = in.qmax <= 0
	case Fetkovich:
		bad = in.c <= 0 || in.n <= 0
	case Backpressure:
		bad = in.a < 0 || in.b < 0 || (in.a == 0 && in.b == 0)
	case Table:
		bad = len(in.pwf) < 2 || len(in.pwf) != len(in.rate)
	default:
		bad = true
	}
	if bad {
		return fmt.Errorf("%w: %s parameters", ErrInvalidIPR, in.model)
	}

	return nil
}

// rateAt returns the inflow rate (Sm3/day) at bottom-hole pressure pwf for
// reservoir pressure pr. No backflow: pwf >= pr gives zero.
func (in *inflow) rateAt(pr, pwf float64) float64 {
	if pwf >= pr {
		return 0
	}
	pwf = math.Max(pwf, 0)
	dp2 := pr*pr - pwf*pwf

	switch in.model {
	case ProductionIndex:
		return in.pi * dp2
	case Vogel:
		x := pwf / pr
		return in.qmax * (1 - 0.2*x - 0.8*x*x)
	case Fetkovich:
		return in.c * math.Pow(dp2, in.n)
	case Backpressure:
		if in.b == 0 {
			return dp2 / in.a
		}
		disc := in.a*in.a + 4*in.b*dp2
		if disc < 0 {
			return 0
		}
		return (-in.a + math.Sqrt(disc)) / (2 * in.b)
	case Table:
		return interpolate(in.pwf, in.rate, pwf)
	}

	return 0
}

// bhpAt inverts rateAt by bisection on pwf in [0, pr]. Rates above the
// absolute open flow return ok=false.
func (in *inflow) bhpAt(pr, q float64) (float64, bool) {
	if q <= 0 {
		return pr, true
	}
	if q > in.rateAt(pr, 0) {
		return 0, false
	}
	lo, hi := 0.0, pr
	for range bisectionSteps {
		mid := 0.5 * (lo + hi)
		if in.rateAt(pr, mid) > q {
			lo = mid
		} else {
			hi = mid
		}
	}

	return 0.5 * (lo + hi), true
}

func interpolate(xs, ys []float64, x float64) float64 {
	i := sort.SearchFloat64s(xs, x)
	switch {
	case i == 0:
		return ys[0]
	case i >= len(xs):
		return ys[len(ys)-1]
	}
	x0, x1 := xs[i-1], xs[i]
	t := (x - x0) / (x1 - x0)

	return math.Max(0, ys[i-1]+t*(ys[i]-ys[i-1]))
}
