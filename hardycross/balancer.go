package hardycross

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Balancer defaults.
const (
	DefaultMaxIterations = 100
	DefaultRelaxation    = 1.0
	MaxRelaxation        = 1.5
	DefaultZeroFlow      = 1e-10 // kg/s
)

// ErrInvalidRelaxation is returned for a relaxation factor outside (0, 1.5].
var ErrInvalidRelaxation = errors.New("hardycross: relaxation factor must be in (0, 1.5]")

// ErrUnknownElement is returned when a loop member has no flow entry.
var ErrUnknownElement = errors.New("hardycross: loop member has no flow")

// FlowState maps element ID to signed mass flow (kg/s) along the element's
// nominal direction.
type FlowState map[string]float64

// HeadLossFunc returns the signed head loss (Pa) of an element carrying q.
type HeadLossFunc func(elementID string, q float64) float64

// BalanceResult summarises a Balance call.
type BalanceResult struct {
	Converged   bool
	Iterations  int
	MaxResidual float64   // Pa
	Imbalances  []float64 // Pa, one per loop in input order
}

// Option configures a Balancer.
type Option func(*Balancer)

// WithMaxIterations caps the correction sweeps.
func WithMaxIterations(n int) Option {
	return func(b *Balancer) { b.maxIterations = n }
}

// WithRelaxation scales every correction. Must be in (0, 1.5].
func WithRelaxation(r float64) Option {
	return func(b *Balancer) { b.relaxation = r }
}

// WithZeroFlow sets the |Q| below which H/Q is evaluated at this flow.
func WithZeroFlow(q float64) Option {
	return func(b *Balancer) { b.zeroFlow = q }
}

// WithLogger routes progress records to l.
func WithLogger(l *slog.Logger) Option {
	return func(b *Balancer) { b.logger = l }
}

// Balancer runs Hardy-Cross sweeps. It is stateless between calls.
type Balancer struct {
	maxIterations int
	relaxation    float64
	zeroFlow      float64
	logger        *slog.Logger
}

// NewBalancer validates options and returns a Balancer.
func NewBalancer(opts ...Option) (*Balancer, error) {
	b := &Balancer{
		maxIterations: DefaultMaxIterations,
		relaxation:    DefaultRelaxation,
		zeroFlow:      DefaultZeroFlow,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if err := ValidateRelaxation(b.relaxation); err != nil {
		return nil, err
	}
	if b.maxIterations < 1 {
		b.maxIterations = DefaultMaxIterations
	}
	if b.zeroFlow <= 0 {
		b.zeroFlow = DefaultZeroFlow
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}

	return b, nil
}

// ValidateRelaxation checks r ∈ (0, 1.5].
func ValidateRelaxation(r float64) error {
	if !(r > 0 && r <= MaxRelaxation) {
		return fmt.Errorf("%w: got %g", ErrInvalidRelaxation, r)
	}

	return nil
}

// incidence is the loop × element matrix A with A[l][e] = direction of e in l.
type incidence struct {
	a     *mat.Dense
	ids   []string
	index map[string]int
}

func newIncidence(loops []*NetworkLoop) *incidence {
	inc := &incidence{index: make(map[string]int)}
	for _, l := range loops {
		for _, m := range l.members {
			if _, ok := inc.index[m.ElementID]; !ok {
				inc.index[m.ElementID] = len(inc.ids)
				inc.ids = append(inc.ids, m.ElementID)
			}
		}
	}
	if len(inc.ids) == 0 {
		return inc
	}
	inc.a = mat.NewDense(len(loops), len(inc.ids), nil)
	for i, l := range loops {
		for _, m := range l.members {
			j := inc.index[m.ElementID]
			inc.a.Set(i, j, inc.a.At(i, j)+float64(m.Direction))
		}
	}

	return inc
}

// Balance corrects flows in place until every loop is balanced.
//
// Steps:
//  1. Build the incidence matrix A over all loop members.
//  2. Evaluate h = H(Q) per element and the loop imbalances A·h; stop if
//     every loop is inside its tolerance.
//  3. Sweep the loops in order, applying ΔQ·relaxation to each member
//     with its direction (later loops see earlier corrections).
//  4. Repeat from 2 up to the iteration cap.
func (b *Balancer) Balance(loops []*NetworkLoop, flows FlowState, headLoss HeadLossFunc) (BalanceResult, error) {
	if len(loops) == 0 {
		return BalanceResult{Converged: true}, nil
	}
	// 1) incidence
	inc := newIncidence(loops)
	if len(inc.ids) == 0 {
		return BalanceResult{Converged: true, Imbalances: make([]float64, len(loops))}, nil
	}
	for _, id := range inc.ids {
		if _, ok := flows[id]; !ok {
			return BalanceResult{}, fmt.Errorf("%w: %q", ErrUnknownElement, id)
		}
	}

	h := mat.NewVecDense(len(inc.ids), nil)
	imb := mat.NewVecDense(len(loops), nil)
	residuals := func() bool {
		for j, id := range inc.ids {
			h.SetVec(j, headLoss(id, flows[id]))
		}
		imb.MulVec(inc.a, h)
		balanced := true
		for i, l := range loops {
			l.lastImbalance = imb.AtVec(i)
			if !l.IsBalanced(l.lastImbalance) {
				balanced = false
			}
		}
		return balanced
	}

	res := BalanceResult{}
	sens := make([]float64, 0, 8)
	heads := make([]float64, 0, 8)
	dirs := make([]float64, 0, 8)
	for {
		// 2) check
		if residuals() {
			res.Converged = true
			break
		}
		if res.Iterations >= b.maxIterations {
			break
		}
		// 3) sweep
		for _, l := range loops {
			sens, heads, dirs = sens[:0], heads[:0], dirs[:0]
			for _, m := range l.members {
				q := flows[m.ElementID]
				hl := headLoss(m.ElementID, q)
				heads = append(heads, hl)
				dirs = append(dirs, float64(m.Direction))
				sens = append(sens, math.Abs(hl)/math.Max(math.Abs(q), b.zeroFlow))
			}
			sum := floats.Dot(dirs, heads)
			deriv := floats.Sum(sens)
			if deriv == 0 {
				l.lastCorrection = 0
				continue
			}
			dq := -sum / (2 * deriv) * b.relaxation
			l.lastCorrection = dq
			for _, m := range l.members {
				flows[m.ElementID] += float64(m.Direction) * dq
			}
		}
		res.Iterations++
		b.logger.Debug("hardy-cross sweep", "iteration", res.Iterations, "max_residual", maxAbs(imb))
	}

	res.Imbalances = make([]float64, len(loops))
	for i := range loops {
		res.Imbalances[i] = imb.AtVec(i)
	}
	res.MaxResidual = maxAbs(imb)
	if res.Converged {
		b.logger.Info("hardy-cross converged", "loops", len(loops), "iterations", res.Iterations, "max_residual", res.MaxResidual)
	} else {
		b.logger.Warn("hardy-cross did not converge", "loops", len(loops), "iterations", res.Iterations, "max_residual", res.MaxResidual)
	}

	return res, nil
}

func maxAbs(v *mat.VecDense) float64 {
	var m float64
	for i := 0; i < v.Len(); i++ {
		m = math.Max(m, math.Abs(v.AtVec(i)))
	}

	return m
}
