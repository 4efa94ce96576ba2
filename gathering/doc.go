// Package gathering solves the pressure/rate equilibrium of a set of wells
// producing through individual flowlines into one manifold.
//
// NetworkSolver is configured with a chainable builder API and solved in one
// of three modes:
//
//	FixedManifoldPressure - each well produces against manifold pressure plus
//	                        its flowline drop; under-relaxed fixed point, then
//	                        proportional curtailment to the facility cap.
//	FixedTotalRate        - bisection on manifold pressure in [10, 150] bara
//	                        until the total rate meets the target.
//	OptimizeAllocation    - share min(total potential, cap) by potential and
//	                        back-solve each wellhead pressure.
//
// Flowline pressure drop comes from a FlowlineModel: SimpleCorrelation (a
// closed-form bar/km gradient, the default) or DarcyFlowline (isothermal gas
// Darcy-Weisbach).
//
// Builder setters never return errors. Bad units, unknown well names and
// invalid solver parameters are collected and returned by Solve before any
// iteration. Non-convergence is not an error: it is reported by
// NetworkResult.Converged together with Iterations and Residual.
//
// Rates are standard gas volumes; internally Sm3/day. Pressures are bara.
// A NetworkSolver is not safe for concurrent use.
package gathering
