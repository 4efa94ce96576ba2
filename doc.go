// Package neqnet is a hydraulic solver for pipeline and well-gathering
// networks.
//
// What is in the module?
//
//	• units, stream:  unit conversion; stream state and mixing
//	• element, well:  feeds, pipes, chokes; wells with IPR and lift curves
//	• core, topology: the network graph; execution order and loop detection
//	• capacity:       Dinic max flow for flow seeding and throughput
//	• hardycross:     NetworkLoop, Balancer and LoopedNetwork
//	• network:        PipeFlowNetwork and WellFlowlineNetwork manifold executors
//	• gathering:      NetworkSolver for wells tied into one manifold
//	• config:         YAML network descriptions
//
// Quick start:
//
//	s := gathering.NewNetworkSolver("field").
//		AddWell(w1, 3).
//		AddWell(w2, 8).
//		SetManifoldPressure(50, "bara")
//	res, err := s.Solve(ctx)
//
// The neqnet command (cmd/neqnet) runs the same solvers on YAML files.
package neqnet
