// Package network executes tree-shaped manifold networks: pipes and well
// branches feeding mixers, mixers feeding downstream pipes, down to a single
// terminal (arrival) manifold.
//
// Two executors are provided:
//
//	PipeFlowNetwork     - feeds enter through inlet pipelines; manifolds are
//	                      joined by connection pipelines; steady and transient runs.
//	WellFlowlineNetwork - wells deliver through optional chokes and flowlines;
//	                      optional facility pipeline after the arrival manifold;
//	                      optional endpoint pressure matching.
//
// Manifold execution order comes from topology.ExecutionOrder over the
// manifold graph: sources first, every manifold exactly once, manifolds not
// reachable from a source appended in creation order.
//
// At each manifold the executor runs the inbound elements, mixes their
// outlets, writes the mixed pressure back onto every inbound outlet, re-mixes
// and finally runs the outbound element. The mixed pressure is the lowest
// inbound pressure, so every junction ends a run with one pressure.
//
// Errors:
//
//	ErrDuplicateManifold - manifold name already used.
//	ErrManifoldNotFound  - connect/add call names an unknown manifold.
//	ErrOutboundExists    - a manifold already has its outbound pipeline.
//	ErrDuplicatePipeline - pipeline name already used.
//	ErrNilElement        - a required well, pipeline, feed or manifold is nil.
//
// Configuration calls validate before mutating: a failed call leaves the
// network unchanged. Executors are not safe for concurrent use.
package network
