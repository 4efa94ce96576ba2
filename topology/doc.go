// Package topology provides the graph algorithms the network executors rely
// on: worklist topological ordering, breadth-first walks over the undirected
// view, and detection of independent loops with signed members.
//
// ExecutionOrder never fails on cycles: vertices that cannot be scheduled
// (members of a cycle or downstream of one) are appended in creation order.
// TopologicalSort is the strict variant and returns ErrCycleDetected.
//
// DetectLoops returns a fundamental cycle basis of the undirected view: one
// loop per edge outside a breadth-first spanning forest, so the loop count is
// always E - V + C (C connected components). Every member carries the sign of
// the traversal relative to the edge's nominal direction.
//
// Complexity:
//
//   - ExecutionOrder / TopologicalSort: O(V + E)
//   - Walk: O(V + E)
//   - DetectLoops: O(V + E + L·D), L loops, D spanning-tree depth
package topology
