// Package capacity runs Dinic's maximum-flow algorithm over network graphs.
//
// Two uses drive it:
//
//   - Seed finds an initial flow distribution that satisfies continuity at
//     every junction, the starting point that Hardy-Cross balancing needs.
//     Pipes are two-way; supplies and demands hang off a super-source and a
//     super-sink.
//   - Throughput reports how much a network can deliver from its sources to
//     its sinks under per-edge capacity limits, and which edges saturate on
//     the minimum cut.
//
// Dinic alternates a breadth-first level graph with depth-first blocking
// flows:
//
//	Time:   O(V²·E) worst case, far less on sparse pipe networks.
//	Memory: O(V + E).
//
// Capacities may be +Inf; flows are tracked per arc so no Inf-Inf arithmetic
// occurs.
package capacity
