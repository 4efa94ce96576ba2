package capacity_test

import (
	"fmt"
	"testing"

	"github.com/equinor/neqnet/capacity"
	"github.com/equinor/neqnet/core"
)

// BenchmarkSeed_Grid seeds a 20×20 two-way grid fed at one corner.
func BenchmarkSeed_Grid(b *testing.B) {
	const n = 20
	g := core.NewGraph()
	id := func(i, j int) string { return fmt.Sprintf("%d,%d", i, j) }
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			_ = g.AddVertex(id(i, j))
		}
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i+1 < n {
				_ = g.AddEdge("v"+id(i, j), id(i, j), id(i+1, j))
			}
			if j+1 < n {
				_ = g.AddEdge("h"+id(i, j), id(i, j), id(i, j+1))
			}
		}
	}
	balance := map[string]float64{id(0, 0): n * n}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			balance[id(i, j)] -= 1
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = capacity.Seed(g, balance, capacity.FlowOptions{})
	}
}
