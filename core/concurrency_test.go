package core_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/equinor/neqnet/core"
)

// TestConcurrentAddEdge ensures parallel AddEdge calls with distinct IDs all land.
func TestConcurrentAddEdge(t *testing.T) {
	g := core.NewGraph()
	const num = 200
	require.NoError(t, g.AddVertex("X"))
	for i := range num {
		require.NoError(t, g.AddVertex(fmt.Sprintf("V%d", i)))
	}

	var wg sync.WaitGroup
	wg.Add(num)
	for i := range num {
		go func(id int) {
			defer wg.Done()
			_ = g.AddEdge(fmt.Sprintf("e%d", id), "X", fmt.Sprintf("V%d", id))
		}(i)
	}
	wg.Wait()

	out, err := g.OutEdges("X")
	require.NoError(t, err)
	require.Len(t, out, num)
}

// TestConcurrentReadWrite mixes readers with a writer to surface races under -race.
func TestConcurrentReadWrite(t *testing.T) {
	g := core.NewGraph()
	require.NoError(t, g.AddVertex("Base"))
	const rounds = 100
	for i := range rounds {
		require.NoError(t, g.AddVertex(fmt.Sprintf("V%d", i)))
	}

	var wg sync.WaitGroup
	wg.Add(2 * rounds)
	for i := range rounds {
		go func(id int) {
			defer wg.Done()
			eid := fmt.Sprintf("e%d", id)
			_ = g.AddEdge(eid, "Base", fmt.Sprintf("V%d", id))
			_ = g.RemoveEdge(eid)
		}(i)
		go func() {
			defer wg.Done()
			_ = g.Edges()
			_, _ = g.OutEdges("Base")
			_ = g.Clone()
		}()
	}
	wg.Wait()
	require.Equal(t, 0, g.EdgeCount())
}
