package hardycross

import (
	"github.com/equinor/neqnet/core"
	"github.com/equinor/neqnet/topology"
)

// LoopsFromTopology detects the independent loops of g and converts them to
// NetworkLoops with the given tolerance (Pa; non-positive keeps the default).
func LoopsFromTopology(g *core.Graph, tolerance float64) ([]*NetworkLoop, error) {
	found, err := topology.DetectLoops(g)
	if err != nil {
		return nil, err
	}
	out := make([]*NetworkLoop, 0, len(found))
	for _, f := range found {
		l := NewNetworkLoop(f.ID)
		l.SetTolerance(tolerance)
		for _, m := range f.Members {
			l.AddMember(m.EdgeID, Direction(m.Sign))
		}
		out = append(out, l)
	}

	return out, nil
}
