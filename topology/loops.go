package topology

import (
	"fmt"

	"github.com/equinor/neqnet/core"
)

// DetectLoops returns the independent loops of the undirected view of g.
//
// Steps:
//  1. Build a breadth-first spanning forest, roots in creation order.
//  2. For each non-tree edge u→v in creation order, close a loop: the edge
//     itself (+1), then the tree path v → lca → u.
//  3. Sign each tree step by comparing walk and nominal direction.
//
// Loop IDs are "loop-1", "loop-2", ... in discovery order.
func DetectLoops(g *core.Graph, opts ...Option) ([]Loop, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	adj, err := undirected(g)
	if err != nil {
		return nil, err
	}

	// 1) spanning forest
	parent := make(map[string]string)
	via := make(map[string]incidence) // edge used to reach v from parent[v]
	depth := make(map[string]int)
	tree := make(map[string]bool)
	for _, root := range g.Vertices() {
		if _, seen := depth[root]; seen {
			continue
		}
		depth[root] = 0
		err = Walk(g, []string{root}, func(s Step) error {
			parent[s.To] = s.From
			depth[s.To] = depth[s.From] + 1
			tree[s.EdgeID] = true
			for _, inc := range adj[s.From] {
				if inc.edge.ID == s.EdgeID {
					via[s.To] = inc
					break
				}
			}
			return nil
		}, opts...)
		if err != nil {
			return nil, err
		}
	}

	// 2) one loop per chord
	var loops []Loop
	for _, e := range g.Edges() {
		if tree[e.ID] {
			continue
		}
		members := []Member{{EdgeID: e.ID, Sign: 1}}
		if e.From != e.To {
			members = append(members, treePath(e.To, e.From, parent, via, depth)...)
		}
		loops = append(loops, Loop{ID: fmt.Sprintf("loop-%d", len(loops)+1), Members: members})
	}

	return loops, nil
}

// treePath returns the signed members walking the spanning tree from a to b.
func treePath(a, b string, parent map[string]string, via map[string]incidence, depth map[string]int) []Member {
	var up, down []Member

	// 3) climb both ends to the lowest common ancestor
	for a != b {
		if depth[a] >= depth[b] {
			// step a → parent[a]: walking against the discovery direction
			inc := via[a]
			up = append(up, Member{EdgeID: inc.edge.ID, Sign: -sign(inc.forward)})
			a = parent[a]
		} else {
			// step parent[b] → b, emitted later in reverse
			inc := via[b]
			down = append(down, Member{EdgeID: inc.edge.ID, Sign: sign(inc.forward)})
			b = parent[b]
		}
	}
	for i := len(down) - 1; i >= 0; i-- {
		up = append(up, down[i])
	}

	return up
}

func sign(forward bool) int {
	if forward {
		return 1
	}

	return -1
}
