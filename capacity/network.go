package capacity

import (
	"math"
)

// arc is one direction of a residual edge. Flow is antisymmetric with the
// paired reverse arc.
type arc struct {
	to   int
	cap  float64
	flow float64
	rev  int
	edge int // index into residual.edgeIDs, -1 for auxiliary arcs and reverses
}

type residual struct {
	adj     [][]arc
	edgeIDs []string
	// edgeArc[i] locates the forward arc of edge i as (vertex, arc index).
	edgeArc [][2]int
}

func newResidual(n int) *residual {
	return &residual{adj: make([][]arc, n)}
}

// addEdge links u→v with capacity c. A two-way edge gets capacity c in the
// reverse direction as well; otherwise the reverse arc is a pure residual.
// id == "" marks an auxiliary arc with no reported flow.
func (r *residual) addEdge(u, v int, c float64, twoWay bool, id string) {
	idx := -1
	if id != "" {
		idx = len(r.edgeIDs)
		r.edgeIDs = append(r.edgeIDs, id)
		r.edgeArc = append(r.edgeArc, [2]int{u, len(r.adj[u])})
	}
	back := 0.0
	if twoWay {
		back = c
	}
	r.adj[u] = append(r.adj[u], arc{to: v, cap: c, rev: len(r.adj[v]), edge: idx})
	r.adj[v] = append(r.adj[v], arc{to: u, cap: back, rev: len(r.adj[u]) - 1, edge: -1})
}

func (a *arc) residual() float64 { return a.cap - a.flow }

// dinic pushes the maximum flow s→t. It stops early with the flow found so
// far when the context is cancelled.
func (r *residual) dinic(s, t int, opts FlowOptions) (float64, error) {
	var total float64
	augments := 0
	n := len(r.adj)
	level := make([]int, n)
	iter := make([]int, n)

	for {
		if err := opts.Ctx.Err(); err != nil {
			return total, err
		}
		// level graph
		for i := range level {
			level[i] = -1
		}
		level[s] = 0
		queue := []int{s}
		for i := 0; i < len(queue); i++ {
			u := queue[i]
			for _, a := range r.adj[u] {
				if level[a.to] < 0 && a.residual() > opts.Epsilon {
					level[a.to] = level[u] + 1
					queue = append(queue, a.to)
				}
			}
		}
		if level[t] < 0 {
			return total, nil
		}

		// blocking flow
		for i := range iter {
			iter[i] = 0
		}
		for {
			if err := opts.Ctx.Err(); err != nil {
				return total, err
			}
			pushed := r.push(s, t, math.Inf(1), level, iter, opts.Epsilon)
			if math.IsInf(pushed, 1) {
				return pushed, nil
			}
			if pushed <= opts.Epsilon {
				break
			}
			total += pushed
			augments++
			opts.Logger.Debug("dinic augment", "pushed", pushed, "total", total)
			if opts.LevelRebuildInterval > 0 && augments%opts.LevelRebuildInterval == 0 {
				break
			}
		}
	}
}

func (r *residual) push(u, t int, available float64, level, iter []int, eps float64) float64 {
	if u == t {
		return available
	}
	for ; iter[u] < len(r.adj[u]); iter[u]++ {
		a := &r.adj[u][iter[u]]
		room := a.residual()
		if room <= eps || level[a.to] != level[u]+1 {
			continue
		}
		pushed := r.push(a.to, t, math.Min(available, room), level, iter, eps)
		if math.IsInf(pushed, 1) {
			return pushed
		}
		if pushed > eps {
			a.flow += pushed
			r.adj[a.to][a.rev].flow -= pushed
			return pushed
		}
	}

	return 0
}

// edgeFlows reports the flow of every named edge.
func (r *residual) edgeFlows() map[string]float64 {
	out := make(map[string]float64, len(r.edgeIDs))
	for i, id := range r.edgeIDs {
		loc := r.edgeArc[i]
		out[id] = r.adj[loc[0]][loc[1]].flow
	}

	return out
}

// saturated lists named edges from the source side of the minimum cut to
// the sink side, in creation order.
func (r *residual) saturated(s int, eps float64) []string {
	reach := make([]bool, len(r.adj))
	reach[s] = true
	queue := []int{s}
	for i := 0; i < len(queue); i++ {
		for _, a := range r.adj[queue[i]] {
			if !reach[a.to] && a.residual() > eps {
				reach[a.to] = true
				queue = append(queue, a.to)
			}
		}
	}
	var out []string
	for i, id := range r.edgeIDs {
		loc := r.edgeArc[i]
		a := r.adj[loc[0]][loc[1]]
		back := r.adj[a.to][a.rev]
		switch {
		case reach[loc[0]] && !reach[a.to]:
			out = append(out, id)
		case back.cap > 0 && reach[a.to] && !reach[loc[0]]:
			out = append(out, id)
		}
	}

	return out
}
