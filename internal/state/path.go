package state

import (
	"container/heap"
	"fmt"

	"github.com/signalsfoundry/metromap/core"
	"github.com/signalsfoundry/metromap/model"
)

// PathStep is one vertex of a path.
type PathStep struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Path is a shortest route between two cities.
type Path struct {
	Steps  []PathStep `json:"steps"`
	Length float64    `json:"length"`
}

// ShortestPath finds the shortest route between two cities. Routes run
// along mapped roads; a terminal reaches its airport for free, and any
// two airports are linked, by local distance inside one metropole and by
// remote distance between metropoles.
func (s *MapState) ShortestPath(start, end string) (*Path, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from := s.dict.GetCity(start)
	if from == nil {
		return nil, fmt.Errorf("%w: %q", ErrStartDoesNotExist, start)
	}
	to := s.dict.GetCity(end)
	if to == nil {
		return nil, fmt.Errorf("%w: %q", ErrEndDoesNotExist, end)
	}

	src, dst := vertexOf(from), vertexOf(to)
	if src == dst {
		return &Path{Steps: []PathStep{stepOf(src)}}, nil
	}

	g := s.roadGraphLocked()
	dist, prev := g.dijkstra(src)
	d, ok := dist[dst]
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", ErrNoPathExists, start, end)
	}

	var steps []PathStep
	for v := dst; ; v = prev[v] {
		steps = append(steps, stepOf(v))
		if v == src {
			break
		}
	}
	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return &Path{Steps: steps, Length: d}, nil
}

// vertex identifies a graph vertex. Names are unique per kind.
type vertex struct {
	kind core.SiteKind
	name string
}

func vertexOf(c *model.City) vertex { return vertex{kind: core.SiteCity, name: c.Name} }

func stepOf(v vertex) PathStep { return PathStep{Name: v.name, Kind: v.kind.String()} }

func (v vertex) less(o vertex) bool {
	if v.name != o.name {
		return v.name < o.name
	}
	return v.kind < o.kind
}

type edge struct {
	to     vertex
	weight float64
}

// roadGraph is an undirected weighted adjacency list.
type roadGraph struct {
	adj map[vertex][]edge
}

func (g *roadGraph) addEdge(a, b vertex, weight float64) {
	g.adj[a] = append(g.adj[a], edge{to: b, weight: weight})
	g.adj[b] = append(g.adj[b], edge{to: a, weight: weight})
}

func (s *MapState) roadGraphLocked() *roadGraph {
	g := &roadGraph{adj: make(map[vertex][]edge)}
	for _, remote := range s.registry.Metropoles() {
		tree, _ := s.registry.Lookup(remote)
		for _, seg := range tree.Segments() {
			g.addEdge(
				vertex{kind: seg.Start.Kind, name: seg.Start.Name},
				vertex{kind: seg.End.Kind, name: seg.End.Name},
				seg.Segment().Length(),
			)
		}
	}
	for _, t := range s.dict.ListTerminals() {
		g.addEdge(vertex{kind: core.SiteTerminal, name: t.Name}, vertex{kind: core.SiteAirport, name: t.Airport}, 0)
	}
	airports := s.dict.ListAirports()
	for i, a := range airports {
		for _, b := range airports[i+1:] {
			var w float64
			if a.Remote == b.Remote {
				w = core.Pt(a.Local.X, a.Local.Y).DistanceTo(core.Pt(b.Local.X, b.Local.Y))
			} else {
				w = remotePoint(a.Remote).DistanceTo(remotePoint(b.Remote))
			}
			g.addEdge(vertex{kind: core.SiteAirport, name: a.Name}, vertex{kind: core.SiteAirport, name: b.Name}, w)
		}
	}
	return g
}

// dijkstra returns the distance to and predecessor of every vertex
// reachable from src. Vertices at equal distance settle in name order,
// so the first predecessor found wins ties.
func (g *roadGraph) dijkstra(src vertex) (map[vertex]float64, map[vertex]vertex) {
	dist := map[vertex]float64{src: 0}
	prev := make(map[vertex]vertex)
	done := make(map[vertex]bool)

	q := &pathQueue{}
	heap.Push(q, pathEntry{v: src, dist: 0})
	for q.Len() > 0 {
		cur := heap.Pop(q).(pathEntry)
		if done[cur.v] {
			continue
		}
		done[cur.v] = true
		for _, e := range g.adj[cur.v] {
			if done[e.to] {
				continue
			}
			nd := cur.dist + e.weight
			old, seen := dist[e.to]
			if !seen || nd < old {
				dist[e.to] = nd
				prev[e.to] = cur.v
				heap.Push(q, pathEntry{v: e.to, dist: nd})
			}
		}
	}
	return dist, prev
}

type pathEntry struct {
	v    vertex
	dist float64
}

type pathQueue []pathEntry

func (q pathQueue) Len() int { return len(q) }

func (q pathQueue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].v.less(q[j].v)
}

func (q pathQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *pathQueue) Push(x any) { *q = append(*q, x.(pathEntry)) }

func (q *pathQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}
