package core

import (
	"container/heap"
	"slices"
)

// Match filters the items a search may return. A nil Match accepts all.
type Match func(g Geometry) bool

// MatchSites accepts points whose site is one of kinds.
func MatchSites(kinds ...SiteKind) Match {
	return func(g Geometry) bool {
		p, ok := g.(PointGeometry)
		return ok && slices.Contains(kinds, p.Site.Kind)
	}
}

// MatchSegments accepts every segment.
func MatchSegments() Match {
	return func(g Geometry) bool {
		_, ok := g.(SegmentGeometry)
		return ok
	}
}

// And accepts items accepted by both m and other.
func (m Match) And(other Match) Match {
	return func(g Geometry) bool {
		return m.accepts(g) && other.accepts(g)
	}
}

func (m Match) accepts(g Geometry) bool {
	return m == nil || m(g)
}

// RangeSearch returns every matching item within the closed circle c,
// ordered like leaf contents. Subtrees whose region misses the circle
// are skipped.
func RangeSearch(root Node, bounds Rect, c Circle, match Match) []Geometry {
	seen := make(map[string]bool)
	var found []Geometry
	Walk(root, bounds, func(n Node, region Rect) bool {
		if !c.IntersectsRect(region) {
			return false
		}
		leaf, ok := n.(*Leaf)
		if !ok {
			return true
		}
		for _, g := range leaf.items {
			if seen[g.Key()] || !match.accepts(g) {
				continue
			}
			seen[g.Key()] = true
			if g.DistanceTo(c.Center) <= c.Radius {
				found = append(found, g)
			}
		}
		return true
	})
	slices.SortFunc(found, compareGeometry)
	return found
}

// NearestNeighbor returns the matching item closest to p. Ties go to the
// smaller name.
//
// Regions are queued by their distance to p, which bounds everything
// stored inside them; items by their exact distance. Popping in order
// means the first item popped is at minimum distance. The queue is then
// drained down to that distance so equally distant items can compete on
// name.
func NearestNeighbor(root Node, bounds Rect, p Point, match Match) (Geometry, float64, bool) {
	q := &searchQueue{}
	seen := make(map[string]bool)
	seq := 0
	push := func(c candidate) {
		c.seq = seq
		seq++
		heap.Push(q, c)
	}

	push(candidate{dist: bounds.DistanceTo(p), node: root, region: bounds})

	var best *candidate
	for q.Len() > 0 {
		c := heap.Pop(q).(candidate)
		if best != nil && c.dist > best.dist {
			break
		}
		if c.item != nil {
			if best == nil || compareGeometry(c.item, best.item) < 0 {
				best = &c
			}
			continue
		}
		switch n := c.node.(type) {
		case Empty:
		case *Leaf:
			for _, g := range n.items {
				if seen[g.Key()] || !match.accepts(g) {
					continue
				}
				seen[g.Key()] = true
				push(candidate{dist: g.DistanceTo(p), item: g})
			}
		case *Internal:
			for _, quad := range Quadrants {
				child := n.children[quad]
				if _, empty := child.(Empty); empty {
					continue
				}
				region := c.region.Child(quad)
				push(candidate{dist: region.DistanceTo(p), node: child, region: region})
			}
		}
	}
	if best == nil {
		return nil, 0, false
	}
	return best.item, best.dist, true
}

// candidate is either an exact item or a region still to expand.
type candidate struct {
	dist   float64
	item   Geometry
	node   Node
	region Rect
	seq    int
}

type searchQueue []candidate

func (q searchQueue) Len() int { return len(q) }

func (q searchQueue) Less(i, j int) bool {
	a, b := q[i], q[j]
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	if (a.item != nil) != (b.item != nil) {
		return a.item != nil
	}
	if a.item != nil {
		return compareGeometry(a.item, b.item) < 0
	}
	return a.seq < b.seq
}

func (q searchQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *searchQueue) Push(x any) { *q = append(*q, x.(candidate)) }

func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}
