package core

import (
	"cmp"
	"slices"
)

//
// ---------- Sites and geometry ----------
//

// SiteKind distinguishes the entities that can be placed as points.
type SiteKind int

const (
	SiteCity SiteKind = iota
	SiteAirport
	SiteTerminal
)

func (k SiteKind) String() string {
	switch k {
	case SiteCity:
		return "city"
	case SiteAirport:
		return "airport"
	case SiteTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Site is the identity and location of an entity as seen by an index.
// Business attributes stay with the entity itself.
type Site struct {
	Name     string
	Kind     SiteKind
	Location Point
}

// Key identifies a site across kinds.
func (s Site) Key() string {
	return s.Kind.String() + ":" + s.Name
}

func compareSites(a, b Site) int {
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Kind, b.Kind)
}

// Geometry is an item stored in quadtree leaves: a PointGeometry or a
// SegmentGeometry.
type Geometry interface {
	// Key is unique per stored item.
	Key() string
	// DistanceTo is the exact distance from p to the item.
	DistanceTo(p Point) float64

	intersects(r Rect) bool
}

// PointGeometry places a site as a point.
type PointGeometry struct {
	Site Site
}

func (g PointGeometry) Key() string                { return "p/" + g.Site.Key() }
func (g PointGeometry) DistanceTo(p Point) float64 { return g.Site.Location.DistanceTo(p) }
func (g PointGeometry) intersects(r Rect) bool     { return r.Contains(g.Site.Location) }

// SegmentGeometry is a road between two sites. Endpoints are stored in
// name order so that A-B and B-A are the same item.
type SegmentGeometry struct {
	Start, End Site
}

// NewSegmentGeometry builds the canonical segment between a and b.
func NewSegmentGeometry(a, b Site) SegmentGeometry {
	if compareSites(a, b) > 0 {
		a, b = b, a
	}
	return SegmentGeometry{Start: a, End: b}
}

func (g SegmentGeometry) Key() string {
	return "s/" + g.Start.Key() + "/" + g.End.Key()
}

// Segment returns the line segment between the endpoint locations.
func (g SegmentGeometry) Segment() Segment {
	return Segment{A: g.Start.Location, B: g.End.Location}
}

// HasEndpoint reports whether site is one of the segment's endpoints.
func (g SegmentGeometry) HasEndpoint(site Site) bool {
	return g.Start.Key() == site.Key() || g.End.Key() == site.Key()
}

func (g SegmentGeometry) DistanceTo(p Point) float64 { return g.Segment().DistanceTo(p) }
func (g SegmentGeometry) intersects(r Rect) bool     { return g.Segment().IntersectsRect(r) }

// compareGeometry orders leaf contents: points before segments, points by
// site, segments by start then end site.
func compareGeometry(a, b Geometry) int {
	switch a := a.(type) {
	case PointGeometry:
		switch b := b.(type) {
		case PointGeometry:
			return compareSites(a.Site, b.Site)
		case SegmentGeometry:
			return -1
		}
	case SegmentGeometry:
		switch b := b.(type) {
		case PointGeometry:
			return 1
		case SegmentGeometry:
			if c := compareSites(a.Start, b.Start); c != 0 {
				return c
			}
			return compareSites(a.End, b.End)
		}
	}
	panic("core: unknown geometry variant")
}

//
// ---------- Nodes ----------
//

// Node is one position in a quadtree: Empty, *Leaf or *Internal.
//
// Nodes are never modified after construction. Mutations build the
// replacement path and hand back a new node, so an older root keeps
// describing the tree exactly as it was.
type Node interface {
	isNode()
}

// Empty is an unused region.
type Empty struct{}

// Leaf holds a sorted set of geometry items.
type Leaf struct {
	items []Geometry
}

// Internal splits its region into four children around Center.
type Internal struct {
	Center   Point
	children [4]Node
}

func (Empty) isNode()     {}
func (*Leaf) isNode()     {}
func (*Internal) isNode() {}

func newLeaf(items ...Geometry) *Leaf {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, compareGeometry)
	return &Leaf{items: sorted}
}

func newInternal(region Rect) *Internal {
	return &Internal{
		Center:   region.Center(),
		children: [4]Node{Empty{}, Empty{}, Empty{}, Empty{}},
	}
}

// Items returns a copy of the leaf's contents in order.
func (l *Leaf) Items() []Geometry {
	return slices.Clone(l.items)
}

// Cardinality is the number of items in the leaf.
func (l *Leaf) Cardinality() int {
	return len(l.items)
}

// Has reports whether an item with key is stored in the leaf.
func (l *Leaf) Has(key string) bool {
	for _, g := range l.items {
		if g.Key() == key {
			return true
		}
	}
	return false
}

// with returns a new leaf that also holds g.
func (l *Leaf) with(g Geometry) *Leaf {
	items := make([]Geometry, 0, len(l.items)+1)
	items = append(items, l.items...)
	items = append(items, g)
	slices.SortFunc(items, compareGeometry)
	return &Leaf{items: items}
}

// without returns a new leaf lacking key, or Empty when nothing is left.
func (l *Leaf) without(key string) Node {
	items := make([]Geometry, 0, len(l.items))
	for _, g := range l.items {
		if g.Key() != key {
			items = append(items, g)
		}
	}
	if len(items) == 0 {
		return Empty{}
	}
	if len(items) == len(l.items) {
		return l
	}
	return &Leaf{items: items}
}

// Child returns the node stored in quadrant q.
func (n *Internal) Child(q Quadrant) Node {
	return n.children[q]
}

func (n *Internal) withChild(q Quadrant, child Node) *Internal {
	next := &Internal{Center: n.Center, children: n.children}
	next.children[q] = child
	return next
}

// collect appends every distinct item stored under n.
func collect(n Node, seen map[string]bool, out []Geometry) []Geometry {
	switch n := n.(type) {
	case Empty:
	case *Leaf:
		for _, g := range n.items {
			if !seen[g.Key()] {
				seen[g.Key()] = true
				out = append(out, g)
			}
		}
	case *Internal:
		for _, c := range n.children {
			out = collect(c, seen, out)
		}
	}
	return out
}

// Walk calls fn for every node in depth-first order with the node's
// region. Returning false from fn skips the node's children.
func Walk(root Node, bounds Rect, fn func(n Node, region Rect) bool) {
	if !fn(root, bounds) {
		return
	}
	if in, ok := root.(*Internal); ok {
		for _, q := range Quadrants {
			Walk(in.children[q], bounds.Child(q), fn)
		}
	}
}
