package core

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// PMQuadtree is the planar-subdivision index of one metropole. It holds
// points and the non-crossing segments between them, splitting leaves
// until each satisfies the configured PM rule.
//
// Every mutation either succeeds or leaves the tree exactly as it was.
type PMQuadtree struct {
	bounds Rect
	order  int
	root   Node
	engine engine

	points    map[string]Site
	locations map[Point]string
	segments  map[string]SegmentGeometry
	degree    map[string]int
}

// NewPMQuadtree returns an empty index over bounds using the PM rule of
// the given order.
func NewPMQuadtree(bounds Rect, order int) (*PMQuadtree, error) {
	rule, err := NewValidator(order)
	if err != nil {
		return nil, err
	}
	return &PMQuadtree{
		bounds:    bounds,
		order:     order,
		root:      Empty{},
		engine:    engine{rule: rule, strict: true},
		points:    make(map[string]Site),
		locations: make(map[Point]string),
		segments:  make(map[string]SegmentGeometry),
		degree:    make(map[string]int),
	}, nil
}

//
// ---------- Mutations ----------
//

// InsertPoint adds site as a point.
func (t *PMQuadtree) InsertPoint(site Site) error {
	if !t.bounds.Contains(site.Location) {
		return fmt.Errorf("%w: %s %q at (%g, %g)", ErrOutOfBounds, site.Kind, site.Name, site.Location.X, site.Location.Y)
	}
	if _, exists := t.points[site.Key()]; exists {
		return fmt.Errorf("%w: %s %q", ErrDuplicateName, site.Kind, site.Name)
	}
	if other, taken := t.locations[site.Location]; taken {
		return fmt.Errorf("%w: (%g, %g) holds %s", ErrDuplicateCoordinate, site.Location.X, site.Location.Y, other)
	}

	root, err := t.engine.insert(t.root, t.bounds, PointGeometry{Site: site})
	if err != nil {
		return fmt.Errorf("insert %s %q: %w", site.Kind, site.Name, err)
	}
	t.root = root
	t.points[site.Key()] = site
	t.locations[site.Location] = site.Key()
	return nil
}

// InsertSegment adds the segment between two indexed points. Only the
// endpoints' identities are read from a and b; locations come from the
// index.
func (t *PMQuadtree) InsertSegment(a, b Site) error {
	start, ok := t.points[a.Key()]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrStartDoesNotExist, a.Kind, a.Name)
	}
	end, ok := t.points[b.Key()]
	if !ok {
		return fmt.Errorf("%w: %s %q", ErrEndDoesNotExist, b.Kind, b.Name)
	}
	if start.Key() == end.Key() {
		return fmt.Errorf("%w: %q", ErrStartEqualsEnd, start.Name)
	}

	seg := NewSegmentGeometry(start, end)
	if _, exists := t.segments[seg.Key()]; exists {
		return fmt.Errorf("%w: %s-%s", ErrRoadAlreadyExists, start.Name, end.Name)
	}
	if other, crosses := t.crossing(seg); crosses {
		return fmt.Errorf("%w: %s-%s crosses %s-%s", ErrRoadIntersecting,
			start.Name, end.Name, other.Start.Name, other.End.Name)
	}

	root, err := t.engine.insert(t.root, t.bounds, seg)
	if err != nil {
		return fmt.Errorf("insert road %s-%s: %w", start.Name, end.Name, err)
	}
	t.root = root
	t.segments[seg.Key()] = seg
	t.degree[seg.Start.Key()]++
	t.degree[seg.End.Key()]++
	return nil
}

// DeletePoint removes the point stored under key from every leaf. Callers
// remove a point's segments first.
func (t *PMQuadtree) DeletePoint(key string) bool {
	site, ok := t.points[key]
	if !ok {
		return false
	}
	t.root = t.engine.remove(t.root, t.bounds, PointGeometry{Site: site})
	delete(t.points, key)
	delete(t.locations, site.Location)
	return true
}

// DeleteSegment removes the segment between a and b.
func (t *PMQuadtree) DeleteSegment(a, b Site) bool {
	seg, ok := t.segments[NewSegmentGeometry(a, b).Key()]
	if !ok {
		return false
	}
	t.root = t.engine.remove(t.root, t.bounds, seg)
	delete(t.segments, seg.Key())
	for _, end := range []string{seg.Start.Key(), seg.End.Key()} {
		if t.degree[end]--; t.degree[end] <= 0 {
			delete(t.degree, end)
		}
	}
	return true
}

// Atomically runs fn and, if it fails, puts the index back the way it
// was before fn started.
func (t *PMQuadtree) Atomically(fn func() error) error {
	root := t.root
	points := maps.Clone(t.points)
	locations := maps.Clone(t.locations)
	segments := maps.Clone(t.segments)
	degree := maps.Clone(t.degree)

	if err := fn(); err != nil {
		t.root = root
		t.points = points
		t.locations = locations
		t.segments = segments
		t.degree = degree
		return err
	}
	return nil
}

// crossing returns an indexed segment that seg crosses. A crossing point
// lies in some leaf, and both segments are stored in every leaf they
// meet, so only leaves seg passes through need checking.
func (t *PMQuadtree) crossing(seg SegmentGeometry) (SegmentGeometry, bool) {
	var (
		found SegmentGeometry
		hit   bool
	)
	line := seg.Segment()
	Walk(t.root, t.bounds, func(n Node, region Rect) bool {
		if hit || !seg.intersects(region) {
			return false
		}
		leaf, ok := n.(*Leaf)
		if !ok {
			return true
		}
		for _, g := range leaf.items {
			other, ok := g.(SegmentGeometry)
			if ok && line.Crosses(other.Segment()) {
				found, hit = other, true
				return false
			}
		}
		return true
	})
	return found, hit
}

//
// ---------- Queries ----------
//

// Point returns the indexed site stored under key.
func (t *PMQuadtree) Point(key string) (Site, bool) {
	site, ok := t.points[key]
	return site, ok
}

// ContainsPoint reports whether a point is stored under key.
func (t *PMQuadtree) ContainsPoint(key string) bool {
	_, ok := t.points[key]
	return ok
}

// ContainsSegment reports whether the segment between a and b is indexed.
func (t *PMQuadtree) ContainsSegment(a, b Site) bool {
	_, ok := t.segments[NewSegmentGeometry(a, b).Key()]
	return ok
}

// IsIsolated reports whether the point under key is no segment's endpoint.
func (t *PMQuadtree) IsIsolated(key string) bool {
	return t.degree[key] == 0
}

// Points returns every indexed point ordered by name.
func (t *PMQuadtree) Points() []Site {
	sites := slices.Collect(maps.Values(t.points))
	slices.SortFunc(sites, compareSites)
	return sites
}

// Segments returns every indexed segment ordered by endpoints.
func (t *PMQuadtree) Segments() []SegmentGeometry {
	segs := slices.Collect(maps.Values(t.segments))
	slices.SortFunc(segs, func(a, b SegmentGeometry) int {
		return cmp.Or(compareSites(a.Start, b.Start), compareSites(a.End, b.End))
	})
	return segs
}

// SegmentsAt returns the segments ending at the point stored under key.
func (t *PMQuadtree) SegmentsAt(key string) []SegmentGeometry {
	var out []SegmentGeometry
	for _, s := range t.Segments() {
		if s.Start.Key() == key || s.End.Key() == key {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of indexed points and segments.
func (t *PMQuadtree) Len() (points, segments int) {
	return len(t.points), len(t.segments)
}

// IsEmpty reports whether nothing is indexed.
func (t *PMQuadtree) IsEmpty() bool {
	_, empty := t.root.(Empty)
	return empty
}

// Root returns the current root node.
func (t *PMQuadtree) Root() Node { return t.root }

// Bounds returns the indexed region.
func (t *PMQuadtree) Bounds() Rect { return t.bounds }

// Order returns the PM order of the index.
func (t *PMQuadtree) Order() int { return t.order }

// MatchIsolated accepts points of kind that are no segment's endpoint.
func (t *PMQuadtree) MatchIsolated(kind SiteKind) Match {
	return MatchSites(kind).And(func(g Geometry) bool {
		return t.IsIsolated(g.(PointGeometry).Site.Key())
	})
}

// MatchConnected accepts points of kind that end at least one segment.
func (t *PMQuadtree) MatchConnected(kind SiteKind) Match {
	return MatchSites(kind).And(func(g Geometry) bool {
		return !t.IsIsolated(g.(PointGeometry).Site.Key())
	})
}

// Nearest returns the matching item closest to p.
func (t *PMQuadtree) Nearest(p Point, match Match) (Geometry, float64, bool) {
	return NearestNeighbor(t.root, t.bounds, p, match)
}

// InRange returns the matching items within the closed circle c.
func (t *PMQuadtree) InRange(c Circle, match Match) []Geometry {
	return RangeSearch(t.root, t.bounds, c, match)
}
