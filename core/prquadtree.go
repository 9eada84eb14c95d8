package core

import "fmt"

// PRQuadtree is the exact-point index over the remote plane. Leaves
// bucket every site sharing one location; distinct locations are split
// apart by repeated quartering.
type PRQuadtree struct {
	bounds Rect
	root   Node
	engine engine
	sites  map[string]Site
}

// NewPRQuadtree returns an empty index over bounds.
func NewPRQuadtree(bounds Rect) *PRQuadtree {
	return &PRQuadtree{
		bounds: bounds,
		root:   Empty{},
		engine: engine{rule: exactPointRule{}},
		sites:  make(map[string]Site),
	}
}

// Insert adds site at its location.
func (t *PRQuadtree) Insert(site Site) error {
	if !t.bounds.Contains(site.Location) {
		return fmt.Errorf("%w: %s %q at (%g, %g)", ErrOutOfBounds, site.Kind, site.Name, site.Location.X, site.Location.Y)
	}
	if _, exists := t.sites[site.Key()]; exists {
		return fmt.Errorf("%w: %s %q", ErrDuplicateName, site.Kind, site.Name)
	}
	root, err := t.engine.insert(t.root, t.bounds, PointGeometry{Site: site})
	if err != nil {
		return err
	}
	t.root = root
	t.sites[site.Key()] = site
	return nil
}

// Remove drops the site with key. It reports false when nothing was
// indexed under key.
func (t *PRQuadtree) Remove(key string) bool {
	site, ok := t.sites[key]
	if !ok {
		return false
	}
	t.root = t.engine.remove(t.root, t.bounds, PointGeometry{Site: site})
	delete(t.sites, key)
	return true
}

// Contains reports whether a site with key is indexed.
func (t *PRQuadtree) Contains(key string) bool {
	_, ok := t.sites[key]
	return ok
}

// Len returns the number of indexed sites.
func (t *PRQuadtree) Len() int { return len(t.sites) }

// Root returns the current root node.
func (t *PRQuadtree) Root() Node { return t.root }

// Bounds returns the indexed region.
func (t *PRQuadtree) Bounds() Rect { return t.bounds }

// Clear drops every site.
func (t *PRQuadtree) Clear() {
	t.root = Empty{}
	t.sites = make(map[string]Site)
}

// Nearest returns the closest matching site to p.
func (t *PRQuadtree) Nearest(p Point, match Match) (Site, float64, bool) {
	g, dist, ok := NearestNeighbor(t.root, t.bounds, p, match)
	if !ok {
		return Site{}, 0, false
	}
	return g.(PointGeometry).Site, dist, true
}

// InRange returns the matching sites within the closed circle c, ordered
// by name.
func (t *PRQuadtree) InRange(c Circle, match Match) []Site {
	found := RangeSearch(t.root, t.bounds, c, match)
	sites := make([]Site, 0, len(found))
	for _, g := range found {
		sites = append(sites, g.(PointGeometry).Site)
	}
	return sites
}
