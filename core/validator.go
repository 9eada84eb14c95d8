package core

import "fmt"

// Validator decides whether a set of items may share the leaf covering
// region. It must be a pure function of its input: split and merge call
// it repeatedly.
type Validator interface {
	Valid(items []Geometry, region Rect) bool
}

// NewValidator returns the PM rule for order 1 or 3.
func NewValidator(order int) (Validator, error) {
	switch order {
	case 1:
		return PM1Validator{}, nil
	case 3:
		return PM3Validator{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidPMOrder, order)
	}
}

// PM1Validator allows at most one point per leaf. With a point present
// every segment must end at it. Without one, the segments must all end at
// a single site lying on the closed region: a point on the west or south
// edge is stored in the neighbouring leaf only.
type PM1Validator struct{}

func (PM1Validator) Valid(items []Geometry, region Rect) bool {
	var (
		point    Site
		points   int
		segments []SegmentGeometry
	)
	for _, g := range items {
		switch g := g.(type) {
		case PointGeometry:
			point = g.Site
			points++
		case SegmentGeometry:
			segments = append(segments, g)
		}
	}
	switch points {
	case 0:
		if len(segments) <= 1 {
			return true
		}
		for _, end := range []Site{segments[0].Start, segments[0].End} {
			if region.ContainsClosed(end.Location) && allEndAt(segments, end) {
				return true
			}
		}
		return false
	case 1:
		return allEndAt(segments, point)
	default:
		return false
	}
}

func allEndAt(segments []SegmentGeometry, site Site) bool {
	for _, s := range segments {
		if !s.HasEndpoint(site) {
			return false
		}
	}
	return true
}

// PM3Validator allows at most one point per leaf and any number of
// segments. Crossing segments never reach a leaf; they are rejected
// before insertion.
type PM3Validator struct{}

func (PM3Validator) Valid(items []Geometry, _ Rect) bool {
	points := 0
	for _, g := range items {
		if _, ok := g.(PointGeometry); ok {
			points++
		}
	}
	return points <= 1
}

// exactPointRule keeps a leaf only while all of its points share one
// location. It drives the region quadtree.
type exactPointRule struct{}

func (exactPointRule) Valid(items []Geometry, _ Rect) bool {
	for i, g := range items {
		p, ok := g.(PointGeometry)
		if !ok {
			return false
		}
		if i > 0 && p.Site.Location != items[0].(PointGeometry).Site.Location {
			return false
		}
	}
	return true
}
