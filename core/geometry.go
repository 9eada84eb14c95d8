package core

import "math"

// Point is a location in either the local or the remote plane.
type Point struct {
	X, Y float64
}

// Pt is shorthand for building a Point from integer coordinates.
func Pt(x, y int) Point {
	return Point{X: float64(x), Y: float64(y)}
}

// DistanceTo returns the Euclidean distance between two points.
func (p Point) DistanceTo(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Less orders points by X, then Y.
func (p Point) Less(other Point) bool {
	if p.X != other.X {
		return p.X < other.X
	}
	return p.Y < other.Y
}

// Rect is the half-open region [X, X+Width) x [Y, Y+Height).
//
// Every point of the plane belongs to exactly one of the four quadrants
// of a Rect, which keeps point placement unambiguous on split lines.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// MaxX is the excluded right edge.
func (r Rect) MaxX() float64 { return r.X + r.Width }

// MaxY is the excluded top edge.
func (r Rect) MaxY() float64 { return r.Y + r.Height }

// Center returns the split point of the region.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside the half-open region.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.MaxX() && p.Y >= r.Y && p.Y < r.MaxY()
}

// ContainsClosed reports whether p lies inside or on the edge of r.
func (r Rect) ContainsClosed(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Splittable reports whether the region can be quartered again. 1x1 is
// the smallest region.
func (r Rect) Splittable() bool {
	return r.Width >= 2 && r.Height >= 2
}

// DistanceTo returns the distance from p to the closed rectangle, zero
// when p is inside. It is a lower bound for anything stored in r.
func (r Rect) DistanceTo(p Point) float64 {
	dx := math.Max(math.Max(r.X-p.X, 0), p.X-r.MaxX())
	dy := math.Max(math.Max(r.Y-p.Y, 0), p.Y-r.MaxY())
	return math.Hypot(dx, dy)
}

// Quadrant indexes the four children of a region relative to its center.
type Quadrant int

const (
	NW Quadrant = iota
	NE
	SW
	SE
)

// Quadrants lists the child slots in storage order.
var Quadrants = [4]Quadrant{NW, NE, SW, SE}

func (q Quadrant) String() string {
	switch q {
	case NW:
		return "NW"
	case NE:
		return "NE"
	case SW:
		return "SW"
	case SE:
		return "SE"
	default:
		return "unknown"
	}
}

// QuadrantOf returns the child quadrant holding p. The split lines belong
// to the east and north halves.
func (r Rect) QuadrantOf(p Point) Quadrant {
	c := r.Center()
	switch {
	case p.X < c.X && p.Y >= c.Y:
		return NW
	case p.Y >= c.Y:
		return NE
	case p.X < c.X:
		return SW
	default:
		return SE
	}
}

// Child returns the region of quadrant q.
func (r Rect) Child(q Quadrant) Rect {
	hw, hh := r.Width/2, r.Height/2
	switch q {
	case NW:
		return Rect{X: r.X, Y: r.Y + hh, Width: hw, Height: hh}
	case NE:
		return Rect{X: r.X + hw, Y: r.Y + hh, Width: hw, Height: hh}
	case SW:
		return Rect{X: r.X, Y: r.Y, Width: hw, Height: hh}
	default:
		return Rect{X: r.X + hw, Y: r.Y, Width: hw, Height: hh}
	}
}

// Circle is a closed disk used by range queries.
type Circle struct {
	Center Point
	Radius float64
}

// ContainsPoint reports whether p lies in the closed disk.
func (c Circle) ContainsPoint(p Point) bool {
	return c.Center.DistanceTo(p) <= c.Radius
}

// IntersectsRect reports whether the closed disk meets the closed
// rectangle r.
//
// The center is classified against the rectangle's column and row. If it
// lies inside both the rectangle is hit; inside one band only the test is
// the axis gap; otherwise it is the distance to the nearest corner.
func (c Circle) IntersectsRect(r Rect) bool {
	cx, cy, rad := c.Center.X, c.Center.Y, c.Radius
	inColumn := cx >= r.X && cx <= r.MaxX()
	inRow := cy >= r.Y && cy <= r.MaxY()

	switch {
	case inColumn && inRow:
		return true
	case inColumn:
		if cy < r.Y {
			return r.Y-cy <= rad
		}
		return cy-r.MaxY() <= rad
	case inRow:
		if cx < r.X {
			return r.X-cx <= rad
		}
		return cx-r.MaxX() <= rad
	}

	corner := Point{X: r.X, Y: r.Y}
	if cx > r.MaxX() {
		corner.X = r.MaxX()
	}
	if cy > r.MaxY() {
		corner.Y = r.MaxY()
	}
	return c.Center.DistanceTo(corner) <= rad
}

// Segment is the closed line segment between A and B.
type Segment struct {
	A, B Point
}

// Length returns the Euclidean length of the segment.
func (s Segment) Length() float64 {
	return s.A.DistanceTo(s.B)
}

// DistanceTo returns the distance from p to the closest point on s.
func (s Segment) DistanceTo(p Point) float64 {
	dx, dy := s.B.X-s.A.X, s.B.Y-s.A.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return s.A.DistanceTo(p)
	}
	t := ((p.X-s.A.X)*dx + (p.Y-s.A.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Point{X: s.A.X + t*dx, Y: s.A.Y + t*dy}
	return closest.DistanceTo(p)
}

// orientation is the cross product (b-a) x (c-a): positive when c lies
// to the left of a->b, negative to the right, zero when collinear.
func orientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment reports whether p, known to be collinear with s, lies on s.
func onSegment(s Segment, p Point) bool {
	return p.X >= math.Min(s.A.X, s.B.X) && p.X <= math.Max(s.A.X, s.B.X) &&
		p.Y >= math.Min(s.A.Y, s.B.Y) && p.Y <= math.Max(s.A.Y, s.B.Y)
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Intersects reports whether s and t share at least one point.
func (s Segment) Intersects(t Segment) bool {
	d1 := sign(orientation(t.A, t.B, s.A))
	d2 := sign(orientation(t.A, t.B, s.B))
	d3 := sign(orientation(s.A, s.B, t.A))
	d4 := sign(orientation(s.A, s.B, t.B))

	if d1*d2 < 0 && d3*d4 < 0 {
		return true
	}
	return (d1 == 0 && onSegment(t, s.A)) ||
		(d2 == 0 && onSegment(t, s.B)) ||
		(d3 == 0 && onSegment(s, t.A)) ||
		(d4 == 0 && onSegment(s, t.B))
}

// Crosses reports whether s and t meet anywhere other than a shared
// endpoint. Collinear overlap past a shared endpoint counts as crossing.
func (s Segment) Crosses(t Segment) bool {
	var shared, sOther, tOther Point
	switch {
	case s.A == t.A:
		shared, sOther, tOther = s.A, s.B, t.B
	case s.A == t.B:
		shared, sOther, tOther = s.A, s.B, t.A
	case s.B == t.A:
		shared, sOther, tOther = s.B, s.A, t.B
	case s.B == t.B:
		shared, sOther, tOther = s.B, s.A, t.A
	default:
		return s.Intersects(t)
	}
	if sOther == tOther {
		return true
	}
	// Two segments leaving one point only meet again when collinear and
	// pointing the same way.
	if orientation(shared, sOther, tOther) != 0 {
		return false
	}
	return onSegment(s, tOther) || onSegment(t, sOther)
}

// IntersectsRect reports whether s meets the half-open region r.
//
// The half-open region is its open interior plus the included left and
// bottom edges. The interior test intersects the segment's bounding box
// with the open box and checks that the corners straddle the segment's
// line; both together are exact for convex sets on a line.
func (s Segment) IntersectsRect(r Rect) bool {
	return s.meetsInterior(r) ||
		s.meetsVertical(r.X, r.Y, r.MaxY()) ||
		s.meetsHorizontal(r.Y, r.X, r.MaxX())
}

func (s Segment) meetsInterior(r Rect) bool {
	if math.Min(s.A.X, s.B.X) >= r.MaxX() || math.Max(s.A.X, s.B.X) <= r.X ||
		math.Min(s.A.Y, s.B.Y) >= r.MaxY() || math.Max(s.A.Y, s.B.Y) <= r.Y {
		return false
	}
	if s.A == s.B {
		return true
	}
	corners := [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.MaxX(), Y: r.Y},
		{X: r.X, Y: r.MaxY()},
		{X: r.MaxX(), Y: r.MaxY()},
	}
	var pos, neg bool
	for _, c := range corners {
		switch sign(orientation(s.A, s.B, c)) {
		case 1:
			pos = true
		case -1:
			neg = true
		}
	}
	return pos && neg
}

// meetsVertical reports whether s touches {x} x [y0, y1).
func (s Segment) meetsVertical(x, y0, y1 float64) bool {
	ax, bx := s.A.X-x, s.B.X-x
	if (ax > 0 && bx > 0) || (ax < 0 && bx < 0) {
		return false
	}
	dx, dy := s.B.X-s.A.X, s.B.Y-s.A.Y
	if dx == 0 {
		lo, hi := math.Min(s.A.Y, s.B.Y), math.Max(s.A.Y, s.B.Y)
		return lo < y1 && hi >= y0
	}
	// (y - y0) * dx and (y - y1) * dx at the crossing, without dividing.
	low := (s.A.Y-y0)*dx + (x-s.A.X)*dy
	high := (s.A.Y-y1)*dx + (x-s.A.X)*dy
	if dx < 0 {
		low, high = -low, -high
	}
	return low >= 0 && high < 0
}

// meetsHorizontal reports whether s touches [x0, x1) x {y}.
func (s Segment) meetsHorizontal(y, x0, x1 float64) bool {
	flipped := Segment{A: Point{X: s.A.Y, Y: s.A.X}, B: Point{X: s.B.Y, Y: s.B.X}}
	return flipped.meetsVertical(y, x0, x1)
}
