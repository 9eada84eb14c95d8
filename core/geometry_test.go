package core

import (
	"math"
	"testing"
)

func TestQuadrantsPartitionParent(t *testing.T) {
	parent := Rect{X: 8, Y: 16, Width: 8, Height: 8}

	area := 0.0
	for _, q := range Quadrants {
		child := parent.Child(q)
		area += child.Width * child.Height
	}
	if area != parent.Width*parent.Height {
		t.Fatalf("sum of child areas = %v, want %v", area, parent.Width*parent.Height)
	}

	// Sample every half unit, including the split lines.
	for x := parent.X; x < parent.MaxX(); x += 0.5 {
		for y := parent.Y; y < parent.MaxY(); y += 0.5 {
			p := Point{X: x, Y: y}
			holders := 0
			for _, q := range Quadrants {
				if parent.Child(q).Contains(p) {
					holders++
					if got := parent.QuadrantOf(p); got != q {
						t.Fatalf("QuadrantOf(%v) = %v, want %v", p, got, q)
					}
				}
			}
			if holders != 1 {
				t.Fatalf("point %v lies in %d children, want 1", p, holders)
			}
		}
	}
}

func TestRectSplittable(t *testing.T) {
	if !(Rect{Width: 2, Height: 2}).Splittable() {
		t.Fatalf("2x2 region should be splittable")
	}
	if (Rect{Width: 1, Height: 1}).Splittable() {
		t.Fatalf("1x1 region should not be splittable")
	}
}

func TestRectDistanceTo(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 4, Height: 4}
	cases := []struct {
		p    Point
		want float64
	}{
		{Point{X: 2, Y: 2}, 0},
		{Point{X: 7, Y: 2}, 3},
		{Point{X: 2, Y: -1}, 1},
		{Point{X: 7, Y: 8}, 5},
	}
	for _, tc := range cases {
		if got := r.DistanceTo(tc.p); got != tc.want {
			t.Fatalf("DistanceTo(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestCircleIntersectsRect(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 10, Height: 10}
	cases := []struct {
		name string
		c    Circle
		want bool
	}{
		{"center inside", Circle{Center: Point{X: 15, Y: 15}, Radius: 1}, true},
		{"below within reach", Circle{Center: Point{X: 15, Y: 7}, Radius: 3}, true},
		{"below out of reach", Circle{Center: Point{X: 15, Y: 6}, Radius: 3}, false},
		{"left within reach", Circle{Center: Point{X: 8, Y: 12}, Radius: 2}, true},
		{"right out of reach", Circle{Center: Point{X: 25, Y: 12}, Radius: 4.9}, false},
		{"corner within reach", Circle{Center: Point{X: 23, Y: 24}, Radius: 5}, true},
		{"corner out of reach", Circle{Center: Point{X: 7, Y: 6}, Radius: 4.9}, false},
	}
	for _, tc := range cases {
		if got := tc.c.IntersectsRect(r); got != tc.want {
			t.Fatalf("%s: IntersectsRect = %v, want %v", tc.name, got, tc.want)
		}
		want := r.DistanceTo(tc.c.Center) <= tc.c.Radius
		if got := tc.c.IntersectsRect(r); got != want {
			t.Fatalf("%s: IntersectsRect = %v, distance test says %v", tc.name, got, want)
		}
	}
}

func TestSegmentDistanceTo(t *testing.T) {
	s := Segment{A: Point{X: 0, Y: 0}, B: Point{X: 10, Y: 0}}
	cases := []struct {
		p    Point
		want float64
	}{
		{Point{X: 5, Y: 3}, 3},
		{Point{X: -3, Y: 4}, 5},
		{Point{X: 13, Y: -4}, 5},
		{Point{X: 10, Y: 0}, 0},
	}
	for _, tc := range cases {
		if got := s.DistanceTo(tc.p); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("DistanceTo(%v) = %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestSegmentIntersectsHalfOpenRect(t *testing.T) {
	r := Rect{X: 0, Y: 0, Width: 4, Height: 4}
	cases := []struct {
		name string
		s    Segment
		want bool
	}{
		{"along right edge", Segment{A: Point{X: 4, Y: 0}, B: Point{X: 4, Y: 4}}, false},
		{"along top edge", Segment{A: Point{X: 0, Y: 4}, B: Point{X: 4, Y: 4}}, false},
		{"along left edge", Segment{A: Point{X: 0, Y: 1}, B: Point{X: 0, Y: 3}}, true},
		{"along bottom edge", Segment{A: Point{X: 1, Y: 0}, B: Point{X: 3, Y: 0}}, true},
		{"ends at top right corner", Segment{A: Point{X: 4, Y: 4}, B: Point{X: 6, Y: 6}}, false},
		{"ends at bottom left corner", Segment{A: Point{X: -1, Y: -1}, B: Point{X: 0, Y: 0}}, true},
		{"grazes bottom left corner", Segment{A: Point{X: -2, Y: 2}, B: Point{X: 2, Y: -2}}, true},
		{"through interior", Segment{A: Point{X: -2, Y: 2}, B: Point{X: 6, Y: 2}}, true},
		{"diagonal through interior", Segment{A: Point{X: -1, Y: 3}, B: Point{X: 3, Y: -1}}, true},
		{"misses above", Segment{A: Point{X: -2, Y: 5}, B: Point{X: 6, Y: 5}}, false},
		{"bounding box overlaps but line misses", Segment{A: Point{X: 3, Y: 6}, B: Point{X: 6, Y: 3}}, false},
		{"inside", Segment{A: Point{X: 1, Y: 1}, B: Point{X: 2, Y: 3}}, true},
	}
	for _, tc := range cases {
		if got := tc.s.IntersectsRect(r); got != tc.want {
			t.Fatalf("%s: IntersectsRect = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSegmentCrosses(t *testing.T) {
	cases := []struct {
		name string
		s, t Segment
		want bool
	}{
		{
			name: "shared endpoint at an angle",
			s:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 4, Y: 0}},
			t:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 0, Y: 4}},
			want: false,
		},
		{
			name: "shared endpoint overlapping",
			s:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 4, Y: 0}},
			t:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 2, Y: 0}},
			want: true,
		},
		{
			name: "collinear end to end",
			s:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 2, Y: 0}},
			t:    Segment{A: Point{X: 2, Y: 0}, B: Point{X: 4, Y: 0}},
			want: false,
		},
		{
			name: "endpoint on interior",
			s:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 4, Y: 0}},
			t:    Segment{A: Point{X: 2, Y: 0}, B: Point{X: 2, Y: 3}},
			want: true,
		},
		{
			name: "proper crossing",
			s:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 4, Y: 4}},
			t:    Segment{A: Point{X: 0, Y: 4}, B: Point{X: 4, Y: 0}},
			want: true,
		},
		{
			name: "parallel",
			s:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 4, Y: 0}},
			t:    Segment{A: Point{X: 0, Y: 1}, B: Point{X: 4, Y: 1}},
			want: false,
		},
		{
			name: "same segment reversed",
			s:    Segment{A: Point{X: 0, Y: 0}, B: Point{X: 4, Y: 1}},
			t:    Segment{A: Point{X: 4, Y: 1}, B: Point{X: 0, Y: 0}},
			want: true,
		},
	}
	for _, tc := range cases {
		if got := tc.s.Crosses(tc.t); got != tc.want {
			t.Fatalf("%s: Crosses = %v, want %v", tc.name, got, tc.want)
		}
		if got := tc.t.Crosses(tc.s); got != tc.want {
			t.Fatalf("%s (swapped): Crosses = %v, want %v", tc.name, got, tc.want)
		}
	}
}
