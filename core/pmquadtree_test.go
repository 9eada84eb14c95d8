package core

import (
	"errors"
	"reflect"
	"testing"
)

func newTestPM(t *testing.T, order int, sites ...Site) *PMQuadtree {
	t.Helper()
	tree, err := NewPMQuadtree(Rect{Width: 64, Height: 64}, order)
	if err != nil {
		t.Fatalf("NewPMQuadtree error: %v", err)
	}
	for _, s := range sites {
		if err := tree.InsertPoint(s); err != nil {
			t.Fatalf("InsertPoint(%s) error: %v", s.Name, err)
		}
	}
	return tree
}

func TestPM1SharedEndpointRoadsAndCrossing(t *testing.T) {
	a, b, c := citySite("A", 10, 10), citySite("B", 10, 50), citySite("C", 50, 10)
	d, e := citySite("D", 0, 30), citySite("E", 20, 30)
	tree := newTestPM(t, 1, a, b, c)

	if err := tree.InsertSegment(a, b); err != nil {
		t.Fatalf("InsertSegment(A, B) error: %v", err)
	}
	if err := tree.InsertSegment(a, c); err != nil {
		t.Fatalf("InsertSegment(A, C) error: %v", err)
	}
	if err := tree.InsertSegment(b, c); err != nil {
		t.Fatalf("InsertSegment(B, C) error: %v", err)
	}
	for _, s := range []Site{d, e} {
		if err := tree.InsertPoint(s); err != nil {
			t.Fatalf("InsertPoint(%s) error: %v", s.Name, err)
		}
	}

	before := tree.Root()
	err := tree.InsertSegment(d, e)
	if !errors.Is(err, ErrRoadIntersecting) {
		t.Fatalf("InsertSegment(D, E) error = %v, want ErrRoadIntersecting", err)
	}
	if tree.Root() != before {
		t.Fatalf("tree changed after rejected road")
	}
	if tree.ContainsSegment(d, e) {
		t.Fatalf("ContainsSegment(D, E) = true after rejection")
	}
	assertSegmentsInEveryLeafTheyMeet(t, tree)
}

func TestPM1RuleViolationRollsBackSegment(t *testing.T) {
	a, b, x := citySite("A", 10, 10), citySite("B", 10, 50), citySite("X", 10, 30)
	tree := newTestPM(t, 1, a, b, x)

	before := tree.Root()
	view := Describe(before)

	err := tree.InsertSegment(a, b)
	if !errors.Is(err, ErrPMRuleViolation) {
		t.Fatalf("InsertSegment(A, B) error = %v, want ErrPMRuleViolation", err)
	}
	if tree.Root() != before {
		t.Fatalf("root replaced after PM rule violation")
	}
	if got := Describe(tree.Root()); !reflect.DeepEqual(got, view) {
		t.Fatalf("tree after violation = %+v, want %+v", got, view)
	}
	if tree.ContainsSegment(a, b) || !tree.IsIsolated(a.Key()) || !tree.IsIsolated(b.Key()) {
		t.Fatalf("segment bookkeeping changed after violation")
	}
}

func TestPM3AllowsRoadThroughCell(t *testing.T) {
	a, b, x := citySite("A", 10, 10), citySite("B", 10, 50), citySite("X", 10, 30)
	tree := newTestPM(t, 3, a, b, x)

	if err := tree.InsertSegment(a, b); err != nil {
		t.Fatalf("InsertSegment(A, B) under PM3 error: %v", err)
	}
	if tree.IsIsolated(a.Key()) || !tree.IsIsolated(x.Key()) {
		t.Fatalf("IsIsolated(A)=%v IsIsolated(X)=%v, want false true", tree.IsIsolated(a.Key()), tree.IsIsolated(x.Key()))
	}
	assertSegmentsInEveryLeafTheyMeet(t, tree)
}

func TestPM1PointOnRoadViolates(t *testing.T) {
	a, b := citySite("A", 10, 10), citySite("B", 10, 50)
	tree := newTestPM(t, 1, a, b)
	if err := tree.InsertSegment(a, b); err != nil {
		t.Fatalf("InsertSegment(A, B) error: %v", err)
	}
	before := tree.Root()

	if err := tree.InsertPoint(citySite("X", 10, 30)); !errors.Is(err, ErrPMRuleViolation) {
		t.Fatalf("InsertPoint(X) error = %v, want ErrPMRuleViolation", err)
	}
	if tree.Root() != before || tree.ContainsPoint(citySite("X", 10, 30).Key()) {
		t.Fatalf("tree changed after rejected point")
	}
}

func TestPM1RoadsLeavingWestAndEastAreSymmetric(t *testing.T) {
	layouts := []struct {
		name       string
		a, b, c, d Site
	}{
		{"west", citySite("A", 48, 48), citySite("B", 10, 48), citySite("C", 10, 58), citySite("D", 56, 56)},
		{"east", citySite("A", 16, 48), citySite("B", 54, 48), citySite("C", 54, 58), citySite("D", 8, 56)},
		{"south", citySite("A", 48, 48), citySite("B", 48, 10), citySite("C", 58, 10), citySite("D", 56, 56)},
	}
	for _, l := range layouts {
		tree := newTestPM(t, 1, l.a, l.b, l.c, l.d)
		empty := Describe(tree.Root())

		if err := tree.InsertSegment(l.a, l.b); err != nil {
			t.Fatalf("%s: InsertSegment(A, B) error: %v", l.name, err)
		}
		if err := tree.InsertSegment(l.a, l.c); err != nil {
			t.Fatalf("%s: InsertSegment(A, C) error: %v", l.name, err)
		}
		assertSegmentsInEveryLeafTheyMeet(t, tree)

		tree.DeleteSegment(l.a, l.c)
		tree.DeleteSegment(l.a, l.b)
		if got := Describe(tree.Root()); !reflect.DeepEqual(got, empty) {
			t.Fatalf("%s: shape after removing roads = %+v, want %+v", l.name, got, empty)
		}
	}
}

func TestPMDeleteCascadeLeavesNoResidue(t *testing.T) {
	a, b, c := citySite("A", 10, 10), citySite("B", 10, 50), citySite("C", 50, 10)
	tree := newTestPM(t, 1)
	isolated := Describe(newTestPM(t, 1, b, c).Root())

	for _, s := range []Site{a, b, c} {
		if err := tree.InsertPoint(s); err != nil {
			t.Fatalf("InsertPoint(%s) error: %v", s.Name, err)
		}
	}
	for _, other := range []Site{b, c} {
		if err := tree.InsertSegment(a, other); err != nil {
			t.Fatalf("InsertSegment(A, %s) error: %v", other.Name, err)
		}
	}

	segs := tree.SegmentsAt(a.Key())
	if len(segs) != 2 {
		t.Fatalf("SegmentsAt(A) = %+v, want 2 roads", segs)
	}
	for _, s := range segs {
		if !tree.DeleteSegment(s.Start, s.End) {
			t.Fatalf("DeleteSegment(%s, %s) = false", s.Start.Name, s.End.Name)
		}
	}
	if !tree.DeletePoint(a.Key()) {
		t.Fatalf("DeletePoint(A) = false")
	}

	Walk(tree.Root(), tree.Bounds(), func(n Node, _ Rect) bool {
		if leaf, ok := n.(*Leaf); ok {
			for _, g := range leaf.items {
				switch g := g.(type) {
				case PointGeometry:
					if g.Site.Name == "A" {
						t.Fatalf("leaf still holds point A")
					}
				case SegmentGeometry:
					t.Fatalf("leaf still holds road %s-%s", g.Start.Name, g.End.Name)
				}
			}
		}
		return true
	})
	if got := Describe(tree.Root()); !reflect.DeepEqual(got, isolated) {
		t.Fatalf("tree after cascade = %+v, want %+v", got, isolated)
	}

	tree.DeletePoint(b.Key())
	tree.DeletePoint(c.Key())
	if !tree.IsEmpty() {
		t.Fatalf("tree not empty after deleting every point: %+v", Describe(tree.Root()))
	}
}

func TestPMInsertThenDeleteSegmentRestoresShape(t *testing.T) {
	a, b, c := citySite("A", 10, 10), citySite("B", 10, 50), citySite("C", 50, 10)
	tree := newTestPM(t, 1, a, b, c)
	if err := tree.InsertSegment(a, b); err != nil {
		t.Fatalf("InsertSegment(A, B) error: %v", err)
	}
	before := Describe(tree.Root())

	if err := tree.InsertSegment(b, c); err != nil {
		t.Fatalf("InsertSegment(B, C) error: %v", err)
	}
	tree.DeleteSegment(c, b)

	if got := Describe(tree.Root()); !reflect.DeepEqual(got, before) {
		t.Fatalf("shape after insert/delete = %+v, want %+v", got, before)
	}
}

func TestPMInsertPointErrors(t *testing.T) {
	tree := newTestPM(t, 3, citySite("A", 1, 1))

	cases := []struct {
		name string
		site Site
		want error
	}{
		{"outside", citySite("Z", 64, 3), ErrOutOfBounds},
		{"negative", citySite("Z", -1, 3), ErrOutOfBounds},
		{"same name", citySite("A", 2, 2), ErrDuplicateName},
		{"same location", citySite("B", 1, 1), ErrDuplicateCoordinate},
	}
	for _, tc := range cases {
		if err := tree.InsertPoint(tc.site); !errors.Is(err, tc.want) {
			t.Fatalf("%s: InsertPoint error = %v, want %v", tc.name, err, tc.want)
		}
	}

	// Same name as a different kind is a different site.
	airport := Site{Name: "A", Kind: SiteAirport, Location: Pt(5, 5)}
	if err := tree.InsertPoint(airport); err != nil {
		t.Fatalf("InsertPoint(airport A) error: %v", err)
	}
}

func TestPMInsertSegmentErrors(t *testing.T) {
	a, b := citySite("A", 1, 1), citySite("B", 9, 9)
	tree := newTestPM(t, 3, a, b)
	ghost := citySite("G", 20, 20)

	if err := tree.InsertSegment(ghost, b); !errors.Is(err, ErrStartDoesNotExist) {
		t.Fatalf("missing start error = %v, want ErrStartDoesNotExist", err)
	}
	if err := tree.InsertSegment(a, ghost); !errors.Is(err, ErrEndDoesNotExist) {
		t.Fatalf("missing end error = %v, want ErrEndDoesNotExist", err)
	}
	if err := tree.InsertSegment(a, a); !errors.Is(err, ErrStartEqualsEnd) {
		t.Fatalf("degenerate road error = %v, want ErrStartEqualsEnd", err)
	}
	if err := tree.InsertSegment(a, b); err != nil {
		t.Fatalf("InsertSegment(A, B) error: %v", err)
	}
	if err := tree.InsertSegment(b, a); !errors.Is(err, ErrRoadAlreadyExists) {
		t.Fatalf("duplicate road error = %v, want ErrRoadAlreadyExists", err)
	}
}

func TestPMAtomicallyRestoresOnFailure(t *testing.T) {
	a, b := citySite("A", 10, 10), citySite("B", 10, 50)
	tree := newTestPM(t, 1, a, b)
	before := tree.Root()

	x := citySite("X", 10, 30)
	err := tree.Atomically(func() error {
		if err := tree.InsertPoint(x); err != nil {
			return err
		}
		return tree.InsertSegment(a, b)
	})
	if !errors.Is(err, ErrPMRuleViolation) {
		t.Fatalf("Atomically error = %v, want ErrPMRuleViolation", err)
	}
	if tree.Root() != before || tree.ContainsPoint(x.Key()) || len(tree.Points()) != 2 {
		t.Fatalf("index not restored: points=%+v", tree.Points())
	}
}

func TestNewPMQuadtreeRejectsOrder(t *testing.T) {
	if _, err := NewPMQuadtree(Rect{Width: 8, Height: 8}, 2); !errors.Is(err, ErrInvalidPMOrder) {
		t.Fatalf("NewPMQuadtree(order 2) error = %v, want ErrInvalidPMOrder", err)
	}
}

// assertSegmentsInEveryLeafTheyMeet checks that each indexed segment is
// stored in exactly the leaves whose region it meets.
func assertSegmentsInEveryLeafTheyMeet(t *testing.T, tree *PMQuadtree) {
	t.Helper()
	for _, seg := range tree.Segments() {
		Walk(tree.Root(), tree.Bounds(), func(n Node, region Rect) bool {
			leaf, ok := n.(*Leaf)
			if !ok {
				if _, empty := n.(Empty); empty && seg.intersects(region) {
					t.Fatalf("road %s-%s meets empty region %+v", seg.Start.Name, seg.End.Name, region)
				}
				return true
			}
			if got, want := leaf.Has(seg.Key()), seg.intersects(region); got != want {
				t.Fatalf("leaf %+v holds road %s-%s = %v, want %v", region, seg.Start.Name, seg.End.Name, got, want)
			}
			return true
		})
	}
}
