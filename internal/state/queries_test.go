package state

import (
	"errors"
	"testing"
)

func newQueryState(t *testing.T) *MapState {
	t.Helper()
	s := newTestState(t, 3)
	createCity(t, s, "A", at(10, 10), metro)
	createCity(t, s, "B", at(10, 50), metro)
	createCity(t, s, "C", at(50, 10), metro)
	createCity(t, s, "D", at(40, 40), metro)
	createCity(t, s, "E", at(1, 1), at(5, 1))
	createCity(t, s, "F", at(60, 60), metro)
	mapRoad(t, s, "A", "B")
	mapCity(t, s, "C")
	mapCity(t, s, "D")
	mapCity(t, s, "E")
	return s
}

func TestRangeCities(t *testing.T) {
	s := newQueryState(t)

	got, err := s.RangeCities(metro, at(10, 10), 40)
	if err != nil {
		t.Fatalf("RangeCities() error = %v", err)
	}
	if names(got) != "[A B C]" {
		t.Fatalf("RangeCities((10,10), 40) = %s, want [A B C]", names(got))
	}
	if _, err := s.RangeCities(metro, at(30, 30), 1); !errors.Is(err, ErrNoCitiesExistInRange) {
		t.Fatalf("RangeCities(empty circle) error = %v, want ErrNoCitiesExistInRange", err)
	}
	if _, err := s.RangeCities(at(3, 3), at(10, 10), 100); !errors.Is(err, ErrNoCitiesExistInRange) {
		t.Fatalf("RangeCities(no metropole) error = %v, want ErrNoCitiesExistInRange", err)
	}
	if _, err := s.RangeCities(at(16, 0), at(10, 10), 100); !errors.Is(err, ErrMetropoleOutOfBounds) {
		t.Fatalf("RangeCities(out of bounds) error = %v, want ErrMetropoleOutOfBounds", err)
	}
}

func TestGlobalRangeCities(t *testing.T) {
	s := newQueryState(t)

	got, err := s.GlobalRangeCities(metro, 3)
	if err != nil {
		t.Fatalf("GlobalRangeCities() error = %v", err)
	}
	// F shares the metropole but is not mapped.
	if names(got) != "[A B C D]" {
		t.Fatalf("GlobalRangeCities((1,1), 3) = %s, want [A B C D]", names(got))
	}
	got, err = s.GlobalRangeCities(metro, 4)
	if err != nil {
		t.Fatalf("GlobalRangeCities() error = %v", err)
	}
	if names(got) != "[A B C D E]" {
		t.Fatalf("GlobalRangeCities((1,1), 4) = %s, want [A B C D E]", names(got))
	}
	if _, err := s.GlobalRangeCities(at(10, 10), 1); !errors.Is(err, ErrNoCitiesExistInRange) {
		t.Fatalf("GlobalRangeCities(far) error = %v, want ErrNoCitiesExistInRange", err)
	}
}

func TestRangeRoads(t *testing.T) {
	s := newQueryState(t)

	roads, err := s.RangeRoads(metro, at(0, 30), 10)
	if err != nil {
		t.Fatalf("RangeRoads() error = %v", err)
	}
	if len(roads) != 1 || roads[0].Start != "A" || roads[0].End != "B" {
		t.Fatalf("RangeRoads((0,30), 10) = %+v, want [A-B]", roads)
	}
	if _, err := s.RangeRoads(metro, at(0, 30), 5); !errors.Is(err, ErrNoRoadsExistInRange) {
		t.Fatalf("RangeRoads(radius 5) error = %v, want ErrNoRoadsExistInRange", err)
	}
}

func TestNearestQueries(t *testing.T) {
	s := newQueryState(t)

	city, err := s.NearestCity(metro, at(45, 45))
	if err != nil || city.Name != "B" {
		t.Fatalf("NearestCity((45,45)) = %v, %v; want B", city, err)
	}
	city, err = s.NearestIsolatedCity(metro, at(45, 45))
	if err != nil || city.Name != "D" {
		t.Fatalf("NearestIsolatedCity((45,45)) = %v, %v; want D", city, err)
	}
	road, err := s.NearestRoad(metro, at(40, 30))
	if err != nil || road.Start != "A" || road.End != "B" {
		t.Fatalf("NearestRoad((40,30)) = %+v, %v; want A-B", road, err)
	}

	if _, err := s.NearestCity(at(3, 3), at(0, 0)); !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("NearestCity(no metropole) error = %v, want ErrCityNotFound", err)
	}
	if _, err := s.NearestIsolatedCity(at(16, 16), at(0, 0)); !errors.Is(err, ErrMetropoleOutOfBounds) {
		t.Fatalf("NearestIsolatedCity(out of bounds) error = %v, want ErrMetropoleOutOfBounds", err)
	}
	// E is isolated, so a connected city cannot be found in its metropole.
	if _, err := s.NearestCity(at(5, 1), at(0, 0)); !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("NearestCity(isolated only) error = %v, want ErrCityNotFound", err)
	}
	if _, err := s.NearestRoad(at(5, 1), at(0, 0)); !errors.Is(err, ErrRoadNotFound) {
		t.Fatalf("NearestRoad(no roads) error = %v, want ErrRoadNotFound", err)
	}
	if _, err := s.PrintPMQuadtree(at(16, 0)); !errors.Is(err, ErrMetropoleOutOfBounds) {
		t.Fatalf("PrintPMQuadtree(out of bounds) error = %v, want ErrMetropoleOutOfBounds", err)
	}
}

func TestNearestCityToRoad(t *testing.T) {
	s := newQueryState(t)

	city, err := s.NearestCityToRoad("B", "A")
	if err != nil {
		t.Fatalf("NearestCityToRoad(B, A) error = %v", err)
	}
	// D is 30 from the road, C is 40 and F is not mapped.
	if city.Name != "D" {
		t.Fatalf("NearestCityToRoad(B, A) = %s, want D", city.Name)
	}
	if _, err := s.NearestCityToRoad("A", "C"); !errors.Is(err, ErrRoadNotMapped) {
		t.Fatalf("NearestCityToRoad(A, C) error = %v, want ErrRoadNotMapped", err)
	}
	if _, err := s.NearestCityToRoad("A", "Z"); !errors.Is(err, ErrEndDoesNotExist) {
		t.Fatalf("NearestCityToRoad(A, Z) error = %v, want ErrEndDoesNotExist", err)
	}

	lone := newTestState(t, 3)
	createCity(t, lone, "A", at(10, 10), metro)
	createCity(t, lone, "B", at(10, 50), metro)
	mapRoad(t, lone, "A", "B")
	if _, err := lone.NearestCityToRoad("A", "B"); !errors.Is(err, ErrNoOtherCitiesMapped) {
		t.Fatalf("NearestCityToRoad(only road) error = %v, want ErrNoOtherCitiesMapped", err)
	}
}

func TestPrintNameTree(t *testing.T) {
	if _, err := newTestState(t, 3).PrintNameTree(); !errors.Is(err, ErrDictionaryIsEmpty) {
		t.Fatalf("PrintNameTree(empty) error = %v, want ErrDictionaryIsEmpty", err)
	}

	s := newQueryState(t)
	tree, err := s.PrintNameTree()
	if err != nil {
		t.Fatalf("PrintNameTree() error = %v", err)
	}
	// Unmapped cities are part of the dictionary too.
	if tree.Cardinality != 6 || tree.Root == nil {
		t.Fatalf("PrintNameTree() = %+v, want 6 cities", tree)
	}
	if tree.Height < 2 || tree.Height > 4 {
		t.Fatalf("PrintNameTree() height = %d, want 2 to 4", tree.Height)
	}
}
