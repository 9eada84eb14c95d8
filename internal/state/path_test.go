package state

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/signalsfoundry/metromap/model"
)

func stepNames(p *Path) string {
	out := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		out = append(out, s.Name)
	}
	return fmt.Sprint(out)
}

func newPathState(t *testing.T) *MapState {
	t.Helper()
	s := newTestState(t, 3)
	ctx := context.Background()
	east := at(5, 1)

	createCity(t, s, "A", at(10, 10), metro)
	createCity(t, s, "B", at(10, 50), metro)
	createCity(t, s, "C", at(50, 10), metro)
	createCity(t, s, "X", at(10, 10), east)
	createCity(t, s, "Y", at(20, 10), east)
	createCity(t, s, "Z", at(60, 60), metro)
	mapRoad(t, s, "A", "B")
	mapRoad(t, s, "B", "C")
	mapRoad(t, s, "A", "C")
	mapRoad(t, s, "X", "Y")
	mapCity(t, s, "Z")

	if err := s.MapAirport(ctx, airportAt("AP1", at(30, 20)), terminalAt("T1", at(55, 15), "", "C")); err != nil {
		t.Fatalf("MapAirport(AP1) error = %v", err)
	}
	err := s.MapAirport(ctx,
		&model.Airport{Name: "AP2", Local: at(40, 40), Remote: east},
		&model.Terminal{Name: "T2", Local: at(20, 30), City: "Y"})
	if err != nil {
		t.Fatalf("MapAirport(AP2) error = %v", err)
	}
	return s
}

func TestShortestPathAlongRoads(t *testing.T) {
	s := newPathState(t)

	p, err := s.ShortestPath("B", "C")
	if err != nil {
		t.Fatalf("ShortestPath(B, C) error = %v", err)
	}
	if got := stepNames(p); got != "[B C]" {
		t.Fatalf("ShortestPath(B, C) = %s, want [B C]", got)
	}
	if want := math.Sqrt(3200); math.Abs(p.Length-want) > 1e-9 {
		t.Fatalf("ShortestPath(B, C) length = %v, want %v", p.Length, want)
	}
}

func TestShortestPathThroughAirports(t *testing.T) {
	s := newPathState(t)

	p, err := s.ShortestPath("A", "X")
	if err != nil {
		t.Fatalf("ShortestPath(A, X) error = %v", err)
	}
	if got, want := stepNames(p), "[A C T1 AP1 AP2 T2 Y X]"; got != want {
		t.Fatalf("ShortestPath(A, X) = %s, want %s", got, want)
	}
	if want := 40 + math.Sqrt(50) + 4 + 20 + 10; math.Abs(p.Length-want) > 1e-9 {
		t.Fatalf("ShortestPath(A, X) length = %v, want %v", p.Length, want)
	}
	if p.Steps[2].Kind != "terminal" || p.Steps[3].Kind != "airport" {
		t.Fatalf("ShortestPath(A, X) steps = %+v, want terminal then airport after C", p.Steps)
	}
}

func TestShortestPathErrors(t *testing.T) {
	s := newPathState(t)

	if _, err := s.ShortestPath("A", "Z"); !errors.Is(err, ErrNoPathExists) {
		t.Fatalf("ShortestPath(A, Z) error = %v, want ErrNoPathExists", err)
	}
	if _, err := s.ShortestPath("nope", "A"); !errors.Is(err, ErrStartDoesNotExist) {
		t.Fatalf("ShortestPath(nope, A) error = %v, want ErrStartDoesNotExist", err)
	}
	if _, err := s.ShortestPath("A", "nope"); !errors.Is(err, ErrEndDoesNotExist) {
		t.Fatalf("ShortestPath(A, nope) error = %v, want ErrEndDoesNotExist", err)
	}
	p, err := s.ShortestPath("A", "A")
	if err != nil {
		t.Fatalf("ShortestPath(A, A) error = %v", err)
	}
	if len(p.Steps) != 1 || p.Length != 0 {
		t.Fatalf("ShortestPath(A, A) = %+v, want a single step of length 0", p)
	}
}
