package state

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/metromap/core"
	"github.com/signalsfoundry/metromap/kb"
	"github.com/signalsfoundry/metromap/model"
)

// GlobalRangeCities returns the mapped cities whose metropole lies within
// radius of remote, ordered by name.
func (s *MapState) GlobalRangeCities(remote model.Coordinates, radius int) ([]*model.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sites := s.global.InRange(core.Circle{Center: remotePoint(remote), Radius: float64(radius)}, core.MatchSites(core.SiteCity))
	cities := s.citiesLocked(sites)
	if len(cities) == 0 {
		return nil, fmt.Errorf("%w: %s radius %d", ErrNoCitiesExistInRange, remote, radius)
	}
	return cities, nil
}

// RangeCities returns the mapped cities of one metropole within radius
// of local, ordered by name.
func (s *MapState) RangeCities(metropole, local model.Coordinates, radius int) ([]*model.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok, err := s.metropoleLocked(metropole)
	if err != nil {
		return nil, err
	}
	var sites []core.Site
	if ok {
		for _, g := range tree.InRange(circleAt(local, radius), core.MatchSites(core.SiteCity)) {
			sites = append(sites, g.(core.PointGeometry).Site)
		}
	}
	cities := s.citiesLocked(sites)
	if len(cities) == 0 {
		return nil, fmt.Errorf("%w: %s %s radius %d", ErrNoCitiesExistInRange, metropole, local, radius)
	}
	return cities, nil
}

// RangeRoads returns the roads of one metropole passing within radius of
// local, ordered by endpoint names.
func (s *MapState) RangeRoads(metropole, local model.Coordinates, radius int) ([]model.Road, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok, err := s.metropoleLocked(metropole)
	if err != nil {
		return nil, err
	}
	var roads []model.Road
	if ok {
		for _, g := range tree.InRange(circleAt(local, radius), core.MatchSegments()) {
			roads = append(roads, roadOf(g.(core.SegmentGeometry)))
		}
	}
	if len(roads) == 0 {
		return nil, fmt.Errorf("%w: %s %s radius %d", ErrNoRoadsExistInRange, metropole, local, radius)
	}
	return roads, nil
}

// NearestCity returns the closest city of a metropole that ends at least
// one road.
func (s *MapState) NearestCity(metropole, local model.Coordinates) (*model.City, error) {
	return s.nearestCity(metropole, local, (*core.PMQuadtree).MatchConnected)
}

// NearestIsolatedCity returns the closest city of a metropole that ends
// no road.
func (s *MapState) NearestIsolatedCity(metropole, local model.Coordinates) (*model.City, error) {
	return s.nearestCity(metropole, local, (*core.PMQuadtree).MatchIsolated)
}

func (s *MapState) nearestCity(metropole, local model.Coordinates, match func(*core.PMQuadtree, core.SiteKind) core.Match) (*model.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok, err := s.metropoleLocked(metropole)
	if err != nil {
		return nil, err
	}
	if ok {
		if g, _, found := tree.Nearest(core.Pt(local.X, local.Y), match(tree, core.SiteCity)); found {
			if city := s.dict.GetCity(g.(core.PointGeometry).Site.Name); city != nil {
				return city, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: near %s in %s", ErrCityNotFound, local, metropole)
}

// NearestRoad returns the road of a metropole closest to local.
func (s *MapState) NearestRoad(metropole, local model.Coordinates) (model.Road, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok, err := s.metropoleLocked(metropole)
	if err != nil {
		return model.Road{}, err
	}
	if ok {
		if g, _, found := tree.Nearest(core.Pt(local.X, local.Y), core.MatchSegments()); found {
			return roadOf(g.(core.SegmentGeometry)), nil
		}
	}
	return model.Road{}, fmt.Errorf("%w: near %s in %s", ErrRoadNotFound, local, metropole)
}

// NearestCityToRoad returns the mapped city closest to the road between
// start and end, other than its endpoints. Ties go to the smaller name.
func (s *MapState) NearestCityToRoad(start, end string) (*model.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to, err := s.roadEndsLocked(start, end)
	if err != nil {
		return nil, err
	}
	a, b := citySite(from), citySite(to)
	tree, ok := s.registry.Lookup(remotePoint(from.Remote))
	if !ok || from.Remote != to.Remote || !tree.ContainsSegment(a, b) {
		return nil, fmt.Errorf("%w: %s-%s", ErrRoadNotMapped, start, end)
	}

	road := core.NewSegmentGeometry(a, b)
	var (
		best     core.Site
		bestDist = math.Inf(1)
	)
	for _, site := range tree.Points() {
		if site.Kind != core.SiteCity || road.HasEndpoint(site) {
			continue
		}
		d := road.DistanceTo(site.Location)
		if d < bestDist || (d == bestDist && site.Name < best.Name) {
			best, bestDist = site, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return nil, fmt.Errorf("%w: road %s-%s in %s", ErrNoOtherCitiesMapped, start, end, from.Remote)
	}
	return s.dict.GetCity(best.Name), nil
}

// PrintNameTree returns the name-ordered city index of the dictionary.
func (s *MapState) PrintNameTree() (kb.NameTree, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree := s.dict.CityNameTree()
	if tree.Cardinality == 0 {
		return kb.NameTree{}, ErrDictionaryIsEmpty
	}
	return tree, nil
}

// PrintPMQuadtree describes the PM quadtree of one metropole.
func (s *MapState) PrintPMQuadtree(metropole model.Coordinates) (core.NodeView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tree, ok, err := s.metropoleLocked(metropole)
	if err != nil {
		return core.NodeView{}, err
	}
	if !ok || tree.IsEmpty() {
		return core.NodeView{}, fmt.Errorf("%w: %s", ErrMetropoleIsEmpty, metropole)
	}
	return core.Describe(tree.Root()), nil
}

// PrintPRQuadtree describes the global index.
func (s *MapState) PrintPRQuadtree() (core.NodeView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.global.Len() == 0 {
		return core.NodeView{}, fmt.Errorf("%w: no mapped cities", ErrMetropoleIsEmpty)
	}
	return core.Describe(s.global.Root()), nil
}

func circleAt(c model.Coordinates, radius int) core.Circle {
	return core.Circle{Center: core.Pt(c.X, c.Y), Radius: float64(radius)}
}

// citiesLocked resolves city sites to dictionary entries, keeping order.
func (s *MapState) citiesLocked(sites []core.Site) []*model.City {
	cities := make([]*model.City, 0, len(sites))
	for _, site := range sites {
		if city := s.dict.GetCity(site.Name); city != nil {
			cities = append(cities, city)
		}
	}
	return cities
}
