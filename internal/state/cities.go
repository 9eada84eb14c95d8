package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/metromap/core"
	"github.com/signalsfoundry/metromap/internal/logging"
	"github.com/signalsfoundry/metromap/kb"
	"github.com/signalsfoundry/metromap/model"
)

// SortBy selects the order of ListCities.
type SortBy string

const (
	SortByName       SortBy = "name"
	SortByCoordinate SortBy = "coordinate"
)

// CityDeletion reports everything DeleteCity removed.
type CityDeletion struct {
	City *model.City
	// Unmapped is set when the city was mapped before deletion.
	Unmapped  bool
	Roads     []model.Road
	Terminals []*model.Terminal
	Airports  []*model.Airport
}

// CreateCity adds an unmapped city to the dictionary and makes sure its
// metropole exists.
func (s *MapState) CreateCity(ctx context.Context, city *model.City) error {
	if city == nil {
		return errors.New("city is nil")
	}
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	if occupant := s.dict.Occupant(city.Location()); occupant != "" {
		return fmt.Errorf("%w: %s %s holds %s", ErrDuplicateCoordinate, city.Local, city.Remote, occupant)
	}
	if s.dict.GetCity(city.Name) != nil {
		return fmt.Errorf("%w: city %q", ErrDuplicateName, city.Name)
	}
	remote := remotePoint(city.Remote)
	if !s.cfg.RemoteBounds().Contains(remote) {
		return fmt.Errorf("%w: city %q metropole %s", ErrOutOfBounds, city.Name, city.Remote)
	}

	if err := s.dict.AddCity(city); err != nil {
		switch {
		case errors.Is(err, kb.ErrLocationTaken):
			return fmt.Errorf("%w: %v", ErrDuplicateCoordinate, err)
		case errors.Is(err, kb.ErrCityExists):
			return fmt.Errorf("%w: %v", ErrDuplicateName, err)
		}
		return err
	}
	if _, err := s.registry.GetOrCreate(remote); err != nil {
		_, _ = s.dict.DeleteCity(city.Name)
		return err
	}

	log.Debug(ctx, "city created",
		logging.String("entity_type", "city"),
		logging.String("entity_id", city.Name),
		logging.String("operation", "create"),
	)
	s.updateMetricsLocked()
	return nil
}

// DeleteCity removes a city from the dictionary and every index. Its
// roads, the terminals serving it and any airport left without
// terminals go with it.
func (s *MapState) DeleteCity(ctx context.Context, name string) (*CityDeletion, error) {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	city := s.dict.GetCity(name)
	if city == nil {
		return nil, fmt.Errorf("%w: %q", ErrCityDoesNotExist, name)
	}

	del := &CityDeletion{City: city}
	site := citySite(city)
	if tree, ok := s.registry.Lookup(remotePoint(city.Remote)); ok && tree.ContainsPoint(site.Key()) {
		del.Unmapped = true
		for _, seg := range tree.SegmentsAt(site.Key()) {
			tree.DeleteSegment(seg.Start, seg.End)
			del.Roads = append(del.Roads, roadOf(seg))
		}
		for _, t := range s.dict.TerminalsServing(name) {
			tree.DeletePoint(terminalSite(t).Key())
			_, _ = s.dict.DeleteTerminal(t.Name)
			del.Terminals = append(del.Terminals, t)

			if len(s.dict.TerminalsOf(t.Airport)) > 0 {
				continue
			}
			if a := s.dict.GetAirport(t.Airport); a != nil {
				tree.DeletePoint(airportSite(a).Key())
				_, _ = s.dict.DeleteAirport(a.Name)
				del.Airports = append(del.Airports, a)
			}
		}
		tree.DeletePoint(site.Key())
		s.global.Remove(cityRemoteSite(city).Key())
	}
	if _, err := s.dict.DeleteCity(name); err != nil {
		return nil, err
	}

	log.Debug(ctx, "city deleted",
		logging.String("entity_type", "city"),
		logging.String("entity_id", name),
		logging.String("operation", "delete"),
		logging.Bool("unmapped", del.Unmapped),
		logging.Int("roads", len(del.Roads)),
		logging.Int("terminals", len(del.Terminals)),
		logging.Int("airports", len(del.Airports)),
	)
	s.updateMetricsLocked()
	return del, nil
}

// ListCities returns every city in the dictionary, mapped or not.
func (s *MapState) ListCities(sortBy SortBy) ([]*model.City, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cities []*model.City
	switch sortBy {
	case SortByCoordinate:
		cities = s.dict.ListCitiesByCoordinate()
	default:
		cities = s.dict.ListCitiesByName()
	}
	if len(cities) == 0 {
		return nil, ErrNoCitiesToList
	}
	return cities, nil
}

// MapCity places a city in its metropole and in the global index.
func (s *MapState) MapCity(ctx context.Context, name string) error {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	city := s.dict.GetCity(name)
	if city == nil {
		return fmt.Errorf("%w: %q", ErrCityDoesNotExist, name)
	}
	tree, err := s.registry.GetOrCreate(remotePoint(city.Remote))
	if err != nil {
		return err
	}
	if tree.ContainsPoint(citySite(city).Key()) {
		return fmt.Errorf("%w: %q", ErrCityAlreadyMapped, name)
	}
	if err := s.indexCitiesLocked(tree, []*model.City{city}, nil); err != nil {
		return err
	}

	log.Debug(ctx, "city mapped",
		logging.String("entity_type", "city"),
		logging.String("entity_id", name),
		logging.String("operation", "map"),
	)
	s.updateMetricsLocked()
	return nil
}

// UnmapCity takes an isolated city out of its metropole and the global
// index. It stays in the dictionary.
func (s *MapState) UnmapCity(ctx context.Context, name string) error {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	city := s.dict.GetCity(name)
	if city == nil {
		return fmt.Errorf("%w: %q", ErrCityDoesNotExist, name)
	}
	site := citySite(city)
	tree, ok := s.registry.Lookup(remotePoint(city.Remote))
	if !ok || !tree.ContainsPoint(site.Key()) {
		return fmt.Errorf("%w: %q", ErrCityNotMapped, name)
	}
	if !tree.IsIsolated(site.Key()) {
		return fmt.Errorf("%w: %q", ErrCityHasRoads, name)
	}

	tree.DeletePoint(site.Key())
	s.global.Remove(cityRemoteSite(city).Key())

	log.Debug(ctx, "city unmapped",
		logging.String("entity_type", "city"),
		logging.String("entity_id", name),
		logging.String("operation", "unmap"),
	)
	s.updateMetricsLocked()
	return nil
}

// indexCitiesLocked maps every city in cities that is not mapped yet and
// then runs then. On failure the metropole and the global index are left
// as they were.
func (s *MapState) indexCitiesLocked(tree *core.PMQuadtree, cities []*model.City, then func() error) error {
	var added []string
	err := s.atomicallyLocked(tree, func() error {
		for _, c := range cities {
			site := citySite(c)
			if tree.ContainsPoint(site.Key()) {
				continue
			}
			if err := tree.InsertPoint(site); err != nil {
				return err
			}
			remote := cityRemoteSite(c)
			if err := s.global.Insert(remote); err != nil {
				return err
			}
			added = append(added, remote.Key())
		}
		if then != nil {
			return then()
		}
		return nil
	})
	if err != nil {
		for _, key := range added {
			s.global.Remove(key)
		}
	}
	return err
}
