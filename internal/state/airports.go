package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/signalsfoundry/metromap/core"
	"github.com/signalsfoundry/metromap/internal/logging"
	"github.com/signalsfoundry/metromap/model"
)

// MapAirport places an airport together with its first terminal and the
// road from the terminal's city. Either everything is mapped or nothing
// is. The terminal inherits the airport's metropole and name.
func (s *MapState) MapAirport(ctx context.Context, airport *model.Airport, terminal *model.Terminal) error {
	if airport == nil || terminal == nil {
		return errors.New("airport and terminal are required")
	}
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	term := *terminal
	term.Remote = airport.Remote
	term.Airport = airport.Name

	if s.dict.GetAirport(airport.Name) != nil {
		return withRole(RoleAirport, fmt.Errorf("%w: airport %q", ErrDuplicateName, airport.Name))
	}
	if occupant := s.dict.Occupant(airport.Location()); occupant != "" {
		return withRole(RoleAirport, fmt.Errorf("%w: %s %s holds %s", ErrDuplicateCoordinate, airport.Local, airport.Remote, occupant))
	}
	if !s.cfg.RemoteBounds().Contains(remotePoint(airport.Remote)) || !s.cfg.LocalBounds().Contains(airportSite(airport).Location) {
		return withRole(RoleAirport, fmt.Errorf("%w: airport %q at %s %s", ErrOutOfBounds, airport.Name, airport.Local, airport.Remote))
	}
	if s.dict.GetTerminal(term.Name) != nil {
		return withRole(RoleTerminal, fmt.Errorf("%w: terminal %q", ErrDuplicateName, term.Name))
	}
	if occupant := s.dict.Occupant(term.Location()); occupant != "" || term.Local == airport.Local {
		if occupant == "" {
			occupant = "airport " + airport.Name
		}
		return withRole(RoleTerminal, fmt.Errorf("%w: %s %s holds %s", ErrDuplicateCoordinate, term.Local, term.Remote, occupant))
	}
	if !s.cfg.LocalBounds().Contains(terminalSite(&term).Location) {
		return withRole(RoleTerminal, fmt.Errorf("%w: terminal %q at %s", ErrAddOutOfBounds, term.Name, term.Local))
	}
	city, tree, err := s.terminalCityLocked(&term)
	if err != nil {
		return err
	}

	err = s.atomicallyLocked(tree, func() error {
		if err := tree.InsertPoint(airportSite(airport)); err != nil {
			return withRole(RoleAirport, err)
		}
		if err := s.linkTerminalLocked(tree, city, &term); err != nil {
			return err
		}
		if err := s.dict.AddAirport(airport); err != nil {
			return withRole(RoleAirport, err)
		}
		if err := s.dict.AddTerminal(&term); err != nil {
			_, _ = s.dict.DeleteAirport(airport.Name)
			return withRole(RoleTerminal, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug(ctx, "airport mapped",
		logging.String("entity_type", "airport"),
		logging.String("entity_id", airport.Name),
		logging.String("operation", "map"),
		logging.String("terminal", term.Name),
		logging.String("terminal_city", term.City),
	)
	s.updateMetricsLocked()
	return nil
}

// MapTerminal adds a terminal to a mapped airport and joins it by road to
// the city it serves.
func (s *MapState) MapTerminal(ctx context.Context, terminal *model.Terminal) error {
	if terminal == nil {
		return errors.New("terminal is nil")
	}
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dict.GetTerminal(terminal.Name) != nil {
		return withRole(RoleTerminal, fmt.Errorf("%w: terminal %q", ErrDuplicateName, terminal.Name))
	}
	if occupant := s.dict.Occupant(terminal.Location()); occupant != "" {
		return withRole(RoleTerminal, fmt.Errorf("%w: %s %s holds %s", ErrDuplicateCoordinate, terminal.Local, terminal.Remote, occupant))
	}
	if !s.cfg.RemoteBounds().Contains(remotePoint(terminal.Remote)) || !s.cfg.LocalBounds().Contains(terminalSite(terminal).Location) {
		return withRole(RoleTerminal, fmt.Errorf("%w: terminal %q at %s %s", ErrOutOfBounds, terminal.Name, terminal.Local, terminal.Remote))
	}
	airport := s.dict.GetAirport(terminal.Airport)
	if airport == nil {
		return fmt.Errorf("%w: %q", ErrAirportDoesNotExist, terminal.Airport)
	}
	if airport.Remote != terminal.Remote {
		return withRole(RoleAirport, fmt.Errorf("%w: airport %q in %s, terminal %q in %s",
			ErrNotSameMetropole, airport.Name, airport.Remote, terminal.Name, terminal.Remote))
	}
	city, tree, err := s.terminalCityLocked(terminal)
	if err != nil {
		return err
	}

	err = s.atomicallyLocked(tree, func() error {
		if err := s.linkTerminalLocked(tree, city, terminal); err != nil {
			return err
		}
		if err := s.dict.AddTerminal(terminal); err != nil {
			return withRole(RoleTerminal, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Debug(ctx, "terminal mapped",
		logging.String("entity_type", "terminal"),
		logging.String("entity_id", terminal.Name),
		logging.String("operation", "map"),
		logging.String("airport", terminal.Airport),
		logging.String("terminal_city", terminal.City),
	)
	s.updateMetricsLocked()
	return nil
}

// UnmapAirport removes an airport and all of its terminals. It returns
// the removed terminals.
func (s *MapState) UnmapAirport(ctx context.Context, name string) ([]*model.Terminal, error) {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	airport := s.dict.GetAirport(name)
	if airport == nil {
		return nil, fmt.Errorf("%w: %q", ErrAirportDoesNotExist, name)
	}
	tree, ok := s.registry.Lookup(remotePoint(airport.Remote))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAirportDoesNotExist, name)
	}

	terminals := s.dict.TerminalsOf(name)
	for _, t := range terminals {
		s.unlinkTerminalLocked(tree, t)
	}
	tree.DeletePoint(airportSite(airport).Key())
	if _, err := s.dict.DeleteAirport(name); err != nil {
		return nil, err
	}

	log.Debug(ctx, "airport unmapped",
		logging.String("entity_type", "airport"),
		logging.String("entity_id", name),
		logging.String("operation", "unmap"),
		logging.Int("terminals", len(terminals)),
	)
	s.updateMetricsLocked()
	return terminals, nil
}

// UnmapTerminal removes a terminal and its road. When it was the last
// terminal of its airport the airport is removed too and returned.
func (s *MapState) UnmapTerminal(ctx context.Context, name string) (*model.Airport, error) {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	terminal := s.dict.GetTerminal(name)
	if terminal == nil {
		return nil, fmt.Errorf("%w: %q", ErrTerminalDoesNotExist, name)
	}
	tree, ok := s.registry.Lookup(remotePoint(terminal.Remote))
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTerminalDoesNotExist, name)
	}
	s.unlinkTerminalLocked(tree, terminal)

	var removed *model.Airport
	if len(s.dict.TerminalsOf(terminal.Airport)) == 0 {
		if airport := s.dict.GetAirport(terminal.Airport); airport != nil {
			tree.DeletePoint(airportSite(airport).Key())
			_, _ = s.dict.DeleteAirport(airport.Name)
			removed = airport
		}
	}

	log.Debug(ctx, "terminal unmapped",
		logging.String("entity_type", "terminal"),
		logging.String("entity_id", name),
		logging.String("operation", "unmap"),
		logging.Bool("airport_removed", removed != nil),
	)
	s.updateMetricsLocked()
	return removed, nil
}

// terminalCityLocked resolves the mapped city a terminal connects to.
func (s *MapState) terminalCityLocked(t *model.Terminal) (*model.City, *core.PMQuadtree, error) {
	city := s.dict.GetCity(t.City)
	if city == nil {
		return nil, nil, withRole(RoleCity, fmt.Errorf("%w: %q", ErrCityDoesNotExist, t.City))
	}
	if city.Remote != t.Remote {
		return nil, nil, withRole(RoleCity, fmt.Errorf("%w: city %q in %s, terminal %q in %s",
			ErrNotSameMetropole, city.Name, city.Remote, t.Name, t.Remote))
	}
	tree, ok := s.registry.Lookup(remotePoint(city.Remote))
	if !ok || !tree.ContainsPoint(citySite(city).Key()) {
		return nil, nil, withRole(RoleCity, fmt.Errorf("%w: %q", ErrCityNotMapped, city.Name))
	}
	return city, tree, nil
}

// linkTerminalLocked inserts the terminal point and its road to city.
func (s *MapState) linkTerminalLocked(tree *core.PMQuadtree, city *model.City, t *model.Terminal) error {
	site := terminalSite(t)
	if err := tree.InsertPoint(site); err != nil {
		return withRole(RoleTerminal, err)
	}
	if err := tree.InsertSegment(citySite(city), site); err != nil {
		if errors.Is(err, core.ErrRoadIntersecting) {
			return withRole(RoleRoad, err)
		}
		return withRole(RoleTerminal, err)
	}
	return nil
}

func (s *MapState) unlinkTerminalLocked(tree *core.PMQuadtree, t *model.Terminal) {
	site := terminalSite(t)
	for _, seg := range tree.SegmentsAt(site.Key()) {
		tree.DeleteSegment(seg.Start, seg.End)
	}
	tree.DeletePoint(site.Key())
	_, _ = s.dict.DeleteTerminal(t.Name)
}
