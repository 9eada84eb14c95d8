package batch

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/metromap/internal/state"
	"github.com/signalsfoundry/metromap/model"
)

// handler runs one command and returns its output payload, or nil when
// the command has none.
type handler func(ctx context.Context, s *state.MapState, cmd Command) (any, error)

var handlers = map[string]handler{
	"createCity":          createCity,
	"deleteCity":          deleteCity,
	"clearAll":            clearAll,
	"listCities":          listCities,
	"mapCity":             mapCity,
	"unmapCity":           unmapCity,
	"mapRoad":             mapRoad,
	"unmapRoad":           unmapRoad,
	"mapAirport":          mapAirport,
	"mapTerminal":         mapTerminal,
	"unmapAirport":        unmapAirport,
	"unmapTerminal":       unmapTerminal,
	"globalRangeCities":   globalRangeCities,
	"rangeCities":         rangeCities,
	"rangeRoads":          rangeRoads,
	"nearestCity":         nearestCity,
	"nearestIsolatedCity": nearestIsolatedCity,
	"nearestRoad":         nearestRoad,
	"nearestCityToRoad":   nearestCityToRoad,
	"shortestPath":        shortestPath,
	"printPMQuadtree":     printPMQuadtree,
	"printPRQuadtree":     printPRQuadtree,
	"printAvlTree":        printAvlTree,
}

func createCity(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	local, err := cmd.Coordinates("localX", "localY")
	if err != nil {
		return nil, err
	}
	remote, err := cmd.Coordinates("remoteX", "remoteY")
	if err != nil {
		return nil, err
	}
	radius, err := cmd.OptionalInt("radius", 0)
	if err != nil {
		return nil, err
	}
	color, err := cmd.OptionalString("color", "")
	if err != nil {
		return nil, err
	}
	return nil, s.CreateCity(ctx, &model.City{Name: name, Local: local, Remote: remote, Radius: radius, Color: color})
}

func deleteCity(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	del, err := s.DeleteCity(ctx, name)
	if err != nil {
		return nil, err
	}
	if out := deletionOut(del); out != nil {
		return out, nil
	}
	return nil, nil
}

func clearAll(ctx context.Context, s *state.MapState, _ Command) (any, error) {
	s.ClearAll(ctx)
	return nil, nil
}

func listCities(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	sortBy, err := cmd.OptionalString("sortBy", string(state.SortByName))
	if err != nil {
		return nil, err
	}
	switch state.SortBy(sortBy) {
	case state.SortByName, state.SortByCoordinate:
	default:
		return nil, fmt.Errorf("%w: sortBy %q", ErrMalformedCommand, sortBy)
	}
	cities, err := s.ListCities(state.SortBy(sortBy))
	if err != nil {
		return nil, err
	}
	return map[string]any{"cityList": citiesOut(cities)}, nil
}

func mapCity(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	return nil, s.MapCity(ctx, name)
}

func unmapCity(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	return nil, s.UnmapCity(ctx, name)
}

func roadEnds(cmd Command) (string, string, error) {
	start, err := cmd.String("start")
	if err != nil {
		return "", "", err
	}
	end, err := cmd.String("end")
	if err != nil {
		return "", "", err
	}
	return start, end, nil
}

func mapRoad(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	start, end, err := roadEnds(cmd)
	if err != nil {
		return nil, err
	}
	road, err := s.MapRoad(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return map[string]any{"roadCreated": roadOut(road)}, nil
}

func unmapRoad(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	start, end, err := roadEnds(cmd)
	if err != nil {
		return nil, err
	}
	road, err := s.UnmapRoad(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return map[string]any{"roadDeleted": roadOut(road)}, nil
}

func mapAirport(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	local, err := cmd.Coordinates("localX", "localY")
	if err != nil {
		return nil, err
	}
	remote, err := cmd.Coordinates("remoteX", "remoteY")
	if err != nil {
		return nil, err
	}
	terminalName, err := cmd.String("terminalName")
	if err != nil {
		return nil, err
	}
	terminalLocal, err := cmd.Coordinates("terminalX", "terminalY")
	if err != nil {
		return nil, err
	}
	city, err := cmd.String("terminalCity")
	if err != nil {
		return nil, err
	}
	airport := &model.Airport{Name: name, Local: local, Remote: remote}
	terminal := &model.Terminal{Name: terminalName, Local: terminalLocal, City: city}
	return nil, s.MapAirport(ctx, airport, terminal)
}

func mapTerminal(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	local, err := cmd.Coordinates("localX", "localY")
	if err != nil {
		return nil, err
	}
	remote, err := cmd.Coordinates("remoteX", "remoteY")
	if err != nil {
		return nil, err
	}
	city, err := cmd.String("cityName")
	if err != nil {
		return nil, err
	}
	airport, err := cmd.String("airportName")
	if err != nil {
		return nil, err
	}
	return nil, s.MapTerminal(ctx, &model.Terminal{Name: name, Local: local, Remote: remote, Airport: airport, City: city})
}

func unmapAirport(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	terminals, err := s.UnmapAirport(ctx, name)
	if err != nil {
		return nil, err
	}
	return map[string]any{"terminalUnmapped": terminalsOut(terminals)}, nil
}

func unmapTerminal(ctx context.Context, s *state.MapState, cmd Command) (any, error) {
	name, err := cmd.String("name")
	if err != nil {
		return nil, err
	}
	airport, err := s.UnmapTerminal(ctx, name)
	if err != nil {
		return nil, err
	}
	if airport == nil {
		return nil, nil
	}
	return map[string]any{"airportUnmapped": airportOut(airport)}, nil
}

func globalRangeCities(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	remote, err := cmd.Coordinates("remoteX", "remoteY")
	if err != nil {
		return nil, err
	}
	radius, err := cmd.Int("radius")
	if err != nil {
		return nil, err
	}
	cities, err := s.GlobalRangeCities(remote, radius)
	if err != nil {
		return nil, err
	}
	return map[string]any{"cityList": citiesOut(cities)}, nil
}

// circleQuery reads the local center, metropole and radius shared by the
// range commands.
func circleQuery(cmd Command) (metropole, local model.Coordinates, radius int, err error) {
	if local, err = cmd.Coordinates("localX", "localY"); err != nil {
		return
	}
	if metropole, err = cmd.Coordinates("remoteX", "remoteY"); err != nil {
		return
	}
	radius, err = cmd.Int("radius")
	return
}

func rangeCities(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	metropole, local, radius, err := circleQuery(cmd)
	if err != nil {
		return nil, err
	}
	cities, err := s.RangeCities(metropole, local, radius)
	if err != nil {
		return nil, err
	}
	return map[string]any{"cityList": citiesOut(cities)}, nil
}

func rangeRoads(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	metropole, local, radius, err := circleQuery(cmd)
	if err != nil {
		return nil, err
	}
	roads, err := s.RangeRoads(metropole, local, radius)
	if err != nil {
		return nil, err
	}
	return map[string]any{"roadList": roadsOut(roads)}, nil
}

func pointQuery(cmd Command) (metropole, local model.Coordinates, err error) {
	if local, err = cmd.Coordinates("localX", "localY"); err != nil {
		return
	}
	metropole, err = cmd.Coordinates("remoteX", "remoteY")
	return
}

func nearestCity(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	metropole, local, err := pointQuery(cmd)
	if err != nil {
		return nil, err
	}
	city, err := s.NearestCity(metropole, local)
	if err != nil {
		return nil, err
	}
	return map[string]any{"city": cityOut(city)}, nil
}

func nearestIsolatedCity(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	metropole, local, err := pointQuery(cmd)
	if err != nil {
		return nil, err
	}
	city, err := s.NearestIsolatedCity(metropole, local)
	if err != nil {
		return nil, err
	}
	return map[string]any{"isolatedCity": cityOut(city)}, nil
}

func nearestRoad(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	metropole, local, err := pointQuery(cmd)
	if err != nil {
		return nil, err
	}
	road, err := s.NearestRoad(metropole, local)
	if err != nil {
		return nil, err
	}
	return map[string]any{"road": roadOut(road)}, nil
}

func nearestCityToRoad(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	start, end, err := roadEnds(cmd)
	if err != nil {
		return nil, err
	}
	city, err := s.NearestCityToRoad(start, end)
	if err != nil {
		return nil, err
	}
	return map[string]any{"city": cityOut(city)}, nil
}

func shortestPath(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	start, end, err := roadEnds(cmd)
	if err != nil {
		return nil, err
	}
	p, err := s.ShortestPath(start, end)
	if err != nil {
		return nil, err
	}
	return pathOut(p), nil
}

func printPMQuadtree(_ context.Context, s *state.MapState, cmd Command) (any, error) {
	metropole, err := cmd.Coordinates("remoteX", "remoteY")
	if err != nil {
		return nil, err
	}
	view, err := s.PrintPMQuadtree(metropole)
	if err != nil {
		return nil, err
	}
	return map[string]any{"quadtree": view}, nil
}

func printPRQuadtree(_ context.Context, s *state.MapState, _ Command) (any, error) {
	view, err := s.PrintPRQuadtree()
	if err != nil {
		return nil, err
	}
	return map[string]any{"quadtree": view}, nil
}

func printAvlTree(_ context.Context, s *state.MapState, _ Command) (any, error) {
	tree, err := s.PrintNameTree()
	if err != nil {
		return nil, err
	}
	return map[string]any{"avlTree": nameTreeOut(tree)}, nil
}
