package state

import (
	"context"
	"fmt"

	"github.com/signalsfoundry/metromap/internal/logging"
	"github.com/signalsfoundry/metromap/model"
)

// MapRoad joins two cities of one metropole with a road. Endpoints that
// are not mapped yet are mapped along with it; if the road is rejected
// they are not.
func (s *MapState) MapRoad(ctx context.Context, start, end string) (model.Road, error) {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to, err := s.roadEndsLocked(start, end)
	if err != nil {
		return model.Road{}, err
	}
	if from.Remote != to.Remote {
		return model.Road{}, withRole(RoleRoad, fmt.Errorf("%w: %s in %s, %s in %s",
			ErrNotSameMetropole, start, from.Remote, end, to.Remote))
	}
	tree, err := s.registry.GetOrCreate(remotePoint(from.Remote))
	if err != nil {
		return model.Road{}, err
	}

	a, b := citySite(from), citySite(to)
	if tree.ContainsSegment(a, b) {
		return model.Road{}, fmt.Errorf("%w: %s-%s", ErrRoadAlreadyExists, start, end)
	}
	err = s.indexCitiesLocked(tree, []*model.City{from, to}, func() error {
		return tree.InsertSegment(a, b)
	})
	if err != nil {
		return model.Road{}, withRole(RoleRoad, err)
	}

	road := model.Road{Start: start, End: end, Length: a.Location.DistanceTo(b.Location)}
	log.Debug(ctx, "road mapped",
		logging.String("entity_type", "road"),
		logging.String("entity_id", start+"-"+end),
		logging.String("operation", "map"),
		logging.Float("length", road.Length),
	)
	s.updateMetricsLocked()
	return road, nil
}

// UnmapRoad removes the road between two cities. The cities stay mapped.
func (s *MapState) UnmapRoad(ctx context.Context, start, end string) (model.Road, error) {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	from, to, err := s.roadEndsLocked(start, end)
	if err != nil {
		return model.Road{}, err
	}
	a, b := citySite(from), citySite(to)
	tree, ok := s.registry.Lookup(remotePoint(from.Remote))
	if !ok || from.Remote != to.Remote || !tree.DeleteSegment(a, b) {
		return model.Road{}, fmt.Errorf("%w: %s-%s", ErrRoadNotMapped, start, end)
	}

	road := model.Road{Start: start, End: end, Length: a.Location.DistanceTo(b.Location)}
	log.Debug(ctx, "road unmapped",
		logging.String("entity_type", "road"),
		logging.String("entity_id", start+"-"+end),
		logging.String("operation", "unmap"),
	)
	s.updateMetricsLocked()
	return road, nil
}

func (s *MapState) roadEndsLocked(start, end string) (*model.City, *model.City, error) {
	from := s.dict.GetCity(start)
	if from == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrStartDoesNotExist, start)
	}
	to := s.dict.GetCity(end)
	if to == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrEndDoesNotExist, end)
	}
	if start == end {
		return nil, nil, fmt.Errorf("%w: %q", ErrStartEqualsEnd, start)
	}
	return from, to, nil
}
