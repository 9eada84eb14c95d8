package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/metromap/core"
	"github.com/signalsfoundry/metromap/internal/logging"
	"github.com/signalsfoundry/metromap/kb"
	"github.com/signalsfoundry/metromap/model"
)

// Re-export index errors so callers can depend on state.* instead of
// core.* directly.
var (
	ErrOutOfBounds         = core.ErrOutOfBounds
	ErrDuplicateCoordinate = core.ErrDuplicateCoordinate
	ErrDuplicateName       = core.ErrDuplicateName
	ErrStartDoesNotExist   = core.ErrStartDoesNotExist
	ErrEndDoesNotExist     = core.ErrEndDoesNotExist
	ErrStartEqualsEnd      = core.ErrStartEqualsEnd
	ErrRoadAlreadyExists   = core.ErrRoadAlreadyExists
	ErrRoadIntersecting    = core.ErrRoadIntersecting
	ErrPMRuleViolation     = core.ErrPMRuleViolation
)

// Command errors.
var (
	// ErrCityDoesNotExist indicates the named city is not in the dictionary.
	ErrCityDoesNotExist = errors.New("city does not exist")
	// ErrCityAlreadyMapped indicates the city is already in its metropole.
	ErrCityAlreadyMapped = errors.New("city already mapped")
	// ErrCityNotMapped indicates the city is not in its metropole.
	ErrCityNotMapped = errors.New("city not mapped")
	// ErrCityHasRoads indicates a mapped city still ends roads.
	ErrCityHasRoads = errors.New("city has mapped roads")
	// ErrNotSameMetropole indicates entities that must share a metropole do not.
	ErrNotSameMetropole = errors.New("not in the same metropole")
	// ErrAirportDoesNotExist indicates the named airport is not mapped.
	ErrAirportDoesNotExist = errors.New("airport does not exist")
	// ErrTerminalDoesNotExist indicates the named terminal is not mapped.
	ErrTerminalDoesNotExist = errors.New("terminal does not exist")
	// ErrAddOutOfBounds indicates a terminal placed outside its metropole.
	ErrAddOutOfBounds = errors.New("terminal out of bounds")
	// ErrRoadNotMapped indicates no road joins the two cities.
	ErrRoadNotMapped = errors.New("road not mapped")
	// ErrMetropoleOutOfBounds indicates a metropole outside the remote plane.
	ErrMetropoleOutOfBounds = errors.New("metropole out of bounds")
	// ErrMetropoleIsEmpty indicates there is nothing to print.
	ErrMetropoleIsEmpty = errors.New("metropole is empty")
	// ErrNoCitiesToList indicates the dictionary holds no cities.
	ErrNoCitiesToList = errors.New("no cities to list")
	// ErrNoCitiesExistInRange indicates a range query found no city.
	ErrNoCitiesExistInRange = errors.New("no cities exist in range")
	// ErrNoRoadsExistInRange indicates a range query found no road.
	ErrNoRoadsExistInRange = errors.New("no roads exist in range")
	// ErrCityNotFound indicates a nearest query found no city.
	ErrCityNotFound = errors.New("city not found")
	// ErrRoadNotFound indicates a nearest query found no road.
	ErrRoadNotFound = errors.New("road not found")
	// ErrNoPathExists indicates the two cities are not connected.
	ErrNoPathExists = errors.New("no path exists")
	// ErrNoOtherCitiesMapped indicates a road's metropole holds no city
	// besides its endpoints.
	ErrNoOtherCitiesMapped = errors.New("no other cities mapped")
	// ErrDictionaryIsEmpty indicates the dictionary holds no cities.
	ErrDictionaryIsEmpty = errors.New("dictionary is empty")
)

// Role names the entity an error is about when one command touches
// several kinds of entity.
type Role string

const (
	RoleCity     Role = "city"
	RoleAirport  Role = "airport"
	RoleTerminal Role = "terminal"
	RoleRoad     Role = "road"
)

type roleError struct {
	role Role
	err  error
}

func (e *roleError) Error() string { return string(e.role) + ": " + e.err.Error() }
func (e *roleError) Unwrap() error { return e.err }

func withRole(role Role, err error) error {
	if err == nil {
		return nil
	}
	return &roleError{role: role, err: err}
}

// RoleOf returns the entity role attached to err, or "" when none is.
func RoleOf(err error) Role {
	var re *roleError
	if errors.As(err, &re) {
		return re.role
	}
	return ""
}

// MetricsRecorder receives count updates for indexed entities.
type MetricsRecorder interface {
	SetIndexCounts(cities, mappedCities, roads, airports, terminals, metropoles int)
}

// RollbackRecorder is told when a speculative mutation is undone.
type RollbackRecorder interface {
	RecordRollback(reason string)
}

// Counts summarises the size of the map.
type Counts struct {
	Cities       int `json:"cities"`
	MappedCities int `json:"mappedCities"`
	Roads        int `json:"roads"`
	Airports     int `json:"airports"`
	Terminals    int `json:"terminals"`
	Metropoles   int `json:"metropoles"`
}

// MapState coordinates the entity dictionary, the metropole registry and
// the global index. Every command runs under its lock.
type MapState struct {
	// mu is the coarse map-level lock. Take this before touching the KB
	// to keep the MapState -> KB lock ordering.
	mu sync.RWMutex

	cfg core.Config

	// dict holds every created city and every mapped airport and terminal.
	dict *kb.KnowledgeBase

	// registry owns one PM quadtree per metropole.
	registry *core.Registry

	// global indexes mapped cities at their remote coordinates.
	global *core.PRQuadtree

	log       logging.Logger
	metrics   MetricsRecorder
	rollbacks RollbackRecorder
}

// Option customises MapState construction.
type Option func(*MapState)

// WithMetricsRecorder attaches an optional metrics recorder for entity counts.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *MapState) {
		s.metrics = m
	}
}

// WithRollbackRecorder attaches an optional recorder for undone mutations.
func WithRollbackRecorder(r RollbackRecorder) Option {
	return func(s *MapState) {
		s.rollbacks = r
	}
}

// WithKnowledgeBase replaces the dictionary, e.g. to subscribe to it first.
func WithKnowledgeBase(dict *kb.KnowledgeBase) Option {
	return func(s *MapState) {
		if dict != nil {
			s.dict = dict
		}
	}
}

// NewMapState validates cfg and returns an empty map.
func NewMapState(cfg core.Config, log logging.Logger, opts ...Option) (*MapState, error) {
	registry, err := core.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Noop()
	}
	s := &MapState{
		cfg:      cfg,
		dict:     kb.NewKnowledgeBase(),
		registry: registry,
		global:   core.NewPRQuadtree(cfg.RemoteBounds()),
		log:      log,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.updateMetricsLocked()
	return s, nil
}

// Config returns the index configuration.
func (s *MapState) Config() core.Config { return s.cfg }

// Dictionary exposes the entity dictionary.
func (s *MapState) Dictionary() *kb.KnowledgeBase { return s.dict }

// ClearAll drops every entity and metropole.
func (s *MapState) ClearAll(ctx context.Context) {
	log := logging.LoggerFromContext(ctx, s.log)

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := s.countsLocked()
	log.Debug(ctx, "clearing map",
		logging.String("entity_type", "map"),
		logging.String("operation", "clear"),
		logging.Int("cities", counts.Cities),
		logging.Int("roads", counts.Roads),
		logging.Int("airports", counts.Airports),
		logging.Int("terminals", counts.Terminals),
		logging.Int("metropoles", counts.Metropoles),
	)

	s.dict.Clear()
	s.registry.Clear()
	s.global.Clear()
	s.updateMetricsLocked()
}

// Counts returns the current entity counts.
func (s *MapState) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countsLocked()
}

func (s *MapState) countsLocked() Counts {
	cities, airports, terminals := s.dict.Counts()
	roads := 0
	for _, remote := range s.registry.Metropoles() {
		tree, _ := s.registry.Lookup(remote)
		_, segments := tree.Len()
		roads += segments
	}
	return Counts{
		Cities:       cities,
		MappedCities: s.global.Len(),
		Roads:        roads,
		Airports:     airports,
		Terminals:    terminals,
		Metropoles:   s.registry.Len(),
	}
}

func (s *MapState) updateMetricsLocked() {
	if s == nil || s.metrics == nil {
		return
	}
	c := s.countsLocked()
	s.metrics.SetIndexCounts(c.Cities, c.MappedCities, c.Roads, c.Airports, c.Terminals, c.Metropoles)
}

// atomicallyLocked runs fn against tree and records a rollback when fn
// fails after changing the tree. The global index only changes alongside
// the tree, so the root identity is enough to tell.
func (s *MapState) atomicallyLocked(tree *core.PMQuadtree, fn func() error) error {
	before := tree.Root()
	changed := false
	err := tree.Atomically(func() error {
		err := fn()
		changed = tree.Root() != before
		return err
	})
	if err != nil && changed && s.rollbacks != nil {
		s.rollbacks.RecordRollback(rollbackReason(err))
	}
	return err
}

func rollbackReason(err error) string {
	switch {
	case errors.Is(err, core.ErrPMRuleViolation):
		return "pm_rule_violation"
	case errors.Is(err, core.ErrRoadIntersecting):
		return "road_intersecting"
	case errors.Is(err, core.ErrOutOfBounds):
		return "out_of_bounds"
	default:
		return "other"
	}
}

//
// ---------- Sites ----------
//

func citySite(c *model.City) core.Site {
	return core.Site{Name: c.Name, Kind: core.SiteCity, Location: core.Pt(c.Local.X, c.Local.Y)}
}

func cityRemoteSite(c *model.City) core.Site {
	return core.Site{Name: c.Name, Kind: core.SiteCity, Location: core.Pt(c.Remote.X, c.Remote.Y)}
}

func airportSite(a *model.Airport) core.Site {
	return core.Site{Name: a.Name, Kind: core.SiteAirport, Location: core.Pt(a.Local.X, a.Local.Y)}
}

func terminalSite(t *model.Terminal) core.Site {
	return core.Site{Name: t.Name, Kind: core.SiteTerminal, Location: core.Pt(t.Local.X, t.Local.Y)}
}

func remotePoint(c model.Coordinates) core.Point {
	return core.Pt(c.X, c.Y)
}

// roadOf converts an indexed segment into a road. Terminal roads put the
// city first.
func roadOf(seg core.SegmentGeometry) model.Road {
	start, end := seg.Start, seg.End
	if start.Kind == core.SiteTerminal {
		start, end = end, start
	}
	return model.Road{
		Start:    start.Name,
		End:      end.Name,
		Terminal: end.Kind == core.SiteTerminal,
		Length:   seg.Segment().Length(),
	}
}

// metropoleLocked returns the metropole at remote. It fails when remote
// lies outside the remote plane; a missing metropole is reported with
// ok=false.
func (s *MapState) metropoleLocked(remote model.Coordinates) (*core.PMQuadtree, bool, error) {
	p := remotePoint(remote)
	if !s.cfg.RemoteBounds().Contains(p) {
		return nil, false, fmt.Errorf("%w: %s", ErrMetropoleOutOfBounds, remote)
	}
	tree, ok := s.registry.Lookup(p)
	return tree, ok, nil
}
