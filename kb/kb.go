package kb

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/biogo/store/llrb"
	"github.com/signalsfoundry/metromap/model"
)

var (
	// ErrCityExists indicates a city with the same name already exists.
	ErrCityExists = errors.New("city already exists")
	// ErrCityNotFound indicates a requested city was not found.
	ErrCityNotFound = errors.New("city not found")
	// ErrAirportExists indicates an airport with the same name already exists.
	ErrAirportExists = errors.New("airport already exists")
	// ErrAirportNotFound indicates a requested airport was not found.
	ErrAirportNotFound = errors.New("airport not found")
	// ErrTerminalExists indicates a terminal with the same name already exists.
	ErrTerminalExists = errors.New("terminal already exists")
	// ErrTerminalNotFound indicates a requested terminal was not found.
	ErrTerminalNotFound = errors.New("terminal not found")
	// ErrLocationTaken indicates another entity occupies the location.
	ErrLocationTaken = errors.New("location already occupied")
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventCityAdded EventType = iota
	EventCityDeleted
	EventAirportAdded
	EventAirportDeleted
	EventTerminalAdded
	EventTerminalDeleted
	EventCleared
)

func (t EventType) String() string {
	switch t {
	case EventCityAdded:
		return "city_added"
	case EventCityDeleted:
		return "city_deleted"
	case EventAirportAdded:
		return "airport_added"
	case EventAirportDeleted:
		return "airport_deleted"
	case EventTerminalAdded:
		return "terminal_added"
	case EventTerminalDeleted:
		return "terminal_deleted"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers when an entity enters or leaves the KB.
type Event struct {
	Type EventType
	Name string
}

// cityName orders the city index.
type cityName string

func (n cityName) Compare(b llrb.Comparable) int {
	return strings.Compare(string(n), string(b.(cityName)))
}

// KnowledgeBase is an in-memory, thread-safe dictionary of cities,
// airports and terminals. It owns every business attribute; the spatial
// indexes only keep names and locations.
type KnowledgeBase struct {
	mu sync.RWMutex

	cities    map[string]*model.City
	names     *llrb.Tree
	airports  map[string]*model.Airport
	terminals map[string]*model.Terminal
	occupants map[model.Location]string

	subs []func(Event)
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		cities:    make(map[string]*model.City),
		names:     &llrb.Tree{},
		airports:  make(map[string]*model.Airport),
		terminals: make(map[string]*model.Terminal),
		occupants: make(map[model.Location]string),
	}
}

//
// ---------- Cities ----------
//

// AddCity stores a new city. The name must be unused among cities and
// the location unused among all entities.
func (kb *KnowledgeBase) AddCity(c *model.City) error {
	kb.mu.Lock()
	if err := kb.claimLocked(c.Location(), "city "+c.Name); err != nil {
		kb.mu.Unlock()
		return err
	}
	if _, exists := kb.cities[c.Name]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrCityExists, c.Name)
	}
	kb.cities[c.Name] = c
	kb.names.Insert(cityName(c.Name))
	kb.occupants[c.Location()] = "city " + c.Name
	subs := kb.subsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventCityAdded, Name: c.Name})
	return nil
}

// GetCity returns the city with the given name, or nil if not found.
func (kb *KnowledgeBase) GetCity(name string) *model.City {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.cities[name]
}

// DeleteCity removes and returns the named city.
func (kb *KnowledgeBase) DeleteCity(name string) (*model.City, error) {
	kb.mu.Lock()
	c, ok := kb.cities[name]
	if !ok {
		kb.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrCityNotFound, name)
	}
	delete(kb.cities, name)
	kb.names.Delete(cityName(name))
	delete(kb.occupants, c.Location())
	subs := kb.subsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventCityDeleted, Name: name})
	return c, nil
}

// ListCitiesByName returns every city in ascending name order.
func (kb *KnowledgeBase) ListCitiesByName() []*model.City {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*model.City, 0, len(kb.cities))
	kb.names.Do(func(e llrb.Comparable) bool {
		res = append(res, kb.cities[string(e.(cityName))])
		return false
	})
	return res
}

// NameNode is one node of the name-ordered city index.
type NameNode struct {
	City        *model.City
	Left, Right *NameNode
}

// NameTree is a snapshot of the city index with its balancing intact.
// Height counts edges on the longest root-to-leaf path, -1 when empty.
type NameTree struct {
	Root        *NameNode
	Height      int
	Cardinality int
}

// CityNameTree copies the city index as currently balanced.
func (kb *KnowledgeBase) CityNameTree() NameTree {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	root, height := kb.copyNameNode(kb.names.Root)
	return NameTree{Root: root, Height: height, Cardinality: kb.names.Len()}
}

func (kb *KnowledgeBase) copyNameNode(n *llrb.Node) (*NameNode, int) {
	if n == nil {
		return nil, -1
	}
	left, lh := kb.copyNameNode(n.Left)
	right, rh := kb.copyNameNode(n.Right)
	return &NameNode{
		City:  kb.cities[string(n.Elem.(cityName))],
		Left:  left,
		Right: right,
	}, max(lh, rh) + 1
}

// ListCitiesByCoordinate returns every city ordered by remote, then local
// coordinates.
func (kb *KnowledgeBase) ListCitiesByCoordinate() []*model.City {
	res := kb.ListCitiesByName()
	slices.SortStableFunc(res, func(a, b *model.City) int {
		return cmp.Or(a.Remote.Compare(b.Remote), a.Local.Compare(b.Local))
	})
	return res
}

//
// ---------- Airports and terminals ----------
//

// AddAirport stores a new airport.
func (kb *KnowledgeBase) AddAirport(a *model.Airport) error {
	kb.mu.Lock()
	if err := kb.claimLocked(a.Location(), "airport "+a.Name); err != nil {
		kb.mu.Unlock()
		return err
	}
	if _, exists := kb.airports[a.Name]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrAirportExists, a.Name)
	}
	kb.airports[a.Name] = a
	kb.occupants[a.Location()] = "airport " + a.Name
	subs := kb.subsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventAirportAdded, Name: a.Name})
	return nil
}

// GetAirport returns the airport with the given name, or nil if not found.
func (kb *KnowledgeBase) GetAirport(name string) *model.Airport {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.airports[name]
}

// DeleteAirport removes and returns the named airport. Its terminals are
// left to the caller.
func (kb *KnowledgeBase) DeleteAirport(name string) (*model.Airport, error) {
	kb.mu.Lock()
	a, ok := kb.airports[name]
	if !ok {
		kb.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrAirportNotFound, name)
	}
	delete(kb.airports, name)
	delete(kb.occupants, a.Location())
	subs := kb.subsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventAirportDeleted, Name: name})
	return a, nil
}

// ListAirports returns every airport ordered by name.
func (kb *KnowledgeBase) ListAirports() []*model.Airport {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	res := make([]*model.Airport, 0, len(kb.airports))
	for _, a := range kb.airports {
		res = append(res, a)
	}
	slices.SortFunc(res, func(a, b *model.Airport) int { return strings.Compare(a.Name, b.Name) })
	return res
}

// AddTerminal stores a new terminal. Its airport must already exist.
func (kb *KnowledgeBase) AddTerminal(t *model.Terminal) error {
	kb.mu.Lock()
	if err := kb.claimLocked(t.Location(), "terminal "+t.Name); err != nil {
		kb.mu.Unlock()
		return err
	}
	if _, exists := kb.terminals[t.Name]; exists {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrTerminalExists, t.Name)
	}
	if _, ok := kb.airports[t.Airport]; !ok {
		kb.mu.Unlock()
		return fmt.Errorf("%w: %q for terminal %q", ErrAirportNotFound, t.Airport, t.Name)
	}
	kb.terminals[t.Name] = t
	kb.occupants[t.Location()] = "terminal " + t.Name
	subs := kb.subsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventTerminalAdded, Name: t.Name})
	return nil
}

// GetTerminal returns the terminal with the given name, or nil if not found.
func (kb *KnowledgeBase) GetTerminal(name string) *model.Terminal {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.terminals[name]
}

// DeleteTerminal removes and returns the named terminal.
func (kb *KnowledgeBase) DeleteTerminal(name string) (*model.Terminal, error) {
	kb.mu.Lock()
	t, ok := kb.terminals[name]
	if !ok {
		kb.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrTerminalNotFound, name)
	}
	delete(kb.terminals, name)
	delete(kb.occupants, t.Location())
	subs := kb.subsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventTerminalDeleted, Name: name})
	return t, nil
}

// TerminalsOf returns the terminals of the named airport ordered by name.
func (kb *KnowledgeBase) TerminalsOf(airport string) []*model.Terminal {
	return kb.terminalsWhere(func(t *model.Terminal) bool { return t.Airport == airport })
}

// TerminalsServing returns the terminals whose road ends at the named
// city, ordered by name.
func (kb *KnowledgeBase) TerminalsServing(city string) []*model.Terminal {
	return kb.terminalsWhere(func(t *model.Terminal) bool { return t.City == city })
}

// ListTerminals returns every terminal ordered by name.
func (kb *KnowledgeBase) ListTerminals() []*model.Terminal {
	return kb.terminalsWhere(func(*model.Terminal) bool { return true })
}

func (kb *KnowledgeBase) terminalsWhere(keep func(*model.Terminal) bool) []*model.Terminal {
	kb.mu.RLock()
	defer kb.mu.RUnlock()

	var res []*model.Terminal
	for _, t := range kb.terminals {
		if keep(t) {
			res = append(res, t)
		}
	}
	slices.SortFunc(res, func(a, b *model.Terminal) int { return strings.Compare(a.Name, b.Name) })
	return res
}

//
// ---------- Whole-KB helpers ----------
//

// Occupant names the entity at loc, or "" when the location is free.
func (kb *KnowledgeBase) Occupant(loc model.Location) string {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.occupants[loc]
}

// Counts returns the number of cities, airports and terminals.
func (kb *KnowledgeBase) Counts() (cities, airports, terminals int) {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.cities), len(kb.airports), len(kb.terminals)
}

// Clear drops every entity.
func (kb *KnowledgeBase) Clear() {
	kb.mu.Lock()
	kb.cities = make(map[string]*model.City)
	kb.names = &llrb.Tree{}
	kb.airports = make(map[string]*model.Airport)
	kb.terminals = make(map[string]*model.Terminal)
	kb.occupants = make(map[model.Location]string)
	subs := kb.subsLocked()
	kb.mu.Unlock()

	notify(subs, Event{Type: EventCleared})
}

// Subscribe registers a callback for KB events. It returns an unsubscribe function.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.subs = append(kb.subs, fn)
	idx := len(kb.subs) - 1

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		if idx >= 0 && idx < len(kb.subs) {
			kb.subs[idx] = nil
		}
	}
}

func (kb *KnowledgeBase) claimLocked(loc model.Location, who string) error {
	if other, taken := kb.occupants[loc]; taken {
		return fmt.Errorf("%w: %s at local %s remote %s holds %s", ErrLocationTaken, who, loc.Local, loc.Remote, other)
	}
	return nil
}

func (kb *KnowledgeBase) subsLocked() []func(Event) {
	return append([]func(Event){}, kb.subs...)
}

func notify(subs []func(Event), e Event) {
	for _, fn := range subs {
		if fn != nil {
			fn(e)
		}
	}
}
