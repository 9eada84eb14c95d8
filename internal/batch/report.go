package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/signalsfoundry/metromap/internal/state"
	"github.com/signalsfoundry/metromap/kb"
	"github.com/signalsfoundry/metromap/model"
)

// Result outcomes.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Report is the outcome of a whole batch. FatalError is set instead of
// Results when the command file could not be read.
type Report struct {
	FatalError string   `json:"fatalError,omitempty"`
	Results    []Result `json:"results,omitempty"`
}

// Result is the outcome of one command.
type Result struct {
	Command    string     `json:"command"`
	ID         int        `json:"id"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	Parameters Parameters `json:"parameters"`
	Output     any        `json:"output,omitempty"`
}

// Failed counts commands that ended in an error.
func (r *Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusError {
			n++
		}
	}
	return n
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

type cityJSON struct {
	Name    string `json:"name"`
	LocalX  int    `json:"localX"`
	LocalY  int    `json:"localY"`
	RemoteX int    `json:"remoteX"`
	RemoteY int    `json:"remoteY"`
	Radius  int    `json:"radius"`
	Color   string `json:"color"`
}

func cityOut(c *model.City) *cityJSON {
	if c == nil {
		return nil
	}
	return &cityJSON{
		Name:    c.Name,
		LocalX:  c.Local.X,
		LocalY:  c.Local.Y,
		RemoteX: c.Remote.X,
		RemoteY: c.Remote.Y,
		Radius:  c.Radius,
		Color:   c.Color,
	}
}

func citiesOut(cities []*model.City) []*cityJSON {
	out := make([]*cityJSON, 0, len(cities))
	for _, c := range cities {
		out = append(out, cityOut(c))
	}
	return out
}

type roadJSON struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Length float64 `json:"length"`
}

func roadOut(r model.Road) roadJSON {
	return roadJSON{Start: r.Start, End: r.End, Length: r.Length}
}

func roadsOut(roads []model.Road) []roadJSON {
	out := make([]roadJSON, 0, len(roads))
	for _, r := range roads {
		out = append(out, roadOut(r))
	}
	return out
}

type airportJSON struct {
	Name    string `json:"name"`
	LocalX  int    `json:"localX"`
	LocalY  int    `json:"localY"`
	RemoteX int    `json:"remoteX"`
	RemoteY int    `json:"remoteY"`
}

func airportOut(a *model.Airport) *airportJSON {
	if a == nil {
		return nil
	}
	return &airportJSON{Name: a.Name, LocalX: a.Local.X, LocalY: a.Local.Y, RemoteX: a.Remote.X, RemoteY: a.Remote.Y}
}

type terminalJSON struct {
	Name        string `json:"name"`
	LocalX      int    `json:"localX"`
	LocalY      int    `json:"localY"`
	RemoteX     int    `json:"remoteX"`
	RemoteY     int    `json:"remoteY"`
	AirportName string `json:"airportName"`
	CityName    string `json:"cityName"`
}

func terminalsOut(terminals []*model.Terminal) []terminalJSON {
	out := make([]terminalJSON, 0, len(terminals))
	for _, t := range terminals {
		out = append(out, terminalJSON{
			Name:        t.Name,
			LocalX:      t.Local.X,
			LocalY:      t.Local.Y,
			RemoteX:     t.Remote.X,
			RemoteY:     t.Remote.Y,
			AirportName: t.Airport,
			CityName:    t.City,
		})
	}
	return out
}

type deletionJSON struct {
	CityUnmapped     *cityJSON      `json:"cityUnmapped"`
	RoadUnmapped     []roadJSON     `json:"roadUnmapped,omitempty"`
	TerminalUnmapped []terminalJSON `json:"terminalUnmapped,omitempty"`
	AirportUnmapped  []*airportJSON `json:"airportUnmapped,omitempty"`
}

func deletionOut(d *state.CityDeletion) *deletionJSON {
	if d == nil || !d.Unmapped {
		return nil
	}
	out := &deletionJSON{CityUnmapped: cityOut(d.City)}
	if len(d.Roads) > 0 {
		out.RoadUnmapped = roadsOut(d.Roads)
	}
	if len(d.Terminals) > 0 {
		out.TerminalUnmapped = terminalsOut(d.Terminals)
	}
	for _, a := range d.Airports {
		out.AirportUnmapped = append(out.AirportUnmapped, airportOut(a))
	}
	return out
}

type pathJSON struct {
	Length string           `json:"length"`
	Hops   int              `json:"hops"`
	Path   []state.PathStep `json:"path"`
}

func pathOut(p *state.Path) pathJSON {
	return pathJSON{
		Length: fmt.Sprintf("%.3f", p.Length),
		Hops:   len(p.Steps) - 1,
		Path:   p.Steps,
	}
}

type nameNodeJSON struct {
	Key   string        `json:"key"`
	Value string        `json:"value"`
	Left  *nameNodeJSON `json:"left"`
	Right *nameNodeJSON `json:"right"`
}

type nameTreeJSON struct {
	Height      int           `json:"height"`
	Cardinality int           `json:"cardinality"`
	Root        *nameNodeJSON `json:"root"`
}

func nameTreeOut(t kb.NameTree) nameTreeJSON {
	return nameTreeJSON{Height: t.Height, Cardinality: t.Cardinality, Root: nameNodeOut(t.Root)}
}

func nameNodeOut(n *kb.NameNode) *nameNodeJSON {
	if n == nil {
		return nil
	}
	return &nameNodeJSON{
		Key:   n.City.Name,
		Value: fmt.Sprintf("(%d,%d)", n.City.Local.X, n.City.Local.Y),
		Left:  nameNodeOut(n.Left),
		Right: nameNodeOut(n.Right),
	}
}
