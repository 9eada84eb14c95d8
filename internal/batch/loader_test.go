package batch

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/signalsfoundry/metromap/core"
	"github.com/signalsfoundry/metromap/model"
)

const header = `"localSpatialWidth": 64, "localSpatialHeight": 64,
	"remoteSpatialWidth": 16, "remoteSpatialHeight": 16, "pmOrder": 3`

func TestLoadBatch(t *testing.T) {
	input := `{` + header + `, "commands": [
		{"command": "createCity", "id": 7, "name": "A", "localX": 10, "localY": 12, "remoteX": 1, "remoteY": 2, "radius": 3, "color": "red"},
		{"command": "printPRQuadtree"}
	]}`
	b, err := Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := core.Config{LocalWidth: 64, LocalHeight: 64, RemoteWidth: 16, RemoteHeight: 16, PMOrder: 3}
	if b.Config != want {
		t.Fatalf("Config = %+v, want %+v", b.Config, want)
	}
	if len(b.Commands) != 2 {
		t.Fatalf("len(Commands) = %d, want 2", len(b.Commands))
	}
	if c := b.Commands[0]; c.Name != "createCity" || c.ID != 7 {
		t.Fatalf("Commands[0] = %s #%d, want createCity #7", c.Name, c.ID)
	}
	// Without an id the position is used.
	if c := b.Commands[1]; c.Name != "printPRQuadtree" || c.ID != 2 {
		t.Fatalf("Commands[1] = %s #%d, want printPRQuadtree #2", c.Name, c.ID)
	}

	cmd := b.Commands[0]
	name, err := cmd.String("name")
	if err != nil || name != "A" {
		t.Fatalf("String(name) = %q, %v; want A", name, err)
	}
	local, err := cmd.Coordinates("localX", "localY")
	if err != nil || local != (model.Coordinates{X: 10, Y: 12}) {
		t.Fatalf("Coordinates(local) = %v, %v; want (10, 12)", local, err)
	}
	if v, err := cmd.OptionalInt("missing", 5); err != nil || v != 5 {
		t.Fatalf("OptionalInt(missing) = %d, %v; want 5", v, err)
	}

	params, err := json.Marshal(cmd.Parameters())
	if err != nil {
		t.Fatalf("Marshal(Parameters) error = %v", err)
	}
	wantParams := `{"name":"A","localX":10,"localY":12,"remoteX":1,"remoteY":2,"radius":3,"color":"red"}`
	if string(params) != wantParams {
		t.Fatalf("Parameters = %s, want %s", params, wantParams)
	}
}

func TestLoadRejectsMalformedBatch(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"not json", `{"commands": [`},
		{"not an object", `[1, 2]`},
		{"missing header", `{"pmOrder": 3, "commands": []}`},
		{"fractional header", `{"localSpatialWidth": 64.5, "localSpatialHeight": 64, "remoteSpatialWidth": 16, "remoteSpatialHeight": 16, "pmOrder": 3, "commands": []}`},
		{"no commands", `{` + header + `}`},
		{"command not an object", `{` + header + `, "commands": [1]}`},
		{"unnamed command", `{` + header + `, "commands": [{"name": "A"}]}`},
		{"bad id", `{` + header + `, "commands": [{"command": "clearAll", "id": "x"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.input)); !errors.Is(err, ErrMalformedBatch) {
				t.Fatalf("Parse() error = %v, want ErrMalformedBatch", err)
			}
		})
	}
}

func TestCommandParameterErrors(t *testing.T) {
	b, err := Parse([]byte(`{` + header + `, "commands": [
		{"command": "createCity", "name": 5, "localX": 1.5, "localY": "2"}
	]}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cmd := b.Commands[0]
	if _, err := cmd.String("name"); !errors.Is(err, ErrMalformedCommand) {
		t.Fatalf("String(name) error = %v, want ErrMalformedCommand", err)
	}
	if _, err := cmd.Int("localX"); !errors.Is(err, ErrMalformedCommand) {
		t.Fatalf("Int(localX) error = %v, want ErrMalformedCommand", err)
	}
	if _, err := cmd.Int("localY"); !errors.Is(err, ErrMalformedCommand) {
		t.Fatalf("Int(localY) error = %v, want ErrMalformedCommand", err)
	}
	if _, err := cmd.Int("remoteX"); !errors.Is(err, ErrMalformedCommand) {
		t.Fatalf("Int(remoteX) error = %v, want ErrMalformedCommand", err)
	}
}
