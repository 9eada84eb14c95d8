// Package batch reads a command file, runs it against a fresh map and
// reports one result per command.
package batch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/tidwall/gjson"

	"github.com/signalsfoundry/metromap/core"
	"github.com/signalsfoundry/metromap/model"
)

// Batch is a parsed command file.
type Batch struct {
	Config   core.Config
	Commands []Command
}

// Command is one entry of the command list. Parameters stay as raw JSON
// until a handler asks for them.
type Command struct {
	Name   string
	ID     int
	params gjson.Result
}

// Load reads and parses a command file from r.
func Load(r io.Reader) (*Batch, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return Parse(data)
}

// Parse decodes a command file. Only structural problems fail here;
// missing or mistyped command parameters are reported per command.
func Parse(data []byte) (*Batch, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid JSON", ErrMalformedBatch)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedBatch)
	}

	var cfg core.Config
	header := []struct {
		key string
		dst *int
	}{
		{"localSpatialWidth", &cfg.LocalWidth},
		{"localSpatialHeight", &cfg.LocalHeight},
		{"remoteSpatialWidth", &cfg.RemoteWidth},
		{"remoteSpatialHeight", &cfg.RemoteHeight},
		{"pmOrder", &cfg.PMOrder},
	}
	for _, h := range header {
		v, err := intValue(doc.Get(h.key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedBatch, h.key, err)
		}
		*h.dst = v
	}

	list := doc.Get("commands")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: commands is not an array", ErrMalformedBatch)
	}
	items := list.Array()
	b := &Batch{Config: cfg, Commands: make([]Command, 0, len(items))}
	for i, item := range items {
		if !item.IsObject() {
			return nil, fmt.Errorf("%w: command %d is not an object", ErrMalformedBatch, i+1)
		}
		name := item.Get("command")
		if name.Type != gjson.String || name.Str == "" {
			return nil, fmt.Errorf("%w: command %d has no name", ErrMalformedBatch, i+1)
		}
		id := i + 1
		if raw := item.Get("id"); raw.Exists() {
			v, err := intValue(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: command %d id: %v", ErrMalformedBatch, i+1, err)
			}
			id = v
		}
		b.Commands = append(b.Commands, Command{Name: name.Str, ID: id, params: item})
	}
	return b, nil
}

// Parameters returns the command's attributes in file order, without the
// command name and id.
func (c Command) Parameters() Parameters {
	var out Parameters
	c.params.ForEach(func(key, value gjson.Result) bool {
		if key.Str == "command" || key.Str == "id" {
			return true
		}
		out = append(out, Parameter{Name: key.Str, Value: json.RawMessage(value.Raw)})
		return true
	})
	return out
}

// String returns a required string parameter.
func (c Command) String(key string) (string, error) {
	v := c.params.Get(key)
	if v.Type != gjson.String {
		return "", fmt.Errorf("%w: %s needs string %q", ErrMalformedCommand, c.Name, key)
	}
	return v.Str, nil
}

// Int returns a required integer parameter.
func (c Command) Int(key string) (int, error) {
	v, err := intValue(c.params.Get(key))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrMalformedCommand, c.Name, key, err)
	}
	return v, nil
}

// Coordinates reads an integer pair.
func (c Command) Coordinates(xKey, yKey string) (model.Coordinates, error) {
	x, err := c.Int(xKey)
	if err != nil {
		return model.Coordinates{}, err
	}
	y, err := c.Int(yKey)
	if err != nil {
		return model.Coordinates{}, err
	}
	return model.Coordinates{X: x, Y: y}, nil
}

// OptionalInt returns def when key is absent.
func (c Command) OptionalInt(key string, def int) (int, error) {
	if !c.params.Get(key).Exists() {
		return def, nil
	}
	return c.Int(key)
}

// OptionalString returns def when key is absent.
func (c Command) OptionalString(key, def string) (string, error) {
	if !c.params.Get(key).Exists() {
		return def, nil
	}
	return c.String(key)
}

var errMissing = errors.New("missing")

func intValue(v gjson.Result) (int, error) {
	if !v.Exists() {
		return 0, errMissing
	}
	if v.Type != gjson.Number {
		return 0, fmt.Errorf("%s is not a number", v.Raw)
	}
	if v.Num != math.Trunc(v.Num) || math.Abs(v.Num) > math.MaxInt32 {
		return 0, fmt.Errorf("%s is not an integer", v.Raw)
	}
	return int(v.Int()), nil
}

// Parameter is one echoed command attribute.
type Parameter struct {
	Name  string
	Value json.RawMessage
}

// Parameters marshals as a JSON object that keeps file order.
type Parameters []Parameter

// MarshalJSON implements json.Marshaler.
func (p Parameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, param := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(param.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(param.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
