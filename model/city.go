package model

import (
	"cmp"
	"fmt"
)

// Coordinates is an integer position in a local or remote plane.
type Coordinates struct {
	X int
	Y int
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Compare orders coordinates by X, then Y.
func (c Coordinates) Compare(other Coordinates) int {
	return cmp.Or(cmp.Compare(c.X, other.X), cmp.Compare(c.Y, other.Y))
}

// Location is the full address of an entity: its place inside a
// metropole plus the metropole's place in the remote plane. At most one
// entity of any kind occupies a Location.
type Location struct {
	Local  Coordinates
	Remote Coordinates
}

// City is a named place inside a metropole. Cities are created unmapped
// and join the spatial indexes through mapping commands.
type City struct {
	Name   string
	Local  Coordinates
	Remote Coordinates
	Radius int
	Color  string
}

// Location returns where the city sits.
func (c *City) Location() Location {
	return Location{Local: c.Local, Remote: c.Remote}
}
