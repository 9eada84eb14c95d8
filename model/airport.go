package model

// Airport is a point of interest in a metropole reached through one or
// more terminals. An airport without terminals does not exist.
type Airport struct {
	Name   string
	Local  Coordinates
	Remote Coordinates
}

// Location returns where the airport sits.
func (a *Airport) Location() Location {
	return Location{Local: a.Local, Remote: a.Remote}
}

// Terminal belongs to an airport and is joined by a road to the city it
// serves. The road's far end is the terminal itself.
type Terminal struct {
	Name    string
	Local   Coordinates
	Remote  Coordinates
	Airport string
	City    string
}

// Location returns where the terminal sits.
func (t *Terminal) Location() Location {
	return Location{Local: t.Local, Remote: t.Remote}
}
