package model

// Road is a mapped segment between two named endpoints. Endpoints are
// cities, except for terminal roads whose End is the terminal.
type Road struct {
	Start string
	End   string
	// Terminal marks a road joining a city to a terminal.
	Terminal bool
	Length   float64
}
