package core

import "fmt"

// Config bounds both planes and selects the PM rule. It is read once per
// batch and never changes until a reset.
type Config struct {
	LocalWidth   int
	LocalHeight  int
	RemoteWidth  int
	RemoteHeight int
	PMOrder      int
}

// Validate checks that every dimension is a positive power of two and the
// PM order is supported.
func (c Config) Validate() error {
	dims := []struct {
		name  string
		value int
	}{
		{"localWidth", c.LocalWidth},
		{"localHeight", c.LocalHeight},
		{"remoteWidth", c.RemoteWidth},
		{"remoteHeight", c.RemoteHeight},
	}
	for _, d := range dims {
		if d.value <= 0 || d.value&(d.value-1) != 0 {
			return fmt.Errorf("%w: %s=%d is not a positive power of two", ErrInvalidConfig, d.name, d.value)
		}
	}
	if _, err := NewValidator(c.PMOrder); err != nil {
		return err
	}
	return nil
}

// LocalBounds is the region of every metropole.
func (c Config) LocalBounds() Rect {
	return Rect{Width: float64(c.LocalWidth), Height: float64(c.LocalHeight)}
}

// RemoteBounds is the region of the shared remote plane.
func (c Config) RemoteBounds() Rect {
	return Rect{Width: float64(c.RemoteWidth), Height: float64(c.RemoteHeight)}
}
