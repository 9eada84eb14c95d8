package core

import (
	"fmt"
	"maps"
	"slices"
)

// Registry maps a remote coordinate to the PM quadtree of the metropole
// located there. Metropoles are created on first use and live until
// Clear.
type Registry struct {
	cfg        Config
	metropoles map[Point]*PMQuadtree
}

// NewRegistry returns an empty registry for cfg.
func NewRegistry(cfg Config) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Registry{
		cfg:        cfg,
		metropoles: make(map[Point]*PMQuadtree),
	}, nil
}

// Config returns the configuration the registry was built with.
func (r *Registry) Config() Config { return r.cfg }

// GetOrCreate returns the metropole at remote, creating it if needed.
func (r *Registry) GetOrCreate(remote Point) (*PMQuadtree, error) {
	if tree, ok := r.metropoles[remote]; ok {
		return tree, nil
	}
	if !r.cfg.RemoteBounds().Contains(remote) {
		return nil, fmt.Errorf("%w: metropole (%g, %g)", ErrOutOfBounds, remote.X, remote.Y)
	}
	tree, err := NewPMQuadtree(r.cfg.LocalBounds(), r.cfg.PMOrder)
	if err != nil {
		return nil, err
	}
	r.metropoles[remote] = tree
	return tree, nil
}

// Lookup returns the metropole at remote, or false if none exists.
func (r *Registry) Lookup(remote Point) (*PMQuadtree, bool) {
	tree, ok := r.metropoles[remote]
	return tree, ok
}

// Metropoles returns the remote coordinates of every metropole in X, Y
// order.
func (r *Registry) Metropoles() []Point {
	keys := slices.Collect(maps.Keys(r.metropoles))
	slices.SortFunc(keys, func(a, b Point) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		default:
			return 0
		}
	})
	return keys
}

// Len returns the number of metropoles.
func (r *Registry) Len() int { return len(r.metropoles) }

// Clear destroys every metropole.
func (r *Registry) Clear() {
	r.metropoles = make(map[Point]*PMQuadtree)
}
