package core

// engine holds the split and merge rules shared by the region quadtree
// and the PM quadtree. Both walk the same node variant; they differ only
// in the leaf rule and in what happens when a minimum-size leaf breaks it.
type engine struct {
	rule Validator
	// strict turns an invalid leaf at minimum size into
	// ErrPMRuleViolation instead of keeping its contents together.
	strict bool
}

// insert returns the node replacing n after g is added to every leaf
// of n that g meets. n itself is left untouched.
func (e engine) insert(n Node, region Rect, g Geometry) (Node, error) {
	if !g.intersects(region) {
		return n, nil
	}
	switch n := n.(type) {
	case Empty:
		return e.settle(newLeaf(g), region)
	case *Leaf:
		return e.settle(n.with(g), region)
	case *Internal:
		children := n.children
		changed := false
		for _, q := range Quadrants {
			child, err := e.insert(children[q], region.Child(q), g)
			if err != nil {
				return nil, err
			}
			if child != children[q] {
				children[q] = child
				changed = true
			}
		}
		if !changed {
			return n, nil
		}
		return &Internal{Center: n.Center, children: children}, nil
	}
	panic("core: unknown node variant")
}

// settle keeps leaf when it satisfies the rule and splits it otherwise,
// pushing its contents into four fresh children.
func (e engine) settle(leaf *Leaf, region Rect) (Node, error) {
	if e.rule.Valid(leaf.items, region) {
		return leaf, nil
	}
	if !region.Splittable() {
		if e.strict {
			return nil, ErrPMRuleViolation
		}
		return leaf, nil
	}
	var n Node = newInternal(region)
	for _, g := range leaf.items {
		var err error
		if n, err = e.insert(n, region, g); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// remove returns the node replacing n once g is gone from every leaf.
// Subtrees whose remaining contents satisfy the rule fold back into a
// single leaf, or Empty when nothing is left.
func (e engine) remove(n Node, region Rect, g Geometry) Node {
	if !g.intersects(region) {
		return n
	}
	switch n := n.(type) {
	case Empty:
		return n
	case *Leaf:
		return n.without(g.Key())
	case *Internal:
		children := n.children
		changed := false
		for _, q := range Quadrants {
			child := e.remove(children[q], region.Child(q), g)
			if child != children[q] {
				children[q] = child
				changed = true
			}
		}
		if !changed {
			return n
		}
		return e.merge(&Internal{Center: n.Center, children: children}, region)
	}
	panic("core: unknown node variant")
}

func (e engine) merge(in *Internal, region Rect) Node {
	items := collect(in, make(map[string]bool), nil)
	if len(items) == 0 {
		return Empty{}
	}
	if e.rule.Valid(items, region) {
		return newLeaf(items...)
	}
	return in
}
