package core

// NodeView is a printable snapshot of a subtree.
type NodeView struct {
	Kind        string     `json:"kind"`
	X           *float64   `json:"x,omitempty"`
	Y           *float64   `json:"y,omitempty"`
	Cardinality int        `json:"cardinality,omitempty"`
	Items       []ItemView `json:"items,omitempty"`
	Children    []NodeView `json:"children,omitempty"`
}

// ItemView describes one leaf item.
type ItemView struct {
	Type  string  `json:"type"`
	Name  string  `json:"name,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Start string  `json:"start,omitempty"`
	End   string  `json:"end,omitempty"`
}

// Node kinds as printed.
const (
	KindEmpty    = "white"
	KindLeaf     = "black"
	KindInternal = "gray"
)

// Describe builds the view of the tree rooted at n. Children appear in
// NW, NE, SW, SE order.
func Describe(n Node) NodeView {
	switch n := n.(type) {
	case Empty:
		return NodeView{Kind: KindEmpty}
	case *Leaf:
		v := NodeView{Kind: KindLeaf, Cardinality: len(n.items)}
		for _, g := range n.items {
			v.Items = append(v.Items, describeItem(g))
		}
		return v
	case *Internal:
		x, y := n.Center.X, n.Center.Y
		v := NodeView{Kind: KindInternal, X: &x, Y: &y}
		for _, q := range Quadrants {
			v.Children = append(v.Children, Describe(n.children[q]))
		}
		return v
	}
	panic("core: unknown node variant")
}

func describeItem(g Geometry) ItemView {
	switch g := g.(type) {
	case PointGeometry:
		return ItemView{
			Type: g.Site.Kind.String(),
			Name: g.Site.Name,
			X:    g.Site.Location.X,
			Y:    g.Site.Location.Y,
		}
	case SegmentGeometry:
		return ItemView{Type: "road", Start: g.Start.Name, End: g.End.Name}
	}
	panic("core: unknown geometry variant")
}
