package graph

// Group names the renderer collection an element belongs to.
type Group string

const (
	GroupNodes Group = "nodes"
	GroupEdges Group = "edges"
)

// Element is one renderer entry: {group, data}.
type Element struct {
	Group Group `json:"group"`
	Data  any   `json:"data"`
}

// RegionView is a region as projected, with its collapse state.
type RegionView struct {
	Region
	Collapsed bool `json:"collapsed"`
}

// EdgeView is an edge as projected. Derived edges stand in for references
// hidden behind a collapsed region.
type EdgeView struct {
	Edge
	Derived bool `json:"derived,omitempty"`
}

// Projection is the visible graph handed to the renderer. Order is not
// significant; elements are sorted by id for stable output.
type Projection struct {
	Nodes []Element `json:"nodes"`
	Edges []Element `json:"edges"`
}

// ProjectVisible returns the visible nodes, regions and edges. collapsed
// reports the state of each region and may be nil.
func (s *Store) ProjectVisible(collapsed func(regionID string) bool) Projection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := Projection{
		Nodes: make([]Element, 0, len(s.visible.Regions)+len(s.visible.Nodes)),
		Edges: make([]Element, 0, len(s.visible.Edges)+len(s.derived)),
	}
	for _, r := range s.visible.SortedRegions() {
		view := RegionView{Region: r}
		if collapsed != nil {
			view.Collapsed = collapsed(r.ID)
		}
		p.Nodes = append(p.Nodes, Element{Group: GroupNodes, Data: view})
	}
	for _, n := range s.visible.SortedNodes() {
		p.Nodes = append(p.Nodes, Element{Group: GroupNodes, Data: n})
	}
	for _, e := range s.visible.SortedEdges() {
		p.Edges = append(p.Edges, Element{Group: GroupEdges, Data: EdgeView{Edge: e}})
	}
	for _, e := range sortEdges(s.derived) {
		if _, isReal := s.visible.Edges[e.ID]; isReal {
			continue
		}
		p.Edges = append(p.Edges, Element{Group: GroupEdges, Data: EdgeView{Edge: e, Derived: true}})
	}
	return p
}

// NodeIDs returns the ids of every projected node and region.
func (p Projection) NodeIDs() []string {
	out := make([]string, 0, len(p.Nodes))
	for _, el := range p.Nodes {
		switch data := el.Data.(type) {
		case Node:
			out = append(out, data.ID)
		case RegionView:
			out = append(out, data.ID)
		}
	}
	return out
}

// EdgeIDs returns the ids of every projected edge.
func (p Projection) EdgeIDs() []string {
	out := make([]string, 0, len(p.Edges))
	for _, el := range p.Edges {
		if data, ok := el.Data.(EdgeView); ok {
			out = append(out, data.ID)
		}
	}
	return out
}

// Elements flattens the projection into one tagged list, nodes first.
func (p Projection) Elements() []Element {
	out := make([]Element, 0, len(p.Nodes)+len(p.Edges))
	out = append(out, p.Nodes...)
	return append(out, p.Edges...)
}
