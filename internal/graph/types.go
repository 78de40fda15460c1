package graph

// Kind tags an element for the renderer.
type Kind string

const (
	KindFile   Kind = "file"
	KindRegion Kind = "region"
)

// Node is a file in the notebook. ID is the normalized relative path.
type Node struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Link     string `json:"link"`
	ImageURL string `json:"imageUrl"`
	Parent   string `json:"parent,omitempty"`
	Kind     Kind   `json:"type"`
}

// Region is a directory. Parent is "" for regions at the root.
type Region struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Parent   string `json:"parent,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Kind     Kind   `json:"type"`
}

// Edge is a directed reference between two element ids. ID is always
// EdgeID(Source, Target).
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// EdgeID derives the id of the edge from source to target.
func EdgeID(source, target string) string {
	return source + "_to_" + target
}

// NewEdge builds an edge with its derived id.
func NewEdge(source, target string) Edge {
	return Edge{ID: EdgeID(source, target), Source: source, Target: target}
}

// Touches reports whether either endpoint is in ids.
func (e Edge) Touches(ids map[string]bool) bool {
	return ids[e.Source] || ids[e.Target]
}
