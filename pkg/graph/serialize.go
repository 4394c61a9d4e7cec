package graph

import (
	"encoding/json"
	"io"
)

// Document is the canonical serialization format for a confirmed bowtie
// graph. Used for API responses, storage, and caching.
//
// The format is designed for round-trip fidelity: export → re-import
// produces a structurally identical graph. Per-edge barrier lists are
// included so renderers do not need to re-derive them, and each barrier's
// full target list is kept for cross-edge labeling.
type Document struct {
	Title        string         `json:"title,omitempty" bson:"title,omitempty"`
	Event        string         `json:"event" bson:"event"`
	Causes       []NodeLine     `json:"causes" bson:"causes"`
	Consequences []NodeLine     `json:"consequences" bson:"consequences"`
	Barriers     []BarrierEntry `json:"barriers,omitempty" bson:"barriers,omitempty"`
}

// NodeLine is one cause or consequence together with the ordered barrier
// names on its edge.
type NodeLine struct {
	Name     string   `json:"name" bson:"name"`
	Barriers []string `json:"barriers,omitempty" bson:"barriers,omitempty"`
}

// BarrierEntry is one barrier declaration with its full target list.
type BarrierEntry struct {
	Name    string   `json:"name" bson:"name"`
	Targets []string `json:"targets" bson:"targets"`
}

// Export converts a graph to its serialization format.
// Declaration order is preserved on both sides and in the barrier list, so
// the output is deterministic for a given document.
func Export(g *Graph) Document {
	doc := Document{
		Title:        g.Title(),
		Event:        g.Event(),
		Causes:       exportSide(g, SideCause),
		Consequences: exportSide(g, SideConsequence),
	}
	for _, b := range g.Barriers() {
		doc.Barriers = append(doc.Barriers, BarrierEntry{Name: b.Name, Targets: b.Targets})
	}
	return doc
}

func exportSide(g *Graph, side Side) []NodeLine {
	edges := g.Edges(side)
	lines := make([]NodeLine, len(edges))
	for i, e := range edges {
		line := NodeLine{Name: e.Node.Name}
		for _, b := range e.Barriers {
			line.Barriers = append(line.Barriers, b.Name)
		}
		lines[i] = line
	}
	return lines
}

// Import reconstructs a graph from its serialization format.
// Edge barrier lists are re-derived from the barrier entries, so only the
// declarations need to round-trip.
func Import(doc Document) *Graph {
	g := &Graph{title: doc.Title, event: doc.Event}
	for _, c := range doc.Causes {
		g.causes = append(g.causes, &Node{Name: c.Name, Side: SideCause})
	}
	for _, c := range doc.Consequences {
		g.consequences = append(g.consequences, &Node{Name: c.Name, Side: SideConsequence})
	}
	for _, b := range doc.Barriers {
		g.barriers = append(g.barriers, &Barrier{Name: b.Name, Targets: b.Targets})
	}
	return g
}

// Marshal encodes a graph as indented JSON.
func Marshal(g *Graph) ([]byte, error) {
	return json.MarshalIndent(Export(g), "", "  ")
}

// Unmarshal decodes a JSON document into a graph.
func Unmarshal(data []byte) (*Graph, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return Import(doc), nil
}

// Write encodes a graph as JSON to w.
func Write(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Export(g))
}

// Read decodes a JSON graph from r.
func Read(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	return Import(doc), nil
}
