// Package layout computes deterministic, renderer-agnostic positions for a
// confirmed bowtie graph.
//
// Causes and consequences receive ordinal perpendicular offsets in
// declaration order. Barriers on each edge receive evenly-spaced fractional
// offsets between the node and the event, so a renderer can place the tick
// anywhere along its drawing of the edge without further computation.
//
// The layout is a pure function of the graph: compiling the same document
// twice yields structurally identical output.
package layout

import (
	"encoding/json"

	"github.com/risklens/bowtie/pkg/graph"
)

// Layout is the position model handed to renderers.
type Layout struct {
	Title        string       `json:"title,omitempty" bson:"title,omitempty"`
	Event        string       `json:"event" bson:"event"`
	Causes       []Line       `json:"causes" bson:"causes"`
	Consequences []Line       `json:"consequences" bson:"consequences"`
	Barriers     []BarrierRef `json:"barriers,omitempty" bson:"barriers,omitempty"`
}

// Line is the edge from one cause or consequence to the event.
// Offset is the node's ordinal perpendicular position on its side, counted
// from zero in declaration order.
type Line struct {
	Node     string      `json:"node" bson:"node"`
	Offset   int         `json:"offset" bson:"offset"`
	Barriers []Placement `json:"barriers,omitempty" bson:"barriers,omitempty"`
}

// Placement positions one barrier occurrence on one edge.
// Fraction is the position along the edge from the node (0) toward the event
// (1); it is always strictly between the two, so barriers never coincide
// with the node or the event point. Placements of a multi-target barrier on
// different edges are independent and share only the barrier name.
type Placement struct {
	Name     string  `json:"name" bson:"name"`
	Fraction float64 `json:"fraction" bson:"fraction"`
}

// BarrierRef records a barrier's identity and full target list so renderers
// can label all occurrences of a multi-target barrier consistently.
type BarrierRef struct {
	Name    string   `json:"name" bson:"name"`
	Targets []string `json:"targets" bson:"targets"`
}

// Build computes the layout for a confirmed graph.
//
// Barriers on a shared edge keep their overall declaration order from the
// source document, and each receives fraction (index+1)/(count+1) along the
// edge. A degenerate graph (no causes or no consequences) produces a
// degenerate but valid layout.
func Build(g *graph.Graph) Layout {
	l := Layout{
		Title:        g.Title(),
		Event:        g.Event(),
		Causes:       buildSide(g, graph.SideCause),
		Consequences: buildSide(g, graph.SideConsequence),
	}
	for _, b := range g.Barriers() {
		l.Barriers = append(l.Barriers, BarrierRef{Name: b.Name, Targets: b.Targets})
	}
	return l
}

func buildSide(g *graph.Graph, side graph.Side) []Line {
	edges := g.Edges(side)
	lines := make([]Line, len(edges))
	for i, e := range edges {
		line := Line{Node: e.Node.Name, Offset: i}
		count := len(e.Barriers)
		for j, b := range e.Barriers {
			line.Barriers = append(line.Barriers, Placement{
				Name:     b.Name,
				Fraction: float64(j+1) / float64(count+1),
			})
		}
		lines[i] = line
	}
	return lines
}

// Marshal encodes a layout as indented JSON.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal decodes a JSON layout.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	err := json.Unmarshal(data, &l)
	return l, err
}
