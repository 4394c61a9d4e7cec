// Package graph assembles parsed records into a bowtie graph and validates it.
//
// A bowtie graph has one central event, an ordered set of causes on the left,
// an ordered set of consequences on the right, and barriers annotating the
// edges that connect each cause or consequence to the event. Causes and
// consequences occupy independent namespaces: each node is addressed by
// (side, name).
//
// The graph is immutable once built. Building fails fast on structural
// defects (zero or multiple events); referential defects such as duplicate
// names or unresolved barrier targets are accumulated by Validate so every
// defect in a document surfaces in one pass.
package graph

import (
	"github.com/risklens/bowtie/pkg/errors"
	"github.com/risklens/bowtie/pkg/parser"
)

// Side identifies which half of the bowtie a node belongs to.
type Side string

// Sides of the bowtie.
const (
	SideCause       Side = "cause"
	SideConsequence Side = "consequence"
)

// Node is a cause or consequence, unique by (side, name) in a valid graph.
type Node struct {
	Name string
	Side Side
	Line int // source line of the declaration
}

// Barrier is a control measure attached to one or more causes or
// consequences. A barrier with multiple targets is one logical entity
// rendered on multiple edges.
type Barrier struct {
	Name    string
	Targets []string // as listed in the source, trimmed
	Line    int
}

// Edge is the conceptual line connecting a node to the event. Barriers holds
// the barriers intersecting this edge, ordered by their overall declaration
// order in the document.
type Edge struct {
	Node     *Node
	Barriers []*Barrier
}

// Graph is a bowtie graph. Use Build to construct one and Validate to
// confirm its invariants before layout.
type Graph struct {
	title string
	event string

	causes       []*Node
	consequences []*Node
	barriers     []*Barrier
}

// Build assembles records into a Graph. It fails fast on the first
// structural defect: a second event record, or no event at end of stream.
//
// Duplicate cause/consequence names and barrier target resolution are NOT
// checked here; they are referential concerns handled by Validate, which can
// report all of them at once.
func Build(records []parser.Record) (*Graph, error) {
	g := &Graph{}
	eventSeen := false

	for _, rec := range records {
		switch r := rec.(type) {
		case parser.Title:
			g.title = r.Text
		case parser.Cause:
			g.causes = append(g.causes, &Node{Name: r.Name, Side: SideCause, Line: r.Line})
		case parser.Consequence:
			g.consequences = append(g.consequences, &Node{Name: r.Name, Side: SideConsequence, Line: r.Line})
		case parser.Event:
			if eventSeen {
				return nil, errors.NewAt(errors.ErrCodeStructuralMultipleEvent, r.Line,
					"multiple event records (previous %q, new %q)", g.event, r.Name)
			}
			eventSeen = true
			g.event = r.Name
		case parser.Barrier:
			g.barriers = append(g.barriers, &Barrier{Name: r.Name, Targets: r.Targets, Line: r.Line})
		}
	}

	if !eventSeen {
		return nil, errors.New(errors.ErrCodeStructuralNoEvent, "document declares no event")
	}
	return g, nil
}

// Title returns the document title, or "" if none was declared.
func (g *Graph) Title() string { return g.title }

// Event returns the central event name.
func (g *Graph) Event() string { return g.event }

// Causes returns the cause nodes in declaration order.
func (g *Graph) Causes() []*Node { return g.causes }

// Consequences returns the consequence nodes in declaration order.
func (g *Graph) Consequences() []*Node { return g.consequences }

// Barriers returns the barrier records in declaration order.
func (g *Graph) Barriers() []*Barrier { return g.barriers }

// Nodes returns the nodes on the given side in declaration order.
func (g *Graph) Nodes(side Side) []*Node {
	if side == SideCause {
		return g.causes
	}
	return g.consequences
}

// Lookup resolves a name on one side. With duplicate declarations the first
// occurrence wins; Validate flags the duplicates themselves.
func (g *Graph) Lookup(side Side, name string) (*Node, bool) {
	for _, n := range g.Nodes(side) {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Edges returns one edge per node on the given side, in declaration order.
// Each edge carries the barriers targeting its node, ordered by the
// barriers' declaration order in the document (not by the order targets were
// listed within a single barrier record).
func (g *Graph) Edges(side Side) []Edge {
	nodes := g.Nodes(side)
	edges := make([]Edge, len(nodes))
	for i, n := range nodes {
		edges[i] = Edge{Node: n, Barriers: g.edgeBarriers(n)}
	}
	return edges
}

// edgeBarriers collects the barriers targeting n, in declaration order.
func (g *Graph) edgeBarriers(n *Node) []*Barrier {
	var out []*Barrier
	for _, b := range g.barriers {
		for _, t := range b.Targets {
			if t == n.Name {
				out = append(out, b)
				break
			}
		}
	}
	return out
}
