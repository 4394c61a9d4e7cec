package sink

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/render"
)

// ToDOT converts a confirmed bowtie graph to Graphviz DOT format.
// The resulting string can be rendered with [RenderDOTSVG], [RenderDOTPNG],
// or [RenderDOTPDF], or fed to any Graphviz-compatible tool.
//
// Barriers are emitted as small intermediate nodes spliced into the edge
// they protect, so Graphviz places them between the component and the event.
// A multi-target barrier becomes one spliced node per edge, sharing a label.
func ToDOT(g *graph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph bowtie {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.8;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	fmt.Fprintf(&buf, "  %q [shape=circle, fillcolor=lightyellow];\n", g.Event())
	for _, n := range g.Causes() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(n), n.Name)
	}
	for _, n := range g.Consequences() {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", nodeID(n), n.Name)
	}

	buf.WriteString("\n")
	for i, e := range g.Edges(graph.SideCause) {
		writeEdge(&buf, nodeID(e.Node), g.Event(), e.Barriers, fmt.Sprintf("c%d", i))
	}
	for i, e := range g.Edges(graph.SideConsequence) {
		writeEdge(&buf, g.Event(), nodeID(e.Node), e.Barriers, fmt.Sprintf("q%d", i))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeID disambiguates node identifiers across sides. Validation rejects
// cross-side name collisions for barrier targets, but DOT identifiers must
// be unique regardless, so the side is baked into the ID.
func nodeID(n *graph.Node) string {
	return string(n.Side) + ":" + n.Name
}

// writeEdge splices barrier nodes into the from→to edge.
func writeEdge(buf *bytes.Buffer, from, to string, barriers []*graph.Barrier, edgeKey string) {
	prev := from
	for j, b := range barriers {
		id := fmt.Sprintf("barrier:%s:%d", edgeKey, j)
		fmt.Fprintf(buf, "  %q [label=%q, shape=box, style=filled, fillcolor=lightgrey, fontsize=10, height=0.3];\n",
			id, b.Name)
		fmt.Fprintf(buf, "  %q -> %q [arrowhead=none];\n", prev, id)
		prev = id
	}
	fmt.Fprintf(buf, "  %q -> %q;\n", prev, to)
}

// RenderDOTSVG renders a DOT graph to SVG using Graphviz.
func RenderDOTSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderDOTPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderDOTPDF(dot string) ([]byte, error) {
	svg, err := RenderDOTSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderDOTPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderDOTPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderDOTSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
