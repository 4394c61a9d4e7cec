// Package sink renders a computed bowtie layout into concrete output
// formats: a self-contained SVG drawing, a JSON model for web renderers, and
// a Graphviz DOT export.
//
// All sinks are deterministic: the same layout always produces the same
// bytes. Geometry is content-driven — canvas size derives from the text
// widths and counts in the layout, not from caller-supplied dimensions.
package sink

import (
	"bytes"
	"fmt"

	"github.com/risklens/bowtie/pkg/layout"
)

// Geometry constants for the SVG drawing. Text width is approximated from
// rune count; the drawing does not measure fonts.
const (
	componentHeight       = 50.0
	componentMarginBottom = 20.0
	componentPaddingX     = 10.0
	barrierTickWidth      = 25.0
	edgeSpan              = 300.0 // horizontal run between a component edge and the event circle
	canvasMarginY         = 75.0
	charWidth             = 15.0
	fontSize              = 16
	minEventRadius        = 40.0
)

// SVGOption configures SVG rendering via [RenderSVG].
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	legend bool
	border bool
}

// WithoutLegend omits the numbered barrier legend rows beneath each side.
func WithoutLegend() SVGOption { return func(r *svgRenderer) { r.legend = false } }

// WithoutBorder omits the canvas border rectangle.
func WithoutBorder() SVGOption { return func(r *svgRenderer) { r.border = false } }

// RenderSVG draws the bowtie: cause boxes on the left, consequence boxes on
// the right, the event circle in the centre, one edge line per component,
// and a numbered tick for every barrier placement. Multi-target barriers are
// drawn once per edge but share one legend number per side.
func RenderSVG(l layout.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{legend: true, border: true}
	for _, opt := range opts {
		opt(&r)
	}

	g := newGeometry(l, r.legend)
	var buf bytes.Buffer

	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" font-family="sans-serif" font-size="%d">`+"\n",
		g.width, g.height, g.width, g.height, fontSize)

	if r.border {
		fmt.Fprintf(&buf, `  <rect x="0.5" y="0.5" width="%.1f" height="%.1f" fill="none" stroke="black"/>`+"\n",
			g.width-1, g.height-1)
	}

	if l.Title != "" {
		fmt.Fprintf(&buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" font-weight="bold">%s</text>`+"\n",
			g.width/2, canvasMarginY/2, escape(l.Title))
	}

	renderEdges(&buf, g, l.Causes, true)
	renderEdges(&buf, g, l.Consequences, false)
	renderEvent(&buf, g, l.Event)
	renderComponents(&buf, g, l.Causes, true)
	renderComponents(&buf, g, l.Consequences, false)
	renderBarriers(&buf, g, l.Causes, true)
	renderBarriers(&buf, g, l.Consequences, false)

	if r.legend {
		renderLegend(&buf, g, true)
		renderLegend(&buf, g, false)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// geometry holds the derived canvas measurements for one rendering.
type geometry struct {
	width, height float64
	boxWidth      float64 // shared component box width (widest name)
	eventRadius   float64

	causeCount, consequenceCount int
	causesHeight                 float64
	consequencesHeight           float64

	// legend numbering per side: barrier name -> 1-based id, plus ordered names
	causeLegend       []string
	consequenceLegend []string
	causeIDs          map[string]int
	consequenceIDs    map[string]int
}

func newGeometry(l layout.Layout, legend bool) geometry {
	g := geometry{
		causeCount:       len(l.Causes),
		consequenceCount: len(l.Consequences),
		causeIDs:         map[string]int{},
		consequenceIDs:   map[string]int{},
	}

	for _, line := range l.Causes {
		g.boxWidth = max(g.boxWidth, textWidth(line.Node))
	}
	for _, line := range l.Consequences {
		g.boxWidth = max(g.boxWidth, textWidth(line.Node))
	}

	g.causeLegend = legendNames(l.Barriers, l.Causes)
	g.consequenceLegend = legendNames(l.Barriers, l.Consequences)
	for i, name := range g.causeLegend {
		g.causeIDs[name] = i + 1
	}
	for i, name := range g.consequenceLegend {
		g.consequenceIDs[name] = len(g.causeLegend) + i + 1
	}

	g.causesHeight = containerHeight(g.causeCount)
	g.consequencesHeight = containerHeight(g.consequenceCount)

	causeTotal := g.causesHeight
	consequenceTotal := g.consequencesHeight
	if legend {
		causeTotal += containerHeight(len(g.causeLegend)) + componentMarginBottom
		consequenceTotal += containerHeight(len(g.consequenceLegend)) + componentMarginBottom
	}

	g.eventRadius = max(minEventRadius, textWidth(l.Event)/2)
	g.height = max(causeTotal, consequenceTotal) + 2*canvasMarginY
	g.width = 2*(g.boxWidth+2*componentPaddingX) + 2*edgeSpan + 2*g.eventRadius
	return g
}

// legendNames returns the names of barriers placed on any of the given
// lines, in the barriers' overall declaration order, one entry per name.
func legendNames(refs []layout.BarrierRef, lines []layout.Line) []string {
	onSide := map[string]bool{}
	for _, line := range lines {
		for _, p := range line.Barriers {
			onSide[p.Name] = true
		}
	}
	var names []string
	seen := map[string]bool{}
	for _, ref := range refs {
		if onSide[ref.Name] && !seen[ref.Name] {
			seen[ref.Name] = true
			names = append(names, ref.Name)
		}
	}
	return names
}

// containerHeight is the stacked height of n component rows.
func containerHeight(n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(n)*componentHeight + float64(n-1)*componentMarginBottom
}

func textWidth(s string) float64 {
	return float64(len([]rune(s))) * charWidth
}

// componentCenter returns the centre of the i-th component box on one side.
func (g geometry) componentCenter(i int, cause bool) (float64, float64) {
	x := componentPaddingX + g.boxWidth/2
	containerH := g.causesHeight
	if !cause {
		x = g.width - componentPaddingX - g.boxWidth/2
		containerH = g.consequencesHeight
	}
	top := g.height/2 - containerH/2
	y := top + float64(i)*(componentHeight+componentMarginBottom) + componentHeight/2
	return x, y
}

// edgePoints returns the start (component edge) and end (event circle) of
// the i-th edge on one side.
func (g geometry) edgePoints(i int, cause bool) (x1, y1, x2, y2 float64) {
	cx, cy := g.componentCenter(i, cause)
	if cause {
		return cx + g.boxWidth/2, cy, g.width/2 - g.eventRadius, g.height / 2
	}
	return cx - g.boxWidth/2, cy, g.width/2 + g.eventRadius, g.height / 2
}

func renderComponents(buf *bytes.Buffer, g geometry, lines []layout.Line, cause bool) {
	for i, line := range lines {
		x, y := g.componentCenter(i, cause)
		fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="white" stroke="black"/>`+"\n",
			x-g.boxWidth/2, y-componentHeight/2, g.boxWidth, componentHeight)
		fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
			x, y, escape(line.Node))
	}
}

func renderEdges(buf *bytes.Buffer, g geometry, lines []layout.Line, cause bool) {
	for i := range lines {
		x1, y1, x2, y2 := g.edgePoints(i, cause)
		fmt.Fprintf(buf, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="black"/>`+"\n",
			x1, y1, x2, y2)
	}
}

func renderEvent(buf *bytes.Buffer, g geometry, event string) {
	fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="white" stroke="black"/>`+"\n",
		g.width/2, g.height/2, g.eventRadius)
	fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">%s</text>`+"\n",
		g.width/2, g.height/2, escape(event))
}

// renderBarriers draws one tick per barrier placement, positioned at the
// placement's fraction along its edge, numbered by the side legend.
func renderBarriers(buf *bytes.Buffer, g geometry, lines []layout.Line, cause bool) {
	ids := g.causeIDs
	if !cause {
		ids = g.consequenceIDs
	}
	for i, line := range lines {
		x1, y1, x2, y2 := g.edgePoints(i, cause)
		for _, p := range line.Barriers {
			bx := x1 + (x2-x1)*p.Fraction
			by := y1 + (y2-y1)*p.Fraction
			fmt.Fprintf(buf, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="white" stroke="black"/>`+"\n",
				bx-barrierTickWidth/2, by-componentHeight/2, barrierTickWidth, componentHeight)
			fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle">%d</text>`+"\n",
				bx, by, ids[p.Name])
		}
	}
}

// renderLegend writes the numbered barrier rows beneath one side's
// components: "[n] name" on the cause side, "name [n]" on the consequence
// side, mirroring the reading direction of each half.
func renderLegend(buf *bytes.Buffer, g geometry, cause bool) {
	names := g.causeLegend
	ids := g.causeIDs
	count := g.causeCount
	if !cause {
		names = g.consequenceLegend
		ids = g.consequenceIDs
		count = g.consequenceCount
	}
	for i, name := range names {
		x, y := g.componentCenter(count+1+i, cause)
		if cause {
			fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="start" dominant-baseline="middle">[%d] %s</text>`+"\n",
				x-g.boxWidth/2, y, ids[name], escape(name))
		} else {
			fmt.Fprintf(buf, `  <text x="%.1f" y="%.1f" text-anchor="end" dominant-baseline="middle">%s [%d]</text>`+"\n",
				x+g.boxWidth/2, y, escape(name), ids[name])
		}
	}
}

// escape replaces the XML special characters in text content.
func escape(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
