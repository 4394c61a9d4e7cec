package sink

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/layout"
	"github.com/risklens/bowtie/pkg/parser"
)

const sampleDoc = `title Cyber Attacks
cause Phishing Emails
cause Malware Infection
cause Weak Passwords
cause Natural Disasters
event Loss of Sensitive Data
consequence Data Breach Disclosure
consequence Financial Loss
consequence Shutdown of Operations
consequence Legal Consequences
barrier Security Awareness Training: Phishing Emails
barrier Endpoint Protection: Malware Infection
barrier Multi-Factor Authentication: Weak Passwords
barrier Offsite Backups: Natural Disasters
barrier Incident Response Plan: Data Breach Disclosure
barrier Cyber Insurance: Financial Loss
barrier Legal Compliance: Shutdown of Operations, Legal Consequences
`

func sampleLayout(t *testing.T, doc string) (layout.Layout, *graph.Graph) {
	t.Helper()
	records, err := parser.ParseString(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	g, err := graph.Build(records)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if issues := graph.Validate(g); issues != nil {
		t.Fatalf("validate: %v", issues)
	}
	return layout.Build(g), g
}

func TestRenderSVGDeterministic(t *testing.T) {
	l, _ := sampleLayout(t, sampleDoc)
	a := RenderSVG(l)
	b := RenderSVG(l)
	if !bytes.Equal(a, b) {
		t.Error("same layout produced different SVG bytes")
	}
}

func TestRenderSVGContent(t *testing.T) {
	l, _ := sampleLayout(t, sampleDoc)
	svg := string(RenderSVG(l))

	for _, want := range []string{
		"<svg", "</svg>",
		"Cyber Attacks",
		"Loss of Sensitive Data",
		"Phishing Emails",
		"Legal Consequences",
		"<circle",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}

	// One tick rect per barrier placement: 4 cause + 4 consequence.
	// Plus 8 component boxes and the border rect.
	if got := strings.Count(svg, "<rect"); got != 8+8+1 {
		t.Errorf("rect count = %d, want 17", got)
	}

	// One edge line per component.
	if got := strings.Count(svg, "<line"); got != 8 {
		t.Errorf("line count = %d, want 8", got)
	}
}

func TestRenderSVGLegendNumbering(t *testing.T) {
	l, _ := sampleLayout(t, sampleDoc)
	svg := string(RenderSVG(l))

	// Cause-side legend rows read "[n] name"; consequence rows "name [n]".
	if !strings.Contains(svg, "[1] Security Awareness Training") {
		t.Error("missing first cause legend row")
	}
	if !strings.Contains(svg, "[4] Offsite Backups") {
		t.Error("missing last cause legend row")
	}
	// Consequence numbering continues after the cause side.
	if !strings.Contains(svg, "Incident Response Plan [5]") {
		t.Error("missing first consequence legend row")
	}
	if !strings.Contains(svg, "Legal Compliance [7]") {
		t.Error("missing shared-barrier legend row")
	}
	// A multi-target barrier gets ONE legend entry per side.
	if strings.Count(svg, "Legal Compliance") != 1 {
		t.Errorf("Legal Compliance legend entries = %d, want 1", strings.Count(svg, "Legal Compliance"))
	}
}

func TestRenderSVGWithoutLegend(t *testing.T) {
	l, _ := sampleLayout(t, sampleDoc)
	svg := string(RenderSVG(l, WithoutLegend()))
	if strings.Contains(svg, "[1]") {
		t.Error("legend rows present despite WithoutLegend")
	}
	// Ticks and the border are still drawn, just no legend rows.
	if got := strings.Count(svg, "<rect"); got != 8+8+1 {
		t.Errorf("rect count = %d, want 17", got)
	}
}

func TestRenderSVGWithoutBorder(t *testing.T) {
	l, _ := sampleLayout(t, sampleDoc)
	with := string(RenderSVG(l))
	without := string(RenderSVG(l, WithoutBorder()))
	if strings.Count(without, "<rect") != strings.Count(with, "<rect")-1 {
		t.Error("WithoutBorder should drop exactly one rect")
	}
}

func TestRenderSVGEscapesText(t *testing.T) {
	l, _ := sampleLayout(t, "title Risk <&> Reward\nevent E\n")
	svg := string(RenderSVG(l))
	if !strings.Contains(svg, "Risk &lt;&amp;&gt; Reward") {
		t.Error("title not escaped")
	}
	if strings.Contains(svg, "Risk <&> Reward") {
		t.Error("raw special characters leaked into SVG")
	}
}

func TestRenderSVGCanvasGrowsWithContent(t *testing.T) {
	small, _ := sampleLayout(t, "cause A\nevent E\n")
	big, _ := sampleLayout(t, "cause A Very Long Cause Name Indeed\nevent E\n")

	var smallW, bigW float64
	if _, err := fmt.Sscanf(firstViewBox(t, RenderSVG(small)), "0 0 %f", &smallW); err != nil {
		t.Fatal(err)
	}
	if _, err := fmt.Sscanf(firstViewBox(t, RenderSVG(big)), "0 0 %f", &bigW); err != nil {
		t.Fatal(err)
	}
	if bigW <= smallW {
		t.Errorf("wider names should widen the canvas: %v vs %v", smallW, bigW)
	}
}

func firstViewBox(t *testing.T, svg []byte) string {
	t.Helper()
	s := string(svg)
	i := strings.Index(s, `viewBox="`)
	if i < 0 {
		t.Fatal("no viewBox")
	}
	s = s[i+len(`viewBox="`):]
	return s[:strings.Index(s, `"`)]
}
