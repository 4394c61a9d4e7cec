// Package bowtie is the one-call facade over the compile pipeline.
//
// For callers that just want a diagram from a document, Generate compiles
// the text and renders a single format in one step:
//
//	svg, err := bowtie.Generate(input, bowtie.FormatSVG)
//	if err != nil {
//	    // *errors.Error for parse/structural failures,
//	    // errors.Issues for accumulated validation defects
//	}
//	os.WriteFile("diagram.svg", svg, 0644)
//
// Embedders that need caching, multiple formats, or stage-level control
// should use pkg/pipeline directly.
package bowtie

import (
	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/layout"
	"github.com/risklens/bowtie/pkg/pipeline"
)

// Output formats accepted by Generate.
const (
	FormatSVG  = pipeline.FormatSVG
	FormatJSON = pipeline.FormatJSON
	FormatDOT  = pipeline.FormatDOT
	FormatPNG  = pipeline.FormatPNG
	FormatPDF  = pipeline.FormatPDF
)

// Generate compiles a bowtie document and renders it in the given format.
func Generate(input, format string) ([]byte, error) {
	g, err := Compile(input)
	if err != nil {
		return nil, err
	}
	l := pipeline.GenerateLayout(g)
	artifacts, err := pipeline.Render(l, g, pipeline.Options{Source: input, Formats: []string{format}})
	if err != nil {
		return nil, err
	}
	return artifacts[format], nil
}

// Compile parses, builds, and validates a document, returning the confirmed graph.
func Compile(input string) (*graph.Graph, error) {
	return pipeline.Compile(input)
}

// Layout compiles a document and computes its position model.
func Layout(input string) (layout.Layout, error) {
	g, err := Compile(input)
	if err != nil {
		return layout.Layout{}, err
	}
	return pipeline.GenerateLayout(g), nil
}
