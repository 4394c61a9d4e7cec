// Package pipeline provides the core compile pipeline for bowtie documents.
//
// This package implements the complete parse → build → validate → layout →
// render pipeline that can be used by the CLI, the HTTP API, and embedding
// applications. By centralizing this logic, we ensure consistent behavior
// across all entry points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of three externally visible stages:
//
//  1. Compile: tokenize the document, build the bowtie graph, validate it
//  2. Layout: compute deterministic positions for nodes and barriers
//  3. Render: generate output in various formats (SVG, JSON, DOT, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
// Parsing and building halt at the first error; validation accumulates every
// defect and returns them together as an errors.Issues value.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  documentText,
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	g, err := pipeline.Compile(documentText)
//	l := pipeline.GenerateLayout(g)
//	artifacts, err := pipeline.Render(l, g, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/risklens/bowtie/pkg/errors"
	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/layout"
	"github.com/risklens/bowtie/pkg/parser"
	"github.com/risklens/bowtie/pkg/render"
	"github.com/risklens/bowtie/pkg/render/sink"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// DefaultScale is the default raster scale factor for PNG output.
const DefaultScale = 2.0

// Render engines. The bowtie engine draws the two-sided diagram directly;
// the graphviz engine lays the graph out with Graphviz via the DOT export.
const (
	EngineBowtie   = "bowtie"
	EngineGraphviz = "graphviz"
)

// ValidateEngine checks that an engine name is valid. Empty selects the
// default bowtie engine.
func ValidateEngine(engine string) error {
	switch engine {
	case "", EngineBowtie, EngineGraphviz:
		return nil
	}
	return fmt.Errorf("invalid engine: %q (must be one of: bowtie, graphviz)", engine)
}

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatJSON: true,
	FormatDOT:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: svg, json, dot, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// Options contains all configuration for the compile pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Source is the bowtie document text.
	Source string `json:"source"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Engine   string   `json:"engine,omitempty"`    // render engine: bowtie (default) or graphviz
	NoLegend bool     `json:"no_legend,omitempty"` // omit the barrier legend in SVG output
	NoBorder bool     `json:"no_border,omitempty"` // omit the canvas border in SVG output
	Scale    float64  `json:"scale,omitempty"`     // raster scale for PNG output

	// Refresh bypasses the cache for this invocation.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the confirmed bowtie graph.
	Graph *graph.Graph

	// DocHash is the content hash of the source document.
	DocHash string

	// Layout contains the computed position model.
	Layout layout.Layout

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	CauseCount       int
	ConsequenceCount int
	BarrierCount     int
	CompileTime      time.Duration
	LayoutTime       time.Duration
	RenderTime       time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	CompileHit bool // Whether the compiled graph came from cache
	LayoutHit  bool // Whether the layout came from cache
	RenderHit  bool // Whether all artifacts came from cache
}

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCompile(); err != nil {
		return err
	}
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if err := ValidateEngine(o.Engine); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForCompile checks required fields for compilation.
func (o *Options) ValidateForCompile() error {
	if o.Source == "" {
		return fmt.Errorf("source document is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.Engine == "" {
		o.Engine = EngineBowtie
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Compile tokenizes, builds, and validates a bowtie document.
//
// The error is a single *errors.Error for parse and structural failures
// (which halt at first occurrence) or an errors.Issues list carrying every
// validation defect found across the whole document. Use errors.AsIssues to
// distinguish the two.
func Compile(source string) (*graph.Graph, error) {
	records, err := parser.ParseString(source)
	if err != nil {
		return nil, err
	}
	g, err := graph.Build(records)
	if err != nil {
		return nil, err
	}
	if issues := graph.Validate(g); issues != nil {
		return nil, issues
	}
	return g, nil
}

// GenerateLayout computes the deterministic position model for a confirmed graph.
func GenerateLayout(g *graph.Graph) layout.Layout {
	return layout.Build(g)
}

// Render generates output artifacts in the requested formats.
// The graph may be nil when rendering from a cached layout; formats that
// need it (dot, the graphviz engine) reconstruct it from the layout.
func Render(l layout.Layout, g *graph.Graph, opts Options) (map[string][]byte, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}
	if err := ValidateEngine(opts.Engine); err != nil {
		return nil, err
	}

	graphviz := opts.Engine == EngineGraphviz
	svgOpts := buildSVGOptions(opts)
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatSVG:
			if graphviz {
				data, err = sink.RenderDOTSVG(sink.ToDOT(graphFor(l, g)))
			} else {
				data = sink.RenderSVG(l, svgOpts...)
			}
		case FormatJSON:
			data, err = sink.RenderJSON(l, sink.WithJSONGeometry())
		case FormatDOT:
			data = []byte(sink.ToDOT(graphFor(l, g)))
		case FormatPNG:
			if graphviz {
				data, err = sink.RenderDOTPNG(sink.ToDOT(graphFor(l, g)), opts.Scale)
			} else {
				data, err = render.ToPNG(sink.RenderSVG(l, svgOpts...), opts.Scale)
			}
		case FormatPDF:
			if graphviz {
				data, err = sink.RenderDOTPDF(sink.ToDOT(graphFor(l, g)))
			} else {
				data, err = render.ToPDF(sink.RenderSVG(l, svgOpts...))
			}
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "render %s", format)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}

// graphFor returns g, or reconstructs a graph from the layout when the
// caller rendered from cached layout data.
func graphFor(l layout.Layout, g *graph.Graph) *graph.Graph {
	if g != nil {
		return g
	}
	doc := graph.Document{Title: l.Title, Event: l.Event}
	for _, line := range l.Causes {
		doc.Causes = append(doc.Causes, graph.NodeLine{Name: line.Node})
	}
	for _, line := range l.Consequences {
		doc.Consequences = append(doc.Consequences, graph.NodeLine{Name: line.Node})
	}
	for _, ref := range l.Barriers {
		doc.Barriers = append(doc.Barriers, graph.BarrierEntry{Name: ref.Name, Targets: ref.Targets})
	}
	return graph.Import(doc)
}

// buildSVGOptions builds SVG rendering options.
func buildSVGOptions(opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.NoLegend {
		svgOpts = append(svgOpts, sink.WithoutLegend())
	}
	if opts.NoBorder {
		svgOpts = append(svgOpts, sink.WithoutBorder())
	}
	return svgOpts
}
