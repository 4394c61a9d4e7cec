package sink

import (
	"encoding/json"

	"github.com/risklens/bowtie/pkg/layout"
)

// JSONOption configures JSON rendering via [RenderJSON].
type JSONOption func(*jsonRenderer)

type jsonRenderer struct {
	geometry bool
}

// WithJSONGeometry includes the derived SVG canvas dimensions in the output,
// so a web renderer can reserve space before drawing.
func WithJSONGeometry() JSONOption { return func(r *jsonRenderer) { r.geometry = true } }

type jsonOutput struct {
	layout.Layout
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// RenderJSON serializes the layout model for external renderers. The output
// contains the title, event, per-edge barrier placements with fractional
// offsets, and every barrier's full target list for cross-edge labeling.
func RenderJSON(l layout.Layout, opts ...JSONOption) ([]byte, error) {
	r := jsonRenderer{}
	for _, opt := range opts {
		opt(&r)
	}

	out := jsonOutput{Layout: l}
	if r.geometry {
		g := newGeometry(l, true)
		out.Width = g.width
		out.Height = g.height
	}
	return json.MarshalIndent(out, "", "  ")
}
