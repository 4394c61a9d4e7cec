package cli

import (
	stderrors "errors"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/risklens/bowtie/pkg/errors"
	"github.com/risklens/bowtie/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple formats)
	formats  []string // output formats: svg, json, dot, png, pdf
	engine   string   // render engine: bowtie or graphviz
	noLegend bool     // omit the barrier legend
	noBorder bool     // omit the canvas border
	scale    float64  // raster scale for PNG output
	noCache  bool     // disable the compile cache
	refresh  bool     // bypass cached entries for this run
}

// renderCommand creates the render command for generating diagrams.
// It supports SVG, JSON, DOT, PDF, and PNG output formats.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	opts := renderOpts{scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a bowtie document as a diagram",
		Long: `Render compiles a bowtie document and draws it.

The default output is SVG with the central event as a circle, causes on
the left, consequences on the right, and barriers as numbered ticks on
their edges. Multiple formats can be rendered in one run with a
comma-separated --format list. --engine graphviz draws svg/png/pdf
through Graphviz instead of the built-in bowtie drawing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if err := pipeline.ValidateEngine(opts.engine); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), json, dot, pdf, png (comma-separated)")
	cmd.Flags().StringVar(&opts.engine, "engine", pipeline.EngineBowtie, "render engine: bowtie (default) or graphviz")
	cmd.Flags().BoolVar(&opts.noLegend, "no-legend", false, "omit the barrier legend")
	cmd.Flags().BoolVar(&opts.noBorder, "no-border", false, "omit the canvas border")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "raster scale for png output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the compile cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even if cached")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	ctx := cmd.Context()

	source, err := readDocument(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	result, err := runner.Execute(ctx, pipeline.Options{
		Source:   source,
		Formats:  opts.formats,
		Engine:   opts.engine,
		NoLegend: opts.noLegend,
		NoBorder: opts.noBorder,
		Scale:    opts.scale,
		Refresh:  opts.refresh,
		Logger:   c.Logger,
	})
	if err != nil {
		if isCompileError(err) {
			printIssues(err)
			return ErrReported
		}
		return err
	}

	printSuccess("Rendered %s", input)
	printStats(result.Stats.CauseCount, result.Stats.ConsequenceCount, result.Stats.BarrierCount, result.CacheInfo.CompileHit)

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		path := opts.output
		if path == "" || len(opts.formats) > 1 {
			path = base + "." + format
		}

		out, err := openOutput(path)
		if err != nil {
			return err
		}
		if _, err := out.Write(result.Artifacts[format]); err != nil {
			out.Close()
			return err
		}
		out.Close()
		printFile(path)
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// isCompileError reports whether err carries a structured compile failure
// that printIssues can format.
func isCompileError(err error) bool {
	if _, ok := errors.AsIssues(err); ok {
		return true
	}
	var e *errors.Error
	return stderrors.As(err, &e)
}
