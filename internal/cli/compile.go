package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/pipeline"
)

// compileOpts holds the command-line flags for the compile command.
type compileOpts struct {
	output  string // output file path ("" means stdout)
	noCache bool   // disable the compile cache
	refresh bool   // bypass cached entries for this run
	quiet   bool   // suppress status output, print only the model
}

// compileCommand creates the compile command.
// It parses, builds, and validates a document and emits the graph model as
// JSON. Validation problems are accumulated and reported together.
func (c *CLI) compileCommand() *cobra.Command {
	var opts compileOpts

	cmd := &cobra.Command{
		Use:   "compile [file]",
		Short: "Compile a bowtie document into its graph model",
		Long: `Compile parses a bowtie document, builds the causal graph, and validates it.

On success the confirmed graph is written as JSON. Parsing stops at the
first malformed line; validation checks the whole document and reports
every defect with its line number. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCompile(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the compile cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompile even if cached")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress status output")

	return cmd
}

func (c *CLI) runCompile(cmd *cobra.Command, input string, opts *compileOpts) error {
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

	g, cached, err := runner.CompileWithCacheInfo(ctx, pipeline.Options{
		Source:  source,
		Refresh: opts.refresh,
		Logger:  c.Logger,
	})
	if err != nil {
		printIssues(err)
		return ErrReported
	}

	data, err := json.MarshalIndent(graph.Export(g), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	out, err := openOutput(opts.output)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return err
	}

	if !opts.quiet && opts.output != "" {
		printSuccess("Compiled %s", input)
		printStats(len(g.Causes()), len(g.Consequences()), len(g.Barriers()), cached)
		printFile(opts.output)
	}
	return nil
}
