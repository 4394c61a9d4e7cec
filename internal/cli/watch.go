package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/risklens/bowtie/pkg/pipeline"
)

// debounceDelay coalesces bursts of filesystem events from editors that
// write files in several steps.
const debounceDelay = 100 * time.Millisecond

// watchOpts holds the command-line flags for the watch command.
type watchOpts struct {
	output   string // output file path ("" derives from input)
	format   string // output format
	noLegend bool
	noBorder bool
	scale    float64
	noCache  bool
}

// watchCommand creates the watch command.
// It re-renders a document whenever the file changes on disk and shows a
// live status view in the terminal.
func (c *CLI) watchCommand() *cobra.Command {
	opts := watchOpts{format: pipeline.FormatSVG, scale: pipeline.DefaultScale}

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Re-render a document whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(opts.format); err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default derived from input)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), json, dot, pdf, png")
	cmd.Flags().BoolVar(&opts.noLegend, "no-legend", false, "omit the barrier legend")
	cmd.Flags().BoolVar(&opts.noBorder, "no-border", false, "omit the canvas border")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "raster scale for png output")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the compile cache")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, input string, opts *watchOpts) error {
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	output := opts.output
	if output == "" {
		output = basePath("", input) + "." + opts.format
	}

	// Watch the directory rather than the file itself: editors replace
	// files via rename, which drops a direct file watch.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	p := tea.NewProgram(newWatchModel(input, output))

	render := func() {
		start := time.Now()
		result, err := c.renderOnce(ctx, runner, input, output, opts)
		msg := watchRenderMsg{duration: time.Since(start), err: err}
		if err == nil {
			msg.stats = result.Stats
			msg.cached = result.CacheInfo.CompileHit
		}
		p.Send(msg)
	}

	go func() {
		render()

		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				p.Quit()
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceDelay, func() {
					p.Send(watchChangeMsg{})
					render()
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				p.Send(watchRenderMsg{err: err})
			}
		}
	}()

	_, err = p.Run()
	return err
}

// renderOnce compiles and renders the document a single time.
func (c *CLI) renderOnce(ctx context.Context, runner *pipeline.Runner, input, output string, opts *watchOpts) (*pipeline.Result, error) {
	source, err := readDocument(input)
	if err != nil {
		return nil, err
	}

	result, err := runner.Execute(ctx, pipeline.Options{
		Source:   source,
		Formats:  []string{opts.format},
		NoLegend: opts.noLegend,
		NoBorder: opts.noBorder,
		Scale:    opts.scale,
		Logger:   c.Logger,
	})
	if err != nil {
		return nil, err
	}

	if err := os.WriteFile(output, result.Artifacts[opts.format], 0o644); err != nil {
		return nil, err
	}
	return result, nil
}
