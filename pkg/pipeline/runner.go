package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/risklens/bowtie/pkg/cache"
	"github.com/risklens/bowtie/pkg/errors"
	"github.com/risklens/bowtie/pkg/graph"
	"github.com/risklens/bowtie/pkg/layout"
	"github.com/risklens/bowtie/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both the CLI and the HTTP API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options, since each compile is independent.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete compile → layout → render pipeline with caching.
//
// Compilation errors pass through unchanged, so callers can use
// errors.AsIssues to distinguish an accumulated validation report from a
// fatal parse or structural failure.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		DocHash:   cache.Hash([]byte(opts.Source)),
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Compile
	compileStart := time.Now()
	g, compileHit, err := r.CompileWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.CompileTime = time.Since(compileStart)
	result.Stats.CauseCount = len(g.Causes())
	result.Stats.ConsequenceCount = len(g.Consequences())
	result.Stats.BarrierCount = len(g.Barriers())
	result.CacheInfo.CompileHit = compileHit

	r.Logger.Info("compiled document",
		"causes", result.Stats.CauseCount,
		"consequences", result.Stats.ConsequenceCount,
		"barriers", result.Stats.BarrierCount,
		"duration", result.Stats.CompileTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	l, layoutHit, err := r.LayoutWithCacheInfo(ctx, result.DocHash, g, opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = l
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"edges", len(l.Causes)+len(l.Consequences),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, l, g, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// CompileWithCacheInfo compiles a document with caching and returns cache hit info.
// Only confirmed graphs are cached; compile errors are always recomputed.
func (r *Runner) CompileWithCacheInfo(ctx context.Context, opts Options) (*graph.Graph, bool, error) {
	if err := opts.ValidateForCompile(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	docHash := cache.Hash([]byte(opts.Source))
	cacheKey := r.Keyer.GraphKey(docHash)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if g, err := graph.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "graph")
				return g, true, nil // Cache hit
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	observability.Pipeline().OnCompileStart(ctx, docHash)
	start := time.Now()
	g, err := Compile(opts.Source)
	issueCount := 0
	if issues, ok := errors.AsIssues(err); ok {
		issueCount = len(issues)
	}
	observability.Pipeline().OnCompileComplete(ctx, docHash, issueCount, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := graph.Marshal(g); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLGraph)
		observability.Cache().OnCacheSet(ctx, "graph", len(data))
	}

	return g, false, nil // Cache miss
}

// Compile is a convenience wrapper that calls CompileWithCacheInfo and discards the cache hit info.
func (r *Runner) Compile(ctx context.Context, opts Options) (*graph.Graph, error) {
	g, _, err := r.CompileWithCacheInfo(ctx, opts)
	return g, err
}

// LayoutWithCacheInfo computes a layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, docHash string, g *graph.Graph, opts Options) (layout.Layout, bool, error) {
	cacheKey := r.Keyer.LayoutKey(docHash)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := layout.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	observability.Pipeline().OnLayoutStart(ctx, docHash)
	start := time.Now()
	l := GenerateLayout(g)
	observability.Pipeline().OnLayoutComplete(ctx, docHash, time.Since(start), nil)

	if data, err := layout.Marshal(l); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return l, false, nil // Cache miss
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l layout.Layout, g *graph.Graph, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from layout data
	layoutData, err := layout.Marshal(l)
	if err != nil {
		return nil, false, fmt.Errorf("serialize layout for cache key: %w", err)
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, artifactVariant(format, opts))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil // All artifacts from cache
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	observability.Pipeline().OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(l, g, opts)
	observability.Pipeline().OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, artifactVariant(format, opts))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil // Cache miss
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l layout.Layout, g *graph.Graph, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// artifactVariant folds render options that change output bytes into the
// artifact cache key.
func artifactVariant(format string, opts Options) string {
	return fmt.Sprintf("%s:engine=%s:legend=%t:border=%t:scale=%.2f",
		format, opts.Engine, !opts.NoLegend, !opts.NoBorder, opts.Scale)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
