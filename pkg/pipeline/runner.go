package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/warren/pkg/arrange"
	"github.com/matzehuels/warren/pkg/cache"
	"github.com/matzehuels/warren/pkg/config"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
	"github.com/matzehuels/warren/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it so caching and retries behave the same everywhere.
//
// The Runner is stateless except for the cache and logger; it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
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

// Execute runs the complete arrange → render pipeline with caching.
//
// When the arrangement is incomplete the partial layout is still rendered and
// the result is returned together with the incomplete error.
func (r *Runner) Execute(ctx context.Context, cfg *config.Configuration, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{
		Config:    cfg,
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Arrange
	arrangeStart := time.Now()
	l, tries, layoutHit, arrangeErr := r.arrange(ctx, cfg, opts)
	if l == nil {
		return nil, fmt.Errorf("arrange: %w", arrangeErr)
	}
	result.Layout = l
	result.ConfigHash, _ = cache.HashJSON(cfg)
	result.Stats.ArrangeTime = time.Since(arrangeStart)
	result.Stats.Tries = tries
	result.Stats.Search = arrange.Stats(l.Stats)
	result.CacheInfo.LayoutHit = layoutHit

	if arrangeErr != nil {
		r.Logger.Warn("arrangement incomplete",
			"seed", l.Seed,
			"rooms", len(l.Rooms),
			"tries", tries,
			"error", errors.UserMessage(arrangeErr))
	} else {
		r.Logger.Info("arranged layout",
			"seed", l.Seed,
			"rooms", len(l.Rooms),
			"tries", tries,
			"cached", layoutHit,
			"duration", result.Stats.ArrangeTime)
	}

	// Stage 2: Render
	renderStart := time.Now()
	artifacts, hash, renderHit, err := r.render(ctx, l, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.LayoutHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, arrangeErr
}

// ArrangeWithCacheInfo arranges cfg with caching and returns cache hit info.
// Only complete layouts are cached. An incomplete arrangement returns the
// partial layout together with its error.
func (r *Runner) ArrangeWithCacheInfo(ctx context.Context, cfg *config.Configuration, opts Options) (*layout.Layout, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForArrange(); err != nil {
		return nil, false, err
	}
	l, _, hit, err := r.arrange(ctx, cfg, opts)
	return l, hit, err
}

// Arrange is a convenience wrapper that calls ArrangeWithCacheInfo and discards the cache hit info.
func (r *Runner) Arrange(ctx context.Context, cfg *config.Configuration, opts Options) (*layout.Layout, error) {
	l, _, err := r.ArrangeWithCacheInfo(ctx, cfg, opts)
	return l, err
}

func (r *Runner) arrange(ctx context.Context, cfg *config.Configuration, opts Options) (*layout.Layout, int, bool, error) {
	if cfg == nil {
		return nil, 0, false, errors.New(errors.ErrCodeInvalidInput, "arrange: configuration is nil")
	}

	configHash, err := cache.HashJSON(cfg)
	if err != nil {
		return nil, 0, false, errors.Wrap(errors.ErrCodeInvalidConfig, err, "hash configuration")
	}
	cacheKey := r.Keyer.LayoutKey(configHash, opts.LayoutKeyOpts(cfg))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if cached, err := layout.Unmarshal(data); err == nil && cached.Complete {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, 0, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	seed := opts.EffectiveSeed(cfg)
	hooks := observability.Pipeline()
	hooks.OnArrangeStart(ctx, seed, cfg.Arm.Count())
	start := time.Now()

	l, tries, err := Arrange(ctx, cfg, opts)
	complete := l != nil && l.Complete
	hooks.OnArrangeComplete(ctx, seed, complete, tries, time.Since(start), err)
	if err != nil {
		return l, tries, false, err
	}

	// Cache the result
	if data, err := layout.Marshal(l); err == nil {
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLLayout); err != nil {
			r.Logger.Debug("cache layout failed", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, "layout", len(data))
		}
	}

	return l, tries, false, nil
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}
	artifacts, _, hit, err := r.render(ctx, l, opts)
	return artifacts, hit, err
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, l, opts)
	return artifacts, err
}

func (r *Runner) render(ctx context.Context, l *layout.Layout, opts Options) (map[string][]byte, string, bool, error) {
	if l == nil {
		return nil, "", false, errors.New(errors.ErrCodeInvalidInput, "render: layout is nil")
	}

	// Compute cache key from layout data
	layoutHash, err := LayoutHash(l)
	if err != nil {
		return nil, "", false, err
	}

	// Try to get all formats from cache
	artifacts := make(map[string][]byte, len(opts.Formats))
	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			data, hit, err := r.Cache.Get(ctx, cacheKey)
			if err != nil || !hit {
				observability.Cache().OnCacheMiss(ctx, "artifact")
				break
			}
			observability.Cache().OnCacheHit(ctx, "artifact")
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			return artifacts, layoutHash, true, nil // All artifacts from cache
		}
	}

	// Render all formats
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, l, opts)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, layoutHash, false, err
	}

	// Cache each format
	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		}
	}

	return rendered, layoutHash, false, nil // Cache miss
}

// LayoutHash returns the content hash of l. The store id is excluded so a
// saved layout renders from the same cache entries as the unsaved one.
func LayoutHash(l *layout.Layout) (string, error) {
	c := *l
	c.ID = ""
	h, err := cache.HashJSON(&c)
	if err != nil {
		return "", fmt.Errorf("serialize layout for cache key: %w", err)
	}
	return h, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
