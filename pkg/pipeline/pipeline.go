// Package pipeline runs the complete arrangement pipeline for Warren.
//
// This package implements the load → normalize → arrange → layout → render
// pipeline used by the CLI and the HTTP server. Centralizing it keeps seed
// retries, caching and defaults identical across entry points.
//
// # Architecture
//
// The pipeline consists of two cached stages:
//
//  1. Arrange: resolve the configuration's pools, normalize the arm tree for a
//     seed and run the backtracking search. Seeds are retried with
//     [rng.Derive] until an arrangement completes or the attempts run out.
//  2. Render: draw the trimmed layout in the requested formats.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	cfg, err := config.Load("crypt.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := runner.Execute(ctx, cfg, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// An arrangement that never completes is still returned: Execute and Arrange
// hand back the deepest partial layout together with a GENERATION_FAILED,
// BUDGET_EXHAUSTED or TIMEOUT error. Callers must check the error before
// treating a layout as finished.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/warren/pkg/arrange"
	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/cache"
	"github.com/matzehuels/warren/pkg/config"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
	"github.com/matzehuels/warren/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultAttempts is the number of seeds tried before giving up.
	DefaultAttempts = 8

	// DefaultMaxAttempts is the candidate budget of a single seed. It keeps a
	// hopeless configuration from searching forever.
	DefaultMaxAttempts = 200_000

	// DefaultStyle is the default visual style.
	DefaultStyle = "simple"

	// DefaultFormat is the format rendered when none is requested.
	DefaultFormat = render.FormatSVG
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains everything besides the configuration that shapes a run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Arrange options
	Seed        string `json:"seed,omitempty"`         // Overrides the configuration seed
	Attempts    int    `json:"attempts,omitempty"`     // Seeds to try
	MaxAttempts int    `json:"max_attempts,omitempty"` // Candidate budget per seed, negative for unlimited
	Margin      int    `json:"margin,omitempty"`       // Empty cells around the layout, negative for none
	Refresh     bool   `json:"refresh,omitempty"`      // Skip cache reads

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Style    string   `json:"style,omitempty"`
	CellSize int      `json:"cell_size,omitempty"`
	Labels   bool     `json:"labels,omitempty"`
	Scale    float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger   *log.Logger                        `json:"-"`
	Registry *builder.Registry                  `json:"-"` // Template kinds, nil for the built-in ones
	Progress func(seed string, s arrange.Stats) `json:"-"`
	Trace    func(seed string, e arrange.Event) `json:"-"` // Every search event; slows large searches

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Config is the configuration that was arranged.
	Config *config.Configuration

	// ConfigHash is the content hash of the configuration.
	ConfigHash string

	// Layout is the trimmed arrangement. It is partial when Execute also
	// returns an incomplete error.
	Layout *layout.Layout

	// LayoutHash is the content hash of the layout, excluding its id.
	LayoutHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and search information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Tries       int           // Seeds arranged, 0 on a cache hit
	Search      arrange.Stats // Search statistics of the returned layout
	ArrangeTime time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit bool // Whether the layout came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !render.ValidFormat(format) {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: %v)", format, render.Formats())
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

// ValidateStyle checks that a style is valid.
func ValidateStyle(style string) error {
	if _, ok := render.LookupStyle(style); !ok {
		return errors.New(errors.ErrCodeInvalidStyle, "invalid style: %q (must be one of: %v)", style, render.StyleNames())
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults for the full
// pipeline. This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForArrange(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetArrangeDefaults sets default values for arrangement.
func (o *Options) SetArrangeDefaults() {
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Margin == 0 {
		o.Margin = layout.DefaultMargin
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForArrange validates and sets defaults for arrangement.
func (o *Options) ValidateForArrange() error {
	o.SetArrangeDefaults()
	if o.Seed != "" {
		return errors.ValidateSeed(o.Seed)
	}
	return nil
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if o.Style == "" {
		o.Style = DefaultStyle
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	return ValidateStyle(o.Style)
}

// EffectiveSeed returns the seed override or, without one, the seed of cfg.
func (o *Options) EffectiveSeed(cfg *config.Configuration) string {
	if o.Seed != "" {
		return o.Seed
	}
	return cfg.Seed
}

// LayoutKeyOpts returns cache key options for the arrangement of cfg.
func (o *Options) LayoutKeyOpts(cfg *config.Configuration) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Seed:        o.EffectiveSeed(cfg),
		Attempts:    o.Attempts,
		MaxAttempts: o.MaxAttempts,
		Margin:      o.Margin,
	}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Style:    o.Style,
		CellSize: o.CellSize,
		Labels:   o.Labels,
		Scale:    o.Scale,
	}
}

// RenderOptions returns the renderer options.
func (o *Options) RenderOptions() render.Options {
	return render.Options{
		Style:    o.Style,
		CellSize: o.CellSize,
		Labels:   o.Labels,
		Scale:    o.Scale,
	}
}
