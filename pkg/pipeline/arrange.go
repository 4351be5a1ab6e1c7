package pipeline

import (
	"context"

	"github.com/matzehuels/warren/pkg/arm"
	"github.com/matzehuels/warren/pkg/arrange"
	"github.com/matzehuels/warren/pkg/config"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
	"github.com/matzehuels/warren/pkg/rng"
)

// Arrange arranges cfg without caching and returns the layout together with
// the number of seeds tried.
//
// Seed i is rng.Derive(seed, i). The first complete arrangement wins. When
// every seed fails, the deepest partial layout is returned with a
// GENERATION_FAILED error wrapping the last search error; cancellation stops
// the retries and returns the best partial layout with the TIMEOUT error.
// Configuration errors and inconsistent pools return a nil layout.
func Arrange(ctx context.Context, cfg *config.Configuration, opts Options) (*layout.Layout, int, error) {
	if cfg == nil {
		return nil, 0, errors.New(errors.ErrCodeInvalidInput, "arrange: configuration is nil")
	}
	if err := opts.ValidateForArrange(); err != nil {
		return nil, 0, err
	}

	spec, err := cfg.Resolve(opts.Registry)
	if err != nil {
		return nil, 0, err
	}

	base := opts.EffectiveSeed(cfg)
	var (
		best    *arrange.Result
		lastErr error
		tries   int
	)
	for i := 0; i < opts.Attempts; i++ {
		seed := rng.Derive(base, i)
		tries = i + 1

		tree, err := arm.Normalize(spec, rng.New(seed))
		if err != nil {
			return nil, tries, err
		}

		res, err := arranger(cfg, opts, seed).Arrange(ctx, tree, cfg.Start)
		if err == nil {
			opts.Logger.Debug("arranged", "seed", seed, "rooms", res.Stats.Placed, "attempts", res.Stats.Attempts)
			return layout.Build(res, layout.WithMargin(opts.Margin)), tries, nil
		}
		if !errors.IsIncomplete(err) {
			return nil, tries, err
		}

		opts.Logger.Debug("arrangement incomplete",
			"seed", seed,
			"placed", res.Stats.Placed,
			"rooms", tree.Rooms(),
			"code", errors.GetCode(err))
		if best == nil || res.Stats.Placed > best.Stats.Placed {
			best = res
		}
		lastErr = err
		if errors.Is(err, errors.ErrCodeTimeout) {
			return layout.Build(best, layout.WithMargin(opts.Margin)), tries, err
		}
	}

	return layout.Build(best, layout.WithMargin(opts.Margin)), tries,
		errors.Wrap(errors.ErrCodeGenerationFailed, lastErr,
			"no complete arrangement after %d seeds (best %d rooms, seed %q)", tries, best.Stats.Placed, best.Seed)
}

func arranger(cfg *config.Configuration, opts Options, seed string) *arrange.Arranger {
	aopts := []arrange.Option{
		arrange.WithMaxAttempts(opts.MaxAttempts),
		arrange.WithLogger(opts.Logger),
	}
	if opts.Progress != nil {
		progress := opts.Progress
		aopts = append(aopts, arrange.WithProgress(0, func(s arrange.Stats) { progress(seed, s) }))
	}
	if opts.Trace != nil {
		trace := opts.Trace
		aopts = append(aopts, arrange.WithTrace(func(e arrange.Event) { trace(seed, e) }))
	}
	return arrange.New(cfg.Oracle(), aopts...)
}
