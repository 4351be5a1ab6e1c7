package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/warren/pkg/arrange"
	"github.com/matzehuels/warren/pkg/config"
	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/pipeline"
)

// arrangeFlags holds the flags of the arrange command.
type arrangeFlags struct {
	renderFlags
	seed        string
	attempts    int
	maxAttempts int
	margin      int
	refresh     bool
	save        bool
	storeDir    string
	watch       bool
	trace       bool
}

// arrangeCommand creates the arrange command, which runs the full pipeline.
func (c *CLI) arrangeCommand() *cobra.Command {
	var f arrangeFlags

	cmd := &cobra.Command{
		Use:   "arrange [config]",
		Short: "Arrange a dungeon configuration and render it",
		Long: `Arrange a dungeon configuration and render it.

The configuration (TOML, YAML or JSON, chosen by extension) declares the
template pools and the arm tree. Warren searches for a placement of every
room; when a seed cannot be completed it retries with derived seeds
("seed#1", "seed#2", ...) up to --attempts times.

Outputs are written next to the configuration unless -o is given, one file
per format. When no seed completes, the largest partial layout is still
written for inspection and the command fails.

Results are cached locally for faster subsequent runs. With --watch the
command keeps running and re-arranges after every saved change.`,
		Example: `  warren arrange crypt.toml
  warren arrange crypt.toml -f ascii,svg,json --seed tomb
  warren arrange crypt.yaml -o out/crypt --style blueprint --labels --save
  warren arrange crypt.toml -f ascii --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.watch {
				return c.watchArrange(cmd.Context(), args[0], f)
			}
			return c.runArrange(cmd.Context(), args[0], f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&f.seed, "seed", "", "override the configuration seed")
	cmd.Flags().IntVar(&f.attempts, "attempts", pipeline.DefaultAttempts, "seeds to try before giving up")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", pipeline.DefaultMaxAttempts, "candidate budget per seed, negative for unlimited")
	cmd.Flags().IntVar(&f.margin, "margin", 0, "empty cells around the layout, negative for none (default 1)")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "ignore cached layouts")
	cmd.Flags().BoolVar(&f.save, "save", false, "save the layout to the local store")
	cmd.Flags().StringVar(&f.storeDir, "store-dir", "", storeDirHelp)
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "re-arrange whenever the configuration changes")
	cmd.Flags().BoolVar(&f.trace, "trace", false, "log every placement, rejection and backtrack (implies --verbose and --refresh)")

	return cmd
}

func (f arrangeFlags) options() pipeline.Options {
	opts := pipeline.Options{
		Seed:        f.seed,
		Attempts:    f.attempts,
		MaxAttempts: f.maxAttempts,
		Margin:      f.margin,
		Refresh:     f.refresh,
	}
	f.renderFlags.apply(&opts)
	return opts
}

// runArrange loads the configuration, runs the pipeline and writes outputs.
func (c *CLI) runArrange(ctx context.Context, input string, f arrangeFlags) error {
	cfg, err := config.Load(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts := f.options()
	opts.Logger = c.Logger
	if f.trace {
		c.SetLogLevel(LogDebug)
		opts.Refresh = true
		opts.Trace = c.traceEvent
	}

	spinner := newSpinnerWithContext(ctx, "Arranging "+opts.EffectiveSeed(cfg)+"...")
	opts.Progress = func(seed string, s arrange.Stats) {
		spinner.Update(searchStatus(seed, s))
	}
	prog := newProgress(c.Logger)
	spinner.Start()

	result, err := runner.Execute(ctx, cfg, opts)
	if result == nil {
		spinner.StopWithError("Arrangement failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	l := result.Layout
	paths, werr := writeArtifacts(result.Artifacts, opts.Formats, basePath(f.output, input), input)
	if werr != nil {
		return fmt.Errorf("write output: %w", werr)
	}

	stats := layoutStats{
		rooms:    len(l.Rooms),
		arms:     len(l.Arms),
		tries:    result.Stats.Tries,
		complete: l.Complete,
		cached:   result.CacheInfo.LayoutHit,
	}

	if err != nil {
		printWarning("Arrangement incomplete: %s", errors.UserMessage(err))
		for _, p := range paths {
			printFile(p)
		}
		printStats(stats)
		return err
	}

	printSuccess("Arranged %s", l.Seed)
	for _, p := range paths {
		printFile(p)
	}
	printStats(stats)
	c.Logger.Debug("search",
		"attempts", l.Stats.Attempts,
		"rejections", l.Stats.Rejections,
		"backtracks", l.Stats.Backtracks,
		"max_depth", l.Stats.MaxDepth)
	prog.done(fmt.Sprintf("Arranged %d rooms", len(l.Rooms)))

	if f.save {
		st, err := openStore(ctx, f.storeDir, "")
		if err != nil {
			return err
		}
		defer st.Close()
		id, err := st.Save(ctx, l)
		if err != nil {
			return err
		}
		printKeyValue("saved", id)
		fmt.Println()
		printNextStep("Inspect", appName+" inspect "+id)
	}
	return nil
}

// traceEvent logs one search event at debug level.
func (c *CLI) traceEvent(seed string, e arrange.Event) {
	c.Logger.Debug(e.Kind.String(),
		"seed", seed,
		"arm", e.Node,
		"step", e.Step,
		"pool", e.Pool,
		"template", e.Template,
		"depth", e.Depth)
}
