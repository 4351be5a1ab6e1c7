package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/warren/pkg/errors"
	"github.com/matzehuels/warren/pkg/layout"
	"github.com/matzehuels/warren/pkg/pipeline"
)

// renderCommand creates the render command for drawing an existing layout.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		f        renderFlags
		storeDir string
	)

	cmd := &cobra.Command{
		Use:   "render [layout.json | id]",
		Short: "Render a saved layout",
		Long: `Render a saved layout without arranging it again.

The argument is either a layout file (as written by 'arrange -f json') or the
id of a layout saved with 'arrange --save'.`,
		Example: `  warren render crypt.json -f svg,png --style blueprint
  warren render 3f1c2a4e-... -f ascii`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], storeDir, f)
		},
	}

	f.register(cmd)
	cmd.Flags().StringVar(&storeDir, "store-dir", "", storeDirHelp)

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input, storeDir string, f renderFlags) error {
	l, err := loadLayout(ctx, input, storeDir)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(f.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	var opts pipeline.Options
	f.apply(&opts)
	opts.Logger = c.Logger

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, hit, err := runner.RenderWithCacheInfo(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	// Outputs of a stored layout are named after its id.
	source := input
	if l.ID == input {
		source = ""
	}
	paths, err := writeArtifacts(artifacts, opts.Formats, basePath(f.output, input), source)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printSuccess("Rendered %s", l.Seed)
	for _, p := range paths {
		printFile(p)
	}
	printStats(layoutStats{rooms: len(l.Rooms), arms: len(l.Arms), complete: l.Complete, cached: hit})
	return nil
}

// loadLayout reads a layout file, or loads the layout from the store when
// input is a layout id.
func loadLayout(ctx context.Context, input, storeDir string) (*layout.Layout, error) {
	if errors.ValidateLayoutID(input) != nil {
		return layout.ReadFile(input)
	}
	st, err := openStore(ctx, storeDir, "")
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(ctx, input)
}
