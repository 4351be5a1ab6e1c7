// Package cli implements the warren command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/warren/pkg/buildinfo"
	"github.com/matzehuels/warren/pkg/cache"
	"github.com/matzehuels/warren/pkg/pipeline"
	"github.com/matzehuels/warren/pkg/render"
	"github.com/matzehuels/warren/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "warren"

	// envPrefix prefixes the environment variables read by serve.
	envPrefix = "WARREN_"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Warren arranges dungeon arms into non-overlapping room layouts",
		Long: `Warren builds dungeon layouts from a tree of arms. Each arm is a chain of
rooms drawn from template pools; a backtracking search places every room
without overlap and renders the result as ASCII, SVG, DOT, PNG or PDF.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.layoutsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	})

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// storeDirHelp describes the --store-dir flag.
const storeDirHelp = "layout store directory, or a .db file for SQLite (default: ~/.local/share/warren/layouts)"

// openStore opens the layout store in dir, or in the default data directory
// when dir is empty. A dir ending in .db or .sqlite is a SQLite database.
func openStore(ctx context.Context, dir, mongoURI string) (store.Store, error) {
	if mongoURI != "" {
		return store.NewMongoStore(ctx, store.MongoConfig{URI: mongoURI})
	}
	switch filepath.Ext(dir) {
	case ".db", ".sqlite":
		return store.NewSQLiteStore(ctx, dir)
	}
	if dir == "" {
		var err error
		if dir, err = dataDir(); err != nil {
			return nil, err
		}
	}
	return store.NewFileStore(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/warren/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return cache.DefaultDir()
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns where saved layouts live (~/.local/share/warren/layouts/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName, "layouts"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName, "layouts"), nil
}

// envOr returns the WARREN_-prefixed environment variable or def.
func envOr(name, def string) string {
	if v := os.Getenv(envPrefix + name); v != "" {
		return v
	}
	return def
}

// =============================================================================
// Options Helpers
// =============================================================================

// renderFlags are the flags shared by arrange and render.
type renderFlags struct {
	output   string
	formats  string
	style    string
	cellSize int
	labels   bool
	scale    float64
	noCache  bool
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output base path (default: input name)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", "comma-separated formats: "+strings.Join(render.Formats(), ", "))
	cmd.Flags().StringVar(&f.style, "style", pipeline.DefaultStyle, "visual style: "+strings.Join(render.StyleNames(), ", "))
	cmd.Flags().IntVar(&f.cellSize, "cell-size", 0, "SVG pixels per grid cell")
	cmd.Flags().BoolVar(&f.labels, "labels", false, "write template names into rooms")
	cmd.Flags().Float64Var(&f.scale, "scale", 0, "PNG scale factor")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

func (f *renderFlags) apply(opts *pipeline.Options) {
	opts.Formats = parseFormats(f.formats)
	opts.Style = f.style
	opts.CellSize = f.cellSize
	opts.Labels = f.labels
	opts.Scale = f.scale
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.DefaultFormat}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath derives the base output path. An empty output strips the
// extension from input; an output ending in a format extension loses it.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	longest := ""
	for _, f := range render.Formats() {
		if ext := render.Extension(f); strings.HasSuffix(output, ext) && len(ext) > len(longest) {
			longest = ext
		}
	}
	return strings.TrimSuffix(output, longest)
}

// outputPath joins base and the format extension. A path that would
// overwrite input gets a ".layout" infix instead.
func outputPath(base, format, input string) string {
	path := base + render.Extension(format)
	if input != "" && filepath.Clean(path) == filepath.Clean(input) {
		path = base + ".layout" + render.Extension(format)
	}
	return path
}

// writeArtifacts writes every artifact next to base in format order and
// returns the written paths.
func writeArtifacts(artifacts map[string][]byte, formats []string, base, input string) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		data, ok := artifacts[f]
		if !ok {
			continue
		}
		path := outputPath(base, f, input)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
