package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/warren/pkg/cache"
	"github.com/matzehuels/warren/pkg/pipeline"
	"github.com/matzehuels/warren/pkg/server"
	"github.com/matzehuels/warren/pkg/store"
)

// serveFlags holds the flags of the serve command.
type serveFlags struct {
	addr        string
	redisAddr   string
	redisPrefix string
	mongoURI    string
	storeDir    string
	timeout     time.Duration
	attempts    int
	maxAttempts int
}

// serveCommand creates the HTTP API command.
func (c *CLI) serveCommand() *cobra.Command {
	var f serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the arrangement API over HTTP",
		Long: `Serve the arrangement API over HTTP.

Layouts and artifacts are cached in Redis when --redis-addr is set and in the
local cache directory otherwise. Saved layouts go to MongoDB when --mongo-uri
is set and to --store-dir otherwise. Every flag can also be set through a
WARREN_ environment variable.`,
		Example: `  warren serve --addr :8080
  WARREN_REDIS_ADDR=localhost:6379 WARREN_MONGO_URI=mongodb://localhost warren serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.addr, "addr", envOr("ADDR", ":8080"), "listen address [$WARREN_ADDR]")
	cmd.Flags().StringVar(&f.redisAddr, "redis-addr", envOr("REDIS_ADDR", ""), "Redis cache address [$WARREN_REDIS_ADDR]")
	cmd.Flags().StringVar(&f.redisPrefix, "redis-prefix", envOr("REDIS_PREFIX", appName+":"), "Redis key prefix [$WARREN_REDIS_PREFIX]")
	cmd.Flags().StringVar(&f.mongoURI, "mongo-uri", envOr("MONGO_URI", ""), "MongoDB store URI [$WARREN_MONGO_URI]")
	cmd.Flags().StringVar(&f.storeDir, "store-dir", envOr("STORE_DIR", ""), storeDirHelp+" [$WARREN_STORE_DIR]")
	cmd.Flags().DurationVar(&f.timeout, "timeout", server.DefaultArrangeTimeout, "search deadline per request")
	cmd.Flags().IntVar(&f.attempts, "attempts", pipeline.DefaultAttempts, "seeds to try per request")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", pipeline.DefaultMaxAttempts, "candidate budget per seed")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, f serveFlags) error {
	runner, err := c.serveRunner(ctx, f)
	if err != nil {
		return err
	}
	defer runner.Close()

	st, err := openStore(ctx, f.storeDir, f.mongoURI)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	c.Logger.Info("layout store", "backend", storeBackend(st))

	srv, err := server.New(server.Config{
		Runner:         runner,
		Store:          st,
		Logger:         c.Logger,
		ArrangeTimeout: f.timeout,
		Defaults: pipeline.Options{
			Attempts:    f.attempts,
			MaxAttempts: f.maxAttempts,
		},
	})
	if err != nil {
		return err
	}
	return srv.ListenAndServe(ctx, f.addr)
}

// serveRunner picks the shared Redis cache when configured. Keys are scoped
// so several deployments can share one Redis.
func (c *CLI) serveRunner(ctx context.Context, f serveFlags) (*pipeline.Runner, error) {
	if f.redisAddr == "" {
		return c.newRunner(false)
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: f.redisAddr})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	c.Logger.Info("cache", "backend", "redis", "addr", f.redisAddr, "prefix", f.redisPrefix)
	return pipeline.NewRunner(rc, cache.NewScopedKeyer(nil, f.redisPrefix), c.Logger), nil
}

func storeBackend(st store.Store) string {
	switch s := st.(type) {
	case *store.FileStore:
		return "file " + s.Dir()
	case *store.SQLiteStore:
		return "sqlite"
	case *store.MongoStore:
		return "mongodb"
	}
	return fmt.Sprintf("%T", st)
}
