package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/internal/server"
	"github.com/matzehuels/netlayout/pkg/cache"
	"github.com/matzehuels/netlayout/pkg/pipeline"
)

// serveCommand starts the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		noCache   bool
		namespace string
		timeout   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout pipeline over HTTP",
		Long: `Serve the layout pipeline over HTTP.

Endpoints:
  GET  /healthz
  POST /v1/layout           JSON options with an inline "netlist"
  POST /v1/render/{format}  same body, responds with the raw artifact

Layouts are cached in the local cache directory, or in Redis with --redis.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, redisAddr, namespace, noCache, timeout)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address for the shared cache (host:port)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "prefix for cache keys, to share one Redis between deployments")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().DurationVar(&timeout, "timeout", server.DefaultRequestTimeout, "per-request deadline; annealing stops early when it is reached")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, redisAddr, namespace string, noCache bool, timeout time.Duration) error {
	var store cache.Cache
	backend := "file"
	switch {
	case redisAddr != "" && !noCache:
		rc, err := cache.NewRedisCache(ctx, redisAddr)
		if err != nil {
			return fmt.Errorf("connect redis %s: %w", redisAddr, err)
		}
		store, backend = rc, "redis "+redisAddr
	default:
		var err error
		if store, err = newCache(noCache); err != nil {
			return err
		}
		if noCache {
			backend = "none"
		}
	}

	var keyer cache.Keyer
	if namespace != "" {
		keyer = cache.NewScopedKeyer(nil, namespace+":")
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	defer runner.Close()

	printKeyValue("Listening", addr)
	printKeyValue("Cache", backend)
	printKeyValue("Timeout", timeout.String())
	err := server.New(runner, c.Logger, server.WithRequestTimeout(timeout)).ListenAndServe(ctx, addr)
	if errors.Is(err, http.ErrServerClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
