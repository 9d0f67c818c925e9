package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/internal/cli"
	"github.com/matzehuels/netlayout/pkg/observability"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging and a stage timing summary")

	var rec *observability.Recorder
	originalPreRun := root.PersistentPreRunE
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level := cli.LogInfo
		if verbose {
			level = cli.LogDebug
			rec = observability.NewRecorder()
			observability.SetPipelineHooks(rec)
			observability.SetCacheHooks(rec)
		}
		c.SetLogLevel(level)

		if originalPreRun != nil {
			return originalPreRun(cmd, args)
		}
		return nil
	}

	err := root.ExecuteContext(ctx)
	if rec != nil {
		if kv := summary(rec.Snapshot()); len(kv) > 0 {
			c.Logger.Debug("run summary", kv...)
		}
	}
	return err
}

// summary flattens a recorder snapshot into logger key/value pairs: total
// time per layout stage in stage name order, then cache hits and misses.
func summary(s observability.Snapshot) []any {
	var kv []any
	for _, stage := range slices.Sorted(maps.Keys(s.Stages)) {
		kv = append(kv, stage, s.Stages[stage].Round(time.Microsecond))
	}
	for _, kind := range slices.Sorted(maps.Keys(s.Hits)) {
		kv = append(kv, kind+"_hits", s.Hits[kind])
	}
	for _, kind := range slices.Sorted(maps.Keys(s.Misses)) {
		kv = append(kv, kind+"_misses", s.Misses[kind])
	}
	if s.Errors > 0 {
		kv = append(kv, "failed_layouts", s.Errors)
	}
	return kv
}
