package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/netlayout/pkg/cache"
)

// cacheKinds are the entry groups the pipeline writes.
var cacheKinds = []string{"layout", "artifact"}

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local layout cache",
		Long: `Manage the local layout cache.

Layouts are stored under layout/ keyed by netlist content and options;
rendered SVG, PNG and PDF files under artifact/.`,
	}
	cmd.AddCommand(c.cacheClearCommand(), c.cacheStatsCommand(), c.cachePathCommand())
	return cmd
}

func (c *CLI) cacheClearCommand() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached layouts and renders",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind != "" && !slices.Contains(cacheKinds, kind) {
				return fmt.Errorf("unknown kind %q (want one of %v)", kind, cacheKinds)
			}
			fc, ok, err := openLocalCache()
			if err != nil || !ok {
				return err
			}
			n, err := fc.Clear(kind)
			if err != nil {
				return err
			}
			printSuccess("Cleared %d cached entries", n)
			printDetail("Directory: %s", fc.Dir())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "only clear one kind: layout or artifact")
	return cmd
}

func (c *CLI) cacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count cached entries per kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			fc, ok, err := openLocalCache()
			if err != nil || !ok {
				return err
			}
			counts, err := fc.Entries()
			if err != nil {
				return err
			}
			for _, kind := range cacheKinds {
				printKeyValue(kind, fmt.Sprint(counts[kind]))
			}
			return nil
		},
	}
}

func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cacheDir()
			if err != nil {
				return fmt.Errorf("get cache dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

// openLocalCache opens the cache directory without creating it. ok is false
// when nothing was ever cached.
func openLocalCache() (*cache.FileCache, bool, error) {
	dir, err := cacheDir()
	if err != nil {
		return nil, false, fmt.Errorf("get cache dir: %w", err)
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		printInfo("Cache is empty")
		return nil, false, nil
	}
	fc, err := cache.NewFileCache(dir)
	return fc, err == nil, err
}
