package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/library"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/client"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Find installed games",
}

var libraryScanCmd = &cobra.Command{
	Use:   "scan [dir]...",
	Short: "Scan game library directories for executables",
	Long: `Walk game library directories and group executables per game folder.
Directories default to library.paths from the config file.

With --add a profile is created for each game that has none yet, with the
largest executable as the main process at High priority.`,
	RunE: runLibraryScan,
}

var (
	libraryAdd     bool
	libraryDepth   int
	libraryWorkers int
)

func init() {
	libraryScanCmd.Flags().BoolVar(&libraryAdd, "add", false, "create profiles for new games")
	libraryScanCmd.Flags().IntVar(&libraryDepth, "depth", 0, "maximum depth below each directory (0 = config)")
	libraryScanCmd.Flags().IntVarP(&libraryWorkers, "workers", "w", 0, "walker count (0 = auto)")

	libraryCmd.AddCommand(libraryScanCmd)
	rootCmd.AddCommand(libraryCmd)
}

func runLibraryScan(_ *cobra.Command, args []string) error {
	opts := library.Options{Roots: args, Workers: libraryWorkers, Depth: libraryDepth}
	if cfg != nil {
		if len(opts.Roots) == 0 {
			opts.Roots = cfg.Library.Paths
		}
		opts.Exclude = cfg.Library.Exclude
		if opts.Depth == 0 {
			opts.Depth = cfg.Library.Depth
		}
	}
	if len(opts.Roots) == 0 {
		return errors.New("no library directories given and library.paths is empty")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	printVerbose("scanning %v", opts.Roots)
	res, err := library.Scan(ctx, opts)
	if err != nil {
		return err
	}
	if err := render(output.Library(res)); err != nil {
		return err
	}
	if !libraryAdd {
		return nil
	}

	return withClient(time.Minute, func(ctx context.Context, c *client.Client) error {
		existing, _, err := c.Profiles(ctx)
		if err != nil {
			return err
		}
		proposed := library.Propose(res.Candidates, existing)
		for _, f := range proposed {
			p, err := c.CreateProfile(ctx, f)
			if err != nil {
				printError("adding %s: %v", f.Name, err)
				continue
			}
			printInfo("Added profile %d: %s (%s)", p.ID, p.Name, p.MainProcess.Name)
		}
		if len(proposed) == 0 {
			printInfo("Every game found already has a profile")
		}
		return nil
	})
}
