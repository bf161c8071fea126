package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/config"
	"github.com/jamesainslie/boost/pkg/boost/logging"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/client"
)

var (
	cfgFile string
	cfg     *config.Config
	loader  *config.Loader

	rootCmd = &cobra.Command{
		Use:   "boost",
		Short: "Apply and revert gaming performance tweaks",
		Long: `Boost applies a set of system tweaks before a gaming session and
reverts them afterwards. It also keeps per-game process priority profiles.

Without a subcommand boost opens the interactive dashboard.
All state lives in the boostd daemon, which is started on demand.

Examples:
  boost                      # Open the dashboard
  boost on                   # Activate boost mode and wait until it is active
  boost off                  # Revert every tweak boost applied
  boost tweak list           # Show the tweak catalog
  boost profile add          # Create a game profile interactively
  boost profile apply 17     # Set process priorities for profile 17
  boost log -o json          # Export the activity log as JSON`,
		Args:              cobra.NoArgs,
		PersistentPreRunE: setup,
		RunE:              runDashboard,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/boost/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "pretty",
		fmt.Sprintf("output format (%s)", strings.Join(output.Available(), ", ")))
	rootCmd.PersistentFlags().StringVar(&templateStr, "template", "", "Go template for --output template")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug output")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-start", false, "do not start boostd when it is not running")
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		return err
	}
	return nil
}

// setup loads configuration and initializes logging for every command.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	loader, err = config.NewLoader()
	if err != nil {
		return err
	}
	if cfgFile != "" {
		loader.SetFile(cfgFile)
	}
	cfg, err = loader.Load()
	if err != nil {
		return err
	}

	logCfg, err := cfg.Logging.LogConfig()
	if err != nil {
		return err
	}
	logCfg.TUIMode = dashboardMode(cmd)
	if verbose {
		logCfg.ConsoleLevel = "debug"
	}
	if err := logging.Init(logCfg); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	return nil
}

func daemonPaths() client.DaemonPaths {
	if cfg == nil {
		return client.DaemonPaths{}
	}
	return client.PathsFrom(cfg)
}

// connect returns a client for boostd, starting the daemon first when it
// is not running and auto start is on.
func connect(ctx context.Context) (*client.Client, error) {
	paths := daemonPaths()
	if !client.IsDaemonRunning(paths) {
		if noAutoStart || (cfg != nil && !cfg.Daemon.AutoStart) {
			return nil, errors.New("boostd is not running (start it with: boost daemon start)")
		}
		printVerbose("starting boostd...")
		if err := client.EnsureDaemon(paths); err != nil {
			return nil, fmt.Errorf("starting boostd: %w", err)
		}
	}
	return client.ConnectWithContext(ctx, paths.SocketPath())
}

// withClient runs fn with a connected client and a bounded context.
func withClient(timeout time.Duration, fn func(ctx context.Context, c *client.Client) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// printError prints an error message to stderr.
func printError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// dashboardMode reports whether cmd runs the dashboard, which owns the
// terminal. Everything else may mirror logs to stderr.
func dashboardMode(cmd *cobra.Command) bool {
	return !cmd.HasParent()
}
