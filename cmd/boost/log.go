package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/activity"
	"github.com/jamesainslie/boost/pkg/boost/document"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/client"
)

var logCmd = &cobra.Command{
	Use:     "log",
	Aliases: []string{"activity"},
	Short:   "Show the activity log",
	Long: `Show the activity log, oldest first.

Use --output to export it (json, yaml, csv...) or --export to write the
plain "[time] message" lines to a file.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var logClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the activity log",
	Args:  cobra.NoArgs,
	RunE:  runLogClear,
}

var (
	logLimit  int
	logFollow bool
	logExport string
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "limit", "l", 0, "show only the newest entries (0 = configured display limit)")
	logCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "keep printing new entries")
	logCmd.Flags().StringVar(&logExport, "export", "", "write the log to a text file")

	logCmd.AddCommand(logClearCmd)
	rootCmd.AddCommand(logCmd)
}

func runLog(_ *cobra.Command, _ []string) error {
	if logFollow {
		return followLog()
	}
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		limit := logLimit
		if limit == 0 && cfg != nil && logExport == "" {
			limit = cfg.Activity.DisplayLimit
		}
		entries, err := c.Log(ctx, limit)
		if err != nil {
			return err
		}
		if logExport != "" {
			if err := document.New(nil).ExportLog(logExport, entries); err != nil {
				return err
			}
			printInfo("Wrote %d entries to %s", len(entries), logExport)
			return nil
		}
		return render(output.Activity(entries))
	})
}

func followLog() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	ch, err := c.WatchLog(ctx)
	if err != nil {
		return err
	}
	for e := range ch {
		line := e.Formatted()
		if e.Level == activity.Warning {
			line = output.WarningStyle.Render(line)
		}
		printInfo("%s", line)
	}
	return nil
}

func runLogClear(_ *cobra.Command, _ []string) error {
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		if err := c.ClearLog(ctx); err != nil {
			return err
		}
		printInfo("Activity log cleared")
		return nil
	})
}
