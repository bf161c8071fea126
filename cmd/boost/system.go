package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/client"
)

var systemCmd = &cobra.Command{
	Use:     "system",
	Aliases: []string{"sysinfo"},
	Short:   "Show system information",
	Args:    cobra.NoArgs,
	RunE:    runSystem,
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show live performance metrics",
	Long: `Show one metrics sample. CPU, RAM, drive usage and latency are
measured; GPU, FPS, PSU and temperature are estimates.`,
	Args: cobra.NoArgs,
	RunE: runMetrics,
}

var metricsWatch bool

func init() {
	metricsCmd.Flags().BoolVarP(&metricsWatch, "watch", "w", false, "keep printing samples")
	rootCmd.AddCommand(systemCmd, metricsCmd)
}

func runSystem(_ *cobra.Command, _ []string) error {
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		info, err := c.SystemInfo(ctx)
		if err != nil {
			return err
		}
		return render(output.System(info))
	})
}

func runMetrics(_ *cobra.Command, _ []string) error {
	if !metricsWatch {
		return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
			m, err := c.Metrics(ctx)
			if err != nil {
				return err
			}
			return render(output.Metrics(m))
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	c, err := connect(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	ch, err := c.WatchMetrics(ctx)
	if err != nil {
		return err
	}
	for m := range ch {
		if err := render(output.Metrics(m)); err != nil {
			return err
		}
	}
	return nil
}
