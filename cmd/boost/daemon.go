package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/client"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Manage the boostd daemon",
	Long: `Manage the boostd daemon.

boostd owns the tweak registry, the profiles and the activity log, and
runs boost cycles. Commands start it on demand unless --no-start is given
or daemon.auto_start is false.`,
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the boostd daemon",
	Long:  `Start the boostd daemon in the background.`,
	RunE:  runDaemonStart,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the boostd daemon",
	Long:  `Stop the boostd daemon gracefully. An active boost is reverted first.`,
	RunE:  runDaemonStop,
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the boostd daemon",
	RunE:  runDaemonRestart,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

func init() {
	daemonCmd.AddCommand(daemonStartCmd, daemonStopCmd, daemonRestartCmd, daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemonStart(_ *cobra.Command, _ []string) error {
	paths := daemonPaths()
	if client.IsDaemonRunning(paths) {
		printInfo("Daemon already running")
		return nil
	}
	printVerbose("starting daemon (socket %s)", paths.SocketPath())
	if err := client.StartDaemon(paths); err != nil {
		return err
	}
	printInfo("Daemon started")
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	paths := daemonPaths()
	if !client.IsDaemonRunning(paths) {
		return errors.New("daemon is not running")
	}
	printVerbose("sending shutdown request...")
	if err := client.StopDaemon(paths); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	printInfo("Daemon stopped")
	return nil
}

func runDaemonRestart(_ *cobra.Command, _ []string) error {
	if err := client.RestartDaemon(daemonPaths()); err != nil {
		return err
	}
	printInfo("Daemon restarted")
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	paths := daemonPaths()
	if !client.IsDaemonRunning(paths) {
		printInfo("Daemon status: not running")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.ConnectWithContext(ctx, paths.SocketPath())
	if err != nil {
		printInfo("Daemon status: running (but not responding)")
		return nil
	}
	defer c.Close()

	status, err := c.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get daemon status: %w", err)
	}

	printInfo("Daemon status: running")
	printInfo("  PID:     %d", status.PID)
	printInfo("  Version: %s", status.Version)
	printInfo("  Uptime:  %s", formatDuration(time.Duration(status.UptimeSeconds)*time.Second))
	printInfo("  Memory:  %s", humanize.IBytes(uint64(status.MemoryBytes)))
	printInfo("  Socket:  %s", paths.SocketPath())
	printInfo("  Boost:   %s", status.Session.State)
	if status.Detecting != nil {
		running := "none"
		if len(status.Detecting) > 0 {
			running = strings.Join(status.Detecting, ", ")
		}
		printInfo("  Games:   %s", running)
	}
	return nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	return fmt.Sprintf("%dd %dh", days, hours)
}
