package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/sequencer"
	"github.com/jamesainslie/boost/pkg/client"
)

// cycleTimeout bounds a full activation or revert, including step delays.
const cycleTimeout = 5 * time.Minute

var noWait bool

var onCmd = &cobra.Command{
	Use:   "on",
	Short: "Activate boost mode",
	Long: `Apply every enabled tweak in catalog order.

Progress is printed as each tweak is applied. A failing tweak is logged
as a warning and the sequence continues.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCycle("Activate", (*client.Client).Activate)
	},
}

var offCmd = &cobra.Command{
	Use:   "off",
	Short: "Deactivate boost mode",
	Long:  `Revert the tweaks applied by the last activation, in the same order.`,
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCycle("Deactivate", (*client.Client).Deactivate)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Activate when idle, deactivate when active",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCycle("Toggle", (*client.Client).Toggle)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the boost session",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{onCmd, offCmd, toggleCmd} {
		c.Flags().BoolVar(&noWait, "no-wait", false, "return as soon as the cycle starts")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(statusCmd)
}

type cycleFunc func(c *client.Client, ctx context.Context, wait bool) (sequencer.Snapshot, error)

func runCycle(name string, start cycleFunc) error {
	return withClient(cycleTimeout, func(ctx context.Context, c *client.Client) error {
		var events <-chan sequencer.Snapshot
		if !noWait && !quiet {
			watchCtx, cancel := context.WithCancel(ctx)
			defer cancel()
			ch, err := c.WatchSession(watchCtx)
			if err != nil {
				return err
			}
			// Skip the current snapshot sent on subscribe.
			<-ch
			events = ch
		}

		snap, err := start(c, ctx, false)
		if err != nil {
			return err
		}
		printVerbose("%s started: %s", name, snap.State)
		if noWait {
			printInfo("%s", snap.State)
			return nil
		}
		if events == nil {
			snap, err = waitSettled(ctx, c)
			if err != nil {
				return err
			}
		} else {
			snap = followProgress(events)
		}
		return reportSettled(snap)
	})
}

// followProgress prints one line per step until the session settles.
func followProgress(events <-chan sequencer.Snapshot) sequencer.Snapshot {
	var last sequencer.Snapshot
	current := ""
	for snap := range events {
		last = snap
		if !snap.InProgress() {
			break
		}
		if snap.Current != "" && snap.Current != current {
			current = snap.Current
			verb := "Applying"
			if snap.State == sequencer.Deactivating {
				verb = "Reverting"
			}
			printInfo("%3.0f%%  %s: %s", snap.Progress, verb, current)
		}
	}
	return last
}

// waitSettled polls the daemon until the cycle finishes.
func waitSettled(ctx context.Context, c *client.Client) (sequencer.Snapshot, error) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		st, err := c.Status(ctx)
		if err != nil {
			return sequencer.Snapshot{}, err
		}
		if !st.Session.InProgress() {
			return st.Session, nil
		}
		select {
		case <-ctx.Done():
			return sequencer.Snapshot{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

func reportSettled(snap sequencer.Snapshot) error {
	switch snap.State {
	case sequencer.Active:
		printInfo("%s", output.SuccessStyle.Render(sequencer.MsgEnabled))
	case sequencer.Idle:
		printInfo("%s", output.SuccessStyle.Render(sequencer.MsgDisabled))
	default:
		return fmt.Errorf("session ended in state %s", snap.State)
	}
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		st, err := c.Status(ctx)
		if err != nil {
			return err
		}
		tweaks, err := c.Tweaks(ctx)
		if err != nil {
			return err
		}
		labels := make(map[string]string, len(tweaks))
		for _, t := range tweaks {
			labels[t.ID] = t.Label
		}
		r := output.Status(st.Session, func(id string) string {
			if l, ok := labels[id]; ok {
				return l
			}
			return id
		})
		if len(st.Detecting) > 0 {
			r.Summary = append(r.Summary, fmt.Sprintf("running: %v", st.Detecting))
		}
		return render(r)
	})
}
