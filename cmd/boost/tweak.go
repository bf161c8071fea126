package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/client"
)

var tweakCmd = &cobra.Command{
	Use:     "tweak",
	Aliases: []string{"tweaks"},
	Short:   "Inspect and choose the tweaks boost applies",
	Long: `Each tweak has an enabled flag. Only enabled tweaks are applied when
boost is activated. Changes take effect on the next activation.`,
	RunE: runTweakList,
}

var tweakListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tweak catalog",
	Args:  cobra.NoArgs,
	RunE:  runTweakList,
}

var tweakEnableCmd = &cobra.Command{
	Use:   "enable <id>...",
	Short: "Include tweaks in boost mode",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setTweaks(args, true)
	},
}

var tweakDisableCmd = &cobra.Command{
	Use:   "disable <id>...",
	Short: "Leave tweaks out of boost mode",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return setTweaks(args, false)
	},
}

func init() {
	tweakCmd.AddCommand(tweakListCmd, tweakEnableCmd, tweakDisableCmd)
	rootCmd.AddCommand(tweakCmd)
}

func runTweakList(_ *cobra.Command, _ []string) error {
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		ts, err := c.Tweaks(ctx)
		if err != nil {
			return err
		}
		return render(output.Tweaks(ts))
	})
}

func setTweaks(ids []string, enabled bool) error {
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		known, err := c.Tweaks(ctx)
		if err != nil {
			return err
		}
		valid := make(map[string]bool, len(known))
		for _, t := range known {
			valid[t.ID] = true
		}
		for _, id := range ids {
			if !valid[id] {
				return fmt.Errorf("unknown tweak %q (see: boost tweak list)", id)
			}
		}

		var ts = known
		for _, id := range ids {
			if ts, err = c.SetTweak(ctx, id, enabled); err != nil {
				return err
			}
		}
		return render(output.Tweaks(ts))
	})
}
