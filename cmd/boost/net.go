package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/client"
)

var netCmd = &cobra.Command{
	Use:   "net",
	Short: "One-off network and power commands",
}

var netMTUCmd = &cobra.Command{
	Use:   "mtu <bytes>",
	Short: fmt.Sprintf("Set the network MTU (%d-%d)", gateway.MinMTU, gateway.MaxMTU),
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		mtu, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid MTU %q", args[0])
		}
		if err := gateway.ValidateMTU(mtu); err != nil {
			return err
		}
		return runCommand(func(ctx context.Context, c *client.Client) (gateway.Result, error) {
			return c.SetMTU(ctx, mtu)
		})
	},
}

var netPowerCmd = &cobra.Command{
	Use:       "power <balanced|high|ultimate>",
	Short:     "Switch the power plan",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"balanced", "high", "ultimate"},
	RunE: func(_ *cobra.Command, args []string) error {
		if _, err := gateway.ParsePowerPlan(args[0]); err != nil {
			return err
		}
		return runCommand(func(ctx context.Context, c *client.Client) (gateway.Result, error) {
			return c.SetPowerPlan(ctx, args[0])
		})
	},
}

var netDNSCmd = &cobra.Command{
	Use:   "dns",
	Short: "Flush the DNS resolver cache",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runCommand(func(ctx context.Context, c *client.Client) (gateway.Result, error) {
			return c.FlushDNS(ctx)
		})
	},
}

func init() {
	netCmd.AddCommand(netMTUCmd, netPowerCmd, netDNSCmd)
	rootCmd.AddCommand(netCmd)
}

func runCommand(fn func(ctx context.Context, c *client.Client) (gateway.Result, error)) error {
	return withClient(time.Minute, func(ctx context.Context, c *client.Client) error {
		res, err := fn(ctx, c)
		if err != nil {
			return err
		}
		if !res.Success {
			return errors.New(res.Message)
		}
		printInfo("%s %s", output.SuccessStyle.Render("✓"), res.Message)
		return nil
	})
}
