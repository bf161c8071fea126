package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/cmd/boost/tui"
)

// runDashboard opens the interactive dashboard.
func runDashboard(_ *cobra.Command, _ []string) error {
	if !isTerminal() {
		return runStatus(nil, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	c, err := connect(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer c.Close()

	limit := 50
	if cfg != nil {
		limit = cfg.Activity.DisplayLimit
	}
	return tui.Run(tui.Options{Backend: c, LogLimit: limit})
}
