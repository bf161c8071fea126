package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/document"
	"github.com/jamesainslie/boost/pkg/client"
)

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Write tweaks.json and profiles.json to a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Restore tweaks.json and profiles.json from a directory",
	Long: `Restore the documents written by export. Either file may be missing.
Imported profiles replace the current list; invalid entries are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	return withClient(30*time.Second, func(ctx context.Context, c *client.Client) error {
		ts, err := c.Tweaks(ctx)
		if err != nil {
			return err
		}
		ps, _, err := c.Profiles(ctx)
		if err != nil {
			return err
		}
		if err := document.New(nil).ExportBackup(args[0], ts, ps); err != nil {
			return err
		}
		printInfo("Exported %d tweaks and %d profiles to %s", len(ts), len(ps), args[0])
		return nil
	})
}

func runImport(_ *cobra.Command, args []string) error {
	b, err := document.New(nil).ImportBackup(args[0])
	if err != nil {
		return err
	}
	return withClient(30*time.Second, func(ctx context.Context, c *client.Client) error {
		if b.Tweaks != nil {
			if _, err := c.RestoreTweaks(ctx, b.Tweaks); err != nil {
				return err
			}
			printInfo("Restored %d tweak settings", len(b.Tweaks))
		}
		if b.Profiles != nil {
			stored, skipped, err := c.ReplaceProfiles(ctx, b.Profiles)
			if err != nil {
				return err
			}
			printInfo("Imported %d profiles", stored)
			for _, s := range skipped {
				printError("skipped %s", s)
			}
		}
		return nil
	})
}
