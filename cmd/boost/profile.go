package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/boost/pkg/boost/gateway"
	"github.com/jamesainslie/boost/pkg/boost/output"
	"github.com/jamesainslie/boost/pkg/boost/profile"
	"github.com/jamesainslie/boost/pkg/client"
)

var profileCmd = &cobra.Command{
	Use:     "profile",
	Aliases: []string{"profiles", "game"},
	Short:   "Manage per-game process priority profiles",
	Long: `A profile names a game's main process and optional helper processes,
each with a priority. Applying a profile sets those priorities on the
running processes.

Favorites are listed first; the first few appear in the dashboard's quick
launch list.`,
	RunE: runProfileList,
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a profile",
	Long: `Create a profile. Without --name and --main an interactive form is shown.

Examples:
  boost profile add
  boost profile add --name Valorant --main VALORANT.exe --priority High \
      --sub vgc.exe:AboveNormal`,
	Args: cobra.NoArgs,
	RunE: runProfileAdd,
}

var profileEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a profile",
	Long: `Edit a profile. Flags replace the given fields; without flags an
interactive form is shown. The favorite flag is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileEdit,
}

var profileRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Aliases: []string{"delete", "remove"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE:    runProfileRemove,
}

var profileFavCmd = &cobra.Command{
	Use:   "fav <id>",
	Short: "Toggle a profile's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileFav,
}

var profileApplyCmd = &cobra.Command{
	Use:   "apply <id>",
	Short: "Set process priorities for a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileApply,
}

var (
	profName     string
	profMain     string
	profPriority gateway.Priority
	profSubs     []string
	profYes      bool
)

func init() {
	for _, c := range []*cobra.Command{profileAddCmd, profileEditCmd} {
		c.Flags().StringVar(&profName, "name", "", "game name")
		c.Flags().StringVar(&profMain, "main", "", "main process name, e.g. game.exe")
		c.Flags().Var(newPriorityValue(gateway.High, &profPriority), "priority",
			"main process priority ("+priorityNames()+")")
		c.Flags().StringSliceVar(&profSubs, "sub", nil, "sub-process as name or name:priority (repeatable)")
	}
	profileRemoveCmd.Flags().BoolVarP(&profYes, "yes", "y", false, "delete without asking")

	profileCmd.AddCommand(profileListCmd, profileShowCmd, profileAddCmd, profileEditCmd,
		profileRemoveCmd, profileFavCmd, profileApplyCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(_ *cobra.Command, _ []string) error {
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		ps, limit, err := c.Profiles(ctx)
		if err != nil {
			return err
		}
		return render(output.Profiles(ps, limit))
	})
}

func runProfileShow(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		p, err := c.Profile(ctx, id)
		if err != nil {
			return err
		}
		return render(output.Profile(p))
	})
}

// fieldsFromFlags overlays the changed flags onto base.
func fieldsFromFlags(cmd *cobra.Command, base profile.Fields) (profile.Fields, error) {
	f := base
	if cmd.Flags().Changed("name") {
		f.Name = profName
	}
	if cmd.Flags().Changed("main") {
		f.MainProcess.Name = profMain
	}
	if cmd.Flags().Changed("priority") || base.MainProcess.Name == "" {
		f.MainProcess.Priority = profPriority
	}
	if cmd.Flags().Changed("sub") {
		subs, err := parseSubProcesses(profSubs)
		if err != nil {
			return profile.Fields{}, err
		}
		f.SubProcesses = subs
	}
	return f.Normalize(), nil
}

func anyProfileFlag(cmd *cobra.Command) bool {
	for _, name := range []string{"name", "main", "priority", "sub"} {
		if cmd.Flags().Changed(name) {
			return true
		}
	}
	return false
}

func runProfileAdd(cmd *cobra.Command, _ []string) error {
	var (
		f   profile.Fields
		err error
	)
	if anyProfileFlag(cmd) || !isTerminal() {
		f, err = fieldsFromFlags(cmd, profile.Fields{})
	} else {
		f, err = editProfile("New Game Profile", profile.Fields{MainProcess: profile.Process{Priority: gateway.High}})
	}
	if err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}

	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		p, err := c.CreateProfile(ctx, f)
		if err != nil {
			return err
		}
		printInfo("Added profile %d: %s", p.ID, p.Name)
		return nil
	})
}

func runProfileEdit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(5*time.Minute, func(ctx context.Context, c *client.Client) error {
		current, err := c.Profile(ctx, id)
		if err != nil {
			return err
		}

		var f profile.Fields
		if anyProfileFlag(cmd) || !isTerminal() {
			f, err = fieldsFromFlags(cmd, profile.FieldsOf(current))
		} else {
			f, err = editProfile("Edit "+current.Name, profile.FieldsOf(current))
		}
		if err != nil {
			return err
		}

		p, err := c.UpdateProfile(ctx, id, f)
		if err != nil {
			return err
		}
		printInfo("Updated profile %d: %s", p.ID, p.Name)
		return nil
	})
}

func runProfileRemove(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(5*time.Minute, func(ctx context.Context, c *client.Client) error {
		p, err := c.Profile(ctx, id)
		if err != nil {
			return err
		}
		if !profYes {
			if !isTerminal() {
				return errors.New("refusing to delete without --yes")
			}
			ok, err := confirm(fmt.Sprintf("Delete profile '%s'?", p.Name))
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Cancelled")
				return nil
			}
		}
		if err := c.DeleteProfile(ctx, id); err != nil {
			return err
		}
		printInfo("Deleted profile '%s'", p.Name)
		return nil
	})
}

func runProfileFav(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(10*time.Second, func(ctx context.Context, c *client.Client) error {
		p, err := c.ToggleFavorite(ctx, id)
		if err != nil {
			return err
		}
		if p.IsFavorite {
			printInfo("%s %s added to favorites", output.FavoriteStyle.Render("★"), p.Name)
		} else {
			printInfo("%s removed from favorites", p.Name)
		}
		return nil
	})
}

func runProfileApply(_ *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withClient(time.Minute, func(ctx context.Context, c *client.Client) error {
		report, err := c.ApplyProfile(ctx, id)
		if err != nil {
			return err
		}
		for _, p := range report.Applied {
			printInfo("%s %s → %s", output.SuccessStyle.Render("✓"), p.Name, p.Priority)
		}
		for _, p := range report.Failed {
			printInfo("%s %s → %s", output.ErrorStyle.Render("✗"), p.Name, p.Priority)
		}
		if !report.OK() {
			return fmt.Errorf("%d of %d processes could not be prioritized",
				len(report.Failed), len(report.Applied)+len(report.Failed))
		}
		printInfo("Profile '%s' optimized", report.Profile.Name)
		return nil
	})
}
