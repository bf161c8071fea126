package main

import (
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jamesainslie/boost/pkg/boost/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage boost configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/boost/config.yaml (if set)
  2. ~/.config/boost/config.yaml

Environment variables override config file settings using the BOOST_ prefix:
  BOOST_SEQUENCER_STEP_DELAY=0s
  BOOST_GATEWAY_MOCK=true
  BOOST_PROFILES_QUICK_LIMIT=5

boostd reloads the file when it changes; new pacing applies to the next
boost cycle.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the merged configuration from defaults, the file and the environment.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long: `Open the configuration file in your default editor.

The editor is determined by:
  1. $VISUAL environment variable
  2. $EDITOR environment variable
  3. Falls back to 'vi'

If the config file doesn't exist, a default one will be created first.`,
	RunE: runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd, configEditCmd, configInitCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// runConfigShow displays the current configuration.
func runConfigShow(_ *cobra.Command, _ []string) error {
	if file := loader.File(); file != "" {
		fmt.Printf("Config file: %s\n\n", file)
	} else {
		fmt.Print("Config file: (using defaults, no file found)\n\n")
	}

	out, err := yaml.Marshal(loader.Settings())
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	fmt.Print(string(out))

	fmt.Println("\nEnvironment Overrides:")
	fmt.Println("----------------------")
	overrides := envOverrides(os.Environ())
	if len(overrides) == 0 {
		fmt.Println("(none)")
	}
	for _, kv := range overrides {
		fmt.Println(kv)
	}
	return nil
}

// envOverrides returns the BOOST_ variables in env, sorted.
func envOverrides(env []string) []string {
	var out []string
	for _, kv := range env {
		if strings.HasPrefix(kv, "BOOST_") {
			out = append(out, kv)
		}
	}
	sort.Strings(out)
	return out
}

// runConfigEdit opens the config file in an editor.
func runConfigEdit(_ *cobra.Command, _ []string) error {
	path := loader.File()
	if path == "" {
		var err error
		if path, err = config.WriteDefault(); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	editor := os.Getenv("VISUAL")
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "vi"
	}

	printVerbose("Opening %s with %s", path, editor)

	editorCmd := exec.Command(editor, path) //nolint:gosec // editor comes from the user's environment
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr
	if err := editorCmd.Run(); err != nil {
		return fmt.Errorf("editor command failed: %w", err)
	}
	return nil
}

// runConfigInit creates a default config file.
func runConfigInit(_ *cobra.Command, _ []string) error {
	path, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		printInfo("Config file already exists: %s", path)
		printInfo("Use 'boost config edit' to modify it.")
		return nil
	}
	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	printInfo("Created default config file: %s", path)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(_ *cobra.Command, _ []string) error {
	path := loader.File()
	if path == "" {
		var err error
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
		printVerbose("File does not exist (will use defaults)")
	}
	fmt.Println(path)
	return nil
}
