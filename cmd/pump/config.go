// ABOUTME: CLI commands for viewing and editing the config file.
// ABOUTME: Values from PUMP_* environment variables are shown but never saved.
package main

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or change settings",
	Long: `View or change settings stored in ~/.config/pump/config.json.

KEYS:

  backend              local (default), charm or http
  data_dir             where local data lives (default ~/.local/share/pump)
  server               base URL of the record API (http backend)
  charm_host           Charm server (charm backend)
  user_id              user every operation runs as
  log_mode             quiet (default), dev or prod
  revalidate_interval  minimum age before a cached list is refreshed (e.g. 2s)

ENVIRONMENT:

  PUMP_BACKEND, PUMP_SERVER and PUMP_USER_ID override the file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		fmt.Println()
		fmt.Println(faint.Sprint("File:     ", config.GetConfigPath()))
		fmt.Println(faint.Sprint("Backend:  ", cfg.GetBackend()))
		fmt.Println(faint.Sprint("Data dir: ", cfg.GetDataDir()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadFile()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		color.Green("✓ Set %s", args[0])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
