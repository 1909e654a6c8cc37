// ABOUTME: Root Cobra command for pump CLI.
// ABOUTME: Builds the application context via PersistentPre/PostRunE.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/app"
	"github.com/harperreed/pump/internal/config"
)

var (
	pumpApp  *app.App
	userFlag string
)

// Commands that never touch the record store, by command path.
var offlineCommands = map[string]bool{
	"pump help":          true,
	"pump version":       true,
	"pump completion":    true,
	"pump install-skill": true,
	"pump config show":   true,
	"pump config set":    true,
	"pump export":        true,
	"pump sync link":     true,
	"pump sync unlink":   true,
	"pump sync wipe":     true,
	"pump sync repair":   true,
	"pump sync reset":    true,
}

var rootCmd = &cobra.Command{
	Use:           "pump",
	Short:         "Workout routine tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `Pump is a CLI tool for planning workout routines and logging the sets you do.

WHAT IT TRACKS:

  Routines   named groups of exercises planned on a date
  Exercises  reps, weight, sets (planned and completed), time, distance
  Photos     progress pictures attached to an exercise

QUICK START:

  $ pump routine add "Leg Day"                 # Plan a routine today
  $ pump exercise add <routine-id> Squat --sets 5 --reps 5 --weight 100
  $ pump exercise set <routine-id> <exercise-id> --done 3
  $ pump day                                   # See today's plan

MOVING DATA:

  $ pump migrate legacy.db --dry-run           # Preview a legacy migration
  $ pump migrate legacy.db --clear             # Migrate, then empty legacy.db
  $ pump export json                           # Back up the legacy store
  $ pump import pump-backup-2024-02-14.json    # Load a backup

BACKENDS:

  local  badger database in ~/.local/share/pump/records (default)
  charm  Charm Cloud KV, synced after every write
  http   a remote record API (pump config set server https://...)

MCP INTEGRATION:

  Run 'pump mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "pump": { "command": "pump", "args": ["mcp"] }
    }
  }`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isOffline(cmd) {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if userFlag != "" {
			cfg.UserID = userFlag
		}

		pumpApp, err = app.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

// closeApp releases the store. Cobra skips post-run hooks when a command
// fails, so main calls it as well.
func closeApp() error {
	if pumpApp == nil {
		return nil
	}
	err := pumpApp.Close()
	pumpApp = nil
	return err
}

// isOffline reports whether cmd or one of its parents runs without a store.
func isOffline(cmd *cobra.Command) bool {
	if cmd.Parent() == nil {
		return true
	}
	for c := cmd; c.Parent() != nil; c = c.Parent() {
		if offlineCommands[c.CommandPath()] {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "act as this user ID")
}
