// ABOUTME: CLI command for starting MCP server.
// ABOUTME: Runs stdio-based MCP server for Claude integration.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server",
	Long: `Start the Model Context Protocol (MCP) server for AI assistant integration.

MCP allows AI assistants like Claude to plan routines and log sets through
a standardized protocol. The server communicates via stdin/stdout.

CLAUDE DESKTOP CONFIGURATION:

  Add this to your Claude Desktop config (claude_desktop_config.json):

  {
    "mcpServers": {
      "pump": {
        "command": "pump",
        "args": ["mcp"]
      }
    }
  }

AVAILABLE TOOLS:

  list_routines     List the routines of a date
  add_routine       Append a routine to a date
  rename_routine    Rename a routine
  delete_routine    Delete a routine with its exercises and photos
  copy_routine      Copy a routine to another date
  list_exercises    List the exercises of a routine
  add_exercise      Append an exercise to a routine
  update_exercise   Change fields of an exercise
  delete_exercise   Delete an exercise and its photos
  list_photos       List the photos of an exercise
  delete_photo      Delete a photo
  get_day           Every routine of a date with its exercises

AVAILABLE RESOURCES:

  pump://today      Today's routines with set counts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server, err := mcp.NewServer(pumpApp.Syncer, pumpApp.Log.With("component", "mcp"))
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			cancel()
		}()

		return server.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
