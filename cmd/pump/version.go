// ABOUTME: CLI command printing the build version.
// ABOUTME: The version is set at link time with -ldflags "-X main.version=...".
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harperreed/pump/internal/mcp"
)

var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pump %s (mcp server %s)\n", version, mcp.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
