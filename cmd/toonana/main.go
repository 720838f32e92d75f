package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toonana/toonana/cmd/toonana/commands"
	"github.com/toonana/toonana/logger"
)

var rootCmd = &cobra.Command{
	Use:   "toonana",
	Short: "Toonana - turn journal entries into comics",
	Long: `Toonana - a journaling app that turns diary entries into comic strips.

Entries live in a local SQLite database with encrypted bodies. The studio
pipeline drafts a storyboard with a local text model, renders panels
through an image service, and tracks progress per job.

Examples:
  toonana serve                    # Start the local API server
  toonana entry add "Long day..."  # Create an entry
  toonana entry ls                 # List entries
  toonana generate <entry-id>      # Generate a comic for an entry
  toonana db stats                 # Show database statistics`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs, verbose); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Cleanup()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.EntryCmd)
	rootCmd.AddCommand(commands.GenerateCmd)
	rootCmd.AddCommand(commands.DbCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
