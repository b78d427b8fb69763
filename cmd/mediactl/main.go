package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mediactl",
	Short: "Operator CLI for the media service",
	Long: `mediactl runs maintenance tasks against the media service's database
and blob store.

Examples:
  mediactl migrate up
  mediactl cleanup --older-than-days 30
  mediactl delete 6f1c... --force
  mediactl stats
  mediactl token admin-user-id`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(tokenCmd)

	rootCmd.PersistentFlags().StringP("config", "c", os.Getenv("CONFIG_PATH"), "Path to config file (defaults to $CONFIG_PATH)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
}
