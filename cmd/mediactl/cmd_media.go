package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Purge media orphaned for at least --older-than-days",
	Args:  cobra.NoArgs,
	RunE:  runCleanup,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <media-id>",
	Short: "Delete a media object and its blob",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print storage statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	cleanupCmd.Flags().Int("older-than-days", -1, "Minimum orphan age in days (defaults to cleanup.older_than_days)")
	deleteCmd.Flags().Bool("force", false, "Delete even while documents reference it")
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	days, _ := cmd.Flags().GetInt("older-than-days")
	if days < 0 {
		days = a.Config.Cleanup.OlderThanDays
	}
	result, err := a.Media.CleanupOrphaned(cmd.Context(), days)
	if err != nil {
		return err
	}
	if err := printJSON(cmd, result); err != nil {
		return err
	}
	if result.Partial() {
		return fmt.Errorf("%d of %d objects could not be purged", len(result.Failures), result.Requested)
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	force, _ := cmd.Flags().GetBool("force")
	obj, err := a.Media.Delete(cmd.Context(), args[0], force)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s (%s, %d reference(s))\n", obj.ID, obj.StoragePath, obj.ReferenceCount)
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.Media.Stats(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd, stats)
}
