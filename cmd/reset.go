package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all local data",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm("Delete ALL sessions, settings, and credentials?") {
			fmt.Println("Aborted.")
			return nil
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		// An empty swap wipes the namespace in one transaction.
		if err := e.kv.ReplaceAll(cmd.Context(), map[string]json.RawMessage{}); err != nil {
			return fmt.Errorf("wipe data: %w", err)
		}
		fmt.Println("All data deleted.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
