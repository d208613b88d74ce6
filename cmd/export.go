package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/studorama/studorama/internal/backup"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export sessions and settings to a JSON backup file",
	Long: "Export your sessions, API settings, language, and sync configuration " +
		"to a portable JSON file. The Dropbox access token is never included.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		f, err := backup.Export(cmd.Context(), e.kv, version)
		if err != nil {
			return fmt.Errorf("build backup: %w", err)
		}

		raw, err := json.MarshalIndent(f, "", "  ")
		if err != nil {
			return fmt.Errorf("encode backup: %w", err)
		}

		path := "studorama-backup.json"
		if len(args) > 0 {
			path = args[0]
		}
		if path == "-" {
			_, err = os.Stdout.Write(append(raw, '\n'))
			return err
		}
		if err := os.WriteFile(path, raw, 0o600); err != nil {
			return fmt.Errorf("write backup: %w", err)
		}
		fmt.Printf("Exported %d sessions to %s\n", len(f.Sessions), path)
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a backup file, replacing all local data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read backup: %w", err)
		}
		var f backup.File
		if err := json.Unmarshal(raw, &f); err != nil {
			return fmt.Errorf("decode backup: %w", err)
		}

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes && !confirm(fmt.Sprintf(
			"Replace ALL local data with %d sessions from %s?",
			len(f.Sessions), f.ExportDate.Format("2006-01-02"))) {
			fmt.Println("Aborted.")
			return nil
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		if err := backup.Import(cmd.Context(), e.kv, &f); err != nil {
			return fmt.Errorf("import backup: %w", err)
		}
		fmt.Println("Import complete.")
		return nil
	},
}

func init() {
	importCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
}
