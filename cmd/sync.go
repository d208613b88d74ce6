package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studorama/studorama/internal/cloudsync"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize your data with Dropbox",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, cloudsync.StrategyNone)
	},
}

var syncConnectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect a Dropbox account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		appKey, _ := cmd.Flags().GetString("app-key")
		token, _ := cmd.Flags().GetString("token")
		if token == "" {
			// Read the secret from stdin rather than the process list.
			fmt.Fprint(os.Stderr, "Dropbox access token: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			token = strings.TrimSpace(line)
		}

		if err := e.engine.Connect(cmd.Context(), appKey, token); err != nil {
			return err
		}
		fmt.Println("Connected to Dropbox.")
		return nil
	},
}

var syncDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Disconnect Dropbox and clear the stored token",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		if err := e.engine.Disconnect(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Disconnected.")
		return nil
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the sync connection status",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		cfg := e.engine.Configuration(cmd.Context())
		if !cfg.IsConnected {
			fmt.Println("Not connected.")
			return nil
		}
		fmt.Println("Connected to Dropbox.")
		if cfg.LastSync != nil {
			fmt.Println("Last sync:", cfg.LastSync.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("Never synced.")
		}
		if cfg.AutoSync {
			fmt.Printf("Auto-sync every %s.\n", cfg.Interval())
		}
		return nil
	},
}

var syncResolveCmd = &cobra.Command{
	Use:   "resolve {local|remote}",
	Short: "Resolve a sync conflict by choosing a side",
	Long: "Resolve a pending sync conflict. 'local' uploads this machine's data, " +
		"overwriting the remote copy. 'remote' replaces ALL local data with the " +
		"remote copy — sessions added here since the conflict are discarded.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy := cloudsync.Strategy(args[0])
		if strategy != cloudsync.StrategyLocal && strategy != cloudsync.StrategyRemote {
			return fmt.Errorf("strategy must be 'local' or 'remote', got %q", args[0])
		}
		if strategy == cloudsync.StrategyRemote {
			yes, _ := cmd.Flags().GetBool("yes")
			if !yes && !confirm("Replace ALL local data with the remote copy?") {
				fmt.Println("Aborted.")
				return nil
			}
		}
		return runSync(cmd, strategy)
	},
}

var syncAutoCmd = &cobra.Command{
	Use:   "auto {on|off}",
	Short: "Enable or disable periodic background sync",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.cleanup()

		ctx := cmd.Context()
		cfg := e.engine.Configuration(ctx)
		switch args[0] {
		case "on":
			cfg.AutoSync = true
			if interval, _ := cmd.Flags().GetInt("interval"); interval > 0 {
				cfg.SyncIntervalMinutes = interval
			}
		case "off":
			cfg.AutoSync = false
		default:
			return fmt.Errorf("expected 'on' or 'off', got %q", args[0])
		}
		return e.engine.SaveConfiguration(ctx, cfg)
	},
}

func runSync(cmd *cobra.Command, strategy cloudsync.Strategy) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.cleanup()

	res, err := e.engine.Sync(cmd.Context(), strategy)
	if err != nil {
		return err
	}
	if res.Conflict != nil {
		c := res.Conflict
		fmt.Println("Sync conflict: both this machine and the remote copy changed.")
		fmt.Println("  local last modified: ", c.LocalLastModified.Format("2006-01-02 15:04:05"))
		fmt.Println("  remote last modified:", c.RemoteLastModified.Format("2006-01-02 15:04:05"))
		fmt.Println("Nothing was written. Run 'studorama sync resolve local' or")
		fmt.Println("'studorama sync resolve remote' to pick a side.")
		return nil
	}
	fmt.Println("Sync complete.")
	return nil
}

func confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N] ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	syncConnectCmd.Flags().String("app-key", "", "Dropbox app key")
	syncConnectCmd.Flags().String("token", "", "Dropbox access token (prompted on stdin when omitted)")
	syncResolveCmd.Flags().Bool("yes", false, "Skip the confirmation prompt")
	syncAutoCmd.Flags().Int("interval", 0, "Sync interval in minutes")

	syncCmd.AddCommand(syncConnectCmd)
	syncCmd.AddCommand(syncDisconnectCmd)
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncResolveCmd)
	syncCmd.AddCommand(syncAutoCmd)
}
