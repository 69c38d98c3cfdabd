package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync tasks with server",
	Long: `Reconcile local tasks with the sync server: pending local changes
are pushed, then the latest server state is pulled.

Commands:
  taskrelay sync              # Sync now
  taskrelay sync status       # Show sync status`,
	RunE: runSync,
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE:  runSyncStatus,
}

var syncConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Configure sync settings",
	RunE:  runSyncConfig,
}

func init() {
	syncCmd.AddCommand(syncStatusCmd)
	syncCmd.AddCommand(syncConfigCmd)

	syncConfigCmd.Flags().String("server", "", "Set server URL")
}

func runSync(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer env.Close()

	if !env.Session.IsLoggedIn() {
		return fmt.Errorf("not logged in, run 'taskrelay auth login' first")
	}

	fmt.Println("🔄 Synchronizing...")

	report, err := env.Service.SyncNow(cmd.Context())
	if err != nil {
		if report.Failed > 0 || report.Succeeded > 0 {
			fmt.Printf("Partial sync: pushed %d, failed %d\n", report.Succeeded, report.Failed)
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("✓ Sync complete! Pushed: %d, Failed: %d\n", report.Succeeded, report.Failed)
	if report.Failed > 0 {
		fmt.Println("  Run 'taskrelay list' to see which tasks need attention.")
	}
	return nil
}

func runSyncStatus(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	fmt.Printf("Server:    %s\n", env.Session.ServerURL())
	if env.Session.IsLoggedIn() {
		fmt.Printf("User ID:   %s\n", env.Session.UserID())
		fmt.Printf("Pending:   %d\n", env.Service.PendingCount())
		if last := env.Service.LastSyncTime(); !last.IsZero() {
			fmt.Printf("Last Sync: %s\n", last.Local().Format(time.RFC822))
		} else {
			fmt.Println("Last Sync: never")
		}
		fmt.Println("Status:    ✓ Logged in")
	} else {
		fmt.Println("Status:    Not logged in")
	}

	return nil
}

func runSyncConfig(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	server, _ := cmd.Flags().GetString("server")
	if server == "" {
		fmt.Printf("Server: %s\n", env.Session.ServerURL())
		return nil
	}

	if err := env.Session.SetServer(server); err != nil {
		return fmt.Errorf("failed to save server URL: %w", err)
	}

	fmt.Printf("✓ Server set to %s\n", server)
	return nil
}
