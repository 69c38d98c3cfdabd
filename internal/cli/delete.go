package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/taskrelay/internal/config"
)

var deleteCmd = &cobra.Command{
	Use:     "delete [task-id]",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Long: `Delete a task by its ID. The deletion takes effect locally at once;
if the task has already been synced, the server copy is removed on the
next reconciliation pass.

Examples:
  taskrelay delete 1a2b3c4d
  taskrelay rm 1a2b3c4d`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer env.Close()

	t, err := env.Service.Get(args[0])
	if err != nil {
		return fmt.Errorf("task not found: %s", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}
	if cfg.ConfirmDelete {
		fmt.Printf("About to delete: \"%s\" (ID: %s)\n", t.Title, shortID(t.ID))
		fmt.Print("Are you sure? [y/N]: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "y" && confirm != "Y" {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := env.Service.Delete(t.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	fmt.Printf("🗑️  Deleted: \"%s\"\n", t.Title)
	return nil
}
