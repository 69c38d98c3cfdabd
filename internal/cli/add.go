package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a new task",
	Long: `Add a new task. The task is stored locally right away and pushed
to the sync server on the next reconciliation pass.

Examples:
  taskrelay add "Buy groceries"
  taskrelay add "Write trip report" -d "include receipts"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

var addDescription string

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Longer description")
}

func runAdd(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer env.Close()

	title := strings.Join(args, " ")

	t, err := env.Service.Create(title, addDescription)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	fmt.Printf("✓ Added: \"%s\" (%s)\n", t.Title, shortID(t.ID))
	return nil
}

// shortID returns the display prefix of a task ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
