package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var doneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task as done",
	Long: `Mark a task as completed. Accepts a full or short task ID.

Examples:
  taskrelay done 1a2b3c4d
  taskrelay done 1a2b3c4d --undo`,
	Args: cobra.ExactArgs(1),
	RunE: runDone,
}

var doneUndo bool

func init() {
	doneCmd.Flags().BoolVar(&doneUndo, "undo", false, "Mark task as not done")
}

func runDone(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer env.Close()

	t, err := env.Service.Get(args[0])
	if err != nil {
		return fmt.Errorf("task not found: %s", args[0])
	}

	completed := !doneUndo
	if t.Completed == completed {
		fmt.Printf("Nothing to do: \"%s\"\n", t.Title)
		return nil
	}

	if _, err := env.Service.Toggle(t.ID); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	if completed {
		fmt.Printf("✓ Completed: \"%s\"\n", t.Title)
	} else {
		fmt.Printf("○ Reopened: \"%s\"\n", t.Title)
	}

	return nil
}
