package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/existflow/taskrelay/internal/tasks"
)

var editCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task's title or description",
	Long: `Edit a task. Only the flags you pass are changed.

Examples:
  taskrelay edit 1a2b3c4d --title "New title"
  taskrelay edit 1a2b3c4d -d "More detail"`,
	Args: cobra.ExactArgs(1),
	RunE: runEdit,
}

var (
	editTitle       string
	editDescription string
)

func init() {
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
}

func runEdit(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("title") && !cmd.Flags().Changed("description") {
		return fmt.Errorf("nothing to change, pass --title or --description")
	}

	env, err := openLocal()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer env.Close()

	t, err := env.Service.Get(args[0])
	if err != nil {
		return fmt.Errorf("task not found: %s", args[0])
	}

	var fields tasks.Fields
	if cmd.Flags().Changed("title") {
		fields.Title = &editTitle
	}
	if cmd.Flags().Changed("description") {
		fields.Description = &editDescription
	}

	updated, err := env.Service.Update(t.ID, fields)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	fmt.Printf("✓ Updated: \"%s\"\n", updated.Title)
	return nil
}
