package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/existflow/taskrelay/internal/model"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Long: `List tasks. Active tasks are shown by default.

Examples:
  taskrelay list
  taskrelay list --done`,
	RunE: runList,
}

var listIncludeDone bool

func init() {
	listCmd.Flags().BoolVar(&listIncludeDone, "done", false, "Include completed tasks")
}

func runList(cmd *cobra.Command, args []string) error {
	env, err := openLocal()
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer env.Close()

	active, completed, err := env.Service.List()
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}

	if len(active) == 0 && (!listIncludeDone || len(completed) == 0) {
		fmt.Println("No tasks found. Add one with: taskrelay add \"Your task\"")
		return nil
	}

	printTasks("Tasks", active)
	if listIncludeDone && len(completed) > 0 {
		printTasks("Completed", completed)
	}

	if n := env.Service.PendingCount(); n > 0 {
		fmt.Printf("  %d change(s) awaiting sync\n\n", n)
	}

	return nil
}

func printTasks(header string, tasks []model.Task) {
	fmt.Printf("\n%s (%d)\n", header, len(tasks))
	fmt.Println(strings.Repeat("─", 60))

	for _, t := range tasks {
		printTask(t)
	}
	fmt.Println()
}

func printTask(t model.Task) {
	icon := "[ ]"
	if t.Completed {
		icon = "[x]"
	}

	// Sync marker
	marker := " "
	switch t.SyncStatus {
	case model.SyncPending:
		marker = "○"
	case model.SyncError:
		marker = "!"
	}

	title := t.Title
	if len(title) > 44 {
		title = title[:41] + "..."
	}

	fmt.Printf("  %s %s  %-8s  %s\n", icon, marker, shortID(t.ID), title)
	if t.SyncStatus == model.SyncError && t.SyncError != "" {
		fmt.Printf("        sync error: %s\n", t.SyncError)
	}
}
