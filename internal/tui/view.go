package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/taskrelay/internal/model"
)

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	mainContent := m.renderTaskList()
	statusBar := m.renderStatusBar()

	if m.mode == ModeAddTask {
		modal := m.renderModal()
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			modal,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	if m.mode == ModeHelp {
		mainContent = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m Model) renderTaskList() string {
	width := m.width
	var s string

	header := fmt.Sprintf("TaskRelay (%d pending)", len(m.active))
	s += lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n"
	s += lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(width-6, 1))) + "\n\n"

	if len(m.rows) == 0 {
		s += HelpStyle.Render("  No tasks. Press 'a' to add one.")
	}

	for i, r := range m.rows {
		if r.task == nil {
			s += "\n" + SectionStyle.Render(r.section) + "\n"
			continue
		}
		t := r.task

		cursor := "  "
		style := TaskItemStyle
		if i == m.cursor {
			cursor = "❯ "
			style = TaskItemSelectedStyle
		}

		icon := "[ ]"
		if t.Completed {
			icon = "[x]"
			if i != m.cursor {
				style = TaskDoneStyle
			}
		}

		title := truncate(t.Title, max(width-16, 10))
		line := style.Render(fmt.Sprintf("%s%s %s", cursor, icon, title))

		s += line + m.renderSyncMarker(t) + "\n"
	}

	return TaskListStyle.Width(width).Height(m.height - 2).Render(s)
}

func (m Model) renderSyncMarker(t *model.Task) string {
	switch t.SyncStatus {
	case model.SyncPending:
		return " " + SyncPendingStyle.Render("○")
	case model.SyncError:
		return " " + SyncErrorStyle.Render("!")
	default:
		return ""
	}
}

func (m Model) renderStatusBar() string {
	help := "a:add  x:done  d:del  s:sync  ?:help  q:quit"
	if m.message != "" {
		help = m.message
	}

	status := m.renderSyncStatus()
	avail := m.width - lipgloss.Width(help) - lipgloss.Width(status) - 2
	if avail > 0 {
		help += strings.Repeat(" ", avail) + status
	} else {
		help += " " + status
	}

	return StatusBarStyle.Width(m.width).Render(help)
}

func (m Model) renderSyncStatus() string {
	var parts []string

	if m.svc.IsOnline() {
		parts = append(parts, SyncOKStyle.Render("● online"))
	} else {
		parts = append(parts, OfflineStyle.Render("○ offline"))
	}

	if n := m.svc.PendingCount(); n > 0 {
		parts = append(parts, SyncPendingStyle.Render(fmt.Sprintf("%d pending", n)))
	}

	if m.syncing {
		parts = append(parts, "syncing...")
	} else if last := m.svc.LastSyncTime(); !last.IsZero() {
		parts = append(parts, HelpStyle.Render("synced "+relativeTime(last)))
	}

	return strings.Join(parts, "  ")
}

func (m Model) renderModal() string {
	content := lipgloss.NewStyle().Bold(true).Render("Add Task") + "\n\n"
	content += m.input.View() + "\n\n"
	content += HelpStyle.Render("Enter:save  Esc:cancel")
	return ModalStyle.Render(content)
}

func (m Model) renderHelp() string {
	help := `
╭─── Keyboard Shortcuts ───╮
│                          │
│  Navigation              │
│  ──────────              │
│  j/↓    Move down        │
│  k/↑    Move up          │
│  G      Go to bottom     │
│                          │
│  Actions                 │
│  ───────                 │
│  a       Add task        │
│  x/Enter Toggle done     │
│  d       Delete          │
│  s       Sync now        │
│                          │
│  Other                   │
│  ─────                   │
│  ?       Toggle help     │
│  q       Quit            │
│                          │
╰──────────────────────────╯

     Press any key to close
`
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, help)
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}
