package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/existflow/taskrelay/internal/engine"
)

// tickMsg is sent every few seconds to refresh the list and status bar
type tickMsg time.Time

// syncDoneMsg is sent when a manual sync finishes
type syncDoneMsg struct {
	report engine.Report
	err    error
}

// Init initializes the model with a tick command
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Every(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// syncCmd runs a manual sync in the background
func (m Model) syncCmd() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		report, err := svc.SyncNow(ctx)
		return syncDoneMsg{report: report, err: err}
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		// Background reconciliation may have changed local state
		m.loadData()
		return m, tickCmd()

	case syncDoneMsg:
		m.syncing = false
		if msg.err != nil {
			m.message = fmt.Sprintf("Sync failed: %v", msg.err)
		} else if msg.report.Failed > 0 {
			m.message = fmt.Sprintf("Synced: %d pushed, %d failed", msg.report.Succeeded, msg.report.Failed)
		} else {
			m.message = fmt.Sprintf("Synced: %d pushed", msg.report.Succeeded)
		}
		m.loadData()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeAddTask:
			return m.updateInput(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case msg.String() == "G":
		m.cursor = len(m.rows) - 1
		m.snapToTask(-1)

	case key.Matches(msg, keys.Add):
		return m.startAddTask()

	case key.Matches(msg, keys.Done), key.Matches(msg, keys.Enter):
		m.handleToggleDone()

	case key.Matches(msg, keys.Delete):
		m.handleDelete()

	case key.Matches(msg, keys.Sync):
		return m.startSync()

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) handleUp() {
	for i := m.cursor - 1; i >= 0; i-- {
		if m.rows[i].task != nil {
			m.cursor = i
			return
		}
	}
}

func (m *Model) handleDown() {
	for i := m.cursor + 1; i < len(m.rows); i++ {
		if m.rows[i].task != nil {
			m.cursor = i
			return
		}
	}
}

func (m Model) startAddTask() (tea.Model, tea.Cmd) {
	m.mode = ModeAddTask
	m.input.SetValue("")
	m.input.Placeholder = "Enter task..."
	m.input.Focus()
	return m, textinput.Blink
}

func (m *Model) handleToggleDone() {
	task := m.currentTask()
	if task == nil {
		return
	}
	if _, err := m.svc.Toggle(task.ID); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.loadData()
}

func (m *Model) handleDelete() {
	task := m.currentTask()
	if task == nil {
		return
	}
	if err := m.svc.Delete(task.ID); err != nil {
		m.message = fmt.Sprintf("Error: %v", err)
		return
	}
	m.message = fmt.Sprintf("Deleted: %s", task.Title)
	m.loadData()
}

func (m Model) startSync() (tea.Model, tea.Cmd) {
	if m.syncing {
		return m, nil
	}
	m.syncing = true
	m.message = "Syncing..."
	return m, m.syncCmd()
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		return m, nil

	case key.Matches(msg, keys.Enter):
		value := m.input.Value()
		if value == "" {
			m.mode = ModeNormal
			return m, nil
		}
		if _, err := m.svc.Create(value, ""); err != nil {
			m.message = fmt.Sprintf("Error adding task: %v", err)
		} else {
			m.message = fmt.Sprintf("Added: %s", value)
		}
		m.loadData()
		m.mode = ModeNormal
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
