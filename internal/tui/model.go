package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/existflow/taskrelay/internal/logger"
	"github.com/existflow/taskrelay/internal/model"
	"github.com/existflow/taskrelay/internal/tasks"
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddTask
	ModeHelp
)

// row is a rendered line in the task list: either a section label or a task.
type row struct {
	section string
	task    *model.Task
}

// Model is the main TUI model
type Model struct {
	svc *tasks.Service

	active    []model.Task
	completed []model.Task
	rows      []row

	// UI state
	width  int
	height int
	mode   Mode
	cursor int

	// Input
	input textinput.Model

	syncing bool
	message string
}

// NewModel creates a new TUI model
func NewModel(svc *tasks.Service) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Enter task..."
	ti.CharLimit = 500
	ti.Width = 50

	m := Model{
		svc:   svc,
		mode:  ModeNormal,
		input: ti,
	}

	m.loadData()
	logger.Debug("TUI model initialized",
		logger.F("active", len(m.active)),
		logger.F("completed", len(m.completed)))
	return m
}

func (m *Model) loadData() {
	active, completed, err := m.svc.List()
	if err != nil {
		logger.Error("Failed to load tasks", logger.F("error", err))
		m.message = "failed to load tasks: " + err.Error()
		return
	}
	m.active = active
	m.completed = completed

	m.rows = m.rows[:0]
	if len(m.active) > 0 {
		m.rows = append(m.rows, row{section: "Active"})
		for i := range m.active {
			m.rows = append(m.rows, row{task: &m.active[i]})
		}
	}
	if len(m.completed) > 0 {
		m.rows = append(m.rows, row{section: "Completed"})
		for i := range m.completed {
			m.rows = append(m.rows, row{task: &m.completed[i]})
		}
	}

	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.snapToTask(1)
}

// snapToTask moves the cursor off section labels in the given direction.
func (m *Model) snapToTask(dir int) {
	for m.cursor >= 0 && m.cursor < len(m.rows) && m.rows[m.cursor].task == nil {
		m.cursor += dir
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) currentTask() *model.Task {
	if m.cursor >= 0 && m.cursor < len(m.rows) {
		return m.rows[m.cursor].task
	}
	return nil
}
