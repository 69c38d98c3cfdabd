package tui

import "github.com/charmbracelet/lipgloss"

// Color palette based on TUI design
var (
	// Status colors
	Completed   = lipgloss.Color("#95E1A3") // Green
	SyncOK      = lipgloss.Color("#95E1A3") // Green
	SyncPending = lipgloss.Color("#FFE66D") // Yellow
	SyncError   = lipgloss.Color("#FF6B6B") // Red
	Offline     = lipgloss.Color("#6C757D") // Gray

	// UI colors
	Primary    = lipgloss.Color("#4ECDC4")
	Secondary  = lipgloss.Color("#6C757D")
	Background = lipgloss.Color("#1a1a2e")
	Surface    = lipgloss.Color("#16213e")
	Text       = lipgloss.Color("#FFFFFF")
	TextMuted  = lipgloss.Color("#888888")
	Border     = lipgloss.Color("#333333")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Section labels (Active / Completed)
	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary).
			Padding(0, 1)

	// Task list
	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Task item
	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	// Sync markers
	SyncOKStyle      = lipgloss.NewStyle().Foreground(SyncOK)
	SyncPendingStyle = lipgloss.NewStyle().Foreground(SyncPending)
	SyncErrorStyle   = lipgloss.NewStyle().Foreground(SyncError).Bold(true)
	OfflineStyle     = lipgloss.NewStyle().Foreground(Offline)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)
