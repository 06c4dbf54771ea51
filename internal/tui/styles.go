package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	// Status colors
	Success = lipgloss.Color("#95E1A3") // Green
	Warning = lipgloss.Color("#FFE66D") // Yellow
	Danger  = lipgloss.Color("#FF6B6B") // Red
	Pro     = lipgloss.Color("#FFB347") // Orange

	// UI colors
	Primary    = lipgloss.Color("#4ECDC4")
	Secondary  = lipgloss.Color("#6C757D")
	Background = lipgloss.Color("#1a1a2e")
	Surface    = lipgloss.Color("#16213e")
	Text       = lipgloss.Color("#FFFFFF")
	TextMuted  = lipgloss.Color("#888888")
	Border     = lipgloss.Color("#333333")
	Highlight  = lipgloss.Color("#4ECDC4")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	// Sidebar
	SidebarStyle = lipgloss.NewStyle().
			Width(24).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Border).
			Padding(1, 1)

	// Prompt bar
	BarStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Folder item
	FolderItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	FolderItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	// Prompt item
	PromptItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	PromptItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	PromptInjectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Foreground(Background).
				Background(Success).
				Bold(true)

	SlotStyle = lipgloss.NewStyle().Foreground(TextMuted).Bold(true)

	ProBadgeStyle  = lipgloss.NewStyle().Foreground(Pro).Bold(true)
	FreeBadgeStyle = lipgloss.NewStyle().Foreground(TextMuted)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	ErrorStyle   = lipgloss.NewStyle().Foreground(Danger)
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	DangerModalStyle = ModalStyle.
				BorderForeground(Danger)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// Swatch renders a colored block for a prompt or folder color
func Swatch(classes string) string {
	return lipgloss.NewStyle().Foreground(gradientStart(classes)).Render("●")
}
