package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/prompts"
)

const sidebarWidth = 26

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	sidebar := m.renderSidebar()
	bar := m.renderBar()
	statusBar := m.renderStatusBar()

	mainContent := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, bar)

	var modal string
	switch m.mode {
	case ModeAddPrompt, ModeEditPrompt:
		modal = m.renderPromptModal()
	case ModeAddFolder:
		modal = ModalStyle.Render(HeaderStyle.Render("New folder") + "\n\n" + m.titleInput.View() +
			"\n\n" + HelpStyle.Render("enter create • esc cancel"))
	case ModeConfirmDelete:
		modal = m.renderConfirmModal()
	case ModeMove:
		modal = m.renderMoveModal()
	case ModeHelp:
		mainContent = m.renderHelp()
	}
	if modal != "" {
		mainContent = lipgloss.Place(
			m.width, m.height-2,
			lipgloss.Center, lipgloss.Center,
			modal,
			lipgloss.WithWhitespaceChars(" "),
		)
	}

	// Combine with status bar
	return lipgloss.JoinVertical(lipgloss.Left, mainContent, statusBar)
}

func (m Model) renderSidebar() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render("Prompt Picker") + "\n")
	if m.snap.Tier == model.TierPro {
		s.WriteString(ProBadgeStyle.Render("✨ PRO") + "\n")
	} else {
		s.WriteString(FreeBadgeStyle.Render(fmt.Sprintf("Free %d/%d", len(m.snap.Prompts), m.snap.Limit.Total)) + "\n")
	}
	s.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", sidebarWidth-4)) + "\n\n")

	if len(m.snap.Folders) == 0 {
		s.WriteString(HelpStyle.Render("No folders") + "\n")
	}
	for i, f := range m.snap.Folders {
		cursor := "  "
		style := FolderItemStyle
		if i == m.folderCursor && m.pane == PaneFolders {
			cursor = "❯ "
			style = FolderItemSelectedStyle
		}
		arrow := "▾"
		if !f.IsExpanded {
			arrow = "▸"
		}
		line := fmt.Sprintf("%s%s %s %-12s %d", cursor, arrow, Swatch(f.Color), truncate(f.Name, 12), len(f.Prompts))
		s.WriteString(style.Render(line) + "\n")
	}

	s.WriteString("\n" + lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", sidebarWidth-4)) + "\n")
	s.WriteString(HelpStyle.Render("toggle: " + m.snap.Settings.ToggleShortcut))

	return SidebarStyle.Width(sidebarWidth).Height(m.height - 2).Render(s.String())
}

func (m Model) renderBar() string {
	width := m.width - sidebarWidth - 2
	var s strings.Builder

	display := m.snap.Display()
	header := fmt.Sprintf("Bar (%d/%d)", len(display), prompts.MaxSlots)
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(Primary).Render(header) + "\n")
	s.WriteString(lipgloss.NewStyle().Foreground(Border).Render(strings.Repeat("─", max(0, width-4))) + "\n\n")

	if len(display) == 0 {
		s.WriteString(HelpStyle.Render("  No prompts. Press 'a' to add one."))
	}

	previewWidth := max(10, width-44)
	for i, p := range display {
		cursor := "  "
		style := PromptItemStyle
		if i == m.cursor && m.pane == PaneBar {
			cursor = "❯ "
			style = PromptItemSelectedStyle
		}
		if p.ID == m.injectedID {
			style = PromptInjectedStyle
		}

		mark := " "
		if p.ID == m.groupFirst {
			mark = "+"
		}

		line := fmt.Sprintf("%s%s %s %s %-24s %s",
			cursor,
			SlotStyle.Render(fmt.Sprintf("%d", i+1)),
			mark,
			Swatch(p.Color),
			truncate(p.Title, 24),
			HelpStyle.Render(truncate(oneLine(p.Preview()), previewWidth)),
		)
		s.WriteString(style.Render(line) + "\n")
	}

	if hidden := len(m.snap.Prompts) - len(display); hidden > 0 {
		s.WriteString("\n" + HelpStyle.Render(fmt.Sprintf("  %d more in collapsed folders or past slot %d", hidden, prompts.MaxSlots)))
	}

	return BarStyle.Width(width).Height(m.height - 2).Render(s.String())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.message != "" && m.isError:
		left = ErrorStyle.Render(m.message)
	case m.message != "":
		left = SuccessStyle.Render(m.message)
	case m.snap.Tier != model.TierPro && m.snap.Limit.IsAtLimit:
		left = WarningStyle.Render("Free plan limit reached. Upgrade to PRO for unlimited prompts.")
	case m.snap.Tier != model.TierPro && m.snap.Limit.IsNearLimit:
		left = WarningStyle.Render(fmt.Sprintf("%d prompt slots left on the free plan", m.snap.Limit.Remaining))
	default:
		left = "1-9 inject • a add • e edit • d delete • f folder • m move • g group • ? help • q quit"
	}
	return StatusBarStyle.Width(m.width).Render(left)
}

func (m Model) renderPromptModal() string {
	title := "New prompt"
	if m.mode == ModeEditPrompt {
		title = "Edit prompt"
	}
	body := HeaderStyle.Render(title) + "\n\n" +
		m.titleInput.View() + "\n\n" +
		m.contentInput.View() + "\n\n" +
		HelpStyle.Render("tab switch field • ctrl+s save • esc cancel")
	return ModalStyle.Render(body)
}

func (m Model) renderConfirmModal() string {
	what := "prompt"
	if m.deleteTarget.folderID != "" {
		what = "folder"
	}
	body := ErrorStyle.Bold(true).Render(fmt.Sprintf("Delete %s?", what)) + "\n\n" +
		fmt.Sprintf("\"%s\"", truncate(m.deleteTarget.name, 40)) + "\n\n"
	if what == "folder" {
		body += HelpStyle.Render("Its prompts go back to the bar.") + "\n\n"
	}
	body += HelpStyle.Render("y delete • n cancel")
	return DangerModalStyle.Render(body)
}

func (m Model) renderMoveModal() string {
	var s strings.Builder
	s.WriteString(HeaderStyle.Render("Move to folder") + "\n\n")
	for i, id := range m.moveChoices() {
		name := "(no folder)"
		if f, ok := m.snap.Folder(id); ok {
			name = f.Name
		}
		cursor := "  "
		if i == m.moveCursor {
			cursor = "❯ "
		}
		s.WriteString(cursor + name + "\n")
	}
	s.WriteString("\n" + HelpStyle.Render("enter move • esc cancel"))
	return ModalStyle.Render(s.String())
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"1-9", "inject the prompt in that slot"},
		{"enter", "inject selected prompt / toggle folder"},
		{"↑/↓ k/j", "move"},
		{"tab", "switch between bar and folders"},
		{"a", "add prompt"},
		{"e", "edit prompt"},
		{"d", "delete prompt or folder"},
		{"f", "new folder (PRO)"},
		{"m", "move prompt to folder (PRO)"},
		{"g", "group two prompts into a folder (PRO)"},
		{"r", "reload from disk"},
		{"q", "quit"},
		{"global", model.SlotShortcut(0) + " … " + model.SlotShortcut(prompts.MaxSlots-1)},
	}
	var s strings.Builder
	s.WriteString(HeaderStyle.Render("Keys") + "\n\n")
	for _, r := range rows {
		s.WriteString(fmt.Sprintf("  %-10s %s\n", r[0], r[1]))
	}
	s.WriteString("\n" + HelpStyle.Render("press any key to close"))
	return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, ModalStyle.Render(s.String()))
}
