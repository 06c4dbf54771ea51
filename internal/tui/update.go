package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/prompts"
	"github.com/existflow/promptpicker/internal/sync"
)

// reloadMsg carries a snapshot the watcher reloaded
type reloadMsg struct {
	snap   *prompts.Snapshot
	reason sync.Reason
}

// mutatedMsg reports a change made from this window
type mutatedMsg struct {
	ack  *prompts.Ack
	snap *prompts.Snapshot
	err  error
	done string
}

// injectedMsg reports the outcome of an injection
type injectedMsg struct {
	id  string
	err error
}

type clearMessageMsg struct{ seq int }

type clearInjectedMsg struct{ seq int }

// Init starts the watcher and waits for its first reload
func (m Model) Init() tea.Cmd {
	m.watcher.Start(m.ctx)
	return m.waitForReload()
}

// waitForReload delivers the next snapshot from the watcher
func (m Model) waitForReload() tea.Cmd {
	reloads, ctx := m.reloads, m.ctx
	return func() tea.Msg {
		select {
		case msg := <-reloads:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

// mutate applies change off the UI goroutine and reloads the snapshot
func (m Model) mutate(change prompts.Change, done string) tea.Cmd {
	lib, parent := m.lib, m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, mutationDeadline)
		defer cancel()

		ack, err := lib.Mutate(ctx, change)
		if err != nil {
			return mutatedMsg{err: err}
		}
		snap, err := lib.LoadAll(ctx)
		return mutatedMsg{ack: ack, snap: snap, err: err, done: done}
	}
}

func (m Model) injectPrompt(p model.Prompt) tea.Cmd {
	injector, parent := m.injector, m.ctx
	return func() tea.Msg {
		return injectedMsg{id: p.ID, err: injector.Inject(parent, p.Content)}
	}
}

// flash shows a status message that clears itself
func (m *Model) flash(text string, isError bool) tea.Cmd {
	m.messageSeq++
	m.message, m.isError = text, isError
	seq := m.messageSeq
	return tea.Tick(MessageTimeout, func(time.Time) tea.Msg { return clearMessageMsg{seq: seq} })
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case reloadMsg:
		logger.Debug("Bar reloaded", logger.F("reason", msg.reason))
		m.setSnapshot(msg.snap)
		return m, m.waitForReload()

	case mutatedMsg:
		return m.handleMutated(msg)

	case injectedMsg:
		if msg.err != nil {
			return m, m.flash("Injection failed: "+msg.err.Error(), true)
		}
		m.injectSeq++
		m.injectedID = msg.id
		seq := m.injectSeq
		return m, tea.Tick(InjectedTimeout, func(time.Time) tea.Msg { return clearInjectedMsg{seq: seq} })

	case clearMessageMsg:
		if msg.seq == m.messageSeq {
			m.message, m.isError = "", false
		}
		return m, nil

	case clearInjectedMsg:
		if msg.seq == m.injectSeq {
			m.injectedID = ""
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		// Handle mode-specific input
		switch m.mode {
		case ModeAddPrompt, ModeEditPrompt:
			return m.updatePromptModal(msg)
		case ModeAddFolder:
			return m.updateFolderInput(msg)
		case ModeConfirmDelete:
			return m.updateConfirmDelete(msg)
		case ModeMove:
			return m.updateMove(msg)
		case ModeHelp:
			m.mode = ModeNormal
			return m, nil
		}

		// Normal mode key handling
		return m.handleNormalKeys(msg)
	}

	return m, nil
}

func (m Model) handleMutated(msg mutatedMsg) (tea.Model, tea.Cmd) {
	var vErr *prompts.ValidationError
	switch {
	case errors.As(msg.err, &vErr):
		return m, m.flash(vErr.Message, true)
	case errors.Is(msg.err, prompts.ErrNotConfirmed):
		return m, m.flash("Delete cancelled", false)
	case msg.err != nil:
		logger.Error("Change failed", logger.F("error", msg.err))
		return m, m.flash(msg.err.Error(), true)
	}

	if msg.snap != nil {
		m.setSnapshot(msg.snap)
	}
	if msg.ack.Denied {
		return m, m.flash("🔒 "+msg.ack.Reason, true)
	}
	if msg.ack.Conflict {
		return m, m.flash(msg.done+" (another window saved at the same time)", false)
	}
	return m, m.flash(msg.done, false)
}

// handleNormalKeys handles key presses in normal mode
func (m Model) handleNormalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab):
		if m.pane == PaneBar {
			m.pane = PaneFolders
		} else {
			m.pane = PaneBar
		}

	case key.Matches(msg, keys.Up):
		m.handleUp()

	case key.Matches(msg, keys.Down):
		m.handleDown()

	case key.Matches(msg, keys.Slot):
		slot := int(msg.String()[0] - '1')
		if p, ok := m.snap.Slot(slot); ok {
			m.cursor = slot
			return m, m.injectPrompt(p)
		}
		return m, m.flash(fmt.Sprintf("Slot %d is empty", slot+1), true)

	case key.Matches(msg, keys.Enter):
		if m.pane == PaneFolders {
			if f, ok := m.currentFolder(); ok {
				return m, m.mutate(prompts.ToggleFolder{ID: f.ID}, "Toggled "+f.Name)
			}
			return m, nil
		}
		if p, ok := m.currentPrompt(); ok {
			return m, m.injectPrompt(p)
		}

	case key.Matches(msg, keys.Add):
		return m.startAddPrompt()

	case key.Matches(msg, keys.Edit):
		return m.startEditPrompt()

	case key.Matches(msg, keys.Delete):
		return m.startDelete()

	case key.Matches(msg, keys.Folder):
		return m.startAddFolder()

	case key.Matches(msg, keys.Move):
		if _, ok := m.currentPrompt(); ok && m.pane == PaneBar {
			m.mode = ModeMove
			m.moveCursor = 0
		}

	case key.Matches(msg, keys.Group):
		return m.handleGroup()

	case key.Matches(msg, keys.Escape):
		if m.groupFirst != "" {
			m.groupFirst = ""
			return m, m.flash("Grouping cancelled", false)
		}

	case key.Matches(msg, keys.Help):
		m.mode = ModeHelp

	case key.Matches(msg, keys.Refresh):
		m.watcher.Refresh()
		return m, m.flash("Reloading...", false)
	}

	return m, nil
}

func (m *Model) handleUp() {
	if m.pane == PaneFolders {
		if m.folderCursor > 0 {
			m.folderCursor--
		}
	} else if m.cursor > 0 {
		m.cursor--
	}
}

func (m *Model) handleDown() {
	if m.pane == PaneFolders {
		if m.folderCursor < len(m.snap.Folders)-1 {
			m.folderCursor++
		}
	} else if m.cursor < len(m.snap.Display())-1 {
		m.cursor++
	}
}

// handleGroup marks the first prompt, then merges it with the second
func (m Model) handleGroup() (tea.Model, tea.Cmd) {
	p, ok := m.currentPrompt()
	if !ok || m.pane != PaneBar {
		return m, nil
	}
	if m.groupFirst == "" {
		m.groupFirst = p.ID
		return m, m.flash(fmt.Sprintf("Grouping \"%s\": select another prompt and press g", truncate(p.Title, 20)), false)
	}
	if m.groupFirst == p.ID {
		m.groupFirst = ""
		return m, m.flash("Grouping cancelled", false)
	}
	first := m.groupFirst
	m.groupFirst = ""
	return m, m.mutate(prompts.MergePrompts{FirstID: first, SecondID: p.ID}, "Grouped into a new folder")
}

func (m Model) startAddPrompt() (tea.Model, tea.Cmd) {
	m.mode = ModeAddPrompt
	m.editingID = ""
	m.titleInput.SetValue("")
	m.contentInput.SetValue("")
	return m.focusTitle()
}

func (m Model) startEditPrompt() (tea.Model, tea.Cmd) {
	p, ok := m.currentPrompt()
	if !ok || m.pane != PaneBar {
		return m, nil
	}
	m.mode = ModeEditPrompt
	m.editingID = p.ID
	m.titleInput.SetValue(p.Title)
	m.titleInput.CursorEnd()
	m.contentInput.SetValue(p.Content)
	return m.focusTitle()
}

func (m Model) focusTitle() (tea.Model, tea.Cmd) {
	m.editFocus = 0
	m.contentInput.Blur()
	return m, m.titleInput.Focus()
}

func (m Model) startAddFolder() (tea.Model, tea.Cmd) {
	m.mode = ModeAddFolder
	m.titleInput.SetValue("")
	m.titleInput.Placeholder = "Folder name"
	return m, tea.Batch(m.titleInput.Focus(), textinput.Blink)
}

func (m Model) startDelete() (tea.Model, tea.Cmd) {
	if m.pane == PaneFolders {
		if f, ok := m.currentFolder(); ok {
			m.deleteTarget = deleteTarget{folderID: f.ID, name: f.Name}
			m.mode = ModeConfirmDelete
		}
		return m, nil
	}
	if p, ok := m.currentPrompt(); ok {
		m.deleteTarget = deleteTarget{promptID: p.ID, name: p.Title}
		m.mode = ModeConfirmDelete
	}
	return m, nil
}

func (m Model) updatePromptModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.titleInput.Blur()
		m.contentInput.Blur()
		return m, nil

	case key.Matches(msg, keys.Tab):
		if m.editFocus == 0 {
			m.editFocus = 1
			m.titleInput.Blur()
			return m, m.contentInput.Focus()
		}
		return m.focusTitle()

	case key.Matches(msg, keys.Save), m.editFocus == 0 && key.Matches(msg, keys.Enter):
		title, content := m.titleInput.Value(), m.contentInput.Value()
		if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
			return m, m.flash("Please enter both title and content", true)
		}

		var cmd tea.Cmd
		if m.mode == ModeEditPrompt {
			cmd = m.mutate(prompts.EditPrompt{ID: m.editingID, Title: title, Content: content}, "Updated: "+strings.TrimSpace(title))
		} else {
			cmd = m.mutate(prompts.AddPrompt{Title: title, Content: content}, "Added: "+strings.TrimSpace(title))
		}
		m.mode = ModeNormal
		m.titleInput.Blur()
		m.contentInput.Blur()
		return m, cmd
	}

	var cmd tea.Cmd
	if m.editFocus == 0 {
		m.titleInput, cmd = m.titleInput.Update(msg)
	} else {
		m.contentInput, cmd = m.contentInput.Update(msg)
	}
	return m, cmd
}

func (m Model) updateFolderInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
		m.titleInput.Placeholder = "Title"
		return m, nil

	case key.Matches(msg, keys.Enter):
		name := strings.TrimSpace(m.titleInput.Value())
		m.mode = ModeNormal
		m.titleInput.Placeholder = "Title"
		m.titleInput.Blur()
		if name == "" {
			return m, nil
		}
		return m, m.mutate(prompts.CreateFolder{Name: name}, "Created folder: "+name)
	}

	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(msg)
	return m, cmd
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.deleteTarget
	switch {
	case key.Matches(msg, keys.Yes):
		m.mode = ModeNormal
		m.deleteTarget = deleteTarget{}
		if target.folderID != "" {
			return m, m.mutate(prompts.DeleteFolder{ID: target.folderID}, "Deleted folder: "+target.name)
		}
		return m, m.mutate(prompts.DeletePrompt{
			ID:      target.promptID,
			Confirm: func(p model.Prompt) bool { return p.ID == target.promptID },
		}, "Deleted: "+target.name)

	case key.Matches(msg, keys.No):
		m.mode = ModeNormal
		m.deleteTarget = deleteTarget{}
		return m, m.flash("Delete cancelled", false)
	}
	return m, nil
}

// moveChoices lists the folder ids a prompt can move to; "" unfiles it
func (m Model) moveChoices() []string {
	ids := []string{""}
	for _, f := range m.snap.Folders {
		ids = append(ids, f.ID)
	}
	return ids
}

func (m Model) updateMove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	choices := m.moveChoices()
	switch {
	case key.Matches(msg, keys.Escape):
		m.mode = ModeNormal
	case key.Matches(msg, keys.Up):
		if m.moveCursor > 0 {
			m.moveCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.moveCursor < len(choices)-1 {
			m.moveCursor++
		}
	case key.Matches(msg, keys.Enter):
		m.mode = ModeNormal
		p, ok := m.currentPrompt()
		if !ok || m.moveCursor >= len(choices) {
			return m, nil
		}
		folderID := choices[m.moveCursor]
		done := "Moved out of folder"
		if f, ok := m.snap.Folder(folderID); ok {
			done = "Moved to " + f.Name
		}
		return m, m.mutate(prompts.AssignToFolder{PromptID: p.ID, FolderID: folderID}, done)
	}
	return m, nil
}
