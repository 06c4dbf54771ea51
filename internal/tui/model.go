package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/existflow/promptpicker/internal/inject"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/prompts"
	"github.com/existflow/promptpicker/internal/sync"
)

// How long transient feedback stays on screen
const (
	MessageTimeout   = 3 * time.Second
	InjectedTimeout  = 2 * time.Second
	mutationDeadline = 10 * time.Second
)

// Pane represents which pane is focused
type Pane int

const (
	PaneBar Pane = iota
	PaneFolders
)

// Mode represents the current UI mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAddPrompt
	ModeEditPrompt
	ModeAddFolder
	ModeConfirmDelete
	ModeMove
	ModeHelp
)

// Model is the bar
type Model struct {
	lib      *prompts.Library
	injector inject.Injector
	watcher  *sync.Watcher
	reloads  chan reloadMsg
	ctx      context.Context
	cancel   context.CancelFunc

	snap *prompts.Snapshot

	// UI state
	width        int
	height       int
	pane         Pane
	mode         Mode
	cursor       int
	folderCursor int
	moveCursor   int

	// Add/edit modal
	titleInput   textinput.Model
	contentInput textarea.Model
	editingID    string
	editFocus    int

	// Pending actions
	deleteTarget deleteTarget
	groupFirst   string

	// Feedback
	message    string
	isError    bool
	messageSeq int
	injectedID string
	injectSeq  int
}

// deleteTarget is what the confirmation modal is asking about
type deleteTarget struct {
	promptID string
	folderID string
	name     string
}

// NewModel creates the bar for lib. Reloads come from a Watcher polling every
// interval.
func NewModel(lib *prompts.Library, injector inject.Injector, interval time.Duration) Model {
	logger.Info("Initializing TUI model")

	ti := textinput.New()
	ti.Placeholder = "Title"
	ti.CharLimit = 120
	ti.Width = 50

	ta := textarea.New()
	ta.Placeholder = "Prompt content..."
	ta.SetWidth(60)
	ta.SetHeight(8)
	ta.CharLimit = 0

	ctx, cancel := context.WithCancel(context.Background())
	m := Model{
		lib:          lib,
		injector:     injector,
		watcher:      sync.NewWatcher(lib, lib.Channel(), sync.WithInterval(interval)),
		reloads:      make(chan reloadMsg, 1),
		ctx:          ctx,
		cancel:       cancel,
		titleInput:   ti,
		contentInput: ta,
	}

	reloads := m.reloads
	m.watcher.SetOnReload(func(snap *prompts.Snapshot, reason sync.Reason) {
		msg := reloadMsg{snap: snap, reason: reason}
		// keep only the newest snapshot
		select {
		case reloads <- msg:
		default:
			select {
			case <-reloads:
			default:
			}
			select {
			case reloads <- msg:
			default:
			}
		}
	})
	m.watcher.SetOnError(func(err error) {
		logger.Warn("Background reload failed", logger.F("error", err))
	})

	snap, err := lib.LoadAll(ctx)
	if err != nil {
		logger.Error("Failed to load prompts", logger.F("error", err))
		m.message, m.isError = "Failed to load prompts: "+err.Error(), true
		snap = &prompts.Snapshot{Settings: model.DefaultSettings(), License: model.FreeLicense(), Tier: model.TierFree}
	}
	m.setSnapshot(snap)

	logger.Debug("TUI model initialized",
		logger.F("prompts", len(m.snap.Prompts)),
		logger.F("folders", len(m.snap.Folders)))
	return m
}

// Close stops background reloads
func (m Model) Close() {
	m.watcher.Stop()
	m.cancel()
}

func (m *Model) setSnapshot(snap *prompts.Snapshot) {
	m.snap = snap
	m.watcher.Observe(snap)

	if n := len(snap.Display()); m.cursor >= n {
		m.cursor = max(0, n-1)
	}
	if m.folderCursor >= len(snap.Folders) {
		m.folderCursor = max(0, len(snap.Folders)-1)
	}
	if m.groupFirst != "" {
		if _, ok := snap.Prompt(m.groupFirst); !ok {
			m.groupFirst = ""
		}
	}
	if snap.Recovered {
		m.message, m.isError = "Prompt store was unreadable and has been reset", true
	}
}

func (m *Model) currentPrompt() (model.Prompt, bool) {
	return m.snap.Slot(m.cursor)
}

func (m *Model) currentFolder() (model.Folder, bool) {
	if m.folderCursor < len(m.snap.Folders) {
		return m.snap.Folders[m.folderCursor], true
	}
	return model.Folder{}, false
}
