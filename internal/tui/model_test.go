package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/notify"
	"github.com/existflow/promptpicker/internal/prompts"
	"github.com/existflow/promptpicker/internal/store"
)

type recordingInjector struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingInjector) Inject(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func newTestModel(t *testing.T) (Model, *prompts.Library, *recordingInjector) {
	t.Helper()
	backend, err := store.NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	s := store.New(backend, store.WithLogger(logger.Nop()))
	lm := license.NewManager(s, nil, license.WithManagerLogger(logger.Nop()))
	lib := prompts.New(s, notify.NewBus(), lm, prompts.WithLogger(logger.Nop()))

	inj := &recordingInjector{}
	m := NewModel(lib, inj, time.Hour)
	t.Cleanup(m.Close)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model), lib, inj
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

// run executes cmd and feeds its message back into the model
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestSlotKeyInjects(t *testing.T) {
	m, _, inj := newTestModel(t)

	m, cmd := press(t, m, "2")
	m = run(t, m, cmd)

	want, _ := m.snap.Slot(1)
	if len(inj.texts) != 1 || inj.texts[0] != want.Content {
		t.Fatalf("injected %v", inj.texts)
	}
	if m.injectedID != want.ID || m.cursor != 1 {
		t.Errorf("injectedID=%q cursor=%d", m.injectedID, m.cursor)
	}

	next, _ := m.Update(clearInjectedMsg{seq: m.injectSeq})
	if next.(Model).injectedID != "" {
		t.Error("highlight not cleared")
	}
}

func TestEmptySlot(t *testing.T) {
	m, _, inj := newTestModel(t)
	m, _ = press(t, m, "9")
	if len(inj.texts) != 0 || !m.isError || !strings.Contains(m.message, "Slot 9 is empty") {
		t.Errorf("message=%q injected=%v", m.message, inj.texts)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, _, _ := newTestModel(t)
	first, _ := m.snap.Slot(0)

	m, _ = press(t, m, "d")
	if m.mode != ModeConfirmDelete {
		t.Fatalf("mode = %v", m.mode)
	}
	m, _ = press(t, m, "n")
	if m.mode != ModeNormal {
		t.Fatal("refusal did not close the modal")
	}
	if _, ok := m.snap.Prompt(first.ID); !ok {
		t.Fatal("prompt deleted without confirmation")
	}

	m, cmd := press(t, m, "d", "y")
	m = run(t, m, cmd)
	if _, ok := m.snap.Prompt(first.ID); ok {
		t.Error("prompt survived a confirmed delete")
	}
	if !strings.Contains(m.message, "Deleted: "+first.Title) {
		t.Errorf("message = %q", m.message)
	}
}

func TestAddPromptModal(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, _ = press(t, m, "a", "R", "e", "v", "tab", "b", "o", "d", "y")
	if m.mode != ModeAddPrompt {
		t.Fatalf("mode = %v", m.mode)
	}

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = run(t, next.(Model), cmd)

	if len(m.snap.Prompts) != 7 {
		t.Fatalf("prompts = %d", len(m.snap.Prompts))
	}
	last := m.snap.Prompts[len(m.snap.Prompts)-1]
	if last.Title != "Rev" || last.Content != "body" {
		t.Errorf("added %+v", last)
	}
}

func TestAddPromptRequiresBothFields(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = press(t, m, "a", "x")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(Model)

	if m.message != "Please enter both title and content" || !m.isError {
		t.Errorf("message = %q", m.message)
	}
	if cmd == nil {
		t.Error("expected the dismiss timer")
	}
}

func TestFreeTierFolderDenied(t *testing.T) {
	m, _, _ := newTestModel(t)

	m, cmd := press(t, m, "f", "W", "o", "r", "k", "enter")
	m = run(t, m, cmd)

	if !m.isError || !strings.Contains(m.message, "PRO") {
		t.Errorf("message = %q", m.message)
	}
	if len(m.snap.Folders) != 0 {
		t.Error("folder created on free tier")
	}
}

func TestReloadFromAnotherWindow(t *testing.T) {
	m, lib, _ := newTestModel(t)

	if _, err := lib.Mutate(context.Background(), prompts.AddPrompt{Title: "Other", Content: "window"}); err != nil {
		t.Fatal(err)
	}
	snap, err := lib.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	next, cmd := m.Update(reloadMsg{snap: snap, reason: "notification"})
	m = next.(Model)
	if len(m.snap.Prompts) != 7 || cmd == nil {
		t.Errorf("prompts=%d, resubscribed=%v", len(m.snap.Prompts), cmd != nil)
	}
}

func TestMessageAutoDismiss(t *testing.T) {
	m, _, _ := newTestModel(t)
	m, _ = press(t, m, "9")
	seq := m.messageSeq

	// a stale timer leaves a newer message alone
	next, _ := m.Update(clearMessageMsg{seq: seq - 1})
	if next.(Model).message == "" {
		t.Fatal("stale timer cleared the message")
	}
	next, _ = m.Update(clearMessageMsg{seq: seq})
	if next.(Model).message != "" {
		t.Error("message not cleared")
	}
}

func TestViewRenders(t *testing.T) {
	m, _, _ := newTestModel(t)
	view := m.View()
	for _, want := range []string{"Prompt Picker", "Debug Root Cause", "Free 6/11", "toggle: alt+shift+space"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q", want)
		}
	}
}
