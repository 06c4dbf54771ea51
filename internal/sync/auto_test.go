package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/notify"
	"github.com/existflow/promptpicker/internal/prompts"
	"github.com/existflow/promptpicker/internal/store"
)

// dropChannel loses every broadcast
type dropChannel struct{}

func (dropChannel) Broadcast(context.Context, string, interface{}) error { return nil }
func (dropChannel) Subscribe(string, func(notify.Event)) func()         { return func() {} }

func openStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := store.NewFileBackend(dir)
	if err != nil {
		t.Fatal(err)
	}
	return store.New(backend, store.WithLogger(logger.Nop())), dir
}

func newWindow(s *store.Store, ch notify.Channel, now func() time.Time) *prompts.Library {
	lm := license.NewManager(s, nil, license.WithClock(now), license.WithManagerLogger(logger.Nop()))
	return prompts.New(s, ch, lm, prompts.WithClock(now), prompts.WithLogger(logger.Nop()))
}

func load(t *testing.T, lib *prompts.Library) *prompts.Snapshot {
	t.Helper()
	snap, err := lib.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestCountDriftReloadsWithoutNotification(t *testing.T) {
	s, _ := openStore(t)
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	windowA := newWindow(s, dropChannel{}, func() time.Time { return now })
	// B's clock runs well past A's, so A's trigger always looks stale to B
	windowB := newWindow(s, dropChannel{}, func() time.Time { return now.Add(time.Minute) })

	w := NewWatcher(windowB, dropChannel{})
	w.Observe(load(t, windowB))

	var got *prompts.Snapshot
	var gotReason Reason
	w.SetOnReload(func(snap *prompts.Snapshot, reason Reason) {
		got, gotReason = snap, reason
	})

	if reloaded, err := w.Poll(context.Background()); err != nil || reloaded {
		t.Fatalf("idle poll reloaded=%v err=%v", reloaded, err)
	}

	ack, err := windowA.Mutate(context.Background(), prompts.AddPrompt{Title: "new", Content: "from A"})
	if err != nil || ack.Denied {
		t.Fatalf("add: %v %+v", err, ack)
	}

	reloaded := false
	for i := 0; i < 2 && !reloaded; i++ {
		if reloaded, err = w.Poll(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if !reloaded || gotReason != ReasonCountDrift {
		t.Fatalf("reloaded=%v reason=%q", reloaded, gotReason)
	}
	if _, ok := got.Prompt(ack.PromptID); !ok {
		t.Error("reloaded snapshot lacks the new prompt")
	}
	if w.Rendered() != 7 {
		t.Errorf("rendered = %d", w.Rendered())
	}
}

func TestTriggerReloadsAndIsCleared(t *testing.T) {
	s, _ := openStore(t)
	now := time.Now()
	clock := func() time.Time { return now }

	windowA := newWindow(s, dropChannel{}, clock)
	windowB := newWindow(s, dropChannel{}, clock)

	w := NewWatcher(windowB, nil)
	w.Observe(load(t, windowB))

	var reasons []Reason
	w.SetOnReload(func(_ *prompts.Snapshot, reason Reason) { reasons = append(reasons, reason) })

	// an edit keeps the count, so only the trigger can reveal it
	if _, err := windowA.Mutate(context.Background(), prompts.EditPrompt{ID: "1", Title: "Renamed", Content: "x"}); err != nil {
		t.Fatal(err)
	}

	if reloaded, err := w.Poll(context.Background()); err != nil || !reloaded {
		t.Fatalf("reloaded=%v err=%v", reloaded, err)
	}
	if len(reasons) != 1 || reasons[0] != ReasonTrigger {
		t.Errorf("reasons = %v", reasons)
	}

	st, err := windowB.Peek(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if st.Trigger != nil {
		t.Error("trigger was not cleared")
	}

	if reloaded, _ := w.Poll(context.Background()); reloaded {
		t.Error("second poll should be quiet")
	}
}

func TestWriterLeavesItsTriggerForOtherWindows(t *testing.T) {
	s, _ := openStore(t)
	now := time.Now()
	clock := func() time.Time { return now }

	windowA := newWindow(s, dropChannel{}, clock)
	windowB := newWindow(s, dropChannel{}, clock)

	wA := NewWatcher(windowA, nil)
	wA.Observe(load(t, windowA))
	wB := NewWatcher(windowB, nil)
	wB.Observe(load(t, windowB))

	var reasons []Reason
	wB.SetOnReload(func(_ *prompts.Snapshot, reason Reason) { reasons = append(reasons, reason) })

	if _, err := windowA.Mutate(context.Background(), prompts.EditPrompt{ID: "2", Title: "Explain", Content: "y"}); err != nil {
		t.Fatal(err)
	}

	// the writer polls first and must not consume its own trigger
	if reloaded, err := wA.Poll(context.Background()); err != nil || reloaded {
		t.Fatalf("writer reloaded=%v err=%v", reloaded, err)
	}
	if st, _ := windowA.Peek(context.Background()); st.Trigger == nil {
		t.Fatal("writer cleared its own trigger")
	}

	if reloaded, err := wB.Poll(context.Background()); err != nil || !reloaded {
		t.Fatalf("reader reloaded=%v err=%v", reloaded, err)
	}
	if len(reasons) != 1 || reasons[0] != ReasonTrigger {
		t.Errorf("reasons = %v", reasons)
	}
	if st, _ := windowB.Peek(context.Background()); st.Trigger != nil {
		t.Error("reader did not clear the trigger")
	}
}

func TestNotificationReload(t *testing.T) {
	s, _ := openStore(t)
	bus := notify.NewBus()

	windowA := newWindow(s, bus, time.Now)
	windowB := newWindow(s, bus, time.Now)

	w := NewWatcher(windowB, bus, WithInterval(time.Hour))
	w.Observe(load(t, windowB))

	reloads := make(chan Reason, 8)
	w.SetOnReload(func(_ *prompts.Snapshot, reason Reason) { reloads <- reason })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)
	defer w.Stop()

	if _, err := windowA.Mutate(context.Background(), prompts.SetSetting{ToggleShortcut: "ctrl+space"}); err != nil {
		t.Fatal(err)
	}

	select {
	case reason := <-reloads:
		if reason != ReasonNotification {
			t.Errorf("reason = %q", reason)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after broadcast")
	}
}

func TestPollLoopReloadsEventually(t *testing.T) {
	s, _ := openStore(t)
	windowA := newWindow(s, dropChannel{}, time.Now)
	windowB := newWindow(s, dropChannel{}, time.Now)

	w := NewWatcher(windowB, dropChannel{}, WithInterval(20*time.Millisecond))
	w.Observe(load(t, windowB))

	snaps := make(chan *prompts.Snapshot, 8)
	w.SetOnReload(func(snap *prompts.Snapshot, _ Reason) {
		select {
		case snaps <- snap:
		default:
		}
	})
	w.Start(context.Background())
	defer w.Stop()

	if _, err := windowA.Mutate(context.Background(), prompts.DeletePrompt{
		ID:      "3",
		Confirm: func(model.Prompt) bool { return true },
	}); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-snaps:
			if _, ok := snap.Prompt("3"); !ok {
				return
			}
		case <-deadline:
			t.Fatal("window B never saw the delete")
		}
	}
}

func TestCorruptStoreTriggersHealingReload(t *testing.T) {
	s, dir := openStore(t)
	lib := newWindow(s, dropChannel{}, time.Now)
	w := NewWatcher(lib, nil)
	w.Observe(load(t, lib))

	if err := os.WriteFile(filepath.Join(dir, store.NamespacePrompts), []byte("{{"), 0644); err != nil {
		t.Fatal(err)
	}

	var got *prompts.Snapshot
	var gotReason Reason
	w.SetOnReload(func(snap *prompts.Snapshot, reason Reason) { got, gotReason = snap, reason })

	if reloaded, err := w.Poll(context.Background()); err != nil || !reloaded {
		t.Fatalf("reloaded=%v err=%v", reloaded, err)
	}
	if gotReason != ReasonCorrupt || got == nil || !got.Recovered {
		t.Errorf("reason=%q snapshot=%+v", gotReason, got)
	}
}

func TestStopUnsubscribes(t *testing.T) {
	s, _ := openStore(t)
	bus := notify.NewBus()
	w := NewWatcher(newWindow(s, bus, time.Now), bus)

	w.Start(context.Background())
	if bus.ClientCount() != len(notify.Topics) {
		t.Fatalf("subscribers = %d", bus.ClientCount())
	}
	w.Stop()
	w.Stop()
	if bus.ClientCount() != 0 {
		t.Errorf("subscribers after stop = %d", bus.ClientCount())
	}
}
