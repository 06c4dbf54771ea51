// Package sync keeps one window's view of the prompt library fresh. It
// listens for change notifications and, because those may be missed, also
// polls the store on a fixed interval.
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/notify"
	"github.com/existflow/promptpicker/internal/prompts"
	"github.com/existflow/promptpicker/internal/store"
)

// DefaultPollInterval matches the bar's refresh cadence
const DefaultPollInterval = 2 * time.Second

// Reason says why a reload happened
type Reason string

const (
	ReasonNotification Reason = "notification"
	ReasonTrigger      Reason = "trigger"
	ReasonCountDrift   Reason = "count-drift"
	ReasonCorrupt      Reason = "corrupt"
	ReasonManual       Reason = "manual"
)

// Watcher reloads a window's snapshot when the shared store changes
type Watcher struct {
	lib          *prompts.Library
	channel      notify.Channel
	pollInterval time.Duration

	mu       sync.Mutex
	rendered int
	onReload func(*prompts.Snapshot, Reason)
	onError  func(error)

	reloadCh chan Reason
	stopCh   chan struct{}
	done     chan struct{}
	unsubs   []func()
	started  bool
	stopOnce sync.Once
}

// Option configures a Watcher
type Option func(*Watcher)

// WithInterval sets the poll interval
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// NewWatcher creates a watcher for lib. channel may be nil, in which case only
// polling is used.
func NewWatcher(lib *prompts.Library, channel notify.Channel, opts ...Option) *Watcher {
	w := &Watcher{
		lib:          lib,
		channel:      channel,
		pollInterval: DefaultPollInterval,
		rendered:     -1,
		reloadCh:     make(chan Reason, 1),
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetOnReload sets a callback invoked with every reloaded snapshot
func (w *Watcher) SetOnReload(callback func(*prompts.Snapshot, Reason)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = callback
}

// SetOnError sets a callback for reload failures
func (w *Watcher) SetOnError(callback func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = callback
}

// Observe records what the window currently renders, so count drift is
// measured against it
func (w *Watcher) Observe(snap *prompts.Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.rendered = len(snap.Prompts)
}

// Rendered returns the last observed prompt count, -1 before the first load
func (w *Watcher) Rendered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rendered
}

// Start subscribes to notifications and begins polling. It returns
// immediately; Stop or cancelling ctx ends the loop.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()

	if w.channel != nil {
		for _, topic := range notify.Topics {
			unsub := w.channel.Subscribe(topic, func(ev notify.Event) {
				w.request(ReasonNotification)
			})
			w.unsubs = append(w.unsubs, unsub)
		}
	}

	go w.pollLoop(ctx)
}

// request queues a reload; requests that arrive while one is queued are merged
func (w *Watcher) request(reason Reason) {
	select {
	case w.reloadCh <- reason:
	default:
	}
}

// Refresh asks the loop to reload now
func (w *Watcher) Refresh() {
	w.request(ReasonManual)
}

// pollLoop periodically checks the store
func (w *Watcher) pollLoop(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.Poll(ctx); err != nil && ctx.Err() == nil {
				w.fail(err)
			}
		case reason := <-w.reloadCh:
			if err := w.reload(ctx, reason); err != nil && ctx.Err() == nil {
				w.fail(err)
			}
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Poll applies the fallbacks once: a recent trigger timestamp written by
// another window is consumed and causes a reload, and so does a prompt count
// that differs from what was last rendered. It reports whether a reload
// happened.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	st, err := w.lib.Peek(ctx)
	if errors.Is(err, store.ErrCorrupt) {
		return true, w.reload(ctx, ReasonCorrupt)
	}
	if err != nil {
		return false, err
	}

	var reason Reason
	if w.lib.TriggerRecent(st.Trigger) && !w.lib.Authored(st.Trigger) {
		if _, err := w.lib.ClearTrigger(ctx, st); err != nil {
			logger.Debug("Failed to clear trigger", logger.F("error", err))
		}
		reason = ReasonTrigger
	}
	if reason == "" && st.Count != w.Rendered() {
		logger.Debug("Prompt count changed", logger.F("rendered", w.Rendered()), logger.F("stored", st.Count))
		reason = ReasonCountDrift
	}
	if reason == "" {
		return false, nil
	}
	return true, w.reload(ctx, reason)
}

func (w *Watcher) reload(ctx context.Context, reason Reason) error {
	snap, err := w.lib.LoadAll(ctx)
	if err != nil {
		return err
	}
	w.Observe(snap)

	w.mu.Lock()
	callback := w.onReload
	w.mu.Unlock()

	logger.Debug("Library reloaded", logger.F("reason", string(reason)), logger.F("prompts", len(snap.Prompts)))
	if callback != nil {
		callback(snap, reason)
	}
	return nil
}

func (w *Watcher) fail(err error) {
	w.mu.Lock()
	callback := w.onError
	w.mu.Unlock()

	logger.Warn("Library refresh failed", logger.F("error", err))
	if callback != nil {
		callback(err)
	}
}

// Stop unsubscribes from notifications and ends the poll loop
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		for _, unsub := range w.unsubs {
			unsub()
		}
		close(w.stopCh)

		w.mu.Lock()
		started := w.started
		w.mu.Unlock()
		if started {
			<-w.done
		}
	})
}
