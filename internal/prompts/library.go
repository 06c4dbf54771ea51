// Package prompts is the shared prompt library: the one place where windows
// read the prompts, folders, settings and license, and the one entry point
// through which they change them.
package prompts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/notify"
	"github.com/existflow/promptpicker/internal/store"
)

// Library reads and mutates the prompt store on behalf of one window
type Library struct {
	store    *store.Store
	channel  notify.Channel
	licenses *license.Manager
	now      func() time.Time
	log      *logger.Logger

	// serializes Mutate within this process only; other processes are not
	// locked out
	mu sync.Mutex

	// last trigger value this library wrote, 0 before any write
	stamped atomic.Int64
}

// Option configures a Library
type Option func(*Library)

// WithClock overrides the wall clock
func WithClock(now func() time.Time) Option {
	return func(l *Library) { l.now = now }
}

// WithLogger sets the logger
func WithLogger(lg *logger.Logger) Option {
	return func(l *Library) { l.log = lg }
}

// New creates a library over s. Changes are announced on channel.
func New(s *store.Store, channel notify.Channel, licenses *license.Manager, opts ...Option) *Library {
	l := &Library{
		store:    s,
		channel:  channel,
		licenses: licenses,
		now:      time.Now,
		log:      logger.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Channel returns the notification channel changes are announced on
func (l *Library) Channel() notify.Channel { return l.channel }

// Licenses returns the license manager
func (l *Library) Licenses() *license.Manager { return l.licenses }

// Snapshot is everything a window renders
type Snapshot struct {
	Prompts   []model.Prompt
	Folders   []model.Folder
	Settings  model.Settings
	License   model.License
	Tier      model.Tier
	Limit     license.LimitInfo
	Rev       int64
	Recovered bool
}

// Display returns the prompts shown in the bar, in slot order
func (s *Snapshot) Display() []model.Prompt {
	return Compose(s.Prompts, s.Folders)
}

// Slot returns the prompt a 0-based hotkey index refers to
func (s *Snapshot) Slot(i int) (model.Prompt, bool) {
	display := s.Display()
	if i < 0 || i >= len(display) {
		return model.Prompt{}, false
	}
	return display[i], true
}

// Prompt looks a prompt up by id
func (s *Snapshot) Prompt(id string) (model.Prompt, bool) {
	for _, p := range s.Prompts {
		if p.ID == id {
			return p, true
		}
	}
	return model.Prompt{}, false
}

// Folder looks a folder up by id
func (s *Snapshot) Folder(id string) (model.Folder, bool) {
	for _, f := range s.Folders {
		if f.ID == id {
			return f, true
		}
	}
	return model.Folder{}, false
}

// Ack reports the outcome of Mutate
type Ack struct {
	Change string
	Rev    int64
	// Denied is set when the license gate refused the change. Nothing was written.
	Denied bool
	Reason string
	// PromptID and FolderID name what was created or touched
	PromptID string
	FolderID string
	// Conflict is set when another writer saved between our read and write.
	// Our save won; theirs was overwritten.
	Conflict bool
	License  *model.License
}

// loadDocument opens the prompts document. A corrupt document is moved aside
// and replaced by the defaults; recovered reports that this happened.
func (l *Library) loadDocument(ctx context.Context) (h *store.Handle, doc *document, recovered bool, err error) {
	h, err = l.store.Load(ctx, store.NamespacePrompts)
	if err == nil {
		doc, err = decodeDocument(h)
		if err == nil {
			return h, doc, false, nil
		}
		err = fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	if !errors.Is(err, store.ErrCorrupt) {
		return nil, nil, false, err
	}

	dest, qerr := l.store.Quarantine(ctx, store.NamespacePrompts)
	if qerr != nil {
		return nil, nil, false, fmt.Errorf("%v; %w", err, qerr)
	}
	l.log.Warn("Prompt library was corrupt and has been reset to defaults",
		logger.F("error", err), logger.F("moved_to", dest))

	h, err = l.store.Load(ctx, store.NamespacePrompts)
	if err != nil {
		return nil, nil, false, err
	}
	doc, err = decodeDocument(h)
	if err != nil {
		return nil, nil, false, err
	}
	return h, doc, true, nil
}

// loadSettings reads the settings document, falling back to defaults
func (l *Library) loadSettings(ctx context.Context) (model.Settings, *store.Handle, error) {
	h, err := l.store.Load(ctx, store.NamespaceSettings)
	if errors.Is(err, store.ErrCorrupt) {
		if _, err = l.store.Quarantine(ctx, store.NamespaceSettings); err == nil {
			h, err = l.store.Load(ctx, store.NamespaceSettings)
		}
	}
	if err != nil {
		return model.Settings{}, nil, err
	}

	settings := model.DefaultSettings()
	var saved model.Settings
	found, err := h.Get(keySettings, &saved)
	if err != nil {
		l.log.Warn("Stored settings are unreadable, using defaults", logger.F("error", err))
		return settings, h, nil
	}
	if found && saved.ToggleShortcut != "" {
		normalized, err := model.NormalizeShortcut(saved.ToggleShortcut)
		if err != nil {
			l.log.Warn("Stored shortcut is invalid, using default", logger.F("shortcut", saved.ToggleShortcut))
		} else {
			settings.ToggleShortcut = normalized
		}
	}
	return settings, h, nil
}

// LoadAll reads every document and derives the entitlement state. An absent
// prompt list is seeded with the defaults and saved.
func (l *Library) LoadAll(ctx context.Context) (*Snapshot, error) {
	h, doc, recovered, err := l.loadDocument(ctx)
	if err != nil {
		return nil, err
	}

	if n := doc.normalize(); n > 0 {
		l.log.Warn("Repaired folder membership on load", logger.F("records", n))
	}

	if doc.seeded {
		if err := doc.encode(h); err != nil {
			return nil, err
		}
		if err := h.Save(ctx); err != nil {
			return nil, err
		}
		l.log.Info("Default prompts saved to store")
	}

	settings, _, err := l.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	lic, err := l.licenses.Info(ctx)
	if err != nil {
		return nil, err
	}
	tier := license.IsEntitled(lic, l.licenses.Now())

	return &Snapshot{
		Prompts:   doc.Prompts,
		Folders:   doc.Folders,
		Settings:  settings,
		License:   lic,
		Tier:      tier,
		Limit:     license.PromptLimitInfo(tier, len(doc.Prompts)),
		Rev:       doc.Rev,
		Recovered: recovered,
	}, nil
}

// State is the cheap view of the prompts document used by pollers
type State struct {
	Count   int
	Trigger *int64
	Rev     int64
}

// Peek reads the prompt count, trigger and revision without seeding or
// repairing anything
func (l *Library) Peek(ctx context.Context) (State, error) {
	h, err := l.store.Load(ctx, store.NamespacePrompts)
	if err != nil {
		return State{}, err
	}
	doc, err := decodeDocument(h)
	if err != nil {
		return State{}, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return State{Count: len(doc.Prompts), Trigger: doc.Trigger, Rev: doc.Rev}, nil
}

// TriggerRecent reports whether a trigger timestamp is within TriggerWindow
func (l *Library) TriggerRecent(trigger *int64) bool {
	if trigger == nil {
		return false
	}
	return l.now().UnixMilli()-*trigger < TriggerWindow
}

// Authored reports whether trigger was written by this library. A window
// already holds its own changes and leaves those triggers to its peers.
func (l *Library) Authored(trigger *int64) bool {
	return trigger != nil && *trigger == l.stamped.Load()
}

// ClearTrigger resets the trigger timestamp if the document still holds the
// trigger and revision seen by the caller. It does nothing when another
// writer got in first.
func (l *Library) ClearTrigger(ctx context.Context, seen State) (bool, error) {
	if seen.Trigger == nil {
		return false, nil
	}
	h, err := l.store.Load(ctx, store.NamespacePrompts)
	if err != nil {
		return false, err
	}
	var trigger *int64
	if _, err := h.Get(keyTrigger, &trigger); err != nil {
		return false, err
	}
	var rev int64
	if _, err := h.Get(keyRevision, &rev); err != nil {
		return false, err
	}
	if trigger == nil || *trigger != *seen.Trigger || rev != seen.Rev {
		return false, nil
	}

	if err := h.Set(keyTrigger, nil); err != nil {
		return false, err
	}
	if err := h.Save(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Mutate applies change as one unit: validate, check entitlement, update the
// prompts and folders together, save, stamp the trigger and broadcast.
func (l *Library) Mutate(ctx context.Context, change Change) (*Ack, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tier, err := l.licenses.Tier(ctx)
	if err != nil {
		return nil, err
	}

	m := &mutation{lib: l, ctx: ctx, now: l.now(), tier: tier, ack: &Ack{Change: change.Kind()}}

	var topic string
	switch c := change.(type) {
	case SetSetting:
		topic = notify.TopicSettingsUpdated
		err = m.setSetting(c)
	case SetLicense:
		topic = notify.TopicLicenseUpdated
		err = m.setLicense(c)
	case RemoveLicense:
		topic = notify.TopicLicenseUpdated
		err = m.removeLicense()
	default:
		topic = notify.TopicPromptsUpdated
		err = m.applyToDocument(change)
	}
	if err != nil {
		l.log.Debug("Change rejected", logger.F("change", change.Kind()), logger.F("error", err))
		return nil, err
	}
	if m.ack.Denied {
		l.log.Info("Change denied by license", logger.F("change", change.Kind()), logger.F("tier", tier))
		return m.ack, nil
	}

	// settings and license live in their own documents; the trigger still
	// goes into the prompts document
	if topic != notify.TopicPromptsUpdated {
		if err := m.stampTrigger(); err != nil {
			return nil, err
		}
	}

	if err := l.channel.Broadcast(ctx, topic, map[string]interface{}{
		"change": change.Kind(),
		"rev":    m.ack.Rev,
	}); err != nil {
		l.log.Warn("Broadcast failed", logger.F("topic", topic), logger.F("error", err))
	}

	l.log.Info("Change applied",
		logger.F("change", change.Kind()),
		logger.F("rev", m.ack.Rev),
		logger.F("conflict", m.ack.Conflict),
	)
	return m.ack, nil
}
