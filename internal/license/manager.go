package license

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
	"github.com/existflow/promptpicker/internal/store"
)

const storeKey = "license"

// ErrInvalidKeyFormat is returned before anything is written for keys that
// do not look like PB-XXXX-XXXX-XXXX-XXXX
var ErrInvalidKeyFormat = errors.New("invalid license key format, expected PB-XXXX-XXXX-XXXX-XXXX")

var keyPattern = regexp.MustCompile(`^PB-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

// ValidFormat reports whether key matches the license key pattern
func ValidFormat(key string) bool {
	return keyPattern.MatchString(key)
}

// NormalizeKey trims and uppercases a key as typed by the user
func NormalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

// Manager reads and writes the license document
type Manager struct {
	store    *store.Store
	verifier Verifier
	now      func() time.Time
	log      *logger.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithClock overrides the wall clock used for expiry checks
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// WithManagerLogger sets the logger
func WithManagerLogger(l *logger.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a license manager. A nil verifier means offline demo
// verification.
func NewManager(s *store.Store, v Verifier, opts ...ManagerOption) *Manager {
	m := &Manager{store: s, verifier: v, now: time.Now, log: logger.Default()}
	for _, opt := range opts {
		opt(m)
	}
	if m.verifier == nil {
		m.verifier = OfflineVerifier{Now: m.now}
	}
	return m
}

// Now returns the manager's clock reading
func (m *Manager) Now() time.Time {
	return m.now()
}

// Info returns the stored license with validity recomputed against the clock.
// No stored license reads as free.
func (m *Manager) Info(ctx context.Context) (model.License, error) {
	h, err := m.store.Load(ctx, store.NamespaceLicense)
	if errors.Is(err, store.ErrCorrupt) {
		if _, qerr := m.store.Quarantine(ctx, store.NamespaceLicense); qerr != nil {
			return model.License{}, qerr
		}
		m.log.Warn("License document was corrupt, reading as free")
		return model.FreeLicense(), nil
	}
	if err != nil {
		return model.License{}, err
	}

	var lic model.License
	found, err := h.Get(storeKey, &lic)
	if err != nil {
		m.log.Warn("Stored license is unreadable, reading as free", logger.F("error", err))
		return model.FreeLicense(), nil
	}
	if !found {
		return model.FreeLicense(), nil
	}

	eff := Effective(lic, m.now())
	if lic.IsValid && !eff.IsValid {
		m.log.Info("License expired", logger.F("expires_at", lic.ExpiresAt))
	}
	return eff, nil
}

// Tier returns the entitled tier right now
func (m *Manager) Tier(ctx context.Context) (model.Tier, error) {
	lic, err := m.Info(ctx)
	if err != nil {
		return model.TierFree, err
	}
	return IsEntitled(lic, m.now()), nil
}

// SetKey verifies key and stores the result. A well-formed key that fails
// verification is still stored, as free. Malformed keys are rejected with
// ErrInvalidKeyFormat and nothing is written.
func (m *Manager) SetKey(ctx context.Context, key, email string) (model.License, error) {
	key = NormalizeKey(key)
	if !ValidFormat(key) {
		return model.License{}, ErrInvalidKeyFormat
	}

	v, err := m.verifier.Verify(ctx, key)
	if err != nil {
		return model.License{}, fmt.Errorf("failed to verify license: %w", err)
	}

	lic := model.License{
		Key:     key,
		Email:   strings.TrimSpace(email),
		Tier:    model.TierFree,
		IsValid: v.Valid,
	}
	if v.Valid {
		lic.Tier = model.TierPro
		lic.ExpiresAt = v.ExpiresAt
	}

	h, err := m.store.Load(ctx, store.NamespaceLicense)
	if errors.Is(err, store.ErrCorrupt) {
		if _, err = m.store.Quarantine(ctx, store.NamespaceLicense); err == nil {
			h, err = m.store.Load(ctx, store.NamespaceLicense)
		}
	}
	if err != nil {
		return model.License{}, err
	}
	if err := h.Set(storeKey, lic); err != nil {
		return model.License{}, err
	}
	if err := h.Save(ctx); err != nil {
		return model.License{}, err
	}

	m.log.Info("License key stored", logger.F("tier", lic.Tier), logger.F("valid", lic.IsValid), logger.F("reason", v.Reason))
	return lic, nil
}

// Remove deletes the stored license
func (m *Manager) Remove(ctx context.Context) error {
	h, err := m.store.Load(ctx, store.NamespaceLicense)
	if errors.Is(err, store.ErrCorrupt) {
		_, err = m.store.Quarantine(ctx, store.NamespaceLicense)
		return err
	}
	if err != nil {
		return err
	}
	h.Delete(storeKey)
	if err := h.Save(ctx); err != nil {
		return err
	}
	m.log.Info("License removed")
	return nil
}

// DemoKey generates a key the offline verifier accepts
func (m *Manager) DemoKey() string {
	return DemoKey()
}

// DemoKey generates a key the offline verifier accepts
func DemoKey() string {
	const chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	segments := make([]string, 0, 4)
	for i := 0; i < 3; i++ {
		var b strings.Builder
		for j := 0; j < 4; j++ {
			b.WriteByte(chars[rand.Intn(len(chars))])
		}
		segments = append(segments, b.String())
	}
	segments = append(segments, "0000")
	return "PB-" + strings.Join(segments, "-")
}
