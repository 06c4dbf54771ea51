package model

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// DefaultToggleShortcut shows and hides the bar
const DefaultToggleShortcut = "alt+shift+space"

// Settings is the single user settings record
type Settings struct {
	ToggleShortcut string `json:"toggleShortcut"`
}

// DefaultSettings returns the settings used before anything is saved
func DefaultSettings() Settings {
	return Settings{ToggleShortcut: DefaultToggleShortcut}
}

// ErrInvalidShortcut is returned for shortcuts without exactly one key
var ErrInvalidShortcut = errors.New("invalid shortcut")

var modifierOrder = []string{"cmd", "ctrl", "alt", "shift"}

var modifierAliases = map[string]string{
	"cmd":     "cmd",
	"command": "cmd",
	"meta":    "cmd",
	"super":   "cmd",
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"shift":   "shift",
}

// NormalizeShortcut lowercases a shortcut, resolves modifier aliases and
// orders the tokens cmd, ctrl, alt, shift, key. The result holds each
// modifier at most once and exactly one key.
func NormalizeShortcut(s string) (string, error) {
	seen := make(map[string]bool)
	key := ""

	for _, tok := range strings.Split(s, "+") {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		if mod, ok := modifierAliases[tok]; ok {
			seen[mod] = true
			continue
		}
		if key != "" {
			return "", fmt.Errorf("%w: %q has more than one key", ErrInvalidShortcut, s)
		}
		key = tok
	}

	if key == "" {
		return "", fmt.Errorf("%w: %q has no key", ErrInvalidShortcut, s)
	}

	parts := make([]string, 0, len(modifierOrder)+1)
	for _, mod := range modifierOrder {
		if seen[mod] {
			parts = append(parts, mod)
		}
	}
	parts = append(parts, key)
	return strings.Join(parts, "+"), nil
}

// SlotShortcut returns the global shortcut that injects slot i (0-based)
func SlotShortcut(i int) string {
	if runtime.GOOS == "darwin" {
		return fmt.Sprintf("cmd+alt+%d", i+1)
	}
	return fmt.Sprintf("ctrl+alt+%d", i+1)
}
