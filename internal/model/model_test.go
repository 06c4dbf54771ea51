package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeShortcut(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alt+shift+space", "alt+shift+space"},
		{"Shift+Alt+Space", "alt+shift+space"},
		{"option + command + P", "cmd+alt+p"},
		{"control+meta+k", "cmd+ctrl+k"},
		{"shift+shift+x", "shift+x"},
		{"opt+super+ctrl+shift+f1", "cmd+ctrl+alt+shift+f1"},
	}
	for _, tt := range tests {
		got, err := NormalizeShortcut(tt.in)
		if err != nil {
			t.Errorf("NormalizeShortcut(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeShortcut(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeShortcutRejects(t *testing.T) {
	for _, in := range []string{"", "alt+shift", "a+b", "ctrl+x+y"} {
		if _, err := NormalizeShortcut(in); !errors.Is(err, ErrInvalidShortcut) {
			t.Errorf("NormalizeShortcut(%q) = %v, want ErrInvalidShortcut", in, err)
		}
	}
}

func TestPreviewTruncates(t *testing.T) {
	p := Prompt{Content: strings.Repeat("é", DisplayLimit+10)}
	got := p.Preview()
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got suffix %q", got[len(got)-4:])
	}
	if n := len([]rune(got)); n != DisplayLimit+1 {
		t.Errorf("preview runes = %d, want %d", n, DisplayLimit+1)
	}
	if len([]rune(p.Content)) != DisplayLimit+10 {
		t.Error("content must not be modified")
	}

	short := Prompt{Content: "hello"}
	if short.Preview() != "hello" {
		t.Errorf("short preview = %q", short.Preview())
	}
}

func TestDefaultPrompts(t *testing.T) {
	defaults := DefaultPrompts()
	if len(defaults) != 6 {
		t.Fatalf("got %d defaults", len(defaults))
	}
	for i, p := range defaults {
		if p.ID != string(rune('1'+i)) {
			t.Errorf("default %d has id %q", i, p.ID)
		}
		if p.Title == "" || p.Content == "" || p.Color == "" || p.FolderID != "" {
			t.Errorf("default %q incomplete: %+v", p.ID, p)
		}
		if !p.IsDefault() {
			t.Errorf("%q should be default", p.ID)
		}
	}
	if (Prompt{ID: "1700000000000"}).IsDefault() {
		t.Error("custom prompt reported as default")
	}
}

func TestMergedFolderName(t *testing.T) {
	if got := MergedFolderName("Refactor", "Write Tests"); got != "Refactor & Write Tests" {
		t.Errorf("got %q", got)
	}
	got := MergedFolderName("Optimize Performance", "Add Error Handling")
	if n := len([]rune(got)); n > FolderNameLimit {
		t.Errorf("name %q has %d runes", got, n)
	}
	if !strings.HasPrefix(got, "Optimize Performance &") {
		t.Errorf("got %q", got)
	}
}

func TestNewFolderIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewFolderID()
		if !strings.HasPrefix(id, "folder-") || seen[id] {
			t.Fatalf("bad or duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestLicenseExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if (License{}).Expired(now) {
		t.Error("license without expiry is not expired")
	}
	if !(License{ExpiresAt: &past}).Expired(now) {
		t.Error("past expiry should be expired")
	}
	if (License{ExpiresAt: &future}).Expired(now) {
		t.Error("future expiry should not be expired")
	}
}
